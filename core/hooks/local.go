package hooks

import (
	"context"

	"github.com/cordum/pathpack/core/archive"
	"github.com/cordum/pathpack/core/collect"
	"github.com/cordum/pathpack/core/hookerr"
	"github.com/cordum/pathpack/core/infra/logging"
	"github.com/cordum/pathpack/core/pathspec"
)

// LocalHook packages descriptors that point at the local filesystem.
type LocalHook struct {
	pipeline
	tokens    pathspec.TokenResolver
	collector collect.Collector
}

// NewLocalHook returns the COPDEV_CI hook. tokens resolves `@key@`
// placeholders such as `@source.path@`.
func NewLocalHook(deps Deps, tokens pathspec.TokenResolver, collector collect.Collector) *LocalHook {
	h := &LocalHook{tokens: tokens, collector: collector}
	h.pipeline = pipeline{
		hookType:      TypeLocal,
		deps:          deps.withDefaults(),
		resolve:       h.resolve,
		noDescriptors: hookerr.KindNoPathsFound,
	}
	return h
}

func (h *LocalHook) resolve(_ context.Context, raw string) ([]archive.File, error) {
	spec, err := pathspec.ParseLocal(raw, h.tokens)
	if err != nil {
		return nil, err
	}
	logging.Info(h.component(), "resolving local path", "base", spec.BasePath, "filter", spec.Wildcard.String())
	return h.collector.Collect(spec)
}

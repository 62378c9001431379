package hooks

import (
	"context"

	"github.com/cordum/pathpack/core/archive"
	"github.com/cordum/pathpack/core/hookerr"
	"github.com/cordum/pathpack/core/infra/logging"
	"github.com/cordum/pathpack/core/pathspec"
)

// ArchiveFetcher resolves a GitHub descriptor into archive entries.
type ArchiveFetcher interface {
	Fetch(ctx context.Context, spec pathspec.GitHubPathSpec) ([]archive.File, error)
}

// GitHubHook packages descriptors that point into GitHub branches.
type GitHubHook struct {
	pipeline
	opts    pathspec.GitHubOptions
	fetcher ArchiveFetcher
}

// NewGitHubHook returns the COPDEV_GIT hook.
func NewGitHubHook(deps Deps, opts pathspec.GitHubOptions, fetcher ArchiveFetcher) *GitHubHook {
	h := &GitHubHook{opts: opts, fetcher: fetcher}
	h.pipeline = pipeline{
		hookType:      TypeGitHub,
		deps:          deps.withDefaults(),
		resolve:       h.resolve,
		noDescriptors: hookerr.KindNoGitHubPathFound,
	}
	return h
}

func (h *GitHubHook) resolve(ctx context.Context, raw string) ([]archive.File, error) {
	spec, err := pathspec.ParseGitHub(raw, h.opts)
	if err != nil {
		return nil, err
	}
	logging.Info(h.component(), "resolving github path", "owner", spec.Owner, "repo", spec.Repo,
		"branch", spec.Branch, "subpath", spec.Subpath, "filter", spec.Wildcard.String())
	return h.fetcher.Fetch(ctx, spec)
}

package hooks

import (
	"github.com/cordum/pathpack/core/archive"
	"github.com/cordum/pathpack/core/collect"
	"github.com/cordum/pathpack/core/infra/config"
	"github.com/cordum/pathpack/core/pathspec"
	"github.com/cordum/pathpack/core/remote"
)

// FromConfig builds a registry holding both hook variants configured from
// cfg. A nil deps.Builder writes archives into cfg.TempDir.
func FromConfig(cfg *config.HooksConfig, deps Deps) *Registry {
	if deps.Builder == nil {
		deps.Builder = archive.Builder{TempDir: cfg.TempDir}
	}
	excludes := collect.NewExcludes(cfg.ExcludeDirs...)

	fetcher := remote.New(cfg.GitHub.BaseURL, cfg.GitHub.TimeoutDuration())
	fetcher.MaxBytes = cfg.GitHub.MaxArchiveBytes
	fetcher.Exclude = excludes

	return NewRegistry(
		NewLocalHook(deps, cfg.Properties, collect.Collector{Exclude: excludes}),
		NewGitHubHook(deps, pathspec.GitHubOptions{BranchNamespaces: cfg.GitHub.BranchNamespaces}, fetcher),
	)
}

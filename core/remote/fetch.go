// Package remote downloads GitHub branch archives and filters their entries.
package remote

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/cordum/pathpack/core/archive"
	"github.com/cordum/pathpack/core/collect"
	"github.com/cordum/pathpack/core/hookerr"
	"github.com/cordum/pathpack/core/infra/logging"
	"github.com/cordum/pathpack/core/pathspec"
)

const (
	DefaultBaseURL  = "https://github.com"
	DefaultTimeout  = 60 * time.Second
	DefaultMaxBytes = 512 << 20
)

// Fetcher downloads branch archives with a single bounded request.
type Fetcher struct {
	BaseURL  string
	Client   *http.Client
	MaxBytes int64
	Exclude  collect.Excludes
}

// New returns a fetcher for baseURL with the given request timeout.
func New(baseURL string, timeout time.Duration) *Fetcher {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Fetcher{
		BaseURL:  baseURL,
		Client:   &http.Client{Timeout: timeout},
		MaxBytes: DefaultMaxBytes,
	}
}

// ArchiveURL returns the branch archive location for spec.
func (f *Fetcher) ArchiveURL(spec pathspec.GitHubPathSpec) string {
	base := strings.TrimRight(f.baseURL(), "/")
	return fmt.Sprintf("%s/%s/%s/archive/refs/heads/%s.zip", base, spec.Owner, spec.Repo, spec.Branch)
}

// Fetch downloads the archive for spec and returns the entries under its
// subpath that pass the wildcard, with paths relative to the subpath.
func (f *Fetcher) Fetch(ctx context.Context, spec pathspec.GitHubPathSpec) ([]archive.File, error) {
	if strings.TrimSpace(spec.Owner) == "" || strings.TrimSpace(spec.Repo) == "" || strings.TrimSpace(spec.Branch) == "" {
		return nil, hookerr.New(hookerr.KindEmptyRepoURLOrBranch, hookerr.Params{
			"owner": spec.Owner, "repo": spec.Repo, "branch": spec.Branch,
		}, nil)
	}
	url := f.ArchiveURL(spec)
	logging.Info("remote", "downloading archive", "url", url, "repo", spec.RepoPath(), "branch", spec.Branch)

	data, err := f.download(ctx, url)
	if err != nil {
		return nil, downloadFailed(url, spec, err)
	}
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, downloadFailed(url, spec, fmt.Errorf("read archive: %w", err))
	}
	files, err := f.filter(zr, spec)
	if err != nil {
		return nil, err
	}
	logging.Info("remote", "filtered archive", "repo", spec.RepoPath(), "subpath", spec.Subpath,
		"filter", spec.Wildcard.String(), "files", len(files))
	return files, nil
}

func (f *Fetcher) download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	client := f.Client
	if client == nil {
		client = &http.Client{Timeout: DefaultTimeout}
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	limit := f.MaxBytes
	if limit <= 0 {
		limit = DefaultMaxBytes
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("archive exceeds %d bytes", limit)
	}
	return data, nil
}

func (f *Fetcher) filter(zr *zip.Reader, spec pathspec.GitHubPathSpec) ([]archive.File, error) {
	root := archiveRoot(zr)
	if root == "" {
		return nil, hookerr.New(hookerr.KindNoDirectoriesFound, hookerr.Params{"path": spec.RepoPath()}, nil)
	}
	subpath := strings.Trim(path.Clean("/"+spec.Subpath), "/")

	var files []archive.File
	for _, entry := range zr.File {
		if entry.FileInfo().IsDir() || strings.HasSuffix(entry.Name, "/") {
			continue
		}
		name, ok := strings.CutPrefix(entry.Name, root+"/")
		if !ok {
			continue
		}
		rel, ok := relativeTo(name, subpath)
		if !ok {
			continue
		}
		if spec.Wildcard.IsSet() {
			if strings.Contains(rel, "/") || !spec.Wildcard.Match(rel) {
				continue
			}
		}
		if f.Exclude.Path(name) {
			continue
		}
		data, err := readEntry(entry)
		if err != nil {
			return nil, fmt.Errorf("read archive entry %s: %w", entry.Name, err)
		}
		files = append(files, archive.File{Path: rel, Data: data, Mode: entry.Mode().Perm()})
	}
	return files, nil
}

// archiveRoot returns the single top-level directory GitHub wraps branch
// archives in.
func archiveRoot(zr *zip.Reader) string {
	for _, entry := range zr.File {
		if first, _, ok := strings.Cut(entry.Name, "/"); ok && first != "" {
			return first
		}
	}
	return ""
}

// relativeTo returns name relative to subpath. An entry equal to subpath is
// a single-file selection and keeps its base name.
func relativeTo(name, subpath string) (string, bool) {
	if subpath == "" {
		return name, true
	}
	if name == subpath {
		return path.Base(name), true
	}
	rel, ok := strings.CutPrefix(name, subpath+"/")
	return rel, ok && rel != ""
}

func readEntry(entry *zip.File) ([]byte, error) {
	rc, err := entry.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

func (f *Fetcher) baseURL() string {
	if f.BaseURL == "" {
		return DefaultBaseURL
	}
	return f.BaseURL
}

func downloadFailed(url string, spec pathspec.GitHubPathSpec, cause error) error {
	return hookerr.New(hookerr.KindDownloadFailed, hookerr.Params{
		"url": url, "repo": spec.RepoPath(), "branch": spec.Branch,
	}, cause)
}

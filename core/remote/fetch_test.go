package remote

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/cordum/pathpack/core/archive"
	"github.com/cordum/pathpack/core/hookerr"
	"github.com/cordum/pathpack/core/pathspec"
)

func branchZip(t *testing.T, root string, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	if _, err := zw.Create(root + "/"); err != nil {
		t.Fatalf("create root: %v", err)
	}
	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		w, err := zw.Create(root + "/" + name)
		if err != nil {
			t.Fatalf("create %s: %v", name, err)
		}
		if _, err := w.Write([]byte(files[name])); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	return buf.Bytes()
}

var repoFiles = map[string]string{
	"README.md":                    "readme",
	"src/main/java/App.java":       "app",
	"src/main/java/Util.JAVA":      "util",
	"src/main/java/notes.txt":      "notes",
	"src/main/java/pkg/Deep.java":  "deep",
	"src/main/java/.git/config":    "git",
	"src/node_modules/x/index.js":  "js",
	"docs/guide.md":                "guide",
	"docs/node_modules/dep/ok.md":  "dep",
	"docs/sub/nested.md":           "nested",
}

func newServer(t *testing.T, hits *int32) (*httptest.Server, *Fetcher) {
	t.Helper()
	body := branchZip(t, "repo-main", repoFiles)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits != nil {
			atomic.AddInt32(hits, 1)
		}
		if r.URL.Path != "/owner/repo/archive/refs/heads/main.zip" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/zip")
		_, _ = w.Write(body)
	}))
	t.Cleanup(srv.Close)
	return srv, New(srv.URL, 5*time.Second)
}

func relPaths(files []archive.File) []string {
	out := make([]string, 0, len(files))
	for _, f := range files {
		out = append(out, f.Path)
	}
	sort.Strings(out)
	return out
}

func TestFetchExtensionFilterDirectChildren(t *testing.T) {
	_, fetcher := newServer(t, nil)
	spec, err := pathspec.ParseGitHub("/owner/repo/tree/main/src/main/java/*.java", pathspec.GitHubOptions{})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	files, err := fetcher.Fetch(context.Background(), spec)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if diff := cmp.Diff([]string{"App.java", "Util.JAVA"}, relPaths(files)); diff != "" {
		t.Fatalf("unexpected files (-want +got):\n%s", diff)
	}
}

func TestFetchSubtreeWithoutWildcard(t *testing.T) {
	_, fetcher := newServer(t, nil)
	spec, err := pathspec.ParseGitHub("/owner/repo/tree/main/docs", pathspec.GitHubOptions{})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	files, err := fetcher.Fetch(context.Background(), spec)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if diff := cmp.Diff([]string{"guide.md", "sub/nested.md"}, relPaths(files)); diff != "" {
		t.Fatalf("unexpected files (-want +got):\n%s", diff)
	}
}

func TestFetchWholeRepoExcludesDirs(t *testing.T) {
	_, fetcher := newServer(t, nil)
	files, err := fetcher.Fetch(context.Background(), pathspec.GitHubPathSpec{Owner: "owner", Repo: "repo", Branch: "main"})
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	for _, f := range files {
		if strings.Contains(f.Path, ".git/") || strings.Contains(f.Path, "node_modules/") {
			t.Fatalf("excluded entry leaked: %s", f.Path)
		}
	}
	if len(files) != 7 {
		t.Fatalf("expected 7 files, got %v", relPaths(files))
	}
}

func TestFetchSingleFileSubpath(t *testing.T) {
	_, fetcher := newServer(t, nil)
	spec, err := pathspec.ParseGitHub("/owner/repo/tree/main/README.md", pathspec.GitHubOptions{})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	files, err := fetcher.Fetch(context.Background(), spec)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(files) != 1 || files[0].Path != "README.md" || string(files[0].Data) != "readme" {
		t.Fatalf("unexpected files: %+v", files)
	}
}

func TestFetchNoMatchesIsEmpty(t *testing.T) {
	_, fetcher := newServer(t, nil)
	spec, err := pathspec.ParseGitHub("/owner/repo/tree/main/.java", pathspec.GitHubOptions{})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	files, err := fetcher.Fetch(context.Background(), spec)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(files) != 0 {
		t.Fatalf("expected no files, got %v", relPaths(files))
	}
}

func TestFetchEmptyBranchSkipsNetwork(t *testing.T) {
	var hits int32
	_, fetcher := newServer(t, &hits)
	_, err := fetcher.Fetch(context.Background(), pathspec.GitHubPathSpec{Owner: "owner", Repo: "repo"})
	if !errors.Is(err, hookerr.ErrEmptyRepoURLOrBranch) {
		t.Fatalf("expected EmptyRepoUrlOrBranch, got %v", err)
	}
	if atomic.LoadInt32(&hits) != 0 {
		t.Fatalf("expected no request")
	}
}

func TestFetchNotFoundIsDownloadFailed(t *testing.T) {
	var hits int32
	_, fetcher := newServer(t, &hits)
	_, err := fetcher.Fetch(context.Background(), pathspec.GitHubPathSpec{Owner: "owner", Repo: "repo", Branch: "nope"})
	if !errors.Is(err, hookerr.ErrDownloadFailed) {
		t.Fatalf("expected DownloadFailed, got %v", err)
	}
	if !strings.Contains(err.Error(), "unexpected status 404") || !strings.Contains(err.Error(), "owner/repo") {
		t.Fatalf("unexpected error text: %v", err)
	}
	if atomic.LoadInt32(&hits) != 1 {
		t.Fatalf("expected exactly one request, got %d", hits)
	}
}

func TestFetchTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()
	_, err := New(url, time.Second).Fetch(context.Background(), pathspec.GitHubPathSpec{Owner: "o", Repo: "r", Branch: "main"})
	if !errors.Is(err, hookerr.ErrDownloadFailed) {
		t.Fatalf("expected DownloadFailed, got %v", err)
	}
}

func TestFetchRejectsOversizeAndCorruptArchives(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("this is not a zip archive"))
	}))
	defer srv.Close()
	spec := pathspec.GitHubPathSpec{Owner: "o", Repo: "r", Branch: "main"}

	if _, err := New(srv.URL, time.Second).Fetch(context.Background(), spec); !errors.Is(err, hookerr.ErrDownloadFailed) {
		t.Fatalf("expected DownloadFailed for corrupt archive, got %v", err)
	}
	small := New(srv.URL, time.Second)
	small.MaxBytes = 4
	_, err := small.Fetch(context.Background(), spec)
	if !errors.Is(err, hookerr.ErrDownloadFailed) || !strings.Contains(err.Error(), "exceeds") {
		t.Fatalf("expected size limit failure, got %v", err)
	}
}

func TestFetchArchiveWithoutRoot(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, _ := zw.Create("flat.txt")
	_, _ = w.Write([]byte("x"))
	_ = zw.Close()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(buf.Bytes())
	}))
	defer srv.Close()
	_, err := New(srv.URL, time.Second).Fetch(context.Background(), pathspec.GitHubPathSpec{Owner: "o", Repo: "r", Branch: "main"})
	if !errors.Is(err, hookerr.ErrNoDirectoriesFound) {
		t.Fatalf("expected NoDirectoriesFound, got %v", err)
	}
}

func TestArchiveURL(t *testing.T) {
	f := &Fetcher{}
	got := f.ArchiveURL(pathspec.GitHubPathSpec{Owner: "etendosoftware", Repo: "docs", Branch: "feature/x"})
	if got != "https://github.com/etendosoftware/docs/archive/refs/heads/feature/x.zip" {
		t.Fatalf("unexpected url: %s", got)
	}
	f.BaseURL = "http://mirror.local/"
	if got := f.ArchiveURL(pathspec.GitHubPathSpec{Owner: "o", Repo: "r", Branch: "main"}); got != "http://mirror.local/o/r/archive/refs/heads/main.zip" {
		t.Fatalf("unexpected url: %s", got)
	}
}

func TestFetchSubpathInsideExcludedDir(t *testing.T) {
	_, fetcher := newServer(t, nil)
	for _, raw := range []string{
		"/owner/repo/tree/main/src/node_modules/x/*.js",
		"/owner/repo/tree/main/src/node_modules/x",
		"/owner/repo/tree/main/src/node_modules/x/index.js",
		"/owner/repo/tree/main/docs/node_modules/dep/*.md",
		"/owner/repo/tree/main/src/main/java/.git/*",
	} {
		spec, err := pathspec.ParseGitHub(raw, pathspec.GitHubOptions{})
		if err != nil {
			t.Fatalf("parse %s: %v", raw, err)
		}
		files, err := fetcher.Fetch(context.Background(), spec)
		if err != nil {
			t.Fatalf("fetch %s: %v", raw, err)
		}
		if len(files) != 0 {
			t.Fatalf("%s: expected no files, got %v", raw, relPaths(files))
		}
	}
}

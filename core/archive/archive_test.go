package archive

import (
	"archive/zip"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func readZip(t *testing.T, path string) map[string]string {
	t.Helper()
	zr, err := zip.OpenReader(path)
	if err != nil {
		t.Fatalf("open zip: %v", err)
	}
	defer zr.Close()
	out := map[string]string{}
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("open entry %s: %v", f.Name, err)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			t.Fatalf("read entry %s: %v", f.Name, err)
		}
		out[f.Name] = string(data)
	}
	return out
}

func TestBuildWritesEntries(t *testing.T) {
	dir := t.TempDir()
	files := []File{
		{Path: "top.txt", Data: []byte("one")},
		{Path: filepath.Join("nested", "deep", "child.txt"), Data: []byte("two")},
	}
	tmp, err := Builder{TempDir: dir}.Build(files)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if tmp.Entries != 2 || tmp.SizeBytes == 0 {
		t.Fatalf("unexpected archive stats: %+v", tmp)
	}
	if filepath.Dir(tmp.Path) != dir || !strings.HasSuffix(tmp.Path, ".zip") {
		t.Fatalf("unexpected archive path: %s", tmp.Path)
	}
	want := map[string]string{"top.txt": "one", "nested/deep/child.txt": "two"}
	if diff := cmp.Diff(want, readZip(t, tmp.Path)); diff != "" {
		t.Fatalf("archive mismatch (-want +got):\n%s", diff)
	}
	if err := tmp.Remove(); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if _, err := os.Stat(tmp.Path); !os.IsNotExist(err) {
		t.Fatalf("expected archive removed")
	}
	if err := tmp.Remove(); err != nil {
		t.Fatalf("second remove should be a no-op: %v", err)
	}
}

func TestBuildEmptyIsValidZip(t *testing.T) {
	tmp, err := Builder{TempDir: t.TempDir()}.Build(nil)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	defer tmp.Remove()
	if tmp.Entries != 0 {
		t.Fatalf("expected no entries")
	}
	if got := readZip(t, tmp.Path); len(got) != 0 {
		t.Fatalf("expected empty archive, got %v", got)
	}
}

func TestBuildUniqueNames(t *testing.T) {
	dir := t.TempDir()
	a, err := Builder{TempDir: dir}.Build(nil)
	if err != nil {
		t.Fatalf("build a: %v", err)
	}
	b, err := Builder{TempDir: dir}.Build(nil)
	if err != nil {
		t.Fatalf("build b: %v", err)
	}
	if a.Path == b.Path {
		t.Fatalf("expected distinct archive names")
	}
}

func TestBuildRejectsTraversalAndCleansUp(t *testing.T) {
	dir := t.TempDir()
	_, err := Builder{TempDir: dir}.Build([]File{{Path: "../escape.txt", Data: []byte("x")}})
	if err == nil {
		t.Fatalf("expected traversal error")
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Fatalf("expected partial archive removed, found %d files", len(entries))
	}
}

func TestEntryName(t *testing.T) {
	good := map[string]string{
		"a.txt":          "a.txt",
		`dir\file.txt`:   "dir/file.txt",
		"dir/./file.txt": "dir/file.txt",
	}
	for in, want := range good {
		got, err := EntryName(in)
		if err != nil || got != want {
			t.Fatalf("entry name %q: got %q err %v", in, got, err)
		}
	}
	for _, in := range []string{"", "/abs", "..", "../x", "a/../../x", "."} {
		if _, err := EntryName(in); err == nil {
			t.Fatalf("expected error for %q", in)
		}
	}
}

func TestNormalizeMode(t *testing.T) {
	if normalizeMode(0) != 0o644 || normalizeMode(0o600) != 0o644 || normalizeMode(0o700) != 0o755 {
		t.Fatalf("unexpected normalized modes")
	}
}

// Package collect resolves local path descriptors into archive entries.
package collect

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/cordum/pathpack/core/archive"
	"github.com/cordum/pathpack/core/hookerr"
	"github.com/cordum/pathpack/core/infra/logging"
	"github.com/cordum/pathpack/core/pathspec"
)

// Collector walks the local filesystem.
type Collector struct {
	Exclude Excludes
}

// Collect resolves spec into files with paths relative to the resolved root.
//
// Without a wildcard the base path may be a single file or a directory,
// which is walked recursively. With a wildcard the base path must be a
// directory and only its direct children are considered. A base lying in an
// excluded directory contributes nothing in either mode.
func (c Collector) Collect(spec pathspec.LocalPathSpec) ([]archive.File, error) {
	if strings.TrimSpace(spec.BasePath) == "" {
		return nil, hookerr.New(hookerr.KindPathNotExists, hookerr.Params{"path": spec.BasePath}, nil)
	}
	base := filepath.Clean(spec.BasePath)
	info, err := os.Stat(base)
	if spec.Wildcard.IsSet() {
		if err != nil || !info.IsDir() {
			return nil, hookerr.New(hookerr.KindBasePathInvalid, hookerr.Params{"path": base}, err)
		}
		if c.insideExcluded(base, true) {
			return nil, nil
		}
		return c.children(base, spec.Wildcard)
	}
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, hookerr.New(hookerr.KindPathNotExists, hookerr.Params{"path": base}, nil)
		}
		return nil, fmt.Errorf("stat %s: %w", base, err)
	}
	if c.insideExcluded(base, info.IsDir()) {
		return nil, nil
	}
	if !info.IsDir() {
		if !info.Mode().IsRegular() {
			return nil, nil
		}
		f, err := readFile(base, filepath.Base(base), info.Mode())
		if err != nil {
			return nil, err
		}
		return []archive.File{f}, nil
	}
	return c.walk(base)
}

// insideExcluded reports whether any directory component of the absolute
// base path is excluded. For a file base the final component is its name and
// is not checked.
func (c Collector) insideExcluded(base string, isDir bool) bool {
	dir, err := filepath.Abs(base)
	if err != nil {
		dir = base
	}
	if !isDir {
		dir = filepath.Dir(dir)
	}
	for _, part := range strings.Split(filepath.ToSlash(dir), "/") {
		if part != "" && c.Exclude.Dir(part) {
			logging.Info("collect", "base path is inside an excluded directory", "path", base, "dir", part)
			return true
		}
	}
	return false
}

func (c Collector) children(dir string, wc pathspec.Wildcard) ([]archive.File, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read dir %s: %w", dir, err)
	}
	var files []archive.File
	for _, entry := range entries {
		if !entry.Type().IsRegular() || !wc.Match(entry.Name()) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", entry.Name(), err)
		}
		f, err := readFile(filepath.Join(dir, entry.Name()), entry.Name(), info.Mode())
		if err != nil {
			return nil, err
		}
		files = append(files, f)
	}
	return files, nil
}

func (c Collector) walk(root string) ([]archive.File, error) {
	var files []archive.File
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			if path != root && c.Exclude.Dir(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		f, err := readFile(path, filepath.ToSlash(rel), info.Mode())
		if err != nil {
			return err
		}
		files = append(files, f)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}
	return files, nil
}

func readFile(path, rel string, mode fs.FileMode) (archive.File, error) {
	// #nosec G304 -- descriptor paths are operator-configured.
	data, err := os.ReadFile(path)
	if err != nil {
		return archive.File{}, fmt.Errorf("read %s: %w", path, err)
	}
	return archive.File{Path: rel, Data: data, Mode: mode.Perm()}, nil
}

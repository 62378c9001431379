package archive

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"strings"
	"time"
)

// File is one resolved entry destined for the archive.
type File struct {
	Path string
	Data []byte
	Mode os.FileMode
}

// TempArchive is a zip file on disk owned by a single packaging run.
type TempArchive struct {
	Path      string
	Entries   int
	SizeBytes int64
}

// Remove deletes the archive file. A missing file is not an error.
func (a *TempArchive) Remove() error {
	if a == nil || a.Path == "" {
		return nil
	}
	if err := os.Remove(a.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// Builder writes zip archives into TempDir (the OS temp dir when empty).
type Builder struct {
	TempDir string
	// Now stamps entry modification times; defaults to time.Now.
	Now func() time.Time
}

// Build writes files into a uniquely named temporary zip. An empty input
// produces a valid archive with no entries.
func (b Builder) Build(files []File) (*TempArchive, error) {
	out, err := os.CreateTemp(b.TempDir, "pathpack-*.zip")
	if err != nil {
		return nil, fmt.Errorf("create temp archive: %w", err)
	}
	tmp := &TempArchive{Path: out.Name()}
	if err := b.write(out, files); err != nil {
		_ = out.Close()
		_ = tmp.Remove()
		return nil, err
	}
	info, err := out.Stat()
	if err != nil {
		_ = out.Close()
		_ = tmp.Remove()
		return nil, fmt.Errorf("stat temp archive: %w", err)
	}
	if err := out.Close(); err != nil {
		_ = tmp.Remove()
		return nil, fmt.Errorf("close temp archive: %w", err)
	}
	tmp.Entries = len(files)
	tmp.SizeBytes = info.Size()
	return tmp, nil
}

func (b Builder) write(w io.Writer, files []File) error {
	now := time.Now
	if b.Now != nil {
		now = b.Now
	}
	stamp := now()
	zw := zip.NewWriter(w)
	for _, f := range files {
		name, err := EntryName(f.Path)
		if err != nil {
			_ = zw.Close()
			return err
		}
		h := &zip.FileHeader{
			Name:     name,
			Method:   zip.Deflate,
			Modified: stamp,
		}
		h.SetMode(normalizeMode(f.Mode))
		wr, err := zw.CreateHeader(h)
		if err != nil {
			_ = zw.Close()
			return fmt.Errorf("write entry %s: %w", name, err)
		}
		if _, err := wr.Write(f.Data); err != nil {
			_ = zw.Close()
			return fmt.Errorf("write entry %s: %w", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("finalize archive: %w", err)
	}
	return nil
}

// EntryName converts a relative path into a slash-separated zip entry name,
// rejecting absolute paths and parent traversal.
func EntryName(rel string) (string, error) {
	name := strings.ReplaceAll(rel, `\`, "/")
	if name == "" || strings.HasPrefix(name, "/") {
		return "", fmt.Errorf("invalid archive path: %q", rel)
	}
	clean := path.Clean(name)
	if clean == "." || clean == ".." || strings.HasPrefix(clean, "../") {
		return "", fmt.Errorf("invalid archive path: %q", rel)
	}
	return clean, nil
}

func normalizeMode(mode os.FileMode) os.FileMode {
	if mode&0o111 != 0 {
		return 0o755
	}
	return 0o644
}

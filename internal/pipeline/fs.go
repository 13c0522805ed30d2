package pipeline

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// FS is the filesystem a run writes through. Every path is relative to
// Root.
type FS interface {
	Root() string
	Abs(rel string) string
	RemoveAll(rel string) error
	MkdirAll(rel string) error
	// ReadDir lists file names (not directories) in name order.
	ReadDir(rel string) ([]string, error)
	WriteFile(rel string, data []byte) error
	CopyFile(src, dst string) (int64, error)
}

// OSFS is an FS over the real filesystem.
type OSFS struct {
	root string
}

// NewOSFS roots an OSFS at dir, resolved to an absolute path.
func NewOSFS(dir string) (OSFS, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return OSFS{}, fmt.Errorf("resolve work root %s: %w", dir, err)
	}
	return OSFS{root: abs}, nil
}

func (o OSFS) Root() string { return o.root }

func (o OSFS) Abs(rel string) string {
	if filepath.IsAbs(rel) {
		return rel
	}
	return filepath.Join(o.root, rel)
}

func (o OSFS) RemoveAll(rel string) error { return os.RemoveAll(o.Abs(rel)) }

func (o OSFS) MkdirAll(rel string) error { return os.MkdirAll(o.Abs(rel), 0o755) }

func (o OSFS) ReadDir(rel string) ([]string, error) {
	entries, err := os.ReadDir(o.Abs(rel))
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	return names, nil
}

func (o OSFS) WriteFile(rel string, data []byte) error {
	return os.WriteFile(o.Abs(rel), data, 0o644)
}

func (o OSFS) CopyFile(src, dst string) (n int64, err error) {
	in, err := os.Open(o.Abs(src))
	if err != nil {
		return 0, err
	}
	defer in.Close()

	out, err := os.OpenFile(o.Abs(dst), os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return 0, err
	}
	defer func() {
		if cerr := out.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return io.Copy(out, in)
}

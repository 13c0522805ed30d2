package sweep

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// Discover lists the files directly inside dir whose extension matches one
// of exts, compared case-insensitively. Subdirectories are not descended
// into. Paths are absolute and sorted lexicographically.
func Discover(dir string, exts []string) ([]string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(abs)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", dir, err)
	}

	want := make(map[string]bool, len(exts))
	for _, e := range exts {
		e = strings.ToLower(e)
		if e != "" && !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		want[e] = true
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if want[strings.ToLower(filepath.Ext(e.Name()))] {
			files = append(files, filepath.Join(abs, e.Name()))
		}
	}
	slices.Sort(files)
	return files, nil
}

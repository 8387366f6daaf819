package daemon

import (
	"os"
	"path/filepath"
	"strings"
)

// Filter drops paths that should never reach the organizer.
type Filter struct {
	PartialSuffixes []string
	IgnoreHidden    bool
}

// Accept reports whether path names a settled, visible regular file.
func (f Filter) Accept(path string) bool {
	name := filepath.Base(path)
	if f.IgnoreHidden && strings.HasPrefix(name, ".") {
		return false
	}

	lower := strings.ToLower(name)
	for _, suffix := range f.PartialSuffixes {
		if suffix != "" && strings.HasSuffix(lower, strings.ToLower(suffix)) {
			return false
		}
	}

	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.Mode().IsRegular()
}

// Existing returns the paths in order that Accept still admits.
func (f Filter) Existing(paths []string) []string {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		if f.Accept(p) {
			out = append(out, p)
		}
	}
	return out
}

// ListFiles returns the acceptable files directly inside dir, sorted by name.
func (f Filter) ListFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range entries {
		path := filepath.Join(dir, e.Name())
		if f.Accept(path) {
			out = append(out, path)
		}
	}
	return out, nil
}

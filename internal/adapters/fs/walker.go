package fs

import (
	"io/fs"
	"iter"
	"path/filepath"

	"go.trai.ch/makit/internal/core/domain"
)

// skipDirs are never descended into.
var skipDirs = map[string]bool{
	".git":         true,
	".jj":          true,
	"node_modules": true,
}

// Walker provides file walking functionality.
type Walker struct{}

// NewWalker creates a new Walker.
func NewWalker() *Walker {
	return &Walker{}
}

// WalkFiles yields every file below root, skipping version control and
// dependency directories as well as entries matching one of the ignore globs.
// Yielded paths include root.
func (w *Walker) WalkFiles(root string, ignores []string) iter.Seq[string] {
	return func(yield func(string) bool) {
		_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return nil //nolint:nilerr // unreadable entries are skipped
			}

			if w.ignored(d, ignores) {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}

			if d.IsDir() {
				return nil
			}

			if !yield(path) {
				return filepath.SkipAll
			}
			return nil
		})
	}
}

// DynamicRecords yields every dynamic dependency record below root.
func (w *Walker) DynamicRecords(root string) iter.Seq[string] {
	return func(yield func(string) bool) {
		for path := range w.WalkFiles(root, nil) {
			if domain.IsDynamicRecord(path) && !yield(path) {
				return
			}
		}
	}
}

func (w *Walker) ignored(d fs.DirEntry, ignores []string) bool {
	name := d.Name()
	if d.IsDir() && skipDirs[name] {
		return true
	}
	for _, ignore := range ignores {
		if matched, _ := filepath.Match(ignore, name); matched {
			return true
		}
	}
	return false
}

// Package crawler walks a directory tree collecting candidate source files
// by filename suffix. Suffix-driven rather than single-extension-driven,
// since the source index (internal/sourceindex) needs to collect both
// `.ts` and `.js` files from several configured roots.
package crawler

import (
	"io/fs"
	"path/filepath"
	"strings"
)

// Crawler walks a directory tree, invoking a callback for every file whose
// name ends in one of the configured suffixes.
type Crawler struct {
	suffixes []string
	ignored  []string
}

// New creates a Crawler matching any of the given filename suffixes.
func New(suffixes ...string) *Crawler {
	return &Crawler{
		suffixes: suffixes,
		ignored:  []string{".git", "node_modules", "dist", "tmp", "vendor"},
	}
}

// Walk visits every matching file under root. A root that does not exist is
// not an error — primary source directories are optional when a project
// only uses alias sources.
func (c *Crawler) Walk(root string, onFile func(path string)) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return filepath.SkipDir
		}
		if d.IsDir() {
			for _, ign := range c.ignored {
				if d.Name() == ign {
					return filepath.SkipDir
				}
			}
			return nil
		}
		for _, suf := range c.suffixes {
			if strings.HasSuffix(d.Name(), suf) {
				onFile(path)
				return nil
			}
		}
		return nil
	})
}

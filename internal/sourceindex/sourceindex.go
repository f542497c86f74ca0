// Package sourceindex enumerates every candidate file from the configured
// primary directories and alias sources, parsing each once, classifying
// it, and caching the result by canonical path and by canonical import
// path.
package sourceindex

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"schemaforge/internal/classify"
	"schemaforge/internal/config"
	"schemaforge/internal/crawler"
	"schemaforge/internal/model"
	"schemaforge/internal/parse"
)

// Warning is a non-fatal source index diagnostic.
type Warning struct {
	Kind    string
	Path    string
	Message string
}

const (
	WarnParseFailure = "parse-failure"
)

var sourceSuffixes = []string{".ts", ".js"}

// Index is the immutable result of Build: every successfully classified
// file, looked up either by its canonical absolute path or by the import
// specifier that resolves to it after migration.
type Index struct {
	byPath   map[string]*model.FileRecord
	byImport map[string]*model.FileRecord
}

// ByPath looks up a File Record by canonical absolute path.
func (idx *Index) ByPath(canonical string) (*model.FileRecord, bool) {
	rec, ok := idx.byPath[canonical]
	return rec, ok
}

// ByImport looks up a File Record by the canonical import specifier it was
// indexed under.
func (idx *Index) ByImport(spec string) (*model.FileRecord, bool) {
	rec, ok := idx.byImport[spec]
	return rec, ok
}

// All returns every File Record in the index, in no particular order.
func (idx *Index) All() []*model.FileRecord {
	out := make([]*model.FileRecord, 0, len(idx.byPath))
	for _, rec := range idx.byPath {
		out = append(out, rec)
	}
	return out
}

// SnapshotEntry is one File Record reduced to its JSON-serializable fields
// (no parsed syntax tree or raw source) for the `scan --dump-index` debug
// listing.
type SnapshotEntry struct {
	CanonicalPath       string               `json:"path"`
	CanonicalImportPath string               `json:"import"`
	Surface             model.Surface        `json:"surface"`
	DefaultExportName   string               `json:"defaultExport,omitempty"`
	Classification      model.Classification `json:"classification"`
	FromAliasSource     bool                 `json:"fromAliasSource,omitempty"`
	Summary             *model.Summary       `json:"summary,omitempty"`
}

// Snapshot reduces the index to its JSON-serializable entries, sorted by
// canonical import path for stable output. It is a debug aid, not a
// cache: there is no parsed syntax tree in a SnapshotEntry, so nothing
// reconstructs a usable Index from it.
func (idx *Index) Snapshot() []SnapshotEntry {
	entries := make([]SnapshotEntry, 0, len(idx.byPath))
	for _, rec := range idx.byPath {
		entries = append(entries, SnapshotEntry{
			CanonicalPath:       rec.CanonicalPath,
			CanonicalImportPath: rec.CanonicalImportPath,
			Surface:             rec.Surface,
			DefaultExportName:   rec.DefaultExportName,
			Classification:      rec.Classification,
			FromAliasSource:     rec.FromAliasSource,
			Summary:             rec.Summary,
		})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].CanonicalImportPath < entries[j].CanonicalImportPath
	})
	return entries
}

// WriteSnapshot marshals Snapshot to indented JSON.
func (idx *Index) WriteSnapshot() ([]byte, error) {
	return json.MarshalIndent(idx.Snapshot(), "", "  ")
}

// source is one root to crawl: a directory tree plus the import prefix its
// files are addressed under. Primary directories are sources with a bare
// prefix; alias entries additionally carry a wildcard-captured remainder.
type source struct {
	dir          string
	importPrefix string
	isAlias      bool
}

// Build walks every configured root, parses and classifies every matching
// file, and returns the populated Index. Parse failures are downgraded to
// warnings and the file is dropped; the classifier's own warnings are
// passed through with the file's path; Build itself only fails if a directory
// cannot be walked at all, which a missing optional directory never
// triggers (internal/crawler already tolerates that).
func Build(ctx context.Context, cfg config.Config) (*Index, []Warning, error) {
	idx := &Index{byPath: map[string]*model.FileRecord{}, byImport: map[string]*model.FileRecord{}}
	var warnings []Warning

	rules := classify.Rules{
		EmberDataImportSource:  cfg.EmberDataImportSource,
		IntermediateModelPaths: toSet(cfg.IntermediateModelPaths),
	}

	c := crawler.New(sourceSuffixes...)

	addFile := func(path, importPath string, fromAlias bool) {
		surface, ok := parse.SurfaceForPath(path)
		if !ok {
			return
		}
		text, err := os.ReadFile(path)
		if err != nil {
			warnings = append(warnings, Warning{Kind: WarnParseFailure, Path: path, Message: err.Error()})
			return
		}
		tree, err := parse.Tree(ctx, surface, text)
		if err != nil {
			warnings = append(warnings, Warning{Kind: WarnParseFailure, Path: path, Message: err.Error()})
			return
		}

		result := classify.Classify(tree, text, importPath, rules)
		for _, w := range result.Warnings {
			warnings = append(warnings, Warning{Kind: w.Kind, Path: path, Message: w.Message})
		}
		rec := &model.FileRecord{
			CanonicalPath:       path,
			CanonicalImportPath: importPath,
			Surface:             surface,
			Source:              text,
			Tree:                tree,
			DefaultExportName:   result.DefaultExportName,
			Classification:      result.Classification,
			Summary:             result.Summary,
			FromAliasSource:     fromAlias,
		}

		idx.byPath[path] = rec
		idx.byImport[importPath] = rec
	}

	walkPrimary := func(dir, importPrefix string) {
		_ = c.Walk(dir, func(path string) {
			rel, err := filepath.Rel(dir, path)
			if err != nil {
				return
			}
			addFile(path, joinImport(importPrefix, stripSourceExt(rel)), false)
		})
	}

	walkPrimary(cfg.ModelSourceDir, cfg.ModelImportSource)
	walkPrimary(cfg.MixinSourceDir, cfg.MixinImportSource)

	for _, alias := range append(append([]config.AliasSource{}, cfg.AdditionalModelSources...), cfg.AdditionalMixinSources...) {
		for _, f := range expandAlias(alias, c) {
			addFile(f.path, f.importPath, true)
		}
	}

	return idx, warnings, nil
}

type aliasFile struct {
	path       string
	importPath string
}

// expandAlias resolves a configured alias source's directory-pattern
// wildcard against the filesystem, producing one aliasFile per matching
// source file with the import specifier that the pattern's import-side
// wildcard substitution would produce — the exact inverse of the matching
// rule internal/resolve applies to specifiers at resolution time.
func expandAlias(a config.AliasSource, c *crawler.Crawler) []aliasFile {
	star := strings.Index(a.DirectoryPattern, "*")
	if star < 0 {
		// no wildcard: the whole pattern names one directory, and every file
		// under it shares the bare import prefix.
		var files []aliasFile
		_ = c.Walk(a.DirectoryPattern, func(path string) {
			rel, err := filepath.Rel(a.DirectoryPattern, path)
			if err != nil {
				return
			}
			files = append(files, aliasFile{path: path, importPath: joinImport(a.ImportPattern, stripSourceExt(rel))})
		})
		return files
	}

	prefix := strings.TrimSuffix(a.DirectoryPattern[:star], "/")
	suffix := a.DirectoryPattern[star+1:]

	var files []aliasFile
	_ = c.Walk(prefix, func(path string) {
		rel, err := filepath.Rel(prefix, path)
		if err != nil {
			return
		}
		rel = filepath.ToSlash(rel)
		if suffix != "" && !strings.HasSuffix(rel, strings.TrimPrefix(suffix, "/")) {
			return
		}
		captured := stripSourceExt(strings.TrimSuffix(rel, strings.TrimPrefix(suffix, "/")))
		captured = strings.TrimSuffix(captured, "/")
		importPath := strings.Replace(a.ImportPattern, "*", captured, 1)
		files = append(files, aliasFile{path: path, importPath: importPath})
	})
	return files
}

func joinImport(prefix, rel string) string {
	rel = filepath.ToSlash(rel)
	if prefix == "" {
		return rel
	}
	return fmt.Sprintf("%s/%s", strings.TrimSuffix(prefix, "/"), rel)
}

func stripSourceExt(p string) string {
	for _, suf := range sourceSuffixes {
		if strings.HasSuffix(p, suf) {
			return strings.TrimSuffix(p, suf)
		}
	}
	return p
}

func toSet(values []string) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[v] = true
	}
	return set
}

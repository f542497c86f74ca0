// Package resolve maps an import specifier appearing in a classified file
// to a canonical symbol handle, and the reverse — given a handle and its
// materialization, producing the import specifier an emitted artifact
// should use. A two-stage chain handles this domain: a RelativeResolver
// for "./"/"../" specifiers, then an AliasResolver for package-style
// specifiers matched against the source index the same way it was built.
// There is no type system to fall back to, since TypeScript types are
// never evaluated.
package resolve

import (
	"path/filepath"
	"strings"

	"schemaforge/internal/casing"
	"schemaforge/internal/config"
	"schemaforge/internal/model"
)

// Index is the subset of sourceindex.Index the Resolver needs; declared
// here (rather than importing sourceindex) to keep the dependency arrow
// pointing from resolve toward its caller, avoiding an import cycle with
// internal/sourceindex.
type Index interface {
	ByPath(canonical string) (*model.FileRecord, bool)
	ByImport(spec string) (*model.FileRecord, bool)
}

// Stage is one step of the resolution chain.
type Stage interface {
	Resolve(idx Index, fromDir, specifier string) (model.SymbolHandle, bool)
}

// Resolver runs a specifier through a fixed chain of Stages and exposes the
// reverse Symbol-Handle-to-specifier mapping.
type Resolver struct {
	idx    Index
	cfg    config.Config
	stages []Stage
}

// New builds the default two-stage chain against idx and cfg.
func New(idx Index, cfg config.Config) *Resolver {
	return &Resolver{
		idx:    idx,
		cfg:    cfg,
		stages: []Stage{RelativeResolver{}, AliasResolver{}},
	}
}

// ToHandle resolves specifier, written inside the file at fromDir, to a
// Symbol Handle. fromDir is the importing file's directory, used only by
// the relative stage.
func (r *Resolver) ToHandle(fromDir, specifier string) (model.SymbolHandle, bool) {
	for _, stage := range r.stages {
		if h, ok := stage.Resolve(r.idx, fromDir, specifier); ok {
			return h, true
		}
	}
	return model.SymbolHandle{}, false
}

// RelativeResolver resolves "./"/"../" specifiers against the importing
// file's own directory, trying each source suffix in turn.
type RelativeResolver struct{}

func (RelativeResolver) Resolve(idx Index, fromDir, specifier string) (model.SymbolHandle, bool) {
	if !strings.HasPrefix(specifier, ".") {
		return model.SymbolHandle{}, false
	}
	candidate := filepath.Join(fromDir, specifier)
	for _, suf := range []string{"", ".ts", ".js"} {
		if rec, ok := idx.ByPath(candidate + suf); ok {
			return handleFor(rec), rec.Classification != model.ClassIgnored
		}
	}
	return model.SymbolHandle{}, false
}

// AliasResolver resolves package-style specifiers directly against the
// source index's import-specifier lookup: the index was built by applying
// the very same alias patterns this stage would otherwise re-derive, so a
// successful prefix-plus-wildcard match is exactly a successful
// Index.ByImport lookup.
type AliasResolver struct{}

func (AliasResolver) Resolve(idx Index, fromDir, specifier string) (model.SymbolHandle, bool) {
	rec, ok := idx.ByImport(specifier)
	if !ok || rec.Classification == model.ClassIgnored {
		return model.SymbolHandle{}, false
	}
	return handleFor(rec), true
}

func handleFor(rec *model.FileRecord) model.SymbolHandle {
	return model.SymbolHandle{Kind: kindFor(rec.Classification), ImportPath: rec.CanonicalImportPath}
}

func kindFor(c model.Classification) model.SymbolKind {
	switch c {
	case model.ClassIntermediateModel:
		return model.KindIntermediateModel
	case model.ClassMixin:
		return model.KindMixin
	default:
		return model.KindModel
	}
}

// ToImportSpecifier computes the post-migration import specifier an
// emitted artifact should use to reference handle, given its
// materialization decision.
func (r *Resolver) ToImportSpecifier(handle model.SymbolHandle, materialize model.Materialization) string {
	name := casing.Kebab(filepath.Base(handle.ImportPath))
	switch materialize {
	case model.MaterializeTrait:
		return r.cfg.TraitsImport + "/" + name + ".schema.types"
	case model.MaterializeResource:
		return r.cfg.ResourcesImport + "/" + name + ".schema.types"
	default:
		return r.cfg.ExtensionsImport + "/" + name
	}
}

// ExtensionImportSpecifier builds the `<extensions-import>/<kebab-name>`
// specifier, used directly by the emitter when wiring a types artifact's
// extension-interface import (not keyed by materialization, since an
// extension is never itself materialized as resource/trait).
func (r *Resolver) ExtensionImportSpecifier(handle model.SymbolHandle) string {
	name := casing.Kebab(filepath.Base(handle.ImportPath))
	return r.cfg.ExtensionsImport + "/" + name
}

// TypeBrandImportSpecifier is the derived core-types path for the `Type`
// brand symbol: the legacy data-source specifier with its last path
// segment stripped, plus "/core-types/symbols".
func (r *Resolver) TypeBrandImportSpecifier() string {
	base := r.cfg.EmberDataImportSource
	if idx := strings.LastIndex(base, "/"); idx >= 0 {
		base = base[:idx]
	}
	if base == "" {
		base = r.cfg.EmberDataImportSource
	}
	return base + "/core-types/symbols"
}

// RelationshipHelperImportSpecifier is where `HasMany`/`AsyncHasMany` and
// the field decorators keep importing from: the configured legacy source,
// unchanged.
func (r *Resolver) RelationshipHelperImportSpecifier() string {
	return r.cfg.EmberDataImportSource
}

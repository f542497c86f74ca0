// Package model holds the data model shared across the pipeline: File
// Records, Symbol Handles, Field Descriptors, Trait References and Artifact
// Plans. Values here are produced by one stage and consumed read-only by
// every later stage; nothing in this package mutates another package's view
// of them.
package model

import sitter "github.com/smacker/go-tree-sitter"

// Surface is the language surface a file or emitted artifact is written in.
type Surface string

const (
	SurfaceTyped   Surface = "typed"   // .ts
	SurfaceUntyped Surface = "untyped" // .js
)

// SymbolKind distinguishes the three kinds of classified source symbol.
type SymbolKind string

const (
	KindModel             SymbolKind = "model"
	KindIntermediateModel SymbolKind = "intermediate-model"
	KindMixin             SymbolKind = "mixin"
)

// SymbolHandle is the stable identity used across the dependency graph: the
// tuple (kind, canonical-import-path). It is comparable and safe to use as
// a map key directly.
type SymbolHandle struct {
	Kind       SymbolKind
	ImportPath string
}

// Classification is the outcome of running the Classifier over a file's
// syntax tree.
type Classification string

const (
	ClassModel             Classification = "model"
	ClassIntermediateModel Classification = "intermediate-model"
	ClassMixin             Classification = "mixin"
	ClassIgnored           Classification = "ignored"
)

// FileRecord is one entry in the Source Index, created once during indexing
// and never mutated afterward.
type FileRecord struct {
	CanonicalPath       string
	CanonicalImportPath string // the import specifier this file resolves to after migration
	Surface             Surface
	Source              []byte
	Tree                *sitter.Tree
	DefaultExportName   string
	Classification      Classification
	Summary             *Summary // nil until classified; populated for model/intermediate-model/mixin
	FromAliasSource     bool     // true when this file was discovered through an alias source, not a primary directory
}

// FieldKind is the kind of a declared field.
type FieldKind string

const (
	FieldAttribute FieldKind = "attribute"
	FieldBelongsTo FieldKind = "belongsTo"
	FieldHasMany   FieldKind = "hasMany"
)

// FieldOptions is the recognized-plus-opaque option set of a field
// decorator's second argument. Field order here is deliberate: it is the
// serialization order used when emitting ("async -> inverse ->
// polymorphic -> others-alphabetical").
type FieldOptions struct {
	Async       *bool
	Inverse     *string
	Polymorphic *bool
	// Extra holds any other recognized-as-pass-through key, serialized in
	// alphabetical key order after the three above.
	Extra map[string]Literal
}

// IsEmpty reports whether no option key carries a value — an empty
// FieldOptions is omitted entirely when emitting a field.
func (o FieldOptions) IsEmpty() bool {
	return o.Async == nil && o.Inverse == nil && o.Polymorphic == nil && len(o.Extra) == 0
}

// Literal is an opaque literal AST form captured from a decorator or object
// literal argument — never evaluated, only re-serialized.
type Literal struct {
	// Raw is the literal's source text, used verbatim when emitting. Kept
	// alongside a best-effort Kind for diagnostics only.
	Raw  string
	Kind string // "string" | "number" | "boolean" | "null" | "identifier" | "other"
}

// FieldDescriptor is the semantic content of a single declared field.
type FieldDescriptor struct {
	Name     string
	Kind     FieldKind
	TypeName string
	Options  FieldOptions
}

// TraitOrigin records how a Trait Reference was discovered.
type TraitOrigin string

const (
	TraitOriginDirect      TraitOrigin = "direct"      // base-mixing expression
	TraitOriginPolymorphic TraitOrigin = "polymorphic"  // polymorphic relationship target
	TraitOriginTransitive  TraitOrigin = "transitive"   // mixin-of-mixin chain, or type-only import
)

// TraitReference is the mention of a mixin by one of its consumers.
type TraitReference struct {
	Target SymbolHandle
	Origin TraitOrigin
}

// ResidualMember is a class-body member that is not a recognized field
// decoration, preserved verbatim for relocation to the extension artifact.
type ResidualMember struct {
	Name   string // best-effort identifier, for name-shadow warnings; may be empty
	Source string // verbatim source text, comments and decorators included
}

// Materialization is the Planner's verdict for a symbol.
type Materialization string

const (
	MaterializeResource Materialization = "resource"
	MaterializeTrait    Materialization = "trait"
	MaterializeSkip     Materialization = "skip"
)

// Summary is the structural summary the Classifier extracts from a file's
// syntax tree: declared fields, extended bases, mixin references, residual
// members. It is immutable once produced.
type Summary struct {
	Fields    []FieldDescriptor
	Residuals []ResidualMember
	BaseRefs  []RawRef // the base-class identifier of a class's extends chain (at most one); createWithMixins bases are TraitRefs
	TraitRefs []RawTraitRef
}

// RawRef is an unresolved reference: an identifier as written plus the
// import specifier it was bound to in the file's import declarations.
type RawRef struct {
	Identifier string
	ImportSpec string
}

// RawTraitRef pairs a RawRef with the origin under which it was observed,
// before the Resolver turns it into a TraitReference with a real handle.
type RawTraitRef struct {
	Ref    RawRef
	Origin TraitOrigin
}

// ArtifactPlan is the Emitter's input unit for one symbol.
type ArtifactPlan struct {
	Origin        *FileRecord
	Handle        SymbolHandle
	Fields        []FieldDescriptor
	Traits        []TraitReference
	Bases         []SymbolHandle
	Residuals     []ResidualMember
	Materialize   Materialization
	EmitExtension bool
}

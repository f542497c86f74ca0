// Package depgraph builds the dependency graph the planner (internal/plan)
// walks: one node per classified symbol, edges for base references, direct
// trait references, transitive (type-only) trait references, and
// polymorphic-relationship trait references.
package depgraph

import (
	"path/filepath"

	"schemaforge/internal/casing"
	"schemaforge/internal/model"
	"schemaforge/internal/resolve"
)

// EdgeKind classifies why one node depends on another.
type EdgeKind string

const (
	EdgeBase             EdgeKind = "base"
	EdgeTraitDirect      EdgeKind = "trait-direct"
	EdgeTraitPolymorphic EdgeKind = "trait-polymorphic"
	EdgeTraitTransitive  EdgeKind = "trait-transitive"
)

// UnresolvedReason explains why a reference could not be linked.
type UnresolvedReason string

const (
	ReasonNoCandidate UnresolvedReason = "no-candidate"
)

// UnresolvedRelation records a reference that could not be resolved to a
// node in the index. This is a warning, never an error.
type UnresolvedRelation struct {
	From      model.SymbolHandle
	Specifier string
	Kind      EdgeKind
	Reason    UnresolvedReason
}

// Node is one classified symbol in the graph.
type Node struct {
	Handle model.SymbolHandle
	Record *model.FileRecord
}

// Edge is a directed relationship between two nodes.
type Edge struct {
	From model.SymbolHandle
	To   model.SymbolHandle
	Kind EdgeKind
}

// Graph holds every classified node plus the edges LinkRelations resolves
// between them.
type Graph struct {
	Nodes      map[model.SymbolHandle]*Node
	Edges      []Edge
	Unresolved []UnresolvedRelation

	byKebabMixin map[string]model.SymbolHandle
}

// New creates an empty Graph.
func New() *Graph {
	return &Graph{
		Nodes:        make(map[model.SymbolHandle]*Node),
		byKebabMixin: make(map[string]model.SymbolHandle),
	}
}

// AddNode registers rec as a node under handle, indexing it by kebab-name
// if it is a mixin (for polymorphic-relationship resolution).
func (g *Graph) AddNode(handle model.SymbolHandle, rec *model.FileRecord) {
	g.Nodes[handle] = &Node{Handle: handle, Record: rec}
	if handle.Kind == model.KindMixin {
		g.byKebabMixin[casing.Kebab(filepath.Base(handle.ImportPath))] = handle
	}
}

// BuildFromIndex populates a Graph with one node per non-ignored File
// Record in records, keyed by the handle the resolver would itself produce.
func BuildFromIndex(records []*model.FileRecord) *Graph {
	g := New()
	for _, rec := range records {
		if rec.Classification == model.ClassIgnored {
			continue
		}
		g.AddNode(model.SymbolHandle{Kind: kindFor(rec.Classification), ImportPath: rec.CanonicalImportPath}, rec)
	}
	return g
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

// LinkRelations resets Edges/Unresolved and resolves every node's raw
// references (base refs, trait refs, polymorphic belongsTo fields) to
// edges against other nodes in the graph, using r to turn import
// specifiers into handles.
func (g *Graph) LinkRelations(r *resolve.Resolver) {
	g.Edges = nil
	g.Unresolved = nil

	for handle, node := range g.Nodes {
		if node.Record.Summary == nil {
			continue
		}
		dir := filepath.Dir(node.Record.CanonicalPath)

		for _, base := range node.Record.Summary.BaseRefs {
			if base.ImportSpec == "" {
				continue
			}
			g.resolveEdge(r, handle, dir, base.ImportSpec, EdgeBase)
		}

		for _, t := range node.Record.Summary.TraitRefs {
			if t.Ref.ImportSpec == "" {
				continue
			}
			kind := EdgeTraitDirect
			if t.Origin == model.TraitOriginTransitive {
				kind = EdgeTraitTransitive
			}
			g.resolveEdge(r, handle, dir, t.Ref.ImportSpec, kind)
		}

		for _, f := range node.Record.Summary.Fields {
			if f.Kind != model.FieldBelongsTo || f.Options.Polymorphic == nil || !*f.Options.Polymorphic {
				continue
			}
			target, ok := g.byKebabMixin[f.TypeName]
			if !ok {
				g.Unresolved = append(g.Unresolved, UnresolvedRelation{
					From: handle, Specifier: f.TypeName, Kind: EdgeTraitPolymorphic, Reason: ReasonNoCandidate,
				})
				continue
			}
			g.Edges = append(g.Edges, Edge{From: handle, To: target, Kind: EdgeTraitPolymorphic})
		}
	}
}

func (g *Graph) resolveEdge(r *resolve.Resolver, from model.SymbolHandle, dir, specifier string, kind EdgeKind) {
	target, ok := r.ToHandle(dir, specifier)
	if !ok {
		g.Unresolved = append(g.Unresolved, UnresolvedRelation{From: from, Specifier: specifier, Kind: kind, Reason: ReasonNoCandidate})
		return
	}
	node, known := g.Nodes[target]
	if !known {
		g.Unresolved = append(g.Unresolved, UnresolvedRelation{From: from, Specifier: specifier, Kind: kind, Reason: ReasonNoCandidate})
		return
	}
	if (kind == EdgeTraitDirect || kind == EdgeTraitTransitive) && node.Handle.Kind != model.KindMixin {
		// A type-position reference to something other than a mixin (a
		// residual method typed against another model, say) is not a trait
		// composition. Drop it instead of linking a bogus trait edge.
		return
	}
	g.Edges = append(g.Edges, Edge{From: from, To: target, Kind: kind})
}

// KebabIndex maps every node's kebab-cased base name to its handle,
// across all three symbol kinds. The Emitter uses it to resolve a
// relationship field's bare type-name (e.g. "company") to the handle of
// the resource or trait it names, so it can import the right interface
// for the field's TypeScript shape. When a model and a trait-materialized
// symbol (mixin or intermediate model) share a kebab-name, the trait wins.
func (g *Graph) KebabIndex() map[string]model.SymbolHandle {
	idx := make(map[string]model.SymbolHandle, len(g.Nodes))
	for handle := range g.Nodes {
		key := casing.Kebab(filepath.Base(handle.ImportPath))
		if existing, ok := idx[key]; ok && existing.Kind != model.KindModel && handle.Kind == model.KindModel {
			continue
		}
		idx[key] = handle
	}
	return idx
}

// GetDependencies returns every node handle reaches directly.
func (g *Graph) GetDependencies(handle model.SymbolHandle) []*Node {
	var out []*Node
	for _, e := range g.Edges {
		if e.From == handle {
			if n, ok := g.Nodes[e.To]; ok {
				out = append(out, n)
			}
		}
	}
	return out
}

// GetDependents returns every node that directly depends on handle.
func (g *Graph) GetDependents(handle model.SymbolHandle) []*Node {
	var out []*Node
	for _, e := range g.Edges {
		if e.To == handle {
			if n, ok := g.Nodes[e.From]; ok {
				out = append(out, n)
			}
		}
	}
	return out
}

// Package plan computes which mixins are connected, schedules every
// connected symbol in a deterministic topological order, decides each
// symbol's materialization, and applies the configured emission filters.
package plan

import (
	"os"
	"path/filepath"
	"sort"

	"schemaforge/internal/casing"
	"schemaforge/internal/config"
	"schemaforge/internal/depgraph"
	"schemaforge/internal/model"
)

// Warning is a non-fatal planner diagnostic.
type Warning struct {
	Kind    string
	Message string
}

const (
	WarnCycle = "cycle"
)

// Schedule is the Planner's output: Artifact Plans in the order the
// Emitter must process them.
type Schedule struct {
	Plans []*model.ArtifactPlan
}

// Plan computes connectivity, schedule order, materialization, and
// filters over g, returning the final emission schedule.
func Plan(g *depgraph.Graph, cfg config.Config) (*Schedule, []Warning) {
	connectedMixins := computeConnectedMixins(g)

	included := make(map[model.SymbolHandle]bool)
	for handle, node := range g.Nodes {
		switch node.Handle.Kind {
		case model.KindModel, model.KindIntermediateModel:
			included[handle] = true
		case model.KindMixin:
			if connectedMixins[handle] {
				included[handle] = true
			}
		}
	}

	order, cycleWarnings := schedule(g, included)

	plans := make([]*model.ArtifactPlan, 0, len(order))
	for _, handle := range order {
		plans = append(plans, buildPlan(g, handle, connectedMixins))
	}

	plans = applyFilters(plans, cfg)

	return &Schedule{Plans: plans}, cycleWarnings
}

// computeConnectedMixins computes the least fixed point of the connectivity
// rule: a mixin is connected iff it is the target of a trait reference
// (direct, transitive, or polymorphic) originating in a model, an
// intermediate model, or another connected mixin.
func computeConnectedMixins(g *depgraph.Graph) map[model.SymbolHandle]bool {
	connected := make(map[model.SymbolHandle]bool)
	for changed := true; changed; {
		changed = false
		for _, e := range g.Edges {
			if e.Kind == depgraph.EdgeBase {
				continue
			}
			toNode, ok := g.Nodes[e.To]
			if !ok || toNode.Handle.Kind != model.KindMixin || connected[e.To] {
				continue
			}
			fromNode, ok := g.Nodes[e.From]
			if !ok {
				continue
			}
			isOrigin := fromNode.Handle.Kind == model.KindModel ||
				fromNode.Handle.Kind == model.KindIntermediateModel ||
				connected[e.From]
			if isOrigin {
				connected[e.To] = true
				changed = true
			}
		}
	}
	return connected
}

// schedule orders the included nodes so that every node appears after
// every node it depends on (EdgeBase/EdgeTrait* edges), intermediate
// models first within a layer and ties broken alphabetically by canonical
// import path. Kahn's algorithm; cycles among mixin base references are
// broken by dropping the lexicographically largest edge touching the
// highest-remaining-in-degree node.
func schedule(g *depgraph.Graph, included map[model.SymbolHandle]bool) ([]model.SymbolHandle, []Warning) {
	inDegree := make(map[model.SymbolHandle]int)
	dependents := make(map[model.SymbolHandle][]model.SymbolHandle)
	remainingEdges := make([]depgraph.Edge, 0, len(g.Edges))

	for h := range included {
		inDegree[h] = 0
	}
	for _, e := range g.Edges {
		if !included[e.From] || !included[e.To] || e.From == e.To {
			continue
		}
		inDegree[e.From]++
		dependents[e.To] = append(dependents[e.To], e.From)
		remainingEdges = append(remainingEdges, e)
	}

	var warnings []Warning
	var order []model.SymbolHandle
	remaining := make(map[model.SymbolHandle]bool, len(included))
	for h := range included {
		remaining[h] = true
	}

	for len(remaining) > 0 {
		var ready []model.SymbolHandle
		for h := range remaining {
			if inDegree[h] == 0 {
				ready = append(ready, h)
			}
		}

		if len(ready) == 0 {
			// cycle: break the lexicographically largest edge touching the
			// highest-in-degree remaining node, log a warning, and retry.
			victim := highestInDegree(remaining, inDegree)
			edgeIdx := largestEdgeTouching(remainingEdges, victim)
			if edgeIdx < 0 {
				// defensive: nothing left to break, emit remaining nodes in
				// alphabetical order rather than loop forever.
				ready = sortHandles(handleSlice(remaining))
			} else {
				dropped := remainingEdges[edgeIdx]
				remainingEdges = append(remainingEdges[:edgeIdx], remainingEdges[edgeIdx+1:]...)
				inDegree[dropped.From]--
				warnings = append(warnings, Warning{
					Kind:    WarnCycle,
					Message: "cycle detected; dropped edge " + string(dropped.Kind) + " " + dropped.From.ImportPath + " -> " + dropped.To.ImportPath,
				})
				continue
			}
		}

		sort.Slice(ready, func(i, j int) bool {
			ri, rj := ready[i], ready[j]
			pi, pj := kindRank(ri.Kind), kindRank(rj.Kind)
			if pi != pj {
				return pi < pj
			}
			return ri.ImportPath < rj.ImportPath
		})

		for _, h := range ready {
			order = append(order, h)
			delete(remaining, h)
			for _, dep := range dependents[h] {
				inDegree[dep]--
			}
		}
	}

	return order, warnings
}

func kindRank(k model.SymbolKind) int {
	switch k {
	case model.KindIntermediateModel:
		return 0
	case model.KindMixin:
		return 1
	default:
		return 2
	}
}

func highestInDegree(remaining map[model.SymbolHandle]bool, inDegree map[model.SymbolHandle]int) model.SymbolHandle {
	var best model.SymbolHandle
	bestDeg := -1
	for _, h := range sortHandles(handleSlice(remaining)) {
		if inDegree[h] > bestDeg {
			bestDeg = inDegree[h]
			best = h
		}
	}
	return best
}

func largestEdgeTouching(edges []depgraph.Edge, node model.SymbolHandle) int {
	best := -1
	var bestKey string
	for i, e := range edges {
		if e.From != node && e.To != node {
			continue
		}
		key := string(e.Kind) + "|" + e.From.ImportPath + "|" + e.To.ImportPath
		if key > bestKey {
			bestKey = key
			best = i
		}
	}
	return best
}

func handleSlice(set map[model.SymbolHandle]bool) []model.SymbolHandle {
	out := make([]model.SymbolHandle, 0, len(set))
	for h := range set {
		out = append(out, h)
	}
	return out
}

func sortHandles(hs []model.SymbolHandle) []model.SymbolHandle {
	sort.Slice(hs, func(i, j int) bool { return hs[i].ImportPath < hs[j].ImportPath })
	return hs
}

// buildPlan constructs the Artifact Plan for one scheduled symbol,
// applying the materialization decision table and adding the synthetic
// id field for an intermediate-model-as-trait.
func buildPlan(g *depgraph.Graph, handle model.SymbolHandle, connectedMixins map[model.SymbolHandle]bool) *model.ArtifactPlan {
	node := g.Nodes[handle]
	rec := node.Record

	var materialize model.Materialization
	switch handle.Kind {
	case model.KindModel:
		materialize = model.MaterializeResource
	case model.KindIntermediateModel:
		materialize = model.MaterializeTrait
	case model.KindMixin:
		if connectedMixins[handle] {
			materialize = model.MaterializeTrait
		} else {
			materialize = model.MaterializeSkip
		}
	}

	fields := append([]model.FieldDescriptor{}, rec.Summary.Fields...)
	if handle.Kind == model.KindIntermediateModel {
		fields = append([]model.FieldDescriptor{{Name: "id", Kind: model.FieldAttribute, TypeName: "string"}}, fields...)
	}

	var traits []model.TraitReference
	var bases []model.SymbolHandle
	for _, e := range g.Edges {
		if e.From != handle {
			continue
		}
		switch e.Kind {
		case depgraph.EdgeBase:
			bases = append(bases, e.To)
		case depgraph.EdgeTraitDirect:
			traits = append(traits, model.TraitReference{Target: e.To, Origin: model.TraitOriginDirect})
		case depgraph.EdgeTraitPolymorphic:
			traits = append(traits, model.TraitReference{Target: e.To, Origin: model.TraitOriginPolymorphic})
		case depgraph.EdgeTraitTransitive:
			traits = append(traits, model.TraitReference{Target: e.To, Origin: model.TraitOriginTransitive})
		}
	}

	// A base reference to an intermediate model materializes as a trait
	// composition once the base itself becomes a trait: it is textually the
	// leftmost element of the heritage chain, so it is prepended ahead of
	// the mixins mixed in after it.
	var baseTraits []model.TraitReference
	for _, b := range bases {
		if b.Kind == model.KindIntermediateModel {
			baseTraits = append(baseTraits, model.TraitReference{Target: b, Origin: model.TraitOriginDirect})
		}
	}
	traits = append(baseTraits, traits...)

	residuals := rec.Summary.Residuals

	return &model.ArtifactPlan{
		Origin:        rec,
		Handle:        handle,
		Fields:        fields,
		Traits:        traits,
		Bases:         bases,
		Residuals:     residuals,
		Materialize:   materialize,
		EmitExtension: len(residuals) > 0,
	}
}

// applyFilters applies the four emission filters as a final pass over the
// scheduled plans. Connectivity and order are computed before it, so a
// filter never changes which mixins count as connected or the relative
// order of the plans it keeps; the plans it drops are not returned.
func applyFilters(plans []*model.ArtifactPlan, cfg config.Config) []*model.ArtifactPlan {
	out := make([]*model.ArtifactPlan, 0, len(plans))
	for _, p := range plans {
		if p.Materialize == model.MaterializeSkip {
			continue
		}
		if cfg.ModelsOnly && p.Handle.Kind == model.KindMixin {
			continue
		}
		if cfg.MixinsOnly && (p.Handle.Kind == model.KindModel || p.Handle.Kind == model.KindIntermediateModel) {
			continue
		}
		if !cfg.GenerateExternalResources && p.Origin.FromAliasSource {
			continue
		}
		if cfg.SkipProcessed && allTargetsExist(p, cfg) {
			continue
		}
		out = append(out, p)
	}
	return out
}

// allTargetsExist reports whether every emission target for p already
// exists on disk. It looks only at the filesystem, never at content
// hashes.
func allTargetsExist(p *model.ArtifactPlan, cfg config.Config) bool {
	dir := cfg.ResourcesDir
	if p.Materialize == model.MaterializeTrait {
		dir = cfg.TraitsDir
	}
	ext := "ts"
	if p.Origin.Surface == model.SurfaceUntyped {
		ext = "js"
	}
	name := casing.Kebab(filepath.Base(p.Handle.ImportPath))

	schemaPath := filepath.Join(dir, name+".schema."+ext)
	typesPath := filepath.Join(dir, name+".schema.types.ts")
	if !exists(schemaPath) || !exists(typesPath) {
		return false
	}
	if p.EmitExtension {
		extPath := filepath.Join(cfg.ExtensionsDir, name+"."+ext)
		if !exists(extPath) {
			return false
		}
	}
	return true
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

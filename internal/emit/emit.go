// Package emit produces, for one artifact plan, the schema artifact, the
// types artifact, and (optionally) the extension artifact as in-memory
// buffers — strings.Builder plus fmt.Fprintf, no templating library.
// Buffering all three fragments before returning is what lets
// internal/pipeline flush a plan atomically.
package emit

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"schemaforge/internal/casing"
	"schemaforge/internal/config"
	"schemaforge/internal/model"
	"schemaforge/internal/resolve"
)

// Artifact is one generated file, buffered in memory until the caller
// decides to flush it.
type Artifact struct {
	Path string
	Data []byte
}

// Emitter turns Artifact Plans into Artifacts, using r to compute every
// cross-artifact import specifier and kebabIndex to resolve a relationship
// field's bare type-name to the symbol it names.
type Emitter struct {
	cfg        config.Config
	r          *resolve.Resolver
	kebabIndex map[string]model.SymbolHandle
}

// New builds an Emitter against the resolved configuration, the Resolver
// the same run built its dependency graph with, and that graph's
// KebabIndex.
func New(cfg config.Config, r *resolve.Resolver, kebabIndex map[string]model.SymbolHandle) *Emitter {
	return &Emitter{cfg: cfg, r: r, kebabIndex: kebabIndex}
}

// Emit buffers the schema, types, and (conditionally) extension artifacts
// for one plan, in that order: schema, then types, then extension.
func (e *Emitter) Emit(p *model.ArtifactPlan) []Artifact {
	ext := sourceExt(p.Origin.Surface)
	dir := e.cfg.ResourcesDir
	if p.Materialize == model.MaterializeTrait {
		dir = e.cfg.TraitsDir
	}
	name := kebabName(p.Handle)

	artifacts := []Artifact{
		{Path: filepath.Join(dir, name+".schema."+ext), Data: []byte(e.schemaSource(p, name))},
		{Path: filepath.Join(dir, name+".schema.types.ts"), Data: []byte(e.typesSource(p, name))},
	}

	if p.EmitExtension {
		extDir := e.cfg.ExtensionsDir
		artifacts = append(artifacts, Artifact{
			Path: filepath.Join(extDir, name+"."+ext),
			Data: []byte(e.extensionSource(p, name, ext)),
		})
	}

	return artifacts
}

func sourceExt(s model.Surface) string {
	if s == model.SurfaceUntyped {
		return "js"
	}
	return "ts"
}

func kebabName(h model.SymbolHandle) string {
	return casing.Kebab(filepath.Base(h.ImportPath))
}

// dedupTraits keeps the first occurrence of every target handle, in
// encounter order.
func dedupTraits(traits []model.TraitReference) []model.TraitReference {
	seen := make(map[model.SymbolHandle]bool, len(traits))
	out := make([]model.TraitReference, 0, len(traits))
	for _, t := range traits {
		if seen[t.Target] {
			continue
		}
		seen[t.Target] = true
		out = append(out, t)
	}
	return out
}

// schemaSource builds the schema artifact: a single exported constant
// whose value is a plain object literal.
func (e *Emitter) schemaSource(p *model.ArtifactPlan, name string) string {
	var b strings.Builder

	constName := casing.Pascal(name) + "Schema"
	traits := dedupTraits(p.Traits)

	fmt.Fprintf(&b, "export const %s = {\n", constName)
	if p.Materialize == model.MaterializeResource {
		fmt.Fprintf(&b, "  type: %s,\n", quote(name))
		fmt.Fprintf(&b, "  legacy: true,\n")
		fmt.Fprintf(&b, "  identity: { kind: '@id', name: 'id' },\n")
	} else {
		fmt.Fprintf(&b, "  name: %s,\n", quote(name))
		fmt.Fprintf(&b, "  mode: 'legacy',\n")
	}

	fmt.Fprintf(&b, "  fields: [\n")
	for _, f := range p.Fields {
		fmt.Fprintf(&b, "    %s,\n", serializeField(f))
	}
	fmt.Fprintf(&b, "  ],\n")

	if len(traits) > 0 {
		names := make([]string, len(traits))
		for i, t := range traits {
			names[i] = quote(kebabName(t.Target))
		}
		fmt.Fprintf(&b, "  traits: [%s],\n", strings.Join(names, ", "))
	}

	if p.Materialize == model.MaterializeResource && p.EmitExtension {
		fmt.Fprintf(&b, "  objectExtensions: [%s],\n", quote(casing.Pascal(name)+"Extension"))
	}

	fmt.Fprintf(&b, "};\n")
	return b.String()
}

// serializeField renders one Field Descriptor as `{ name, kind, type,
// options? }`, options omitted when empty.
func serializeField(f model.FieldDescriptor) string {
	var b strings.Builder
	fmt.Fprintf(&b, "{ name: %s, kind: %s, type: %s", quote(f.Name), quote(string(f.Kind)), quote(f.TypeName))
	if !f.Options.IsEmpty() {
		fmt.Fprintf(&b, ", options: %s", serializeOptions(f.Options))
	}
	fmt.Fprintf(&b, " }")
	return b.String()
}

// serializeOptions renders a FieldOptions value in a stable key order:
// async -> inverse -> polymorphic -> others alphabetically.
func serializeOptions(o model.FieldOptions) string {
	var parts []string
	if o.Async != nil {
		parts = append(parts, fmt.Sprintf("async: %t", *o.Async))
	}
	if o.Inverse != nil {
		if *o.Inverse == "" {
			parts = append(parts, "inverse: null")
		} else {
			parts = append(parts, fmt.Sprintf("inverse: %s", quote(*o.Inverse)))
		}
	}
	if o.Polymorphic != nil {
		parts = append(parts, fmt.Sprintf("polymorphic: %t", *o.Polymorphic))
	}
	extraKeys := make([]string, 0, len(o.Extra))
	for k := range o.Extra {
		extraKeys = append(extraKeys, k)
	}
	sort.Strings(extraKeys)
	for _, k := range extraKeys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, o.Extra[k].Raw))
	}
	return "{ " + strings.Join(parts, ", ") + " }"
}

func quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "\\'") + "'"
}

package emit

import (
	"fmt"
	"sort"
	"strings"

	"schemaforge/internal/casing"
	"schemaforge/internal/model"
)

// scalarType maps an attribute's type-name to its TypeScript shape: the
// built-in scalars, then the configured type-mapping, then a PascalCase
// external-type fallback.
func (e *Emitter) scalarType(typeName string) string {
	switch typeName {
	case "string":
		return "string"
	case "number":
		return "number"
	case "boolean":
		return "boolean"
	case "date":
		return "Date"
	}
	if mapped, ok := e.cfg.TypeMapping[typeName]; ok {
		return mapped
	}
	return casing.Pascal(typeName)
}

// relationshipTarget resolves a belongsTo/hasMany field's bare type-name
// to the interface name and import specifier of the resource or trait it
// names, or reports ok=false when it names a symbol outside this run —
// in that case no import is generated, only a PascalCase type name is
// used.
func (e *Emitter) relationshipTarget(typeName string) (tsName, importSpec string, ok bool) {
	handle, found := e.kebabIndex[typeName]
	if !found {
		return casing.Pascal(typeName), "", false
	}
	materialize := model.MaterializeResource
	if handle.Kind != model.KindModel {
		materialize = model.MaterializeTrait
	}
	return casing.Pascal(kebabName(handle)), e.r.ToImportSpecifier(handle, materialize), true
}

// fieldImport is one named import the types artifact needs alongside the
// property it was discovered from, deduplicated by specifier+name before
// rendering.
type fieldImport struct {
	name  string
	spec  string
	value bool // true for a runtime value import (the Type brand symbol); false for `import type`
}

// typesSource builds the types artifact: an exported interface extending
// every referenced trait's interface and (if emitted) the extension
// signature interface, with one readonly property per field.
func (e *Emitter) typesSource(p *model.ArtifactPlan, name string) string {
	ifaceName := casing.Pascal(name)
	traits := dedupTraits(p.Traits)

	var extends []string
	var imports []fieldImport
	for _, t := range traits {
		materialize := model.MaterializeTrait
		if t.Target.Kind == model.KindModel {
			materialize = model.MaterializeResource
		}
		traitName := casing.Pascal(kebabName(t.Target))
		extends = append(extends, traitName)
		imports = append(imports, fieldImport{name: traitName, spec: e.r.ToImportSpecifier(t.Target, materialize)})
	}
	if p.EmitExtension {
		sig := ifaceName + "ExtensionSignature"
		extends = append(extends, sig)
		imports = append(imports, fieldImport{name: sig, spec: e.r.ExtensionImportSpecifier(p.Handle)})
	}

	needsHasMany, needsAsyncHasMany := false, false
	var body strings.Builder
	for _, f := range p.Fields {
		line, fi := e.fieldTypeLine(f)
		imports = append(imports, fi...)
		fmt.Fprintf(&body, "  readonly %s;\n", line)
		if f.Kind == model.FieldHasMany {
			if f.Options.Async != nil && *f.Options.Async {
				needsAsyncHasMany = true
			} else {
				needsHasMany = true
			}
		}
	}

	if p.Materialize == model.MaterializeResource {
		imports = append(imports, fieldImport{name: "Type", spec: e.r.TypeBrandImportSpecifier(), value: true})
	}
	if needsHasMany {
		imports = append(imports, fieldImport{name: "HasMany", spec: e.r.RelationshipHelperImportSpecifier()})
	}
	if needsAsyncHasMany {
		imports = append(imports, fieldImport{name: "AsyncHasMany", spec: e.r.RelationshipHelperImportSpecifier()})
	}

	var b strings.Builder
	for _, line := range renderImports(imports) {
		b.WriteString(line)
		b.WriteString("\n")
	}
	if b.Len() > 0 {
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "export interface %s", ifaceName)
	if len(extends) > 0 {
		fmt.Fprintf(&b, " extends %s", strings.Join(extends, ", "))
	}
	fmt.Fprintf(&b, " {\n")
	b.WriteString(body.String())
	if p.Materialize == model.MaterializeResource {
		fmt.Fprintf(&b, "  readonly [Type]: %s;\n", quote(name))
	}
	b.WriteString("}\n")
	return b.String()
}

// fieldTypeLine renders one field's `<name>: <shape>` property text (the
// `readonly ` prefix and trailing `;` are added by the caller) plus any
// import its shape requires.
func (e *Emitter) fieldTypeLine(f model.FieldDescriptor) (string, []fieldImport) {
	switch f.Kind {
	case model.FieldAttribute:
		return fmt.Sprintf("%s: %s | null", f.Name, e.scalarType(f.TypeName)), nil
	case model.FieldBelongsTo:
		tsName, spec, ok := e.relationshipTarget(f.TypeName)
		var imp []fieldImport
		if ok {
			imp = []fieldImport{{name: tsName, spec: spec}}
		}
		return fmt.Sprintf("%s: %s | null", f.Name, tsName), imp
	case model.FieldHasMany:
		tsName, spec, ok := e.relationshipTarget(f.TypeName)
		var imp []fieldImport
		if ok {
			imp = []fieldImport{{name: tsName, spec: spec}}
		}
		wrapper := "HasMany"
		if f.Options.Async != nil && *f.Options.Async {
			wrapper = "AsyncHasMany"
		}
		return fmt.Sprintf("%s: %s<%s>", f.Name, wrapper, tsName), imp
	default:
		return fmt.Sprintf("%s: unknown", f.Name), nil
	}
}

// renderImports groups fieldImports by specifier, deduplicates names
// within a specifier, and sorts specifiers for stable output.
func renderImports(imports []fieldImport) []string {
	bySpec := map[string]map[string]bool{}
	valueSpec := map[string]bool{}
	var specOrder []string
	for _, imp := range imports {
		if imp.spec == "" {
			continue
		}
		if bySpec[imp.spec] == nil {
			bySpec[imp.spec] = map[string]bool{}
			specOrder = append(specOrder, imp.spec)
		}
		bySpec[imp.spec][imp.name] = true
		if imp.value {
			valueSpec[imp.spec] = true
		}
	}
	sort.Strings(specOrder)

	out := make([]string, 0, len(specOrder))
	for _, spec := range specOrder {
		names := make([]string, 0, len(bySpec[spec]))
		for n := range bySpec[spec] {
			names = append(names, n)
		}
		sort.Strings(names)
		keyword := "import type"
		if valueSpec[spec] {
			keyword = "import"
		}
		out = append(out, fmt.Sprintf("%s { %s } from '%s';", keyword, strings.Join(names, ", "), spec))
	}
	return out
}

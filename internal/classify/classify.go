// Package classify decides a parsed file's kind (model, intermediate-model,
// mixin, ignored) and extracts its structural summary by walking the top
// of its syntax tree once, defensively and node-by-node: anything it
// doesn't recognize downgrades to a residual or a warning rather than an
// error.
package classify

import (
	sitter "github.com/smacker/go-tree-sitter"

	"schemaforge/internal/model"
)

// Rules is the subset of configuration the Classifier needs.
type Rules struct {
	EmberDataImportSource  string
	IntermediateModelPaths map[string]bool
}

// Result is everything Classify produces for one file.
type Result struct {
	Classification model.Classification
	DefaultExportName string
	Summary        *model.Summary
	Warnings       []Warning
}

// Classify inspects a parsed file's syntax tree and produces its
// classification and structural summary. canonicalImportPath is this
// file's own import specifier, used only to check intermediate-model-paths
// overrides.
func Classify(tree *sitter.Tree, source []byte, canonicalImportPath string, rules Rules) Result {
	root := tree.RootNode()
	im := collectImports(root, source, rules.EmberDataImportSource)

	exported, kind := findDefaultExport(root)
	if exported == nil {
		return Result{Classification: model.ClassIgnored}
	}

	switch kind {
	case exportClass:
		return classifyClassExport(exported, source, im, canonicalImportPath, rules)
	case exportCall:
		return classifyCallExport(exported, source, im)
	default:
		return Result{Classification: model.ClassIgnored}
	}
}

type exportKind int

const (
	exportNone exportKind = iota
	exportClass
	exportCall
)

// findDefaultExport locates `export default <class ...>` or
// `export default <call expression>` at the top level of the program.
func findDefaultExport(root *sitter.Node) (*sitter.Node, exportKind) {
	for i := 0; i < int(root.NamedChildCount()); i++ {
		n := root.NamedChild(i)
		if n.Type() != "export_statement" {
			continue
		}
		if !hasDefaultKeyword(n) {
			continue
		}
		for j := 0; j < int(n.NamedChildCount()); j++ {
			c := n.NamedChild(j)
			switch c.Type() {
			case "class_declaration", "class":
				return c, exportClass
			case "call_expression":
				return c, exportCall
			}
		}
	}
	return nil, exportNone
}

func hasDefaultKeyword(exportStmt *sitter.Node) bool {
	for i := 0; i < int(exportStmt.ChildCount()); i++ {
		c := exportStmt.Child(i)
		if c.Type() == "default" {
			return true
		}
	}
	return false
}

func classifyClassExport(classNode *sitter.Node, source []byte, im *Imports, canonicalImportPath string, rules Rules) Result {
	name := ""
	if n := classNode.ChildByFieldName("name"); n != nil {
		name = n.Content(source)
	}

	heritage := findChildOfType(classNode, "class_heritage")
	if heritage == nil {
		return Result{Classification: model.ClassIgnored}
	}

	superExpr := extendsExpression(heritage)
	if superExpr == nil {
		return Result{Classification: model.ClassIgnored}
	}

	baseRef, directTraits := collectHeritage(superExpr, source, im)
	var baseRefs []model.RawRef
	if baseRef.Identifier != "" {
		baseRefs = []model.RawRef{baseRef}
	}

	body := classNode.ChildByFieldName("body")
	var fields []model.FieldDescriptor
	var residuals []model.ResidualMember
	var warnings []Warning
	if body != nil {
		fields, residuals, warnings = extractClassMembers(body, source, im)
	}

	mixinIdentifiers := make([]string, len(directTraits))
	for i, t := range directTraits {
		mixinIdentifiers[i] = t.Ref.Identifier
	}
	traitRefs := append(directTraits, typeOnlyTraitRefs(classNode, source, im, append([]string{baseRef.Identifier}, mixinIdentifiers...))...)

	classification := model.ClassModel
	if rules.IntermediateModelPaths[canonicalImportPath] {
		classification = model.ClassIntermediateModel
	}

	return Result{
		Classification:     classification,
		DefaultExportName:  name,
		Warnings:           warnings,
		Summary: &model.Summary{
			Fields:    fields,
			Residuals: residuals,
			BaseRefs:  baseRefs,
			TraitRefs: traitRefs,
		},
	}
}

// extendsExpression returns the expression following the `extends` keyword
// inside a class_heritage node. tree-sitter-typescript nests it one level
// deeper, as the "value" field of an extends_clause child;
// tree-sitter-javascript's grammar leaves it as the heritage clause's only
// named child, so both shapes are checked.
func extendsExpression(heritage *sitter.Node) *sitter.Node {
	if v := heritage.ChildByFieldName("value"); v != nil {
		return v
	}
	for i := 0; i < int(heritage.NamedChildCount()); i++ {
		c := heritage.NamedChild(i)
		switch c.Type() {
		case "extends_clause":
			if v := c.ChildByFieldName("value"); v != nil {
				return v
			}
		case "identifier", "member_expression", "call_expression":
			return c
		}
	}
	return nil
}

// collectHeritage walks a (possibly chained) `X.extend(A, B).extend(C)`
// expression, separating the single base-class identifier (`X`: either
// `Model` or a referenced intermediate-model symbol) from every mixin
// argument passed to a `.extend(...)` call, returned as direct Trait
// References in left-to-right source order with duplicates removed,
// keeping each identifier's first occurrence.
func collectHeritage(expr *sitter.Node, source []byte, im *Imports) (model.RawRef, []model.RawTraitRef) {
	var traits []model.RawTraitRef
	seen := map[string]bool{}
	addTrait := func(ref model.RawRef) {
		if ref.Identifier == "" || seen[ref.Identifier] {
			return
		}
		seen[ref.Identifier] = true
		traits = append(traits, model.RawTraitRef{Ref: ref, Origin: model.TraitOriginDirect})
	}

	var walkBase func(n *sitter.Node) model.RawRef
	walkBase = func(n *sitter.Node) model.RawRef {
		switch n.Type() {
		case "call_expression":
			fn := n.ChildByFieldName("function")
			var base model.RawRef
			if fn != nil {
				base = walkBase(fn)
			}
			args := n.ChildByFieldName("arguments")
			if args != nil {
				for i := 0; i < int(args.NamedChildCount()); i++ {
					a := args.NamedChild(i)
					if a.Type() == "identifier" {
						addTrait(refFor(a.Content(source), im))
					}
				}
			}
			return base
		case "member_expression":
			obj := n.ChildByFieldName("object")
			if obj != nil {
				return walkBase(obj)
			}
			return model.RawRef{}
		case "identifier":
			return refFor(n.Content(source), im)
		default:
			return model.RawRef{}
		}
	}

	base := walkBase(expr)
	return base, traits
}

func refFor(identifier string, im *Imports) model.RawRef {
	spec, _ := im.SpecifierOf(identifier)
	return model.RawRef{Identifier: identifier, ImportSpec: spec}
}

func classifyCallExport(call *sitter.Node, source []byte, im *Imports) Result {
	fn := call.ChildByFieldName("function")
	if fn == nil {
		return Result{Classification: model.ClassIgnored}
	}

	callee, method := splitMemberExpression(fn, source)
	sym, ok := im.LegacyOf(callee)
	if !ok || sym != symMixin {
		return Result{Classification: model.ClassIgnored}
	}
	if method != "create" && method != "createWithMixins" {
		return Result{Classification: model.ClassIgnored}
	}

	args := call.ChildByFieldName("arguments")
	if args == nil {
		return Result{Classification: model.ClassIgnored}
	}

	var traitRefs []model.RawTraitRef
	var objLit *sitter.Node
	for i := 0; i < int(args.NamedChildCount()); i++ {
		a := args.NamedChild(i)
		switch a.Type() {
		case "object":
			objLit = a
		case "identifier":
			if method == "createWithMixins" {
				traitRefs = append(traitRefs, model.RawTraitRef{
					Ref:    refFor(a.Content(source), im),
					Origin: model.TraitOriginDirect,
				})
			}
		}
	}

	var fields []model.FieldDescriptor
	var residuals []model.ResidualMember
	var warnings []Warning
	if objLit != nil {
		fields, residuals, warnings = extractObjectProperties(objLit, source, im)
	}

	return Result{
		Classification: model.ClassMixin,
		Warnings:       warnings,
		Summary: &model.Summary{
			Fields:    fields,
			Residuals: residuals,
			TraitRefs: traitRefs,
		},
	}
}

// splitMemberExpression returns ("Model", "extend") for a `Model.extend`
// expression, or ("", "") if fn isn't a simple member expression.
func splitMemberExpression(fn *sitter.Node, source []byte) (object, property string) {
	if fn.Type() != "member_expression" {
		return "", ""
	}
	obj := fn.ChildByFieldName("object")
	prop := fn.ChildByFieldName("property")
	if obj == nil || prop == nil || obj.Type() != "identifier" {
		return "", ""
	}
	return obj.Content(source), prop.Content(source)
}

// typeOnlyTraitRefs records import bindings that are referenced somewhere
// in a model's type positions (property type annotations, implements
// clauses, generic type arguments) without appearing in the runtime
// base-reference chain. The engine never evaluates source, so this is a
// syntactic match: any
// identifier text reachable from an import binding, found anywhere in a
// type_annotation/implements_clause subtree, not already a base ref.
func typeOnlyTraitRefs(classNode *sitter.Node, source []byte, im *Imports, exclude []string) []model.RawTraitRef {
	isBase := map[string]bool{}
	for _, id := range exclude {
		if id != "" {
			isBase[id] = true
		}
	}

	found := map[string]bool{}
	var refs []model.RawTraitRef

	var walk func(n *sitter.Node, inTypePos bool)
	walk = func(n *sitter.Node, inTypePos bool) {
		switch n.Type() {
		case "type_annotation", "implements_clause", "type_arguments":
			inTypePos = true
		case "type_identifier":
			if inTypePos {
				name := n.Content(source)
				if spec, ok := im.SpecifierOf(name); ok && !isBase[name] && !found[name] {
					found[name] = true
					refs = append(refs, model.RawTraitRef{
						Ref:    model.RawRef{Identifier: name, ImportSpec: spec},
						Origin: model.TraitOriginTransitive,
					})
				}
			}
		}
		for i := 0; i < int(n.NamedChildCount()); i++ {
			walk(n.NamedChild(i), inTypePos)
		}
	}
	walk(classNode, false)
	return refs
}

package classify

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// legacySymbol is one of the five identifiers the engine treats as coming
// from the legacy data-layer framework, once its import source is
// recognized.
type legacySymbol string

const (
	symModel     legacySymbol = "Model"
	symMixin     legacySymbol = "Mixin"
	symAttr      legacySymbol = "attr"
	symBelongsTo legacySymbol = "belongsTo"
	symHasMany   legacySymbol = "hasMany"
)

// importBinding records one local identifier bound by an import
// declaration, along with the module specifier it came from and the
// exported name it binds (the literal "default" for a default import).
type importBinding struct {
	LocalName string
	Source    string
	Imported  string // "default", "*", or the named export identifier
}

// Imports is the set of import bindings discovered in a file, plus a
// resolved view of which local identifiers stand for legacy symbols.
type Imports struct {
	Bindings []importBinding
	// legacy maps a local identifier to the legacy symbol it is bound to,
	// only for imports whose source matched the configured legacy patterns.
	legacy map[string]legacySymbol
	// specifiers maps every local identifier (legacy or not) to the import
	// specifier it was bound from, for Resolver lookups and type-only
	// mixin-reference detection.
	specifiers map[string]string
}

// LegacyOf reports the legacy symbol a local identifier stands for, if any.
func (im *Imports) LegacyOf(localName string) (legacySymbol, bool) {
	s, ok := im.legacy[localName]
	return s, ok
}

// SpecifierOf returns the import specifier a local identifier was bound
// from, if it came from an import declaration.
func (im *Imports) SpecifierOf(localName string) (string, bool) {
	s, ok := im.specifiers[localName]
	return s, ok
}

// collectImports walks the top-level import_statement nodes of a parsed
// file and classifies each binding against the configured legacy import
// sources.
func collectImports(root *sitter.Node, source []byte, legacyDataSource string) *Imports {
	im := &Imports{legacy: map[string]legacySymbol{}, specifiers: map[string]string{}}

	for i := 0; i < int(root.NamedChildCount()); i++ {
		n := root.NamedChild(i)
		if n.Type() != "import_statement" {
			continue
		}
		srcNode := n.ChildByFieldName("source")
		if srcNode == nil {
			continue
		}
		modSpec := stringLiteralValue(srcNode, source)

		clause := findChildOfType(n, "import_clause")
		if clause == nil {
			continue
		}
		walkImportClause(clause, source, modSpec, im)
	}

	resolveLegacy(im, legacyDataSource)
	return im
}

func walkImportClause(clause *sitter.Node, source []byte, modSpec string, im *Imports) {
	for i := 0; i < int(clause.NamedChildCount()); i++ {
		n := clause.NamedChild(i)
		switch n.Type() {
		case "identifier":
			// bare default import: `import Model from '...'`
			local := n.Content(source)
			im.Bindings = append(im.Bindings, importBinding{LocalName: local, Source: modSpec, Imported: "default"})
			im.specifiers[local] = modSpec
		case "namespace_import":
			// `import * as Foo from '...'`
			if id := findChildOfType(n, "identifier"); id != nil {
				local := id.Content(source)
				im.Bindings = append(im.Bindings, importBinding{LocalName: local, Source: modSpec, Imported: "*"})
				im.specifiers[local] = modSpec
			}
		case "named_imports":
			for j := 0; j < int(n.NamedChildCount()); j++ {
				spec := n.NamedChild(j)
				if spec.Type() != "import_specifier" {
					continue
				}
				name := spec.ChildByFieldName("name")
				alias := spec.ChildByFieldName("alias")
				if name == nil {
					continue
				}
				imported := name.Content(source)
				local := imported
				if alias != nil {
					local = alias.Content(source)
				}
				im.Bindings = append(im.Bindings, importBinding{LocalName: local, Source: modSpec, Imported: imported})
				im.specifiers[local] = modSpec
			}
		}
	}
}

// resolveLegacy decides, for every collected binding, whether it stands for
// one of the five legacy symbols, based on the import source matching the
// configured legacy import patterns. Model/attr/belongsTo/hasMany are
// recognized off ember-data-import-source (or any source containing
// "ember-data"); Mixin is recognized off any source containing "mixin",
// which covers the conventional "@ember/object/mixin" location without
// requiring a second dedicated config key.
func resolveLegacy(im *Imports, legacyDataSource string) {
	for _, b := range im.Bindings {
		lower := strings.ToLower(b.Source)
		isDataSource := legacyDataSource != "" && (b.Source == legacyDataSource || strings.HasPrefix(b.Source, legacyDataSource+"/")) || strings.Contains(lower, "ember-data")
		isMixinSource := strings.Contains(lower, "mixin")

		key := b.Imported
		if b.Imported == "default" {
			key = b.LocalName
		}

		switch {
		case isMixinSource && key == string(symMixin):
			im.legacy[b.LocalName] = symMixin
		case isDataSource && key == string(symModel):
			im.legacy[b.LocalName] = symModel
		case isDataSource && key == string(symAttr):
			im.legacy[b.LocalName] = symAttr
		case isDataSource && key == string(symBelongsTo):
			im.legacy[b.LocalName] = symBelongsTo
		case isDataSource && key == string(symHasMany):
			im.legacy[b.LocalName] = symHasMany
		}
	}
}

func findChildOfType(n *sitter.Node, typ string) *sitter.Node {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		c := n.NamedChild(i)
		if c.Type() == typ {
			return c
		}
	}
	return nil
}

// stringLiteralValue returns the unquoted text of a string node, or its raw
// content if it isn't a simple string literal.
func stringLiteralValue(n *sitter.Node, source []byte) string {
	txt := n.Content(source)
	if len(txt) >= 2 {
		first, last := txt[0], txt[len(txt)-1]
		if (first == '\'' && last == '\'') || (first == '"' && last == '"') || (first == '`' && last == '`') {
			return txt[1 : len(txt)-1]
		}
	}
	return txt
}

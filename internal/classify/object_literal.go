package classify

import (
	sitter "github.com/smacker/go-tree-sitter"

	"schemaforge/internal/model"
)

// extractObjectProperties splits a mixin's object literal into Field
// Descriptors (properties whose value is a call to attr/belongsTo/hasMany)
// and residual members (everything else): methods, computed properties,
// plain values.
func extractObjectProperties(obj *sitter.Node, source []byte, im *Imports) ([]model.FieldDescriptor, []model.ResidualMember, []Warning) {
	var fields []model.FieldDescriptor
	var residuals []model.ResidualMember
	var warnings []Warning

	for i := 0; i < int(obj.NamedChildCount()); i++ {
		n := obj.NamedChild(i)
		switch n.Type() {
		case "pair", "method_definition", "shorthand_property_identifier":
			name := propertyName(n, source)
			call := propertyCallValue(n)
			if call != nil {
				callee := call.ChildByFieldName("function")
				if callee != nil && callee.Type() == "identifier" {
					if sym, ok := im.LegacyOf(callee.Content(source)); ok {
						kind, isField := fieldKindOf(sym)
						if isField {
							args := call.ChildByFieldName("arguments")
							typeName, okArg := firstArgStringLiteral(args, source)
							if !okArg {
								warnings = append(warnings, Warning{
									Kind:    WarnNonStringFieldArg,
									Message: "mixin property `" + name + "` has a non-string first argument; treated as residual",
								})
							} else {
								opts := optionsFromSecondArg(args, source)
								fields = append(fields, model.FieldDescriptor{Name: name, Kind: kind, TypeName: typeName, Options: opts})
								continue
							}
						}
					}
				}
			}
			residuals = append(residuals, model.ResidualMember{Name: name, Source: verbatimSpan(n, nil, source)})
		}
	}

	for _, r := range residuals {
		if r.Name != "" && hasFieldNamed(fields, r.Name) {
			warnings = append(warnings, Warning{
				Kind:    WarnNameShadow,
				Message: "residual property `" + r.Name + "` shadows a field of the same name; both are kept (open question #2)",
			})
		}
	}

	return fields, residuals, warnings
}

func fieldKindOf(sym legacySymbol) (model.FieldKind, bool) {
	switch sym {
	case symAttr:
		return model.FieldAttribute, true
	case symBelongsTo:
		return model.FieldBelongsTo, true
	case symHasMany:
		return model.FieldHasMany, true
	default:
		return "", false
	}
}

func propertyName(n *sitter.Node, source []byte) string {
	switch n.Type() {
	case "pair":
		if k := n.ChildByFieldName("key"); k != nil {
			return k.Content(source)
		}
	case "method_definition":
		if nm := n.ChildByFieldName("name"); nm != nil {
			return nm.Content(source)
		}
	case "shorthand_property_identifier":
		return n.Content(source)
	}
	return ""
}

// propertyCallValue returns the call_expression a `pair` property's value
// is, if any (method_definition bodies are never field calls).
func propertyCallValue(n *sitter.Node) *sitter.Node {
	if n.Type() != "pair" {
		return nil
	}
	v := n.ChildByFieldName("value")
	if v != nil && v.Type() == "call_expression" {
		return v
	}
	return nil
}

package classify

import (
	sitter "github.com/smacker/go-tree-sitter"

	"schemaforge/internal/model"
)

// Warning is a non-fatal classification diagnostic.
type Warning struct {
	Kind    string
	Message string
}

const (
	WarnNonStringFieldArg = "non-string-field-argument"
	WarnNameShadow        = "name-shadow"
)

// extractClassMembers walks a class_body node, splitting decorated members
// into Field Descriptors and everything else (including decorated members
// whose decorator isn't a recognized field decorator) into residual
// members, preserving each residual's leading decorators/comments verbatim.
// Decorators are picked up both as siblings preceding the member and as
// children of the member node itself, since the grammars place them either
// way depending on the member kind.
func extractClassMembers(body *sitter.Node, source []byte, im *Imports) ([]model.FieldDescriptor, []model.ResidualMember, []Warning) {
	var fields []model.FieldDescriptor
	var residuals []model.ResidualMember
	var warnings []Warning

	var pendingDecorators []*sitter.Node

	for i := 0; i < int(body.NamedChildCount()); i++ {
		n := body.NamedChild(i)
		switch n.Type() {
		case "decorator", "comment":
			// leading comments ride along with the decorator run so the
			// residual's verbatim span starts at them; they never match a
			// field decorator.
			pendingDecorators = append(pendingDecorators, n)
			continue
		case "public_field_definition", "field_definition", "property_definition",
			"method_definition", "method_signature":
			decorators := pendingDecorators
			pendingDecorators = nil
			for j := 0; j < int(n.NamedChildCount()); j++ {
				if c := n.NamedChild(j); c.Type() == "decorator" {
					decorators = append(decorators, c)
				}
			}

			field, ok, warn := fieldFromDecoratedMember(n, decorators, source, im)
			if warn != nil {
				warnings = append(warnings, *warn)
			}
			if ok {
				fields = append(fields, field)
				continue
			}

			residuals = append(residuals, model.ResidualMember{
				Name:   memberName(n, source),
				Source: verbatimSpan(n, decorators, source),
			})
		default:
			// any other node ends a leading decorator/comment run that never
			// reached a member; drop it.
			pendingDecorators = nil
		}
	}

	for _, r := range residuals {
		if r.Name != "" && hasFieldNamed(fields, r.Name) {
			warnings = append(warnings, Warning{
				Kind:    WarnNameShadow,
				Message: "residual member `" + r.Name + "` shadows a field of the same name; both are kept (open question #2)",
			})
		}
	}

	return fields, residuals, warnings
}

// fieldFromDecoratedMember inspects a class member's decorators for one
// that resolves to attr/belongsTo/hasMany. Returns ok=false (member is a
// residual) when no decorator matches, or when the sole matching decorator's
// first argument is not a string literal — in that case a warning is also
// returned and the member is downgraded to residual, never a field.
func fieldFromDecoratedMember(member *sitter.Node, decorators []*sitter.Node, source []byte, im *Imports) (model.FieldDescriptor, bool, *Warning) {
	name := memberName(member, source)

	for _, dec := range decorators {
		call := decoratorCall(dec)
		if call == nil {
			continue
		}
		callee := call.ChildByFieldName("function")
		if callee == nil || callee.Type() != "identifier" {
			continue
		}
		sym, ok := im.LegacyOf(callee.Content(source))
		if !ok {
			continue
		}

		var kind model.FieldKind
		switch sym {
		case symAttr:
			kind = model.FieldAttribute
		case symBelongsTo:
			kind = model.FieldBelongsTo
		case symHasMany:
			kind = model.FieldHasMany
		default:
			continue
		}

		args := call.ChildByFieldName("arguments")
		typeName, okArg := firstArgStringLiteral(args, source)
		if !okArg {
			return model.FieldDescriptor{}, false, &Warning{
				Kind:    WarnNonStringFieldArg,
				Message: "decorator on `" + name + "` has a non-string first argument; treated as residual",
			}
		}

		opts := optionsFromSecondArg(args, source)
		return model.FieldDescriptor{Name: name, Kind: kind, TypeName: typeName, Options: opts}, true, nil
	}

	return model.FieldDescriptor{}, false, nil
}

// decoratorCall returns the call_expression a decorator node wraps, or nil
// if the decorator is a bare identifier (e.g. `@computed` with no
// arguments, which can never be a recognized field decorator).
func decoratorCall(dec *sitter.Node) *sitter.Node {
	for i := 0; i < int(dec.NamedChildCount()); i++ {
		c := dec.NamedChild(i)
		if c.Type() == "call_expression" {
			return c
		}
	}
	return nil
}

func memberName(member *sitter.Node, source []byte) string {
	if n := member.ChildByFieldName("name"); n != nil {
		return n.Content(source)
	}
	// tree-sitter-javascript's field_definition names it "property".
	if n := member.ChildByFieldName("property"); n != nil {
		return n.Content(source)
	}
	return ""
}

// firstArgStringLiteral returns the first argument's literal string value,
// or ok=false if there is no first argument or it isn't a string literal.
func firstArgStringLiteral(args *sitter.Node, source []byte) (string, bool) {
	if args == nil || args.NamedChildCount() == 0 {
		return "", false
	}
	first := args.NamedChild(0)
	if first.Type() != "string" {
		return "", false
	}
	return stringLiteralValue(first, source), true
}

// optionsFromSecondArg folds the decorator's optional second argument
// (an object literal) into FieldOptions, recognizing async/inverse/
// polymorphic and passing everything else through as opaque Literals.
func optionsFromSecondArg(args *sitter.Node, source []byte) model.FieldOptions {
	var opts model.FieldOptions
	if args == nil || args.NamedChildCount() < 2 {
		return opts
	}
	obj := args.NamedChild(1)
	if obj.Type() != "object" {
		return opts
	}

	for i := 0; i < int(obj.NamedChildCount()); i++ {
		pair := obj.NamedChild(i)
		if pair.Type() != "pair" {
			continue
		}
		key := pair.ChildByFieldName("key")
		val := pair.ChildByFieldName("value")
		if key == nil || val == nil {
			continue
		}
		keyName := key.Content(source)
		lit := model.Literal{Raw: val.Content(source), Kind: literalKind(val)}

		switch keyName {
		case "async":
			b := val.Content(source) == "true"
			opts.Async = &b
		case "inverse":
			v := stringLiteralValue(val, source)
			if val.Type() == "null" {
				v = ""
			}
			opts.Inverse = &v
		case "polymorphic":
			b := val.Content(source) == "true"
			opts.Polymorphic = &b
		default:
			if opts.Extra == nil {
				opts.Extra = map[string]model.Literal{}
			}
			opts.Extra[keyName] = lit
		}
	}
	return opts
}

func literalKind(n *sitter.Node) string {
	switch n.Type() {
	case "string":
		return "string"
	case "number":
		return "number"
	case "true", "false":
		return "boolean"
	case "null":
		return "null"
	case "identifier":
		return "identifier"
	default:
		return "other"
	}
}

func hasFieldNamed(fields []model.FieldDescriptor, name string) bool {
	for _, f := range fields {
		if f.Name == name {
			return true
		}
	}
	return false
}

// verbatimSpan returns the exact source text of a member, including its
// leading decorators and comments, preserved byte-for-byte.
func verbatimSpan(member *sitter.Node, decorators []*sitter.Node, source []byte) string {
	start := member.StartByte()
	end := member.EndByte()
	if len(decorators) > 0 {
		start = decorators[0].StartByte()
	}
	return string(source[start:end])
}

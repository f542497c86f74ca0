package emit

import (
	"fmt"
	"strings"

	"schemaforge/internal/casing"
	"schemaforge/internal/model"
)

// extensionSource builds the extension artifact: residual members
// relocated verbatim into a declaration-merged interface+class pair for a
// typed origin, or a JSDoc-typed equivalent for an untyped one.
func (e *Emitter) extensionSource(p *model.ArtifactPlan, name, ext string) string {
	ifaceName := casing.Pascal(name)
	className := ifaceName + "Extension"

	var body strings.Builder
	for _, m := range p.Residuals {
		body.WriteString(indentMember(m.Source))
		body.WriteString("\n\n")
	}
	members := strings.TrimRight(body.String(), "\n")

	var b strings.Builder
	typesSpec := e.r.ToImportSpecifier(p.Handle, p.Materialize)
	fmt.Fprintf(&b, "import type { %s } from '%s';\n\n", ifaceName, typesSpec)

	if ext == "js" {
		fmt.Fprintf(&b, "/** @type {{ new(): %s }} */\n", ifaceName)
		fmt.Fprintf(&b, "const Base = class {};\n\n")
		fmt.Fprintf(&b, "export class %s extends Base {\n%s\n}\n\n", className, members)
		fmt.Fprintf(&b, "/** @typedef {typeof %s} %sSignature */\n", className, className)
		return b.String()
	}

	fmt.Fprintf(&b, "export interface %s extends %s {}\n\n", className, ifaceName)
	fmt.Fprintf(&b, "export class %s {\n%s\n}\n\n", className, members)
	fmt.Fprintf(&b, "export type %sSignature = typeof %s;\n", className, className)
	return b.String()
}

// indentMember re-indents a verbatim residual member's source to sit two
// spaces deep in the class body it is relocated into. tree-sitter's node
// content starts exactly at the member's first token, so only the first
// line arrives already stripped of its original column; lines 2+ still
// carry their absolute indentation from the source file. Dedent those by
// their common leading whitespace first, then apply a uniform two-space
// prefix to every line, so relative indentation inside the member survives
// the move.
func indentMember(src string) string {
	lines := strings.Split(src, "\n")

	minIndent := -1
	for _, l := range lines[1:] {
		if strings.TrimSpace(l) == "" {
			continue
		}
		n := len(l) - len(strings.TrimLeft(l, " \t"))
		if minIndent < 0 || n < minIndent {
			minIndent = n
		}
	}
	if minIndent > 0 {
		for i := 1; i < len(lines); i++ {
			if len(lines[i]) >= minIndent {
				lines[i] = lines[i][minIndent:]
			} else {
				lines[i] = strings.TrimLeft(lines[i], " \t")
			}
		}
	}

	for i, l := range lines {
		if l == "" {
			continue
		}
		lines[i] = "  " + l
	}
	return strings.Join(lines, "\n")
}

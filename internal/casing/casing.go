// Package casing converts identifiers between kebab-case (used for
// artifact file names and schema type-name/trait-name strings) and
// PascalCase (used for generated TypeScript interface names). No casing
// library appears anywhere in the retrieved corpus, so this is a small
// hand-rolled stdlib implementation rather than an import (see DESIGN.md).
package casing

import "strings"

// Kebab converts an identifier of any common case style (PascalCase,
// camelCase, snake_case, already-kebab-case) to kebab-case.
func Kebab(s string) string {
	words := splitWords(s)
	for i, w := range words {
		words[i] = strings.ToLower(w)
	}
	return strings.Join(words, "-")
}

// Pascal converts an identifier of any common case style to PascalCase,
// used for generated TypeScript interface names.
func Pascal(s string) string {
	words := splitWords(s)
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + strings.ToLower(w[1:])
	}
	return strings.Join(words, "")
}

// splitWords breaks an identifier into case-insensitive words, splitting on
// hyphens, underscores, slashes, dots and camelCase/PascalCase boundaries.
func splitWords(s string) []string {
	var words []string
	var cur strings.Builder

	flush := func() {
		if cur.Len() > 0 {
			words = append(words, cur.String())
			cur.Reset()
		}
	}

	runes := []rune(s)
	for i, r := range runes {
		switch {
		case r == '-' || r == '_' || r == '/' || r == '.':
			flush()
		case r >= 'A' && r <= 'Z':
			if i > 0 {
				prev := runes[i-1]
				startsNewWord := !(prev >= 'A' && prev <= 'Z') ||
					(i+1 < len(runes) && runes[i+1] >= 'a' && runes[i+1] <= 'z' && prev >= 'A' && prev <= 'Z')
				if startsNewWord {
					flush()
				}
			}
			cur.WriteRune(r)
		default:
			cur.WriteRune(r)
		}
	}
	flush()
	return words
}

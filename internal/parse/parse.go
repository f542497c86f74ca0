// Package parse wraps github.com/smacker/go-tree-sitter for the two surface
// languages the engine reads: JavaScript and TypeScript, one grammar
// selected per language. It is scoped to exactly "parse file -> syntax
// tree" — no query execution lives here, that is internal/classify's job
// against the *sitter.Tree this package returns.
package parse

import (
	"context"
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/typescript/typescript"

	"schemaforge/internal/model"
)

// SurfaceForPath derives the surface language from a filename suffix.
func SurfaceForPath(path string) (model.Surface, bool) {
	switch {
	case strings.HasSuffix(path, ".ts"):
		return model.SurfaceTyped, true
	case strings.HasSuffix(path, ".js"):
		return model.SurfaceUntyped, true
	default:
		return "", false
	}
}

func languageFor(surface model.Surface) *sitter.Language {
	if surface == model.SurfaceTyped {
		return typescript.GetLanguage()
	}
	return javascript.GetLanguage()
}

// Tree parses source bytes for the given surface into a syntax tree. Parse
// failures are returned as errors; the caller (internal/sourceindex) is
// responsible for downgrading them to warnings and dropping the file
// rather than aborting the run.
func Tree(ctx context.Context, surface model.Surface, source []byte) (*sitter.Tree, error) {
	parser := sitter.NewParser()
	parser.SetLanguage(languageFor(surface))

	tree, err := parser.ParseCtx(ctx, nil, source)
	if err != nil {
		return nil, fmt.Errorf("parse %s source: %w", surface, err)
	}
	if tree.RootNode().HasError() {
		return nil, fmt.Errorf("parse %s source: syntax error", surface)
	}
	return tree, nil
}

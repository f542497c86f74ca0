package depgraph

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"schemaforge/internal/config"
	"schemaforge/internal/model"
	"schemaforge/internal/resolve"
	"schemaforge/internal/sourceindex"
)

func TestLinkRelations_BaseAndTraitEdges(t *testing.T) {
	root, err := filepath.Abs(filepath.Join("..", "sourceindex", "testdata"))
	require.NoError(t, err)
	cfg := config.Config{
		RootDir:               root,
		ModelSourceDir:        filepath.Join(root, "app", "models"),
		MixinSourceDir:        filepath.Join(root, "app", "mixins"),
		ModelImportSource:     "my-app/models",
		MixinImportSource:     "my-app/mixins",
		EmberDataImportSource: "ember-data/model",
	}

	idx, _, err := sourceindex.Build(context.Background(), cfg)
	require.NoError(t, err)

	g := BuildFromIndex(idx.All())
	r := resolve.New(idx, cfg)
	g.LinkRelations(r)

	user := model.SymbolHandle{Kind: model.KindModel, ImportPath: "my-app/models/user"}
	mixin := model.SymbolHandle{Kind: model.KindMixin, ImportPath: "my-app/mixins/auditable"}

	deps := g.GetDependencies(user)
	require.NotEmpty(t, deps)

	var foundMixin bool
	for _, d := range deps {
		if d.Handle == mixin {
			foundMixin = true
		}
	}
	assert.True(t, foundMixin, "user should depend on the auditable mixin")

	dependents := g.GetDependents(mixin)
	require.Len(t, dependents, 1)
	assert.Equal(t, user, dependents[0].Handle)
}

// fakeIndex is a minimal resolve.Index backed by canonical import path only,
// for exercising LinkRelations without a real parse/classify pass.
type fakeIndex struct {
	byImport map[string]*model.FileRecord
}

func (f fakeIndex) ByPath(string) (*model.FileRecord, bool) { return nil, false }
func (f fakeIndex) ByImport(spec string) (*model.FileRecord, bool) {
	rec, ok := f.byImport[spec]
	return rec, ok
}

// TestLinkRelations_TypeOnlyReferenceToAModelIsNotATraitEdge guards against a
// residual member typed against another model (e.g. `get parent(): Post`)
// being linked as a trait edge just because it was classified as a
// transitive Trait Reference; only a reference that actually targets a
// mixin may become one.
func TestLinkRelations_TypeOnlyReferenceToAModelIsNotATraitEdge(t *testing.T) {
	postRec := &model.FileRecord{
		CanonicalImportPath: "my-app/models/post",
		Classification:      model.ClassModel,
		Summary:             &model.Summary{},
	}
	userRec := &model.FileRecord{
		CanonicalImportPath: "my-app/models/user",
		Classification:      model.ClassModel,
		Summary: &model.Summary{
			TraitRefs: []model.RawTraitRef{
				{Ref: model.RawRef{Identifier: "Post", ImportSpec: "my-app/models/post"}, Origin: model.TraitOriginTransitive},
			},
		},
	}

	idx := fakeIndex{byImport: map[string]*model.FileRecord{
		"my-app/models/post": postRec,
		"my-app/models/user": userRec,
	}}

	g := New()
	userHandle := model.SymbolHandle{Kind: model.KindModel, ImportPath: "my-app/models/user"}
	postHandle := model.SymbolHandle{Kind: model.KindModel, ImportPath: "my-app/models/post"}
	g.AddNode(userHandle, userRec)
	g.AddNode(postHandle, postRec)

	cfg := config.Config{}
	r := resolve.New(idx, cfg)
	g.LinkRelations(r)

	assert.Empty(t, g.Edges, "a type-only reference to a model must not become a trait edge")
	assert.Empty(t, g.Unresolved, "the reference resolved to a real node; it should be dropped silently, not reported unresolved")
}

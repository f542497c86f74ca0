package plan

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"schemaforge/internal/config"
	"schemaforge/internal/depgraph"
	"schemaforge/internal/model"
	"schemaforge/internal/resolve"
	"schemaforge/internal/sourceindex"
)

func buildGraph(t *testing.T) (*depgraph.Graph, config.Config) {
	t.Helper()
	root, err := filepath.Abs(filepath.Join("..", "sourceindex", "testdata"))
	require.NoError(t, err)
	cfg := config.Config{
		RootDir:               root,
		ModelSourceDir:        filepath.Join(root, "app", "models"),
		MixinSourceDir:        filepath.Join(root, "app", "mixins"),
		ModelImportSource:     "my-app/models",
		MixinImportSource:     "my-app/mixins",
		EmberDataImportSource: "ember-data/model",
		ResourcesDir:          t.TempDir(),
		TraitsDir:             t.TempDir(),
		ExtensionsDir:         t.TempDir(),
	}

	idx, _, err := sourceindex.Build(context.Background(), cfg)
	require.NoError(t, err)

	g := depgraph.BuildFromIndex(idx.All())
	r := resolve.New(idx, cfg)
	g.LinkRelations(r)
	return g, cfg
}

func TestPlan_SchedulesMixinBeforeModelsAndMaterializesResources(t *testing.T) {
	g, cfg := buildGraph(t)

	sched, warnings := Plan(g, cfg)
	assert.Empty(t, warnings)
	require.Len(t, sched.Plans, 3)

	byHandle := map[model.SymbolHandle]int{}
	for i, p := range sched.Plans {
		byHandle[p.Handle] = i
	}

	mixin := model.SymbolHandle{Kind: model.KindMixin, ImportPath: "my-app/mixins/auditable"}
	user := model.SymbolHandle{Kind: model.KindModel, ImportPath: "my-app/models/user"}
	post := model.SymbolHandle{Kind: model.KindModel, ImportPath: "my-app/models/post"}

	mixinIdx, ok := byHandle[mixin]
	require.True(t, ok)
	userIdx, ok := byHandle[user]
	require.True(t, ok)
	_, ok = byHandle[post]
	require.True(t, ok)

	assert.Less(t, mixinIdx, userIdx, "the mixin user depends on should schedule first")

	for _, p := range sched.Plans {
		switch p.Handle {
		case mixin:
			assert.Equal(t, model.MaterializeTrait, p.Materialize)
		case user, post:
			assert.Equal(t, model.MaterializeResource, p.Materialize)
		}
	}
}

func TestPlan_ModelsOnlyFilterDropsMixins(t *testing.T) {
	g, cfg := buildGraph(t)
	cfg.ModelsOnly = true

	sched, _ := Plan(g, cfg)
	for _, p := range sched.Plans {
		assert.NotEqual(t, model.KindMixin, p.Handle.Kind)
	}
}

// TestSchedule_BreaksCyclesAndEmitsWarning exercises the Kahn's-algorithm
// cycle-breaking path directly: a two-mixin cycle has no ready node on the
// first pass, so schedule must drop an edge, warn, and still terminate with
// every node scheduled exactly once.
func TestSchedule_BreaksCyclesAndEmitsWarning(t *testing.T) {
	g := depgraph.New()
	a := model.SymbolHandle{Kind: model.KindMixin, ImportPath: "my-app/mixins/a"}
	b := model.SymbolHandle{Kind: model.KindMixin, ImportPath: "my-app/mixins/b"}
	g.AddNode(a, &model.FileRecord{CanonicalImportPath: "my-app/mixins/a", Classification: model.ClassMixin, Summary: &model.Summary{}})
	g.AddNode(b, &model.FileRecord{CanonicalImportPath: "my-app/mixins/b", Classification: model.ClassMixin, Summary: &model.Summary{}})
	g.Edges = []depgraph.Edge{
		{From: a, To: b, Kind: depgraph.EdgeTraitTransitive},
		{From: b, To: a, Kind: depgraph.EdgeTraitTransitive},
	}

	included := map[model.SymbolHandle]bool{a: true, b: true}
	order, warnings := schedule(g, included)

	require.Len(t, order, 2)
	assert.ElementsMatch(t, []model.SymbolHandle{a, b}, order)
	require.Len(t, warnings, 1)
	assert.Equal(t, WarnCycle, warnings[0].Kind)
}

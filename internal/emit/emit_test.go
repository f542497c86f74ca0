package emit

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"schemaforge/internal/config"
	"schemaforge/internal/depgraph"
	"schemaforge/internal/model"
	"schemaforge/internal/plan"
	"schemaforge/internal/resolve"
	"schemaforge/internal/sourceindex"
)

func buildSchedule(t *testing.T) (*plan.Schedule, *Emitter) {
	t.Helper()
	root, err := filepath.Abs("testdata")
	require.NoError(t, err)

	cfg := config.Config{
		RootDir:               root,
		ModelSourceDir:        filepath.Join(root, "app", "models"),
		MixinSourceDir:        filepath.Join(root, "app", "mixins"),
		ModelImportSource:     "my-app/models",
		MixinImportSource:     "my-app/mixins",
		EmberDataImportSource: "ember-data/model",
		ResourcesImport:       "my-app/data/resources",
		TraitsImport:          "my-app/data/traits",
		ExtensionsImport:      "my-app/data/extensions",
		ResourcesDir:          filepath.Join(root, "out", "resources"),
		TraitsDir:             filepath.Join(root, "out", "traits"),
		ExtensionsDir:         filepath.Join(root, "out", "extensions"),
		IntermediateModelPaths: []string{
			"my-app/models/core/base-model",
		},
	}

	idx, warnings, err := sourceindex.Build(context.Background(), cfg)
	require.NoError(t, err)
	require.Empty(t, warnings)

	g := depgraph.BuildFromIndex(idx.All())
	r := resolve.New(idx, cfg)
	g.LinkRelations(r)

	sched, planWarnings := plan.Plan(g, cfg)
	require.Empty(t, planWarnings)

	return sched, New(cfg, r, g.KebabIndex())
}

func findPlan(t *testing.T, sched *plan.Schedule, importPath string) *model.ArtifactPlan {
	t.Helper()
	for _, p := range sched.Plans {
		if p.Handle.ImportPath == importPath {
			return p
		}
	}
	t.Fatalf("no plan scheduled for %s", importPath)
	return nil
}

func artifactByPath(artifacts []Artifact, suffix string) (Artifact, bool) {
	for _, a := range artifacts {
		if filepath.Base(a.Path) == suffix {
			return a, true
		}
	}
	return Artifact{}, false
}

// S1 — minimal model: three fields, a residual getter, an extension.
func TestEmit_MinimalModelProducesSchemaTypesAndExtension(t *testing.T) {
	sched, e := buildSchedule(t)
	p := findPlan(t, sched, "my-app/models/user")
	require.True(t, p.EmitExtension)

	artifacts := e.Emit(p)
	require.Len(t, artifacts, 3)

	schema, ok := artifactByPath(artifacts, "user.schema.ts")
	require.True(t, ok)
	schemaSrc := string(schema.Data)
	assert.Contains(t, schemaSrc, "export const UserSchema = {")
	assert.Contains(t, schemaSrc, "type: 'user'")
	assert.Contains(t, schemaSrc, "legacy: true")
	assert.Contains(t, schemaSrc, "identity: { kind: '@id', name: 'id' }")
	assert.Contains(t, schemaSrc, "{ name: 'name', kind: 'attribute', type: 'string' }")
	assert.Contains(t, schemaSrc, "{ name: 'email', kind: 'attribute', type: 'string' }")
	assert.Contains(t, schemaSrc, "kind: 'belongsTo', type: 'company', options: { async: false }")
	assert.Contains(t, schemaSrc, "objectExtensions: ['UserExtension']")

	types, ok := artifactByPath(artifacts, "user.schema.types.ts")
	require.True(t, ok)
	typesSrc := string(types.Data)
	assert.Contains(t, typesSrc, "export interface User extends UserExtensionSignature {")
	assert.Contains(t, typesSrc, "readonly name: string | null;")
	assert.Contains(t, typesSrc, "readonly email: string | null;")
	assert.Contains(t, typesSrc, "readonly [Type]: 'user';")

	extension, ok := artifactByPath(artifacts, "user.ts")
	require.True(t, ok)
	extSrc := string(extension.Data)
	assert.Contains(t, extSrc, "export interface UserExtension extends User {}")
	assert.Contains(t, extSrc, "export class UserExtension {")
	assert.Contains(t, extSrc, "get displayName()")
	assert.Contains(t, extSrc, "export type UserExtensionSignature = typeof UserExtension;")
	assert.NotContains(t, extSrc, "@attr", "field members must not be relocated into the extension")

	assert.Contains(t, extSrc, "  get displayName() {\n    return this.name;\n  }",
		"a relocated multi-line member's interior lines must be re-indented relative to the class body, not shifted by a flat prefix")
}

// S2 — a mixin unreachable from any model produces no artifacts at all.
func TestEmit_DisconnectedMixinIsNotScheduled(t *testing.T) {
	sched, _ := buildSchedule(t)
	for _, p := range sched.Plans {
		assert.NotEqual(t, "my-app/mixins/unused", p.Handle.ImportPath, "disconnected mixin must not be scheduled")
	}
}

// S3 — mixed surface language: schema extension matches the origin file,
// but the types artifact is always .ts.
func TestEmit_SchemaExtensionMatchesOriginSurface(t *testing.T) {
	sched, e := buildSchedule(t)

	jsPlan := findPlan(t, sched, "my-app/models/js-model")
	jsArtifacts := e.Emit(jsPlan)
	_, hasJsSchema := artifactByPath(jsArtifacts, "js-model.schema.js")
	assert.True(t, hasJsSchema)
	_, hasJsTypes := artifactByPath(jsArtifacts, "js-model.schema.types.ts")
	assert.True(t, hasJsTypes)

	tsPlan := findPlan(t, sched, "my-app/models/ts-model")
	tsArtifacts := e.Emit(tsPlan)
	_, hasTsSchema := artifactByPath(tsArtifacts, "ts-model.schema.ts")
	assert.True(t, hasTsSchema)
}

// S5 — intermediate model chain: base-model becomes a trait with a
// synthetic leading id field, custom becomes a resource listing it.
func TestEmit_IntermediateModelChainMaterializesAsTrait(t *testing.T) {
	sched, e := buildSchedule(t)

	basePlan := findPlan(t, sched, "my-app/models/core/base-model")
	assert.Equal(t, model.MaterializeTrait, basePlan.Materialize)
	require.NotEmpty(t, basePlan.Fields)
	assert.Equal(t, "id", basePlan.Fields[0].Name)
	assert.Equal(t, model.FieldAttribute, basePlan.Fields[0].Kind)
	assert.Equal(t, "string", basePlan.Fields[0].TypeName)

	baseArtifacts := e.Emit(basePlan)
	baseSchema, ok := artifactByPath(baseArtifacts, "base-model.schema.ts")
	require.True(t, ok)
	baseSrc := string(baseSchema.Data)
	assert.Contains(t, baseSrc, "name: 'base-model'")
	assert.Contains(t, baseSrc, "mode: 'legacy'")
	assert.NotContains(t, baseSrc, "identity:")

	customPlan := findPlan(t, sched, "my-app/models/custom")
	assert.Equal(t, model.MaterializeResource, customPlan.Materialize)
	customArtifacts := e.Emit(customPlan)
	customSchema, ok := artifactByPath(customArtifacts, "custom.schema.ts")
	require.True(t, ok)
	assert.Contains(t, string(customSchema.Data), "traits: ['base-model']")
}

// S6 — a polymorphic belongsTo target pulls in an otherwise-unreferenced
// mixin as a connected trait.
func TestEmit_PolymorphicRelationshipConnectsMixin(t *testing.T) {
	sched, e := buildSchedule(t)

	commentablePlan := findPlan(t, sched, "my-app/mixins/commentable")
	assert.Equal(t, model.MaterializeTrait, commentablePlan.Materialize)

	postPlan := findPlan(t, sched, "my-app/models/post")
	postArtifacts := e.Emit(postPlan)
	schema, ok := artifactByPath(postArtifacts, "post.schema.ts")
	require.True(t, ok)
	src := string(schema.Data)
	assert.Contains(t, src, "kind: 'belongsTo', type: 'commentable', options: { polymorphic: true }")

	commentableArtifacts := e.Emit(commentablePlan)
	commentableSchema, ok := artifactByPath(commentableArtifacts, "commentable.schema.ts")
	require.True(t, ok)
	assert.Contains(t, string(commentableSchema.Data), "mode: 'legacy'")
}

package classify

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"schemaforge/internal/model"
	"schemaforge/internal/parse"
)

func classify(t *testing.T, surface model.Surface, src string, rules Rules) Result {
	t.Helper()
	tree, err := parse.Tree(context.Background(), surface, []byte(src))
	require.NoError(t, err)
	return Classify(tree, []byte(src), "my-app/models/whatever", rules)
}

func TestClassify_MixinCreateWithMixins(t *testing.T) {
	src := `
import Mixin from '@ember/object/mixin';
import Base from 'my-app/mixins/base';
import { attr } from 'ember-data/model';

export default Mixin.createWithMixins(Base, {
  createdAt: attr('date'),
  helper() { return true; },
});
`
	res := classify(t, model.SurfaceTyped, src, Rules{EmberDataImportSource: "ember-data/model"})
	require.Equal(t, model.ClassMixin, res.Classification)
	require.NotNil(t, res.Summary)
	require.Len(t, res.Summary.Fields, 1)
	assert.Equal(t, "createdAt", res.Summary.Fields[0].Name)
	require.Len(t, res.Summary.Residuals, 1)
	assert.Equal(t, "helper", res.Summary.Residuals[0].Name)
	require.Len(t, res.Summary.TraitRefs, 1)
	assert.Equal(t, "Base", res.Summary.TraitRefs[0].Ref.Identifier)
	assert.Equal(t, "my-app/mixins/base", res.Summary.TraitRefs[0].Ref.ImportSpec)
}

func TestClassify_IntermediateModelPathOverridesGenericModelRule(t *testing.T) {
	src := `
import Model from 'ember-data/model';
import { attr } from 'ember-data/model';

export default class BaseModel extends Model {
  @attr('date') createdAt;
}
`
	rules := Rules{
		EmberDataImportSource:  "ember-data/model",
		IntermediateModelPaths: map[string]bool{"my-app/models/whatever": true},
	}
	res := classify(t, model.SurfaceTyped, src, rules)
	assert.Equal(t, model.ClassIntermediateModel, res.Classification)
}

func TestClassify_NonStringDecoratorArgumentBecomesResidualWithWarning(t *testing.T) {
	src := `
import Model from 'ember-data/model';
import { attr } from 'ember-data/model';

const TYPE = 'string';

export default class User extends Model {
  @attr(TYPE) name;
}
`
	res := classify(t, model.SurfaceTyped, src, Rules{EmberDataImportSource: "ember-data/model"})
	require.Equal(t, model.ClassModel, res.Classification)
	assert.Empty(t, res.Summary.Fields)
	require.Len(t, res.Summary.Residuals, 1)
	assert.Equal(t, "name", res.Summary.Residuals[0].Name)
	require.Len(t, res.Warnings, 1)
	assert.Equal(t, WarnNonStringFieldArg, res.Warnings[0].Kind)
}

func TestClassify_ResidualShadowingFieldNameWarns(t *testing.T) {
	src := `
import Model from 'ember-data/model';
import { attr } from 'ember-data/model';
import { computed } from '@ember/object';

export default class User extends Model {
  @attr('string') name;

  @computed('name')
  get name() {
    return this.name;
  }
}
`
	res := classify(t, model.SurfaceTyped, src, Rules{EmberDataImportSource: "ember-data/model"})
	require.Len(t, res.Summary.Fields, 1)
	require.Len(t, res.Summary.Residuals, 1)

	var found bool
	for _, w := range res.Warnings {
		if w.Kind == WarnNameShadow {
			found = true
		}
	}
	assert.True(t, found, "expected a name-shadow warning")
}

func TestClassify_IgnoresFilesWithoutRecognizedDefaultExport(t *testing.T) {
	src := `
export default function helper() {
  return 42;
}
`
	res := classify(t, model.SurfaceTyped, src, Rules{EmberDataImportSource: "ember-data/model"})
	assert.Equal(t, model.ClassIgnored, res.Classification)
}

package pipeline

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"schemaforge/internal/config"
)

func testConfig(t *testing.T, dryRun bool) config.Config {
	t.Helper()
	root, err := filepath.Abs(filepath.Join("..", "sourceindex", "testdata"))
	require.NoError(t, err)
	return config.Config{
		RootDir:               root,
		ModelSourceDir:        filepath.Join(root, "app", "models"),
		MixinSourceDir:        filepath.Join(root, "app", "mixins"),
		ModelImportSource:     "my-app/models",
		MixinImportSource:     "my-app/mixins",
		EmberDataImportSource: "ember-data/model",
		ResourcesImport:       "my-app/data/resources",
		TraitsImport:          "my-app/data/traits",
		ExtensionsImport:      "my-app/data/extensions",
		ResourcesDir:          filepath.Join(t.TempDir(), "resources"),
		TraitsDir:             filepath.Join(t.TempDir(), "traits"),
		ExtensionsDir:         filepath.Join(t.TempDir(), "extensions"),
		DryRun:                dryRun,
	}
}

func TestRun_WetRunWritesArtifacts(t *testing.T) {
	cfg := testConfig(t, false)
	result, err := Run(context.Background(), cfg)
	require.NoError(t, err)
	assert.NotEmpty(t, result.RunID)
	assert.NotEmpty(t, result.WrittenPath)

	for _, p := range result.WrittenPath {
		_, err := os.Stat(p)
		assert.NoError(t, err, "every reported written path should exist on disk")
	}
}

func TestRun_DryRunWritesNothing(t *testing.T) {
	cfg := testConfig(t, true)
	result, err := Run(context.Background(), cfg)
	require.NoError(t, err)
	assert.Empty(t, result.WrittenPath)

	entries, err := os.ReadDir(filepath.Dir(cfg.ResourcesDir))
	require.NoError(t, err)
	assert.Empty(t, entries, "dry run must not create the resources directory")
}

func TestScan_NeverTouchesFilesystem(t *testing.T) {
	cfg := testConfig(t, false)
	idx, sched, indexWarnings, planWarnings, err := Scan(context.Background(), cfg)
	require.NoError(t, err)
	assert.Empty(t, indexWarnings)
	assert.Empty(t, planWarnings)
	assert.NotEmpty(t, sched.Plans)
	assert.NotEmpty(t, idx.All())

	entries, err := os.ReadDir(filepath.Dir(cfg.ResourcesDir))
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestScan_WriteSnapshotProducesValidJSON(t *testing.T) {
	cfg := testConfig(t, false)
	idx, _, _, _, err := Scan(context.Background(), cfg)
	require.NoError(t, err)

	data, err := idx.WriteSnapshot()
	require.NoError(t, err)

	var entries []map[string]any
	require.NoError(t, json.Unmarshal(data, &entries))
	assert.NotEmpty(t, entries)
}

package fswrite

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlush_WritesStagedFilesAndCreatesDirsLazily(t *testing.T) {
	root := t.TempDir()
	w := New(false)

	schemaPath := filepath.Join(root, "resources", "user.schema.ts")
	w.Stage(schemaPath, []byte("export const UserSchema = {};\n"))
	require.Equal(t, 1, w.Pending())

	require.NoError(t, w.Flush(context.Background()))
	assert.Equal(t, 0, w.Pending())

	data, err := os.ReadFile(schemaPath)
	require.NoError(t, err)
	assert.Equal(t, "export const UserSchema = {};\n", string(data))
}

func TestFlush_DryRunWritesNothing(t *testing.T) {
	root := t.TempDir()
	w := New(true)

	target := filepath.Join(root, "traits", "auditable.schema.ts")
	w.Stage(target, []byte("export const AuditableSchema = {};\n"))

	require.NoError(t, w.Flush(context.Background()))
	assert.Equal(t, 0, w.Pending())

	_, err := os.Stat(filepath.Join(root, "traits"))
	assert.True(t, os.IsNotExist(err), "dry-run must never create directories")
}

func TestFlush_EmptyQueueCreatesNoDirectories(t *testing.T) {
	root := t.TempDir()
	w := New(false)
	require.NoError(t, w.Flush(context.Background()))

	entries, err := os.ReadDir(root)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestFlush_CancelledContextAbortsBeforeAnyWrite(t *testing.T) {
	root := t.TempDir()
	w := New(false)

	schemaPath := filepath.Join(root, "resources", "user.schema.ts")
	typesPath := filepath.Join(root, "resources", "user.schema.types.ts")
	w.Stage(schemaPath, []byte("export const UserSchema = {};\n"))
	w.Stage(typesPath, []byte("export interface User {}\n"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := w.Flush(ctx)
	require.Error(t, err)

	_, statErr := os.Stat(schemaPath)
	assert.True(t, os.IsNotExist(statErr), "a cancelled Flush must not write a partial plan's files")
	_, statErr = os.Stat(typesPath)
	assert.True(t, os.IsNotExist(statErr), "a cancelled Flush must not write a partial plan's files")
}

func TestFlush_RunsWholeQueueOnceStarted(t *testing.T) {
	root := t.TempDir()
	w := New(false)

	schemaPath := filepath.Join(root, "resources", "user.schema.ts")
	typesPath := filepath.Join(root, "resources", "user.schema.types.ts")
	extPath := filepath.Join(root, "extensions", "user.ts")
	w.Stage(schemaPath, []byte("export const UserSchema = {};\n"))
	w.Stage(typesPath, []byte("export interface User {}\n"))
	w.Stage(extPath, []byte("export class UserExtension {}\n"))

	require.NoError(t, w.Flush(context.Background()))

	for _, p := range []string{schemaPath, typesPath, extPath} {
		_, err := os.Stat(p)
		assert.NoError(t, err, "every staged file in a plan must land together")
	}
}

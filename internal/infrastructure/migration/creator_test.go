package migration

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"add family credits", "add_family_credits"},
		{"Add-Family-Credits", "add_family_credits"},
		{"ADD__FAMILY__CREDITS", "add_family_credits"},
		{"   spaces   ", "spaces"},
		{"audit!@#$index", "auditindex"},
		{"trailing_", "trailing"},
		{"_leading", "leading"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, sanitizeName(tt.input))
		})
	}
}

func TestCreateMigration(t *testing.T) {
	t.Run("numbers sequentially after existing files", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "000001_fee_ledger.up.sql"), nil, 0o644))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "000001_fee_ledger.down.sql"), nil, 0o644))

		mf, err := CreateMigration(dir, "Add receipt index", "Index payments by receipt path")
		require.NoError(t, err)
		assert.Equal(t, "000002", mf.Version)
		assert.Equal(t, filepath.Join(dir, "000002_add_receipt_index.up.sql"), mf.UpPath)
		assert.FileExists(t, mf.DownPath)

		content, err := os.ReadFile(mf.UpPath)
		require.NoError(t, err)
		assert.Contains(t, string(content), "-- Migration: Add receipt index")
		assert.Contains(t, string(content), "Index payments by receipt path")
	})

	t.Run("first migration in an empty directory", func(t *testing.T) {
		mf, err := CreateMigration(filepath.Join(t.TempDir(), "nested"), "init", "")
		require.NoError(t, err)
		assert.Equal(t, "000001", mf.Version)
	})

	t.Run("rejects a name with no usable characters", func(t *testing.T) {
		_, err := CreateMigration(t.TempDir(), "!!!", "")
		assert.Error(t, err)
	})
}

func TestListMigrations(t *testing.T) {
	t.Run("missing directory is empty", func(t *testing.T) {
		list, err := ListMigrations(filepath.Join(t.TempDir(), "absent"))
		require.NoError(t, err)
		assert.Empty(t, list)
	})

	t.Run("repository migrations pair up", func(t *testing.T) {
		_, file, _, ok := runtime.Caller(0)
		require.True(t, ok)
		dir := filepath.Join(filepath.Dir(file), "..", "..", "..", "migrations")

		list, err := ListMigrations(dir)
		require.NoError(t, err)
		require.NotEmpty(t, list)
		for _, base := range list {
			assert.FileExists(t, filepath.Join(dir, base+".down.sql"))
		}
		assert.Equal(t, "000001_fee_ledger", list[0])
	})
}

func TestSourceURL(t *testing.T) {
	assert.Equal(t, "file:///srv/migrations", sourceURL("/srv/migrations"))
	assert.Equal(t, "file://migrations", sourceURL("file://migrations"))
}

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadTaxonomy_Empty(t *testing.T) {
	tax, err := LoadTaxonomy("")
	require.NoError(t, err)
	assert.True(t, tax.Contains("Технологии", "Искусственный интеллект"))
}

func TestLoadTaxonomy_JSONOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "taxonomy.json")
	content := `{"Custom": ["Sub A", "Sub B"]}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	tax, err := LoadTaxonomy(path)
	require.NoError(t, err)
	assert.True(t, tax.Contains("Custom", "Sub A"))
	assert.False(t, tax.Contains("Политика", ""))
}

func TestLoadTaxonomy_EmptyFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "taxonomy.json")
	require.NoError(t, os.WriteFile(path, []byte(`{}`), 0o644))

	_, err := LoadTaxonomy(path)
	assert.Error(t, err)
}

package prompt

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTemplateFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
}

func TestStoreLoadText(t *testing.T) {
	dir := t.TempDir()
	writeTemplateFile(t, dir, "greeting.txt", "Hello ${name}, welcome back!")

	store := NewStore(dir)
	require.NoError(t, store.Load())

	tmpl := store.Get("greeting")
	require.NotNil(t, tmpl)
	assert.Equal(t, []string{"name"}, tmpl.RequiredVars())
}

func TestStoreLoadYAML(t *testing.T) {
	dir := t.TempDir()
	writeTemplateFile(t, dir, "difficulty.yaml", `name: reading_difficulty
description: Classifies passage difficulty
template: |
  Analyze the difficulty of this passage for ${grade_level} students:
  ${passage}
metadata:
  subject: reading
`)

	store := NewStore(dir)
	require.NoError(t, store.Load())

	tmpl := store.Get("reading_difficulty")
	require.NotNil(t, tmpl)
	assert.Equal(t, "Classifies passage difficulty", tmpl.Description)
	assert.Equal(t, "reading", tmpl.Metadata["subject"])
	assert.Equal(t, []string{"grade_level", "passage"}, tmpl.RequiredVars())
}

func TestStoreLoadYAMLNameDefaultsToFilename(t *testing.T) {
	dir := t.TempDir()
	writeTemplateFile(t, dir, "intent.yml", "template: Classify ${input}\n")

	store := NewStore(dir)
	require.NoError(t, store.Load())
	require.NotNil(t, store.Get("intent"))
}

func TestStoreSkipsInvalidFiles(t *testing.T) {
	dir := t.TempDir()
	writeTemplateFile(t, dir, "broken.yaml", "{{not yaml")
	writeTemplateFile(t, dir, "empty.yaml", "description: no template field\n")
	writeTemplateFile(t, dir, "notes.md", "ignored extension")
	writeTemplateFile(t, dir, "good.txt", "Fine: ${x}")

	store := NewStore(dir)
	require.NoError(t, store.Load())
	assert.Equal(t, []string{"good"}, store.Names())
}

func TestStoreMissingDirectory(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "does-not-exist"))
	require.NoError(t, store.Load())
	assert.Empty(t, store.Names())
}

func TestStoreRender(t *testing.T) {
	dir := t.TempDir()
	writeTemplateFile(t, dir, "check.txt", "Did that help, ${name}?")

	store := NewStore(dir)
	require.NoError(t, store.Load())

	got, err := store.Render("check", map[string]string{"name": "Ava"})
	require.NoError(t, err)
	assert.Equal(t, "Did that help, Ava?", got)

	_, err = store.Render("missing", nil)
	require.Error(t, err)
}

func TestStoreGetOrDefault(t *testing.T) {
	store := NewStore(t.TempDir())
	require.NoError(t, store.Load())

	def := New("fallback", "default text")
	assert.Same(t, def, store.GetOrDefault("fallback", def))
}

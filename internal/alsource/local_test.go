package alsource_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/dshills/al-chunker/internal/alsource"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestLocalAdapter_Files_SingleFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "Customer.al")
	writeFile(t, path, "table 50100 Customer { }")

	a := alsource.NewLocalAdapter(path)
	files, err := a.Files(context.Background())
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "Customer.al", files[0].Path)
	assert.Equal(t, "table 50100 Customer { }", files[0].Content)
}

func TestLocalAdapter_Files_DirectoryWalksRecursivelyAndSorts(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "b.al"), "b")
	writeFile(t, filepath.Join(dir, "a.al"), "a")
	writeFile(t, filepath.Join(dir, "sub", "c.al"), "c")
	writeFile(t, filepath.Join(dir, "notes.txt"), "ignore me")

	a := alsource.NewLocalAdapter(dir)
	files, err := a.Files(context.Background())
	require.NoError(t, err)

	var paths []string
	for _, f := range files {
		paths = append(paths, f.Path)
	}
	assert.Equal(t, []string{"a.al", "b.al", filepath.Join("sub", "c.al")}, paths)
}

func TestLocalAdapter_Files_IgnorePatternsExcludeMatches(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "keep.al"), "keep")
	writeFile(t, filepath.Join(dir, "vendor", "skip.al"), "skip")

	a := &alsource.LocalAdapter{Paths: []string{dir}, IgnorePatterns: []string{"vendor/**"}}
	files, err := a.Files(context.Background())
	require.NoError(t, err)

	require.Len(t, files, 1)
	assert.Equal(t, "keep.al", files[0].Path)
}

func TestLocalAdapter_Files_CaseInsensitiveExtension(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "Shout.AL"), "shout")

	a := alsource.NewLocalAdapter(dir)
	files, err := a.Files(context.Background())
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "Shout.AL", files[0].Path)
}

func TestLocalAdapter_Files_MissingPathErrors(t *testing.T) {
	a := alsource.NewLocalAdapter(filepath.Join(t.TempDir(), "does-not-exist"))
	_, err := a.Files(context.Background())
	assert.Error(t, err)
}

func TestLocalAdapter_Files_CancelledContext(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.al"), "a")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	a := alsource.NewLocalAdapter(dir)
	_, err := a.Files(ctx)
	assert.Error(t, err)
}

package commands

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectFiles_Directory(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.txt", "a.txt", "notes.md", "c.TXT"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0o755))

	files, err := collectFiles(dir)
	require.NoError(t, err)

	assert.Equal(t, []string{
		filepath.Join(dir, "a.txt"),
		filepath.Join(dir, "b.txt"),
		filepath.Join(dir, "c.TXT"),
	}, files)
}

func TestCollectFiles_SingleFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "contract.txt")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	files, err := collectFiles(path)
	require.NoError(t, err)
	assert.Equal(t, []string{path}, files)
}

func TestCollectFiles_NoMatches(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.md"), []byte("x"), 0o644))

	_, err := collectFiles(dir)
	assert.Error(t, err)
}

func TestCollectFiles_MissingPath(t *testing.T) {
	_, err := collectFiles(filepath.Join(t.TempDir(), "absent"))
	assert.Error(t, err)
}

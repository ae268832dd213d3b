package source

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbedded_List(t *testing.T) {
	src := NewEmbedded()
	names := src.List()

	assert.Contains(t, names, "git")
	assert.Contains(t, names, "docker")
	assert.Contains(t, names, "kubectl")
	assert.Contains(t, names, "go")
	assert.IsIncreasing(t, names)
}

func TestEmbedded_LoadBlob(t *testing.T) {
	src := NewEmbedded()

	blob, err := src.LoadBlob("git")
	require.NoError(t, err)
	assert.NotEmpty(t, blob)

	// Lookups are case-insensitive.
	upper, err := src.LoadBlob("GIT")
	require.NoError(t, err)
	assert.Equal(t, blob, upper)
}

func TestEmbedded_NotFound(t *testing.T) {
	src := NewEmbedded()
	_, err := src.LoadBlob("no-such-command")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDir_LoadBlob(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "mytool.json"), []byte(`{"name":"mytool"}`), 0644))

	src := NewDir(dir)

	blob, err := src.LoadBlob("mytool")
	require.NoError(t, err)
	assert.Equal(t, `{"name":"mytool"}`, string(blob))

	assert.Equal(t, []string{"mytool"}, src.List())
}

func TestDir_RejectsPathEscape(t *testing.T) {
	dir := t.TempDir()
	src := NewDir(dir)

	for _, name := range []string{"../etc/passwd", "a/b", "", "..", `a\b`} {
		_, err := src.LoadBlob(name)
		assert.ErrorIs(t, err, ErrNotFound, "name %q", name)
	}
}

func TestDir_MissingDirectory(t *testing.T) {
	src := NewDir("/nonexistent/compd-specs")
	_, err := src.LoadBlob("git")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Empty(t, src.List())
}

func TestLayered_Precedence(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "git.json"), []byte(`{"name":"git","custom":true}`), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "mytool.json"), []byte(`{"name":"mytool"}`), 0644))

	src := NewLayered(NewDir(dir), NewEmbedded())

	// The user directory shadows the embedded git spec.
	blob, err := src.LoadBlob("git")
	require.NoError(t, err)
	assert.Contains(t, string(blob), "custom")

	// Embedded-only specs remain reachable.
	_, err = src.LoadBlob("docker")
	require.NoError(t, err)

	names := src.List()
	assert.Contains(t, names, "mytool")
	assert.Contains(t, names, "git")
	assert.IsIncreasing(t, names)
}

package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type doc struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestFileStoreRoundTrip(t *testing.T) {
	fs, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	in := doc{Name: "main", Count: 3}
	require.NoError(t, fs.Save("portfolios/main", in))

	var out doc
	require.NoError(t, fs.Load("portfolios/main", &out))
	assert.Equal(t, in, out)
}

func TestFileStoreLoadMissing(t *testing.T) {
	fs, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	var out doc
	err = fs.Load("portfolios/missing", &out)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFileStoreDelete(t *testing.T) {
	fs, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, fs.Save("k", doc{}))
	require.NoError(t, fs.Delete("k"))
	assert.ErrorIs(t, fs.Load("k", &doc{}), ErrNotFound)

	// Deleting a missing key is fine.
	assert.NoError(t, fs.Delete("k"))
}

func TestFileStoreRejectsEscapingKeys(t *testing.T) {
	root := t.TempDir()
	fs, err := NewFileStore(root)
	require.NoError(t, err)

	for _, key := range []string{"../outside", "a/../../outside", "/absolute", "."} {
		assert.Error(t, fs.Save(key, doc{}), "key %q", key)
	}
	entries, err := os.ReadDir(filepath.Dir(root))
	require.NoError(t, err)
	for _, e := range entries {
		assert.NotEqual(t, "outside.json", e.Name())
	}
}

func TestFileStoreOverwrite(t *testing.T) {
	fs, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, fs.Save("k", doc{Count: 1}))
	require.NoError(t, fs.Save("k", doc{Count: 2}))

	var out doc
	require.NoError(t, fs.Load("k", &out))
	assert.Equal(t, 2, out.Count)
}

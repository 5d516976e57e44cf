package store

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingKV tracks how often each operation reaches the backing store.
type countingKV struct {
	KV
	loads int
	saves int
}

func (c *countingKV) Load(key string, v any) error {
	c.loads++
	return c.KV.Load(key, v)
}

func (c *countingKV) Save(key string, v any) error {
	c.saves++
	return c.KV.Save(key, v)
}

type failingKV struct{ KV }

func (failingKV) Save(string, any) error { return errors.New("disk full") }

func newCached(t *testing.T) (*CachedKV, *countingKV) {
	t.Helper()
	fs, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	counting := &countingKV{KV: fs}
	cached, err := NewCachedKV(counting, time.Minute)
	require.NoError(t, err)
	return cached, counting
}

func TestCachedKVReadThrough(t *testing.T) {
	cached, counting := newCached(t)
	require.NoError(t, cached.Save("k", doc{Count: 1}))

	var out doc
	require.NoError(t, cached.Load("k", &out))
	require.NoError(t, cached.Load("k", &out))
	assert.Equal(t, 1, out.Count)
	assert.Zero(t, counting.loads, "save should have primed the cache")
}

func TestCachedKVObservesOwnWrites(t *testing.T) {
	cached, _ := newCached(t)
	require.NoError(t, cached.Save("k", doc{Count: 1}))
	require.NoError(t, cached.Save("k", doc{Count: 2}))

	var out doc
	require.NoError(t, cached.Load("k", &out))
	assert.Equal(t, 2, out.Count)
}

func TestCachedKVMissGoesToDisk(t *testing.T) {
	fs, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, fs.Save("k", doc{Count: 7}))

	cached, err := NewCachedKV(fs, time.Minute)
	require.NoError(t, err)

	var out doc
	require.NoError(t, cached.Load("k", &out))
	assert.Equal(t, 7, out.Count)
}

func TestCachedKVSaveFailureDropsCacheEntry(t *testing.T) {
	fs, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, fs.Save("k", doc{Count: 1}))

	cached, err := NewCachedKV(failingKV{KV: fs}, time.Minute)
	require.NoError(t, err)

	var out doc
	require.NoError(t, cached.Load("k", &out)) // primes the cache
	assert.Error(t, cached.Save("k", doc{Count: 2}))

	// The stale cached value must not mask the failed write.
	require.NoError(t, cached.Load("k", &out))
	assert.Equal(t, 1, out.Count)
}

func TestCachedKVDelete(t *testing.T) {
	cached, _ := newCached(t)
	require.NoError(t, cached.Save("k", doc{Count: 1}))
	require.NoError(t, cached.Delete("k"))

	var out doc
	assert.ErrorIs(t, cached.Load("k", &out), ErrNotFound)
}

func TestCachedKVInvalidatePrefix(t *testing.T) {
	cached, counting := newCached(t)
	require.NoError(t, cached.Save("transactions/a", doc{Count: 1}))
	require.NoError(t, cached.Save("portfolios/p", doc{Count: 2}))

	cached.InvalidatePrefix("transactions/")

	var out doc
	require.NoError(t, cached.Load("transactions/a", &out))
	assert.Equal(t, 1, counting.loads, "invalidated entry should reload from disk")
	require.NoError(t, cached.Load("portfolios/p", &out))
	assert.Equal(t, 1, counting.loads, "untouched entry should still serve from cache")
}

package bbolt

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/HORNET-Storage/Scionic-Merkle-Tree/v2/dag"
)

func TestStoreAndRetrieveLeafDetachesContent(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")
	store, err := Open(dbPath)
	require.NoError(t, err)
	defer store.Close()

	srcDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(srcDir, "a.txt"), []byte("hello world"), 0o644))

	d, err := dag.CreateDag(srcDir)
	require.NoError(t, err)

	storeAll(t, store, d)

	for hash, leaf := range d.Leafs {
		got, err := store.RetrieveLeaf(d.Root, hash)
		require.NoError(t, err)
		require.Equal(t, leaf.Hash, got.Hash)
		require.Equal(t, leaf.Content, got.Content)
	}
}

func storeAll(t *testing.T, store *Store, d *dag.Dag) {
	t.Helper()
	for _, leaf := range d.Leafs {
		require.NoError(t, store.StoreLeaf(d.Root, leaf))
	}
}

func TestCacheLabelsRoundTrip(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")
	store, err := Open(dbPath)
	require.NoError(t, err)
	defer store.Close()

	labels := map[string]string{"abc": "1", "def": "2"}
	require.NoError(t, store.CacheLabels("root", labels))

	label, ok := store.GetCachedLabel("root", "abc")
	require.True(t, ok)
	require.Equal(t, "1", label)

	_, ok = store.GetCachedLabel("root", "missing")
	require.False(t, ok)
}

package stores

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/HORNET-Storage/Scionic-Merkle-Tree/v2/dag"
	bboltstore "github.com/HORNET-Storage/Scionic-Merkle-Tree/v2/lib/stores/bbolt"
)

func TestStoreDagAndBuildDagFromStore(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")
	store, err := bboltstore.Open(dbPath)
	require.NoError(t, err)
	defer store.Close()

	srcDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(srcDir, "a.txt"), []byte("aaa"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(srcDir, "b.txt"), []byte("bbb"), 0o644))

	d, err := dag.CreateDag(srcDir)
	require.NoError(t, err)

	require.NoError(t, StoreDag(store, d))

	rebuilt, err := BuildDagFromStore(store, d.Root)
	require.NoError(t, err)
	require.Equal(t, d.Root, rebuilt.Root)
	require.Len(t, rebuilt.Leafs, len(d.Leafs))
	require.NoError(t, dag.VerifyFull(rebuilt))
}

func TestBuildPartialDagFromStore(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")
	store, err := bboltstore.Open(dbPath)
	require.NoError(t, err)
	defer store.Close()

	srcDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(srcDir, "a.txt"), []byte("aaaaaaaaaa"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(srcDir, "b.txt"), []byte("bbbbbbbbbb"), 0o644))

	chunkSize := 4
	d, err := dag.CreateDagWithConfig(srcDir, &dag.BuilderConfig{ChunkSize: &chunkSize})
	require.NoError(t, err)
	require.NoError(t, StoreDag(store, d))

	var target string
	for hash, leaf := range d.Leafs {
		if leaf.Type == dag.ChunkLeafType {
			target = hash
			break
		}
	}

	partial, err := BuildPartialDagFromStore(store, d.Root, []string{target})
	require.NoError(t, err)
	require.NoError(t, dag.VerifyPartial(partial))
	require.Less(t, len(partial.Leafs), len(d.Leafs))
}

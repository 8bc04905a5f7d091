package dag

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDiffAndApplyDiff(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("aaa"), 0o644))

	first, err := CreateDag(dir)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.txt"), []byte("bbb"), 0o644))
	second, err := CreateDag(dir)
	require.NoError(t, err)

	d, err := Diff(first, second)
	require.NoError(t, err)
	require.Greater(t, d.Summary.Added, 0)
	require.Equal(t, d.Summary.Added, len(d.GetAddedLeaves()))

	reconstructed, err := ApplyDiff(first, d)
	require.NoError(t, err)
	require.Equal(t, second.Root, reconstructed.Root)
	require.NoError(t, VerifyFull(reconstructed))
}

func TestCreatePartialDagCoversAncestorsOnly(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("aaaaaaaaaa"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sub", "c.txt"), bytes.Repeat([]byte("c"), 40), 0o644))

	chunkSize := 16
	d, err := CreateDagWithConfig(dir, &BuilderConfig{ChunkSize: &chunkSize})
	require.NoError(t, err)

	var chunkHash string
	for hash, leaf := range d.Leafs {
		if leaf.Type == ChunkLeafType {
			chunkHash = hash
			break
		}
	}
	require.NotEmpty(t, chunkHash)

	partial, err := CreatePartialDag(d, []string{chunkHash})
	require.NoError(t, err)
	require.NoError(t, VerifyPartial(partial))
	require.Less(t, len(partial.Leafs), len(d.Leafs))
}

func TestCreatePartialDagRejectsEmptyTargets(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("aaa"), 0o644))
	d, err := CreateDag(dir)
	require.NoError(t, err)

	_, err = CreatePartialDag(d, nil)
	require.Error(t, err)
}

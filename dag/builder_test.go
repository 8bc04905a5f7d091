package dag

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCreateDagSingleSmallFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "hello.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello world"), 0o644))

	d, err := CreateDag(path)
	require.NoError(t, err)
	require.NoError(t, Verify(d))

	root := d.Leafs[d.Root]
	require.Equal(t, FileLeafType, root.Type)
	require.Equal(t, 0, root.CurrentLinkCount, "a file under chunk_size stays a single leaf with direct content")
	require.Empty(t, root.Links)
	require.Equal(t, []byte("hello world"), root.Content)
	require.Equal(t, 1, root.LeafCount)
	require.Len(t, d.Leafs, 1)
}

func TestCreateDagMultiChunkFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "big.bin")

	data := make([]byte, DefaultChunkSize*2+17)
	for i := range data {
		data[i] = byte(i % 251)
	}
	require.NoError(t, os.WriteFile(path, data, 0o644))

	d, err := CreateDag(path)
	require.NoError(t, err)
	require.NoError(t, Verify(d))

	root := d.Leafs[d.Root]
	require.Equal(t, 3, root.CurrentLinkCount)
}

func TestCreateDagDirectory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("aaa"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.txt"), []byte("bbb"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sub", "c.txt"), []byte("ccc"), 0o644))

	d, err := CreateDag(dir)
	require.NoError(t, err)
	require.NoError(t, Verify(d))

	root := d.Leafs[d.Root]
	require.Equal(t, DirectoryLeafType, root.Type)
	require.Equal(t, 3, root.CurrentLinkCount)
}

func TestCreateDagDeterministic(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("aaa"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.txt"), []byte("bbb"), 0o644))

	d1, err := CreateDag(dir)
	require.NoError(t, err)
	d2, err := CreateDag(dir)
	require.NoError(t, err)

	require.Equal(t, d1.Root, d2.Root)
}

package dag

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMaterializeRoundTrip(t *testing.T) {
	src := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(src, "a.txt"), []byte("hello"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(src, "sub"), 0o755))

	big := make([]byte, DefaultChunkSize+100)
	for i := range big {
		big[i] = byte(i % 200)
	}
	require.NoError(t, os.WriteFile(filepath.Join(src, "sub", "big.bin"), big, 0o644))

	d, err := CreateDag(src)
	require.NoError(t, err)
	require.NoError(t, Verify(d))

	dest := filepath.Join(t.TempDir(), "out")
	require.NoError(t, Materialize(d, dest))

	gotA, err := os.ReadFile(filepath.Join(dest, "a.txt"))
	require.NoError(t, err)
	require.Equal(t, "hello", string(gotA))

	gotBig, err := os.ReadFile(filepath.Join(dest, "sub", "big.bin"))
	require.NoError(t, err)
	require.Equal(t, big, gotBig)
}

func TestMaterializeRejectsPartialDag(t *testing.T) {
	src := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(src, "a.txt"), bytes.Repeat([]byte("a"), 40), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(src, "b.txt"), []byte("world"), 0o644))

	chunkSize := 16
	d, err := CreateDagWithConfig(src, &BuilderConfig{ChunkSize: &chunkSize})
	require.NoError(t, err)

	var target string
	for hash, leaf := range d.Leafs {
		if leaf.Type == ChunkLeafType {
			target = hash
			break
		}
	}
	partial, err := CreatePartialDag(d, []string{target})
	require.NoError(t, err)

	err = Materialize(partial, filepath.Join(t.TempDir(), "out"))
	require.Error(t, err)
}

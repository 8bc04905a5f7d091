package dag

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDagCBORRoundTrip(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("aaa"), 0o644))

	d, err := CreateDag(dir)
	require.NoError(t, err)

	enc, err := d.ToCBOR()
	require.NoError(t, err)

	decoded, err := DagFromCBOR(enc)
	require.NoError(t, err)
	require.Equal(t, d.Root, decoded.Root)
	require.NoError(t, VerifyFull(decoded))
}

func TestSaveAndLoadDagFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("aaa"), 0o644))

	d, err := CreateDag(dir)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "dag.cbor")
	require.NoError(t, d.SaveToFile(path))

	loaded, err := LoadDagFromFile(path)
	require.NoError(t, err)
	require.Equal(t, d.Root, loaded.Root)
}

func TestGetLeafSequenceAndApplyAndVerify(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("aaaaaaaaaa"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.txt"), []byte("bbbbbbbbbb"), 0o644))

	d, err := CreateDag(dir)
	require.NoError(t, err)

	seq, err := d.GetLeafSequence()
	require.NoError(t, err)
	require.Len(t, seq, len(d.Leafs))
	require.Equal(t, d.Root, seq[0].Leaf.Hash)
	require.Empty(t, seq[0].ParentHash)

	rebuilt := &Dag{Leafs: make(map[string]*DagLeaf)}
	for _, packet := range seq {
		require.NoError(t, rebuilt.ApplyAndVerifyTransmissionPacket(packet))
	}

	require.Equal(t, d.Root, rebuilt.Root)
	require.NoError(t, VerifyFull(rebuilt))
}

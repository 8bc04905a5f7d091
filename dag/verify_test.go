package dag

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func buildTestDir(t *testing.T) *Dag {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("aaaaaaaaaa"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.txt"), []byte("bbbbbbbbbb"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sub", "c.txt"), []byte("cccccccccc"), 0o644))

	d, err := CreateDag(dir)
	require.NoError(t, err)
	return d
}

func TestVerifyFullDetectsTamperedContent(t *testing.T) {
	d := buildTestDir(t)
	require.NoError(t, VerifyFull(d))

	for _, leaf := range d.Leafs {
		if leaf.Type == FileLeafType {
			leaf.Content = append([]byte(nil), leaf.Content...)
			leaf.Content[0] ^= 0xFF
			break
		}
	}

	err := VerifyFull(d)
	require.Error(t, err)
}

func TestVerifyPartialRequiresProofForMultiLinkParent(t *testing.T) {
	d := buildTestDir(t)

	var aTarget string
	root := d.Leafs[d.Root]
	for _, link := range root.Links {
		aTarget = link.Hash
		break
	}

	partial, err := CreatePartialDag(d, []string{aTarget})
	require.NoError(t, err)
	require.True(t, IsPartial(partial))
	require.NoError(t, VerifyPartial(partial))

	// Strip the proof the root needs for its >=2 links and confirm
	// verification now fails.
	rootCopy := partial.Leafs[partial.Root]
	if rootCopy.CurrentLinkCount >= 2 {
		rootCopy.Proofs = nil
		require.Error(t, VerifyPartial(partial))
	}
}

func TestVerifyDispatchesByPartiality(t *testing.T) {
	d := buildTestDir(t)
	require.False(t, IsPartial(d))
	require.NoError(t, Verify(d))
}

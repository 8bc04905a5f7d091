package dag

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuildMerkleTreeOddDuplication(t *testing.T) {
	leaves := [][]byte{
		sha256Sum([]byte("a")),
		sha256Sum([]byte("b")),
		sha256Sum([]byte("c")),
	}
	keys := []string{"a", "b", "c"}

	tree := buildMerkleTree(keys, leaves)

	expectedLevel1 := hashPair(leaves[0], leaves[1])
	expectedLevel1b := hashPair(leaves[2], leaves[2])
	expectedRoot := hashPair(expectedLevel1, expectedLevel1b)

	require.Equal(t, expectedRoot, tree.root())
}

func TestMerkleProofRoundTrip(t *testing.T) {
	leaves := [][]byte{
		sha256Sum([]byte("a")),
		sha256Sum([]byte("b")),
		sha256Sum([]byte("c")),
		sha256Sum([]byte("d")),
		sha256Sum([]byte("e")),
	}
	keys := []string{"a", "b", "c", "d", "e"}

	tree := buildMerkleTree(keys, leaves)
	root := tree.root()

	for i, key := range keys {
		proof, ok := tree.proof(key)
		require.True(t, ok)
		require.True(t, verifyMerkleProof(leaves[i], proof, root), "proof for %s should verify", key)
	}
}

func TestMerkleProofRejectsTamperedRoot(t *testing.T) {
	leaves := [][]byte{sha256Sum([]byte("a")), sha256Sum([]byte("b"))}
	keys := []string{"a", "b"}

	tree := buildMerkleTree(keys, leaves)
	proof, ok := tree.proof("a")
	require.True(t, ok)

	tamperedRoot := sha256Sum([]byte("nope"))
	require.False(t, verifyMerkleProof(leaves[0], proof, tamperedRoot))
}

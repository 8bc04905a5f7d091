package dag

import "crypto/sha256"

// merkleTree is a classic binary Merkle tree over an ordered list of leaf
// hashes, built with the odd-node-duplication variant: at every level, if
// the level has more than one node and an odd count, the last node is
// duplicated before pairing and hashing.
type merkleTree struct {
	levels  [][][]byte
	leaves  [][]byte
	keyToIx map[string]int
}

func hashPair(left, right []byte) []byte {
	h := sha256.New()
	h.Write(left)
	h.Write(right)
	return h.Sum(nil)
}

func sha256Sum(b []byte) []byte {
	sum := sha256.Sum256(b)
	return sum[:]
}

// buildMerkleTree constructs a merkleTree from ordered leaf hashes
// and the keys (link labels) identifying them, for later proof lookup.
func buildMerkleTree(keys []string, leafHashes [][]byte) *merkleTree {
	t := &merkleTree{
		leaves:  leafHashes,
		keyToIx: make(map[string]int, len(keys)),
	}
	for i, k := range keys {
		t.keyToIx[k] = i
	}

	level := make([][]byte, len(leafHashes))
	copy(level, leafHashes)
	t.levels = append(t.levels, level)

	for len(level) > 1 {
		if len(level)%2 == 1 {
			level = append(level, level[len(level)-1])
		}
		next := make([][]byte, 0, len(level)/2)
		for i := 0; i < len(level); i += 2 {
			next = append(next, hashPair(level[i], level[i+1]))
		}
		t.levels = append(t.levels, next)
		level = next
	}

	return t
}

// root returns the Merkle root. For a single leaf the root is the leaf
// hash itself; merkleRootFor (used by leaf.go) special-cases link counts
// below 2 before ever reaching here.
func (t *merkleTree) root() []byte {
	last := t.levels[len(t.levels)-1]
	if len(last) == 0 {
		return nil
	}
	return last[0]
}

// proof builds an inclusion proof for the leaf identified by key.
func (t *merkleTree) proof(key string) (*MerkleProof, bool) {
	idx, ok := t.keyToIx[key]
	if !ok {
		return nil, false
	}

	var siblings [][]byte
	var path uint32

	for level := 0; level < len(t.levels)-1; level++ {
		nodes := t.levels[level]
		isRight := idx%2 == 1
		var siblingIdx int
		if isRight {
			siblingIdx = idx - 1
		} else {
			siblingIdx = idx + 1
			if siblingIdx == len(nodes) {
				// odd duplication: sibling is the duplicated last node
				siblingIdx = idx
			}
		}

		siblings = append(siblings, nodes[siblingIdx])
		if !isRight {
			path |= 1 << uint(level)
		}

		idx /= 2
	}

	return &MerkleProof{Siblings: siblings, Path: path}, true
}

// verifyMerkleProof recomputes the root from leafHash and proof, reporting
// whether it matches root.
func verifyMerkleProof(leafHash []byte, proof *MerkleProof, root []byte) bool {
	current := leafHash
	for i, sibling := range proof.Siblings {
		if proof.Path&(1<<uint(i)) != 0 {
			// our sibling is to the right
			current = hashPair(current, sibling)
		} else {
			current = hashPair(sibling, current)
		}
	}
	return bytesEqual(current, root)
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

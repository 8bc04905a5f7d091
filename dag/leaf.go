package dag

import (
	"crypto/sha256"
	"fmt"
	"sort"

	"github.com/fxamacker/cbor/v2"
)

// leafHashImage is the canonical, field-order-fixed encoding of a
// non-root leaf's semantic content. It is never persisted on its own; it
// exists only to be CBOR-encoded and hashed into the leaf's identifier.
type leafHashImage struct {
	_                struct{} `cbor:",toarray"`
	ItemName         string
	Type             LeafType
	MerkleRoot       []byte
	CurrentLinkCount uint64
	ContentHash      *[]byte
	AdditionalData   []AdditionalDataItem
}

// rootHashImage is the root-leaf counterpart of leafHashImage, carrying
// the extra whole-DAG accounting fields. ContentSize/DagSize are signed
// 64-bit: the wire format fixes their width, and encoding them as
// unsigned would change the CBOR bytes (and therefore the hash) relative
// to any other compliant implementation.
type rootHashImage struct {
	_                struct{} `cbor:",toarray"`
	ItemName         string
	Type             LeafType
	MerkleRoot       []byte
	CurrentLinkCount uint64
	LeafCount        uint64
	ContentSize      int64
	DagSize          int64
	ContentHash      *[]byte
	AdditionalData   []AdditionalDataItem
}

// storedProofImage is the wire form of a ClassicTreeBranch inside a
// leaf's persisted stored_proofs map.
type storedProofImage struct {
	_     struct{} `cbor:",toarray"`
	Leaf  string
	Proof *MerkleProof
}

// persistImage is the always-every-field-present encoding used both to
// measure a leaf's contribution to DagSize and to persist leaves on disk
// or over the wire. Unlike the hash images, every field is present even
// when zero/empty so that sizes are comparable across leaves.
type persistImage struct {
	_                 struct{} `cbor:",toarray"`
	Hash              string
	ItemName          string
	Type              LeafType
	ContentHash       []byte
	Content           []byte
	ClassicMerkleRoot []byte
	CurrentLinkCount  uint64
	LeafCount         uint64
	ContentSize       int64
	DagSize           int64
	Links             [][2]string
	ParentHash        string
	AdditionalData    []AdditionalDataItem
	StoredProofs      map[string]*storedProofImage
}

func sortedAdditionalData(items []AdditionalDataItem) []AdditionalDataItem {
	out := make([]AdditionalDataItem, len(items))
	copy(out, items)
	sort.Slice(out, func(i, j int) bool { return out[i][0] < out[j][0] })
	if out == nil {
		out = []AdditionalDataItem{}
	}
	return out
}

// linkPairs converts links to its persisted [][2]string form, preserving
// the slice's own order: callers are responsible for that order already
// being correct (sorted by hash for Directory, sequence order for File).
func linkPairs(links []DagLink) [][2]string {
	out := make([][2]string, len(links))
	for i, l := range links {
		out[i] = [2]string{l.Label, l.Hash}
	}
	return out
}

// storedProofImages converts a leaf's Proofs (keyed by link label) into
// the persisted form, keyed by child hash per the wire format.
func storedProofImages(leaf *DagLeaf) map[string]*storedProofImage {
	if len(leaf.Proofs) == 0 {
		return nil
	}
	out := make(map[string]*storedProofImage, len(leaf.Proofs))
	for label, branch := range leaf.Proofs {
		childHash, ok := leaf.linkHash(label)
		if !ok {
			continue
		}
		out[childHash] = &storedProofImage{Leaf: branch.Leaf, Proof: branch.Proof}
	}
	return out
}

// merkleRootFor computes ClassicMerkleRoot for a leaf's links, per the
// three-way rule: no links -> empty root, one link -> sha256 of the link
// hash alone, two or more -> a classic Merkle tree with odd-node
// duplication. The Merkle tree's input is always the links sorted
// byte-lexicographically by identifier (hash) string, regardless of
// whether links itself is a Directory's sorted order or a File's chunk
// sequence order. It also returns the tree (nil for 0/1 links) so
// callers can later generate inclusion proofs keyed by link label.
func merkleRootFor(links []DagLink) ([]byte, *merkleTree, error) {
	if len(links) == 0 {
		return []byte{}, nil, nil
	}

	sorted := make([]DagLink, len(links))
	copy(sorted, links)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Hash < sorted[j].Hash })

	if len(sorted) == 1 {
		digest, err := parseCID(sorted[0].Hash)
		if err != nil {
			return nil, nil, wrapErr(ErrKindInvalidCid, "decode single link hash", err)
		}
		sum := sha256.Sum256(digest)
		return sum[:], nil, nil
	}

	keys := make([]string, len(sorted))
	leafHashes := make([][]byte, len(sorted))
	for i, link := range sorted {
		digest, err := parseCID(link.Hash)
		if err != nil {
			return nil, nil, wrapErr(ErrKindInvalidCid, fmt.Sprintf("decode link hash for %q", link.Label), err)
		}
		keys[i] = link.Label
		leafHashes[i] = digest
	}

	tree := buildMerkleTree(keys, leafHashes)
	return tree.root(), tree, nil
}

// computeHash derives and sets leaf.Hash from its current field values,
// treating it as a non-root leaf (see computeRootHash for roots).
func computeHash(leaf *DagLeaf) error {
	var contentHash *[]byte
	if leaf.ContentHash != nil {
		contentHash = &leaf.ContentHash
	}

	img := leafHashImage{
		ItemName:         leaf.ItemName,
		Type:             leaf.Type,
		MerkleRoot:       nonNilBytes(leaf.ClassicMerkleRoot),
		CurrentLinkCount: uint64(leaf.CurrentLinkCount),
		ContentHash:      contentHash,
		AdditionalData:   sortedAdditionalData(leaf.AdditionalData),
	}

	enc, err := cbor.Marshal(img)
	if err != nil {
		return wrapErr(ErrKindSerialization, "encode leaf hash image", err)
	}

	id, err := deriveCID(enc)
	if err != nil {
		return err
	}
	leaf.Hash = id
	return nil
}

// computeRootHash derives and sets leaf.Hash for a root leaf, using the
// spec's two-pass DagSize computation: childrenDagSize is the sum of
// persisted-image byte lengths of every non-root leaf already in the DAG.
func computeRootHash(leaf *DagLeaf, childrenDagSize int64) error {
	var contentHash *[]byte
	if leaf.ContentHash != nil {
		contentHash = &leaf.ContentHash
	}

	build := func(dagSize int64) ([]byte, error) {
		img := rootHashImage{
			ItemName:         leaf.ItemName,
			Type:             leaf.Type,
			MerkleRoot:       nonNilBytes(leaf.ClassicMerkleRoot),
			CurrentLinkCount: uint64(leaf.CurrentLinkCount),
			LeafCount:        uint64(leaf.LeafCount),
			ContentSize:      leaf.ContentSize,
			DagSize:          dagSize,
			ContentHash:      contentHash,
			AdditionalData:   sortedAdditionalData(leaf.AdditionalData),
		}
		return cbor.Marshal(img)
	}

	// Pass 1: encode with DagSize=0 to measure the root's own contribution.
	zeroEnc, err := build(0)
	if err != nil {
		return wrapErr(ErrKindSerialization, "encode root hash image (pass 1)", err)
	}
	rootSize := int64(len(zeroEnc))

	leaf.DagSize = childrenDagSize + rootSize

	finalEnc, err := build(leaf.DagSize)
	if err != nil {
		return wrapErr(ErrKindSerialization, "encode root hash image (pass 2)", err)
	}

	id, err := deriveCID(finalEnc)
	if err != nil {
		return err
	}
	leaf.Hash = id
	return nil
}

// persistedImageBytes encodes leaf in the always-present-fields form used
// both for DagSize accounting and for on-wire/on-disk persistence.
func persistedImageBytes(leaf *DagLeaf) ([]byte, error) {
	img := persistImage{
		Hash:              leaf.Hash,
		ItemName:          leaf.ItemName,
		Type:              leaf.Type,
		ContentHash:       nonNilBytes(leaf.ContentHash),
		Content:           nonNilBytes(leaf.Content),
		ClassicMerkleRoot: nonNilBytes(leaf.ClassicMerkleRoot),
		CurrentLinkCount:  uint64(leaf.CurrentLinkCount),
		LeafCount:         uint64(leaf.LeafCount),
		ContentSize:       leaf.ContentSize,
		DagSize:           leaf.DagSize,
		Links:             linkPairs(leaf.Links),
		ParentHash:        leaf.ParentHash,
		AdditionalData:    sortedAdditionalData(leaf.AdditionalData),
		StoredProofs:      storedProofImages(leaf),
	}
	enc, err := cbor.Marshal(img)
	if err != nil {
		return nil, wrapErr(ErrKindSerialization, "encode persisted leaf image", err)
	}
	return enc, nil
}

func nonNilBytes(b []byte) []byte {
	if b == nil {
		return []byte{}
	}
	return b
}

// HasLink reports whether leaf has a child registered under label.
func (leaf *DagLeaf) HasLink(label string) bool {
	_, ok := leaf.linkHash(label)
	return ok
}

// GetBranch returns the Merkle proof authenticating the child at label
// against leaf.ClassicMerkleRoot, recomputing the tree from leaf.Links.
func (leaf *DagLeaf) GetBranch(label string) (*ClassicTreeBranch, error) {
	hash, ok := leaf.linkHash(label)
	if !ok {
		return nil, newMissingLink(label)
	}

	_, tree, err := merkleRootFor(leaf.Links)
	if err != nil {
		return nil, err
	}
	if tree == nil {
		// 0 or 1 links: nothing to prove beyond direct equality, but
		// callers expect a branch, so return a proof with no siblings.
		return &ClassicTreeBranch{Leaf: hash, Proof: &MerkleProof{}}, nil
	}

	proof, ok := tree.proof(label)
	if !ok {
		return nil, newMissingLink(label)
	}
	return &ClassicTreeBranch{Leaf: hash, Proof: proof}, nil
}

// VerifyLeaf recomputes leaf's identifier from its current fields and
// reports whether it matches leaf.Hash. It does not look at any other
// leaf in the DAG; use VerifyFull/VerifyPartial in verify.go for
// whole-DAG checks.
func VerifyLeaf(leaf *DagLeaf) error {
	expectedRoot, _, err := merkleRootFor(leaf.Links)
	if err != nil {
		return err
	}
	if !bytesEqual(nonNilBytes(leaf.ClassicMerkleRoot), nonNilBytes(expectedRoot)) {
		return newMerkleRootMismatch(fmt.Sprintf("leaf %s: classic merkle root mismatch", leaf.Hash))
	}

	if leaf.Content != nil {
		sum := sha256.Sum256(leaf.Content)
		if !bytesEqual(sum[:], nonNilBytes(leaf.ContentHash)) {
			return newContentHashMismatch(fmt.Sprintf("leaf %s: content hash mismatch", leaf.Hash))
		}
	}

	want := leaf.Hash
	got := &DagLeaf{
		ItemName:          leaf.ItemName,
		Type:              leaf.Type,
		ClassicMerkleRoot: leaf.ClassicMerkleRoot,
		CurrentLinkCount:  leaf.CurrentLinkCount,
		ContentHash:       leaf.ContentHash,
		AdditionalData:    leaf.AdditionalData,
	}
	if err := computeHash(got); err != nil {
		return err
	}
	if got.Hash != want {
		return newHashMismatch(fmt.Sprintf("leaf %s", leaf.ItemName), want, got.Hash)
	}
	return nil
}

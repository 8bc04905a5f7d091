package dag

import (
	"encoding/json"
	"os"

	"github.com/fxamacker/cbor/v2"
)

// dagImage is the persisted wire/disk form of a Dag: leaves keyed by
// hash (each in its always-every-field-present persistImage form), and
// an optional label index keyed by decimal label string, mapping to the
// leaf hash it names.
type dagImage struct {
	Root   string                   `cbor:"Root"`
	Leafs  map[string]*persistImage `cbor:"Leafs"`
	Labels map[string]string        `cbor:"Labels,omitempty"`
}

// toImage converts d into its persisted form, inverting d.Labels (hash
// -> label) into the wire's label -> hash direction.
func (d *Dag) toImage() *dagImage {
	leafs := make(map[string]*persistImage, len(d.Leafs))
	for hash, leaf := range d.Leafs {
		leafs[hash] = &persistImage{
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
	}

	var labels map[string]string
	if len(d.Labels) > 0 {
		labels = make(map[string]string, len(d.Labels))
		for hash, label := range d.Labels {
			labels[label] = hash
		}
	}

	return &dagImage{Root: d.Root, Leafs: leafs, Labels: labels}
}

// dagFromImage reconstructs a Dag from its persisted form, inverting
// Labels back into the in-memory hash -> label direction.
func dagFromImage(img *dagImage) (*Dag, error) {
	leafs := make(map[string]*DagLeaf, len(img.Leafs))
	for hash, li := range img.Leafs {
		links := make([]DagLink, len(li.Links))
		for i, pair := range li.Links {
			links[i] = DagLink{Label: pair[0], Hash: pair[1]}
		}

		// An absent ContentHash/Content is persisted as an empty byte
		// string; map it back to nil so the hash images treat it as absent.
		contentHash := li.ContentHash
		if len(contentHash) == 0 {
			contentHash = nil
		}
		content := li.Content
		if len(content) == 0 && contentHash == nil {
			content = nil
		}

		leaf := &DagLeaf{
			Hash:              li.Hash,
			ItemName:          li.ItemName,
			Type:              li.Type,
			ContentHash:       contentHash,
			Content:           content,
			ClassicMerkleRoot: li.ClassicMerkleRoot,
			CurrentLinkCount:  int(li.CurrentLinkCount),
			LeafCount:         int(li.LeafCount),
			ContentSize:       li.ContentSize,
			DagSize:           li.DagSize,
			Links:             links,
			ParentHash:        li.ParentHash,
			AdditionalData:    li.AdditionalData,
		}

		if len(li.StoredProofs) > 0 {
			leaf.Proofs = make(map[string]*ClassicTreeBranch, len(li.StoredProofs))
			for childHash, sp := range li.StoredProofs {
				label, ok := linkLabelForHash(links, childHash)
				if !ok {
					continue
				}
				leaf.Proofs[label] = &ClassicTreeBranch{Leaf: sp.Leaf, Proof: sp.Proof}
			}
		}

		leafs[hash] = leaf
	}

	var labels map[string]string
	if len(img.Labels) > 0 {
		labels = make(map[string]string, len(img.Labels))
		for label, hash := range img.Labels {
			labels[hash] = label
		}
	}

	return &Dag{Root: img.Root, Leafs: leafs, Labels: labels}, nil
}

func linkLabelForHash(links []DagLink, hash string) (string, bool) {
	for _, l := range links {
		if l.Hash == hash {
			return l.Label, true
		}
	}
	return "", false
}

// ToCBOR encodes d in the persisted-image form (C6): leaves keyed by
// hash, each with every field present, links as an ordered sequence of
// [label, hash] pairs, and stored_proofs keyed by child hash.
func (d *Dag) ToCBOR() ([]byte, error) {
	enc, err := cbor.Marshal(d.toImage())
	if err != nil {
		return nil, wrapErr(ErrKindSerialization, "encode dag cbor", err)
	}
	return enc, nil
}

// DagFromCBOR decodes a Dag previously produced by ToCBOR.
func DagFromCBOR(data []byte) (*Dag, error) {
	var img dagImage
	if err := cbor.Unmarshal(data, &img); err != nil {
		return nil, wrapErr(ErrKindDeserialization, "decode dag cbor", err)
	}
	return dagFromImage(&img)
}

// ToJSON encodes d as indented JSON, primarily for debugging and CLI
// inspection.
func (d *Dag) ToJSON() ([]byte, error) {
	enc, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return nil, wrapErr(ErrKindSerialization, "encode dag json", err)
	}
	return enc, nil
}

// DagFromJSON decodes a Dag previously produced by ToJSON.
func DagFromJSON(data []byte) (*Dag, error) {
	var d Dag
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, wrapErr(ErrKindDeserialization, "decode dag json", err)
	}
	return &d, nil
}

// SaveToFile writes d's CBOR encoding to path.
func (d *Dag) SaveToFile(path string) error {
	enc, err := d.ToCBOR()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, enc, 0o644); err != nil {
		return wrapErr(ErrKindIO, "write dag file", err)
	}
	return nil
}

// LoadDagFromFile reads and decodes a Dag written by SaveToFile.
func LoadDagFromFile(path string) (*Dag, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, wrapErr(ErrKindIO, "read dag file", err)
	}
	return DagFromCBOR(data)
}

// ToCBOR encodes a TransmissionPacket for the wire.
func (p *TransmissionPacket) ToCBOR() ([]byte, error) {
	enc, err := cbor.Marshal(p)
	if err != nil {
		return nil, wrapErr(ErrKindSerialization, "encode packet cbor", err)
	}
	return enc, nil
}

// TransmissionPacketFromCBOR decodes a packet produced by ToCBOR.
func TransmissionPacketFromCBOR(data []byte) (*TransmissionPacket, error) {
	var p TransmissionPacket
	if err := cbor.Unmarshal(data, &p); err != nil {
		return nil, wrapErr(ErrKindDeserialization, "decode packet cbor", err)
	}
	return &p, nil
}

// GetLeafSequence flattens d into an ordered slice of TransmissionPackets
// suitable for streaming sync: a depth-first walk from the root, each
// packet carrying its leaf, its parent's hash, and, when the parent has
// two or more links, the parent's Merkle proof for this leaf keyed by the
// leaf's link label.
func (d *Dag) GetLeafSequence() ([]*TransmissionPacket, error) {
	root, ok := d.Leafs[d.Root]
	if !ok {
		return nil, newMissingLeaf(d.Root)
	}

	var packets []*TransmissionPacket
	visited := make(map[string]bool)

	var walk func(leaf *DagLeaf, parentHash string) error
	walk = func(leaf *DagLeaf, parentHash string) error {
		if visited[leaf.Hash] {
			return nil
		}
		visited[leaf.Hash] = true

		packet := &TransmissionPacket{Leaf: leaf, ParentHash: parentHash}
		if parent, ok := d.Leafs[parentHash]; ok && parent.CurrentLinkCount >= 2 {
			label, _ := linkLabelForHash(parent.Links, leaf.Hash)
			branch, err := parent.GetBranch(label)
			if err != nil {
				return err
			}
			packet.Proofs = map[string]*ClassicTreeBranch{label: branch}
		}
		packets = append(packets, packet)

		for _, link := range leaf.Links {
			child, ok := d.Leafs[link.Hash]
			if !ok {
				continue
			}
			if err := walk(child, leaf.Hash); err != nil {
				return err
			}
		}
		return nil
	}

	if err := walk(root, ""); err != nil {
		return nil, err
	}
	return packets, nil
}

// ApplyTransmissionPacket inserts p.Leaf into d, recording its parent
// relationship and filing p.Proofs under the parent leaf's Proofs (when
// the parent is present), without verifying it. Use
// ApplyAndVerifyTransmissionPacket on any packet received over the wire.
func (d *Dag) ApplyTransmissionPacket(p *TransmissionPacket) {
	if d.Leafs == nil {
		d.Leafs = make(map[string]*DagLeaf)
	}
	leaf := p.Leaf
	leaf.ParentHash = p.ParentHash
	d.Leafs[leaf.Hash] = leaf
	if p.ParentHash == "" {
		d.Root = leaf.Hash
	} else if parent, ok := d.Leafs[p.ParentHash]; ok && len(p.Proofs) > 0 {
		if parent.Proofs == nil {
			parent.Proofs = make(map[string]*ClassicTreeBranch, len(p.Proofs))
		}
		for label, branch := range p.Proofs {
			parent.Proofs[label] = branch
		}
	}
}

// ApplyAndVerifyTransmissionPacket verifies p.Leaf's own hash (and, if it
// has a parent already present, its link from that parent) before
// inserting it, so a LeafSync receiver never admits a leaf it cannot
// authenticate.
func (d *Dag) ApplyAndVerifyTransmissionPacket(p *TransmissionPacket) error {
	leaf := p.Leaf
	if p.ParentHash != "" {
		if err := VerifyLeaf(leaf); err != nil {
			return err
		}
		if parent, ok := d.Leafs[p.ParentHash]; ok {
			found := false
			for _, link := range parent.Links {
				if link.Hash == leaf.Hash {
					found = true
					if parent.CurrentLinkCount >= 2 {
						branch := p.Proofs[link.Label]
						if branch == nil || branch.Proof == nil {
							return newInvalidProof("missing required proof in transmission packet")
						}
						digest, err := parseCID(leaf.Hash)
						if err != nil {
							return err
						}
						if !verifyMerkleProof(digest, branch.Proof, parent.ClassicMerkleRoot) {
							return newInvalidProof("transmission packet proof failed")
						}
					}
					break
				}
			}
			if !found {
				return newMissingLink(leaf.Hash)
			}
		}
	} else {
		if err := verifyRootStored(leaf); err != nil {
			return err
		}
	}

	d.ApplyTransmissionPacket(p)
	return nil
}

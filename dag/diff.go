package dag

import "fmt"

// DiffType distinguishes an added leaf from a removed one.
type DiffType string

const (
	DiffAdded   DiffType = "added"
	DiffRemoved DiffType = "removed"
)

// LeafDiff is one leaf's worth of a DagDiff.
type LeafDiff struct {
	Type DiffType
	Hash string
	Leaf *DagLeaf
}

// DiffSummary counts the entries of a DagDiff.
type DiffSummary struct {
	Added   int
	Removed int
	Total   int
}

// DagDiff is the leaf-hash-set difference between two DAGs.
type DagDiff struct {
	Diffs   []LeafDiff
	Summary DiffSummary
}

// Diff computes the set difference of leaf hashes between first and
// second: leaves present in second but not first are Added, leaves
// present in first but not second are Removed.
func Diff(first, second *Dag) (*DagDiff, error) {
	d := &DagDiff{}

	for hash, leaf := range second.Leafs {
		if _, ok := first.Leafs[hash]; !ok {
			d.Diffs = append(d.Diffs, LeafDiff{Type: DiffAdded, Hash: hash, Leaf: leaf})
			d.Summary.Added++
		}
	}
	for hash, leaf := range first.Leafs {
		if _, ok := second.Leafs[hash]; !ok {
			d.Diffs = append(d.Diffs, LeafDiff{Type: DiffRemoved, Hash: hash, Leaf: leaf})
			d.Summary.Removed++
		}
	}
	d.Summary.Total = d.Summary.Added + d.Summary.Removed

	return d, nil
}

// GetAddedLeaves returns the leaves diff marks as added.
func (diff *DagDiff) GetAddedLeaves() []*DagLeaf {
	var out []*DagLeaf
	for _, e := range diff.Diffs {
		if e.Type == DiffAdded {
			out = append(out, e.Leaf)
		}
	}
	return out
}

// GetRemovedLeaves returns the leaves diff marks as removed.
func (diff *DagDiff) GetRemovedLeaves() []*DagLeaf {
	var out []*DagLeaf
	for _, e := range diff.Diffs {
		if e.Type == DiffRemoved {
			out = append(out, e.Leaf)
		}
	}
	return out
}

// ApplyDiff reconstructs the DAG diff describes on top of base: every
// added leaf is inserted, every removed leaf is dropped, and the new root
// is the one added leaf that is never referenced as someone else's child
// and carries a positive LeafCount (the hallmark of a root leaf).
func ApplyDiff(base *Dag, diff *DagDiff) (*Dag, error) {
	leafs := make(map[string]*DagLeaf, len(base.Leafs))
	for hash, leaf := range base.Leafs {
		leafs[hash] = leaf
	}

	added := diff.GetAddedLeaves()
	for _, leaf := range added {
		leafs[leaf.Hash] = leaf
	}
	for _, e := range diff.Diffs {
		if e.Type == DiffRemoved {
			delete(leafs, e.Hash)
		}
	}

	referenced := make(map[string]bool)
	for _, leaf := range leafs {
		for _, link := range leaf.Links {
			referenced[link.Hash] = true
		}
	}

	var newRoot string
	for _, leaf := range added {
		if !referenced[leaf.Hash] && leaf.LeafCount > 0 {
			newRoot = leaf.Hash
			break
		}
	}
	if newRoot == "" {
		newRoot = base.Root
	}

	return &Dag{Root: newRoot, Leafs: leafs}, nil
}

// ancestry returns, for every leaf hash reachable from root, the hash and
// link label of its direct parent.
func ancestry(d *Dag) (parentOf map[string]string, labelOf map[string]string) {
	parentOf = make(map[string]string)
	labelOf = make(map[string]string)

	visited := make(map[string]bool)
	var walk func(hash string)
	walk = func(hash string) {
		if visited[hash] {
			return
		}
		visited[hash] = true
		leaf, ok := d.Leafs[hash]
		if !ok {
			return
		}
		for _, link := range leaf.Links {
			if _, seen := parentOf[link.Hash]; !seen {
				parentOf[link.Hash] = hash
				labelOf[link.Hash] = link.Label
			}
			walk(link.Hash)
		}
	}
	walk(d.Root)
	return parentOf, labelOf
}

// CreatePartialDag builds the smallest sub-DAG of d that contains every
// leaf in targetHashes and all of its ancestors up to the root, attaching
// a Merkle proof to each ancestor for the child it carries on the path,
// so the result is independently verifiable with VerifyPartial.
func CreatePartialDag(d *Dag, targetHashes []string) (*Dag, error) {
	if len(targetHashes) == 0 {
		return nil, newErr(ErrKindInvalidDag, "no target hashes given")
	}

	parentOf, labelOf := ancestry(d)

	leafs := make(map[string]*DagLeaf)
	for _, target := range targetHashes {
		if _, ok := d.Leafs[target]; !ok {
			return nil, newMissingLeaf(target)
		}

		cur := target
		for {
			leafs[cur] = d.Leafs[cur]
			if cur == d.Root {
				break
			}
			parent, ok := parentOf[cur]
			if !ok {
				return nil, newErr(ErrKindInvalidDag, fmt.Sprintf("leaf %s has no path to root", target))
			}
			cur = parent
		}
	}

	// Clone every included leaf so proof attachment doesn't mutate d, and
	// attach a proof for each path edge.
	cloned := make(map[string]*DagLeaf, len(leafs))
	for hash, leaf := range leafs {
		c := *leaf
		if leaf.Proofs != nil {
			c.Proofs = make(map[string]*ClassicTreeBranch, len(leaf.Proofs))
			for k, v := range leaf.Proofs {
				c.Proofs[k] = v
			}
		}
		cloned[hash] = &c
	}

	for _, target := range targetHashes {
		cur := target
		for cur != d.Root {
			parentHash := parentOf[cur]
			label := labelOf[cur]
			parent := cloned[parentHash]

			if parent.CurrentLinkCount >= 2 {
				branch, err := d.Leafs[parentHash].GetBranch(label)
				if err != nil {
					return nil, err
				}
				if parent.Proofs == nil {
					parent.Proofs = make(map[string]*ClassicTreeBranch)
				}
				parent.Proofs[label] = branch
			}
			cur = parentHash
		}
	}

	return &Dag{Root: d.Root, Leafs: cloned}, nil
}

// ProjectPartial is an alias for CreatePartialDag matching the receiving
// side's terminology: projecting a partial view of d onto a set of
// leaves of interest.
func ProjectPartial(d *Dag, targetHashes []string) (*Dag, error) {
	return CreatePartialDag(d, targetHashes)
}

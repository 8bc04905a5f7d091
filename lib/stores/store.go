// Package stores defines a pluggable persistence abstraction for Scionic
// Merkle DAGs and generic helpers (StoreDag/BuildDagFromStore) that any
// backend can reuse by implementing LeafStore.
package stores

import (
	"fmt"

	"github.com/HORNET-Storage/Scionic-Merkle-Tree/v2/dag"
)

// LeafStore persists individual leaves, namespaced under a root hash so a
// single store can hold many DAGs.
type LeafStore interface {
	StoreLeaf(root string, leaf *dag.DagLeaf) error
	RetrieveLeaf(root string, hash string) (*dag.DagLeaf, error)
	DeleteLeaf(root string, hash string) error
}

// DagStore is a LeafStore that also knows how to cache the depth-first
// labels of a DAG it holds, so repeated range queries (C7) don't re-walk
// the DAG every time.
type DagStore interface {
	LeafStore
	CacheLabels(root string, labels map[string]string) error
	GetCachedLabel(root string, hash string) (string, bool)
}

// StoreDag persists every leaf of d into store, namespaced under d.Root.
func StoreDag(store LeafStore, d *dag.Dag) error {
	for _, leaf := range d.Leafs {
		if err := store.StoreLeaf(d.Root, leaf); err != nil {
			return fmt.Errorf("store leaf %s: %w", leaf.Hash, err)
		}
	}
	return nil
}

// BuildDagFromStore reconstructs the full DAG rooted at root by reading
// the root leaf and then recursively following its links.
func BuildDagFromStore(store LeafStore, root string) (*dag.Dag, error) {
	rootLeaf, err := store.RetrieveLeaf(root, root)
	if err != nil {
		return nil, fmt.Errorf("retrieve root leaf %s: %w", root, err)
	}

	leafs := map[string]*dag.DagLeaf{root: rootLeaf}
	if err := addLeavesRecursively(store, root, rootLeaf, leafs); err != nil {
		return nil, err
	}

	return &dag.Dag{Root: root, Leafs: leafs}, nil
}

func addLeavesRecursively(store LeafStore, root string, leaf *dag.DagLeaf, leafs map[string]*dag.DagLeaf) error {
	for _, link := range leaf.Links {
		if _, ok := leafs[link.Hash]; ok {
			continue
		}
		child, err := store.RetrieveLeaf(root, link.Hash)
		if err != nil {
			return fmt.Errorf("retrieve leaf %s: %w", link.Hash, err)
		}
		leafs[link.Hash] = child
		if err := addLeavesRecursively(store, root, child, leafs); err != nil {
			return err
		}
	}
	return nil
}

// BuildPartialDagFromStore reconstructs only the leaves needed to cover
// targetHashes and their ancestors, by first loading the full DAG from
// store and then projecting it with dag.CreatePartialDag. Large stores
// should prefer a backend-specific partial loader; this generic version
// favors correctness over minimizing reads.
func BuildPartialDagFromStore(store LeafStore, root string, targetHashes []string) (*dag.Dag, error) {
	full, err := BuildDagFromStore(store, root)
	if err != nil {
		return nil, err
	}
	return dag.CreatePartialDag(full, targetHashes)
}

package dag

import (
	"fmt"
	"strconv"
)

// CalculateLabels walks d depth-first from its root and assigns each
// non-root leaf a sequential decimal-string label in visit order. The
// root is implicitly label "0" and is not stored in the returned map.
// The result is also cached on d.Labels.
func CalculateLabels(d *Dag) (map[string]string, error) {
	root, ok := d.Leafs[d.Root]
	if !ok {
		return nil, newMissingLeaf(d.Root)
	}

	labels := make(map[string]string)
	next := 1

	var walk func(leaf *DagLeaf) error
	walk = func(leaf *DagLeaf) error {
		for _, link := range leaf.Links {
			child, ok := d.Leafs[link.Hash]
			if !ok {
				continue
			}
			if _, seen := labels[link.Hash]; seen {
				continue
			}
			labels[link.Hash] = strconv.Itoa(next)
			next++
			if err := walk(child); err != nil {
				return err
			}
		}
		return nil
	}

	if err := walk(root); err != nil {
		return nil, err
	}

	d.Labels = labels
	return labels, nil
}

// GetLabel returns the label previously assigned to hash by
// CalculateLabels, or "0" if hash is d's root.
func GetLabel(d *Dag, hash string) (string, error) {
	if hash == d.Root {
		return "0", nil
	}
	if d.Labels == nil {
		if _, err := CalculateLabels(d); err != nil {
			return "", err
		}
	}
	label, ok := d.Labels[hash]
	if !ok {
		return "", newMissingLeaf(hash)
	}
	return label, nil
}

// GetHashesByLabelRange returns the leaf hashes labeled within
// [start, end] inclusive, in label order. start must be >= 1, end must be
// >= start, and end must not exceed the total number of non-root labels,
// otherwise it returns an InvalidLabel error.
func GetHashesByLabelRange(d *Dag, start, end int) ([]string, error) {
	if d.Labels == nil {
		if _, err := CalculateLabels(d); err != nil {
			return nil, err
		}
	}

	total := len(d.Labels)
	if start < 1 {
		return nil, newErr(ErrKindInvalidLabel, fmt.Sprintf("start %d must be >= 1", start))
	}
	if end < start {
		return nil, newErr(ErrKindInvalidLabel, fmt.Sprintf("end %d must be >= start %d", end, start))
	}
	if end > total {
		return nil, newErr(ErrKindInvalidLabel, fmt.Sprintf("end %d exceeds total labels %d", end, total))
	}

	byLabel := make(map[int]string, total)
	for hash, label := range d.Labels {
		n, err := strconv.Atoi(label)
		if err != nil {
			return nil, wrapErr(ErrKindInvalidDag, fmt.Sprintf("non-numeric label %q", label), err)
		}
		byLabel[n] = hash
	}

	hashes := make([]string, 0, end-start+1)
	for i := start; i <= end; i++ {
		hash, ok := byLabel[i]
		if !ok {
			return nil, newErr(ErrKindInvalidLabel, fmt.Sprintf("no leaf labeled %d", i))
		}
		hashes = append(hashes, hash)
	}
	return hashes, nil
}

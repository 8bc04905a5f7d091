// Package bbolt is a single-file embedded DagStore backend built on
// go.etcd.io/bbolt, detaching large leaf content into its own
// content-addressed bucket the way the teacher's bbolt store does.
package bbolt

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/fxamacker/cbor/v2"
	bolt "go.etcd.io/bbolt"

	"github.com/HORNET-Storage/Scionic-Merkle-Tree/v2/dag"
)

var (
	leavesBucket  = []byte("leaves")
	contentBucket = []byte("content")
	labelsBucket  = []byte("labels")
)

// Store is a DagStore backed by a single bbolt database file.
type Store struct {
	db *bolt.DB
}

// Open opens (creating if necessary) a bbolt database at path with the
// buckets this store needs.
func Open(path string) (*Store, error) {
	db, err := bolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("open bbolt db %q: %w", path, err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, b := range [][]byte{leavesBucket, contentBucket, labelsBucket} {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("init buckets: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database file.
func (s *Store) Close() error {
	return s.db.Close()
}

func leafKey(root, hash string) []byte {
	return []byte(root + "/" + hash)
}

// StoreLeaf persists leaf under root, detaching its Content (if any) into
// the content-addressed bucket keyed by sha256(Content) so identical
// chunks across different DAGs share storage.
func (s *Store) StoreLeaf(root string, leaf *dag.DagLeaf) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		stored := *leaf

		if len(leaf.Content) > 0 {
			sum := sha256.Sum256(leaf.Content)
			contentKey := hex.EncodeToString(sum[:])

			if err := tx.Bucket(contentBucket).Put([]byte(contentKey), leaf.Content); err != nil {
				return fmt.Errorf("put content: %w", err)
			}

			stored.Content = nil
			stored.ContentHash = sum[:]
		}

		enc, err := cbor.Marshal(&stored)
		if err != nil {
			return fmt.Errorf("encode leaf: %w", err)
		}

		return tx.Bucket(leavesBucket).Put(leafKey(root, leaf.Hash), enc)
	})
}

// RetrieveLeaf loads the leaf stored under root/hash, reattaching its
// content from the content bucket if it was detached.
func (s *Store) RetrieveLeaf(root string, hash string) (*dag.DagLeaf, error) {
	var leaf dag.DagLeaf

	err := s.db.View(func(tx *bolt.Tx) error {
		enc := tx.Bucket(leavesBucket).Get(leafKey(root, hash))
		if enc == nil {
			return fmt.Errorf("leaf %s not found", hash)
		}
		if err := cbor.Unmarshal(enc, &leaf); err != nil {
			return fmt.Errorf("decode leaf: %w", err)
		}

		if leaf.ContentHash != nil {
			contentKey := hex.EncodeToString(leaf.ContentHash)
			content := tx.Bucket(contentBucket).Get([]byte(contentKey))
			if content != nil {
				leaf.Content = append([]byte(nil), content...)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &leaf, nil
}

// DeleteLeaf removes the leaf stored under root/hash. Shared content is
// left in place since other leaves may still reference it.
func (s *Store) DeleteLeaf(root string, hash string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(leavesBucket).Delete(leafKey(root, hash))
	})
}

// CacheLabels persists the label assignments computed for a DAG rooted
// at root.
func (s *Store) CacheLabels(root string, labels map[string]string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(labelsBucket)
		for hash, label := range labels {
			if err := b.Put(leafKey(root, hash), []byte(label)); err != nil {
				return fmt.Errorf("put label: %w", err)
			}
		}
		return nil
	})
}

// GetCachedLabel looks up a previously-cached label for hash within root.
func (s *Store) GetCachedLabel(root string, hash string) (string, bool) {
	var label string
	var found bool

	_ = s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(labelsBucket).Get(leafKey(root, hash))
		if v != nil {
			label = string(v)
			found = true
		}
		return nil
	})

	return label, found
}

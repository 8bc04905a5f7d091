// Package badgerhold is an indexed, queryable DagStore backend built on
// timshannon/badgerhold, so deployments that want by-root leaf listing
// or ad-hoc queries over stored leaves don't need to hand-roll secondary
// indices on top of bbolt.
package badgerhold

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math/rand"
	"sync/atomic"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/timshannon/badgerhold/v4"

	"github.com/HORNET-Storage/Scionic-Merkle-Tree/v2/dag"
)

// leafRecord is the badgerhold-indexed projection of a dag.DagLeaf: Root
// is indexed so every leaf of a given DAG can be listed in one query, and
// Content is detached (replaced by ContentKey) the same way the bbolt
// backend detaches it.
type leafRecord struct {
	Key        string `boltholdKey:"Key"`
	Root       string `boltholdIndex:"Root"`
	Hash       string
	Leaf       *dag.DagLeaf
	ContentKey string
}

type contentRecord struct {
	Key  string `boltholdKey:"Key"`
	Data []byte
}

type labelRecord struct {
	Key   string `boltholdKey:"Key"`
	Root  string `boltholdIndex:"Root"`
	Label string
}

// Store is a DagStore backed by badgerhold.
type Store struct {
	bh *badgerhold.Store

	storedCount  atomic.Int64
	skippedCount atomic.Int64
}

// Open opens (creating if necessary) a badgerhold database at dir.
func Open(dir string) (*Store, error) {
	opts := badgerhold.Options{
		Options: badger.DefaultOptions(dir),
	}
	opts.Logger = nil

	bh, err := badgerhold.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badgerhold db %q: %w", dir, err)
	}

	return &Store{bh: bh}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.bh.Close()
}

func recordKey(root, hash string) string {
	return root + "/" + hash
}

// retryWithBackoff retries op on badger.ErrConflict with exponential
// backoff plus jitter, giving up after maxAttempts.
func retryWithBackoff(maxAttempts int, op func() error) error {
	var err error
	base := 10 * time.Millisecond

	for attempt := 0; attempt < maxAttempts; attempt++ {
		err = op()
		if err == nil || err != badger.ErrConflict {
			return err
		}

		backoff := base * time.Duration(1<<uint(attempt))
		jitter := time.Duration(rand.Int63n(int64(backoff) / 2))
		time.Sleep(backoff + jitter)
	}

	return fmt.Errorf("giving up after %d attempts: %w", maxAttempts, err)
}

// StoreLeaf persists leaf under root, detaching Content into a
// content-addressed record so identical chunks across DAGs are stored
// once.
func (s *Store) StoreLeaf(root string, leaf *dag.DagLeaf) error {
	rec := leafRecord{
		Key:  recordKey(root, leaf.Hash),
		Root: root,
		Hash: leaf.Hash,
	}

	stored := *leaf
	if len(leaf.Content) > 0 {
		sum := sha256.Sum256(leaf.Content)
		contentKey := hex.EncodeToString(sum[:])
		rec.ContentKey = contentKey

		err := retryWithBackoff(5, func() error {
			return s.bh.Upsert(contentKey, contentRecord{Key: contentKey, Data: leaf.Content})
		})
		if err != nil {
			s.skippedCount.Add(1)
			return fmt.Errorf("upsert content: %w", err)
		}

		stored.Content = nil
		stored.ContentHash = sum[:]
	}
	rec.Leaf = &stored

	err := retryWithBackoff(5, func() error {
		return s.bh.Upsert(rec.Key, rec)
	})
	if err != nil {
		s.skippedCount.Add(1)
		return fmt.Errorf("upsert leaf: %w", err)
	}

	s.storedCount.Add(1)
	return nil
}

// RetrieveLeaf loads the leaf stored under root/hash, reattaching its
// content if it was detached.
func (s *Store) RetrieveLeaf(root string, hash string) (*dag.DagLeaf, error) {
	var rec leafRecord
	if err := s.bh.Get(recordKey(root, hash), &rec); err != nil {
		return nil, fmt.Errorf("get leaf %s: %w", hash, err)
	}

	leaf := *rec.Leaf
	if rec.ContentKey != "" {
		var content contentRecord
		if err := s.bh.Get(rec.ContentKey, &content); err == nil {
			leaf.Content = content.Data
		}
	}

	return &leaf, nil
}

// DeleteLeaf removes the leaf stored under root/hash. Shared content
// records are left in place.
func (s *Store) DeleteLeaf(root string, hash string) error {
	return s.bh.Delete(recordKey(root, hash), leafRecord{})
}

// ListRoot returns every leaf stored under root, exercising badgerhold's
// secondary index on Root rather than a full table scan.
func (s *Store) ListRoot(root string) ([]*dag.DagLeaf, error) {
	var recs []leafRecord
	if err := s.bh.Find(&recs, badgerhold.Where("Root").Eq(root)); err != nil {
		return nil, fmt.Errorf("find leaves for root %s: %w", root, err)
	}

	leafs := make([]*dag.DagLeaf, 0, len(recs))
	for _, r := range recs {
		leafs = append(leafs, r.Leaf)
	}
	return leafs, nil
}

// CacheLabels persists the label assignments computed for a DAG rooted
// at root.
func (s *Store) CacheLabels(root string, labels map[string]string) error {
	for hash, label := range labels {
		rec := labelRecord{Key: recordKey(root, hash), Root: root, Label: label}
		if err := s.bh.Upsert(rec.Key, rec); err != nil {
			return fmt.Errorf("upsert label: %w", err)
		}
	}
	return nil
}

// GetCachedLabel looks up a previously-cached label for hash within root.
func (s *Store) GetCachedLabel(root string, hash string) (string, bool) {
	var rec labelRecord
	if err := s.bh.Get(recordKey(root, hash), &rec); err != nil {
		return "", false
	}
	return rec.Label, true
}

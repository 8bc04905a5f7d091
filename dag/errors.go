package dag

import (
	"errors"
	"fmt"
)

// ErrorKind enumerates the closed set of ways a DAG operation can fail.
type ErrorKind string

const (
	// ErrKindIO means a filesystem or storage operation failed.
	ErrKindIO ErrorKind = "io"
	// ErrKindSerialization means encoding a value (CBOR/JSON/CID) failed.
	ErrKindSerialization ErrorKind = "serialization"
	// ErrKindDeserialization means decoding a previously-encoded value
	// failed.
	ErrKindDeserialization ErrorKind = "deserialization"
	// ErrKindHashMismatch means a leaf's recomputed identifier doesn't
	// match its stored hash.
	ErrKindHashMismatch ErrorKind = "hash_mismatch"
	// ErrKindMerkleRootMismatch means a recomputed classic_merkle_root
	// doesn't match a leaf's stored one.
	ErrKindMerkleRootMismatch ErrorKind = "merkle_root_mismatch"
	// ErrKindContentHashMismatch means sha256(content) doesn't match a
	// leaf's stored content_hash.
	ErrKindContentHashMismatch ErrorKind = "content_hash_mismatch"
	// ErrKindSizeMismatch means a recomputed size field (content_size,
	// dag_size) doesn't match a leaf's stored one.
	ErrKindSizeMismatch ErrorKind = "size_mismatch"
	// ErrKindMissingLeaf means a leaf hash that should be present in a
	// Dag's Leafs map isn't.
	ErrKindMissingLeaf ErrorKind = "missing_leaf"
	// ErrKindMissingLink means a link target couldn't be resolved while
	// walking a DAG.
	ErrKindMissingLink ErrorKind = "missing_link"
	// ErrKindInvalidProof means a Merkle proof was required but absent,
	// or failed to verify.
	ErrKindInvalidProof ErrorKind = "invalid_proof"
	// ErrKindInvalidCid means a string failed to parse as a CID, or its
	// multihash couldn't be decoded.
	ErrKindInvalidCid ErrorKind = "invalid_cid"
	// ErrKindPathNotFound means a filesystem path was missing where a
	// leaf expected one.
	ErrKindPathNotFound ErrorKind = "path_not_found"
	// ErrKindInvalidLeaf means a leaf's own fields are inconsistent (bad
	// type, missing required field).
	ErrKindInvalidLeaf ErrorKind = "invalid_leaf"
	// ErrKindInvalidDag means the DAG's structure is inconsistent (broken
	// link, missing child, no valid root).
	ErrKindInvalidDag ErrorKind = "invalid_dag"
	// ErrKindInvalidLabel means a label or label range was out of bounds.
	ErrKindInvalidLabel ErrorKind = "invalid_label"
)

// DagError wraps a failure with the ErrorKind the caller should branch
// on, plus whatever structured diagnostics that kind carries.
type DagError struct {
	Kind ErrorKind
	Msg  string
	Err  error

	// Expected/Got hold the two sides of a mismatch (HashMismatch,
	// SizeMismatch).
	Expected string
	Got      string
	// ID holds the leaf/link identifier for MissingLeaf/MissingLink.
	ID string
	// Path holds the filesystem path for PathNotFound.
	Path string
}

func (e *DagError) Error() string {
	var extra string
	switch {
	case e.Expected != "" || e.Got != "":
		extra = fmt.Sprintf(" (expected %s, got %s)", e.Expected, e.Got)
	case e.ID != "":
		extra = fmt.Sprintf(" (id %s)", e.ID)
	case e.Path != "":
		extra = fmt.Sprintf(" (path %s)", e.Path)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s%s: %v", e.Kind, e.Msg, extra, e.Err)
	}
	return fmt.Sprintf("%s: %s%s", e.Kind, e.Msg, extra)
}

func (e *DagError) Unwrap() error {
	return e.Err
}

func newErr(kind ErrorKind, msg string) error {
	return &DagError{Kind: kind, Msg: msg}
}

func wrapErr(kind ErrorKind, msg string, err error) error {
	return &DagError{Kind: kind, Msg: msg, Err: err}
}

func newHashMismatch(msg, expected, got string) error {
	return &DagError{Kind: ErrKindHashMismatch, Msg: msg, Expected: expected, Got: got}
}

func newMerkleRootMismatch(msg string) error {
	return &DagError{Kind: ErrKindMerkleRootMismatch, Msg: msg}
}

func newContentHashMismatch(msg string) error {
	return &DagError{Kind: ErrKindContentHashMismatch, Msg: msg}
}

func newSizeMismatch(msg string, expected, got int64) error {
	return &DagError{Kind: ErrKindSizeMismatch, Msg: msg, Expected: fmt.Sprintf("%d", expected), Got: fmt.Sprintf("%d", got)}
}

func newMissingLeaf(id string) error {
	return &DagError{Kind: ErrKindMissingLeaf, Msg: "leaf not present", ID: id}
}

func newMissingLink(id string) error {
	return &DagError{Kind: ErrKindMissingLink, Msg: "link not resolved", ID: id}
}

func newInvalidProof(msg string) error {
	return &DagError{Kind: ErrKindInvalidProof, Msg: msg}
}

func newPathNotFound(path string) error {
	return &DagError{Kind: ErrKindPathNotFound, Msg: "path not found", Path: path}
}

// IsKind reports whether err is a *DagError of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var de *DagError
	if errors.As(err, &de) {
		return de.Kind == kind
	}
	return false
}

package dag

import (
	"crypto/sha256"
	"fmt"

	"github.com/ipfs/go-cid"
	mbase "github.com/multiformats/go-multibase"
	mc "github.com/multiformats/go-multicodec"
	mh "github.com/multiformats/go-multihash"
)

// deriveCID wraps a sha256 digest of a CBOR-encoded hashed image as a
// CIDv1 using the CBOR codec, rendered in the default lowercase base32
// multibase encoding (the "bafi..." form).
func deriveCID(cborImage []byte) (string, error) {
	sum := sha256.Sum256(cborImage)

	hash, err := mh.Encode(sum[:], mh.SHA2_256)
	if err != nil {
		return "", wrapErr(ErrKindSerialization, "multihash encode", err)
	}

	id := cid.NewCidV1(uint64(mc.Cbor), hash)

	s, err := id.StringOfBase(mbase.Base32)
	if err != nil {
		return "", wrapErr(ErrKindSerialization, "cid base32 render", err)
	}
	return s, nil
}

// parseCID validates that s decodes as a CID and returns its multihash
// digest (the raw sha256 sum).
func parseCID(s string) ([]byte, error) {
	id, err := cid.Decode(s)
	if err != nil {
		return nil, wrapErr(ErrKindInvalidCid, fmt.Sprintf("decode cid %q", s), err)
	}
	decoded, err := mh.Decode(id.Hash())
	if err != nil {
		return nil, wrapErr(ErrKindInvalidCid, "decode multihash", err)
	}
	return decoded.Digest, nil
}

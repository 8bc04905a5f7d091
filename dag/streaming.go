package dag

import (
	"crypto/sha256"
	"fmt"
	"io"
)

// StreamingDagBuilder builds a single File leaf's DAG incrementally as
// chunks arrive, so a sender never needs the whole file in memory and a
// receiver can report verifiable progress before the transfer finishes.
type StreamingDagBuilder struct {
	fileName    string
	builder     *DagBuilder
	links       []DagLink
	contentSize int64
}

// NewStreamingDagBuilder starts a streaming build for a file named
// fileName. cfg is kept on the underlying builder but AddChunk and
// Finalize do not read it: no AdditionalData is stamped, and chunking is
// driven entirely by the caller's AddChunk calls.
func NewStreamingDagBuilder(fileName string, cfg *BuilderConfig) *StreamingDagBuilder {
	return &StreamingDagBuilder{
		fileName: fileName,
		builder:  NewDagBuilder(cfg),
	}
}

// AddChunk hashes data as the next Chunk leaf, registers it, and returns
// the tentative root CID the DAG would have if finalized right now (the
// root is recomputed from chunks seen so far, without being persisted).
func (s *StreamingDagBuilder) AddChunk(data []byte) (string, error) {
	idx := len(s.links)

	chunkData := make([]byte, len(data))
	copy(chunkData, data)
	sum := sha256.Sum256(chunkData)

	leaf := &DagLeaf{
		ItemName:    fmt.Sprintf("%s/%d", s.fileName, idx),
		Type:        ChunkLeafType,
		Content:     chunkData,
		ContentHash: sum[:],
		ContentSize: int64(len(chunkData)),
	}
	if err := computeHash(leaf); err != nil {
		return "", err
	}
	if err := s.builder.AddLeaf(leaf); err != nil {
		return "", err
	}

	s.links = append(s.links, DagLink{Label: fmt.Sprintf("%d", idx), Hash: leaf.Hash})
	s.contentSize += int64(len(chunkData))

	return s.buildCurrentRoot()
}

// buildCurrentRoot computes a File root over the chunks seen so far
// without mutating builder/leaf state, so it can be called after every
// chunk without side effects.
func (s *StreamingDagBuilder) buildCurrentRoot() (string, error) {
	root := &DagLeaf{ItemName: s.fileName, Type: FileLeafType, ContentSize: s.contentSize}
	root.Links = s.links
	root.CurrentLinkCount = len(s.links)

	merkleRoot, _, err := merkleRootFor(s.links)
	if err != nil {
		return "", err
	}
	root.ClassicMerkleRoot = merkleRoot

	var childrenDagSize int64
	for _, link := range s.links {
		leaf := s.builder.leaves[link.Hash]
		enc, err := persistedImageBytes(leaf)
		if err != nil {
			return "", err
		}
		childrenDagSize += int64(len(enc))
	}
	root.LeafCount = len(s.links) + 1

	if err := computeRootHash(root, childrenDagSize); err != nil {
		return "", err
	}
	return root.Hash, nil
}

// Finalize builds and returns the completed Dag for every chunk added so
// far.
func (s *StreamingDagBuilder) Finalize() (*Dag, error) {
	root := &DagLeaf{ItemName: s.fileName, Type: FileLeafType, ContentSize: s.contentSize}
	return s.builder.BuildDag(root, s.links)
}

// StreamFromReader reads r in cfg-sized chunks (DefaultChunkSize if cfg
// is nil) and returns the completed file Dag. Streaming always emits at
// least one Chunk leaf, even for a single-chunk or empty input: unlike
// the batch path, a stream can't know its total size in advance, so it
// can't decide up front whether to collapse into a direct File leaf.
func StreamFromReader(r io.Reader, fileName string, cfg *BuilderConfig) (*Dag, error) {
	s := NewStreamingDagBuilder(fileName, cfg)

	buf := make([]byte, cfg.chunkSize())
	for {
		n, err := io.ReadFull(r, buf)
		if n > 0 {
			if _, err := s.AddChunk(buf[:n]); err != nil {
				return nil, err
			}
		}
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			break
		}
		if err != nil {
			return nil, wrapErr(ErrKindIO, "read stream", err)
		}
	}

	if len(s.links) == 0 {
		if _, err := s.AddChunk([]byte{}); err != nil {
			return nil, err
		}
	}

	return s.Finalize()
}

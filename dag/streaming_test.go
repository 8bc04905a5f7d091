package dag

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStreamingDagBuilderMatchesCreateDag(t *testing.T) {
	chunkSize := 16
	cfg := &BuilderConfig{ChunkSize: &chunkSize}
	s := NewStreamingDagBuilder("stream.bin", cfg)

	data := []byte("0123456789abcdefghijklmnopqrstuvwxyz")
	for i := 0; i < len(data); i += chunkSize {
		end := i + chunkSize
		if end > len(data) {
			end = len(data)
		}
		tentative, err := s.AddChunk(data[i:end])
		require.NoError(t, err)
		require.NotEmpty(t, tentative)
	}

	d, err := s.Finalize()
	require.NoError(t, err)
	require.NoError(t, Verify(d))

	root := d.Leafs[d.Root]
	require.Equal(t, 3, root.CurrentLinkCount)

	path := filepath.Join(t.TempDir(), "stream.bin")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	batch, err := CreateDagWithConfig(path, cfg)
	require.NoError(t, err)
	require.Equal(t, batch.Root, d.Root)
}

func TestStreamFromReaderEmptyInput(t *testing.T) {
	d, err := StreamFromReader(bytes.NewReader(nil), "empty.bin", nil)
	require.NoError(t, err)
	require.NoError(t, Verify(d))

	root := d.Leafs[d.Root]
	require.Equal(t, 1, root.CurrentLinkCount, "empty stream still gets one empty chunk")
}

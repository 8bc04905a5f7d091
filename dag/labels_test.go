package dag

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCalculateLabelsAndRangeQuery(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("a"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.txt"), []byte("b"), 0o644))

	d, err := CreateDag(dir)
	require.NoError(t, err)

	labels, err := CalculateLabels(d)
	require.NoError(t, err)
	require.Len(t, labels, len(d.Leafs)-1, "every non-root leaf gets a label")

	rootLabel, err := GetLabel(d, d.Root)
	require.NoError(t, err)
	require.Equal(t, "0", rootLabel)

	total := len(labels)
	hashes, err := GetHashesByLabelRange(d, 1, total)
	require.NoError(t, err)
	require.Len(t, hashes, total)
}

func TestGetHashesByLabelRangeRejectsInvalidBounds(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("a"), 0o644))

	d, err := CreateDag(dir)
	require.NoError(t, err)
	_, err = CalculateLabels(d)
	require.NoError(t, err)

	_, err = GetHashesByLabelRange(d, 0, 1)
	require.True(t, IsKind(err, ErrKindInvalidLabel))

	_, err = GetHashesByLabelRange(d, 2, 1)
	require.True(t, IsKind(err, ErrKindInvalidLabel))

	_, err = GetHashesByLabelRange(d, 1, len(d.Labels)+1)
	require.True(t, IsKind(err, ErrKindInvalidLabel))
}

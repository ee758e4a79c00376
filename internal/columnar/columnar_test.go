package columnar

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mysociety/policyscore/internal/model"
)

func ptr(v int64) *int64 { return &v }

func sampleRows() []model.VoteDistribution {
	return []model.VoteDistribution{
		{
			PolicyID: 1, PersonID: 10, PeriodID: 1, ChamberID: 1, PartyID: ptr(5), IsTarget: true,
			NumStrongVotesSame: 1, DistanceScore: 0.0, PolicyHash: "abcd1234",
		},
		{
			PolicyID: 1, PersonID: 10, PeriodID: 1, ChamberID: 1, PartyID: ptr(5), IsTarget: false,
			NumStrongVotesSame: 0.5, NumStrongVotesDifferent: 0.4, NumStrongVotesAbsent: 0.1,
			DistanceScore: 0.2, PolicyHash: "abcd1234",
		},
	}
}

func TestFromRowsAndRows_RoundTrip(t *testing.T) {
	rows := sampleRows()
	p := FromRows(rows)
	require.Equal(t, len(rows), p.Len())
	got := p.Rows()
	assert.Equal(t, rows, got)
}

func TestWriteFileReadFile_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, PartitionFilename(10, 1, 5))

	p := FromRows(sampleRows())
	require.NoError(t, WriteFile(path, p))

	got, err := ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, p, got)
}

func TestWriteFile_NoPartialFileVisible(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, PartitionFilename(1, 1, 0))
	require.NoError(t, WriteFile(path, FromRows(sampleRows())))

	files, err := ListPartitionFiles(dir)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, path, files[0])
}

func TestListPartitionFiles_MissingDirIsEmpty(t *testing.T) {
	files, err := ListPartitionFiles(filepath.Join(t.TempDir(), "does-not-exist"))
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestClearDir_RemovesPartitionFiles(t *testing.T) {
	dir := t.TempDir()
	p1 := filepath.Join(dir, PartitionFilename(1, 1, 0))
	require.NoError(t, WriteFile(p1, FromRows(sampleRows())))

	require.NoError(t, ClearDir(dir))

	files, err := ListPartitionFiles(dir)
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestPartitionFilename(t *testing.T) {
	assert.Equal(t, "10_1_5.parquet", PartitionFilename(10, 1, 5))
	assert.Equal(t, "10_1_0.parquet", PartitionFilename(10, 1, int64(model.NoPartyID)))
}

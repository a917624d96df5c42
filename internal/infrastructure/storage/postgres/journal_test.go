package postgres

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rfidstock/internal/core/entity"
	"rfidstock/internal/core/id"
	"rfidstock/internal/domain/journal"
)

func newTestStore(t *testing.T, threshold int) *JournalStore {
	t.Helper()
	s, err := NewJournalStore(nil, threshold)
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return s
}

func sampleLines(n int) *entity.TagLines {
	lines := &entity.TagLines{Items: []entity.Line{{ItemCode: "GAS-12"}}}
	for i := 0; i < n; i++ {
		lines.RFIDs = append(lines.RFIDs, entity.LinkedTag{
			RFIDTag:     strings.Repeat("E2", 12) + string(rune('A'+i%26)),
			Item:        "GAS-12",
			GasSerialNo: "SN-" + strings.Repeat("0", 6),
		})
	}
	return lines
}

func assertSameLines(t *testing.T, want, got *entity.TagLines) {
	t.Helper()
	require.NotNil(t, got)
	assert.Equal(t, want.RFIDs, got.RFIDs)
	require.Len(t, got.Items, len(want.Items))
	for i := range want.Items {
		assert.Equal(t, want.Items[i].ItemCode, got.Items[i].ItemCode)
		assert.Equal(t, want.Items[i].Qty, got.Items[i].Qty)
	}
}

func TestSnapshotCodec_SmallStaysPlain(t *testing.T) {
	s := newTestStore(t, 0)

	cols, err := s.codec.encode(sampleLines(1))
	require.NoError(t, err)
	assert.Equal(t, CompressionNone, cols.CompressionAlgo)
	assert.NotEmpty(t, cols.Snapshot)
	assert.Nil(t, cols.SnapshotCompressed)

	back, err := s.codec.decode(cols)
	require.NoError(t, err)
	assertSameLines(t, sampleLines(1), back)
}

func TestSnapshotCodec_LargeIsCompressed(t *testing.T) {
	s := newTestStore(t, 256)
	lines := sampleLines(100)

	cols, err := s.codec.encode(lines)
	require.NoError(t, err)
	assert.Equal(t, CompressionZstd, cols.CompressionAlgo)
	assert.Nil(t, cols.Snapshot)
	assert.NotEmpty(t, cols.SnapshotCompressed)

	back, err := s.codec.decode(cols)
	require.NoError(t, err)
	assertSameLines(t, lines, back)
}

func TestSnapshotCodec_NilSnapshot(t *testing.T) {
	s := newTestStore(t, 0)

	cols, err := s.codec.encode(nil)
	require.NoError(t, err)
	assert.Equal(t, CompressionNone, cols.CompressionAlgo)

	back, err := s.codec.decode(cols)
	require.NoError(t, err)
	assert.Nil(t, back)
}

func TestSnapshotCodec_CorruptData(t *testing.T) {
	s := newTestStore(t, 0)

	_, err := s.codec.decode(SnapshotColumns{
		SnapshotCompressed: []byte("not zstd"),
		CompressionAlgo:    CompressionZstd,
	})
	assert.Error(t, err)
}

func TestJournalStore_RowMapping(t *testing.T) {
	s := newTestStore(t, 0)
	e := journal.Entry{
		SessionID: id.New(),
		TagID:     "E200AB",
		Doctype:   "Stock Entry",
		DocName:   "MAT-STE-0001",
		Warehouse: "Stores - A",
		Outcome:   "attached",
		Source:    journal.SourceReader,
		UserID:    "stock@example.com",
		Snapshot:  sampleLines(2),
	}

	row, err := s.toRow(e)
	require.NoError(t, err)
	assert.False(t, id.IsNil(row.ID))
	assert.False(t, row.CreatedAt.IsZero())
	assert.Equal(t, "reader", row.Source)

	back, err := s.fromRow(row)
	require.NoError(t, err)
	assertSameLines(t, e.Snapshot, back.Snapshot)

	e.ID = row.ID
	e.CreatedAt = row.CreatedAt
	e.Snapshot, back.Snapshot = nil, nil
	assert.Equal(t, e, back)
}

func TestInsertEntryQuery(t *testing.T) {
	row := journalRow{
		ID:        id.New(),
		SessionID: id.New(),
		TagID:     "E200AB",
		CreatedAt: time.Now().UTC(),
		SnapshotColumns: SnapshotColumns{
			CompressionAlgo: CompressionNone,
		},
	}

	query, args, err := insertEntryQuery(row)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(query, "INSERT INTO scan_journal"))
	assert.Contains(t, query, "$13")
	assert.Len(t, args, 13)
}

func TestHistoryQuery(t *testing.T) {
	query, args, err := historyQuery("E200AB", 0)
	require.NoError(t, err)

	assert.Contains(t, query, "FROM scan_journal WHERE tag_id = $1")
	assert.Contains(t, query, "ORDER BY created_at DESC, id DESC")
	assert.Contains(t, query, "LIMIT 100")
	assert.Contains(t, query, "snapshot_compressed")
	assert.Equal(t, []any{"E200AB"}, args)

	query, _, err = historyQuery("E200AB", 5)
	require.NoError(t, err)
	assert.Contains(t, query, "LIMIT 5")
}

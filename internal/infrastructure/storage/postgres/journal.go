package postgres

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/klauspost/compress/zstd"

	"rfidstock/internal/core/entity"
	"rfidstock/internal/core/id"
	"rfidstock/internal/domain/journal"
)

//go:embed schema.sql
var schemaSQL string

const journalTable = "scan_journal"

// DefaultCompressThreshold is the snapshot size above which snapshots are stored compressed.
const DefaultCompressThreshold = 4 * 1024

// CompressionAlgo specifies the compression algorithm used for a snapshot.
type CompressionAlgo string

const (
	CompressionNone CompressionAlgo = "none"
	CompressionZstd CompressionAlgo = "zstd"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// journalRow is the scan_journal row layout.
type journalRow struct {
	ID        id.ID     `db:"id"`
	SessionID id.ID     `db:"session_id"`
	TagID     string    `db:"tag_id"`
	Doctype   string    `db:"doctype"`
	DocName   string    `db:"doc_name"`
	Warehouse string    `db:"warehouse"`
	Outcome   string    `db:"outcome"`
	Source    string    `db:"source"`
	UserID    string    `db:"user_id"`
	CreatedAt time.Time `db:"created_at"`

	SnapshotColumns
}

type SnapshotColumns struct {
	Snapshot           json.RawMessage `db:"snapshot"`
	SnapshotCompressed []byte          `db:"snapshot_compressed"`
	CompressionAlgo    CompressionAlgo `db:"compression_algo"`
}

// snapshotCodec stores large tag snapshots zstd-compressed.
type snapshotCodec struct {
	encoder   *zstd.Encoder
	decoder   *zstd.Decoder
	threshold int
}

func newSnapshotCodec(threshold int) (*snapshotCodec, error) {
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}
	if threshold <= 0 {
		threshold = DefaultCompressThreshold
	}
	return &snapshotCodec{encoder: encoder, decoder: decoder, threshold: threshold}, nil
}

func (c *snapshotCodec) encode(snap *entity.TagLines) (SnapshotColumns, error) {
	cols := SnapshotColumns{CompressionAlgo: CompressionNone}
	if snap == nil {
		return cols, nil
	}
	raw, err := json.Marshal(snap)
	if err != nil {
		return cols, fmt.Errorf("marshal snapshot: %w", err)
	}
	if len(raw) > c.threshold {
		cols.SnapshotCompressed = c.encoder.EncodeAll(raw, nil)
		cols.CompressionAlgo = CompressionZstd
		return cols, nil
	}
	cols.Snapshot = raw
	return cols, nil
}

func (c *snapshotCodec) decode(cols SnapshotColumns) (*entity.TagLines, error) {
	raw := []byte(cols.Snapshot)
	if cols.CompressionAlgo == CompressionZstd && len(cols.SnapshotCompressed) > 0 {
		var err error
		raw, err = c.decoder.DecodeAll(cols.SnapshotCompressed, nil)
		if err != nil {
			return nil, fmt.Errorf("decompress snapshot: %w", err)
		}
	}
	if len(raw) == 0 {
		return nil, nil
	}
	var snap entity.TagLines
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	return &snap, nil
}

func (c *snapshotCodec) close() {
	_ = c.encoder.Close()
	c.decoder.Close()
}

// JournalStore keeps the scan journal in PostgreSQL.
type JournalStore struct {
	txManager *TxManager
	codec     *snapshotCodec
}

var _ journal.Repository = (*JournalStore)(nil)

// NewJournalStore creates a journal store. threshold <= 0 selects DefaultCompressThreshold.
func NewJournalStore(txManager *TxManager, threshold int) (*JournalStore, error) {
	codec, err := newSnapshotCodec(threshold)
	if err != nil {
		return nil, err
	}
	return &JournalStore{txManager: txManager, codec: codec}, nil
}

// EnsureSchema creates the journal table when missing.
func (s *JournalStore) EnsureSchema(ctx context.Context) error {
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.txManager.GetQuerier(ctx).Exec(ctx, schemaSQL); err != nil {
			return fmt.Errorf("create journal schema: %w", err)
		}
		return nil
	})
}

// Close releases the compression codec.
func (s *JournalStore) Close() {
	s.codec.close()
}

// Record implements journal.Recorder.
func (s *JournalStore) Record(ctx context.Context, e journal.Entry) error {
	row, err := s.toRow(e)
	if err != nil {
		return err
	}
	query, args, err := insertEntryQuery(row)
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.txManager.GetQuerier(ctx).Exec(ctx, query, args...); err != nil {
			return fmt.Errorf("insert journal entry: %w", err)
		}
		return nil
	})
}

// History implements journal.Repository.
func (s *JournalStore) History(ctx context.Context, tagID string, limit int) ([]journal.Entry, error) {
	query, args, err := historyQuery(tagID, limit)
	if err != nil {
		return nil, fmt.Errorf("build history query: %w", err)
	}

	var rows []journalRow
	err = s.txManager.ReadOnly(ctx, func(ctx context.Context) error {
		return pgxscan.Select(ctx, s.txManager.GetQuerier(ctx), &rows, query, args...)
	})
	if err != nil {
		return nil, fmt.Errorf("query journal history: %w", err)
	}

	entries := make([]journal.Entry, 0, len(rows))
	for _, r := range rows {
		e, err := s.fromRow(r)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func (s *JournalStore) toRow(e journal.Entry) (journalRow, error) {
	if id.IsNil(e.ID) {
		e.ID = id.New()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	snap, err := s.codec.encode(e.Snapshot)
	if err != nil {
		return journalRow{}, err
	}
	return journalRow{
		ID:              e.ID,
		SessionID:       e.SessionID,
		TagID:           e.TagID,
		Doctype:         e.Doctype,
		DocName:         e.DocName,
		Warehouse:       e.Warehouse,
		Outcome:         e.Outcome,
		Source:          string(e.Source),
		UserID:          e.UserID,
		CreatedAt:       e.CreatedAt,
		SnapshotColumns: snap,
	}, nil
}

func (s *JournalStore) fromRow(r journalRow) (journal.Entry, error) {
	snap, err := s.codec.decode(r.SnapshotColumns)
	if err != nil {
		return journal.Entry{}, err
	}
	return journal.Entry{
		ID:        r.ID,
		SessionID: r.SessionID,
		TagID:     r.TagID,
		Doctype:   r.Doctype,
		DocName:   r.DocName,
		Warehouse: r.Warehouse,
		Outcome:   r.Outcome,
		Source:    journal.Source(r.Source),
		UserID:    r.UserID,
		CreatedAt: r.CreatedAt,
		Snapshot:  snap,
	}, nil
}

func insertEntryQuery(row journalRow) (string, []any, error) {
	return psql.Insert(journalTable).SetMap(StructToMap(row)).ToSql()
}

func historyQuery(tagID string, limit int) (string, []any, error) {
	if limit <= 0 {
		limit = journal.DefaultHistoryLimit
	}
	return psql.Select(ExtractDBColumns[journalRow]()...).
		From(journalTable).
		Where(sq.Eq{"tag_id": tagID}).
		OrderBy("created_at DESC", "id DESC").
		Limit(uint64(limit)).
		ToSql()
}

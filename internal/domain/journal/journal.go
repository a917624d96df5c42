// Package journal defines the scan journal: one entry per tag scan applied
// to (or rejected by) an edit session.
package journal

import (
	"context"
	"time"

	"rfidstock/internal/core/entity"
	"rfidstock/internal/core/id"
)

// Source tells how a tag id reached a session.
type Source string

const (
	SourceReader Source = "reader" // continuous inventory
	SourceSingle Source = "single" // one-shot read
	SourceManual Source = "manual" // typed or posted by a client
)

// DefaultHistoryLimit bounds History when the caller passes no limit.
const DefaultHistoryLimit = 100

// Entry is one journaled scan.
type Entry struct {
	ID        id.ID     `json:"id"`
	SessionID id.ID     `json:"session_id"`
	TagID     string    `json:"tag_id"`
	Doctype   string    `json:"doctype"`
	DocName   string    `json:"doc_name,omitempty"`
	Warehouse string    `json:"warehouse,omitempty"`
	Outcome   string    `json:"outcome"`
	Source    Source    `json:"source"`
	UserID    string    `json:"user_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`

	// Snapshot is the document's tag lines right after the scan
	Snapshot *entity.TagLines `json:"snapshot,omitempty"`
}

// Recorder appends journal entries.
type Recorder interface {
	Record(ctx context.Context, e Entry) error
}

// Repository stores and queries the journal.
type Repository interface {
	Recorder

	// History returns the latest entries of a tag, newest first
	History(ctx context.Context, tagID string, limit int) ([]Entry, error)
}

// Nop discards entries; used when no journal database is configured.
type Nop struct{}

func (Nop) Record(context.Context, Entry) error { return nil }

func (Nop) History(context.Context, string, int) ([]Entry, error) { return []Entry{}, nil }

var _ Repository = Nop{}

// Package session keeps the documents being edited on the server.
//
// A session owns one document record. Form edits, manual tag attaches and
// reads from the RFID reader all mutate it under the session mutex; the
// ERP is only written on Save.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"rfidstock/internal/core/apperror"
	"rfidstock/internal/core/entity"
	"rfidstock/internal/core/id"
	"rfidstock/internal/domain/documents"
	"rfidstock/internal/domain/journal"
	"rfidstock/internal/domain/reconcile"
	"rfidstock/internal/domain/tagcatalog"
	"rfidstock/internal/i18n"
	"rfidstock/internal/metadata"
	"rfidstock/pkg/logger"
	"rfidstock/pkg/rfid"
)

// Session is one open document.
type Session struct {
	ID       id.ID
	Kind     documents.Kind
	UserID   string
	OpenedAt time.Time

	docs    *documents.Service
	reader  rfid.Reader
	lease   *readerLease
	journal journal.Recorder
	buffer  int

	mu         sync.Mutex
	doc        documents.Doc
	rev        uint64 // bumped on every record change
	catalog    *tagcatalog.Catalog
	catalogErr error
	closed     bool

	// sub is set while this session owns continuous reading
	sub       *rfid.Subscription
	bg        context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	closeOnce sync.Once
	release   func()
}

// AttachResult describes what happened to one scanned tag.
type AttachResult struct {
	TagID   string            `json:"tag_id"`
	Outcome reconcile.Outcome `json:"outcome"`
	Applied bool              `json:"applied"`
	Message string            `json:"message"`
}

// Snapshot is the client view of a session.
type Snapshot struct {
	ID            id.ID          `json:"id"`
	Kind          string         `json:"kind"`
	Doctype       string         `json:"doctype"`
	TagTracked    bool           `json:"tag_tracked"`
	CatalogLoaded bool           `json:"catalog_loaded"`
	CatalogSize   int            `json:"catalog_size"`
	CatalogError  string         `json:"catalog_error,omitempty"`
	Reading       bool           `json:"reading"`
	OpenedAt      time.Time      `json:"opened_at"`
	Record        map[string]any `json:"record"`
}

var errClosed = errors.New("session closed")

// tracked returns the record as a tag-tracked document. Must be called with mu held.
func (s *Session) tracked() (documents.Tracked, error) {
	t, ok := s.doc.(documents.Tracked)
	if !ok {
		return nil, apperror.NewNotTagTracked(s.Kind.Doctype)
	}
	return t, nil
}

func (s *Session) checkOpen() error {
	if s.closed {
		return apperror.NewNotFound("session", s.ID.String()).WithCause(errClosed)
	}
	return nil
}

// AttachTag feeds one tag id through the reconciliation engine.
// A rejected tag is not an error: the result carries the reason.
func (s *Session) AttachTag(ctx context.Context, tagID string, source journal.Source) (AttachResult, error) {
	s.mu.Lock()
	if err := s.scannableLocked(); err != nil {
		s.mu.Unlock()
		return AttachResult{}, err
	}
	doc := s.doc.(documents.Tracked)

	warehouse := doc.TagWarehouse()
	lines, outcome := reconcile.AttachTag(tagID, warehouse, doc.TagLines(), s.catalog)
	if outcome.Applied() {
		doc.SetTagLines(lines)
		s.rev++
	}
	snapshot := doc.TagLines().Clone()
	docName := doc.Header().Name
	s.mu.Unlock()

	logger.Info(ctx, "tag scan",
		"session", s.ID,
		"tag", tagID,
		"outcome", outcome,
		"source", source)

	s.record(ctx, journal.Entry{
		ID:        id.New(),
		SessionID: s.ID,
		TagID:     tagID,
		Doctype:   s.Kind.Doctype,
		DocName:   docName,
		Warehouse: warehouse,
		Outcome:   string(outcome),
		Source:    source,
		UserID:    s.UserID,
		CreatedAt: time.Now().UTC(),
		Snapshot:  &snapshot,
	})

	return AttachResult{
		TagID:   tagID,
		Outcome: outcome,
		Applied: outcome.Applied(),
		Message: outcomeMessage(ctx, outcome),
	}, nil
}

func (s *Session) record(ctx context.Context, e journal.Entry) {
	if s.journal == nil {
		return
	}
	if err := s.journal.Record(ctx, e); err != nil {
		logger.Warn(ctx, "journal write failed", "session", s.ID, "tag", e.TagID, "error", err)
	}
}

func outcomeMessage(ctx context.Context, o reconcile.Outcome) string {
	switch o {
	case reconcile.Attached:
		return i18n.T(ctx, i18n.MsgTagAttached)
	case reconcile.UnknownTag:
		return i18n.T(ctx, i18n.MsgTagUnknown)
	case reconcile.AlreadyLinked:
		return i18n.T(ctx, i18n.MsgTagAlreadyLinked)
	case reconcile.WarehouseMismatch:
		return i18n.T(ctx, i18n.MsgTagWrongWarehouse)
	case reconcile.ItemNotInDocument:
		return i18n.T(ctx, i18n.MsgTagItemNotInDocument)
	}
	return string(o)
}

// SetLinkedTags replaces the linked tags without placement checks.
func (s *Session) SetLinkedTags(ctx context.Context, tags []entity.LinkedTag) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return err
	}
	doc, err := s.tracked()
	if err != nil {
		return err
	}
	if err := doc.Header().CanModify(s.Kind.Doctype); err != nil {
		return err
	}

	doc.SetTagLines(reconcile.SetLinkedTags(tags, doc.TagLines()))
	s.rev++
	logger.Debug(ctx, "linked tags replaced", "session", s.ID, "count", len(tags))
	return nil
}

// Update replaces header fields and items with form values.
// The document identity and, for tracked documents, the linked tags are kept.
func (s *Session) Update(ctx context.Context, values map[string]any) error {
	next, err := s.Kind.Decode(values)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return err
	}
	current := s.doc.Header()
	if err := current.CanModify(s.Kind.Doctype); err != nil {
		return err
	}

	*next.Header() = *current
	if t, ok := next.(documents.Tracked); ok {
		prev := s.doc.(documents.Tracked).TagLines()
		t.SetTagLines(reconcile.SetLinkedTags(prev.RFIDs, t.TagLines()))
	}
	s.doc = next
	s.rev++
	return nil
}

// Record returns a deep copy of the document.
func (s *Session) Record() (documents.Doc, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.copyDoc()
}

func (s *Session) copyDoc() (documents.Doc, error) {
	values, err := metadata.ToValues(s.doc)
	if err != nil {
		return nil, apperror.NewInternal(err)
	}
	return s.Kind.Decode(values)
}

// Snapshot returns the client view of the session.
func (s *Session) Snapshot() (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := metadata.ToValues(s.doc)
	if err != nil {
		return Snapshot{}, apperror.NewInternal(err)
	}

	snap := Snapshot{
		ID:            s.ID,
		Kind:          s.Kind.Slug,
		Doctype:       s.Kind.Doctype,
		TagTracked:    s.Kind.TagTracked(),
		CatalogLoaded: s.catalog != nil,
		CatalogSize:   s.catalog.Len(),
		Reading:       s.sub != nil && s.reader.Reading(),
		OpenedAt:      s.OpenedAt,
		Record:        values,
	}
	if s.catalogErr != nil {
		snap.CatalogError = s.catalogErr.Error()
	}
	return snap, nil
}

// Save validates the record and writes it to the ERP.
// The ERP call runs without the session lock, so reads keep arriving.
// When the record did not change meanwhile the session adopts the stored
// version (server name, child row ids); otherwise it keeps its edits and
// takes only the stored header.
func (s *Session) Save(ctx context.Context) (documents.Doc, error) {
	s.mu.Lock()
	if err := s.checkOpen(); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	draft, err := s.copyDoc()
	rev := s.rev
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	saved, err := s.docs.Save(ctx, draft)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	if s.rev == rev {
		s.doc = saved
	} else {
		*s.doc.Header() = *saved.Header()
		logger.Debug(ctx, "record changed during save", "session", s.ID, "name", saved.Header().Name)
	}
	return s.copyDoc()
}

// Scan performs one single-tag read and attaches the result.
func (s *Session) Scan(ctx context.Context) (AttachResult, error) {
	if err := s.requireScannable(); err != nil {
		return AttachResult{}, err
	}
	p, err := s.reader.ReadSingleTag(ctx)
	if err != nil {
		return AttachResult{}, ReaderError(err)
	}
	return s.AttachTag(ctx, p.EPC, journal.SourceSingle)
}

// StartReading turns continuous inventory on and routes its reads to this
// session. Another session holding the reader gets READER_BUSY.
func (s *Session) StartReading(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.scannableLocked(); err != nil {
		return err
	}
	if s.sub != nil {
		return ReaderError(s.reader.StartReading(ctx))
	}
	if err := s.lease.acquire(s.ID); err != nil {
		return err
	}

	sub := s.reader.Subscribe(s.buffer)
	if err := s.reader.StartReading(ctx); err != nil {
		sub.Remove()
		s.lease.release(s.ID)
		return ReaderError(err)
	}
	s.sub = sub
	s.wg.Add(1)
	go s.run(s.bg, sub)

	logger.Info(ctx, "reading started", "session", s.ID)
	return nil
}

// StopReading turns continuous inventory off. Only the session that
// started it may stop it; stopping when nobody reads is a no-op.
func (s *Session) StopReading() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return err
	}
	if _, err := s.tracked(); err != nil {
		return err
	}
	if s.sub == nil {
		if owner := s.lease.holder(); !id.IsNil(owner) {
			return apperror.NewReaderBusy(owner.String())
		}
		return nil
	}
	return s.stopReadingLocked()
}

// stopReadingLocked must be called with mu held and s.sub set.
func (s *Session) stopReadingLocked() error {
	s.sub.Remove()
	s.sub = nil
	err := s.reader.StopReading()
	s.lease.release(s.ID)
	return ReaderError(err)
}

// requireScannable checks that tags may still be attached to the record.
func (s *Session) requireScannable() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scannableLocked()
}

func (s *Session) scannableLocked() error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	doc, err := s.tracked()
	if err != nil {
		return err
	}
	return doc.Header().CanModify(s.Kind.Doctype)
}

// Close releases the reader subscription and stops the event loop.
// Safe to call more than once.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		if s.sub != nil {
			if err := s.stopReadingLocked(); err != nil {
				logger.Warn(s.bg, "stop reading on close failed", "session", s.ID, "error", err)
			}
		}
		s.mu.Unlock()

		if s.cancel != nil {
			s.cancel()
		}
		s.wg.Wait()

		if s.release != nil {
			s.release()
		}
	})
}

// run consumes one subscription until it is removed or the session closes.
func (s *Session) run(ctx context.Context, sub *rfid.Subscription) {
	defer s.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case p, ok := <-sub.C:
			if !ok {
				return
			}
			if _, err := s.AttachTag(ctx, p.EPC, journal.SourceReader); err != nil {
				if apperror.IsNotFound(err) {
					return
				}
				logger.Warn(ctx, "tag scan failed", "session", s.ID, "tag", p.EPC, "error", err)
			}
		}
	}
}

func (s *Session) loadCatalog(ctx context.Context, load CatalogLoader) {
	defer s.wg.Done()
	catalog, err := load(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.catalogErr = err
		logger.Warn(ctx, "tag catalog load failed", "session", s.ID, "error", err)
		return
	}
	s.catalog = catalog
	logger.Info(ctx, "tag catalog loaded", "session", s.ID, "tags", catalog.Len())
}

// ReaderError maps reader failures onto API errors.
func ReaderError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, rfid.ErrUnavailable), errors.Is(err, rfid.ErrNotInitialized):
		return apperror.NewReaderUnavailable(err)
	case errors.Is(err, rfid.ErrNoTag):
		return apperror.NewNotFound("tag", "in range").WithCause(err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	}
	return apperror.NewInternal(err)
}

package session

import (
	"context"
	"sync"
	"time"

	"rfidstock/internal/core/apperror"
	appctx "rfidstock/internal/core/context"
	"rfidstock/internal/core/id"
	"rfidstock/internal/domain"
	"rfidstock/internal/domain/documents"
	"rfidstock/internal/domain/journal"
	"rfidstock/internal/domain/tagcatalog"
	"rfidstock/pkg/logger"
	"rfidstock/pkg/rfid"
)

// DefaultBuffer sizes each session's reader subscription.
const DefaultBuffer = 64

// CatalogLoader fetches the tag catalog.
type CatalogLoader func(ctx context.Context) (*tagcatalog.Catalog, error)

// RemoteCatalog loads the catalog from the ERP.
func RemoteCatalog(repo domain.DocumentRepository) CatalogLoader {
	return func(ctx context.Context) (*tagcatalog.Catalog, error) {
		return tagcatalog.Load(ctx, repo)
	}
}

// Config holds manager dependencies.
type Config struct {
	Documents *documents.Service
	Catalog   CatalogLoader
	// Reader defaults to a disabled reader
	Reader rfid.Reader
	// Journal is optional
	Journal journal.Recorder
	Buffer  int
}

// Manager owns every open session.
type Manager struct {
	docs    *documents.Service
	catalog CatalogLoader
	reader  rfid.Reader
	journal journal.Recorder
	buffer  int
	now     func() time.Time

	lease readerLease

	mu       sync.RWMutex
	sessions map[id.ID]*Session
}

// readerLease records the one session that owns continuous reading.
// Reads are delivered to that session only.
type readerLease struct {
	mu    sync.Mutex
	owner id.ID
}

func (l *readerLease) acquire(sid id.ID) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !id.IsNil(l.owner) && l.owner != sid {
		return apperror.NewReaderBusy(l.owner.String())
	}
	l.owner = sid
	return nil
}

func (l *readerLease) release(sid id.ID) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.owner == sid {
		l.owner = id.ID{}
	}
}

func (l *readerLease) holder() id.ID {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.owner
}

// NewManager creates a session manager.
func NewManager(cfg Config) *Manager {
	reader := cfg.Reader
	if reader == nil {
		reader = rfid.NewDisabled(nil)
	}
	buffer := cfg.Buffer
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	return &Manager{
		docs:     cfg.Documents,
		catalog:  cfg.Catalog,
		reader:   reader,
		journal:  cfg.Journal,
		buffer:   buffer,
		now:      time.Now,
		sessions: make(map[id.ID]*Session),
	}
}

// Open starts editing a document: an existing one when name is set,
// otherwise a new one built from the form defaults.
// For tracked documents the tag catalog loads in the background.
// Continuous reads reach the session only after it calls StartReading.
func (m *Manager) Open(ctx context.Context, kindName, name string) (*Session, error) {
	kind, err := m.docs.Kind(kindName)
	if err != nil {
		return nil, err
	}

	var doc documents.Doc
	if name != "" {
		doc, err = m.docs.Load(ctx, kind, name)
	} else {
		doc, err = m.docs.New(kind)
	}
	if err != nil {
		return nil, err
	}

	// background work outlives the request but keeps its values (user, credentials, trace)
	bg, cancel := context.WithCancel(context.WithoutCancel(ctx))

	s := &Session{
		ID:       id.New(),
		Kind:     kind,
		UserID:   appctx.GetUserID(ctx),
		OpenedAt: m.now().UTC(),
		docs:     m.docs,
		reader:   m.reader,
		lease:    &m.lease,
		journal:  m.journal,
		buffer:   m.buffer,
		doc:      doc,
		bg:       bg,
		cancel:   cancel,
	}
	s.release = func() { m.remove(s.ID) }

	if kind.TagTracked() && m.catalog != nil {
		s.wg.Add(1)
		go s.loadCatalog(bg, m.catalog)
	}

	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()

	logger.Info(ctx, "session opened",
		"session", s.ID,
		"doctype", kind.Doctype,
		"name", name,
		"tracked", kind.TagTracked())

	return s, nil
}

// Get returns an open session owned by the calling user.
func (m *Manager) Get(ctx context.Context, sessionID string) (*Session, error) {
	sid, err := id.Parse(sessionID)
	if err != nil {
		return nil, apperror.NewNotFound("session", sessionID)
	}

	m.mu.RLock()
	s, ok := m.sessions[sid]
	m.mu.RUnlock()
	if !ok {
		return nil, apperror.NewNotFound("session", sessionID)
	}

	if user := appctx.GetUserID(ctx); s.UserID != "" && user != s.UserID {
		return nil, apperror.NewForbidden("session belongs to another user")
	}
	return s, nil
}

// Close closes one session.
func (m *Manager) Close(ctx context.Context, sessionID string) error {
	s, err := m.Get(ctx, sessionID)
	if err != nil {
		return err
	}
	s.Close()
	logger.Info(ctx, "session closed", "session", s.ID)
	return nil
}

// CloseAll closes every session; used on shutdown.
func (m *Manager) CloseAll(ctx context.Context) {
	m.mu.RLock()
	open := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		open = append(open, s)
	}
	m.mu.RUnlock()

	for _, s := range open {
		s.Close()
	}
	logger.Info(ctx, "all sessions closed", "count", len(open))
}

// Len returns the number of open sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Reader returns the RFID reader shared by all sessions.
func (m *Manager) Reader() rfid.Reader {
	return m.reader
}

// ReadingSession returns the session that owns continuous reading, if any.
func (m *Manager) ReadingSession() (id.ID, bool) {
	owner := m.lease.holder()
	return owner, !id.IsNil(owner)
}

func (m *Manager) remove(sid id.ID) {
	m.mu.Lock()
	delete(m.sessions, sid)
	m.mu.Unlock()
}

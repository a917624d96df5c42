package session_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rfidstock/internal/core/apperror"
	appctx "rfidstock/internal/core/context"
	"rfidstock/internal/core/entity"
	"rfidstock/internal/core/types"
	"rfidstock/internal/domain"
	"rfidstock/internal/domain/documents"
	"rfidstock/internal/domain/documents/delivery_note"
	"rfidstock/internal/domain/documents/sales_order"
	"rfidstock/internal/domain/journal"
	"rfidstock/internal/domain/reconcile"
	"rfidstock/internal/domain/session"
	"rfidstock/internal/domain/tagcatalog"
	"rfidstock/pkg/rfid"
)

type memJournal struct {
	mu      sync.Mutex
	entries []journal.Entry
}

func (j *memJournal) Record(_ context.Context, e journal.Entry) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.entries = append(j.entries, e)
	return nil
}

func (j *memJournal) all() []journal.Entry {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]journal.Entry(nil), j.entries...)
}

func testCatalog() *tagcatalog.Catalog {
	entries := []tagcatalog.Entry{
		{Name: "T1", Item: "GAS-12", GasSerialNo: "S1", Warehouse: "WH-A"},
		{Name: "T2", Item: "GAS-12", GasSerialNo: "S2", Warehouse: "WH-A"},
		{Name: "T3", Item: "GAS-45", GasSerialNo: "S3", Warehouse: "WH-B"},
	}
	for i := 0; i < 50; i++ {
		entries = append(entries, tagcatalog.Entry{
			Name: fmt.Sprintf("B%02d", i), Item: "GAS-12", GasSerialNo: fmt.Sprintf("SB%02d", i), Warehouse: "WH-A",
		})
	}
	return tagcatalog.New(entries)
}

type fixture struct {
	repo    *domain.MockRepository
	reader  *rfid.Mock
	journal *memJournal
	manager *session.Manager
}

func newFixture(t *testing.T, tags ...string) *fixture {
	t.Helper()
	f := &fixture{
		repo:    &domain.MockRepository{},
		reader:  rfid.NewMock(tags, time.Hour),
		journal: &memJournal{},
	}
	docs := documents.NewService(f.repo,
		documents.NewResolver(sales_order.Kind(), delivery_note.Kind()), nil)

	f.manager = session.NewManager(session.Config{
		Documents: docs,
		Catalog: func(context.Context) (*tagcatalog.Catalog, error) {
			return testCatalog(), nil
		},
		Reader:  f.reader,
		Journal: f.journal,
		Buffer:  8,
	})
	t.Cleanup(func() { f.manager.CloseAll(context.Background()) })
	return f
}

var formValues = map[string]any{
	"company":             "ACME",
	"customer":            "Gas Station 7",
	"currency":            "VND",
	"selling_price_list":  "Standard Selling",
	"plc_conversion_rate": 1,
	"set_warehouse":       "WH-A",
	"items": []any{
		map[string]any{"item_code": "GAS-12", "qty": 0, "rate": 250000},
	},
}

func openNote(t *testing.T, f *fixture, ctx context.Context) *session.Session {
	t.Helper()
	s, err := f.manager.Open(ctx, "delivery-note", "")
	require.NoError(t, err)
	require.NoError(t, s.Update(ctx, formValues))
	require.Eventually(t, func() bool {
		snap, err := s.Snapshot()
		return err == nil && snap.CatalogLoaded
	}, time.Second, time.Millisecond)
	return s
}

func note(t *testing.T, s *session.Session) *delivery_note.DeliveryNote {
	t.Helper()
	doc, err := s.Record()
	require.NoError(t, err)
	return doc.(*delivery_note.DeliveryNote)
}

func TestSession_AttachTag(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s := openNote(t, f, ctx)

	res, err := s.AttachTag(ctx, "T1", journal.SourceManual)
	require.NoError(t, err)
	assert.Equal(t, reconcile.Attached, res.Outcome)
	assert.True(t, res.Applied)
	assert.Equal(t, "Tag attached", res.Message)

	res, err = s.AttachTag(ctx, "T3", journal.SourceManual)
	require.NoError(t, err)
	assert.Equal(t, reconcile.WarehouseMismatch, res.Outcome)
	assert.False(t, res.Applied)

	dn := note(t, s)
	require.Len(t, dn.Items, 1)
	assert.Equal(t, types.QuantityFromCount(1), dn.Items[0].Qty)
	assert.Equal(t, "T1", dn.Items[0].SerialNo)

	entries := f.journal.all()
	require.Len(t, entries, 2)
	assert.Equal(t, "T1", entries[0].TagID)
	assert.Equal(t, string(reconcile.Attached), entries[0].Outcome)
	assert.Equal(t, "WH-A", entries[0].Warehouse)
	assert.Equal(t, s.ID, entries[0].SessionID)
	require.NotNil(t, entries[0].Snapshot)
	assert.Len(t, entries[0].Snapshot.RFIDs, 1)
	assert.Equal(t, string(reconcile.WarehouseMismatch), entries[1].Outcome)
}

func TestSession_ReaderEventsAreAttached(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s := openNote(t, f, ctx)
	assert.Equal(t, 0, f.reader.Len())

	require.NoError(t, f.reader.Init(ctx))
	require.NoError(t, s.StartReading(ctx))
	assert.Equal(t, 1, f.reader.Len())

	f.reader.Publish(rfid.TagPayload{EPC: "T1"})
	f.reader.Publish(rfid.TagPayload{EPC: "T2"})

	require.Eventually(t, func() bool {
		return len(note(t, s).RFIDs) == 2
	}, time.Second, time.Millisecond)

	dn := note(t, s)
	assert.Equal(t, types.QuantityFromCount(2), dn.Items[0].Qty)
	assert.Equal(t, "T1\nT2", dn.Items[0].SerialNo)
	assert.Equal(t, journal.SourceReader, f.journal.all()[0].Source)

	snap, err := s.Snapshot()
	require.NoError(t, err)
	assert.True(t, snap.Reading)

	require.NoError(t, s.StopReading())
	assert.Equal(t, 0, f.reader.Len())
	assert.False(t, f.reader.Reading())
}

func TestSession_ReadingBelongsToOneSession(t *testing.T) {
	f := newFixture(t)
	aliceCtx := appctx.WithUser(context.Background(), &appctx.UserContext{UserID: "alice@example.com"})
	bobCtx := appctx.WithUser(context.Background(), &appctx.UserContext{UserID: "bob@example.com"})
	alice := openNote(t, f, aliceCtx)
	bob := openNote(t, f, bobCtx)

	require.NoError(t, f.reader.Init(aliceCtx))
	require.NoError(t, alice.StartReading(aliceCtx))
	assert.Equal(t, 1, f.reader.Len())

	f.reader.Publish(rfid.TagPayload{EPC: "T1"})
	require.Eventually(t, func() bool {
		return len(note(t, alice).RFIDs) == 1
	}, time.Second, time.Millisecond)
	assert.Empty(t, note(t, bob).RFIDs)
	for _, e := range f.journal.all() {
		assert.Equal(t, alice.ID, e.SessionID)
	}

	owner, ok := f.manager.ReadingSession()
	require.True(t, ok)
	assert.Equal(t, alice.ID, owner)

	err := bob.StartReading(bobCtx)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeReaderBusy, appErr.Code)

	err = bob.StopReading()
	appErr, ok = apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeReaderBusy, appErr.Code)
	assert.True(t, f.reader.Reading())

	snap, err := bob.Snapshot()
	require.NoError(t, err)
	assert.False(t, snap.Reading)
	snap, err = alice.Snapshot()
	require.NoError(t, err)
	assert.True(t, snap.Reading)

	require.NoError(t, alice.StopReading())
	require.NoError(t, bob.StartReading(bobCtx))
	owner, _ = f.manager.ReadingSession()
	assert.Equal(t, bob.ID, owner)

	require.NoError(t, f.manager.Close(bobCtx, bob.ID.String()))
	_, ok = f.manager.ReadingSession()
	assert.False(t, ok)
	assert.False(t, f.reader.Reading())
	assert.Equal(t, 0, f.reader.Len())
}

func TestSession_ConcurrentAttachesAreSerialised(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s := openNote(t, f, ctx)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			tag := fmt.Sprintf("B%02d", i)
			// every tag is scanned twice
			_, _ = s.AttachTag(ctx, tag, journal.SourceManual)
			_, _ = s.AttachTag(ctx, tag, journal.SourceManual)
		}()
	}
	wg.Wait()

	dn := note(t, s)
	assert.Len(t, dn.RFIDs, 50)
	assert.Equal(t, types.QuantityFromCount(50), dn.Items[0].Qty)

	seen := map[string]bool{}
	for _, r := range dn.RFIDs {
		assert.False(t, seen[r.RFIDTag], "duplicate %s", r.RFIDTag)
		seen[r.RFIDTag] = true
	}
}

func TestSession_UpdateKeepsLinkedTags(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s := openNote(t, f, ctx)

	_, err := s.AttachTag(ctx, "T1", journal.SourceManual)
	require.NoError(t, err)

	values := map[string]any{
		"company":       "ACME",
		"customer":      "Gas Station 9",
		"set_warehouse": "WH-A",
		"items": []any{
			map[string]any{"item_code": "GAS-12", "qty": 7, "rate": 250000},
			map[string]any{"item_code": "GAS-45", "qty": 3, "rate": 900000},
		},
	}
	require.NoError(t, s.Update(ctx, values))

	dn := note(t, s)
	assert.Equal(t, "Gas Station 9", dn.Customer)
	require.Len(t, dn.RFIDs, 1)
	assert.Equal(t, types.QuantityFromCount(1), dn.Items[0].Qty)
	assert.Equal(t, types.QuantityFromCount(0), dn.Items[1].Qty)
}

func TestSession_SetLinkedTags(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s := openNote(t, f, ctx)

	// no placement checks: T3 belongs to another warehouse
	err := s.SetLinkedTags(ctx, []entity.LinkedTag{
		{Name: "T3", RFIDTag: "T3", Item: "GAS-12", GasSerialNo: "S3"},
	})
	require.NoError(t, err)

	dn := note(t, s)
	assert.Equal(t, "T3", dn.Items[0].SerialNo)
}

func TestSession_NotTrackedDocument(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	s, err := f.manager.Open(ctx, "sales-order", "")
	require.NoError(t, err)

	_, err = s.AttachTag(ctx, "T1", journal.SourceManual)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeDocumentNotTagTracked, appErr.Code)

	snap, err := s.Snapshot()
	require.NoError(t, err)
	assert.False(t, snap.TagTracked)
	assert.Equal(t, 0, f.reader.Len())
}

func TestSession_SaveAdoptsServerName(t *testing.T) {
	f := newFixture(t)
	f.repo.CreateDocFunc = func(_ context.Context, _ string, data any) (any, error) {
		payload := data.(map[string]any)
		payload["name"] = "DN-0001"
		return payload, nil
	}
	ctx := context.Background()
	s := openNote(t, f, ctx)

	saved, err := s.Save(ctx)
	require.NoError(t, err)
	assert.Equal(t, "DN-0001", saved.Header().Name)
	assert.Equal(t, "DN-0001", note(t, s).Name)
}

func TestSession_AttachDuringSave(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	var s *session.Session
	f.repo.CreateDocFunc = func(_ context.Context, _ string, data any) (any, error) {
		// a read arriving while the ERP call is in flight
		_, err := s.AttachTag(ctx, "T1", journal.SourceReader)
		require.NoError(t, err)

		payload := data.(map[string]any)
		payload["name"] = "DN-0001"
		return payload, nil
	}
	s = openNote(t, f, ctx)

	saved, err := s.Save(ctx)
	require.NoError(t, err)
	assert.Equal(t, "DN-0001", saved.Header().Name)

	dn := note(t, s)
	assert.Equal(t, "DN-0001", dn.Name)
	require.Len(t, dn.RFIDs, 1)
	assert.Equal(t, "T1", dn.Items[0].SerialNo)
}

func TestSession_SaveValidationError(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s, err := f.manager.Open(ctx, "delivery-note", "")
	require.NoError(t, err)

	_, err = s.Save(ctx)
	assert.True(t, apperror.IsValidation(err))
}

func TestSession_OpenExisting(t *testing.T) {
	f := newFixture(t)
	f.repo.GetDocFunc = func(_ context.Context, doctype, name string) (any, error) {
		assert.Equal(t, "Delivery Note", doctype)
		return map[string]any{"name": name, "docstatus": 1, "set_warehouse": "WH-A"}, nil
	}
	ctx := context.Background()

	s, err := f.manager.Open(ctx, "delivery-note", "DN-0007")
	require.NoError(t, err)
	assert.Equal(t, "DN-0007", note(t, s).Name)

	// submitted documents are read-only
	err = s.Update(ctx, formValues)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeDocumentSubmitted, appErr.Code)
}

func TestSession_SubmittedRejectsTags(t *testing.T) {
	f := newFixture(t, "T1")
	f.repo.GetDocFunc = func(_ context.Context, _, name string) (any, error) {
		return map[string]any{
			"name": name, "docstatus": 1, "set_warehouse": "WH-A",
			"items": []any{map[string]any{"item_code": "GAS-12", "qty": 0}},
		}, nil
	}
	ctx := context.Background()
	require.NoError(t, f.reader.Init(ctx))

	s, err := f.manager.Open(ctx, "delivery-note", "DN-0007")
	require.NoError(t, err)

	_, err = s.AttachTag(ctx, "T1", journal.SourceManual)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeDocumentSubmitted, appErr.Code)

	_, err = s.Scan(ctx)
	appErr, ok = apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeDocumentSubmitted, appErr.Code)

	err = s.StartReading(ctx)
	appErr, ok = apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeDocumentSubmitted, appErr.Code)
	assert.False(t, f.reader.Reading())

	assert.Empty(t, note(t, s).RFIDs)
	assert.Empty(t, f.journal.all())
}

func TestSession_Close(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s := openNote(t, f, ctx)
	require.NoError(t, f.reader.Init(ctx))
	require.NoError(t, s.StartReading(ctx))
	assert.Equal(t, 1, f.reader.Len())
	assert.Equal(t, 1, f.manager.Len())

	require.NoError(t, f.manager.Close(ctx, s.ID.String()))
	s.Close()

	assert.Equal(t, 0, f.reader.Len())
	assert.Equal(t, 0, f.manager.Len())
	assert.False(t, f.reader.Reading())
	_, reading := f.manager.ReadingSession()
	assert.False(t, reading)

	_, err := s.AttachTag(ctx, "T1", journal.SourceManual)
	assert.True(t, apperror.IsNotFound(err))

	_, err = f.manager.Get(ctx, s.ID.String())
	assert.True(t, apperror.IsNotFound(err))
}

func TestManager_GetChecksOwner(t *testing.T) {
	f := newFixture(t)
	alice := appctx.WithUser(context.Background(), &appctx.UserContext{UserID: "alice@example.com"})
	bob := appctx.WithUser(context.Background(), &appctx.UserContext{UserID: "bob@example.com"})

	s, err := f.manager.Open(alice, "sales-order", "")
	require.NoError(t, err)

	_, err = f.manager.Get(alice, s.ID.String())
	require.NoError(t, err)

	_, err = f.manager.Get(bob, s.ID.String())
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeForbidden, appErr.Code)

	_, err = f.manager.Get(alice, "not-a-uuid")
	assert.True(t, apperror.IsNotFound(err))
}

func TestManager_OpenUnknownKind(t *testing.T) {
	f := newFixture(t)
	_, err := f.manager.Open(context.Background(), "journal-entry", "")
	assert.True(t, apperror.IsNotFound(err))
}

func TestSession_ScanWithDisabledReader(t *testing.T) {
	docs := documents.NewService(&domain.MockRepository{},
		documents.NewResolver(delivery_note.Kind()), nil)
	m := session.NewManager(session.Config{
		Documents: docs,
		Reader:    rfid.NewDisabled(errors.New("no device")),
	})
	defer m.CloseAll(context.Background())

	s, err := m.Open(context.Background(), "delivery-note", "")
	require.NoError(t, err)

	_, err = s.Scan(context.Background())
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeReaderUnavailable, appErr.Code)

	// without a catalog every manual scan is unknown
	res, err := s.AttachTag(context.Background(), "T1", journal.SourceManual)
	require.NoError(t, err)
	assert.Equal(t, reconcile.UnknownTag, res.Outcome)
}

func TestSession_ScanSingleRead(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s := openNote(t, f, ctx)

	_, err := s.Scan(ctx)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeReaderUnavailable, appErr.Code, "mock reader is not initialised")

	require.NoError(t, f.reader.Init(ctx))
	_, err = s.Scan(ctx)
	assert.True(t, apperror.IsNotFound(err), "mock reader has no tags")
}

func TestSession_ScanChecksDocumentBeforeReading(t *testing.T) {
	f := newFixture(t, "T1", "T2")
	ctx := context.Background()
	require.NoError(t, f.reader.Init(ctx))

	order, err := f.manager.Open(ctx, "sales-order", "")
	require.NoError(t, err)
	_, err = order.Scan(ctx)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeDocumentNotTagTracked, appErr.Code)

	// the rejected scan left the first tag on the reader
	s := openNote(t, f, ctx)
	res, err := s.Scan(ctx)
	require.NoError(t, err)
	assert.Equal(t, "T1", res.TagID)
	assert.Equal(t, reconcile.Attached, res.Outcome)
}

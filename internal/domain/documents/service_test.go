package documents_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rfidstock/internal/core/apperror"
	appctx "rfidstock/internal/core/context"
	"rfidstock/internal/core/entity"
	"rfidstock/internal/core/types"
	"rfidstock/internal/domain"
	"rfidstock/internal/domain/documents"
	"rfidstock/internal/domain/documents/delivery_note"
	"rfidstock/internal/domain/documents/material_request"
	"rfidstock/internal/domain/documents/purchase_receipt"
	"rfidstock/internal/domain/documents/sales_order"
	"rfidstock/internal/domain/documents/stock_entry"
	"rfidstock/internal/metadata"
)

func resolver() *documents.Resolver {
	return documents.NewResolver(
		material_request.Kind(),
		stock_entry.Kind(),
		sales_order.Kind(),
		delivery_note.Kind(),
		purchase_receipt.Kind(),
	)
}

type mapCache struct {
	mu sync.Mutex
	m  map[string][]string
}

func (c *mapCache) Get(key string) ([]string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.m[key]
	return v, ok
}

func (c *mapCache) Add(key string, names []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m[key] = names
}

func deliveryNote() *delivery_note.DeliveryNote {
	return &delivery_note.DeliveryNote{
		Company:           "ACME",
		Customer:          "Gas Station 7",
		Currency:          "VND",
		SellingPriceList:  "Standard Selling",
		PLCConversionRate: decimal.NewFromInt(1),
		SetWarehouse:      "Stores - A",
		Items: []entity.Line{
			{ItemCode: "GAS-12", Qty: types.QuantityFromCount(1), Rate: types.MustMoney("250000"), SerialNo: "TAG-1"},
		},
		RFIDs: []entity.LinkedTag{{Name: "TAG-1", RFIDTag: "TAG-1", Item: "GAS-12", GasSerialNo: "S-1"}},
	}
}

func TestResolver(t *testing.T) {
	r := resolver()

	k, err := r.Kind("delivery-note")
	require.NoError(t, err)
	assert.Equal(t, "Delivery Note", k.Doctype)
	assert.True(t, k.TagTracked())

	k, err = r.Kind("Sales Order")
	require.NoError(t, err)
	assert.False(t, k.TagTracked())

	_, err = r.Kind("journal-entry")
	assert.True(t, apperror.IsNotFound(err))

	kinds := r.Kinds()
	require.Len(t, kinds, 5)
	assert.Equal(t, "material-request", kinds[0].Slug)
}

func TestKind_Default(t *testing.T) {
	now := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)

	doc, err := material_request.Kind().Default(now)
	require.NoError(t, err)
	mr := doc.(*material_request.MaterialRequest)
	assert.Equal(t, "2026-05-01", mr.ScheduleDate)
	assert.Equal(t, material_request.TypeMaterialTransfer, mr.MaterialRequestType)
	assert.NotNil(t, mr.Items)
	assert.Empty(t, mr.Items)

	doc, err = delivery_note.Kind().Default(now)
	require.NoError(t, err)
	dn := doc.(*delivery_note.DeliveryNote)
	assert.True(t, dn.PLCConversionRate.Equal(decimal.NewFromInt(1)))
	assert.True(t, dn.IsNew())
}

func TestKind_DecodeRejectsMalformedValues(t *testing.T) {
	_, err := delivery_note.Kind().Decode(map[string]any{"items": "not a table"})
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeInvalidInput, appErr.Code)
}

func TestKind_Definition(t *testing.T) {
	def := stock_entry.Kind().Definition()
	assert.Equal(t, "Stock Entry", def.Name)
	assert.Equal(t, "stock-entry", def.Slug)
	assert.True(t, def.TagTracked)
	assert.False(t, sales_order.Kind().Definition().TagTracked)
}

func TestService_SaveCreatesDocument(t *testing.T) {
	var gotDoctype string
	var gotPayload map[string]any
	repo := &domain.MockRepository{
		CreateDocFunc: func(_ context.Context, doctype string, data any) (any, error) {
			gotDoctype = doctype
			gotPayload = data.(map[string]any)
			return map[string]any{"name": "DN-0001", "docstatus": 0, "customer": "Gas Station 7"}, nil
		},
	}
	svc := documents.NewService(repo, resolver(), nil)

	var afterSave string
	svc.Hooks().OnAfterSave(func(_ context.Context, doc documents.Doc) error {
		afterSave = doc.Header().Name
		return nil
	})

	saved, err := svc.Save(context.Background(), deliveryNote())
	require.NoError(t, err)

	assert.Equal(t, "Delivery Note", gotDoctype)
	assert.Equal(t, "DN-0001", saved.Header().Name)
	assert.Equal(t, "DN-0001", afterSave)

	items := gotPayload["items"].([]map[string]any)
	require.Len(t, items, 1)
	assert.Equal(t, "Stores - A", items[0]["warehouse"])
	assert.Equal(t, 1, items[0]["use_serial_batch_fields"])
	assert.Equal(t, "TAG-1", items[0]["serial_no"])

	rfids := gotPayload["rfids"].([]map[string]any)
	assert.Equal(t, []map[string]any{{"rfid_tag": "TAG-1", "item": "GAS-12", "gas_serial_no": "S-1"}}, rfids)
}

func TestService_SaveUpdatesExistingDraft(t *testing.T) {
	var updated string
	repo := &domain.MockRepository{
		UpdateDocFunc: func(_ context.Context, _, name string, _ any) (any, error) {
			updated = name
			return map[string]any{"name": name}, nil
		},
		CreateDocFunc: func(context.Context, string, any) (any, error) {
			t.Fatal("create must not be called")
			return nil, nil
		},
	}
	svc := documents.NewService(repo, resolver(), nil)

	doc := deliveryNote()
	doc.Name = "DN-0002"
	_, err := svc.Save(context.Background(), doc)
	require.NoError(t, err)
	assert.Equal(t, "DN-0002", updated)
}

func TestService_UpdateKeepsStoredHeader(t *testing.T) {
	var updated string
	stored := map[string]any{"name": "DN-0009", "docstatus": 0}
	repo := &domain.MockRepository{
		GetDocFunc: func(context.Context, string, string) (any, error) {
			return stored, nil
		},
		UpdateDocFunc: func(_ context.Context, _, name string, _ any) (any, error) {
			updated = name
			return map[string]any{"name": name}, nil
		},
	}
	svc := documents.NewService(repo, resolver(), nil)
	kind, _ := svc.Kind("delivery-note")

	values, err := metadata.ToValues(deliveryNote())
	require.NoError(t, err)
	values["name"] = "SOMETHING-ELSE"
	values["docstatus"] = 0

	_, err = svc.Update(context.Background(), kind, "DN-0009", values)
	require.NoError(t, err)
	assert.Equal(t, "DN-0009", updated)

	stored["docstatus"] = 1
	_, err = svc.Update(context.Background(), kind, "DN-0009", values)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeDocumentSubmitted, appErr.Code)
}

func TestService_SaveRejectsInvalidAndSubmitted(t *testing.T) {
	repo := &domain.MockRepository{
		CreateDocFunc: func(context.Context, string, any) (any, error) {
			t.Fatal("nothing must be sent")
			return nil, nil
		},
		UpdateDocFunc: func(context.Context, string, string, any) (any, error) {
			t.Fatal("nothing must be sent")
			return nil, nil
		},
	}
	svc := documents.NewService(repo, resolver(), nil)

	invalid := deliveryNote()
	invalid.Customer = ""
	_, err := svc.Save(context.Background(), invalid)
	assert.True(t, apperror.IsValidation(err))

	submitted := deliveryNote()
	submitted.Name = "DN-0003"
	submitted.DocStatus = entity.DocStatusSubmitted
	_, err = svc.Save(context.Background(), submitted)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeDocumentSubmitted, appErr.Code)
}

func TestService_SubmitSendsStoredDocument(t *testing.T) {
	var sent map[string]any
	repo := &domain.MockRepository{
		GetDocFunc: func(_ context.Context, doctype, name string) (any, error) {
			return map[string]any{"name": name, "docstatus": 0, "customer": "Gas Station 7", "items": []any{}}, nil
		},
		SubmitFunc: func(_ context.Context, doc map[string]any) (any, error) {
			sent = doc
			return map[string]any{"name": doc["name"], "docstatus": 1}, nil
		},
	}
	svc := documents.NewService(repo, resolver(), nil)
	kind, err := svc.Kind("sales-order")
	require.NoError(t, err)

	doc, err := svc.Submit(context.Background(), kind, "SO-0001")
	require.NoError(t, err)

	assert.Equal(t, entity.DocStatusSubmitted, doc.Header().DocStatus)
	assert.Equal(t, "Sales Order", sent["doctype"])
	assert.Equal(t, "Gas Station 7", sent["customer"])
}

func TestService_SubmitRejectsNonDraft(t *testing.T) {
	repo := &domain.MockRepository{
		GetDocFunc: func(context.Context, string, string) (any, error) {
			return map[string]any{"name": "SO-0001", "docstatus": 1}, nil
		},
		SubmitFunc: func(context.Context, map[string]any) (any, error) {
			t.Fatal("submit must not be called")
			return nil, nil
		},
	}
	svc := documents.NewService(repo, resolver(), nil)
	kind, _ := svc.Kind("sales-order")

	_, err := svc.Submit(context.Background(), kind, "SO-0001")
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeDocumentSubmitted, appErr.Code)
}

func TestService_DeleteDraft(t *testing.T) {
	var deleted string
	repo := &domain.MockRepository{
		GetDocFunc: func(_ context.Context, _, name string) (any, error) {
			return map[string]any{"name": name, "docstatus": 0}, nil
		},
		DeleteDocFunc: func(_ context.Context, _, name string) error {
			deleted = name
			return nil
		},
	}
	svc := documents.NewService(repo, resolver(), nil)
	kind, _ := svc.Kind("stock-entry")

	require.NoError(t, svc.Delete(context.Background(), kind, "STE-0001"))
	assert.Equal(t, "STE-0001", deleted)
}

func TestService_Recent(t *testing.T) {
	var mu sync.Mutex
	seen := map[string]domain.ListFilter{}
	repo := &domain.MockRepository{
		GetDocListFunc: func(_ context.Context, doctype string, f domain.ListFilter) (any, error) {
			mu.Lock()
			seen[doctype] = f
			mu.Unlock()
			return []map[string]any{{"name": doctype + "-1"}}, nil
		},
	}
	svc := documents.NewService(repo, resolver(), nil)

	feeds, err := svc.Recent(context.Background(), 0)
	require.NoError(t, err)

	require.Len(t, feeds, 4)
	assert.Equal(t, "material-request", feeds[0].Kind)
	assert.Equal(t, "stock-entry", feeds[1].Kind)
	assert.Equal(t, "sales-order", feeds[2].Kind)
	assert.Equal(t, "delivery-note", feeds[3].Kind)
	assert.Equal(t, "Delivery Note-1", feeds[3].Items[0]["name"])

	assert.NotContains(t, seen, "Purchase Receipt")
	f := seen["Sales Order"]
	assert.Equal(t, documents.DefaultRecentLimit, f.Limit)
	assert.Equal(t, "creation desc", f.OrderBy.String())
	assert.Equal(t, []string{"name", "customer", "delivery_date", "currency", "set_warehouse"}, f.Fields)
}

func TestService_RecentFailsWhenOneFeedFails(t *testing.T) {
	repo := &domain.MockRepository{
		GetDocListFunc: func(_ context.Context, doctype string, _ domain.ListFilter) (any, error) {
			if doctype == "Stock Entry" {
				return nil, apperror.NewRemote(500, "boom")
			}
			return []map[string]any{}, nil
		},
	}
	svc := documents.NewService(repo, resolver(), nil)

	_, err := svc.Recent(context.Background(), 3)
	assert.Error(t, err)
}

func TestService_MakeStockEntry(t *testing.T) {
	var created map[string]any
	repo := &domain.MockRepository{
		GetDocFunc: func(_ context.Context, doctype, name string) (any, error) {
			assert.Equal(t, "Material Request", doctype)
			return map[string]any{"name": name, "docstatus": 1}, nil
		},
		CallFunc: func(_ context.Context, method string, params map[string]any) (any, error) {
			assert.Equal(t, documents.MethodMakeStockEntry, method)
			assert.Equal(t, map[string]any{"source_name": "MR-0001"}, params)
			return map[string]any{"doctype": "Stock Entry", "stock_entry_type": "Material Transfer"}, nil
		},
		CreateDocFunc: func(_ context.Context, doctype string, data any) (any, error) {
			assert.Equal(t, "Stock Entry", doctype)
			created = data.(map[string]any)
			return map[string]any{"name": "STE-0009", "stock_entry_type": "Material Transfer"}, nil
		},
	}
	svc := documents.NewService(repo, resolver(), nil)

	doc, err := svc.MakeStockEntry(context.Background(), "MR-0001")
	require.NoError(t, err)
	assert.Equal(t, "STE-0009", doc.Header().Name)
	assert.Equal(t, "Material Transfer", created["stock_entry_type"])
}

func TestService_MakeDeliveryNoteRequiresSubmittedOrder(t *testing.T) {
	repo := &domain.MockRepository{
		GetDocFunc: func(_ context.Context, _, name string) (any, error) {
			return map[string]any{"name": name, "docstatus": 0}, nil
		},
		CallFunc: func(context.Context, string, map[string]any) (any, error) {
			t.Fatal("mapping must not be requested for a draft")
			return nil, nil
		},
	}
	svc := documents.NewService(repo, resolver(), nil)

	_, err := svc.MakeDeliveryNote(context.Background(), "SO-0001")
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeDocumentNotSubmitted, appErr.Code)
}

func TestService_MakeDeliveryNoteParams(t *testing.T) {
	repo := &domain.MockRepository{
		GetDocFunc: func(_ context.Context, _, name string) (any, error) {
			return map[string]any{"name": name, "docstatus": 1}, nil
		},
		CallFunc: func(_ context.Context, method string, params map[string]any) (any, error) {
			assert.Equal(t, documents.MethodMakeDeliveryNote, method)
			assert.Equal(t, "SO-0001", params["source_name"])
			args := params["args"].(map[string]any)
			assert.Equal(t, true, args["for_reserved_stock"])
			assert.Equal(t, map[string]any{}, params["selected_children"])
			return map[string]any{"customer": "Gas Station 7"}, nil
		},
		CreateDocFunc: func(context.Context, string, any) (any, error) {
			return map[string]any{"name": "DN-0042", "customer": "Gas Station 7"}, nil
		},
	}
	svc := documents.NewService(repo, resolver(), nil)

	doc, err := svc.MakeDeliveryNote(context.Background(), "SO-0001")
	require.NoError(t, err)
	dn := doc.(*delivery_note.DeliveryNote)
	assert.Equal(t, "DN-0042", dn.Name)
	assert.Equal(t, "Gas Station 7", dn.Customer)
}

func TestService_LinkedStockEntries(t *testing.T) {
	repo := &domain.MockRepository{
		CallFunc: func(_ context.Context, method string, params map[string]any) (any, error) {
			assert.Equal(t, documents.MethodReportView, method)
			assert.Equal(t, "Stock Entry", params["doctype"])
			assert.Equal(t, [][]string{{"Stock Entry Detail", "material_request", "=", "MR-0001"}}, params["filters"])
			return map[string]any{
				"keys": []string{"name", "docstatus", "purpose"},
				"values": [][]any{
					{"STE-0001", 1, "Material Transfer"},
					{"STE-0002", 0, "Material Transfer"},
					{"broken"},
				},
			}, nil
		},
	}
	svc := documents.NewService(repo, resolver(), nil)

	refs, err := svc.LinkedStockEntries(context.Background(), "MR-0001")
	require.NoError(t, err)
	assert.Equal(t, []documents.StockEntryRef{
		{Name: "STE-0001", DocStatus: entity.DocStatusSubmitted, Purpose: "Material Transfer"},
		{Name: "STE-0002", DocStatus: entity.DocStatusDraft, Purpose: "Material Transfer"},
	}, refs)
}

func TestService_LinkOptionsCachedPerUser(t *testing.T) {
	calls := 0
	repo := &domain.MockRepository{
		GetDocListFunc: func(_ context.Context, doctype string, f domain.ListFilter) (any, error) {
			calls++
			assert.Equal(t, "Warehouse", doctype)
			assert.Equal(t, documents.LinkOptionsLimit, f.Limit)
			return []map[string]any{{"name": "Stores - A"}, {"name": "Transit - A"}}, nil
		},
	}
	svc := documents.NewService(repo, resolver(), &mapCache{m: map[string][]string{}})

	alice := appctx.WithUser(context.Background(), &appctx.UserContext{UserID: "alice@example.com"})
	bob := appctx.WithUser(context.Background(), &appctx.UserContext{UserID: "bob@example.com"})

	names, err := svc.LinkOptions(alice, "Warehouse")
	require.NoError(t, err)
	assert.Equal(t, []string{"Stores - A", "Transit - A"}, names)

	_, err = svc.LinkOptions(alice, "Warehouse")
	require.NoError(t, err)
	assert.Equal(t, 1, calls)

	_, err = svc.LinkOptions(bob, "Warehouse")
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

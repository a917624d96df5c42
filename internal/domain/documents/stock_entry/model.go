// Package stock_entry provides the Stock Entry document: a transfer of
// tagged cylinders between two warehouses.
package stock_entry

import (
	"context"

	"rfidstock/internal/core/entity"
	"rfidstock/internal/domain/documents"
	"rfidstock/internal/metadata"
)

const (
	Doctype = "Stock Entry"
	Slug    = "stock-entry"

	TypeMaterialTransfer = "Material Transfer"
)

// StockEntry represents a stock movement.
type StockEntry struct {
	entity.Document

	Company        string `json:"company"`
	StockEntryType string `json:"stock_entry_type"`
	FromWarehouse  string `json:"from_warehouse"`
	ToWarehouse    string `json:"to_warehouse"`

	Items []entity.Line      `json:"items"`
	RFIDs []entity.LinkedTag `json:"rfids"`
}

var _ documents.Tracked = (*StockEntry)(nil)

func (d *StockEntry) Doctype() string { return Doctype }

// Validate implements entity.Validatable.
func (d *StockEntry) Validate(ctx context.Context) error {
	return metadata.ValidateStruct(ctx, Schema(), d)
}

// TagWarehouse: tags leave the source warehouse.
func (d *StockEntry) TagWarehouse() string { return d.FromWarehouse }

func (d *StockEntry) TagLines() entity.TagLines {
	return entity.TagLines{Items: d.Items, RFIDs: d.RFIDs}
}

func (d *StockEntry) SetTagLines(lines entity.TagLines) {
	d.Items = lines.Items
	d.RFIDs = lines.RFIDs
}

// Payload implements documents.Doc.
func (d *StockEntry) Payload() map[string]any {
	items := make([]map[string]any, 0, len(d.Items))
	for _, l := range d.Items {
		items = append(items, l.Row(map[string]any{
			"use_serial_batch_fields": 1,
			"s_warehouse":             d.FromWarehouse,
			"t_warehouse":             d.ToWarehouse,
		}, "item_code", "qty", "serial_no"))
	}

	return map[string]any{
		"company":          d.Company,
		"stock_entry_type": d.StockEntryType,
		"from_warehouse":   d.FromWarehouse,
		"to_warehouse":     d.ToWarehouse,
		"items":            items,
		"rfids":            d.TagLines().TagPayload(),
	}
}

// Kind registers the doctype with the document service.
func Kind() documents.Kind {
	return documents.Kind{
		Slug:         Slug,
		Doctype:      Doctype,
		Schema:       Schema(),
		ListFields:   []string{"name", "stock_entry_type", "from_warehouse", "to_warehouse", "docstatus", "creation"},
		RecentFields: []string{"name", "company", "stock_entry_type", "to_warehouse", "creation", "docstatus"},
		New:          func() documents.Doc { return &StockEntry{} },
	}
}

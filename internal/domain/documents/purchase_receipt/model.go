// Package purchase_receipt provides the Purchase Receipt document.
package purchase_receipt

import (
	"context"

	"rfidstock/internal/core/entity"
	"rfidstock/internal/core/types"
	"rfidstock/internal/domain/documents"
	"rfidstock/internal/metadata"
)

const (
	Doctype = "Purchase Receipt"
	Slug    = "purchase-receipt"
)

// PurchaseReceipt records goods received from a supplier into set_warehouse.
type PurchaseReceipt struct {
	entity.Document

	Company         string      `json:"company"`
	Supplier        string      `json:"supplier"`
	Currency        string      `json:"currency"`
	BuyingPriceList string      `json:"buying_price_list"`
	ConversionRate  types.Money `json:"conversion_rate"`
	SetWarehouse    string      `json:"set_warehouse"`

	Items []entity.Line      `json:"items"`
	RFIDs []entity.LinkedTag `json:"rfids"`
}

var _ documents.Tracked = (*PurchaseReceipt)(nil)

func (d *PurchaseReceipt) Doctype() string { return Doctype }

// Validate implements entity.Validatable.
func (d *PurchaseReceipt) Validate(ctx context.Context) error {
	return metadata.ValidateStruct(ctx, Schema(), d)
}

// TagWarehouse: received tags must already be registered to the receiving warehouse.
func (d *PurchaseReceipt) TagWarehouse() string { return d.SetWarehouse }

func (d *PurchaseReceipt) TagLines() entity.TagLines {
	return entity.TagLines{Items: d.Items, RFIDs: d.RFIDs}
}

func (d *PurchaseReceipt) SetTagLines(lines entity.TagLines) {
	d.Items = lines.Items
	d.RFIDs = lines.RFIDs
}

// Payload implements documents.Doc.
func (d *PurchaseReceipt) Payload() map[string]any {
	items := make([]map[string]any, 0, len(d.Items))
	for _, l := range d.Items {
		items = append(items, l.Row(map[string]any{
			"use_serial_batch_fields": 1,
			"warehouse":               d.SetWarehouse,
		}, "item_code", "qty", "rate", "serial_no"))
	}

	return map[string]any{
		"company":           d.Company,
		"supplier":          d.Supplier,
		"currency":          d.Currency,
		"buying_price_list": d.BuyingPriceList,
		"conversion_rate":   d.ConversionRate,
		"set_warehouse":     d.SetWarehouse,
		"items":             items,
		"rfids":             d.TagLines().TagPayload(),
	}
}

// Kind registers the doctype with the document service.
func Kind() documents.Kind {
	return documents.Kind{
		Slug:       Slug,
		Doctype:    Doctype,
		Schema:     Schema(),
		ListFields: []string{"name", "supplier", "set_warehouse", "docstatus", "creation"},
		New:        func() documents.Doc { return &PurchaseReceipt{} },
	}
}

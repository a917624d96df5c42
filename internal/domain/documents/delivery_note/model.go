// Package delivery_note provides the Delivery Note document.
// Goods leave set_warehouse; every delivered cylinder is identified by its RFID tag.
package delivery_note

import (
	"context"

	"rfidstock/internal/core/entity"
	"rfidstock/internal/core/types"
	"rfidstock/internal/domain/documents"
	"rfidstock/internal/metadata"
)

const (
	Doctype = "Delivery Note"
	Slug    = "delivery-note"
)

// DeliveryNote represents a delivery to a customer.
type DeliveryNote struct {
	entity.Document

	Company           string      `json:"company"`
	Customer          string      `json:"customer"`
	Currency          string      `json:"currency"`
	SellingPriceList  string      `json:"selling_price_list"`
	PLCConversionRate types.Money `json:"plc_conversion_rate"`

	// SetWarehouse is the source warehouse of every line
	SetWarehouse string `json:"set_warehouse"`

	Items []entity.Line      `json:"items"`
	RFIDs []entity.LinkedTag `json:"rfids"`
}

var _ documents.Tracked = (*DeliveryNote)(nil)

func (d *DeliveryNote) Doctype() string { return Doctype }

// Validate implements entity.Validatable.
func (d *DeliveryNote) Validate(ctx context.Context) error {
	return metadata.ValidateStruct(ctx, Schema(), d)
}

func (d *DeliveryNote) TagWarehouse() string { return d.SetWarehouse }

func (d *DeliveryNote) TagLines() entity.TagLines {
	return entity.TagLines{Items: d.Items, RFIDs: d.RFIDs}
}

func (d *DeliveryNote) SetTagLines(lines entity.TagLines) {
	d.Items = lines.Items
	d.RFIDs = lines.RFIDs
}

// Payload implements documents.Doc.
func (d *DeliveryNote) Payload() map[string]any {
	items := make([]map[string]any, 0, len(d.Items))
	for _, l := range d.Items {
		items = append(items, l.Row(map[string]any{
			"use_serial_batch_fields": 1,
			"warehouse":               d.SetWarehouse,
		}, "item_code", "qty", "rate", "serial_no"))
	}

	return map[string]any{
		"company":             d.Company,
		"customer":            d.Customer,
		"currency":            d.Currency,
		"selling_price_list":  d.SellingPriceList,
		"plc_conversion_rate": d.PLCConversionRate,
		"set_warehouse":       d.SetWarehouse,
		"items":               items,
		"rfids":               d.TagLines().TagPayload(),
	}
}

// Kind registers the doctype with the document service.
func Kind() documents.Kind {
	return documents.Kind{
		Slug:         Slug,
		Doctype:      Doctype,
		Schema:       Schema(),
		ListFields:   []string{"name", "customer", "set_warehouse", "docstatus", "creation"},
		RecentFields: []string{"name", "customer", "currency", "set_warehouse"},
		New:          func() documents.Doc { return &DeliveryNote{} },
	}
}

// Package sales_order provides the Sales Order document.
package sales_order

import (
	"context"

	"rfidstock/internal/core/entity"
	"rfidstock/internal/core/types"
	"rfidstock/internal/domain/documents"
	"rfidstock/internal/metadata"
)

const (
	Doctype = "Sales Order"
	Slug    = "sales-order"
)

// Order types accepted by the ERP.
const (
	OrderTypeSales        = "Sales"
	OrderTypeMaintenance  = "Maintenance"
	OrderTypeShoppingCart = "Shopping Cart"
)

// SalesOrder is a customer order; it is delivered through delivery notes.
type SalesOrder struct {
	entity.Document

	Company           string      `json:"company"`
	Customer          string      `json:"customer"`
	OrderType         string      `json:"order_type"`
	DeliveryDate      string      `json:"delivery_date"`
	SetWarehouse      string      `json:"set_warehouse"`
	Currency          string      `json:"currency"`
	SellingPriceList  string      `json:"selling_price_list"`
	PLCConversionRate types.Money `json:"plc_conversion_rate"`

	Items []entity.Line `json:"items"`
}

var _ documents.Doc = (*SalesOrder)(nil)

func (d *SalesOrder) Doctype() string { return Doctype }

// Validate implements entity.Validatable.
func (d *SalesOrder) Validate(ctx context.Context) error {
	return metadata.ValidateStruct(ctx, Schema(), d)
}

// Payload implements documents.Doc.
func (d *SalesOrder) Payload() map[string]any {
	items := make([]map[string]any, 0, len(d.Items))
	for _, l := range d.Items {
		items = append(items, l.Row(map[string]any{
			"warehouse": d.SetWarehouse,
		}, "item_code", "qty", "rate"))
	}

	return map[string]any{
		"company":             d.Company,
		"customer":            d.Customer,
		"order_type":          d.OrderType,
		"delivery_date":       d.DeliveryDate,
		"set_warehouse":       d.SetWarehouse,
		"currency":            d.Currency,
		"selling_price_list":  d.SellingPriceList,
		"plc_conversion_rate": d.PLCConversionRate,
		"items":               items,
	}
}

// Kind registers the doctype with the document service.
func Kind() documents.Kind {
	return documents.Kind{
		Slug:         Slug,
		Doctype:      Doctype,
		Schema:       Schema(),
		ListFields:   []string{"name", "customer", "delivery_date", "status", "docstatus", "creation"},
		RecentFields: []string{"name", "customer", "delivery_date", "currency", "set_warehouse"},
		New:          func() documents.Doc { return &SalesOrder{} },
	}
}

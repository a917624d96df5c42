// Package kinds lists every supported document kind.
package kinds

import (
	"rfidstock/internal/domain/documents"
	"rfidstock/internal/domain/documents/delivery_note"
	"rfidstock/internal/domain/documents/material_request"
	"rfidstock/internal/domain/documents/purchase_receipt"
	"rfidstock/internal/domain/documents/sales_order"
	"rfidstock/internal/domain/documents/stock_entry"
	"rfidstock/internal/metadata"
)

// All returns the supported kinds in home screen order.
func All() *documents.Resolver {
	return documents.NewResolver(
		material_request.Kind(),
		stock_entry.Kind(),
		sales_order.Kind(),
		delivery_note.Kind(),
		purchase_receipt.Kind(),
	)
}

// Registry registers the form definition of every kind in r.
func Registry(r *documents.Resolver) *metadata.Registry {
	reg := metadata.NewRegistry()
	for _, k := range r.Kinds() {
		reg.Register(k.Definition())
	}
	return reg
}

// Package material_request provides the Material Request document.
// Quantities are entered by hand; requests are fulfilled by stock entries.
package material_request

import (
	"context"

	"rfidstock/internal/core/entity"
	"rfidstock/internal/domain/documents"
	"rfidstock/internal/metadata"
)

const (
	Doctype = "Material Request"
	Slug    = "material-request"

	TypeMaterialTransfer = "Material Transfer"
)

// MaterialRequest asks for goods to be moved between warehouses.
type MaterialRequest struct {
	entity.Document

	Company             string `json:"company"`
	MaterialRequestType string `json:"material_request_type"`
	ScheduleDate        string `json:"schedule_date"`
	SetFromWarehouse    string `json:"set_from_warehouse"`
	SetWarehouse        string `json:"set_warehouse"`

	Items []entity.Line `json:"items"`
}

var _ documents.Doc = (*MaterialRequest)(nil)

func (d *MaterialRequest) Doctype() string { return Doctype }

// Validate implements entity.Validatable.
func (d *MaterialRequest) Validate(ctx context.Context) error {
	return metadata.ValidateStruct(ctx, Schema(), d)
}

// Payload implements documents.Doc.
func (d *MaterialRequest) Payload() map[string]any {
	items := make([]map[string]any, 0, len(d.Items))
	for _, l := range d.Items {
		items = append(items, l.Row(map[string]any{
			"from_warehouse": d.SetFromWarehouse,
			"warehouse":      d.SetWarehouse,
		}, "item_code", "qty"))
	}

	return map[string]any{
		"company":               d.Company,
		"material_request_type": d.MaterialRequestType,
		"schedule_date":         d.ScheduleDate,
		"set_from_warehouse":    d.SetFromWarehouse,
		"set_warehouse":         d.SetWarehouse,
		"items":                 items,
	}
}

// Kind registers the doctype with the document service.
func Kind() documents.Kind {
	return documents.Kind{
		Slug:         Slug,
		Doctype:      Doctype,
		Schema:       Schema(),
		ListFields:   []string{"name", "material_request_type", "schedule_date", "status", "docstatus", "creation"},
		RecentFields: []string{"name", "company", "material_request_type", "schedule_date", "creation", "docstatus"},
		New:          func() documents.Doc { return &MaterialRequest{} },
	}
}

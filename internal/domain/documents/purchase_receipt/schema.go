package purchase_receipt

import "rfidstock/internal/metadata"

// Schema returns the form definition.
func Schema() metadata.EntityDef {
	return metadata.EntityDef{
		Name:  Doctype,
		Label: "Purchase Receipt",
		Slug:  Slug,
		Fields: []metadata.FieldDef{
			{Label: "Company", FieldName: "company", Type: metadata.TypeLink, Doctype: "Company", Required: true},
			{Label: "Supplier", FieldName: "supplier", Type: metadata.TypeLink, Doctype: "Supplier", Required: true},
			{Label: "Currency", FieldName: "currency", Type: metadata.TypeLink, Doctype: "Currency", Required: true},
			{Label: "Price List", FieldName: "buying_price_list", Type: metadata.TypeLink, Doctype: "Price List"},
			{Label: "Exchange Rate", FieldName: "conversion_rate", Type: metadata.TypeInt, Default: 1, Required: true},
			{Label: "Accepted Warehouse", FieldName: "set_warehouse", Type: metadata.TypeLink, Doctype: "Warehouse", Required: true},
			{
				Label: "Items", FieldName: "items", Type: metadata.TypeChildTable, Doctype: "Purchase Receipt Item", Required: true,
				ChildFields: []metadata.FieldDef{
					{Label: "Item Code", FieldName: "item_code", Type: metadata.TypeLink, Doctype: "Item", Required: true},
					{Label: "Quantity", FieldName: "qty", Type: metadata.TypeInt, Required: true},
					{Label: "Rate", FieldName: "rate", Type: metadata.TypeFloat, Required: true},
					{Label: "Serial No", FieldName: "serial_no", Type: metadata.TypeChar, Hidden: true, Required: true},
				},
			},
		},
	}
}

package stock_entry

import "rfidstock/internal/metadata"

// Schema returns the form definition.
func Schema() metadata.EntityDef {
	return metadata.EntityDef{
		Name:  Doctype,
		Label: "Stock Entry",
		Slug:  Slug,
		Fields: []metadata.FieldDef{
			{Label: "Company", FieldName: "company", Type: metadata.TypeLink, Doctype: "Company", Required: true},
			{Label: "Stock Entry Type", FieldName: "stock_entry_type", Type: metadata.TypeLink, Doctype: "Stock Entry Type", Default: TypeMaterialTransfer, Required: true},
			{Label: "Default Source Warehouse", FieldName: "from_warehouse", Type: metadata.TypeLink, Doctype: "Warehouse", Required: true},
			{Label: "Default Target Warehouse", FieldName: "to_warehouse", Type: metadata.TypeLink, Doctype: "Warehouse", Required: true},
			{
				Label: "Items", FieldName: "items", Type: metadata.TypeChildTable, Doctype: "Stock Entry Detail", Required: true,
				ChildFields: []metadata.FieldDef{
					{Label: "Item Code", FieldName: "item_code", Type: metadata.TypeLink, Doctype: "Item", Required: true},
					{Label: "Quantity", FieldName: "qty", Type: metadata.TypeInt, Required: true},
					{Label: "Serial No", FieldName: "serial_no", Type: metadata.TypeChar, Hidden: true, Required: true},
				},
			},
		},
	}
}

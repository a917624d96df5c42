package material_request

import "rfidstock/internal/metadata"

// Schema returns the form definition.
func Schema() metadata.EntityDef {
	return metadata.EntityDef{
		Name:  Doctype,
		Label: "Material Request",
		Slug:  Slug,
		Fields: []metadata.FieldDef{
			{Label: "Company", FieldName: "company", Type: metadata.TypeLink, Doctype: "Company", Required: true},
			{
				Label: "Purpose", FieldName: "material_request_type", Type: metadata.TypeSelect,
				Options:  []metadata.Option{{Label: TypeMaterialTransfer, Value: TypeMaterialTransfer}},
				Default:  TypeMaterialTransfer,
				ReadOnly: true,
				Required: true,
			},
			{Label: "Required By", FieldName: "schedule_date", Type: metadata.TypeDate, Default: metadata.DefaultToday, Required: true},
			{Label: "Set From Warehouse", FieldName: "set_from_warehouse", Type: metadata.TypeLink, Doctype: "Warehouse", Required: true},
			{Label: "Set Target Warehouse", FieldName: "set_warehouse", Type: metadata.TypeLink, Doctype: "Warehouse", Required: true},
			{
				Label: "Items", FieldName: "items", Type: metadata.TypeChildTable, Doctype: "Material Request Item", Required: true,
				ChildFields: []metadata.FieldDef{
					{Label: "Item Code", FieldName: "item_code", Type: metadata.TypeLink, Doctype: "Item", Required: true},
					{Label: "Quantity", FieldName: "qty", Type: metadata.TypeInt, Required: true},
				},
			},
		},
	}
}

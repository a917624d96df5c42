package sales_order

import "rfidstock/internal/metadata"

// Schema returns the form definition.
func Schema() metadata.EntityDef {
	return metadata.EntityDef{
		Name:  Doctype,
		Label: "Sales Order",
		Slug:  Slug,
		Fields: []metadata.FieldDef{
			{Label: "Company", FieldName: "company", Type: metadata.TypeLink, Doctype: "Company", Required: true},
			{Label: "Customer", FieldName: "customer", Type: metadata.TypeLink, Doctype: "Customer", Required: true},
			{
				Label: "Order Type", FieldName: "order_type", Type: metadata.TypeSelect, Required: true,
				Options: []metadata.Option{
					{Label: OrderTypeSales, Value: OrderTypeSales},
					{Label: OrderTypeMaintenance, Value: OrderTypeMaintenance},
					{Label: OrderTypeShoppingCart, Value: OrderTypeShoppingCart},
				},
			},
			{Label: "Delivery Date", FieldName: "delivery_date", Type: metadata.TypeDate, Default: metadata.DefaultToday, Required: true},
			{Label: "Set Source Warehouse", FieldName: "set_warehouse", Type: metadata.TypeLink, Doctype: "Warehouse", Required: true},
			{Label: "Currency", FieldName: "currency", Type: metadata.TypeLink, Doctype: "Currency", Required: true},
			{Label: "Price List", FieldName: "selling_price_list", Type: metadata.TypeLink, Doctype: "Price List", Required: true},
			{Label: "Price List Exchange Rate", FieldName: "plc_conversion_rate", Type: metadata.TypeInt, Required: true},
			{
				Label: "Items", FieldName: "items", Type: metadata.TypeChildTable, Doctype: "Sales Order Item", Required: true,
				ChildFields: []metadata.FieldDef{
					{Label: "Item Code", FieldName: "item_code", Type: metadata.TypeLink, Doctype: "Item", Required: true},
					{Label: "Quantity", FieldName: "qty", Type: metadata.TypeInt, Required: true},
					{Label: "Rate", FieldName: "rate", Type: metadata.TypeFloat, Required: true},
				},
			},
		},
	}
}

package entity

import (
	"rfidstock/internal/core/types"
)

// Line is one item row of a document's "items" child table.
type Line struct {
	// Name is the child row id assigned by the ERP
	Name     string         `json:"name,omitempty"`
	ItemCode string         `json:"item_code"`
	Qty      types.Quantity `json:"qty"`
	Rate     types.Money    `json:"rate"`
	// SerialNo is the newline-separated serial text of the line
	SerialNo string `json:"serial_no"`
}

// LinkedTag is one row of a document's "rfids" child table.
type LinkedTag struct {
	Name        string `json:"name,omitempty"`
	RFIDTag     string `json:"rfid_tag"`
	Item        string `json:"item"`
	GasSerialNo string `json:"gas_serial_no"`
}

// TagLines groups the item table and the linked-tag table of a tag-tracked document.
type TagLines struct {
	Items []Line      `json:"items"`
	RFIDs []LinkedTag `json:"rfids"`
}

// Clone returns a deep copy; the two values share no backing arrays.
func (t TagLines) Clone() TagLines {
	out := TagLines{
		Items: make([]Line, len(t.Items)),
		RFIDs: make([]LinkedTag, len(t.RFIDs)),
	}
	copy(out.Items, t.Items)
	copy(out.RFIDs, t.RFIDs)
	return out
}

// HasTag reports whether tagID is already linked.
func (t TagLines) HasTag(tagID string) bool {
	for _, r := range t.RFIDs {
		if r.RFIDTag == tagID {
			return true
		}
	}
	return false
}

// HasItem reports whether some item row carries itemCode.
func (t TagLines) HasItem(itemCode string) bool {
	for _, l := range t.Items {
		if l.ItemCode == itemCode {
			return true
		}
	}
	return false
}

// TagPayload renders linked tags the way the ERP expects them on save
// (row names are left for the server to assign).
func (t TagLines) TagPayload() []map[string]any {
	rows := make([]map[string]any, 0, len(t.RFIDs))
	for _, r := range t.RFIDs {
		rows = append(rows, map[string]any{
			"rfid_tag":      r.RFIDTag,
			"item":          r.Item,
			"gas_serial_no": r.GasSerialNo,
		})
	}
	return rows
}

// Row renders the line as an ERP child row with the given columns
// (item_code, qty, rate, serial_no); extra is merged in.
func (l Line) Row(extra map[string]any, columns ...string) map[string]any {
	row := make(map[string]any, len(columns)+len(extra))
	for _, c := range columns {
		switch c {
		case "item_code":
			row[c] = l.ItemCode
		case "qty":
			row[c] = l.Qty
		case "rate":
			row[c] = l.Rate
		case "serial_no":
			row[c] = l.SerialNo
		}
	}
	for k, v := range extra {
		row[k] = v
	}
	return row
}

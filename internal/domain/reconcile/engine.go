// Package reconcile attaches scanned RFID tags to document lines and
// re-derives line quantities and serial numbers from the linked tags.
//
// Every function is pure: inputs are never mutated, results share no
// backing arrays with them.
package reconcile

import (
	"strings"

	"rfidstock/internal/core/entity"
	"rfidstock/internal/core/types"
	"rfidstock/internal/domain/tagcatalog"
)

// Outcome explains what AttachTag did with a scan.
type Outcome string

const (
	Attached          Outcome = "attached"
	UnknownTag        Outcome = "unknown_tag"
	AlreadyLinked     Outcome = "already_linked"
	WarehouseMismatch Outcome = "warehouse_mismatch"
	ItemNotInDocument Outcome = "item_not_in_document"
)

// Applied reports whether the scan changed the lines.
func (o Outcome) Applied() bool {
	return o == Attached
}

// AttachTag links tagID to lines when the catalog places the tag in warehouse
// and its item is one of the document items. Otherwise lines are returned
// unchanged together with the reason.
func AttachTag(tagID, warehouse string, lines entity.TagLines, catalog *tagcatalog.Catalog) (entity.TagLines, Outcome) {
	entry, ok := catalog.Lookup(tagID)
	if !ok {
		return lines, UnknownTag
	}
	if lines.HasTag(tagID) {
		return lines, AlreadyLinked
	}
	if entry.Warehouse != warehouse {
		return lines, WarehouseMismatch
	}
	if !lines.HasItem(entry.Item) {
		return lines, ItemNotInDocument
	}

	out := lines.Clone()
	out.RFIDs = append(out.RFIDs, entity.LinkedTag{
		Name:        tagID,
		RFIDTag:     tagID,
		Item:        entry.Item,
		GasSerialNo: entry.GasSerialNo,
	})
	recompute(&out)
	return out, Attached
}

// SetLinkedTags replaces the linked tags wholesale and re-derives the items.
// No placement checks are made.
func SetLinkedTags(tags []entity.LinkedTag, lines entity.TagLines) entity.TagLines {
	out := entity.TagLines{
		Items: make([]entity.Line, len(lines.Items)),
		RFIDs: make([]entity.LinkedTag, len(tags)),
	}
	copy(out.Items, lines.Items)
	copy(out.RFIDs, tags)
	recompute(&out)
	return out
}

// Recompute re-derives quantities and serial text of a copy of lines.
func Recompute(lines entity.TagLines) entity.TagLines {
	out := lines.Clone()
	recompute(&out)
	return out
}

// recompute sets qty to the number of tags linked to the item code and
// serial_no to their ids in link order. Rows sharing an item code get the same values.
func recompute(lines *entity.TagLines) {
	byItem := make(map[string][]string, len(lines.Items))
	for _, tag := range lines.RFIDs {
		byItem[tag.Item] = append(byItem[tag.Item], tag.RFIDTag)
	}

	for i := range lines.Items {
		ids := byItem[lines.Items[i].ItemCode]
		lines.Items[i].Qty = types.QuantityFromCount(len(ids))
		lines.Items[i].SerialNo = strings.Join(ids, "\n")
	}
}

package dto

import (
	"rfidstock/internal/core/entity"
)

// OpenSessionRequest starts editing a document; Name empty means a new one.
type OpenSessionRequest struct {
	Kind string `json:"kind" binding:"required"`
	Name string `json:"name"`
}

// AttachTagRequest is a manually entered or client-read tag id.
type AttachTagRequest struct {
	TagID string `json:"tag_id" binding:"required"`
}

// LinkedTagRequest is one row of a bulk linked-tag replacement.
type LinkedTagRequest struct {
	RFIDTag     string `json:"rfid_tag" binding:"required"`
	Item        string `json:"item" binding:"required"`
	GasSerialNo string `json:"gas_serial_no"`
}

// ToLinkedTags converts the request rows; the row name is the tag id.
func ToLinkedTags(rows []LinkedTagRequest) []entity.LinkedTag {
	tags := make([]entity.LinkedTag, 0, len(rows))
	for _, r := range rows {
		tags = append(tags, entity.LinkedTag{
			Name:        r.RFIDTag,
			RFIDTag:     r.RFIDTag,
			Item:        r.Item,
			GasSerialNo: r.GasSerialNo,
		})
	}
	return tags
}

// DocumentResponse wraps a stored document.
type DocumentResponse struct {
	Doctype string `json:"doctype"`
	Name    string `json:"name"`
	Record  any    `json:"record"`
}

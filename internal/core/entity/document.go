// Package entity holds the building blocks shared by every ERP document type.
package entity

import (
	"context"

	"rfidstock/internal/core/apperror"
)

// Validatable is implemented by documents that support self-validation.
// Validation checks internal invariants without calling the ERP.
type Validatable interface {
	Validate(ctx context.Context) error
}

// DocStatus is the ERP lifecycle state of a document.
type DocStatus int

const (
	DocStatusDraft     DocStatus = 0
	DocStatusSubmitted DocStatus = 1
	DocStatusCancelled DocStatus = 2
)

func (s DocStatus) String() string {
	switch s {
	case DocStatusDraft:
		return "draft"
	case DocStatusSubmitted:
		return "submitted"
	case DocStatusCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Document is the header every ERP document carries.
type Document struct {
	// Name is the server-assigned identifier; empty until the document is created
	Name string `json:"name,omitempty"`

	// DocStatus is 0 while the document can still be edited
	DocStatus DocStatus `json:"docstatus"`

	// Modified is the server timestamp used by the ERP for its own optimistic locking
	Modified string `json:"modified,omitempty"`
}

// Header returns the document header (lets every document type satisfy one interface).
func (d *Document) Header() *Document {
	return d
}

// IsNew reports whether the document has not been created on the server yet.
func (d *Document) IsNew() bool {
	return d.Name == ""
}

// CanModify checks if document can still be edited.
func (d *Document) CanModify(doctype string) error {
	if d.DocStatus != DocStatusDraft {
		return apperror.NewDocumentSubmitted(doctype, d.Name).
			WithDetail("docstatus", d.DocStatus.String())
	}
	return nil
}

// Package documents provides the generic document service shared by every
// ERP workflow type (material requests, stock entries, sales orders,
// delivery notes and purchase receipts).
package documents

import (
	"encoding/json"
	"fmt"
	"time"

	"rfidstock/internal/core/apperror"
	"rfidstock/internal/core/entity"
	"rfidstock/internal/metadata"
)

// Doc is one ERP document of a known doctype.
type Doc interface {
	entity.Validatable

	// Doctype returns the ERP doctype name
	Doctype() string

	Header() *entity.Document

	// Payload renders the fields sent on create and update
	Payload() map[string]any
}

// Tracked is a document whose item quantities are derived from linked RFID tags.
type Tracked interface {
	Doc

	// TagWarehouse is the warehouse every attached tag must belong to
	TagWarehouse() string

	TagLines() entity.TagLines
	SetTagLines(lines entity.TagLines)
}

// Kind describes one workflow type.
type Kind struct {
	// Slug is the URL segment (e.g. "delivery-note")
	Slug    string
	Doctype string
	Schema  metadata.EntityDef

	// ListFields are requested by List when the caller names none
	ListFields []string

	// RecentFields puts the kind on the home feed when non-empty
	RecentFields []string

	// New returns an empty document
	New func() Doc
}

// TagTracked reports whether documents of this kind are tag-tracked.
func (k Kind) TagTracked() bool {
	_, ok := k.New().(Tracked)
	return ok
}

// Default builds a new document filled with the form defaults.
func (k Kind) Default(now time.Time) (Doc, error) {
	return k.Decode(metadata.Defaults(k.Schema, now))
}

// Decode converts form values into a document of this kind.
func (k Kind) Decode(values map[string]any) (Doc, error) {
	b, err := json.Marshal(values)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", k.Doctype, err)
	}
	doc := k.New()
	if err := json.Unmarshal(b, doc); err != nil {
		return nil, apperror.NewInvalidInput(fmt.Sprintf("malformed %s", k.Doctype)).WithCause(err)
	}
	return doc, nil
}

// Definition returns the form definition with the tracking flag filled in.
func (k Kind) Definition() metadata.EntityDef {
	def := k.Schema
	def.Name = k.Doctype
	def.Slug = k.Slug
	def.TagTracked = k.TagTracked()
	return def
}

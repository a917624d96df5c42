// Package tagcatalog holds the registry of known RFID tags loaded from the ERP.
package tagcatalog

import (
	"context"
	"fmt"

	"rfidstock/internal/domain"
)

// Doctype is the ERP doctype backing the catalog.
const Doctype = "RFID Tag"

// FetchLimit caps how many tags one load reads.
const FetchLimit = 10000

// Entry is a catalog record describing one physical tag.
type Entry struct {
	// Name is the tag id (the EPC)
	Name        string `json:"name"`
	Item        string `json:"item"`
	GasSerialNo string `json:"gas_serial_no"`
	Warehouse   string `json:"warehouse"`
}

// Catalog is an immutable index of entries by tag id.
// The zero value and a nil *Catalog behave as an empty catalog.
type Catalog struct {
	byID map[string]Entry
}

// New indexes entries. Later duplicates win.
func New(entries []Entry) *Catalog {
	c := &Catalog{byID: make(map[string]Entry, len(entries))}
	for _, e := range entries {
		if e.Name == "" {
			continue
		}
		c.byID[e.Name] = e
	}
	return c
}

// Lookup returns the entry for tagID.
func (c *Catalog) Lookup(tagID string) (Entry, bool) {
	if c == nil {
		return Entry{}, false
	}
	e, ok := c.byID[tagID]
	return e, ok
}

// Len returns the number of indexed tags.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.byID)
}

// Load fetches the whole catalog from the ERP.
func Load(ctx context.Context, repo domain.DocumentRepository) (*Catalog, error) {
	f := domain.ListFilter{
		Fields: []string{"name", "item", "gas_serial_no", "warehouse"},
		Limit:  FetchLimit,
	}

	var entries []Entry
	if err := repo.GetDocList(ctx, Doctype, f, &entries); err != nil {
		return nil, fmt.Errorf("load tag catalog: %w", err)
	}
	return New(entries), nil
}

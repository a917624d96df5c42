// Package domain provides core business logic interfaces and types.
package domain

import (
	"context"

	"rfidstock/internal/domain/filter"
)

// --- Filter & Pagination ---

// ListFilter contains common filtering options for list operations.
type ListFilter struct {
	// Fields limits the returned columns; empty means the doctype's list fields
	Fields []string

	// Search matches document names containing the string
	Search string

	// AdvancedFilters are passed to the ERP as-is
	AdvancedFilters []filter.Item

	// OrderBy specifies sorting (e.g. "-creation")
	OrderBy filter.Order

	// Pagination
	Limit  int
	Offset int
}

// DefaultListFilter returns sensible defaults.
func DefaultListFilter() ListFilter {
	return ListFilter{
		Limit:   20,
		OrderBy: filter.Order{Field: "creation", Desc: true},
	}
}

// Filters returns AdvancedFilters plus the search condition.
func (f ListFilter) Filters() []filter.Item {
	items := make([]filter.Item, 0, len(f.AdvancedFilters)+1)
	items = append(items, f.AdvancedFilters...)
	if f.Search != "" {
		items = append(items, filter.Contains("name", f.Search))
	}
	return items
}

// ListResult contains paginated results.
type ListResult[T any] struct {
	Items  []T `json:"items"`
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

// --- Repository Interfaces ---

// DocumentRepository is the remote document store (the ERP resource and method API).
// Decoding targets (out) may be nil when the caller ignores the response.
type DocumentRepository interface {
	// GetDocList lists documents of a doctype; out must point to a slice
	GetDocList(ctx context.Context, doctype string, f ListFilter, out any) error

	// GetDoc fetches one document with its child tables
	GetDoc(ctx context.Context, doctype, name string, out any) error

	// CreateDoc inserts a document and decodes the stored version
	CreateDoc(ctx context.Context, doctype string, data any, out any) error

	// UpdateDoc overwrites the given fields of an existing document
	UpdateDoc(ctx context.Context, doctype, name string, data any, out any) error

	DeleteDoc(ctx context.Context, doctype, name string) error

	// Submit moves a draft to docstatus 1; doc must carry doctype and name
	Submit(ctx context.Context, doc map[string]any, out any) error

	// Call invokes a whitelisted server method with query parameters (GET)
	Call(ctx context.Context, method string, params map[string]any, out any) error

	// Post invokes a whitelisted server method with a JSON body
	Post(ctx context.Context, method string, body any, out any) error
}

// --- Hooks ---

// HookEvent represents lifecycle event type.
type HookEvent string

const (
	BeforeSave   HookEvent = "before_save"
	AfterSave    HookEvent = "after_save"
	AfterSubmit  HookEvent = "after_submit"
	BeforeDelete HookEvent = "before_delete"
	AfterDelete  HookEvent = "after_delete"
)

// Hook is a function that runs at specific lifecycle points.
type Hook[T any] func(ctx context.Context, entity T) error

// HookRegistry stores lifecycle hooks for an entity type.
type HookRegistry[T any] struct {
	hooks map[HookEvent][]Hook[T]
}

// NewHookRegistry creates an empty hook registry.
func NewHookRegistry[T any]() *HookRegistry[T] {
	return &HookRegistry[T]{
		hooks: make(map[HookEvent][]Hook[T]),
	}
}

// On registers a hook for the specified event.
func (r *HookRegistry[T]) On(event HookEvent, hook Hook[T]) {
	r.hooks[event] = append(r.hooks[event], hook)
}

// Run executes all hooks for the specified event, stopping at the first error.
func (r *HookRegistry[T]) Run(ctx context.Context, event HookEvent, entity T) error {
	for _, hook := range r.hooks[event] {
		if err := hook(ctx, entity); err != nil {
			return err
		}
	}
	return nil
}

// OnBeforeSave registers a hook to run before create or update.
func (r *HookRegistry[T]) OnBeforeSave(hook Hook[T]) {
	r.On(BeforeSave, hook)
}

// OnAfterSave registers a hook to run after create or update.
func (r *HookRegistry[T]) OnAfterSave(hook Hook[T]) {
	r.On(AfterSave, hook)
}

// OnAfterSubmit registers a hook to run after a successful submit.
func (r *HookRegistry[T]) OnAfterSubmit(hook Hook[T]) {
	r.On(AfterSubmit, hook)
}

// OnAfterDelete registers a hook to run after delete.
func (r *HookRegistry[T]) OnAfterDelete(hook Hook[T]) {
	r.On(AfterDelete, hook)
}

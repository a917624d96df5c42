// Package metadata describes document forms: which fields a doctype has,
// their defaults and which of them are required.
package metadata

import (
	"sort"
	"sync"
)

// FieldType defines the widget/data type of a field.
type FieldType string

const (
	TypeChar       FieldType = "char"
	TypeInt        FieldType = "int"
	TypeFloat      FieldType = "float"
	TypeSelect     FieldType = "select"
	TypeDate       FieldType = "date"
	TypeDatetime   FieldType = "datetime"
	TypeLink       FieldType = "link"
	TypeChildTable FieldType = "child_table"
)

// DefaultToday is replaced by the current date when defaults are built.
const DefaultToday = "Today"

// EntityDef describes the form of one doctype.
type EntityDef struct {
	// Name is the ERP doctype
	Name  string `json:"name"`
	Label string `json:"label,omitempty"`
	// Slug is the URL segment used by the HTTP API
	Slug       string     `json:"slug"`
	TagTracked bool       `json:"tag_tracked"`
	Fields     []FieldDef `json:"fields"`
}

// Option is one choice of a select field.
type Option struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// FieldDef describes a field.
type FieldDef struct {
	Label     string    `json:"label"`
	FieldName string    `json:"field_name"`
	Type      FieldType `json:"type"`
	// Doctype is the link target or the child table doctype
	Doctype     string     `json:"doctype,omitempty"`
	Options     []Option   `json:"options,omitempty"`
	Default     any        `json:"default,omitempty"`
	Hidden      bool       `json:"hidden,omitempty"`
	ReadOnly    bool       `json:"readonly,omitempty"`
	Required    bool       `json:"required,omitempty"`
	ChildFields []FieldDef `json:"child_fields,omitempty"`
}

// Field returns the top level field with the given name.
func (d EntityDef) Field(name string) (FieldDef, bool) {
	for _, f := range d.Fields {
		if f.FieldName == name {
			return f, true
		}
	}
	return FieldDef{}, false
}

// LinkTargets returns every doctype referenced by link fields, child columns included.
func (d EntityDef) LinkTargets() []string {
	seen := map[string]struct{}{}
	var walk func(fields []FieldDef)
	walk = func(fields []FieldDef) {
		for _, f := range fields {
			if f.Type == TypeLink && f.Doctype != "" {
				seen[f.Doctype] = struct{}{}
			}
			walk(f.ChildFields)
		}
	}
	walk(d.Fields)

	out := make([]string, 0, len(seen))
	for k := range seen {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Registry stores entity definitions.
type Registry struct {
	mu       sync.RWMutex
	entities map[string]EntityDef
}

func NewRegistry() *Registry {
	return &Registry{
		entities: make(map[string]EntityDef),
	}
}

func (r *Registry) Register(def EntityDef) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entities[def.Name] = def
}

// Get looks a definition up by doctype or by slug.
func (r *Registry) Get(name string) (EntityDef, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if d, ok := r.entities[name]; ok {
		return d, true
	}
	for _, d := range r.entities {
		if d.Slug == name {
			return d, true
		}
	}
	return EntityDef{}, false
}

// List returns all definitions ordered by doctype.
func (r *Registry) List() []EntityDef {
	r.mu.RLock()
	defer r.mu.RUnlock()
	list := make([]EntityDef, 0, len(r.entities))
	for _, def := range r.entities {
		list = append(list, def)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
	return list
}

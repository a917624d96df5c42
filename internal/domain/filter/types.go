// Package filter describes list filters in the shape the ERP resource API accepts.
package filter

import "encoding/json"

// ComparisonType is an ERP filter operator.
type ComparisonType string

const (
	Equal          ComparisonType = "="
	NotEqual       ComparisonType = "!="
	Less           ComparisonType = "<"
	Greater        ComparisonType = ">"
	LessOrEqual    ComparisonType = "<="
	GreaterOrEqual ComparisonType = ">="
	InList         ComparisonType = "in"
	NotInList      ComparisonType = "not in"
	Like           ComparisonType = "like"
	NotLike        ComparisonType = "not like"
	IsSet          ComparisonType = "is"
)

// Item is one filter condition.
type Item struct {
	// Doctype qualifies Field with a child table doctype ("Stock Entry Detail").
	// Empty means the listed doctype itself.
	Doctype  string         `json:"doctype,omitempty"`
	Field    string         `json:"field"`
	Operator ComparisonType `json:"operator"`
	Value    any            `json:"value"`
}

// Eq is shorthand for an equality condition.
func Eq(field string, value any) Item {
	return Item{Field: field, Operator: Equal, Value: value}
}

// Contains matches field values that include s.
func Contains(field, s string) Item {
	return Item{Field: field, Operator: Like, Value: "%" + s + "%"}
}

// MarshalJSON writes the positional array form: [field, op, value] or
// [doctype, field, op, value] for child table conditions.
func (i Item) MarshalJSON() ([]byte, error) {
	if i.Doctype != "" {
		return json.Marshal([]any{i.Doctype, i.Field, i.Operator, i.Value})
	}
	return json.Marshal([]any{i.Field, i.Operator, i.Value})
}

// Order is a sort clause.
type Order struct {
	Field string
	Desc  bool
}

// String renders the clause as the ERP expects it ("creation desc").
func (o Order) String() string {
	if o.Field == "" {
		return ""
	}
	if o.Desc {
		return o.Field + " desc"
	}
	return o.Field + " asc"
}

// ParseOrder accepts "field", "-field", "field desc" and "field asc".
func ParseOrder(s string) Order {
	if s == "" {
		return Order{}
	}
	if s[0] == '-' {
		return Order{Field: s[1:], Desc: true}
	}
	for _, suffix := range []string{" desc", " DESC"} {
		if n := len(s) - len(suffix); n > 0 && s[n:] == suffix {
			return Order{Field: s[:n], Desc: true}
		}
	}
	for _, suffix := range []string{" asc", " ASC"} {
		if n := len(s) - len(suffix); n > 0 && s[n:] == suffix {
			return Order{Field: s[:n]}
		}
	}
	return Order{Field: s}
}

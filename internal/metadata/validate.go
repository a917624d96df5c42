package metadata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"rfidstock/internal/core/apperror"
	"rfidstock/internal/i18n"
)

// FieldError is one failed field check.
type FieldError struct {
	Field string `json:"field"`
	// Row is the 1-based child table row, 0 for header fields
	Row     int    `json:"row,omitempty"`
	Column  string `json:"column,omitempty"`
	Message string `json:"message"`
}

// Defaults builds the initial values of a new document.
func Defaults(def EntityDef, now time.Time) map[string]any {
	values := make(map[string]any, len(def.Fields))
	for _, f := range def.Fields {
		switch {
		case f.Type == TypeChildTable:
			values[f.FieldName] = []any{}
		case f.Default == DefaultToday:
			values[f.FieldName] = now.Format(time.DateOnly)
		case f.Default != nil:
			values[f.FieldName] = f.Default
		}
	}
	return values
}

var validate = validator.New()

// Validate checks required fields, numeric fields and select options.
// Rules are derived from the field definitions and run through validator's
// map validation; all failures are reported together in one validation error.
// Hidden fields are not checked: the user cannot fill them in.
func Validate(ctx context.Context, def EntityDef, values map[string]any) error {
	data, rules := mapRules(def.Fields, values)
	failed := validate.ValidateMapCtx(ctx, data, rules)

	var errs []FieldError
	for _, f := range def.Fields {
		if f.Hidden {
			continue
		}
		if f.Type == TypeChildTable {
			if _, ok := failed[f.FieldName]; ok {
				errs = append(errs, FieldError{
					Field:   f.FieldName,
					Message: i18n.T(ctx, i18n.MsgAtLeastOneRow, f.Label),
				})
				continue
			}
			for i, row := range asRows(values[f.FieldName]) {
				errs = append(errs, validateRow(ctx, f, i+1, row)...)
			}
			continue
		}
		if err, ok := failed[f.FieldName]; ok {
			errs = append(errs, FieldError{
				Field:   f.FieldName,
				Message: fieldMessage(ctx, f, failedTag(err), 0),
			})
		}
	}

	if len(errs) == 0 {
		return nil
	}
	return apperror.NewValidation(errs[0].Message).
		WithDetail("doctype", def.Name).
		WithDetail("fields", errs)
}

// ValidateStruct validates any JSON-encodable document against def.
func ValidateStruct(ctx context.Context, def EntityDef, doc any) error {
	values, err := ToValues(doc)
	if err != nil {
		return apperror.NewInternal(err)
	}
	return Validate(ctx, def, values)
}

// ToValues converts a document to its JSON field map.
func ToValues(doc any) (map[string]any, error) {
	b, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	var values map[string]any
	if err := json.Unmarshal(b, &values); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	return values, nil
}

func validateRow(ctx context.Context, table FieldDef, row int, values map[string]any) []FieldError {
	data, rules := mapRules(table.ChildFields, values)
	failed := validate.ValidateMapCtx(ctx, data, rules)
	if len(failed) == 0 {
		return nil
	}

	var errs []FieldError
	for _, col := range table.ChildFields {
		err, ok := failed[col.FieldName]
		if !ok {
			continue
		}
		errs = append(errs, FieldError{
			Field:   table.FieldName,
			Row:     row,
			Column:  col.FieldName,
			Message: fieldMessage(ctx, col, failedTag(err), row),
		})
	}
	return errs
}

// mapRules builds validator rules for the visible fields and the normalized
// values they are checked against. Child tables only get a required rule;
// their rows are validated one by one.
func mapRules(fields []FieldDef, values map[string]any) (map[string]any, map[string]any) {
	data := make(map[string]any, len(fields))
	rules := make(map[string]any, len(fields))
	for _, f := range fields {
		if f.Hidden {
			continue
		}
		if f.Type == TypeChildTable {
			if f.Required {
				if rows := asRows(values[f.FieldName]); len(rows) > 0 {
					data[f.FieldName] = rows
				}
				rules[f.FieldName] = "required"
			}
			continue
		}
		if rule := fieldRule(f); rule != "" {
			data[f.FieldName] = formValue(values[f.FieldName])
			rules[f.FieldName] = rule
		}
	}
	return data, rules
}

func fieldRule(f FieldDef) string {
	var tags []string
	switch f.Type {
	case TypeInt, TypeFloat:
		tags = append(tags, "numeric")
	case TypeSelect:
		if oneOf := oneOfTag(f.Options); oneOf != "" {
			tags = append(tags, oneOf)
		}
	}
	switch {
	case f.Required:
		tags = append([]string{"required"}, tags...)
	case len(tags) == 0:
		return ""
	default:
		tags = append([]string{"omitempty"}, tags...)
	}
	return strings.Join(tags, ",")
}

// oneOfTag quotes option values so spaces survive; commas and pipes use the
// validator's hex escapes.
func oneOfTag(options []Option) string {
	values := make([]string, 0, len(options))
	for _, o := range options {
		v := strings.TrimSpace(o.Value)
		if v == "" {
			continue
		}
		v = strings.NewReplacer(",", "0x2C", "|", "0x7C").Replace(v)
		if strings.ContainsAny(v, " \t") {
			v = "'" + v + "'"
		}
		values = append(values, v)
	}
	if len(values) == 0 {
		return ""
	}
	return "oneof=" + strings.Join(values, " ")
}

// formValue reduces a field value to the text a user would have typed.
// Blank values become nil so that required fails and omitempty skips them;
// zero is a real value.
func formValue(v any) any {
	switch t := v.(type) {
	case nil:
		return nil
	case string:
		if t = strings.TrimSpace(t); t != "" {
			return t
		}
		return nil
	case []any:
		if len(t) == 0 {
			return nil
		}
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case json.Number:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	}
	return fmt.Sprint(v)
}

func failedTag(err any) string {
	var verrs validator.ValidationErrors
	if e, ok := err.(error); ok && errors.As(e, &verrs) && len(verrs) > 0 {
		return verrs[0].Tag()
	}
	return ""
}

func fieldMessage(ctx context.Context, f FieldDef, tag string, row int) string {
	switch tag {
	case "required":
		if row > 0 {
			return i18n.T(ctx, i18n.MsgRequiredInRow, f.Label, row)
		}
		return i18n.T(ctx, i18n.MsgRequired, f.Label)
	case "numeric":
		return i18n.T(ctx, i18n.MsgNotANumber, f.Label)
	default:
		return i18n.T(ctx, i18n.MsgNotAnOption, f.Label)
	}
}

func asRows(v any) []map[string]any {
	switch t := v.(type) {
	case []map[string]any:
		return t
	case []any:
		rows := make([]map[string]any, 0, len(t))
		for _, r := range t {
			if m, ok := r.(map[string]any); ok {
				rows = append(rows, m)
			} else {
				rows = append(rows, map[string]any{})
			}
		}
		return rows
	}
	return nil
}

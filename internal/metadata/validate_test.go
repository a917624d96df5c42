package metadata

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"rfidstock/internal/core/apperror"
	appctx "rfidstock/internal/core/context"
)

func testDef() EntityDef {
	return EntityDef{
		Name: "Delivery Note",
		Slug: "delivery-note",
		Fields: []FieldDef{
			{Label: "Company", FieldName: "company", Type: TypeLink, Doctype: "Company", Required: true},
			{Label: "Posting date", FieldName: "posting_date", Type: TypeDate, Default: DefaultToday},
			{Label: "Conversion rate", FieldName: "plc_conversion_rate", Type: TypeInt, Default: 1, Required: true},
			{Label: "Order type", FieldName: "order_type", Type: TypeSelect, Options: []Option{{"Sales", "Sales"}}},
			{Label: "Internal", FieldName: "internal", Type: TypeChar, Hidden: true, Required: true},
			{
				Label: "Items", FieldName: "items", Type: TypeChildTable, Doctype: "Delivery Note Item", Required: true,
				ChildFields: []FieldDef{
					{Label: "Item", FieldName: "item_code", Type: TypeLink, Doctype: "Item", Required: true},
					{Label: "Quantity", FieldName: "qty", Type: TypeInt, Required: true},
					{Label: "Serial no", FieldName: "serial_no", Type: TypeChar, Required: true, Hidden: true},
				},
			},
		},
	}
}

func fieldErrors(t *testing.T, err error) []FieldError {
	t.Helper()
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	require.Equal(t, apperror.CodeValidation, appErr.Code)
	errs, ok := appErr.Details["fields"].([]FieldError)
	require.True(t, ok)
	return errs
}

func TestDefaults(t *testing.T) {
	now := time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC)
	values := Defaults(testDef(), now)

	assert.Equal(t, "2026-03-04", values["posting_date"])
	assert.Equal(t, 1, values["plc_conversion_rate"])
	assert.Equal(t, []any{}, values["items"])
	_, hasCompany := values["company"]
	assert.False(t, hasCompany)
}

func TestValidate_ReportsEveryMissingField(t *testing.T) {
	values := map[string]any{
		"company": "  ",
		"items": []any{
			map[string]any{"item_code": "GAS-12", "qty": float64(1)},
			map[string]any{"item_code": "", "qty": nil},
		},
	}

	errs := fieldErrors(t, Validate(context.Background(), testDef(), values))

	require.Len(t, errs, 4)
	assert.Equal(t, FieldError{Field: "company", Message: "Company is required"}, errs[0])
	assert.Equal(t, "plc_conversion_rate", errs[1].Field)
	assert.Equal(t, FieldError{Field: "items", Row: 2, Column: "item_code", Message: "Item is required in row 2"}, errs[2])
	assert.Equal(t, "qty", errs[3].Column)
}

func TestValidate_EmptyChildTable(t *testing.T) {
	values := map[string]any{"company": "ACME", "plc_conversion_rate": 1, "items": []any{}}
	errs := fieldErrors(t, Validate(context.Background(), testDef(), values))

	require.Len(t, errs, 1)
	assert.Equal(t, "items", errs[0].Field)
	assert.Equal(t, "Items needs at least one row", errs[0].Message)
}

func TestValidate_TypeChecks(t *testing.T) {
	values := map[string]any{
		"company":             "ACME",
		"plc_conversion_rate": "abc",
		"order_type":          "Rental",
		"items":               []any{map[string]any{"item_code": "GAS-12", "qty": "2"}},
	}
	errs := fieldErrors(t, Validate(context.Background(), testDef(), values))

	require.Len(t, errs, 2)
	assert.Equal(t, "Conversion rate must be a number", errs[0].Message)
	assert.Equal(t, "Order type has an invalid value", errs[1].Message)
}

func TestValidate_OptionsWithSpaces(t *testing.T) {
	def := EntityDef{Name: "Material Request", Fields: []FieldDef{{
		Label: "Purpose", FieldName: "material_request_type", Type: TypeSelect, Required: true,
		Options: []Option{{"Material Transfer", "Material Transfer"}, {"Material Issue", "Material Issue"}},
	}}}

	assert.NoError(t, Validate(context.Background(), def, map[string]any{"material_request_type": "Material Issue"}))

	errs := fieldErrors(t, Validate(context.Background(), def, map[string]any{"material_request_type": "Material"}))
	require.Len(t, errs, 1)
	assert.Equal(t, "Purpose has an invalid value", errs[0].Message)

	errs = fieldErrors(t, Validate(context.Background(), def, map[string]any{}))
	require.Len(t, errs, 1)
	assert.Equal(t, "Purpose is required", errs[0].Message)
}

func TestValidate_OK(t *testing.T) {
	values := map[string]any{
		"company":             "ACME",
		"plc_conversion_rate": float64(1),
		"order_type":          "Sales",
		"items":               []any{map[string]any{"item_code": "GAS-12", "qty": float64(0)}},
	}
	assert.NoError(t, Validate(context.Background(), testDef(), values))
}

func TestValidate_Localized(t *testing.T) {
	ctx := appctx.WithLocale(context.Background(), language.Vietnamese)
	errs := fieldErrors(t, Validate(ctx, testDef(), map[string]any{"plc_conversion_rate": 1, "items": []any{map[string]any{"item_code": "X", "qty": 1}}}))

	require.Len(t, errs, 1)
	assert.Equal(t, "Company là bắt buộc", errs[0].Message)
}

func TestValidateStruct(t *testing.T) {
	doc := struct {
		Company string           `json:"company"`
		Rate    int              `json:"plc_conversion_rate"`
		Items   []map[string]any `json:"items"`
	}{Company: "ACME", Rate: 1, Items: []map[string]any{{"item_code": "GAS-12", "qty": 3}}}

	assert.NoError(t, ValidateStruct(context.Background(), testDef(), doc))
}

func TestRegistry(t *testing.T) {
	reg := NewRegistry()
	reg.Register(testDef())
	reg.Register(EntityDef{Name: "Bin", Slug: "bin"})

	def, ok := reg.Get("delivery-note")
	require.True(t, ok)
	assert.Equal(t, "Delivery Note", def.Name)

	_, ok = reg.Get("Delivery Note")
	assert.True(t, ok)
	_, ok = reg.Get("missing")
	assert.False(t, ok)

	list := reg.List()
	require.Len(t, list, 2)
	assert.Equal(t, "Bin", list[0].Name)

	assert.Equal(t, []string{"Company", "Item"}, testDef().LinkTargets())

	f, ok := testDef().Field("company")
	require.True(t, ok)
	assert.True(t, f.Required)
}

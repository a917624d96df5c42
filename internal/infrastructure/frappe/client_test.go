package frappe

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rfidstock/internal/core/apperror"
	appctx "rfidstock/internal/core/context"
	"rfidstock/internal/domain"
	"rfidstock/internal/domain/filter"
)

type recorded struct {
	method string
	path   string
	query  map[string]string
	auth   string
	body   map[string]any
}

func newServer(t *testing.T, status int, response string) (*httptest.Server, *recorded) {
	t.Helper()
	rec := &recorded{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec.method = r.Method
		rec.path = r.URL.Path
		rec.auth = r.Header.Get("Authorization")
		rec.query = map[string]string{}
		for k := range r.URL.Query() {
			rec.query[k] = r.URL.Query().Get(k)
		}
		if b, _ := io.ReadAll(r.Body); len(b) > 0 {
			require.NoError(t, json.Unmarshal(b, &rec.body))
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(response))
	}))
	t.Cleanup(srv.Close)
	return srv, rec
}

func newClient(url string) *Client {
	return New(Config{BaseURL: url, APIKey: "key", APISecret: "secret", Timeout: 5 * time.Second})
}

func TestGetDocList_EncodesQuery(t *testing.T) {
	srv, rec := newServer(t, http.StatusOK, `{"data":[{"name":"MAT-STE-0001"},{"name":"MAT-STE-0002"}]}`)
	c := newClient(srv.URL)

	f := domain.ListFilter{
		Fields:          []string{"name", "docstatus"},
		AdvancedFilters: []filter.Item{filter.Eq("docstatus", 0)},
		OrderBy:         filter.Order{Field: "creation", Desc: true},
		Limit:           5,
		Offset:          10,
	}
	var rows []struct {
		Name string `json:"name"`
	}
	require.NoError(t, c.GetDocList(context.Background(), "Stock Entry", f, &rows))

	assert.Equal(t, http.MethodGet, rec.method)
	assert.Equal(t, "/api/resource/Stock Entry", rec.path)
	assert.Equal(t, `["name","docstatus"]`, rec.query["fields"])
	assert.JSONEq(t, `[["docstatus","=",0]]`, rec.query["filters"])
	assert.Equal(t, "5", rec.query["limit_page_length"])
	assert.Equal(t, "10", rec.query["limit_start"])
	assert.Equal(t, "creation desc", rec.query["order_by"])
	assert.Equal(t, "token key:secret", rec.auth)

	require.Len(t, rows, 2)
	assert.Equal(t, "MAT-STE-0002", rows[1].Name)
}

func TestRequest_ContextCredentialsWin(t *testing.T) {
	srv, rec := newServer(t, http.StatusOK, `{"message":"user@example.com"}`)
	c := newClient(srv.URL)

	ctx := appctx.WithCredentials(context.Background(), appctx.Credentials{APIKey: "u", APISecret: "p"})
	user, err := c.LoggedUser(ctx)
	require.NoError(t, err)

	assert.Equal(t, "user@example.com", user)
	assert.Equal(t, "token u:p", rec.auth)
	assert.Equal(t, "/api/method/frappe.auth.get_logged_user", rec.path)
}

func TestRequest_NoCredentials(t *testing.T) {
	srv, rec := newServer(t, http.StatusOK, `{"message":"pong"}`)
	c := New(Config{BaseURL: srv.URL})

	require.NoError(t, c.Ping(context.Background()))
	assert.Empty(t, rec.auth)
}

func TestGetDoc(t *testing.T) {
	srv, rec := newServer(t, http.StatusOK, `{"data":{"name":"DN-1","docstatus":0}}`)
	c := newClient(srv.URL)

	var doc map[string]any
	require.NoError(t, c.GetDoc(context.Background(), "Delivery Note", "DN-1", &doc))
	assert.Equal(t, "/api/resource/Delivery Note/DN-1", rec.path)
	assert.Equal(t, "DN-1", doc["name"])
}

func TestCreateUpdateDelete(t *testing.T) {
	srv, rec := newServer(t, http.StatusOK, `{"data":{"name":"PR-7"}}`)
	c := newClient(srv.URL)
	ctx := context.Background()

	var out struct {
		Name string `json:"name"`
	}
	require.NoError(t, c.CreateDoc(ctx, "Purchase Receipt", map[string]any{"supplier": "ACME"}, &out))
	assert.Equal(t, http.MethodPost, rec.method)
	assert.Equal(t, "/api/resource/Purchase Receipt", rec.path)
	assert.Equal(t, "ACME", rec.body["supplier"])
	assert.Equal(t, "PR-7", out.Name)

	require.NoError(t, c.UpdateDoc(ctx, "Purchase Receipt", "PR-7", map[string]any{"supplier": "Other"}, nil))
	assert.Equal(t, http.MethodPut, rec.method)
	assert.Equal(t, "/api/resource/Purchase Receipt/PR-7", rec.path)

	require.NoError(t, c.DeleteDoc(ctx, "Purchase Receipt", "PR-7"))
	assert.Equal(t, http.MethodDelete, rec.method)
}

func TestSubmit(t *testing.T) {
	srv, rec := newServer(t, http.StatusOK, `{"message":{"name":"SO-1","docstatus":1}}`)
	c := newClient(srv.URL)

	var out map[string]any
	doc := map[string]any{"doctype": "Sales Order", "name": "SO-1"}
	require.NoError(t, c.Submit(context.Background(), doc, &out))

	assert.Equal(t, "/api/method/frappe.client.submit", rec.path)
	assert.Equal(t, map[string]any{"doctype": "Sales Order", "name": "SO-1"}, rec.body["doc"])
	assert.Equal(t, float64(1), out["docstatus"])
}

func TestCall_EncodesNonStringParams(t *testing.T) {
	srv, rec := newServer(t, http.StatusOK, `{"message":{"values":[]}}`)
	c := newClient(srv.URL)

	err := c.Call(context.Background(), "frappe.desk.reportview.get", map[string]any{
		"doctype": "Stock Entry",
		"fields":  []string{"name"},
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, "Stock Entry", rec.query["doctype"])
	assert.Equal(t, `["name"]`, rec.query["fields"])
}

func TestErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		code   string
		msg    string
	}{
		{
			name:   "server messages",
			status: http.StatusExpectationFailed,
			body:   `{"exc_type":"MandatoryError","_server_messages":"[\"{\\\"message\\\": \\\"Item Code is required\\\"}\"]"}`,
			code:   apperror.CodeRemote,
			msg:    "Item Code is required",
		},
		{
			name:   "not found",
			status: http.StatusNotFound,
			body:   `{"exc_type":"DoesNotExistError"}`,
			code:   apperror.CodeNotFound,
		},
		{
			name:   "forbidden",
			status: http.StatusForbidden,
			body:   `{"exc_type":"PermissionError","exception":"frappe.exceptions.PermissionError"}`,
			code:   apperror.CodeForbidden,
			msg:    "frappe.exceptions.PermissionError",
		},
		{
			name:   "unauthorized",
			status: http.StatusUnauthorized,
			body:   `{"exc_type":"AuthenticationError","exception":"frappe.exceptions.AuthenticationError"}`,
			code:   apperror.CodeUnauthorized,
			msg:    "frappe.exceptions.AuthenticationError",
		},
		{
			name:   "empty body",
			status: http.StatusInternalServerError,
			body:   ``,
			code:   apperror.CodeRemote,
			msg:    "Internal Server Error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := newServer(t, tt.status, tt.body)
			c := newClient(srv.URL)

			err := c.GetDoc(context.Background(), "Stock Entry", "X", &map[string]any{})
			require.Error(t, err)

			appErr, ok := apperror.AsAppError(err)
			require.True(t, ok)
			assert.Equal(t, tt.code, appErr.Code)
			if tt.msg != "" {
				assert.Equal(t, tt.msg, appErr.Message)
			}
		})
	}
}

func TestUnreachable(t *testing.T) {
	srv, _ := newServer(t, http.StatusOK, `{}`)
	url := srv.URL
	srv.Close()

	err := newClient(url).DeleteDoc(context.Background(), "Stock Entry", "X")
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeRemote, appErr.Code)
}

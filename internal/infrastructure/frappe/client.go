// Package frappe implements the remote document store over the Frappe REST API.
package frappe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"rfidstock/internal/core/apperror"
	appctx "rfidstock/internal/core/context"
	"rfidstock/internal/domain"
	"rfidstock/pkg/logger"
)

var tracer = otel.Tracer("rfidstock/frappe")

var _ domain.DocumentRepository = (*Client)(nil)

// Config holds client configuration.
type Config struct {
	BaseURL string
	// Default credentials, used when the context carries none
	APIKey    string
	APISecret string
	Timeout   time.Duration
}

// Client talks to one Frappe site.
type Client struct {
	http     *resty.Client
	defaults appctx.Credentials
}

// New creates a client for cfg.BaseURL.
func New(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	rc := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")

	return &Client{
		http:     rc,
		defaults: appctx.Credentials{APIKey: cfg.APIKey, APISecret: cfg.APISecret},
	}
}

// envelope is the response wrapper of both the resource and the method API.
type envelope struct {
	Data    json.RawMessage `json:"data"`
	Message json.RawMessage `json:"message"`
}

// errorBody is what Frappe returns on failure.
type errorBody struct {
	ExcType        string `json:"exc_type"`
	Exception      string `json:"exception"`
	Message        any    `json:"message"`
	ServerMessages string `json:"_server_messages"`
}

// GetDocList lists documents of a doctype.
func (c *Client) GetDocList(ctx context.Context, doctype string, f domain.ListFilter, out any) error {
	params := map[string]string{}
	if len(f.Fields) > 0 {
		b, err := json.Marshal(f.Fields)
		if err != nil {
			return fmt.Errorf("encode fields: %w", err)
		}
		params["fields"] = string(b)
	}
	if items := f.Filters(); len(items) > 0 {
		b, err := json.Marshal(items)
		if err != nil {
			return fmt.Errorf("encode filters: %w", err)
		}
		params["filters"] = string(b)
	}
	if f.Limit > 0 {
		params["limit_page_length"] = strconv.Itoa(f.Limit)
	}
	if f.Offset > 0 {
		params["limit_start"] = strconv.Itoa(f.Offset)
	}
	if order := f.OrderBy.String(); order != "" {
		params["order_by"] = order
	}

	req := c.request(ctx).
		SetPathParam("doctype", doctype).
		SetQueryParams(params)
	return c.do(ctx, req, http.MethodGet, "/api/resource/{doctype}", "data", out)
}

// GetDoc fetches one document.
func (c *Client) GetDoc(ctx context.Context, doctype, name string, out any) error {
	req := c.request(ctx).
		SetPathParams(map[string]string{"doctype": doctype, "name": name})
	err := c.do(ctx, req, http.MethodGet, "/api/resource/{doctype}/{name}", "data", out)
	if apperror.IsNotFound(err) {
		return apperror.NewNotFound(doctype, name)
	}
	return err
}

// CreateDoc inserts a new document.
func (c *Client) CreateDoc(ctx context.Context, doctype string, data any, out any) error {
	req := c.request(ctx).
		SetPathParam("doctype", doctype).
		SetBody(data)
	return c.do(ctx, req, http.MethodPost, "/api/resource/{doctype}", "data", out)
}

// UpdateDoc overwrites fields of an existing document.
func (c *Client) UpdateDoc(ctx context.Context, doctype, name string, data any, out any) error {
	req := c.request(ctx).
		SetPathParams(map[string]string{"doctype": doctype, "name": name}).
		SetBody(data)
	err := c.do(ctx, req, http.MethodPut, "/api/resource/{doctype}/{name}", "data", out)
	if apperror.IsNotFound(err) {
		return apperror.NewNotFound(doctype, name)
	}
	return err
}

// DeleteDoc removes a document.
func (c *Client) DeleteDoc(ctx context.Context, doctype, name string) error {
	req := c.request(ctx).
		SetPathParams(map[string]string{"doctype": doctype, "name": name})
	err := c.do(ctx, req, http.MethodDelete, "/api/resource/{doctype}/{name}", "", nil)
	if apperror.IsNotFound(err) {
		return apperror.NewNotFound(doctype, name)
	}
	return err
}

// Submit calls frappe.client.submit with the full document.
func (c *Client) Submit(ctx context.Context, doc map[string]any, out any) error {
	return c.Post(ctx, "frappe.client.submit", map[string]any{"doc": doc}, out)
}

// Call invokes a whitelisted method with query parameters.
// Non-string values are JSON encoded.
func (c *Client) Call(ctx context.Context, method string, params map[string]any, out any) error {
	query := make(map[string]string, len(params))
	for k, v := range params {
		if s, ok := v.(string); ok {
			query[k] = s
			continue
		}
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("encode param %s: %w", k, err)
		}
		query[k] = string(b)
	}

	req := c.request(ctx).
		SetPathParam("method", method).
		SetQueryParams(query)
	return c.do(ctx, req, http.MethodGet, "/api/method/{method}", "message", out)
}

// Post invokes a whitelisted method with a JSON body.
func (c *Client) Post(ctx context.Context, method string, body any, out any) error {
	req := c.request(ctx).
		SetPathParam("method", method).
		SetBody(body)
	return c.do(ctx, req, http.MethodPost, "/api/method/{method}", "message", out)
}

// Ping checks that the site answers.
func (c *Client) Ping(ctx context.Context) error {
	var pong string
	if err := c.Call(ctx, "ping", nil, &pong); err != nil {
		return err
	}
	if pong != "pong" {
		return fmt.Errorf("unexpected ping reply %q", pong)
	}
	return nil
}

// LoggedUser returns the ERP user the context credentials belong to.
func (c *Client) LoggedUser(ctx context.Context) (string, error) {
	var user string
	if err := c.Call(ctx, "frappe.auth.get_logged_user", nil, &user); err != nil {
		return "", err
	}
	return user, nil
}

func (c *Client) request(ctx context.Context) *resty.Request {
	req := c.http.R().SetContext(ctx)

	creds, ok := appctx.GetCredentials(ctx)
	if !ok {
		creds = c.defaults
	}
	if !creds.IsZero() {
		req.SetHeader("Authorization", "token "+creds.APIKey+":"+creds.APISecret)
	}
	return req
}

// do executes req and decodes the named envelope field into out.
func (c *Client) do(ctx context.Context, req *resty.Request, method, path, field string, out any) error {
	ctx, span := tracer.Start(ctx, "frappe "+method+" "+path,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.method", method),
			attribute.String("frappe.path", path),
		))
	defer span.End()

	resp, err := req.Execute(method, path)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger.Warn(ctx, "erp request failed", "method", method, "path", path, "error", err)
		if isTimeout(ctx, err) {
			return &apperror.AppError{
				Code:       apperror.CodeTimeout,
				Message:    "ERP request timed out",
				HTTPStatus: http.StatusGatewayTimeout,
				Err:        err,
			}
		}
		return apperror.NewRemote(0, "ERP is unreachable").WithCause(err)
	}

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode()))

	if resp.IsError() {
		appErr := remoteError(resp.StatusCode(), resp.Body())
		span.SetStatus(codes.Error, appErr.Message)
		logger.Warn(ctx, "erp request rejected",
			"method", method,
			"path", path,
			"status", resp.StatusCode(),
			"message", appErr.Message,
		)
		return appErr
	}

	if out == nil || field == "" {
		return nil
	}

	var env envelope
	if err := json.Unmarshal(resp.Body(), &env); err != nil {
		return apperror.NewRemote(resp.StatusCode(), "ERP returned malformed JSON").WithCause(err)
	}
	payload := env.Data
	if field == "message" {
		payload = env.Message
	}
	if len(payload) == 0 {
		return nil
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return apperror.NewRemote(resp.StatusCode(), "unexpected ERP response").WithCause(err)
	}
	return nil
}

func isTimeout(ctx context.Context, err error) bool {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var te interface{ Timeout() bool }
	return errors.As(err, &te) && te.Timeout()
}

// remoteError maps an ERP failure to an AppError carrying the server's message.
func remoteError(status int, body []byte) *apperror.AppError {
	var eb errorBody
	_ = json.Unmarshal(body, &eb)

	msg := serverMessage(eb)
	if msg == "" {
		msg = http.StatusText(status)
	}

	var appErr *apperror.AppError
	switch status {
	case http.StatusNotFound:
		appErr = apperror.NewNotFound("document", "")
		appErr.Message = msg
	case http.StatusUnauthorized:
		appErr = apperror.NewUnauthorized(msg)
	case http.StatusForbidden:
		appErr = apperror.NewForbidden(msg)
	default:
		appErr = apperror.NewRemote(status, msg)
	}
	if eb.ExcType != "" {
		appErr.WithDetail("exc_type", eb.ExcType)
	}
	return appErr
}

// serverMessage extracts a readable message. _server_messages is a JSON
// encoded list of JSON encoded objects with a "message" key.
func serverMessage(eb errorBody) string {
	if eb.ServerMessages != "" {
		var raw []string
		if err := json.Unmarshal([]byte(eb.ServerMessages), &raw); err == nil {
			msgs := make([]string, 0, len(raw))
			for _, r := range raw {
				var m struct {
					Message string `json:"message"`
				}
				if err := json.Unmarshal([]byte(r), &m); err == nil && m.Message != "" {
					msgs = append(msgs, m.Message)
				} else if r != "" {
					msgs = append(msgs, r)
				}
			}
			if len(msgs) > 0 {
				return strings.Join(msgs, "; ")
			}
		}
	}
	if s, ok := eb.Message.(string); ok && s != "" {
		return s
	}
	if eb.Exception != "" {
		return eb.Exception
	}
	return eb.ExcType
}

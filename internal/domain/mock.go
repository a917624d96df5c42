package domain

import (
	"context"
	"encoding/json"
	"fmt"
)

// MockRepository is a test implementation of DocumentRepository.
// Unset funcs succeed without touching out.
type MockRepository struct {
	GetDocListFunc func(ctx context.Context, doctype string, f ListFilter) (any, error)
	GetDocFunc     func(ctx context.Context, doctype, name string) (any, error)
	CreateDocFunc  func(ctx context.Context, doctype string, data any) (any, error)
	UpdateDocFunc  func(ctx context.Context, doctype, name string, data any) (any, error)
	DeleteDocFunc  func(ctx context.Context, doctype, name string) error
	SubmitFunc     func(ctx context.Context, doc map[string]any) (any, error)
	CallFunc       func(ctx context.Context, method string, params map[string]any) (any, error)
	PostFunc       func(ctx context.Context, method string, body any) (any, error)
}

// GetDocList implements DocumentRepository.
func (m *MockRepository) GetDocList(ctx context.Context, doctype string, f ListFilter, out any) error {
	if m.GetDocListFunc == nil {
		return nil
	}
	return fill(out)(m.GetDocListFunc(ctx, doctype, f))
}

// GetDoc implements DocumentRepository.
func (m *MockRepository) GetDoc(ctx context.Context, doctype, name string, out any) error {
	if m.GetDocFunc == nil {
		return nil
	}
	return fill(out)(m.GetDocFunc(ctx, doctype, name))
}

// CreateDoc implements DocumentRepository.
func (m *MockRepository) CreateDoc(ctx context.Context, doctype string, data any, out any) error {
	if m.CreateDocFunc == nil {
		return nil
	}
	return fill(out)(m.CreateDocFunc(ctx, doctype, data))
}

// UpdateDoc implements DocumentRepository.
func (m *MockRepository) UpdateDoc(ctx context.Context, doctype, name string, data any, out any) error {
	if m.UpdateDocFunc == nil {
		return nil
	}
	return fill(out)(m.UpdateDocFunc(ctx, doctype, name, data))
}

// DeleteDoc implements DocumentRepository.
func (m *MockRepository) DeleteDoc(ctx context.Context, doctype, name string) error {
	if m.DeleteDocFunc == nil {
		return nil
	}
	return m.DeleteDocFunc(ctx, doctype, name)
}

// Submit implements DocumentRepository.
func (m *MockRepository) Submit(ctx context.Context, doc map[string]any, out any) error {
	if m.SubmitFunc == nil {
		return nil
	}
	return fill(out)(m.SubmitFunc(ctx, doc))
}

// Call implements DocumentRepository.
func (m *MockRepository) Call(ctx context.Context, method string, params map[string]any, out any) error {
	if m.CallFunc == nil {
		return nil
	}
	return fill(out)(m.CallFunc(ctx, method, params))
}

// Post implements DocumentRepository.
func (m *MockRepository) Post(ctx context.Context, method string, body any, out any) error {
	if m.PostFunc == nil {
		return nil
	}
	return fill(out)(m.PostFunc(ctx, method, body))
}

// fill decodes a canned response into out the way the remote client would.
func fill(out any) func(resp any, err error) error {
	return func(resp any, err error) error {
		if err != nil || out == nil || resp == nil {
			return err
		}
		b, err := json.Marshal(resp)
		if err != nil {
			return fmt.Errorf("encode mock response: %w", err)
		}
		return json.Unmarshal(b, out)
	}
}

// Ensure compile-time interface compliance.
var _ DocumentRepository = (*MockRepository)(nil)

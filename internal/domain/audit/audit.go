// Package audit logs document lifecycle changes with the acting user.
package audit

import (
	"context"

	appctx "rfidstock/internal/core/context"
	"rfidstock/internal/domain"
	"rfidstock/internal/domain/documents"
	"rfidstock/pkg/logger"
)

// Register adds audit hooks to a document service hook registry.
func Register(hooks *domain.HookRegistry[documents.Doc]) {
	hooks.OnAfterSave(entry("document saved"))
	hooks.OnAfterSubmit(entry("document submitted"))
	hooks.OnAfterDelete(entry("document deleted"))
}

func entry(msg string) domain.Hook[documents.Doc] {
	return func(ctx context.Context, doc documents.Doc) error {
		h := doc.Header()
		logger.Info(ctx, msg,
			"component", "audit",
			"doctype", doc.Doctype(),
			"name", h.Name,
			"docstatus", h.DocStatus.String(),
			"actor", actor(ctx))
		return nil
	}
}

// actor is the user id from the request, or "system" for background work.
func actor(ctx context.Context) string {
	if uid := appctx.GetUserID(ctx); uid != "" {
		return uid
	}
	return "system"
}

package audit_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	appctx "rfidstock/internal/core/context"
	"rfidstock/internal/core/entity"
	"rfidstock/internal/domain"
	"rfidstock/internal/domain/audit"
	"rfidstock/internal/domain/documents"
	"rfidstock/internal/domain/documents/stock_entry"
	"rfidstock/pkg/logger"
)

func observed(ctx context.Context) (context.Context, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.InfoLevel)
	return logger.WithLogger(ctx, &logger.Logger{SugaredLogger: zap.New(core).Sugar()}), logs
}

func TestRegister_LogsLifecycleEvents(t *testing.T) {
	hooks := domain.NewHookRegistry[documents.Doc]()
	audit.Register(hooks)

	ctx, logs := observed(context.Background())
	ctx = appctx.WithUser(ctx, &appctx.UserContext{UserID: "clerk@example.com"})

	doc := &stock_entry.StockEntry{Document: entity.Document{Name: "MAT-STE-0001"}}
	require.NoError(t, hooks.Run(ctx, domain.AfterSave, doc))

	doc.DocStatus = entity.DocStatusSubmitted
	require.NoError(t, hooks.Run(ctx, domain.AfterSubmit, doc))
	require.NoError(t, hooks.Run(ctx, domain.AfterDelete, doc))

	entries := logs.All()
	require.Len(t, entries, 3)
	assert.Equal(t, "document saved", entries[0].Message)
	assert.Equal(t, "document submitted", entries[1].Message)
	assert.Equal(t, "document deleted", entries[2].Message)

	fields := entries[1].ContextMap()
	assert.Equal(t, "Stock Entry", fields["doctype"])
	assert.Equal(t, "MAT-STE-0001", fields["name"])
	assert.Equal(t, "submitted", fields["docstatus"])
	assert.Equal(t, "clerk@example.com", fields["actor"])
}

func TestRegister_SystemActor(t *testing.T) {
	hooks := domain.NewHookRegistry[documents.Doc]()
	audit.Register(hooks)

	ctx, logs := observed(context.Background())
	require.NoError(t, hooks.Run(ctx, domain.AfterSave, &stock_entry.StockEntry{}))

	require.Len(t, logs.All(), 1)
	assert.Equal(t, "system", logs.All()[0].ContextMap()["actor"])
}

func TestRegister_IgnoresOtherEvents(t *testing.T) {
	hooks := domain.NewHookRegistry[documents.Doc]()
	audit.Register(hooks)

	ctx, logs := observed(context.Background())
	require.NoError(t, hooks.Run(ctx, domain.BeforeSave, &stock_entry.StockEntry{}))
	assert.Zero(t, logs.Len())
}

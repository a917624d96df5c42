// Package main is the entry point for the rfidstock API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"rfidstock/internal/config"
	"rfidstock/internal/domain/audit"
	"rfidstock/internal/domain/auth"
	"rfidstock/internal/domain/documents"
	"rfidstock/internal/domain/documents/kinds"
	"rfidstock/internal/domain/journal"
	"rfidstock/internal/domain/session"
	"rfidstock/internal/infrastructure/cache"
	"rfidstock/internal/infrastructure/frappe"
	v1 "rfidstock/internal/infrastructure/http/v1"
	"rfidstock/internal/infrastructure/http/v1/handlers"
	"rfidstock/internal/infrastructure/storage/postgres"
	"rfidstock/pkg/logger"
	"rfidstock/pkg/rfid"
)

const credentialCacheSize = 1024

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:       cfg.App.LogLevel,
		Development: cfg.App.IsDevelopment(),
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	logger.SetDefault(log)

	ctx := context.Background()
	log.Infow("starting rfidstock server", "erp", cfg.ERP.URL, "reader", cfg.RFID.Driver)

	// --- ERP client ---
	erp := frappe.New(frappe.Config{
		BaseURL:   cfg.ERP.URL,
		APIKey:    cfg.ERP.APIKey,
		APISecret: cfg.ERP.APISecret,
		Timeout:   cfg.ERP.Timeout,
	})

	// --- Documents ---
	resolver := kinds.All()
	docs := documents.NewService(erp, resolver,
		cache.NewLinkOptions(cfg.Cache.LinkOptionsSize, cfg.Cache.LinkOptionsTTL))
	audit.Register(docs.Hooks())
	metadataRegistry := kinds.Registry(resolver)
	log.Infow("metadata registry initialized", "doctypes", len(metadataRegistry.List()))

	// --- RFID reader ---
	reader := openReader(logger.WithLogger(ctx, log.WithComponent("rfid")), cfg.RFID)
	defer func() {
		if err := reader.Free(); err != nil {
			log.Warnw("failed to release reader", "error", err)
		}
	}()

	// --- Scan journal ---
	var scanJournal journal.Repository = journal.Nop{}
	healthChecks := map[string]handlers.Pinger{"erp": erp}
	var healthInfo func() map[string]any

	if cfg.Journal.DSN != "" {
		poolCfg := postgres.DefaultPoolConfig(cfg.Journal.DSN)
		poolCfg.MaxConns = cfg.Journal.MaxConns
		poolCfg.StatementTimeout = cfg.Journal.StatementTimeout
		pool, err := postgres.NewPool(ctx, poolCfg)
		if err != nil {
			log.Fatalw("failed to connect to journal database", "error", err)
		}
		defer pool.Close()

		store, err := postgres.NewJournalStore(postgres.NewTxManager(pool), cfg.Journal.CompressThreshold)
		if err != nil {
			log.Fatalw("failed to create journal store", "error", err)
		}
		defer store.Close()

		if err := store.EnsureSchema(ctx); err != nil {
			log.Fatalw("failed to prepare journal schema", "error", err)
		}

		pool.LogStats(ctx)
		scanJournal = store
		healthChecks["journal"] = handlers.PingFunc(pool.Ping)
		healthInfo = func() map[string]any {
			return map[string]any{"journal_database": pool.Stats()}
		}
		log.Info("scan journal database connection established")
	}

	// --- Sessions ---
	sessions := session.NewManager(session.Config{
		Documents: docs,
		Catalog:   session.RemoteCatalog(erp),
		Reader:    reader,
		Journal:   scanJournal,
		Buffer:    cfg.RFID.Buffer,
	})

	// --- Auth ---
	var authService *auth.Service
	if cfg.Auth.Enabled {
		jwtConfig := auth.DefaultJWTConfig(cfg.Auth.JWTSecret)
		jwtConfig.AccessTokenTTL = cfg.Auth.TokenTTL
		authService = auth.NewService(erp,
			auth.NewJWTService(jwtConfig),
			cache.NewCredentials(credentialCacheSize, cfg.Auth.TokenTTL))
	} else {
		log.Warn("authentication disabled: every request uses the configured ERP credentials")
	}

	// --- Router ---
	mode := gin.ReleaseMode
	if cfg.App.IsDevelopment() {
		mode = gin.DebugMode
	}
	router := v1.NewRouter(v1.RouterConfig{
		Mode:             mode,
		Logger:           log,
		AuthService:      authService,
		Documents:        docs,
		Sessions:         sessions,
		Journal:          scanJournal,
		MetadataRegistry: metadataRegistry,
		HealthChecks:     healthChecks,
		HealthInfo:       healthInfo,
	})

	// --- HTTP Server ---
	server := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Infow("server starting", "port", cfg.App.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalw("server failed", "error", err)
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Errorw("server forced to shutdown", "error", err)
	}
	sessions.CloseAll(shutdownCtx)

	log.Info("server stopped")
}

// openReader initialises the configured reader. A reader that fails to
// initialise is replaced by a disabled one; the service keeps running.
func openReader(ctx context.Context, cfg config.RFIDConfig) rfid.Reader {
	var reader rfid.Reader
	switch cfg.Driver {
	case "mock":
		reader = rfid.NewMock(cfg.MockTags, cfg.Interval)
	case "stream":
		src, err := openStream(cfg.StreamPath)
		if err != nil {
			logger.Warn(ctx, "rfid stream unavailable", "path", cfg.StreamPath, "error", err)
			return rfid.NewDisabled(err)
		}
		reader = rfid.NewStream(src)
	default:
		return rfid.NewDisabled(nil)
	}

	if err := reader.Init(ctx); err != nil {
		logger.Warn(ctx, "rfid reader init failed, continuing without reader", "driver", cfg.Driver, "error", err)
		_ = reader.Free()
		return rfid.NewDisabled(err)
	}
	version, _ := reader.Version()
	logger.Info(ctx, "rfid reader ready", "driver", cfg.Driver, "version", version)
	return reader
}

func openStream(path string) (io.Reader, error) {
	if path == "" || path == "-" {
		return os.Stdin, nil
	}
	return os.Open(path)
}

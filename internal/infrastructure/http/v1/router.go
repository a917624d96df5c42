// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"

	"rfidstock/internal/domain/auth"
	"rfidstock/internal/domain/documents"
	"rfidstock/internal/domain/journal"
	"rfidstock/internal/domain/session"
	"rfidstock/internal/infrastructure/http/v1/handlers"
	"rfidstock/internal/infrastructure/http/v1/middleware"
	"rfidstock/internal/metadata"
	"rfidstock/pkg/logger"
)

// RouterConfig holds router dependencies.
type RouterConfig struct {
	// Mode is the gin mode; empty means release
	Mode string

	// Logger for request logging
	Logger *logger.Logger

	// AuthService issues and checks access tokens; nil disables authentication
	AuthService *auth.Service

	Documents *documents.Service
	Sessions  *session.Manager

	// Journal serves scan history; defaults to an empty journal
	Journal journal.Repository

	// MetadataRegistry stores form definitions
	MetadataRegistry *metadata.Registry

	// HealthChecks are probed by /health/ready
	HealthChecks map[string]handlers.Pinger
	HealthInfo   func() map[string]any
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	mode := cfg.Mode
	if mode == "" {
		mode = gin.ReleaseMode
	}
	gin.SetMode(mode)

	log := cfg.Logger
	if log == nil {
		log = logger.Nop()
	}
	if cfg.Journal == nil {
		cfg.Journal = journal.Nop{}
	}

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(log))
	router.Use(middleware.ErrorHandler())
	router.Use(middleware.Locale())

	handlers.NewHealthHandler(cfg.HealthChecks, cfg.Sessions, cfg.HealthInfo).RegisterRoutes(router)

	base := handlers.NewBaseHandler()
	v1 := router.Group("/api/v1")
	{
		protected := v1.Group("")
		if cfg.AuthService != nil {
			registerAuthRoutes(v1, base, cfg.AuthService)
			protected.Use(middleware.Auth(cfg.AuthService))
		}

		RegisterAll(protected,
			handlers.NewDocumentHandler(base, cfg.Documents),
			handlers.NewSessionHandler(base, cfg.Sessions),
			handlers.NewReaderHandler(base, cfg.Sessions),
			handlers.NewJournalHandler(base, cfg.Journal),
		)
		registerMetaRoutes(protected, base, cfg.MetadataRegistry)
	}

	return router
}

// registerAuthRoutes registers authentication endpoints.
func registerAuthRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, service *auth.Service) {
	authHandler := handlers.NewAuthHandler(base, service)

	publicAuth := rg.Group("/auth")

	protectedAuth := rg.Group("/auth")
	protectedAuth.Use(middleware.Auth(service))

	authHandler.RegisterRoutes(publicAuth, protectedAuth)
}

// registerMetaRoutes registers form definition endpoints.
func registerMetaRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, registry *metadata.Registry) {
	if registry == nil {
		return
	}

	handler := handlers.NewMetadataHandler(base, registry)
	meta := rg.Group("/meta")
	{
		meta.GET("", handler.ListEntities)
		meta.GET("/:name", handler.GetEntity)
	}
}

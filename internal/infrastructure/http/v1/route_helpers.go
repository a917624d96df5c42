package v1

import (
	"github.com/gin-gonic/gin"
)

// RouteRegistrar is implemented by handlers that own a set of routes.
type RouteRegistrar interface {
	RegisterRoutes(rg *gin.RouterGroup)
}

// RegisterAll registers the routes of every handler on rg.
//
// Usage:
//
//	RegisterAll(protected,
//		handlers.NewDocumentHandler(base, cfg.Documents),
//		handlers.NewSessionHandler(base, cfg.Sessions),
//	)
func RegisterAll(rg *gin.RouterGroup, registrars ...RouteRegistrar) {
	for _, r := range registrars {
		r.RegisterRoutes(rg)
	}
}

package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"rfidstock/internal/domain/session"
)

// Version is reported by /health/info.
var Version = "0.1.0"

// Pinger checks a dependency.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts a function to Pinger.
type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

// HealthHandler provides health check endpoints.
type HealthHandler struct {
	checks   map[string]Pinger
	sessions *session.Manager
	info     func() map[string]any
}

// NewHealthHandler creates a health handler. checks are probed by Ready;
// info, when set, adds fields to /health/info.
func NewHealthHandler(checks map[string]Pinger, sessions *session.Manager, info func() map[string]any) *HealthHandler {
	return &HealthHandler{checks: checks, sessions: sessions, info: info}
}

// Live handles liveness probe (is the process alive?).
// GET /health/live
func (h *HealthHandler) Live(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}

// Ready handles readiness probe (can the service reach the ERP and journal?).
// GET /health/ready
func (h *HealthHandler) Ready(c *gin.Context) {
	status := http.StatusOK
	checks := make(map[string]string, len(h.checks))
	for name, p := range h.checks {
		if err := p.Ping(c.Request.Context()); err != nil {
			status = http.StatusServiceUnavailable
			checks[name] = "unhealthy: " + err.Error()
			continue
		}
		checks[name] = "healthy"
	}

	body := gin.H{"status": "ok", "checks": checks}
	if status != http.StatusOK {
		body["status"] = "error"
	}
	c.JSON(status, body)
}

// Info returns application information.
// GET /health/info
func (h *HealthHandler) Info(c *gin.Context) {
	body := gin.H{
		"app":     "rfidstock",
		"version": Version,
	}
	if h.sessions != nil {
		body["sessions"] = h.sessions.Len()
		body["reader_reading"] = h.sessions.Reader().Reading()
	}
	if h.info != nil {
		for k, v := range h.info() {
			body[k] = v
		}
	}
	c.JSON(http.StatusOK, body)
}

// RegisterRoutes registers health routes.
func (h *HealthHandler) RegisterRoutes(r gin.IRouter) {
	health := r.Group("/health")
	health.GET("/live", h.Live)
	health.GET("/ready", h.Ready)
	health.GET("/info", h.Info)
}

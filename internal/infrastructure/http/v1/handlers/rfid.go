package handlers

import (
	"github.com/gin-gonic/gin"

	"rfidstock/internal/core/apperror"
	"rfidstock/internal/domain/session"
	"rfidstock/internal/infrastructure/http/v1/dto"
	"rfidstock/pkg/logger"
	"rfidstock/pkg/rfid"
)

// ReaderHandler exposes the shared RFID reader.
type ReaderHandler struct {
	*BaseHandler
	reader   rfid.Reader
	sessions *session.Manager
}

// NewReaderHandler creates a reader handler over the manager's reader.
func NewReaderHandler(base *BaseHandler, sessions *session.Manager) *ReaderHandler {
	return &ReaderHandler{
		BaseHandler: base,
		reader:      sessions.Reader(),
		sessions:    sessions,
	}
}

// Status handles GET /rfid/status
// An unavailable reader is reported in the body, not as an error.
func (h *ReaderHandler) Status(c *gin.Context) {
	status := dto.ReaderStatus{Reading: h.reader.Reading()}
	if owner, ok := h.sessions.ReadingSession(); ok {
		status.Session = owner.String()
	}

	version, err := h.reader.Version()
	if err != nil {
		status.Error = err.Error()
		h.OK(c, status)
		return
	}
	status.Available = true
	status.Version = version
	status.WorkingMode, _ = h.reader.WorkingMode()
	status.Power, _ = h.reader.Power()

	h.OK(c, status)
}

// SetPower handles PUT /rfid/power
func (h *ReaderHandler) SetPower(c *gin.Context) {
	var req dto.PowerRequest
	if !h.BindJSON(c, &req) {
		return
	}
	if err := rfid.ValidatePower(req.Power); err != nil {
		h.Error(c, apperror.NewValidation("power out of range").
			WithDetail("min", rfid.MinPower).
			WithDetail("max", rfid.MaxPower))
		return
	}

	if err := h.reader.SetAntennaPower(req.Power); err != nil {
		h.Error(c, session.ReaderError(err))
		return
	}
	logger.Info(c.Request.Context(), "antenna power set", "power", req.Power)

	power, err := h.reader.Power()
	if err != nil {
		h.Error(c, session.ReaderError(err))
		return
	}
	h.OK(c, gin.H{"power": power})
}

// RegisterRoutes registers reader routes.
func (h *ReaderHandler) RegisterRoutes(rg *gin.RouterGroup) {
	r := rg.Group("/rfid")
	r.GET("/status", h.Status)
	r.PUT("/power", h.SetPower)
}

package handlers

import (
	"github.com/gin-gonic/gin"

	"rfidstock/internal/domain/journal"
	"rfidstock/internal/domain/session"
	"rfidstock/internal/infrastructure/http/v1/dto"
)

// SessionHandler exposes edit sessions.
type SessionHandler struct {
	*BaseHandler
	manager *session.Manager
}

// NewSessionHandler creates a session handler.
func NewSessionHandler(base *BaseHandler, manager *session.Manager) *SessionHandler {
	return &SessionHandler{
		BaseHandler: base,
		manager:     manager,
	}
}

// session resolves :id to a session of the calling user.
func (h *SessionHandler) session(c *gin.Context) (*session.Session, bool) {
	s, err := h.manager.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.Error(c, err)
		return nil, false
	}
	return s, true
}

func (h *SessionHandler) snapshot(c *gin.Context, s *session.Session, created bool) {
	snap, err := s.Snapshot()
	if err != nil {
		h.Error(c, err)
		return
	}
	if created {
		h.Created(c, snap)
		return
	}
	h.OK(c, snap)
}

// Open handles POST /sessions
func (h *SessionHandler) Open(c *gin.Context) {
	var req dto.OpenSessionRequest
	if !h.BindJSON(c, &req) {
		return
	}

	s, err := h.manager.Open(c.Request.Context(), req.Kind, req.Name)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.snapshot(c, s, true)
}

// Get handles GET /sessions/:id
func (h *SessionHandler) Get(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	h.snapshot(c, s, false)
}

// Close handles DELETE /sessions/:id
func (h *SessionHandler) Close(c *gin.Context) {
	if err := h.manager.Close(c.Request.Context(), c.Param("id")); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}

// UpdateRecord handles PUT /sessions/:id/record
func (h *SessionHandler) UpdateRecord(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	var values map[string]any
	if !h.BindJSON(c, &values) {
		return
	}

	if err := s.Update(c.Request.Context(), values); err != nil {
		h.Error(c, err)
		return
	}
	h.snapshot(c, s, false)
}

// AttachTag handles POST /sessions/:id/tags
func (h *SessionHandler) AttachTag(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	var req dto.AttachTagRequest
	if !h.BindJSON(c, &req) {
		return
	}

	result, err := s.AttachTag(c.Request.Context(), req.TagID, journal.SourceManual)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, result)
}

// SetTags handles PUT /sessions/:id/tags
func (h *SessionHandler) SetTags(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	var rows []dto.LinkedTagRequest
	if !h.BindJSON(c, &rows) {
		return
	}

	if err := s.SetLinkedTags(c.Request.Context(), dto.ToLinkedTags(rows)); err != nil {
		h.Error(c, err)
		return
	}
	h.snapshot(c, s, false)
}

// Save handles POST /sessions/:id/save
func (h *SessionHandler) Save(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}

	doc, err := s.Save(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, documentResponse(doc))
}

// Scan handles POST /sessions/:id/scan
func (h *SessionHandler) Scan(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}

	result, err := s.Scan(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, result)
}

// StartReading handles POST /sessions/:id/reading/start
func (h *SessionHandler) StartReading(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	if err := s.StartReading(c.Request.Context()); err != nil {
		h.Error(c, err)
		return
	}
	h.Success(c, "reading started")
}

// StopReading handles POST /sessions/:id/reading/stop
func (h *SessionHandler) StopReading(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	if err := s.StopReading(); err != nil {
		h.Error(c, err)
		return
	}
	h.Success(c, "reading stopped")
}

// RegisterRoutes registers session routes.
func (h *SessionHandler) RegisterRoutes(rg *gin.RouterGroup) {
	sessions := rg.Group("/sessions")
	sessions.POST("", h.Open)
	sessions.GET("/:id", h.Get)
	sessions.DELETE("/:id", h.Close)
	sessions.PUT("/:id/record", h.UpdateRecord)
	sessions.POST("/:id/tags", h.AttachTag)
	sessions.PUT("/:id/tags", h.SetTags)
	sessions.POST("/:id/save", h.Save)
	sessions.POST("/:id/scan", h.Scan)
	sessions.POST("/:id/reading/start", h.StartReading)
	sessions.POST("/:id/reading/stop", h.StopReading)
}

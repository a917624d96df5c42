package handlers

import (
	"github.com/gin-gonic/gin"

	"rfidstock/internal/domain/journal"
	"rfidstock/internal/infrastructure/http/v1/dto"
)

// JournalHandler serves the scan journal.
type JournalHandler struct {
	*BaseHandler
	journal journal.Repository
}

// NewJournalHandler creates a journal handler.
func NewJournalHandler(base *BaseHandler, repo journal.Repository) *JournalHandler {
	return &JournalHandler{
		BaseHandler: base,
		journal:     repo,
	}
}

// TagHistory handles GET /journal/tags/:tag_id
func (h *JournalHandler) TagHistory(c *gin.Context) {
	tagID := c.Param("tag_id")
	var q dto.HistoryQuery
	if !h.BindQuery(c, &q) {
		return
	}
	if q.Limit == 0 {
		q.Limit = journal.DefaultHistoryLimit
	}

	entries, err := h.journal.History(c.Request.Context(), tagID, q.Limit)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, gin.H{"tag_id": tagID, "items": entries})
}

// RegisterRoutes registers journal routes.
func (h *JournalHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/journal/tags/:tag_id", h.TagHistory)
}

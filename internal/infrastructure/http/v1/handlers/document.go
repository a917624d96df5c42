package handlers

import (
	"github.com/gin-gonic/gin"

	"rfidstock/internal/core/apperror"
	"rfidstock/internal/core/entity"
	"rfidstock/internal/domain/documents"
	"rfidstock/internal/domain/documents/material_request"
	"rfidstock/internal/domain/documents/sales_order"
	"rfidstock/internal/infrastructure/http/v1/dto"
)

// DocumentHandler serves ERP documents of every registered kind.
// The kind comes from the :kind path segment (slug or doctype).
type DocumentHandler struct {
	*BaseHandler
	service *documents.Service
}

// NewDocumentHandler creates a document handler.
func NewDocumentHandler(base *BaseHandler, service *documents.Service) *DocumentHandler {
	return &DocumentHandler{
		BaseHandler: base,
		service:     service,
	}
}

func (h *DocumentHandler) kind(c *gin.Context) (documents.Kind, bool) {
	kind, err := h.service.Kind(c.Param("kind"))
	if err != nil {
		h.Error(c, err)
		return documents.Kind{}, false
	}
	return kind, true
}

// requireKind rejects routes that only exist for one doctype.
func (h *DocumentHandler) requireKind(c *gin.Context, doctype string) bool {
	kind, ok := h.kind(c)
	if !ok {
		return false
	}
	if kind.Doctype != doctype {
		h.Error(c, apperror.NewNotFound("route", c.Request.URL.Path))
		return false
	}
	return true
}

func documentResponse(doc documents.Doc) dto.DocumentResponse {
	return dto.DocumentResponse{
		Doctype: doc.Doctype(),
		Name:    doc.Header().Name,
		Record:  doc,
	}
}

// List handles GET /documents/:kind
func (h *DocumentHandler) List(c *gin.Context) {
	kind, ok := h.kind(c)
	if !ok {
		return
	}
	var q dto.ListQuery
	if !h.BindQuery(c, &q) {
		return
	}

	result, err := h.service.List(c.Request.Context(), kind, q.ToFilter())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, result)
}

// Recent handles GET /documents/recent
func (h *DocumentHandler) Recent(c *gin.Context) {
	var q dto.RecentQuery
	if !h.BindQuery(c, &q) {
		return
	}

	feeds, err := h.service.Recent(c.Request.Context(), q.Limit)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, gin.H{"feeds": feeds})
}

// Get handles GET /documents/:kind/:name
func (h *DocumentHandler) Get(c *gin.Context) {
	kind, ok := h.kind(c)
	if !ok {
		return
	}

	doc, err := h.service.Load(c.Request.Context(), kind, c.Param("name"))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, doc)
}

// Create handles POST /documents/:kind
func (h *DocumentHandler) Create(c *gin.Context) {
	kind, ok := h.kind(c)
	if !ok {
		return
	}
	var values map[string]any
	if !h.BindJSON(c, &values) {
		return
	}

	doc, err := kind.Decode(values)
	if err != nil {
		h.Error(c, err)
		return
	}
	// a create never targets an existing document
	*doc.Header() = entity.Document{}

	saved, err := h.service.Save(c.Request.Context(), doc)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, documentResponse(saved))
}

// Update handles PUT /documents/:kind/:name
func (h *DocumentHandler) Update(c *gin.Context) {
	kind, ok := h.kind(c)
	if !ok {
		return
	}
	var values map[string]any
	if !h.BindJSON(c, &values) {
		return
	}

	saved, err := h.service.Update(c.Request.Context(), kind, c.Param("name"), values)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, documentResponse(saved))
}

// Delete handles DELETE /documents/:kind/:name
func (h *DocumentHandler) Delete(c *gin.Context) {
	kind, ok := h.kind(c)
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), kind, c.Param("name")); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}

// Submit handles POST /documents/:kind/:name/submit
func (h *DocumentHandler) Submit(c *gin.Context) {
	kind, ok := h.kind(c)
	if !ok {
		return
	}

	doc, err := h.service.Submit(c.Request.Context(), kind, c.Param("name"))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, documentResponse(doc))
}

// MakeStockEntry handles POST /documents/material-request/:name/stock-entry
func (h *DocumentHandler) MakeStockEntry(c *gin.Context) {
	if !h.requireKind(c, material_request.Doctype) {
		return
	}

	doc, err := h.service.MakeStockEntry(c.Request.Context(), c.Param("name"))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, documentResponse(doc))
}

// LinkedStockEntries handles GET /documents/material-request/:name/stock-entries
func (h *DocumentHandler) LinkedStockEntries(c *gin.Context) {
	if !h.requireKind(c, material_request.Doctype) {
		return
	}

	refs, err := h.service.LinkedStockEntries(c.Request.Context(), c.Param("name"))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, gin.H{"items": refs})
}

// MakeDeliveryNote handles POST /documents/sales-order/:name/delivery-note
func (h *DocumentHandler) MakeDeliveryNote(c *gin.Context) {
	if !h.requireKind(c, sales_order.Doctype) {
		return
	}

	doc, err := h.service.MakeDeliveryNote(c.Request.Context(), c.Param("name"))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, documentResponse(doc))
}

// LinkOptions handles GET /links/:doctype
func (h *DocumentHandler) LinkOptions(c *gin.Context) {
	names, err := h.service.LinkOptions(c.Request.Context(), c.Param("doctype"))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, gin.H{"doctype": c.Param("doctype"), "options": names})
}

// RegisterRoutes registers document and link routes.
func (h *DocumentHandler) RegisterRoutes(rg *gin.RouterGroup) {
	docs := rg.Group("/documents")
	docs.GET("/recent", h.Recent)
	docs.GET("/:kind", h.List)
	docs.POST("/:kind", h.Create)
	docs.GET("/:kind/:name", h.Get)
	docs.PUT("/:kind/:name", h.Update)
	docs.DELETE("/:kind/:name", h.Delete)
	docs.POST("/:kind/:name/submit", h.Submit)
	docs.POST("/:kind/:name/stock-entry", h.MakeStockEntry)
	docs.GET("/:kind/:name/stock-entries", h.LinkedStockEntries)
	docs.POST("/:kind/:name/delivery-note", h.MakeDeliveryNote)

	rg.GET("/links/:doctype", h.LinkOptions)
}

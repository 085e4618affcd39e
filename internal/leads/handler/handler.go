// Package handler exposes the leads HTTP endpoints.
package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"leadflow_backend/internal/leads/service"
	"leadflow_backend/internal/leads/transport"
	"leadflow_backend/platform/httpkit"
	"leadflow_backend/platform/validator"
)

// Handler serves lead creation, scoring, and history endpoints.
type Handler struct {
	svc      *service.Service
	validate *validator.Validator
}

// New creates a new leads handler.
func New(svc *service.Service, validate *validator.Validator) *Handler {
	return &Handler{svc: svc, validate: validate}
}

// RegisterRoutes mounts the lead endpoints on the authenticated group.
func (h *Handler) RegisterRoutes(group *gin.RouterGroup) {
	group.POST("", h.Create)
	group.GET("/:id", h.Get)
	group.POST("/:id/score", h.Score)
	group.GET("/:id/score-history", h.ScoreHistory)
	group.POST("/batch-score", h.BatchScore)
	group.POST("/events", h.RecordEvent)
}

// Create stores a new lead and returns it with its initial score.
func (h *Handler) Create(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}
	tenantID, ok := httpkit.MustGetTenantID(c, id)
	if !ok {
		return
	}

	var req transport.CreateLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "validation failed", err.Error())
		return
	}

	lead, score, err := h.svc.Create(c.Request.Context(), tenantID, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.Created(c, gin.H{"lead": lead, "score": score})
}

// Get returns a single lead.
func (h *Handler) Get(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}
	tenantID, ok := httpkit.MustGetTenantID(c, id)
	if !ok {
		return
	}
	leadID, ok := parseLeadID(c)
	if !ok {
		return
	}

	lead, err := h.svc.Get(c.Request.Context(), leadID, tenantID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, lead)
}

// Score recomputes a single lead's score on demand.
func (h *Handler) Score(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}
	tenantID, ok := httpkit.MustGetTenantID(c, id)
	if !ok {
		return
	}
	leadID, ok := parseLeadID(c)
	if !ok {
		return
	}

	result, err := h.svc.ScoreAndSave(c.Request.Context(), leadID, tenantID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// ScoreHistory returns a lead's score history, most recent first.
func (h *Handler) ScoreHistory(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}
	tenantID, ok := httpkit.MustGetTenantID(c, id)
	if !ok {
		return
	}
	leadID, ok := parseLeadID(c)
	if !ok {
		return
	}

	history, err := h.svc.ScoreHistory(c.Request.Context(), leadID, tenantID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, history)
}

// BatchScore rescores every tenant lead matching the request filter.
func (h *Handler) BatchScore(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}
	tenantID, ok := httpkit.MustGetTenantID(c, id)
	if !ok {
		return
	}

	var req transport.BatchScoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "validation failed", err.Error())
		return
	}

	result, err := h.svc.BatchScore(c.Request.Context(), tenantID, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// RecordEvent applies an engagement event to a lead and rescores it.
func (h *Handler) RecordEvent(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}
	tenantID, ok := httpkit.MustGetTenantID(c, id)
	if !ok {
		return
	}

	var req transport.EngagementEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "validation failed", err.Error())
		return
	}

	result, err := h.svc.ApplyEvent(c.Request.Context(), tenantID, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

func parseLeadID(c *gin.Context) (uuid.UUID, bool) {
	leadID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid lead id", nil)
		return uuid.Nil, false
	}
	return leadID, true
}

package webhook

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"leadflow_backend/internal/events"
	"leadflow_backend/platform/httpkit"
	"leadflow_backend/platform/logger"
	"leadflow_backend/platform/validator"
)

// EngagementPayload is the provider-pushed engagement signal.
type EngagementPayload struct {
	LeadID uuid.UUID `json:"leadId" validate:"required"`
	Kind   string    `json:"kind" validate:"required,oneof=email_opened email_clicked email_replied sms_replied call_answered form_submitted"`
}

// CreateKeyRequest creates a new webhook API key.
type CreateKeyRequest struct {
	Label string `json:"label" validate:"required,max=100"`
}

// Handler serves the engagement ingestion and key management endpoints.
type Handler struct {
	repo     *Repository
	bus      events.Bus
	validate *validator.Validator
	log      *logger.Logger
}

// NewHandler creates a new webhook handler.
func NewHandler(repo *Repository, bus events.Bus, validate *validator.Validator, log *logger.Logger) *Handler {
	return &Handler{repo: repo, bus: bus, validate: validate, log: log}
}

// HandleEngagement ingests one engagement signal. The event is published and
// applied asynchronously; the provider gets a 202 regardless of how scoring
// goes afterwards.
func (h *Handler) HandleEngagement(c *gin.Context) {
	raw, exists := c.Get(ContextTenantIDKey)
	tenantID, ok := raw.(uuid.UUID)
	if !exists || !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing tenant context"})
		return
	}

	var payload EngagementPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	if err := h.validate.Struct(payload); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "validation failed", err.Error())
		return
	}

	h.bus.Publish(c.Request.Context(), events.EngagementRecorded{
		BaseEvent: events.NewBaseEvent(),
		LeadID:    payload.LeadID,
		TenantID:  tenantID,
		Kind:      payload.Kind,
	})
	h.log.Info("engagement signal accepted", "lead_id", payload.LeadID, "kind", payload.Kind)

	c.JSON(http.StatusAccepted, gin.H{"status": "accepted"})
}

// HandleCreateKey creates a webhook API key for the caller's tenant. The
// plaintext key appears in this response only.
func (h *Handler) HandleCreateKey(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}
	tenantID, ok := httpkit.MustGetTenantID(c, id)
	if !ok {
		return
	}

	var req CreateKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "validation failed", err.Error())
		return
	}

	plaintext, hash, err := GenerateAPIKey()
	if err != nil {
		httpkit.Error(c, http.StatusInternalServerError, "failed to generate key", nil)
		return
	}

	key, err := h.repo.Create(c.Request.Context(), tenantID, req.Label, hash)
	if err != nil {
		httpkit.Error(c, http.StatusInternalServerError, "failed to store key", nil)
		return
	}

	httpkit.Created(c, gin.H{"key": key, "plaintext": plaintext})
}

// HandleListKeys lists the tenant's webhook API keys.
func (h *Handler) HandleListKeys(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}
	tenantID, ok := httpkit.MustGetTenantID(c, id)
	if !ok {
		return
	}

	keys, err := h.repo.ListByTenant(c.Request.Context(), tenantID)
	if err != nil {
		httpkit.Error(c, http.StatusInternalServerError, "failed to list keys", nil)
		return
	}
	httpkit.OK(c, keys)
}

// HandleRevokeKey deactivates one of the tenant's webhook API keys.
func (h *Handler) HandleRevokeKey(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}
	tenantID, ok := httpkit.MustGetTenantID(c, id)
	if !ok {
		return
	}

	keyID, err := uuid.Parse(c.Param("keyId"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid key id", nil)
		return
	}

	if err := h.repo.Revoke(c.Request.Context(), keyID, tenantID); err != nil {
		httpkit.Error(c, http.StatusNotFound, "key not found", nil)
		return
	}
	httpkit.OK(c, gin.H{"status": "revoked"})
}

package webhook

import (
	"github.com/jackc/pgx/v5/pgxpool"

	"leadflow_backend/internal/events"
	apphttp "leadflow_backend/internal/http"
	"leadflow_backend/platform/logger"
	"leadflow_backend/platform/validator"
)

// Module is the webhook bounded context module implementing http.Module.
type Module struct {
	handler *Handler
	repo    *Repository
}

var _ apphttp.Module = (*Module)(nil)

// NewModule creates and initializes the webhook module.
func NewModule(pool *pgxpool.Pool, bus events.Bus, log *logger.Logger) *Module {
	repo := NewRepository(pool)
	return &Module{
		handler: NewHandler(repo, bus, validator.New(), log),
		repo:    repo,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "webhook"
}

// RegisterRoutes mounts webhook routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	// Public ingestion endpoint (API key auth, no JWT), rate limited.
	ingest := ctx.V1.Group("/webhooks")
	ingest.Use(ctx.WebhookRateLimiter.RateLimit())
	ingest.Use(APIKeyAuthMiddleware(m.repo))
	ingest.POST("/engagement", m.handler.HandleEngagement)

	// Key management (JWT auth).
	keys := ctx.Protected.Group("/webhooks/keys")
	keys.POST("", m.handler.HandleCreateKey)
	keys.GET("", m.handler.HandleListKeys)
	keys.DELETE("/:keyId", m.handler.HandleRevokeKey)
}

// Package workflows wires the workflow context: repository, executor,
// service, and HTTP handler.
package workflows

import (
	"github.com/jackc/pgx/v5/pgxpool"

	"leadflow_backend/internal/events"
	apphttp "leadflow_backend/internal/http"
	leadsrepo "leadflow_backend/internal/leads/repository"
	"leadflow_backend/internal/workflows/executor"
	"leadflow_backend/internal/workflows/handler"
	"leadflow_backend/internal/workflows/repository"
	"leadflow_backend/internal/workflows/service"
	"leadflow_backend/platform/logger"
	"leadflow_backend/platform/validator"
)

// Module bundles the workflow context for route registration.
type Module struct {
	svc     *service.Service
	handler *handler.Handler
}

var _ apphttp.Module = (*Module)(nil)

// NewModule constructs the workflows module.
func NewModule(pool *pgxpool.Pool, bus events.Bus, scheduler service.TaskScheduler, log *logger.Logger, opts executor.Options) *Module {
	repo := repository.New(pool)
	exec := executor.New(repo, bus, log, opts)
	svc := service.New(repo, leadsrepo.New(pool), exec, scheduler, log)
	return &Module{
		svc:     svc,
		handler: handler.New(svc, validator.New()),
	}
}

// Name returns the module identifier.
func (m *Module) Name() string { return "workflows" }

// RegisterRoutes mounts the workflow endpoints under the authenticated group.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Protected.Group("/workflows"))
}

// Service exposes the workflow service for the scheduler worker.
func (m *Module) Service() *service.Service { return m.svc }

// Package leads wires the lead scoring context: repository, service, HTTP
// handler, and the engagement event subscription.
package leads

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"leadflow_backend/internal/events"
	apphttp "leadflow_backend/internal/http"
	"leadflow_backend/internal/leads/handler"
	"leadflow_backend/internal/leads/repository"
	"leadflow_backend/internal/leads/service"
	"leadflow_backend/internal/leads/transport"
	"leadflow_backend/platform/logger"
	"leadflow_backend/platform/validator"
)

// Module bundles the leads context for route registration.
type Module struct {
	svc     *service.Service
	handler *handler.Handler
	log     *logger.Logger
}

// Compile-time check that Module implements the HTTP module interface.
var _ apphttp.Module = (*Module)(nil)

// NewModule constructs the leads module and subscribes it to engagement
// events so webhook-sourced signals trigger a rescore.
func NewModule(pool *pgxpool.Pool, scheduler service.OutreachScheduler, bus events.Bus, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, scheduler, bus, log)
	m := &Module{
		svc:     svc,
		handler: handler.New(svc, validator.New()),
		log:     log,
	}

	bus.Subscribe(events.EventEngagementRecorded, events.HandlerFunc(m.onEngagementRecorded))
	return m
}

// Name returns the module identifier.
func (m *Module) Name() string { return "leads" }

// RegisterRoutes mounts the lead endpoints under the authenticated group.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Protected.Group("/leads"))
}

// Service exposes the lead service for composition by other modules.
func (m *Module) Service() *service.Service { return m.svc }

func (m *Module) onEngagementRecorded(ctx context.Context, event events.Event) error {
	recorded, ok := event.(events.EngagementRecorded)
	if !ok {
		return nil
	}
	_, err := m.svc.ApplyEvent(ctx, recorded.TenantID, transport.EngagementEventRequest{
		LeadID: recorded.LeadID,
		Kind:   recorded.Kind,
	})
	if err != nil {
		m.log.Error("engagement event rescore failed", "lead_id", recorded.LeadID, "error", err)
	}
	return err
}

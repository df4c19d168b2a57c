// Package auth wires the authentication module.
package auth

import (
	"salesclutch/internal/auth/handler"
	"salesclutch/internal/auth/repository"
	"salesclutch/internal/auth/service"
	"salesclutch/internal/config"
	"salesclutch/internal/events"
	apphttp "salesclutch/internal/http"
	"salesclutch/platform/logger"
	"salesclutch/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Module struct {
	svc     *service.Service
	handler *handler.Handler
}

func NewModule(pool *pgxpool.Pool, workspaces service.WorkspaceDirectory, bus events.Bus, cfg *config.Config, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, workspaces, bus, cfg, log)
	return &Module{
		svc:     svc,
		handler: handler.New(svc, val),
	}
}

func (m *Module) Name() string { return "auth" }

// Service exposes the auth service for cross-module wiring.
func (m *Module) Service() *service.Service {
	return m.svc
}

func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	public := ctx.V1.Group("/auth")
	public.Use(ctx.AuthRateLimiter.RateLimit())
	m.handler.RegisterPublicRoutes(public)

	protected := ctx.Protected.Group("/auth")
	m.handler.RegisterProtectedRoutes(protected)
}

var _ apphttp.Module = (*Module)(nil)

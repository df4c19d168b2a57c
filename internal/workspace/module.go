// Package workspace wires the workspace module.
package workspace

import (
	"salesclutch/internal/config"
	"salesclutch/internal/events"
	apphttp "salesclutch/internal/http"
	"salesclutch/internal/workspace/handler"
	"salesclutch/internal/workspace/repository"
	"salesclutch/internal/workspace/service"
	"salesclutch/platform/httpkit"
	"salesclutch/platform/logger"
	"salesclutch/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Module struct {
	svc     *service.Service
	handler *handler.Handler
}

func NewModule(pool *pgxpool.Pool, bus events.Bus, cfg *config.Config, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, bus, cfg, log)
	return &Module{
		svc:     svc,
		handler: handler.New(svc, val),
	}
}

func (m *Module) Name() string { return "workspace" }

// Service exposes the workspace service; the auth module uses it as its
// workspace directory.
func (m *Module) Service() *service.Service {
	return m.svc
}

func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	rg := ctx.Protected.Group("/workspace")
	m.handler.RegisterRoutes(rg)

	owner := rg.Group("", httpkit.RequireRole(repository.RoleOwner))
	m.handler.RegisterOwnerRoutes(owner)

	m.handler.RegisterListRoute(ctx.Protected.Group("/workspaces"))
}

var _ apphttp.Module = (*Module)(nil)

// Package calls provides the call ingestion bounded context module:
// uploads, background processing, and the analysis results the deal
// pipeline consumes.
package calls

import (
	"salesclutch/internal/adapters/storage"
	"salesclutch/internal/calls/handler"
	"salesclutch/internal/calls/repository"
	"salesclutch/internal/calls/service"
	apphttp "salesclutch/internal/http"
	"salesclutch/internal/instructionset"
	"salesclutch/internal/worker"
	"salesclutch/platform/logger"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the calls bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

func NewModule(
	pool *pgxpool.Pool,
	store storage.Service,
	queue worker.Enqueuer,
	sets *instructionset.Registry,
	log *logger.Logger,
) *Module {
	repo := repository.New(pool)
	svc := service.NewService(repo, store, queue, sets, log)
	h := handler.New(svc)

	return &Module{handler: h, service: svc}
}

func (m *Module) Name() string {
	return "calls"
}

// Service returns the call service; the deals module uses it as its
// analysis source for the gate flow.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts call routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	callsGroup := ctx.Protected.Group("/calls")
	m.handler.RegisterRoutes(callsGroup)
}

var _ apphttp.Module = (*Module)(nil)

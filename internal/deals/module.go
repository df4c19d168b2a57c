// Package deals provides the deal pipeline bounded context module: CRUD,
// the progression ledger, and the stage machine behind it.
package deals

import (
	"salesclutch/internal/deals/handler"
	"salesclutch/internal/deals/repository"
	"salesclutch/internal/deals/service"
	"salesclutch/internal/events"
	apphttp "salesclutch/internal/http"
	"salesclutch/platform/logger"
	"salesclutch/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the deals bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates the deals module. The advancement policy is built from
// the instruction-set registry's stage mapping; the analysis source is the
// calls module's service, injected as an interface to keep the contexts
// decoupled.
func NewModule(
	pool *pgxpool.Pool,
	policies service.PolicySource,
	analyses handler.AnalysisSource,
	eventBus events.Bus,
	val *validator.Validator,
	log *logger.Logger,
) *Module {
	repo := repository.New(pool)
	machine := service.NewStageMachine(repo, policies, eventBus, log)
	svc := service.NewService(repo, machine, log)
	h := handler.New(svc, analyses, val)

	return &Module{handler: h, service: svc}
}

func (m *Module) Name() string {
	return "deals"
}

// Service returns the deal service for other modules, in particular the
// call processor that feeds analysis results into the stage machine.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts deal routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	dealsGroup := ctx.Protected.Group("/deals")
	m.handler.RegisterRoutes(dealsGroup)
}

var _ apphttp.Module = (*Module)(nil)

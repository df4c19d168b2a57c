package instructionset

import (
	apphttp "salesclutch/internal/http"
	"salesclutch/platform/logger"
)

// Module exposes the registry over HTTP and hands the registry itself to
// the modules that consume it.
type Module struct {
	registry *Registry
	handler  *Handler
}

func NewModule(path string, log *logger.Logger) (*Module, error) {
	registry, err := NewRegistry(path, log)
	if err != nil {
		return nil, err
	}
	return &Module{registry: registry, handler: NewHandler(registry)}, nil
}

func (m *Module) Name() string {
	return "instructionset"
}

// Registry returns the live registry for the analyzer and the stage
// machine's policy source.
func (m *Module) Registry() *Registry {
	return m.registry
}

func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Protected.GET("/instruction-sets", m.handler.List)
	ctx.Admin.POST("/instruction-sets/reload", m.handler.Reload)
}

var _ apphttp.Module = (*Module)(nil)

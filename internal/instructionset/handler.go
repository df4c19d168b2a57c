package instructionset

import (
	"net/http"

	"salesclutch/platform/httpkit"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	registry *Registry
}

func NewHandler(registry *Registry) *Handler {
	return &Handler{registry: registry}
}

type setResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Stage       string `json:"stage,omitempty"`
}

func (h *Handler) List(c *gin.Context) {
	sets := h.registry.List()
	out := make([]setResponse, 0, len(sets))
	for _, set := range sets {
		out = append(out, setResponse{
			ID:          set.ID,
			Name:        set.Name,
			Description: set.Description,
			Stage:       set.Stage,
		})
	}
	httpkit.OK(c, gin.H{"instruction_sets": out})
}

func (h *Handler) Reload(c *gin.Context) {
	if err := h.registry.Reload(); err != nil {
		httpkit.Error(c, http.StatusInternalServerError, "reload failed", err.Error())
		return
	}
	httpkit.OK(c, gin.H{"reloaded": true, "instruction_sets": len(h.registry.List())})
}

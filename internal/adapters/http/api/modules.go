// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"net/http"

	"github.com/loesoe/cortex/internal/domain/module"
)

// ModulesHandler runs the registered scoring modules on demand.
type ModulesHandler struct {
	deps Dependencies
}

// NewModulesHandler creates a new modules handler.
func NewModulesHandler(deps Dependencies) *ModulesHandler {
	return &ModulesHandler{deps: deps}
}

type modulesRunResponse struct {
	Results []module.Result `json:"results"`
}

// HandleRun handles GET /ml/run requests.
func (h *ModulesHandler) HandleRun(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}

	results, err := h.deps.RunModules(r.Context(), r.URL.Query().Get("user_id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal", err)
		return
	}
	writeJSON(w, http.StatusOK, modulesRunResponse{Results: results})
}

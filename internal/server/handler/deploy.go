package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/arandaschimpf/claude-review/internal/core"
)

// DeployHandler exposes the self-update script and process status.
type DeployHandler struct {
	deployer core.Deployer
	logger   *slog.Logger
}

// NewDeployHandler creates a DeployHandler.
func NewDeployHandler(deployer core.Deployer, logger *slog.Logger) *DeployHandler {
	return &DeployHandler{deployer: deployer, logger: logger}
}

type deployResponse struct {
	Message string `json:"message"`
	Status  string `json:"status"`
}

// Deploy starts the update script and responds 202 right away.
func (h *DeployHandler) Deploy(w http.ResponseWriter, r *http.Request) {
	err := h.deployer.Trigger(r.Context(), callerName(r))
	switch {
	case err == nil:
		writeJSON(w, http.StatusAccepted, deployResponse{Message: "Deployment initiated", Status: "processing"})
	case errors.Is(err, core.ErrDeployDisabled):
		writeError(w, http.StatusNotImplemented, "Deployment is not configured")
	case errors.Is(err, core.ErrShuttingDown):
		writeError(w, http.StatusServiceUnavailable, "Service is shutting down")
	default:
		h.logger.Error("failed to initiate deployment", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to initiate deployment")
	}
}

// Status reports on the serving process.
func (h *DeployHandler) Status(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.deployer.Status())
}

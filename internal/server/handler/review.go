package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/arandaschimpf/claude-review/internal/core"
)

// ReviewHandler accepts pull request review requests.
type ReviewHandler struct {
	submitter core.ReviewSubmitter
	logger    *slog.Logger
}

// NewReviewHandler creates a ReviewHandler.
func NewReviewHandler(submitter core.ReviewSubmitter, logger *slog.Logger) *ReviewHandler {
	return &ReviewHandler{submitter: submitter, logger: logger}
}

type reviewRequest struct {
	URL string `json:"url"`
}

type reviewResponse struct {
	Message   string `json:"message"`
	URL       string `json:"url"`
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

// Handle validates the request and schedules the review. It responds 202
// before the agent has finished.
func (h *ReviewHandler) Handle(w http.ResponseWriter, r *http.Request) {
	var body reviewRequest
	if err := decodeJSON(w, r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if body.URL == "" {
		writeError(w, http.StatusBadRequest, "Pull request URL is required")
		return
	}

	ack, err := h.submitter.Submit(r.Context(), core.ReviewRequest{
		URL:         body.URL,
		RequestedBy: callerName(r),
	})
	if err != nil {
		var verr *core.ValidationError
		switch {
		case errors.As(err, &verr):
			writeError(w, http.StatusBadRequest, verr.Reason)
		case errors.Is(err, core.ErrShuttingDown):
			writeError(w, http.StatusServiceUnavailable, "Service is shutting down")
		default:
			h.logger.Error("failed to initiate pull request review", "url", body.URL, "error", err)
			writeError(w, http.StatusInternalServerError, "Failed to initiate pull request review")
		}
		return
	}

	writeJSON(w, http.StatusAccepted, reviewResponse{
		Message:   "Pull request review initiated successfully",
		URL:       ack.URL,
		Status:    "processing",
		Timestamp: ack.AcceptedAt.UTC().Format(time.RFC3339Nano),
	})
}

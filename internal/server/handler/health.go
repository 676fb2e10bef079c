package handler

import (
	"net/http"
	"time"
)

// ServiceName is reported by the health endpoint and stamped on every log line.
const ServiceName = "claude-review"

type healthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Service   string `json:"service"`
}

// Health reports that the service is up. It needs no authentication.
func Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		Service:   ServiceName,
	})
}

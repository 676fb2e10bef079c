package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/arandaschimpf/claude-review/internal/core"
)

// KeysHandler manages API keys. All routes are admin only.
type KeysHandler struct {
	keys   core.KeyStore
	logger *slog.Logger
}

// NewKeysHandler creates a KeysHandler.
func NewKeysHandler(keys core.KeyStore, logger *slog.Logger) *KeysHandler {
	return &KeysHandler{keys: keys, logger: logger}
}

type createKeyRequest struct {
	Name string `json:"name"`
}

type createKeyResponse struct {
	Message   string    `json:"message"`
	Key       string    `json:"key"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

// Create issues a new non-admin key.
func (h *KeysHandler) Create(w http.ResponseWriter, r *http.Request) {
	var body createKeyRequest
	if err := decodeJSON(w, r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if body.Name == "" {
		writeError(w, http.StatusBadRequest, "Name is required")
		return
	}

	k, err := h.keys.CreateKey(r.Context(), body.Name, false, callerName(r))
	if err != nil {
		h.logger.Error("failed to create API key", "name", body.Name, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to create API key")
		return
	}

	h.logger.Info("API key created", "name", k.Name, "created_by", callerName(r))
	writeJSON(w, http.StatusCreated, createKeyResponse{
		Message:   "API key created successfully",
		Key:       k.Key,
		Name:      k.Name,
		CreatedAt: k.CreatedAt,
	})
}

// List returns every key.
func (h *KeysHandler) List(w http.ResponseWriter, r *http.Request) {
	keys, err := h.keys.ListKeys(r.Context())
	if err != nil {
		h.logger.Error("failed to list API keys", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to retrieve API keys")
		return
	}
	if keys == nil {
		keys = []*core.APIKey{}
	}
	writeJSON(w, http.StatusOK, keys)
}

// Delete removes the key named in the path.
func (h *KeysHandler) Delete(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")

	deleted, err := h.keys.DeleteKey(r.Context(), key)
	if err != nil {
		h.logger.Error("failed to delete API key", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to delete API key")
		return
	}
	if !deleted {
		writeError(w, http.StatusNotFound, "API key not found")
		return
	}

	h.logger.Info("API key deleted", "deleted_by", callerName(r))
	writeJSON(w, http.StatusOK, messageResponse{Message: "API key deleted successfully"})
}

package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/arandaschimpf/claude-review/internal/core"
)

// APIKeyHeader carries the caller's API key.
const APIKeyHeader = "X-API-Key"

// Auth is the API key gate.
type Auth struct {
	keys   core.KeyStore
	logger *slog.Logger
}

// NewAuth creates an Auth backed by keys.
func NewAuth(keys core.KeyStore, logger *slog.Logger) *Auth {
	return &Auth{keys: keys, logger: logger}
}

// Authenticate rejects requests without a known API key and attaches the
// caller to the request context.
func (a *Auth) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Header.Get(APIKeyHeader)
		if key == "" {
			writeError(w, http.StatusUnauthorized, "API key required")
			return
		}

		k, err := a.keys.FindByKey(r.Context(), key)
		if err != nil {
			if errors.Is(err, core.ErrKeyNotFound) {
				a.logger.Warn("rejected request with unknown API key", "path", r.URL.Path, "remote", r.RemoteAddr)
				writeError(w, http.StatusUnauthorized, "Invalid API key")
				return
			}
			a.logger.Error("failed to validate API key", "error", err)
			writeError(w, http.StatusInternalServerError, "Internal server error")
			return
		}

		caller := &core.Caller{KeyName: k.Name, Key: k.Key, IsAdmin: k.IsAdmin}
		next.ServeHTTP(w, r.WithContext(core.WithCaller(r.Context(), caller)))
	})
}

// RequireAdmin rejects callers without admin privileges. It must run after
// Authenticate.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		caller, ok := core.CallerFromContext(r.Context())
		if !ok || !caller.IsAdmin {
			writeError(w, http.StatusForbidden, "Admin privileges required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func callerName(r *http.Request) string {
	if c, ok := core.CallerFromContext(r.Context()); ok {
		return c.KeyName
	}
	return ""
}

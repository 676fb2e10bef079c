package handler

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"github.com/arandaschimpf/claude-review/internal/core"
	"github.com/arandaschimpf/claude-review/mocks"
)

func TestAuthenticate(t *testing.T) {
	testCases := []struct {
		name       string
		key        string
		mockSetup  func(ks *mocks.MockKeyStore)
		wantStatus int
		wantError  string
		wantCaller string
	}{
		{
			name:       "Missing key",
			mockSetup:  func(*mocks.MockKeyStore) {},
			wantStatus: http.StatusUnauthorized,
			wantError:  "API key required",
		},
		{
			name: "Unknown key",
			key:  "nope",
			mockSetup: func(ks *mocks.MockKeyStore) {
				ks.EXPECT().FindByKey(gomock.Any(), "nope").Return(nil, core.ErrKeyNotFound)
			},
			wantStatus: http.StatusUnauthorized,
			wantError:  "Invalid API key",
		},
		{
			name: "Store failure",
			key:  "k1",
			mockSetup: func(ks *mocks.MockKeyStore) {
				ks.EXPECT().FindByKey(gomock.Any(), "k1").Return(nil, errors.New("db down"))
			},
			wantStatus: http.StatusInternalServerError,
			wantError:  "Internal server error",
		},
		{
			name: "Known key",
			key:  "k1",
			mockSetup: func(ks *mocks.MockKeyStore) {
				ks.EXPECT().FindByKey(gomock.Any(), "k1").Return(&core.APIKey{Key: "k1", Name: "ci"}, nil)
			},
			wantStatus: http.StatusNoContent,
			wantCaller: "ci",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			ks := mocks.NewMockKeyStore(ctrl)
			tc.mockSetup(ks)

			var gotCaller string
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotCaller = callerName(r)
				w.WriteHeader(http.StatusNoContent)
			})

			req := httptest.NewRequest(http.MethodPost, "/api/review", nil)
			if tc.key != "" {
				req.Header.Set(APIKeyHeader, tc.key)
			}
			rec := httptest.NewRecorder()
			NewAuth(ks, discardLogger()).Authenticate(next).ServeHTTP(rec, req)

			assert.Equal(t, tc.wantStatus, rec.Code)
			if tc.wantError != "" {
				assert.Equal(t, tc.wantError, decodeBody(t, rec)["error"])
			}
			assert.Equal(t, tc.wantCaller, gotCaller)
		})
	}
}

func TestRequireAdmin(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	t.Run("Admin passes", func(t *testing.T) {
		rec := httptest.NewRecorder()
		RequireAdmin(next).ServeHTTP(rec, withCaller(httptest.NewRequest(http.MethodGet, "/api/keys", nil), "root", true))
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})

	t.Run("Non-admin is forbidden", func(t *testing.T) {
		rec := httptest.NewRecorder()
		RequireAdmin(next).ServeHTTP(rec, withCaller(httptest.NewRequest(http.MethodGet, "/api/keys", nil), "ci", false))
		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Equal(t, "Admin privileges required", decodeBody(t, rec)["error"])
	})

	t.Run("Unauthenticated is forbidden", func(t *testing.T) {
		rec := httptest.NewRecorder()
		RequireAdmin(next).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/keys", nil))
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}

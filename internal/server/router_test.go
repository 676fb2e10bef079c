//go:build unix

package server

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/arandaschimpf/claude-review/internal/agent"
	"github.com/arandaschimpf/claude-review/internal/config"
	"github.com/arandaschimpf/claude-review/internal/core"
	"github.com/arandaschimpf/claude-review/internal/environment"
	"github.com/arandaschimpf/claude-review/internal/jobs"
	"github.com/arandaschimpf/claude-review/internal/prompt"
	"github.com/arandaschimpf/claude-review/mocks"
)

type fixedResolver struct {
	profile core.RuntimeProfile
}

func (r fixedResolver) Resolve() core.RuntimeProfile { return r.profile }

type noTokens struct{}

func (noTokens) Token(context.Context, string, string, int64) (string, error) { return "", nil }

// newTestRouter wires the real review pipeline to a slow fake agent.
func newTestRouter(t *testing.T, ks *mocks.MockKeyStore, d *mocks.MockDeployer) (http.Handler, *jobs.Tracker, string) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "prompt.txt"), []byte("  Review this pull request:\n"), 0o644))
	marker := filepath.Join(dir, "finished")
	script := filepath.Join(dir, "agent.sh")
	require.NoError(t, os.WriteFile(script, []byte("#!/bin/sh\nsleep 1\necho \"$3\" > "+marker+"\n"), 0o755))

	cfg := &config.Config{Agent: config.AgentConfig{Timeout: 10 * time.Second, KillGrace: 200 * time.Millisecond}}
	launcher := agent.NewLauncher(cfg, logger, agent.WithCommandFunc(func(ctx context.Context, _ string, arg ...string) *exec.Cmd {
		return exec.CommandContext(ctx, script, arg...)
	}))

	tracker := jobs.NewTracker(logger)
	profile := environment.Resolve(environment.Facts{WorkingDir: dir})
	svc := jobs.NewReviewService(fixedResolver{profile}, prompt.NewLoader(logger), launcher, noTokens{}, tracker, logger)

	return NewRouter(cfg, svc, d, ks, logger), tracker, marker
}

func TestRouter_ReviewAcceptedBeforeAgentFinishes(t *testing.T) {
	ctrl := gomock.NewController(t)
	ks := mocks.NewMockKeyStore(ctrl)
	ks.EXPECT().FindByKey(gomock.Any(), "user-key").Return(&core.APIKey{Key: "user-key", Name: "ci"}, nil)

	router, tracker, marker := newTestRouter(t, ks, mocks.NewMockDeployer(ctrl))

	const prURL = "https://github.com/octo/hello/pull/42"
	req := httptest.NewRequest(http.MethodPost, "/api/review", strings.NewReader(`{"url":"`+prURL+`"}`))
	req.Header.Set("X-API-Key", "user-key")
	rec := httptest.NewRecorder()

	start := time.Now()
	router.ServeHTTP(rec, req)
	assert.Less(t, time.Since(start), 500*time.Millisecond)

	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "processing", body["status"])
	assert.Equal(t, prURL, body["url"])

	_, err := os.Stat(marker)
	assert.True(t, os.IsNotExist(err), "agent must still be running when the response is sent")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	require.NoError(t, tracker.Stop(ctx))

	got, err := os.ReadFile(marker)
	require.NoError(t, err)
	assert.Equal(t, "Review this pull request: "+prURL+"\n", string(got))
}

func TestRouter_RejectsInjection(t *testing.T) {
	ctrl := gomock.NewController(t)
	ks := mocks.NewMockKeyStore(ctrl)
	ks.EXPECT().FindByKey(gomock.Any(), "user-key").Return(&core.APIKey{Key: "user-key", Name: "ci"}, nil)

	router, tracker, marker := newTestRouter(t, ks, mocks.NewMockDeployer(ctrl))

	body := `{"url":"https://github.com/octo/hello/pull/42; touch /tmp/pwned"}`
	req := httptest.NewRequest(http.MethodPost, "/api/review", strings.NewReader(body))
	req.Header.Set("X-API-Key", "user-key")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"URL contains invalid characters"}`, rec.Body.String())
	assert.Zero(t, tracker.Active())
	require.NoError(t, tracker.Stop(context.Background()))
	_, err := os.Stat(marker)
	assert.True(t, os.IsNotExist(err))
}

func TestRouter_AccessControl(t *testing.T) {
	testCases := []struct {
		name       string
		method     string
		path       string
		key        string
		wantStatus int
	}{
		{name: "Health is public", method: http.MethodGet, path: "/health", wantStatus: http.StatusOK},
		{name: "Review needs a key", method: http.MethodPost, path: "/api/review", wantStatus: http.StatusUnauthorized},
		{name: "Keys need admin", method: http.MethodGet, path: "/api/keys", key: "user-key", wantStatus: http.StatusForbidden},
		{name: "Deploy needs admin", method: http.MethodPost, path: "/api/deploy", key: "user-key", wantStatus: http.StatusForbidden},
		{name: "Deploy status needs admin", method: http.MethodGet, path: "/api/deploy/status", key: "user-key", wantStatus: http.StatusForbidden},
		{name: "Admin lists keys", method: http.MethodGet, path: "/api/keys", key: "admin-key", wantStatus: http.StatusOK},
		{name: "Webhook disabled", method: http.MethodPost, path: "/api/webhook/github", wantStatus: http.StatusNotFound},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			ks := mocks.NewMockKeyStore(ctrl)
			ks.EXPECT().FindByKey(gomock.Any(), "user-key").Return(&core.APIKey{Key: "user-key", Name: "ci"}, nil).AnyTimes()
			ks.EXPECT().FindByKey(gomock.Any(), "admin-key").Return(&core.APIKey{Key: "admin-key", Name: "Master Key", IsAdmin: true}, nil).AnyTimes()
			ks.EXPECT().ListKeys(gomock.Any()).Return(nil, nil).AnyTimes()

			router, tracker, _ := newTestRouter(t, ks, mocks.NewMockDeployer(ctrl))
			defer func() { _ = tracker.Stop(context.Background()) }()

			req := httptest.NewRequest(tc.method, tc.path, nil)
			if tc.key != "" {
				req.Header.Set("X-API-Key", tc.key)
			}
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			assert.Equal(t, tc.wantStatus, rec.Code)
		})
	}
}

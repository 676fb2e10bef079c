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

func TestDeployHandler_Deploy(t *testing.T) {
	testCases := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{name: "Initiated", wantStatus: http.StatusAccepted},
		{name: "Not configured", err: core.ErrDeployDisabled, wantStatus: http.StatusNotImplemented},
		{name: "Shutting down", err: core.ErrShuttingDown, wantStatus: http.StatusServiceUnavailable},
		{name: "Failure", err: errors.New("boom"), wantStatus: http.StatusInternalServerError},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			d := mocks.NewMockDeployer(ctrl)
			d.EXPECT().Trigger(gomock.Any(), "Master Key").Return(tc.err)

			rec := httptest.NewRecorder()
			req := withCaller(httptest.NewRequest(http.MethodPost, "/api/deploy", nil), "Master Key", true)
			NewDeployHandler(d, discardLogger()).Deploy(rec, req)

			assert.Equal(t, tc.wantStatus, rec.Code)
			if tc.err == nil {
				body := decodeBody(t, rec)
				assert.Equal(t, "Deployment initiated", body["message"])
				assert.Equal(t, "processing", body["status"])
			}
		})
	}
}

func TestDeployHandler_Status(t *testing.T) {
	ctrl := gomock.NewController(t)
	d := mocks.NewMockDeployer(ctrl)
	d.EXPECT().Status().Return(core.DeployStatus{Status: "running", PID: 4242, Uptime: "5m0s", ActiveJobs: 2})

	rec := httptest.NewRecorder()
	NewDeployHandler(d, discardLogger()).Status(rec, httptest.NewRequest(http.MethodGet, "/api/deploy/status", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "running", body["status"])
	assert.EqualValues(t, 4242, body["pid"])
	assert.EqualValues(t, 2, body["activeJobs"])
	assert.NotContains(t, body, "lastDeploy")
}

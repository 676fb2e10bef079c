package handler

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"github.com/arandaschimpf/claude-review/internal/core"
	"github.com/arandaschimpf/claude-review/mocks"
)

func TestReviewHandler(t *testing.T) {
	const prURL = "https://github.com/octo/hello/pull/7"
	acceptedAt := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)

	testCases := []struct {
		name       string
		body       string
		mockSetup  func(s *mocks.MockReviewSubmitter)
		wantStatus int
		wantError  string
	}{
		{
			name: "Accepted",
			body: `{"url":"` + prURL + `"}`,
			mockSetup: func(s *mocks.MockReviewSubmitter) {
				s.EXPECT().Submit(gomock.Any(), core.ReviewRequest{URL: prURL, RequestedBy: "ci"}).
					Return(&core.ReviewAck{URL: prURL, AcceptedAt: acceptedAt}, nil)
			},
			wantStatus: http.StatusAccepted,
		},
		{
			name:       "Missing URL",
			body:       `{}`,
			mockSetup:  func(*mocks.MockReviewSubmitter) {},
			wantStatus: http.StatusBadRequest,
			wantError:  "Pull request URL is required",
		},
		{
			name:       "Empty body",
			body:       ``,
			mockSetup:  func(*mocks.MockReviewSubmitter) {},
			wantStatus: http.StatusBadRequest,
			wantError:  "Pull request URL is required",
		},
		{
			name:       "Malformed JSON",
			body:       `{"url":`,
			mockSetup:  func(*mocks.MockReviewSubmitter) {},
			wantStatus: http.StatusBadRequest,
			wantError:  "Invalid JSON body",
		},
		{
			name: "Rejected URL",
			body: `{"url":"https://github.com/a/b/pull/1;id"}`,
			mockSetup: func(s *mocks.MockReviewSubmitter) {
				s.EXPECT().Submit(gomock.Any(), gomock.Any()).
					Return(nil, &core.ValidationError{Reason: "URL contains invalid characters"})
			},
			wantStatus: http.StatusBadRequest,
			wantError:  "URL contains invalid characters",
		},
		{
			name: "Prompt missing",
			body: `{"url":"` + prURL + `"}`,
			mockSetup: func(s *mocks.MockReviewSubmitter) {
				s.EXPECT().Submit(gomock.Any(), gomock.Any()).
					Return(nil, fmt.Errorf("failed to prepare review: %w", core.ErrConfiguration))
			},
			wantStatus: http.StatusInternalServerError,
			wantError:  "Failed to initiate pull request review",
		},
		{
			name: "Shutting down",
			body: `{"url":"` + prURL + `"}`,
			mockSetup: func(s *mocks.MockReviewSubmitter) {
				s.EXPECT().Submit(gomock.Any(), gomock.Any()).
					Return(nil, fmt.Errorf("failed to schedule review: %w", core.ErrShuttingDown))
			},
			wantStatus: http.StatusServiceUnavailable,
		},
		{
			name: "Unexpected failure",
			body: `{"url":"` + prURL + `"}`,
			mockSetup: func(s *mocks.MockReviewSubmitter) {
				s.EXPECT().Submit(gomock.Any(), gomock.Any()).Return(nil, errors.New("boom"))
			},
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			submitter := mocks.NewMockReviewSubmitter(ctrl)
			tc.mockSetup(submitter)

			req := withCaller(httptest.NewRequest(http.MethodPost, "/api/review", strings.NewReader(tc.body)), "ci", false)
			rec := httptest.NewRecorder()
			NewReviewHandler(submitter, discardLogger()).Handle(rec, req)

			assert.Equal(t, tc.wantStatus, rec.Code)
			body := decodeBody(t, rec)
			if tc.wantError != "" {
				assert.Equal(t, tc.wantError, body["error"])
			}
			if tc.wantStatus == http.StatusAccepted {
				assert.Equal(t, "Pull request review initiated successfully", body["message"])
				assert.Equal(t, prURL, body["url"])
				assert.Equal(t, "processing", body["status"])
				assert.Equal(t, "2026-03-04T05:06:07Z", body["timestamp"])
			}
		})
	}
}

func TestReviewHandler_BodyTooLarge(t *testing.T) {
	ctrl := gomock.NewController(t)
	submitter := mocks.NewMockReviewSubmitter(ctrl)

	big := `{"url":"` + strings.Repeat("a", maxBodyBytes) + `"}`
	req := httptest.NewRequest(http.MethodPost, "/api/review", strings.NewReader(big))
	rec := httptest.NewRecorder()
	NewReviewHandler(submitter, discardLogger()).Handle(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealth(t *testing.T) {
	rec := httptest.NewRecorder()
	Health(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "claude-review", body["service"])
	_, err := time.Parse(time.RFC3339Nano, body["timestamp"].(string))
	assert.NoError(t, err)
}

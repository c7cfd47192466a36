// internal/workers/registration/relay-sheet/handler_test.go
package relaysheet

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	apperrors "affiliate-registration/internal/common/errors"
	"affiliate-registration/internal/common/logger"
	"affiliate-registration/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

func createTestConfig(url string) *Config {
	cfg := LoadConfig()
	cfg.WebhookURL = url
	cfg.Timeout = time.Second
	return cfg
}

func createTestPayload() models.NotificationPayload {
	return models.NotificationPayload{
		Name:      "Asha Rao",
		Instagram: "@asha.glow",
		Phone:     "9876543210",
		Email:     "asha@example.com",
		Address:   "12 MG Road, Pune",
		Timestamp: "2024-03-09T08:35:07.042Z",
	}
}

type webhook struct {
	mu      sync.Mutex
	calls   atomic.Int32
	status  int
	delay   time.Duration
	headers http.Header
	body    models.NotificationPayload
}

func (w *webhook) server(t *testing.T) *httptest.Server {
	srv := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		w.calls.Add(1)
		var body models.NotificationPayload
		_ = json.NewDecoder(r.Body).Decode(&body)
		w.mu.Lock()
		w.headers = r.Header.Clone()
		w.body = body
		w.mu.Unlock()
		if w.delay > 0 {
			time.Sleep(w.delay)
		}
		rw.WriteHeader(w.status)
		_, _ = rw.Write([]byte(`{"result":"success","row":12}`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func (w *webhook) received() (http.Header, models.NotificationPayload) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.headers, w.body
}

// ==========================
// Relay
// ==========================

func TestRelay_Success(t *testing.T) {
	hook := &webhook{status: http.StatusOK}
	srv := hook.server(t)

	handler := NewHandler(createTestConfig(srv.URL), logger.NewTestLogger(t))
	outcome := handler.Relay(context.Background(), createTestPayload())

	assert.Equal(t, StatusSuccess, outcome.Status)
	assert.True(t, outcome.Succeeded())
	assert.NoError(t, outcome.Err())
	assert.Equal(t, int32(1), hook.calls.Load())

	headers, body := hook.received()
	assert.Equal(t, "application/json", headers.Get("Content-Type"))
	assert.Equal(t, "application/json", headers.Get("Accept"))
	assert.Equal(t, "Numour-Affiliate-App", headers.Get("User-Agent"))
	assert.Equal(t, createTestPayload(), body)
}

// Apps Script web apps answer the POST with a 302 to script.googleusercontent.com.
func TestRelay_FollowsRedirect(t *testing.T) {
	hook := &webhook{status: http.StatusOK}
	target := hook.server(t)

	var redirects atomic.Int32
	front := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		redirects.Add(1)
		http.Redirect(rw, r, target.URL, http.StatusFound)
	}))
	t.Cleanup(front.Close)

	handler := NewHandler(createTestConfig(front.URL), logger.NewTestLogger(t))
	outcome := handler.Relay(context.Background(), createTestPayload())

	assert.Equal(t, StatusSuccess, outcome.Status)
	assert.Equal(t, http.StatusOK, outcome.StatusCode)
	assert.Equal(t, int32(1), redirects.Load())
	assert.Equal(t, int32(1), hook.calls.Load())
}

func TestRelay_SkippedWithoutURL(t *testing.T) {
	handler := NewHandler(createTestConfig(""), logger.NewTestLogger(t))
	outcome := handler.Relay(context.Background(), createTestPayload())

	assert.Equal(t, StatusSkipped, outcome.Status)
	assert.True(t, apperrors.HasCode(outcome.Err(), apperrors.ErrCodeSheetRelaySkipped))
}

func TestRelay_Failures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		delay  time.Duration
		code   int
	}{
		{name: "server error", status: http.StatusInternalServerError, code: http.StatusInternalServerError},
		{name: "not found", status: http.StatusNotFound, code: http.StatusNotFound},
		{name: "timeout", status: http.StatusOK, delay: 300 * time.Millisecond},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hook := &webhook{status: tt.status, delay: tt.delay}
			srv := hook.server(t)

			cfg := createTestConfig(srv.URL)
			cfg.Timeout = 100 * time.Millisecond
			handler := NewHandler(cfg, logger.NewTestLogger(t))

			outcome := handler.Relay(context.Background(), createTestPayload())
			assert.Equal(t, StatusFailed, outcome.Status)
			assert.NotEmpty(t, outcome.Reason)
			assert.Equal(t, tt.code, outcome.StatusCode)
			assert.True(t, apperrors.HasCode(outcome.Err(), apperrors.ErrCodeSheetRelayFailed))

			// exactly one attempt, no retry
			assert.Equal(t, int32(1), hook.calls.Load())
		})
	}
}

func TestRelay_UnreachableHost(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	handler := NewHandler(createTestConfig(url), logger.NewTestLogger(t))
	outcome := handler.Relay(context.Background(), createTestPayload())

	assert.Equal(t, StatusFailed, outcome.Status)
	assert.Zero(t, outcome.StatusCode)
}

// ==========================
// Probe
// ==========================

func TestProbe(t *testing.T) {
	hook := &webhook{status: http.StatusOK}
	srv := hook.server(t)

	handler := NewHandler(createTestConfig(srv.URL+"/macros/s/AKfy123/exec"), logger.NewTestLogger(t))
	handler.now = func() time.Time { return time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC) }

	report, err := handler.Probe(context.Background())
	require.NoError(t, err)

	assert.True(t, report.Success)
	assert.Equal(t, MsgProbeCompleted, report.Message)
	require.NotNil(t, report.Details)
	assert.Equal(t, http.StatusOK, report.Details.Status)
	assert.Equal(t, srv.URL+"/macros/s/AKfy123/***", report.Details.URL)
	assert.Equal(t, "TEST ENTRY", report.Details.RequestPayload.Name)
	assert.Equal(t, "2024-01-02T03:04:05.000Z", report.Details.RequestPayload.Timestamp)
	_, body := hook.received()
	assert.Equal(t, "TEST ENTRY", body.Name)
}

func TestProbe_WebhookRejects(t *testing.T) {
	hook := &webhook{status: http.StatusForbidden}
	srv := hook.server(t)

	report, err := NewHandler(createTestConfig(srv.URL+"/exec"), logger.NewTestLogger(t)).Probe(context.Background())
	require.NoError(t, err)
	assert.False(t, report.Success)
	assert.Equal(t, http.StatusForbidden, report.Details.Status)
}

func TestProbe_NotConfigured(t *testing.T) {
	report, err := NewHandler(createTestConfig(""), logger.NewTestLogger(t)).Probe(context.Background())
	assert.ErrorIs(t, err, ErrWebhookNotConfigured)
	assert.False(t, report.Success)
	assert.Equal(t, MsgProbeNotConfigured, report.Message)
}

func TestMaskURL(t *testing.T) {
	assert.Equal(t, "https://script.google.com/macros/s/***", MaskURL("https://script.google.com/macros/s/AKfycbx"))
	assert.Equal(t, "https://example.com/hook/", MaskURL("https://example.com/hook/"))
}

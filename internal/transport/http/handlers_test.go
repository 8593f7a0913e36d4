package http

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bikeshare/internal/config"
	"bikeshare/internal/services"
	"bikeshare/internal/shared/testutil"
	ws "bikeshare/internal/websocket"
	"bikeshare/pkg/contracts/events"
)

type stubHealthService struct {
	ready bool
}

func (s stubHealthService) HealthCheck(ctx context.Context) services.HealthStatus {
	return services.HealthStatus{Status: services.StatusOK, Version: "test"}
}

func (s stubHealthService) ReadinessCheck(ctx context.Context) services.HealthStatus {
	if !s.ready {
		return services.HealthStatus{Status: services.StatusNotReady}
	}
	return services.HealthStatus{Status: services.StatusReady}
}

func (s stubHealthService) LivenessCheck(ctx context.Context) services.HealthStatus {
	return services.HealthStatus{Status: services.StatusAlive}
}

func (s stubHealthService) Version() map[string]interface{} {
	return map[string]interface{}{"version": "test"}
}

func (s stubHealthService) SystemStats(ctx context.Context) services.SystemStats {
	return services.SystemStats{DailyRows: 731, HourlyRows: 17379}
}

func TestHealthHandler(t *testing.T) {
	tests := []struct {
		name           string
		ready          bool
		path           string
		expectedStatus int
		expectedField  string
		expectedValue  interface{}
	}{
		{name: "health", path: "/", expectedStatus: http.StatusOK, expectedField: "status", expectedValue: services.StatusOK},
		{name: "ready", ready: true, path: "/ready", expectedStatus: http.StatusOK, expectedField: "status", expectedValue: services.StatusReady},
		{name: "not ready", path: "/ready", expectedStatus: http.StatusServiceUnavailable, expectedField: "status", expectedValue: services.StatusNotReady},
		{name: "live", path: "/live", expectedStatus: http.StatusOK, expectedField: "status", expectedValue: services.StatusAlive},
		{name: "stats", path: "/stats", expectedStatus: http.StatusOK, expectedField: "daily_rows", expectedValue: float64(731)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewHealthHandler(stubHealthService{ready: tt.ready}, nil)
			rec, body := serve(t, handler.Routes(), tt.path)

			assert.Equal(t, tt.expectedStatus, rec.Code)
			if data, ok := body["data"].(map[string]interface{}); ok {
				body = data
			}
			assert.Equal(t, tt.expectedValue, body[tt.expectedField])
		})
	}
}

func TestMetricsHandler(t *testing.T) {
	hub := ws.NewHub(nil, nil)
	handler := NewMetricsHandler(nil, hub)

	rec, body := serve(t, handler.Routes(), "/websocket")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "success", body["status"])

	rec = httptest.NewRecorder()
	handler.Prometheus(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestClientLogHandler_Handle(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		expectedStatus int
		expectedLevel  slog.Level
	}{
		{
			name:           "info entry",
			body:           `{"level":"info","message":"chart drawn","data":{"chart":"season-avg"}}`,
			expectedStatus: http.StatusAccepted,
			expectedLevel:  slog.LevelInfo,
		},
		{
			name:           "level defaults to info",
			body:           `{"message":"page loaded"}`,
			expectedStatus: http.StatusAccepted,
			expectedLevel:  slog.LevelInfo,
		},
		{
			name:           "error entry",
			body:           `{"level":"error","message":"websocket dropped","source":"dashboard.js"}`,
			expectedStatus: http.StatusAccepted,
			expectedLevel:  slog.LevelError,
		},
		{
			name:           "unknown level",
			body:           `{"level":"fatal","message":"x"}`,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "missing message",
			body:           `{"level":"warn"}`,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "invalid JSON",
			body:           `{"level":`,
			expectedStatus: http.StatusBadRequest,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, logs := testutil.NewTestLogger(t)
			handler := NewClientLogHandler(logger, nil)

			req := httptest.NewRequest(http.MethodPost, "/api/logs", bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", "application/json")
			rec := httptest.NewRecorder()
			handler.Handle(rec, req)

			assert.Equal(t, tt.expectedStatus, rec.Code)
			if tt.expectedStatus != http.StatusAccepted {
				return
			}
			var entry map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entry))
			assert.Equal(t, "success", entry["status"])
			assert.NotEmpty(t, logs.GetRecordsByLevel(tt.expectedLevel))
		})
	}
}

func TestWebSocketHandler_CheckOrigin(t *testing.T) {
	tests := []struct {
		name    string
		origin  string
		allowed []string
		want    bool
	}{
		{name: "no origin", want: true},
		{name: "same host", origin: "http://example.test", want: true},
		{name: "listed", origin: "http://localhost:3000", allowed: []string{"http://localhost:3000"}, want: true},
		{name: "wildcard", origin: "http://evil.test", allowed: []string{"*"}, want: true},
		{name: "foreign", origin: "http://evil.test", allowed: []string{"http://localhost:3000"}, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewWebSocketHandler(ws.NewHub(nil, nil), config.Default().WebSocket, tt.allowed, nil)
			req := httptest.NewRequest(http.MethodGet, "http://example.test/ws", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			assert.Equal(t, tt.want, h.checkOrigin(req))
		})
	}
}

func TestWebSocketHandler_ConnectionHello(t *testing.T) {
	hub := ws.NewHub(nil, nil)
	hub.Start()
	defer hub.Stop()

	server := httptest.NewServer(NewWebSocketHandler(hub, config.Default().WebSocket, nil, nil))
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg ws.Message
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, events.TypeConnection, msg.Type)

	assert.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 10*time.Millisecond)
}

func TestWebSocketHandler_RejectsForeignOrigin(t *testing.T) {
	hub := ws.NewHub(nil, nil)
	server := httptest.NewServer(NewWebSocketHandler(hub, config.Default().WebSocket, nil, nil))
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	_, resp, err := websocket.DefaultDialer.Dial(url, http.Header{"Origin": []string{"http://evil.test"}})
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

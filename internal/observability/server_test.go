// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloTask Contributors

package observability

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func startServer(t *testing.T, checker ReadinessChecker) *Server {
	t.Helper()
	server := NewServer("127.0.0.1:0", checker)
	_, err := server.Start()
	require.NoError(t, err)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Stop(ctx)
	})
	return server
}

func get(t *testing.T, url string) (int, string) {
	t.Helper()
	resp, err := http.Get(url) //nolint:gosec,noctx // test URL
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func TestServer_MetricsEndpointExposesHoloTaskMetrics(t *testing.T) {
	server := startServer(t, nil)

	server.Metrics().ObserveRequest("GET /todos", http.StatusOK, 5*time.Millisecond)
	server.Metrics().AuthFailure("revoked")

	status, body := get(t, "http://"+server.Addr()+"/metrics")
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "go_goroutines")
	assert.Contains(t, body, "holotask_requests_total")
	assert.Contains(t, body, "holotask_request_duration_seconds")
	assert.Contains(t, body, "holotask_auth_failures_total")
}

func TestServer_LivenessReturns200(t *testing.T) {
	server := startServer(t, nil)

	status, body := get(t, "http://"+server.Addr()+"/healthz/liveness")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", strings.TrimSpace(body))
}

func TestServer_Readiness(t *testing.T) {
	tests := []struct {
		name       string
		checker    ReadinessChecker
		wantStatus int
		wantBody   string
	}{
		{
			name:       "nil checker is ready",
			checker:    nil,
			wantStatus: http.StatusOK,
			wantBody:   "ok",
		},
		{
			name:       "storage reachable",
			checker:    func(context.Context) error { return nil },
			wantStatus: http.StatusOK,
			wantBody:   "ok",
		},
		{
			name:       "storage unreachable",
			checker:    func(context.Context) error { return errors.New("connection refused") },
			wantStatus: http.StatusServiceUnavailable,
			wantBody:   "not ready",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := NewServer("127.0.0.1:0", tt.checker)
			rec := httptest.NewRecorder()
			server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz/readiness", nil))

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantBody, strings.TrimSpace(rec.Body.String()))
		})
	}
}

func TestServer_ReadinessCheckerReceivesDeadline(t *testing.T) {
	var hadDeadline bool
	server := NewServer("127.0.0.1:0", func(ctx context.Context) error {
		_, hadDeadline = ctx.Deadline()
		return nil
	})

	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz/readiness", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, hadDeadline)
}

func TestServer_DoubleStartFails(t *testing.T) {
	server := startServer(t, nil)

	_, err := server.Start()
	assert.Error(t, err)
}

func TestServer_StopWithoutStartIsNoop(t *testing.T) {
	server := NewServer("127.0.0.1:0", nil)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	assert.NoError(t, server.Stop(ctx))
	assert.Empty(t, server.Addr())
}

func TestServer_ErrorChannelReportsServeErrors(t *testing.T) {
	server := NewServer("127.0.0.1:0", nil)
	errCh, err := server.Start()
	require.NoError(t, err)
	require.NotEmpty(t, server.Addr())

	// Closing the listener underneath Serve forces a serve error.
	require.NoError(t, server.listener.Close())

	select {
	case serveErr := <-errCh:
		assert.Error(t, serveErr)
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for error on error channel")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = server.Stop(ctx)
}

func TestServer_ErrorChannelClosesOnNormalShutdown(t *testing.T) {
	server := NewServer("127.0.0.1:0", nil)
	errCh, err := server.Start()
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, server.Stop(ctx))

	select {
	case err, ok := <-errCh:
		if ok {
			assert.NoError(t, err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for error channel to close")
	}
}

func TestMetrics_ObserveRequestCountsByRouteAndStatus(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.ObserveRequest("POST /todos", http.StatusOK, time.Millisecond)
	m.ObserveRequest("POST /todos", http.StatusOK, time.Millisecond)
	m.ObserveRequest("POST /todos", http.StatusBadRequest, time.Millisecond)

	assert.InDelta(t, 2, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("POST /todos", "200")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("POST /todos", "400")), 0)
}

func TestMetrics_AuthFailureCountsByReason(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.AuthFailure("missing")
	m.AuthFailure("revoked")
	m.AuthFailure("revoked")

	assert.InDelta(t, 1, testutil.ToFloat64(m.AuthFailuresTotal.WithLabelValues("missing")), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(m.AuthFailuresTotal.WithLabelValues("revoked")), 0)
}

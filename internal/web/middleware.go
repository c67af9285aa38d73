// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloTask Contributors

package web

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/holomush/holotask/internal/auth"
	"github.com/holomush/holotask/internal/logging"
	"github.com/holomush/holotask/pkg/errutil"
)

var tracer = otel.Tracer("holotask/web")

// RequestIDHeader echoes the per-request correlation id.
const RequestIDHeader = "X-Request-Id"

const unmatchedRoute = "unmatched"

// statusRecorder captures the response status for metrics.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	if r.status == 0 {
		r.status = status
	}
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	//nolint:wrapcheck // ResponseWriter passthrough
	return r.ResponseWriter.Write(b)
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

// instrument wraps every request in a span, a request id and metrics.
func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := ulid.Make().String()

		ctx, span := tracer.Start(r.Context(), "http.request",
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				attribute.String("http.request.method", r.Method),
				attribute.String("url.path", r.URL.Path),
				attribute.String("request.id", requestID),
			),
		)
		defer span.End()

		ctx = logging.WithAttrs(ctx, slog.String("request_id", requestID))
		r = r.WithContext(ctx)

		w.Header().Set(RequestIDHeader, requestID)
		rec := &statusRecorder{ResponseWriter: w}
		next.ServeHTTP(rec, r)

		status := rec.status
		if status == 0 {
			status = http.StatusOK
		}
		route := r.Pattern
		if route == "" {
			route = unmatchedRoute
		}

		span.SetName(route)
		span.SetAttributes(
			attribute.String("http.route", route),
			attribute.Int("http.response.status_code", status),
		)
		if status >= http.StatusInternalServerError {
			span.SetStatus(codes.Error, http.StatusText(status))
		}

		elapsed := time.Since(start)
		s.metrics.ObserveRequest(route, status, elapsed)
		s.logger.DebugContext(ctx, "request handled",
			"method", r.Method,
			"route", route,
			"status", status,
			"duration_ms", elapsed.Milliseconds(),
		)
	})
}

// withCORS answers preflight requests and decorates responses for
// allowed origins. Requests from other origins pass through untouched.
func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin == "" || !s.originAllowed(origin) {
			next.ServeHTTP(w, r)
			return
		}

		h := w.Header()
		h.Set("Access-Control-Allow-Origin", origin)
		h.Add("Vary", "Origin")
		h.Set("Access-Control-Expose-Headers", AuthHeader)

		if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
			h.Set("Access-Control-Allow-Methods", strings.Join([]string{
				http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete,
			}, ", "))
			h.Set("Access-Control-Allow-Headers", "Content-Type, "+AuthHeader)
			h.Set("Access-Control-Max-Age", "600")
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) originAllowed(origin string) bool {
	for _, g := range s.cors {
		if g.Match(origin) {
			return true
		}
	}
	return false
}

// authenticated resolves the x-auth token before calling next.
func (s *Server) authenticated(next func(http.ResponseWriter, *http.Request, *auth.Identity)) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		identity, err := s.resolver.Resolve(ctx, r.Header.Get(AuthHeader))
		if err != nil {
			if reason, ok := auth.FailureReason(err); ok {
				s.metrics.AuthFailure(reason)
				trace.SpanFromContext(ctx).SetAttributes(attribute.String("auth.failure", reason))
				s.logger.DebugContext(ctx, "request not authenticated", "reason", reason, "code", errutil.ErrorCode(err))
			}
			s.writeError(w, r, err)
			return
		}

		ctx = logging.WithAttrs(ctx, slog.String("user_id", identity.User.ID.String()))
		next(w, r.WithContext(ctx), identity)
	})
}

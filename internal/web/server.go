// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloTask Contributors

// Package web exposes the HoloTask HTTP API.
//
// Authenticated routes read the bearer token from the x-auth header. Every
// token failure produces the same 401 response; the underlying reason is
// only logged and counted.
package web

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gobwas/glob"
	"github.com/samber/oops"

	"github.com/holomush/holotask/internal/auth"
	"github.com/holomush/holotask/internal/task"
)

// AuthHeader carries bearer tokens in both directions.
const AuthHeader = "x-auth"

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// MetricsRecorder receives request and authentication metrics.
type MetricsRecorder interface {
	ObserveRequest(route string, status int, elapsed time.Duration)
	AuthFailure(reason string)
}

type nopMetrics struct{}

func (nopMetrics) ObserveRequest(string, int, time.Duration) {}
func (nopMetrics) AuthFailure(string)                        {}

// ReadinessFunc reports whether storage is reachable.
type ReadinessFunc func(ctx context.Context) error

// Server holds the API handlers and their collaborators.
type Server struct {
	directory *auth.Directory
	resolver  *auth.Resolver
	tasks     *task.Service

	metrics     MetricsRecorder
	logger      *slog.Logger
	ready       ReadinessFunc
	corsOrigins []string
	cors        []glob.Glob
	version     string
}

// Option configures a Server.
type Option func(*Server)

// WithMetrics sets the metrics recorder.
func WithMetrics(m MetricsRecorder) Option {
	return func(s *Server) { s.metrics = m }
}

// WithLogger sets the server logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) { s.logger = logger }
}

// WithReadiness sets the storage check used by /healthz.
func WithReadiness(ready ReadinessFunc) Option {
	return func(s *Server) { s.ready = ready }
}

// WithCORSOrigins allows cross-origin requests from origins matching any
// of the glob patterns.
func WithCORSOrigins(patterns ...string) Option {
	return func(s *Server) { s.corsOrigins = append(s.corsOrigins, patterns...) }
}

// WithVersion sets the version reported by /healthz.
func WithVersion(version string) Option {
	return func(s *Server) { s.version = version }
}

// NewServer creates a Server.
func NewServer(directory *auth.Directory, resolver *auth.Resolver, tasks *task.Service, opts ...Option) (*Server, error) {
	if directory == nil {
		return nil, oops.Errorf("user directory is required")
	}
	if resolver == nil {
		return nil, oops.Errorf("token resolver is required")
	}
	if tasks == nil {
		return nil, oops.Errorf("task service is required")
	}

	s := &Server{
		directory: directory,
		resolver:  resolver,
		tasks:     tasks,
		metrics:   nopMetrics{},
		logger:    slog.Default(),
		version:   "dev",
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.metrics == nil {
		return nil, oops.Errorf("metrics recorder is required")
	}
	if s.logger == nil {
		return nil, oops.Errorf("logger is required")
	}

	for _, pattern := range s.corsOrigins {
		g, err := glob.Compile(pattern)
		if err != nil {
			return nil, oops.Code("WEB_INVALID_CORS_ORIGIN").
				With("pattern", pattern).
				Wrap(err)
		}
		s.cors = append(s.cors, g)
	}

	return s, nil
}

// Handler returns the API routes wrapped in the request middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /users", s.handleRegister)
	mux.HandleFunc("POST /users/login", s.handleLogin)
	mux.Handle("GET /users/me", s.authenticated(s.handleMe))
	mux.Handle("DELETE /users/me/token", s.authenticated(s.handleLogout))

	mux.Handle("POST /todos", s.authenticated(s.handleCreateTask))
	mux.Handle("GET /todos", s.authenticated(s.handleListTasks))
	mux.Handle("GET /todos/{id}", s.authenticated(s.handleGetTask))
	mux.Handle("PATCH /todos/{id}", s.authenticated(s.handleUpdateTask))
	mux.Handle("DELETE /todos/{id}", s.authenticated(s.handleDeleteTask))

	mux.HandleFunc("GET /healthz", s.handleHealth)

	return s.instrument(s.withCORS(mux))
}

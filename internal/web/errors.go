// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloTask Contributors

package web

import (
	"net/http"

	"github.com/samber/oops"

	"github.com/holomush/holotask/internal/auth"
	"github.com/holomush/holotask/internal/task"
	"github.com/holomush/holotask/pkg/errutil"
)

// CodeInvalidBody marks a request body that is not the expected JSON.
const CodeInvalidBody = "REQUEST_INVALID_BODY"

// Fixed client-facing messages.
const (
	msgUnauthorized = "authentication required"
	msgNotFound     = "not found"
	msgInternal     = "internal server error"
)

// badRequestMessages are the 400 responses, keyed by error code.
var badRequestMessages = map[string]string{
	auth.CodeInvalidInput:       "invalid email or password format",
	auth.CodeDuplicateEmail:     "email is already registered",
	auth.CodeInvalidCredentials: "invalid email or password",
	task.CodeEmptyText:          "text must not be empty",
	CodeInvalidBody:             "request body must be valid JSON",
}

type errorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

// writeError maps err onto the API error taxonomy. Unclassified errors
// are logged and answered with a generic 500.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := errutil.ErrorCode(err)

	if auth.IsUnauthenticated(err) {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: msgUnauthorized})
		return
	}
	if msg, ok := badRequestMessages[code]; ok {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: msg, Fields: fieldErrors(err)})
		return
	}
	if code == task.CodeNotFound {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: msgNotFound})
		return
	}

	errutil.LogErrorContext(r.Context(), s.logger, "request failed",
		oops.With("method", r.Method).With("path", r.URL.Path).Wrap(err))
	writeJSON(w, http.StatusInternalServerError, errorResponse{Error: msgInternal})
}

// fieldErrors returns the per-field validation messages carried by err.
func fieldErrors(err error) map[string]string {
	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return nil
	}
	fields, _ := oopsErr.Context()["fields"].(map[string]string)
	return fields
}

func errInvalidBody(err error) error {
	return oops.Code(CodeInvalidBody).
		With("cause", err.Error()).
		Errorf("request body is invalid")
}

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloTask Contributors

package web

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/holomush/holotask/internal/auth"
	"github.com/holomush/holotask/internal/task"
)

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type createTaskRequest struct {
	Text string `json:"text"`
}

type updateTaskRequest struct {
	Text      *string `json:"text"`
	Completed *bool   `json:"completed"`
}

type userResponse struct {
	ID    string `json:"_id"`
	Email string `json:"email"`
}

type taskResponse struct {
	ID        string `json:"_id"`
	Text      string `json:"text"`
	Completed bool   `json:"completed"`
	// CompletedAt is epoch milliseconds, null while incomplete.
	CompletedAt *int64 `json:"completedAt"`
	Creator     string `json:"_creator"`
}

type taskListResponse struct {
	Todos []taskResponse `json:"todos"`
}

type taskEnvelope struct {
	Todo taskResponse `json:"todo"`
}

type healthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

func newUserResponse(u *auth.User) userResponse {
	return userResponse{ID: u.ID.String(), Email: u.Email}
}

func newTaskResponse(t *task.Task) taskResponse {
	resp := taskResponse{
		ID:        t.ID.String(),
		Text:      t.Text,
		Completed: t.Completed,
		Creator:   t.OwnerID.String(),
	}
	if t.CompletedAt != nil {
		ms := t.CompletedAt.UnixMilli()
		resp.CompletedAt = &ms
	}
	return resp
}

// decodeJSON reads a single JSON object from the request body.
// Anything but whitespace after it is rejected.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		return errInvalidBody(err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		if err == nil {
			err = errors.New("body must contain a single JSON value")
		}
		return errInvalidBody(err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	//nolint:errchkjson // client may disconnect
	_ = json.NewEncoder(w).Encode(payload)
}

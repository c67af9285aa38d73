// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloTask Contributors

package web

import (
	"net/http"

	"github.com/holomush/holotask/internal/auth"
	"github.com/holomush/holotask/internal/task"
)

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	user, token, err := s.directory.Register(r.Context(), req.Email, req.Password)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	w.Header().Set(AuthHeader, token)
	writeJSON(w, http.StatusOK, newUserResponse(user))
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	user, token, err := s.directory.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	w.Header().Set(AuthHeader, token)
	writeJSON(w, http.StatusOK, newUserResponse(user))
}

func (s *Server) handleMe(w http.ResponseWriter, _ *http.Request, id *auth.Identity) {
	writeJSON(w, http.StatusOK, newUserResponse(id.User))
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request, id *auth.Identity) {
	if err := s.directory.Logout(r.Context(), id.User, id.Token); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleCreateTask(w http.ResponseWriter, r *http.Request, id *auth.Identity) {
	var req createTaskRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	t, err := s.tasks.Create(r.Context(), id.User.ID, req.Text)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newTaskResponse(t))
}

func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request, id *auth.Identity) {
	tasks, err := s.tasks.ListByOwner(r.Context(), id.User.ID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	resp := taskListResponse{Todos: make([]taskResponse, 0, len(tasks))}
	for _, t := range tasks {
		resp.Todos = append(resp.Todos, newTaskResponse(t))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetTask(w http.ResponseWriter, r *http.Request, id *auth.Identity) {
	t, err := s.tasks.GetOwned(r.Context(), id.User.ID, r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, taskEnvelope{Todo: newTaskResponse(t)})
}

func (s *Server) handleUpdateTask(w http.ResponseWriter, r *http.Request, id *auth.Identity) {
	var req updateTaskRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	t, err := s.tasks.UpdateOwned(r.Context(), id.User.ID, r.PathValue("id"), task.Patch{
		Text:      req.Text,
		Completed: req.Completed,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, taskEnvelope{Todo: newTaskResponse(t)})
}

func (s *Server) handleDeleteTask(w http.ResponseWriter, r *http.Request, id *auth.Identity) {
	t, err := s.tasks.DeleteOwned(r.Context(), id.User.ID, r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, taskEnvelope{Todo: newTaskResponse(t)})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		if err := s.ready(r.Context()); err != nil {
			s.logger.WarnContext(r.Context(), "health check failed", "error", err)
			writeJSON(w, http.StatusServiceUnavailable, healthResponse{Status: "unavailable", Version: s.version})
			return
		}
	}
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Version: s.version})
}

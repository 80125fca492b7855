package http_api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/cinescope/cinescope/src/internal/domain"
	"github.com/cinescope/cinescope/src/internal/services"
)

type savedListResponse struct {
	Success bool              `json:"success"`
	Data    domain.Collection `json:"data"`
	Count   int               `json:"count"`
}

type toggleResponse struct {
	Success bool               `json:"success"`
	Action  string             `json:"action"`
	Message string             `json:"message"`
	Data    *domain.SavedTitle `json:"data,omitempty"`
}

func (s *Server) handleListSaved(w http.ResponseWriter, r *http.Request) {
	cred, _ := CredentialFrom(r.Context())

	titles, err := s.Collection.List(r.Context(), cred.UserID)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, savedListResponse{Success: true, Data: titles, Count: len(titles)})
}

func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	cred, _ := CredentialFrom(r.Context())

	req, ok := s.decodeSave(w, r)
	if !ok {
		return
	}
	saved, err := s.Collection.Add(r.Context(), cred.UserID, req)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusCreated, Response{Success: true, Message: "Movie saved successfully", Data: saved})
}

func (s *Server) handleRemove(w http.ResponseWriter, r *http.Request) {
	cred, _ := CredentialFrom(r.Context())

	movieID, err := strconv.Atoi(chi.URLParam(r, "movieId"))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "Invalid movie ID")
		return
	}
	if err := s.Collection.Remove(r.Context(), cred.UserID, movieID); err != nil {
		s.respondErr(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, Response{Success: true, Message: "Movie removed successfully"})
}

func (s *Server) handleToggle(w http.ResponseWriter, r *http.Request) {
	cred, _ := CredentialFrom(r.Context())

	req, ok := s.decodeSave(w, r)
	if !ok {
		return
	}
	result, err := s.Collection.Toggle(r.Context(), cred.UserID, req)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}

	msg := "Movie added to collection"
	if result.Action == services.ActionRemoved {
		msg = "Movie removed from collection"
	}
	s.respondJSON(w, http.StatusOK, toggleResponse{
		Success: true,
		Action:  result.Action,
		Message: msg,
		Data:    result.Title,
	})
}

func (s *Server) decodeSave(w http.ResponseWriter, r *http.Request) (services.SaveRequest, bool) {
	var req services.SaveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			s.respondErr(w, r, err)
		} else {
			s.respondError(w, http.StatusBadRequest, "Invalid JSON body")
		}
		return req, false
	}
	return req, true
}

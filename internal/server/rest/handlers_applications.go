package rest

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/adoptly/adoptly/internal/model"
)

type applyRequest struct {
	PetID       string `json:"petId"`
	UserMessage string `json:"userMessage"`
}

type reviewRequest struct {
	AdminNotes string `json:"adminNotes"`
}

func (s *Server) handleApply(w http.ResponseWriter, r *http.Request) {
	var req applyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	id, _ := IdentityFromCtx(r.Context())
	app, err := s.apps.Apply(r.Context(), id.UserID, req.PetID, req.UserMessage)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, app)
}

func (s *Server) handleMyApplications(w http.ResponseWriter, r *http.Request) {
	id, _ := IdentityFromCtx(r.Context())
	apps, err := s.apps.ListMine(r.Context(), id.UserID)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, apps)
}

func (s *Server) handleAllApplications(w http.ResponseWriter, r *http.Request) {
	apps, err := s.apps.ListAll(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, apps)
}

func (s *Server) handleApprove(w http.ResponseWriter, r *http.Request) {
	s.review(w, r, s.apps.Approve)
}

func (s *Server) handleReject(w http.ResponseWriter, r *http.Request) {
	s.review(w, r, s.apps.Reject)
}

func (s *Server) review(w http.ResponseWriter, r *http.Request, decide func(ctx context.Context, id, notes string) (*model.Application, error)) {
	var req reviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	app, err := decide(r.Context(), chi.URLParam(r, "appID"), req.AdminNotes)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, app)
}

func (s *Server) handleWithdraw(w http.ResponseWriter, r *http.Request) {
	id, _ := IdentityFromCtx(r.Context())
	if err := s.apps.Withdraw(r.Context(), id.UserID, chi.URLParam(r, "appID")); err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

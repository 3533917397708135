package rest

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/adoptly/adoptly/internal/errs"
	"github.com/adoptly/adoptly/internal/model"
	"github.com/adoptly/adoptly/internal/service"
)

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`
}

type sessionResponse struct {
	Token string     `json:"token"`
	User  model.User `json:"user"`
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	token, user, err := s.auth.Register(r.Context(), service.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Phone:    req.Phone,
		Address:  req.Address,
	})
	if err != nil {
		if errors.Is(err, errs.ErrAlreadyExists) {
			writeError(w, http.StatusConflict, "an account with this email already exists")
			return
		}
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, sessionResponse{Token: token, User: user})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	token, user, err := s.auth.LoginWithIP(r.Context(), req.Email, req.Password, r.RemoteAddr)
	if err != nil {
		if errors.Is(err, errs.ErrUnauthorized) {
			writeError(w, http.StatusUnauthorized, "invalid email or password")
			return
		}
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{Token: token, User: user})
}

// handleLogout exists so clients can signal the end of a session. Tokens are
// stateless, so there is nothing to invalidate server-side yet.
func (s *Server) handleLogout(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	id, _ := IdentityFromCtx(r.Context())
	user, err := s.auth.Profile(r.Context(), id.UserID)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			// the account behind a still-valid token is gone
			writeError(w, http.StatusUnauthorized, "account no longer exists")
			return
		}
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	id, _ := IdentityFromCtx(r.Context())
	token, user, err := s.auth.Refresh(r.Context(), id.UserID)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			writeError(w, http.StatusUnauthorized, "account no longer exists")
			return
		}
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{Token: token, User: user})
}

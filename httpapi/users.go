package httpapi

import (
	"encoding/json"
	stderrors "errors"
	"net/http"

	"chat-relay/auth"
	"chat-relay/errors"
	"chat-relay/services"
)

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req auth.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}

	user, err := s.auths.Register(req)
	if err != nil {
		switch {
		case stderrors.Is(err, errors.ErrUserAlreadyExists):
			writeError(w, http.StatusBadRequest, "email already registered")
		case stderrors.Is(err, errors.ErrInvalidPassword):
			writeError(w, http.StatusBadRequest, "password does not meet complexity requirements")
		default:
			writeError(w, http.StatusBadRequest, "invalid registration")
		}
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}

	token, err := s.auths.Login(req.Email, req.Password)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "incorrect email or password")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"access_token": string(token),
		"token_type":   "bearer",
	})
}

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.users.List()
	if err != nil {
		s.log.Error("user list failed", "error", err)
		writeError(w, http.StatusInternalServerError, "user list failed")
		return
	}
	writeJSON(w, http.StatusOK, users)
}

func (s *Server) handleCurrentUser(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r)
	user, err := s.users.Get(claims.UserID)
	if err != nil {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	user, err := s.users.Get(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (s *Server) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	var update services.UserUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}

	user, err := s.users.Update(r.PathValue("id"), update)
	if err != nil {
		switch {
		case stderrors.Is(err, errors.ErrUserNotFound):
			writeError(w, http.StatusNotFound, "user not found")
		case stderrors.Is(err, errors.ErrUserAlreadyExists):
			writeError(w, http.StatusBadRequest, "email already registered")
		default:
			s.log.Error("user update failed", "error", err)
			writeError(w, http.StatusInternalServerError, "user update failed")
		}
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	if err := s.users.Delete(r.PathValue("id")); err != nil {
		if stderrors.Is(err, errors.ErrUserNotFound) {
			writeError(w, http.StatusNotFound, "user not found")
			return
		}
		s.log.Error("user delete failed", "error", err)
		writeError(w, http.StatusInternalServerError, "user delete failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

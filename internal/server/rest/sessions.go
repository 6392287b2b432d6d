package rest

import (
	"net/http"

	"github.com/dmitrijs2005/storefront/internal/server/repositories/users"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	AccessToken string  `json:"access_token"`
	User        userDTO `json:"user"`
}

func (s *HTTPServer) register(w http.ResponseWriter, r *http.Request) {
	var c users.Candidate
	if err := decodeJSON(r, &c); err != nil {
		s.writeError(w, r, err)
		return
	}

	u, err := s.svc.Sessions.Register(r.Context(), c)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.logger.Info(r.Context(), "Registered", "user_id", u.ID)
	writeJSON(w, http.StatusCreated, toUserDTO(u))
}

func (s *HTTPServer) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	token, u, err := s.svc.Sessions.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, loginResponse{AccessToken: token, User: toUserDTO(u)})
}

func (s *HTTPServer) logout(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Sessions.Logout(r.Context(), sessionOf(r).UserID); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *HTTPServer) current(w http.ResponseWriter, r *http.Request) {
	u, err := s.svc.Sessions.Current(r.Context(), sessionOf(r).UserID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toUserDTO(u))
}

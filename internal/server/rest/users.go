package rest

import (
	"errors"
	"net/http"

	"github.com/dmitrijs2005/storefront/internal/common"
	"github.com/dmitrijs2005/storefront/internal/server/models"
	"github.com/go-chi/chi/v5"
)

type documentRequest struct {
	Name string `json:"name"`
}

type documentResponse struct {
	Document  *models.Document `json:"document"`
	UploadURL string           `json:"upload_url"`
}

type downloadResponse struct {
	DownloadURL string `json:"download_url"`
}

type inactiveRemoved struct {
	Removed []userDTO `json:"removed"`
}

// userUpdate is what an administrator may change on a user.
type userUpdate struct {
	Name     *string      `json:"name"`
	Lastname *string      `json:"lastname"`
	Email    *string      `json:"email"`
	Age      *int         `json:"age"`
	Password *string      `json:"password"`
	Role     *models.Role `json:"role"`
}

func (u userUpdate) patch() models.UserPatch {
	return models.UserPatch{
		Name:     u.Name,
		Lastname: u.Lastname,
		Email:    u.Email,
		Age:      u.Age,
		Password: u.Password,
		Role:     u.Role,
	}
}

// listUsers returns every user, or only the one owning ?email=.
func (s *HTTPServer) listUsers(w http.ResponseWriter, r *http.Request) {
	if email := r.URL.Query().Get("email"); email != "" {
		u, err := s.svc.Users.GetByEmail(r.Context(), email)
		switch {
		case errors.Is(err, common.ErrorNotFound):
			writeJSON(w, http.StatusOK, []userDTO{})
		case err != nil:
			s.writeError(w, r, err)
		default:
			writeJSON(w, http.StatusOK, []userDTO{toUserDTO(u)})
		}
		return
	}

	us, err := s.svc.Users.List(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toUserDTOs(us))
}

func (s *HTTPServer) deleteInactiveUsers(w http.ResponseWriter, r *http.Request) {
	removed, err := s.svc.Users.DeleteInactive(r.Context(), s.InactiveAfter)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, inactiveRemoved{Removed: toUserDTOs(removed)})
}

func (s *HTTPServer) getUser(w http.ResponseWriter, r *http.Request) {
	u, err := s.svc.Users.Get(r.Context(), chi.URLParam(r, "uid"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toUserDTO(u))
}

func (s *HTTPServer) updateUser(w http.ResponseWriter, r *http.Request) {
	var req userUpdate
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	u, err := s.svc.Users.Update(r.Context(), chi.URLParam(r, "uid"), req.patch())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toUserDTO(u))
}

func (s *HTTPServer) deleteUser(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Users.Delete(r.Context(), chi.URLParam(r, "uid")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *HTTPServer) togglePremium(w http.ResponseWriter, r *http.Request) {
	u, err := s.svc.Users.TogglePremium(r.Context(), chi.URLParam(r, "uid"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toUserDTO(u))
}

func (s *HTTPServer) uploadDocument(w http.ResponseWriter, r *http.Request) {
	var req documentRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	url, doc, err := s.svc.Documents.RequestUpload(r.Context(), chi.URLParam(r, "uid"), req.Name)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, documentResponse{Document: doc, UploadURL: url})
}

func (s *HTTPServer) downloadDocument(w http.ResponseWriter, r *http.Request) {
	url, err := s.svc.Documents.DownloadURL(r.Context(), chi.URLParam(r, "uid"), chi.URLParam(r, "name"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, downloadResponse{DownloadURL: url})
}

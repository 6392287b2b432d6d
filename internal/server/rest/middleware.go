package rest

import (
	"net/http"
	"slices"
	"strings"

	"github.com/dmitrijs2005/storefront/internal/common"
	"github.com/dmitrijs2005/storefront/internal/server/auth"
	"github.com/dmitrijs2005/storefront/internal/server/models"
	"github.com/go-chi/chi/v5"
)

// authenticate attaches the session of a valid bearer token. Requests
// without a token pass through anonymously; a bad token is rejected.
func (s *HTTPServer) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get(common.AuthorizationHeaderName)
		if header == "" {
			next.ServeHTTP(w, r)
			return
		}

		token, ok := strings.CutPrefix(header, common.BearerPrefix)
		if !ok {
			writeJSON(w, http.StatusUnauthorized, errorBody{Status: "error", Error: "malformed authorization header"})
			return
		}

		session, err := s.svc.Sessions.Authenticate(token)
		if err != nil {
			s.logger.Warn(r.Context(), "rejected token", "path", r.URL.Path)
			s.writeError(w, r, err)
			return
		}

		next.ServeHTTP(w, r.WithContext(auth.WithSession(r.Context(), session)))
	})
}

func requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := auth.SessionFromContext(r.Context()); !ok {
			writeJSON(w, http.StatusUnauthorized, errorBody{Status: "error", Error: "Unauthorized. You are not logged in"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func requireRole(roles ...models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session, _ := auth.SessionFromContext(r.Context())
			if session == nil || !slices.Contains(roles, session.Role) {
				writeJSON(w, http.StatusForbidden, errorBody{Status: "error", Error: "forbidden"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// requireSelfOrAdmin lets a user act on their own {uid}; admins act on anyone.
func requireSelfOrAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session, _ := auth.SessionFromContext(r.Context())
		if session == nil || (session.Role != models.RoleAdmin && session.UserID != chi.URLParam(r, "uid")) {
			writeJSON(w, http.StatusForbidden, errorBody{Status: "error", Error: "forbidden"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// sessionOf returns the caller's session; only used behind requireAuth.
func sessionOf(r *http.Request) auth.Session {
	s, _ := auth.SessionFromContext(r.Context())
	return *s
}

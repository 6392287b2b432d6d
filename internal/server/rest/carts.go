package rest

import (
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
)

type quantityRequest struct {
	Quantity *int `json:"quantity"`
}

type cartCreated struct {
	ID string `json:"_id"`
}

// quantity reads an optional {"quantity": n} body; an empty body means def.
func quantity(r *http.Request, def int) (int, error) {
	var req quantityRequest
	if err := decodeJSON(r, &req); err != nil {
		if errors.Is(err, io.EOF) {
			return def, nil
		}
		return 0, err
	}
	if req.Quantity == nil {
		return def, nil
	}
	return *req.Quantity, nil
}

func (s *HTTPServer) createCart(w http.ResponseWriter, r *http.Request) {
	id, err := s.svc.Carts.Create(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, cartCreated{ID: id})
}

func (s *HTTPServer) getCart(w http.ResponseWriter, r *http.Request) {
	c, err := s.svc.Carts.Get(r.Context(), chi.URLParam(r, "cid"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *HTTPServer) addToCart(w http.ResponseWriter, r *http.Request) {
	qty, err := quantity(r, 1)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	c, err := s.svc.Carts.AddProduct(r.Context(), sessionOf(r), chi.URLParam(r, "cid"), chi.URLParam(r, "pid"), qty)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *HTTPServer) setCartQuantity(w http.ResponseWriter, r *http.Request) {
	qty, err := quantity(r, 0)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	c, err := s.svc.Carts.SetQuantity(r.Context(), chi.URLParam(r, "cid"), chi.URLParam(r, "pid"), qty)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *HTTPServer) removeFromCart(w http.ResponseWriter, r *http.Request) {
	c, err := s.svc.Carts.RemoveProduct(r.Context(), chi.URLParam(r, "cid"), chi.URLParam(r, "pid"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *HTTPServer) emptyCart(w http.ResponseWriter, r *http.Request) {
	c, err := s.svc.Carts.Empty(r.Context(), chi.URLParam(r, "cid"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *HTTPServer) purchase(w http.ResponseWriter, r *http.Request) {
	ticket, _, err := s.svc.Carts.Purchase(r.Context(), chi.URLParam(r, "cid"), sessionOf(r).Email)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, ticket)
}

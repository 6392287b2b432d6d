package rest

import (
	"errors"
	"net/http"

	"github.com/dmitrijs2005/storefront/internal/common"
	"github.com/go-chi/chi/v5"
)

type orderCreated struct {
	ID string `json:"id"`
}

func (s *HTTPServer) publicKey(w http.ResponseWriter, r *http.Request) {
	s.logger.Info(r.Context(), "Public key obtain")
	writeJSON(w, http.StatusOK, s.svc.Checkout.PublicKey())
}

func (s *HTTPServer) createOrder(w http.ResponseWriter, r *http.Request) {
	id, err := s.svc.Checkout.CreateOrder(r.Context(), chi.URLParam(r, "cid"))
	if err != nil {
		if errors.Is(err, common.ErrorOutOfStock) {
			writeJSON(w, http.StatusBadRequest, "The selected products are out of stock.")
			return
		}
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, orderCreated{ID: id})
}

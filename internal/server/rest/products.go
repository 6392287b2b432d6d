package rest

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/dmitrijs2005/storefront/internal/common"
	"github.com/dmitrijs2005/storefront/internal/server/models"
	"github.com/dmitrijs2005/storefront/internal/server/repositories/products"
	"github.com/dmitrijs2005/storefront/internal/server/services"
	"github.com/go-chi/chi/v5"
)

type productList struct {
	Status  string         `json:"status"`
	Payload *products.Page `json:"payload"`
}

// listOptions reads limit, page, sort, category, status and title from the
// query string. Unparsable numbers fall back to the defaults.
func listOptions(q url.Values) (products.ListOptions, error) {
	opts := products.ListOptions{
		Category: q.Get("category"),
		Title:    q.Get("title"),
	}
	if n, err := strconv.Atoi(q.Get("limit")); err == nil {
		opts.Limit = n
	}
	if n, err := strconv.Atoi(q.Get("page")); err == nil {
		opts.Page = n
	}

	switch q.Get("sort") {
	case "1", "asc":
		opts.Sort = products.SortAsc
	case "-1", "desc":
		opts.Sort = products.SortDesc
	}

	if v := q.Get("status"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return opts, fmt.Errorf("%w: status must be true or false", common.ErrorValidation)
		}
		opts.Status = &b
	}
	return opts, nil
}

func (s *HTTPServer) listProducts(w http.ResponseWriter, r *http.Request) {
	opts, err := listOptions(r.URL.Query())
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	page, err := s.svc.Products.List(r.Context(), opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	status := "success"
	if len(page.Docs) == 0 {
		status = "error"
	}
	writeJSON(w, http.StatusOK, productList{Status: status, Payload: page})
}

func (s *HTTPServer) getProduct(w http.ResponseWriter, r *http.Request) {
	p, err := s.svc.Products.Get(r.Context(), chi.URLParam(r, "pid"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *HTTPServer) addProduct(w http.ResponseWriter, r *http.Request) {
	var in services.ProductInput
	if err := decodeJSON(r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}

	p, err := s.svc.Products.Add(r.Context(), sessionOf(r), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (s *HTTPServer) updateProduct(w http.ResponseWriter, r *http.Request) {
	var patch models.ProductPatch
	if err := decodeJSON(r, &patch); err != nil {
		s.writeError(w, r, err)
		return
	}

	p, err := s.svc.Products.Update(r.Context(), sessionOf(r), chi.URLParam(r, "pid"), patch)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *HTTPServer) deleteProduct(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Products.Delete(r.Context(), sessionOf(r), chi.URLParam(r, "pid")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

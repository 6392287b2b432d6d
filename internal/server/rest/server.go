// Package rest exposes the storefront over HTTP/JSON.
package rest

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/dmitrijs2005/storefront/internal/logging"
	"github.com/dmitrijs2005/storefront/internal/server/models"
	"github.com/dmitrijs2005/storefront/internal/server/services"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

const shutdownTimeout = 10 * time.Second

// DocumentStorage hands out upload and download URLs for user documents.
type DocumentStorage interface {
	RequestUpload(ctx context.Context, userID, name string) (string, *models.Document, error)
	DownloadURL(ctx context.Context, userID, name string) (string, error)
}

// Services are the business services the HTTP handlers call.
type Services struct {
	Sessions  *services.SessionService
	Users     *services.UserService
	Products  *services.ProductService
	Carts     *services.CartService
	Checkout  *services.CheckoutService
	Documents DocumentStorage
}

type HTTPServer struct {
	address string
	logger  logging.Logger
	svc     Services

	// InactiveAfter is how long a user may stay disconnected before
	// DELETE /api/users removes them.
	InactiveAfter time.Duration
}

func NewHTTPServer(address string, l logging.Logger, svc Services) *HTTPServer {
	return &HTTPServer{
		address:       address,
		logger:        l.With("module", "http_server"),
		svc:           svc,
		InactiveAfter: 48 * time.Hour,
	}
}

// Handler builds the router with every API route.
func (s *HTTPServer) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))
	r.Use(s.authenticate)

	r.Route("/api/sessions", func(r chi.Router) {
		r.Post("/register", s.register)
		r.Post("/login", s.login)
		r.With(requireAuth).Post("/logout", s.logout)
		r.With(requireAuth).Get("/current", s.current)
	})

	r.Route("/api/products", func(r chi.Router) {
		r.Get("/", s.listProducts)
		r.Get("/{pid}", s.getProduct)
		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Post("/", s.addProduct)
			r.Put("/{pid}", s.updateProduct)
			r.Delete("/{pid}", s.deleteProduct)
		})
	})

	r.Route("/api/carts", func(r chi.Router) {
		r.Post("/", s.createCart)
		r.Get("/{cid}", s.getCart)
		r.With(requireAuth).Post("/{cid}/products/{pid}", s.addToCart)
		r.Put("/{cid}/products/{pid}", s.setCartQuantity)
		r.Delete("/{cid}/products/{pid}", s.removeFromCart)
		r.Delete("/{cid}", s.emptyCart)
		r.With(requireAuth).Get("/{cid}/purchase", s.purchase)
		r.With(requireAuth).Post("/{cid}/purchase", s.purchase)
	})

	r.Route("/api/payments", func(r chi.Router) {
		r.Get("/public-key", s.publicKey)
		r.Post("/orders/{cid}", s.createOrder)
	})

	r.Route("/api/users", func(r chi.Router) {
		r.Use(requireAuth)
		r.With(requireRole(models.RoleAdmin)).Get("/", s.listUsers)
		r.With(requireRole(models.RoleAdmin)).Delete("/", s.deleteInactiveUsers)
		r.With(requireSelfOrAdmin).Get("/{uid}", s.getUser)
		r.With(requireRole(models.RoleAdmin)).Put("/{uid}", s.updateUser)
		r.With(requireRole(models.RoleAdmin)).Delete("/{uid}", s.deleteUser)
		r.With(requireSelfOrAdmin).Put("/premium/{uid}", s.togglePremium)
		r.With(requireSelfOrAdmin).Post("/{uid}/documents", s.uploadDocument)
		r.With(requireSelfOrAdmin).Get("/{uid}/documents/{name}", s.downloadDocument)
	})

	return r
}

func (s *HTTPServer) Run(ctx context.Context) error {

	srv := &http.Server{
		Addr:              s.address,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(shutdownCtx, "http shutdown", "error", err)
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

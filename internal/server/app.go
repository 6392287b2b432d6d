// Package server wires configuration, storage, services and transports
// together and runs the REST and admin gRPC servers until shutdown.
package server

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/storefront/internal/logging"
	"github.com/dmitrijs2005/storefront/internal/server/config"
	"github.com/dmitrijs2005/storefront/internal/server/payments"
	"github.com/dmitrijs2005/storefront/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/storefront/internal/server/rest"
	"github.com/dmitrijs2005/storefront/internal/server/services"
	"golang.org/x/sync/errgroup"

	gs "github.com/dmitrijs2005/storefront/internal/server/grpc"
)

type App struct {
	config      *config.Config
	logger      logging.Logger
	repomanager repomanager.RepositoryManager
	http        *rest.HTTPServer
	grpc        *gs.GRPCServer
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {

	logger := logging.NewJSONLogger(os.Stdout, c.LogLevel)

	m, err := repomanager.Open(ctx, repomanager.Persistence(c.Persistence), c.DataDir, c.DatabaseDSN, logger.With("module", "repositories"))
	if err != nil {
		return nil, fmt.Errorf("storage init error: %w", err)
	}

	carts := services.NewCartService(m, logger.With("module", "carts"))
	users := services.NewUserService(m, logger.With("module", "users"))
	mp, err := payments.NewClient(c.MPBaseURL, c.MPAccessToken, nil)
	if err != nil {
		return nil, err
	}

	svc := rest.Services{
		Sessions:  services.NewSessionService(m, c, logger.With("module", "sessions")),
		Users:     users,
		Products:  services.NewProductService(m, logger.With("module", "products")),
		Carts:     carts,
		Checkout:  services.NewCheckoutService(carts, mp, c, logger.With("module", "checkout")),
		Documents: services.NewDocumentService(m, c, logger.With("module", "documents")),
	}

	return &App{
		config:      c,
		logger:      logger,
		repomanager: m,
		http:        rest.NewHTTPServer(c.HTTPAddr, logger, svc),
		grpc:        gs.NewGRPCServer(c.GRPCAddr, logger, m.Users(), c.SecretKey),
	}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// Run serves both APIs until a signal arrives or one of them fails, then
// stops the other and closes storage.
func (app *App) Run(ctx context.Context) error {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...", "persistence", app.config.Persistence)

	app.initSignalHandler(cancelFunc)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return app.http.Run(gctx) })
	g.Go(func() error { return app.grpc.Run(gctx) })

	err := g.Wait()
	if err != nil {
		app.logger.Error(ctx, "server stopped", "error", err)
	}

	if cerr := app.repomanager.Close(); cerr != nil {
		app.logger.Error(ctx, "closing storage", "error", cerr)
	}

	app.logger.Info(ctx, "App stopped")
	return err
}

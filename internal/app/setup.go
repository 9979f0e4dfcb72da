// Package app contains the application setup for the inventory service.
package app

import (
	"log/slog"
	"net/http"

	"github.com/abgdnv/stocktrack/internal/config"
	"github.com/abgdnv/stocktrack/internal/service"
	"github.com/abgdnv/stocktrack/internal/store"
	"github.com/abgdnv/stocktrack/internal/transport/rest"
	"github.com/abgdnv/stocktrack/pkg/server"
	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Dependencies struct {
	Inventory service.InventoryService
	Logger    *slog.Logger
}

func SetupDependencies(dbPool *pgxpool.Pool, logger *slog.Logger, cfg *config.Config) *Dependencies {
	inventory := service.NewService(store.NewPgStore(dbPool), logger, cfg.Confirm.TTL)

	return &Dependencies{
		Inventory: inventory,
		Logger:    logger,
	}
}

// SetupHttpHandler initializes the HTTP routes for the inventory service.
// Also used by tests to exercise the full router without a listener.
func SetupHttpHandler(deps *Dependencies) http.Handler {
	mux := server.NewChiRouter(deps.Logger)
	wireRoutes(mux, deps)
	return mux
}

// wireRoutes sets up the HTTP routes for the inventory service.
func wireRoutes(mux *chi.Mux, deps *Dependencies) {
	inventoryHandler := rest.NewHandler(deps.Inventory, deps.Logger)
	inventoryHandler.RegisterRoutes(mux)
}

// SetupHttpServer creates and configures the HTTP server for the inventory service.
func SetupHttpServer(deps *Dependencies, cfg *config.Config) *http.Server {
	mux := SetupHttpHandler(deps)

	httpCfg := server.HTTPConfig{
		Port:           cfg.HTTPServer.Port,
		MaxHeaderBytes: cfg.HTTPServer.MaxHeaderBytes,
		ReadTimeout:    cfg.HTTPServer.Timeout.Read,
		WriteTimeout:   cfg.HTTPServer.Timeout.Write,
		IdleTimeout:    cfg.HTTPServer.Timeout.Idle,
		ReadHeader:     cfg.HTTPServer.Timeout.ReadHeader,
	}

	return server.NewHTTPServer(httpCfg, mux)
}

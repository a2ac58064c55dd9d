// Package app wires the auth service together.
package app

import (
	"log/slog"
	"net/http"

	"github.com/abgdnv/shophub/internal/auth/config"
	"github.com/abgdnv/shophub/internal/auth/service"
	"github.com/abgdnv/shophub/internal/auth/store"
	"github.com/abgdnv/shophub/internal/auth/transport/rest"
	"github.com/abgdnv/shophub/pkg/auth"
	"github.com/abgdnv/shophub/pkg/messaging"
	"github.com/abgdnv/shophub/pkg/server"
	"github.com/go-chi/chi/v5"
)

type Dependencies struct {
	AuthService    service.AuthService
	Verifier       auth.Verifier
	MetricsHandler http.Handler
	Logger         *slog.Logger
}

// SetupDependencies builds the service layer on top of the given store and publisher.
func SetupDependencies(userStore store.UserStore, publisher messaging.Publisher, metrics http.Handler, cfg *config.Config, logger *slog.Logger) *Dependencies {
	signer := auth.NewHMACSigner(cfg.JWT)
	return &Dependencies{
		AuthService:    service.NewService(userStore, signer, publisher, cfg.Password.BcryptCost, logger),
		Verifier:       signer,
		MetricsHandler: metrics,
		Logger:         logger,
	}
}

// SetupHttpHandler initializes the router with middleware and routes.
// Used by E2E tests to set up the HTTP server with the necessary routes and middleware.
func SetupHttpHandler(deps *Dependencies, cfg *config.Config) http.Handler {
	mux := server.NewChiRouter(deps.Logger, cfg.CORS)
	wireRoutes(mux, deps, cfg)
	return mux
}

func wireRoutes(mux *chi.Mux, deps *Dependencies, cfg *config.Config) {
	handler := rest.NewHandler(deps.AuthService, deps.Verifier, deps.Logger)
	handler.RegisterRoutes(mux)
	if deps.MetricsHandler != nil {
		mux.Handle(cfg.Telemetry.Metrics.Path, deps.MetricsHandler)
	}
}

// SetupHttpServer creates and configures the HTTP server of the auth service.
func SetupHttpServer(deps *Dependencies, cfg *config.Config) *http.Server {
	return server.NewHTTPServer(cfg.HTTPServer, config.ServiceName, SetupHttpHandler(deps, cfg))
}

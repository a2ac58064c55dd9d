package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/abgdnv/shophub/internal/auth/app"
	"github.com/abgdnv/shophub/internal/auth/config"
	"github.com/abgdnv/shophub/internal/auth/store"
	"github.com/abgdnv/shophub/pkg/bootstrap"
	"github.com/abgdnv/shophub/pkg/messaging"
	pnats "github.com/abgdnv/shophub/pkg/nats"
	"github.com/abgdnv/shophub/pkg/server"
	"github.com/abgdnv/shophub/pkg/telemetry"
	"golang.org/x/sync/errgroup"
)

func main() {
	configPath := flag.String("config", "", "path to the yaml configuration file (default auth.yaml)")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, *configPath); err != nil {
		log.Printf("application run failed: %v", err)
		os.Exit(1)
	}
	log.Println("application stopped gracefully")
}

// run initializes the application, connects to the user store and starts the HTTP and pprof servers.
func run(ctx context.Context, configPath string) error {
	cfg, cfgErr := config.Load(configPath)
	if cfgErr != nil {
		return fmt.Errorf("failed to load configuration: %w", cfgErr)
	}
	log.Printf("Configuration loaded: %v", cfg)

	logger := bootstrap.NewLogger(cfg.Log)
	slog.SetDefault(logger)

	shutdownTracer, err := telemetry.Setup(ctx, config.ServiceName, cfg.Telemetry)
	if err != nil {
		return fmt.Errorf("failed to set up tracing: %w", err)
	}
	var metricsHandler http.Handler
	shutdownMeter := func(context.Context) error { return nil }
	if cfg.Telemetry.Metrics.Enabled {
		metricsHandler, shutdownMeter, err = telemetry.NewMeterProvider(config.ServiceName)
		if err != nil {
			return fmt.Errorf("failed to set up metrics: %w", err)
		}
	}

	// A database that cannot be reached is not fatal: the service keeps serving and /readyz reports it.
	userStore, closeStore, err := store.Open(ctx, cfg.Database, logger)
	if err != nil {
		logger.Error("Database connection failed", "error", err)
	}
	defer closeStore()

	publisher, closePublisher := newPublisher(ctx, cfg, logger)
	defer closePublisher()

	deps := app.SetupDependencies(userStore, publisher, metricsHandler, cfg, logger)
	httpServer := app.SetupHttpServer(deps, cfg)
	pprofServer := server.NewPProfServer(cfg.PProf)

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("HTTP server listening", slog.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gCtx.Done()
		logger.Info("Shutting down HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Shutdown.Timeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	if cfg.PProf.Enabled {
		g.Go(func() error {
			logger.Info("Pprof server listening", slog.String("addr", pprofServer.Addr))
			if err := pprofServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("pprof server failed: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gCtx.Done()
			logger.Info("Shutting down pprof server...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Shutdown.Timeout)
			defer cancel()
			return pprofServer.Shutdown(shutdownCtx)
		})
	}

	g.Go(func() error {
		<-gCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Shutdown.Timeout)
		defer cancel()
		return errors.Join(shutdownTracer(shutdownCtx), shutdownMeter(shutdownCtx))
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("errgroup encountered an error: %w", err)
	}
	return nil
}

// newPublisher connects to NATS when enabled. Events are best-effort, so any failure falls back to
// a publisher that drops them.
func newPublisher(ctx context.Context, cfg *config.Config, logger *slog.Logger) (messaging.Publisher, func()) {
	if !cfg.Nats.Enabled {
		logger.Info("NATS disabled, user events will not be published")
		return messaging.NoopPublisher{}, func() {}
	}
	js, drain, err := pnats.Connect(ctx, cfg.Nats, logger, messaging.UsersRegisteredSubject)
	if err != nil {
		logger.Error("NATS unavailable, user events will not be published", "error", err, "stream", cfg.Nats.Stream)
		return messaging.NoopPublisher{}, func() {}
	}
	logger.Info("Connected to NATS", "url", cfg.Nats.Url, "stream", cfg.Nats.Stream)
	return pnats.NewEventPublisher(js), func() {
		if err := drain(); err != nil {
			logger.Error("Failed to drain NATS connection", "error", err)
		}
	}
}

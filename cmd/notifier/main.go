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

	"github.com/abgdnv/shophub/internal/notifier"
	"github.com/abgdnv/shophub/internal/notifier/config"
	"github.com/abgdnv/shophub/pkg/bootstrap"
	"github.com/abgdnv/shophub/pkg/messaging"
	"github.com/abgdnv/shophub/pkg/nats"
	"github.com/abgdnv/shophub/pkg/server"
	"golang.org/x/sync/errgroup"
)

func main() {
	configPath := flag.String("config", "", "path to the yaml configuration file (default notifier.yaml)")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, *configPath); err != nil {
		log.Printf("application run failed: %v", err)
		os.Exit(1)
	}
	log.Println("application stopped gracefully")
}

// run connects to NATS, starts the subscriber, and optionally starts the pprof server if enabled.
func run(ctx context.Context, configPath string) error {
	cfg, cfgErr := config.Load(configPath)
	if cfgErr != nil {
		return fmt.Errorf("failed to load configuration: %w", cfgErr)
	}
	log.Printf("Configuration loaded: %v", cfg)

	logger := bootstrap.NewLogger(cfg.Log)
	slog.SetDefault(logger)

	js, drain, err := nats.Connect(ctx, cfg.Nats, logger, messaging.UsersRegisteredSubject)
	if err != nil {
		return fmt.Errorf("failed to set up JetStream: %w", err)
	}
	defer func() {
		if err := drain(); err != nil {
			logger.Error("Failed to drain NATS connection", "error", err)
		}
	}()
	logger.Info("Connected to NATS", "url", cfg.Nats.Url, "stream", cfg.Nats.Stream)

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("NATS subscriber started", "stream", cfg.Nats.Stream, "subject", cfg.Subscriber.Subject)
		err := notifier.Start(gCtx, js, cfg.Nats.Stream, cfg.Subscriber, notifier.NewLogNotifier(logger), logger)
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("subscriber failed", "error", err)
			return err
		}
		logger.Info("subscriber stopped gracefully.")
		return nil
	})

	if cfg.PProf.Enabled {
		pprofServer := server.NewPProfServer(cfg.PProf)
		g.Go(func() error {
			logger.Info("Pprof server listening", slog.String("addr", pprofServer.Addr))
			if err := pprofServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("pprof server failed: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gCtx.Done()
			logger.Info("Shutting down pprof server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Shutdown.Timeout)
			defer cancel()
			return pprofServer.Shutdown(shutdownCtx)
		})
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("errgroup encountered an error: %w", err)
	}
	return nil
}

package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/abgdnv/shophub/internal/storefront/app"
	"github.com/abgdnv/shophub/internal/storefront/authclient"
	"github.com/abgdnv/shophub/internal/storefront/catalog"
	"github.com/abgdnv/shophub/internal/storefront/config"
	"github.com/abgdnv/shophub/internal/storefront/session"
	"github.com/abgdnv/shophub/internal/storefront/shell"
	"github.com/abgdnv/shophub/pkg/bootstrap"
	"github.com/abgdnv/shophub/pkg/telemetry"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		log.Printf("storefront failed: %v", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var configPath string
	cmd := &cobra.Command{
		Use:          "storefront",
		Short:        "ShopHub storefront: browse products, manage the cart and place orders",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), configPath)
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "", "path to the yaml configuration file (default storefront.yaml)")
	return cmd
}

// run wires the runtime to the auth service and session storage and hands the terminal to the shell.
func run(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// stdout belongs to the shell.
	logger := bootstrap.NewLoggerTo(os.Stderr, cfg.Log)
	slog.SetDefault(logger)
	logger.Debug("Configuration loaded", "config", cfg.String())

	shutdownTracer, err := telemetry.Setup(ctx, config.ServiceName, cfg.Telemetry)
	if err != nil {
		return fmt.Errorf("failed to set up tracing: %w", err)
	}
	defer func() {
		if err := shutdownTracer(context.Background()); err != nil {
			logger.Error("Failed to shut down tracer", "error", err)
		}
	}()

	client := authclient.New(cfg.AuthService, cfg.CircuitBreaker, logger)
	store := session.NewFileStore(cfg.Session.File)
	rt := app.NewRuntime(catalog.Seed(), client, store, logger)
	sh := shell.New(rt, os.Stdout, logger)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return rt.Run(gCtx)
	})

	// Reading stdin cannot be interrupted, so the shell is not part of the group.
	shellDone := make(chan error, 1)
	go func() {
		shellDone <- sh.Run(gCtx, os.Stdin)
	}()
	g.Go(func() error {
		select {
		case err := <-shellDone:
			cancel()
			return err
		case <-gCtx.Done():
			return nil
		}
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, app.ErrStopped) {
		return fmt.Errorf("errgroup encountered an error: %w", err)
	}
	return nil
}

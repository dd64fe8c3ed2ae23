package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/veletrh/pattern-kiosk/internal/config"
	"github.com/veletrh/pattern-kiosk/internal/handlers"
	"github.com/veletrh/pattern-kiosk/internal/metrics"
	"github.com/veletrh/pattern-kiosk/internal/postcard"
	"github.com/veletrh/pattern-kiosk/internal/redis"
	"github.com/veletrh/pattern-kiosk/internal/render"
)

func main() {
	var kioskPath string

	rootCmd := &cobra.Command{
		Use:          "pattern-kiosk",
		Short:        "Science fair kiosk server",
		Long:         "Serves the interactive simulations and turns snapshots into printable postcards.",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(kioskPath)
		},
	}
	rootCmd.PersistentFlags().StringVarP(&kioskPath, "config", "c", "", "path to kiosk config file (TOML or YAML), overrides KIOSK_CONFIG")

	rootCmd.AddCommand(newRenderCmd(&kioskPath))
	rootCmd.AddCommand(newCheckConfigCmd(&kioskPath))

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newLogger(level string) (*zap.Logger, error) {
	zcfg := zap.NewProductionConfig()
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		lvl = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	zcfg.Level = lvl
	return zcfg.Build()
}

// setup loads the environment and kiosk file and builds the composer
func setup(kioskPath string) (*config.Config, *config.Kiosk, *postcard.Composer, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("load configuration: %w", err)
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("initialize logger: %w", err)
	}

	if kioskPath == "" {
		kioskPath = cfg.Render.KioskPath
	}
	kiosk := config.LoadKiosk(kioskPath, logger)
	if err := kiosk.Validate(); err != nil {
		logger.Sync()
		return nil, nil, nil, nil, fmt.Errorf("invalid kiosk config %s: %w", kioskPath, err)
	}

	composer := postcard.New(kiosk.PostcardSettings(), logger)
	return cfg, kiosk, composer, logger, nil
}

func serve(kioskPath string) error {
	cfg, kiosk, composer, logger, err := setup(kioskPath)
	if err != nil {
		return err
	}
	defer logger.Sync()

	m := metrics.New()

	var notifier render.Notifier
	var notifierHealthy func() bool
	if cfg.Redis.Enabled() {
		client, err := redis.NewClient(cfg.Redis, logger)
		if err != nil {
			// Postcards are still saved locally without Redis.
			logger.Warn("Postcard notifier disabled", zap.Error(err))
		} else {
			defer client.Close()
			notifier = client
			notifierHealthy = client.IsHealthy
		}
	}

	processor := render.NewProcessor(composer, cfg.Render.Workers, cfg.Render.QueueDepth, m, notifier, logger)

	mux := http.NewServeMux()
	snapshots := handlers.NewSnapshotHandler(processor, kiosk.Branding, logger)
	kioskHandler := handlers.NewKioskHandler(snapshots, kiosk, processor, handlers.KioskOptions{
		StaticDir:       cfg.Server.StaticDir,
		MaxBodyBytes:    int64(cfg.Server.MaxBodyMB) << 20,
		Metrics:         m.Handler(),
		NotifierHealthy: notifierHealthy,
	}, logger)
	kioskHandler.RegisterRoutes(mux)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      mux,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("Starting HTTP server", zap.Int("port", cfg.Server.Port))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	logger.Info("Server started",
		zap.Int("port", cfg.Server.Port),
		zap.String("static_dir", cfg.Server.StaticDir),
		zap.String("tier", composer.Capability().String()),
		zap.Strings("simulations", kiosk.Registry().EnabledIDs()))

	select {
	case <-ctx.Done():
	case err, ok := <-serverErr:
		if ok {
			processor.Close()
			return fmt.Errorf("HTTP server failed: %w", err)
		}
	}

	logger.Info("Shutting down server...")

	// Give outstanding requests a deadline for completion
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown failed", zap.Error(err))
	}

	processor.Close()
	logger.Info("Server shutdown complete")
	return nil
}

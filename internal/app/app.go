package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/railstats/nsdisruptions/internal/controllers/restserver"
	"github.com/railstats/nsdisruptions/internal/dashboard"
	"github.com/railstats/nsdisruptions/internal/disruptions"
	"github.com/railstats/nsdisruptions/internal/log"
	"github.com/railstats/nsdisruptions/internal/network"
	"github.com/railstats/nsdisruptions/pkg/config"
	"go.uber.org/zap"
)

// App represents the main application
type App struct {
	configProvider config.ConfigProvider
	logger         *zap.SugaredLogger
}

// New creates a new application instance
func New(configProvider config.ConfigProvider, logger *zap.SugaredLogger) *App {
	return &App{
		configProvider: configProvider,
		logger:         logger,
	}
}

// Run loads the disruption dataset, starts the dashboard server and blocks
// until shutdown
func (a *App) Run(ctx context.Context) error {
	var wg sync.WaitGroup

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	cfg, err := a.configProvider.LoadConfig()
	if err != nil {
		return fmt.Errorf("error loading configuration: %w", err)
	}

	pipeline, err := Build(ctx, cfg, a.logger)
	if err != nil {
		return err
	}

	server, err := restserver.NewController(ctx, &wg, cfg.RESTServer, pipeline, a.logger.Named("restserver"))
	if err != nil {
		return fmt.Errorf("error creating REST server: %w", err)
	}
	if err := server.StartController(); err != nil {
		return fmt.Errorf("error starting REST server: %w", err)
	}

	log.Info("Application started successfully")

	// Set up signal handling
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigs)

	// Wait for shutdown signal
	select {
	case <-sigs:
		log.Info("shutdown signal received, initiating graceful shutdown...")
	case <-ctx.Done():
		log.Info("context cancelled, shutting down...")
	}

	// Cancel context to signal all goroutines to stop
	cancel()

	log.Info("waiting for all workers to terminate...")
	wg.Wait()
	log.Info("shutdown complete")

	return nil
}

// Build loads the dataset and assembles the dashboard pipeline from cfg.
// A dataset that cannot be loaded is fatal.
func Build(ctx context.Context, cfg *config.ConfigData, logger *zap.SugaredLogger) (*dashboard.Pipeline, error) {
	loader, err := disruptions.NewLoader(cfg.Dataset, logger.Named("dataset"))
	if err != nil {
		return nil, err
	}

	ds, err := loader.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("error loading disruption dataset: %w", err)
	}
	logger.Infow("loaded disruption dataset",
		"source", cfg.Dataset.Source,
		"records", ds.Len(),
		"causes", len(ds.Causes()),
		"years", ds.Years())

	feed := network.NewClient(cfg.Feed, logger.Named("feed"))

	return dashboard.New(ds, feed, cfg.Map, cfg.Dataset.Years, logger.Named("dashboard")), nil
}

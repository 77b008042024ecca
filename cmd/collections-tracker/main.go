package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/liendesk/collections-tracker/internal/config"
	"github.com/liendesk/collections-tracker/internal/core"
	"github.com/liendesk/collections-tracker/internal/di"
)

func main() {
	// Build the dependency injection container
	container, err := di.BuildContainer()
	if err != nil {
		fmt.Printf("Failed to build dependency container: %v\n", err)
		os.Exit(1)
	}

	// Run the application
	if err := container.Invoke(run); err != nil {
		fmt.Printf("Application error: %v\n", err)
		os.Exit(1)
	}
}

// run is the main application function that gets all dependencies injected
func run(
	logger *zap.Logger,
	cfg *config.Config,
	service *core.TrackerService,
	store core.TrackingStore,
	drafter core.Drafter,
) error {
	defer logger.Sync()

	interval, err := cfg.GetDuration("service.refresh_interval")
	if err != nil {
		logger.Fatal("Invalid refresh interval", zap.Error(err))
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initial pass: sync whatever is stale and classify everything.
	if err := refresh(ctx, service, logger, false); err != nil {
		logger.Error("Initial refresh failed", zap.Error(err))
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	logger.Info("Collections tracker running", zap.Duration("refresh_interval", interval))
	for {
		select {
		case <-ticker.C:
			if err := refresh(ctx, service, logger, false); err != nil {
				logger.Error("Periodic refresh failed", zap.Error(err))
			}
		case sig := <-sigCh:
			logger.Info("Shutting down...", zap.String("signal", sig.String()))
			cancel()

			if err := store.Close(); err != nil {
				logger.Error("Failed to close tracking store", zap.Error(err))
			}
			if closer, ok := drafter.(interface{ Close() error }); ok {
				if err := closer.Close(); err != nil {
					logger.Error("Failed to close drafter", zap.Error(err))
				}
			}
			logger.Info("Shutdown complete")
			return nil
		}
	}
}

func refresh(ctx context.Context, service *core.TrackerService, logger *zap.Logger, full bool) error {
	result, err := service.Refresh(ctx, full)
	if err != nil {
		return err
	}
	dashboard, err := service.Dashboard(ctx)
	if err != nil {
		return err
	}
	logger.Info("Classification refreshed",
		zap.Int("total_cases", dashboard.TotalCases),
		zap.Int("stale_30", dashboard.Stale30Days),
		zap.Int("stale_60", dashboard.Stale60Days),
		zap.Int("stale_90", dashboard.Stale90Days),
		zap.Int("acknowledged", dashboard.Acknowledged),
		zap.Time("computed_at", result.ComputedAt))
	return nil
}

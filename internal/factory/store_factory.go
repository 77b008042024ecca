package factory

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/liendesk/collections-tracker/internal/adapters/tracking"
	"github.com/liendesk/collections-tracker/internal/config"
	"github.com/liendesk/collections-tracker/internal/core"
)

// StoreFactory creates tracking stores based on configuration
type StoreFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewStoreFactory creates a new store factory
func NewStoreFactory(cfg *config.Config, logger *zap.Logger) *StoreFactory {
	return &StoreFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateTrackingStore creates a tracking store based on the configuration
func (f *StoreFactory) CreateTrackingStore() (core.TrackingStore, error) {
	trackerCfg := f.cfg.GetTracker()

	switch trackerCfg.Store {
	case "json":
		return tracking.NewJSONStore(trackerCfg.JSONPath, f.logger), nil
	case "sqlite":
		if err := os.MkdirAll(filepath.Dir(trackerCfg.SQLitePath), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create SQLite directory: %w", err)
		}
		return tracking.NewSqliteStore(trackerCfg.SQLitePath, f.logger)
	case "mysql":
		return tracking.NewMysqlStore(trackerCfg.MySQLDSN, f.logger)
	default:
		return nil, fmt.Errorf("unsupported tracking store: %s", trackerCfg.Store)
	}
}

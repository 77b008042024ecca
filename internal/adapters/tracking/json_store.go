package tracking

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"github.com/liendesk/collections-tracker/internal/core"
)

// JSONStore persists the tracking map as a single JSON document. It is
// the default backend for single-operator installs.
type JSONStore struct {
	path   string
	logger *zap.Logger
	mu     sync.Mutex
}

// NewJSONStore creates a store writing to path. The file need not exist;
// Load on a fresh install returns an empty map.
func NewJSONStore(path string, logger *zap.Logger) *JSONStore {
	return &JSONStore{path: path, logger: logger}
}

func (s *JSONStore) Load(ctx context.Context) (map[string]*core.CaseTracking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]*core.CaseTracking{}, nil
		}
		return nil, fmt.Errorf("failed to read tracking file: %w", err)
	}
	var cases map[string]*core.CaseTracking
	if err := json.Unmarshal(data, &cases); err != nil {
		return nil, fmt.Errorf("failed to parse tracking file: %w", err)
	}
	if cases == nil {
		cases = map[string]*core.CaseTracking{}
	}
	return cases, nil
}

func (s *JSONStore) Replace(ctx context.Context, cases map[string]*core.CaseTracking) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(cases, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal tracking data: %w", err)
	}
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create tracking directory: %w", err)
		}
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write tracking file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to replace tracking file: %w", err)
	}
	s.logger.Debug("Tracking data written", zap.String("path", s.path), zap.Int("cases", len(cases)))
	return nil
}

func (s *JSONStore) Close() error {
	return nil
}

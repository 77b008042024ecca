package tracking

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/liendesk/collections-tracker/internal/core"
)

// SqliteStore persists the tracking map in a local SQLite database, one
// row per case with the tracking entry as a JSON document.
type SqliteStore struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewSqliteStore opens (and if needed initializes) the database at path.
func NewSqliteStore(path string, logger *zap.Logger) (*SqliteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to sqlite database: %w", err)
	}
	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS case_tracking (
			pv TEXT PRIMARY KEY,
			data TEXT NOT NULL,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tracking table: %w", err)
	}
	return &SqliteStore{db: db, logger: logger}, nil
}

func (s *SqliteStore) Load(ctx context.Context) (map[string]*core.CaseTracking, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT pv, data FROM case_tracking")
	if err != nil {
		return nil, fmt.Errorf("failed to query tracking rows: %w", err)
	}
	defer rows.Close()

	cases := make(map[string]*core.CaseTracking)
	for rows.Next() {
		var pv, data string
		if err := rows.Scan(&pv, &data); err != nil {
			return nil, fmt.Errorf("failed to scan tracking row: %w", err)
		}
		var tr core.CaseTracking
		if err := json.Unmarshal([]byte(data), &tr); err != nil {
			s.logger.Warn("Skipping corrupt tracking row",
				zap.String("pv", pv), zap.Error(err))
			continue
		}
		cases[pv] = &tr
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read tracking rows: %w", err)
	}
	return cases, nil
}

// Replace rewrites the whole table in one transaction so readers never
// observe a partially-replaced map.
func (s *SqliteStore) Replace(ctx context.Context, cases map[string]*core.CaseTracking) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin tracking transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM case_tracking"); err != nil {
		return fmt.Errorf("failed to clear tracking table: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO case_tracking (pv, data) VALUES (?, ?)")
	if err != nil {
		return fmt.Errorf("failed to prepare tracking insert: %w", err)
	}
	defer stmt.Close()

	for pv, tr := range cases {
		data, err := json.Marshal(tr)
		if err != nil {
			return fmt.Errorf("failed to marshal tracking entry for %s: %w", pv, err)
		}
		if _, err := stmt.ExecContext(ctx, pv, string(data)); err != nil {
			return fmt.Errorf("failed to insert tracking entry for %s: %w", pv, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit tracking transaction: %w", err)
	}
	s.logger.Debug("Tracking data written", zap.Int("cases", len(cases)))
	return nil
}

func (s *SqliteStore) Close() error {
	return s.db.Close()
}

package tracking

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"go.uber.org/zap"

	"github.com/liendesk/collections-tracker/internal/core"
)

// MysqlStore persists the tracking map in MySQL for installs where
// several workstations share one tracker.
type MysqlStore struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewMysqlStore connects using a go-sql-driver DSN, e.g.
// "user:pass@tcp(host:3306)/collections".
func NewMysqlStore(dsn string, logger *zap.Logger) (*MysqlStore, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open mysql connection: %w", err)
	}
	db.SetConnMaxLifetime(3 * time.Minute)
	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(5)
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to mysql: %w", err)
	}
	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS case_tracking (
			pv VARCHAR(64) PRIMARY KEY,
			data JSON NOT NULL,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
		) ENGINE=InnoDB`); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tracking table: %w", err)
	}
	return &MysqlStore{db: db, logger: logger}, nil
}

func (s *MysqlStore) Load(ctx context.Context) (map[string]*core.CaseTracking, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT pv, data FROM case_tracking")
	if err != nil {
		return nil, fmt.Errorf("failed to query tracking rows: %w", err)
	}
	defer rows.Close()

	cases := make(map[string]*core.CaseTracking)
	for rows.Next() {
		var pv string
		var data []byte
		if err := rows.Scan(&pv, &data); err != nil {
			return nil, fmt.Errorf("failed to scan tracking row: %w", err)
		}
		var tr core.CaseTracking
		if err := json.Unmarshal(data, &tr); err != nil {
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

// Replace rewrites the whole table in one transaction.
func (s *MysqlStore) Replace(ctx context.Context, cases map[string]*core.CaseTracking) error {
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
		if _, err := stmt.ExecContext(ctx, pv, data); err != nil {
			return fmt.Errorf("failed to insert tracking entry for %s: %w", pv, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit tracking transaction: %w", err)
	}
	s.logger.Debug("Tracking data written", zap.Int("cases", len(cases)))
	return nil
}

func (s *MysqlStore) Close() error {
	return s.db.Close()
}

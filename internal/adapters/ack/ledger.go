package ack

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Entry is one operator acknowledgment. A zero ReviewAfter means the
// snooze never expires on its own.
type Entry struct {
	AcknowledgedDate time.Time `json:"acknowledged_date"`
	AcknowledgedBy   string    `json:"acknowledged_by,omitempty"`
	Reason           string    `json:"reason,omitempty"`
	Status           string    `json:"status,omitempty"`
	Notes            string    `json:"notes,omitempty"`
	SnoozeDays       int       `json:"snooze_days,omitempty"`
	ReviewAfter      time.Time `json:"review_after,omitempty"`
}

// Stats summarizes the ledger.
type Stats struct {
	Total   int `json:"total"`
	Expired int `json:"expired"`
}

// Ledger records operator-acknowledged cases so known-stale cases stop
// cluttering every report. Snoozes with a review date expire on read.
type Ledger struct {
	path   string
	logger *zap.Logger
	now    func() time.Time

	mu      sync.Mutex
	entries map[string]*Entry
	loaded  bool
}

// NewLedger opens the acknowledgment ledger at path.
func NewLedger(path string, logger *zap.Logger) *Ledger {
	return &Ledger{path: path, logger: logger, now: time.Now}
}

// WithClock overrides the ledger's time source.
func (l *Ledger) WithClock(now func() time.Time) *Ledger {
	l.now = now
	return l
}

// Acknowledge snoozes a case. snoozeDays <= 0 means indefinitely.
func (l *Ledger) Acknowledge(pv, by, reason, status, notes string, snoozeDays int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.load(); err != nil {
		return err
	}

	now := l.now().UTC()
	e := &Entry{
		AcknowledgedDate: now,
		AcknowledgedBy:   by,
		Reason:           reason,
		Status:           status,
		Notes:            notes,
		SnoozeDays:       snoozeDays,
	}
	if snoozeDays > 0 {
		e.ReviewAfter = now.AddDate(0, 0, snoozeDays)
	}
	l.entries[pv] = e
	l.logger.Info("Case acknowledged",
		zap.String("pv", pv), zap.Int("snooze_days", snoozeDays))
	return l.persist()
}

// Unacknowledge removes a case's snooze. Removing an unknown case is not
// an error.
func (l *Ledger) Unacknowledge(pv string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.load(); err != nil {
		return err
	}
	if _, ok := l.entries[pv]; !ok {
		return nil
	}
	delete(l.entries, pv)
	l.logger.Info("Case unacknowledged", zap.String("pv", pv))
	return l.persist()
}

// ExtendSnooze pushes a case's review date out by days from now.
func (l *Ledger) ExtendSnooze(pv string, days int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.load(); err != nil {
		return err
	}
	e, ok := l.entries[pv]
	if !ok {
		return fmt.Errorf("case %s is not acknowledged", pv)
	}
	e.SnoozeDays = days
	e.ReviewAfter = l.now().UTC().AddDate(0, 0, days)
	l.logger.Info("Snooze extended", zap.String("pv", pv), zap.Int("days", days))
	return l.persist()
}

// IsAcknowledged reports whether the case is currently snoozed. An entry
// past its review date is dropped and no longer counts.
func (l *Ledger) IsAcknowledged(pv string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.load(); err != nil {
		l.logger.Warn("Failed to read acknowledgment ledger", zap.Error(err))
		return false
	}
	e, ok := l.entries[pv]
	if !ok {
		return false
	}
	if !e.ReviewAfter.IsZero() && l.now().UTC().After(e.ReviewAfter) {
		delete(l.entries, pv)
		l.logger.Info("Snooze expired, case resurfaces", zap.String("pv", pv))
		if err := l.persist(); err != nil {
			l.logger.Warn("Failed to persist expired snooze removal", zap.Error(err))
		}
		return false
	}
	return true
}

// All returns a copy of every live entry keyed by PV.
func (l *Ledger) All() map[string]Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.load(); err != nil {
		return nil
	}
	out := make(map[string]Entry, len(l.entries))
	for pv, e := range l.entries {
		out[pv] = *e
	}
	return out
}

// Stats counts live and expired entries without mutating the ledger.
func (l *Ledger) Stats() Stats {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.load(); err != nil {
		return Stats{}
	}
	now := l.now().UTC()
	s := Stats{Total: len(l.entries)}
	for _, e := range l.entries {
		if !e.ReviewAfter.IsZero() && now.After(e.ReviewAfter) {
			s.Expired++
		}
	}
	return s
}

// load reads the ledger once; later calls are no-ops. Caller holds l.mu.
func (l *Ledger) load() error {
	if l.loaded {
		return nil
	}
	l.entries = map[string]*Entry{}
	data, err := os.ReadFile(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			l.loaded = true
			return nil
		}
		return fmt.Errorf("failed to read acknowledgment ledger: %w", err)
	}
	if err := json.Unmarshal(data, &l.entries); err != nil {
		return fmt.Errorf("failed to parse acknowledgment ledger: %w", err)
	}
	l.loaded = true
	return nil
}

// persist writes the ledger atomically. Caller holds l.mu.
func (l *Ledger) persist() error {
	data, err := json.MarshalIndent(l.entries, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal acknowledgment ledger: %w", err)
	}
	if dir := filepath.Dir(l.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create ledger directory: %w", err)
		}
	}
	tmp := l.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write acknowledgment ledger: %w", err)
	}
	if err := os.Rename(tmp, l.path); err != nil {
		return fmt.Errorf("failed to replace acknowledgment ledger: %w", err)
	}
	return nil
}

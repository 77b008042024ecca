package emailcache

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/liendesk/collections-tracker/internal/core"
)

// syncQuery mirrors both mailbox directions in one search.
const syncQuery = "in:sent OR in:inbox"

// Subject/snippet substrings marking lien-collection correspondence.
// Used as a coarse relevance signal for mailboxes that mix personal and
// office mail.
var collectionsIndicators = []string{
	"lien", "settlement", "balance", "medical records", "billing",
	"reduction", "payoff", "claim", "statute", "follow-up", "follow up",
}

// Stats summarizes the state of the local mirror.
type Stats struct {
	Total       int       `json:"total"`
	Sent        int       `json:"sent"`
	Received    int       `json:"received"`
	Collections int       `json:"collections"`
	LastSync    time.Time `json:"last_sync"`
	Path        string    `json:"path"`
}

type cacheFile struct {
	LastSync time.Time          `json:"last_sync"`
	Emails   []core.EmailRecord `json:"emails"`
}

// Cache is the local JSON-backed mirror of the office mailbox. All reads
// during classification hit the mirror, never the provider; syncs refresh
// it explicitly.
type Cache struct {
	path            string
	provider        core.MailProvider
	selfIdentifiers []string
	maxAge          time.Duration
	logger          *zap.Logger
	now             func() time.Time

	mu       sync.RWMutex
	records  []core.EmailRecord
	lastSync time.Time
}

// NewCache opens the mirror at path, loading any prior snapshot. A
// missing or corrupt snapshot starts the mirror empty; the first sync
// rebuilds it.
func NewCache(path string, provider core.MailProvider, selfIdentifiers []string, maxAge time.Duration, logger *zap.Logger) *Cache {
	c := &Cache{
		path:     path,
		provider: provider,
		maxAge:   maxAge,
		logger:   logger,
		now:      time.Now,
	}
	for _, id := range selfIdentifiers {
		if id = strings.ToLower(strings.TrimSpace(id)); id != "" {
			c.selfIdentifiers = append(c.selfIdentifiers, id)
		}
	}
	c.load()
	return c
}

// WithClock overrides the cache's time source.
func (c *Cache) WithClock(now func() time.Time) *Cache {
	c.now = now
	return c
}

func (c *Cache) load() {
	data, err := os.ReadFile(c.path)
	if err != nil {
		if !os.IsNotExist(err) {
			c.logger.Warn("Failed to read email cache, starting empty",
				zap.String("path", c.path), zap.Error(err))
		}
		return
	}
	var f cacheFile
	if err := json.Unmarshal(data, &f); err != nil {
		c.logger.Warn("Corrupt email cache, starting empty",
			zap.String("path", c.path), zap.Error(err))
		return
	}
	c.records = f.Emails
	c.lastSync = f.LastSync
	c.logger.Info("Loaded email cache",
		zap.String("path", c.path),
		zap.Int("emails", len(c.records)),
		zap.Time("last_sync", c.lastSync))
}

func (c *Cache) persist() error {
	c.mu.RLock()
	f := cacheFile{LastSync: c.lastSync, Emails: c.records}
	c.mu.RUnlock()

	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal email cache: %w", err)
	}
	if dir := filepath.Dir(c.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create cache directory: %w", err)
		}
	}
	tmp := c.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write email cache: %w", err)
	}
	// Rename keeps the previous snapshot intact if the write dies midway.
	if err := os.Rename(tmp, c.path); err != nil {
		return fmt.Errorf("failed to replace email cache: %w", err)
	}
	return nil
}

// FullSync replaces the entire mirror with a fresh provider search. A
// provider failure leaves the existing mirror untouched.
func (c *Cache) FullSync(ctx context.Context) (int, error) {
	c.logger.Info("Starting full mailbox sync", zap.String("query", syncQuery))

	// No result cap: the mirror must hold the whole mailbox. The provider
	// paginates internally.
	fetched, err := c.provider.Search(ctx, syncQuery, 0)
	if err != nil {
		return 0, &core.ProviderError{Op: "full sync", Err: err}
	}
	if len(fetched) == 0 {
		// No error with zero results is a confirmed-empty mailbox, not a
		// failure; the mirror is replaced accordingly.
		c.logger.Warn("Full sync returned an empty mailbox")
	}

	records := dedupe(fetched)
	now := c.now().UTC()

	c.mu.Lock()
	c.records = records
	c.lastSync = now
	c.mu.Unlock()

	if err := c.persist(); err != nil {
		c.logger.Error("Failed to persist email cache", zap.Error(err))
	}
	c.logger.Info("Full sync complete", zap.Int("emails", len(records)))
	return len(records), nil
}

// IncrementalSync fetches only messages newer than the last sync and
// merges them in front of the existing mirror. Without a prior sync it
// falls back to a full sync, and says so.
func (c *Cache) IncrementalSync(ctx context.Context) (int, error) {
	c.mu.RLock()
	last := c.lastSync
	c.mu.RUnlock()

	if last.IsZero() {
		c.logger.Info("No previous sync recorded, falling back to full sync")
		return c.FullSync(ctx)
	}

	query := fmt.Sprintf("(%s) after:%s", syncQuery, last.UTC().Format("2006/01/02"))
	c.logger.Info("Starting incremental sync", zap.String("query", query))

	fetched, err := c.provider.Search(ctx, query, 0)
	if err != nil {
		return 0, &core.ProviderError{Op: "incremental sync", Err: err}
	}

	now := c.now().UTC()
	added := 0

	c.mu.Lock()
	seen := make(map[string]bool, len(c.records))
	for _, rec := range c.records {
		seen[rec.ID] = true
	}
	var fresh []core.EmailRecord
	for _, rec := range fetched {
		if rec.ID == "" || seen[rec.ID] {
			continue
		}
		seen[rec.ID] = true
		fresh = append(fresh, rec)
		added++
	}
	// Newest first: fresh messages go ahead of the existing mirror.
	c.records = append(fresh, c.records...)
	c.lastSync = now
	c.mu.Unlock()

	if err := c.persist(); err != nil {
		c.logger.Error("Failed to persist email cache", zap.Error(err))
	}
	c.logger.Info("Incremental sync complete",
		zap.Int("fetched", len(fetched)), zap.Int("added", added))
	return added, nil
}

// Records returns a copy of every mirrored message summary.
func (c *Cache) Records() []core.EmailRecord {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]core.EmailRecord, len(c.records))
	copy(out, c.records)
	return out
}

// FindByText returns mirrored messages whose from, to, subject, or
// snippet contains the term, case-insensitively.
func (c *Cache) FindByText(term string) []core.EmailRecord {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []core.EmailRecord
	for _, rec := range c.records {
		text := strings.ToLower(rec.From + " " + rec.To + " " + rec.Subject + " " + rec.Snippet)
		if strings.Contains(text, term) {
			out = append(out, rec)
		}
	}
	return out
}

// IsSent reports whether the message originates from our own account,
// judged by configured self identifiers appearing in the From header.
func (c *Cache) IsSent(rec core.EmailRecord) bool {
	return c.fromSelf(rec.From)
}

// IsCollectionsRelated reports whether the message looks like lien
// correspondence at all. Low precision; it gates nothing during
// classification and only feeds Stats.
func (c *Cache) IsCollectionsRelated(rec core.EmailRecord) bool {
	text := strings.ToLower(rec.Subject + " " + rec.Snippet)
	for _, kw := range collectionsIndicators {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

func (c *Cache) fromSelf(from string) bool {
	from = strings.ToLower(from)
	for _, id := range c.selfIdentifiers {
		if strings.Contains(from, id) {
			return true
		}
	}
	return false
}

// IsStale reports whether the mirror is older than its configured max
// age. A never-synced mirror is always stale.
func (c *Cache) IsStale() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.lastSync.IsZero() {
		return true
	}
	return c.now().UTC().Sub(c.lastSync) > c.maxAge
}

// LastSync returns the timestamp of the most recent successful sync.
func (c *Cache) LastSync() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastSync
}

// Stats summarizes the mirror contents.
func (c *Cache) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s := Stats{Total: len(c.records), LastSync: c.lastSync, Path: c.path}
	for _, rec := range c.records {
		if c.fromSelf(rec.From) {
			s.Sent++
		} else {
			s.Received++
		}
		if c.IsCollectionsRelated(rec) {
			s.Collections++
		}
	}
	return s
}

func dedupe(records []core.EmailRecord) []core.EmailRecord {
	seen := make(map[string]bool, len(records))
	out := make([]core.EmailRecord, 0, len(records))
	for _, rec := range records {
		if rec.ID == "" || seen[rec.ID] {
			continue
		}
		seen[rec.ID] = true
		out = append(out, rec)
	}
	return out
}

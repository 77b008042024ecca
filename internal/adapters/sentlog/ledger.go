package sentlog

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Ledger line shape: "[2025-01-15 10:30:00] PV: 1001 | To: x@y | Subject: ...".
var lineRE = regexp.MustCompile(`^\[([^\]]+)\]\s*PV:\s*(\w+)`)

const timestampLayout = "2006-01-02 15:04:05"

// Ledger is the append-only log of emails sent through the application.
// It is the ground truth for "we definitely emailed this case", surviving
// cache rebuilds and provider hiccups. Reads parse the file lazily and
// memoize the result until the file changes on disk.
type Ledger struct {
	path   string
	logger *zap.Logger
	now    func() time.Time

	mu       sync.Mutex
	latest   map[string]time.Time
	statSize int64
	statMod  time.Time
	parsed   bool
}

// NewLedger opens the ledger at path. The file need not exist yet; the
// first append creates it.
func NewLedger(path string, logger *zap.Logger) *Ledger {
	return &Ledger{path: path, logger: logger, now: time.Now}
}

// WithClock overrides the ledger's time source.
func (l *Ledger) WithClock(now func() time.Time) *Ledger {
	l.now = now
	return l
}

// Append records one send. Each line is flushed to disk before returning
// so a crash cannot lose an already-reported send.
func (l *Ledger) Append(pv, to, subject string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if dir := filepath.Dir(l.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create ledger directory: %w", err)
		}
	}
	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open sent ledger: %w", err)
	}
	defer f.Close()

	ts := l.now().UTC()
	line := fmt.Sprintf("[%s] PV: %s | To: %s | Subject: %s\n",
		ts.Format(timestampLayout), pv, to, subject)
	if _, err := f.WriteString(line); err != nil {
		return fmt.Errorf("failed to append to sent ledger: %w", err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("failed to sync sent ledger: %w", err)
	}

	// Keep the memoized view coherent without a reparse.
	if l.parsed {
		if cur, ok := l.latest[pv]; !ok || ts.After(cur) {
			l.latest[pv] = ts
		}
		if info, serr := os.Stat(l.path); serr == nil {
			l.statSize = info.Size()
			l.statMod = info.ModTime()
		}
	}
	return nil
}

// MostRecentSend returns the latest logged send timestamp for the case,
// or false when the case never appears in the ledger.
func (l *Ledger) MostRecentSend(pv string) (time.Time, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.refresh(); err != nil {
		l.logger.Warn("Failed to read sent ledger", zap.Error(err))
		return time.Time{}, false
	}
	ts, ok := l.latest[pv]
	return ts, ok
}

// Entries returns the number of cases with at least one logged send.
func (l *Ledger) Entries() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.refresh(); err != nil {
		return 0
	}
	return len(l.latest)
}

// refresh reparses the ledger if the file changed since the last parse.
// Caller holds l.mu.
func (l *Ledger) refresh() error {
	info, err := os.Stat(l.path)
	if os.IsNotExist(err) {
		l.latest = map[string]time.Time{}
		l.parsed = true
		l.statSize = 0
		l.statMod = time.Time{}
		return nil
	}
	if err != nil {
		return err
	}
	if l.parsed && info.Size() == l.statSize && info.ModTime().Equal(l.statMod) {
		return nil
	}

	f, err := os.Open(l.path)
	if err != nil {
		return err
	}
	defer f.Close()

	latest := make(map[string]time.Time)
	skipped := 0
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		m := lineRE.FindStringSubmatch(line)
		if m == nil {
			skipped++
			continue
		}
		ts, perr := time.Parse(timestampLayout, m[1])
		if perr != nil {
			skipped++
			continue
		}
		ts = ts.UTC()
		pv := m[2]
		if cur, ok := latest[pv]; !ok || ts.After(cur) {
			latest[pv] = ts
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	if skipped > 0 {
		l.logger.Debug("Skipped malformed ledger lines", zap.Int("count", skipped))
	}

	l.latest = latest
	l.parsed = true
	l.statSize = info.Size()
	l.statMod = info.ModTime()
	l.logger.Debug("Parsed sent ledger",
		zap.String("path", l.path), zap.Int("cases", len(latest)))
	return nil
}

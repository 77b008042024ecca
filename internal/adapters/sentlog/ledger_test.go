package sentlog

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"
)

func newTestLedger(t *testing.T, now time.Time) (*Ledger, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sent_emails.log")
	l := NewLedger(path, zap.NewNop()).WithClock(func() time.Time { return now })
	return l, path
}

func TestAppendAndMostRecentSend(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	l, _ := newTestLedger(t, now)

	if err := l.Append("1001", "attorney@firm.example", "Follow-up"); err != nil {
		t.Fatalf("Append: %v", err)
	}

	ts, ok := l.MostRecentSend("1001")
	if !ok {
		t.Fatalf("PV 1001 not found after append")
	}
	if !ts.Equal(now) {
		t.Errorf("ts = %v, want %v", ts, now)
	}
	if _, ok := l.MostRecentSend("9999"); ok {
		t.Errorf("unknown PV must not be found")
	}
}

func TestLatestOfMultipleSends(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	path := filepath.Join(t.TempDir(), "sent_emails.log")

	content := "[2025-01-10 09:00:00] PV: 1001 | To: a@b | Subject: first\n" +
		"[2025-03-20 14:30:00] PV: 1001 | To: a@b | Subject: second\n" +
		"[2025-02-01 10:00:00] PV: 1002 | To: c@d | Subject: other\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	l := NewLedger(path, zap.NewNop()).WithClock(func() time.Time { return now })
	ts, ok := l.MostRecentSend("1001")
	if !ok {
		t.Fatalf("PV 1001 not found")
	}
	want := time.Date(2025, 3, 20, 14, 30, 0, 0, time.UTC)
	if !ts.Equal(want) {
		t.Errorf("ts = %v, want %v", ts, want)
	}
}

func TestMalformedLinesAreSkipped(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	path := filepath.Join(t.TempDir(), "sent_emails.log")

	content := "garbage line\n" +
		"[not-a-timestamp] PV: 1001 | To: a@b | Subject: x\n" +
		"\n" +
		"[2025-03-20 14:30:00] PV: 1001 | To: a@b | Subject: good\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	l := NewLedger(path, zap.NewNop()).WithClock(func() time.Time { return now })
	if _, ok := l.MostRecentSend("1001"); !ok {
		t.Fatalf("valid line must survive malformed neighbors")
	}
	if got := l.Entries(); got != 1 {
		t.Errorf("Entries = %d, want 1", got)
	}
}

func TestMissingFileIsEmpty(t *testing.T) {
	l, _ := newTestLedger(t, time.Now())
	if _, ok := l.MostRecentSend("1001"); ok {
		t.Errorf("missing file must behave as an empty ledger")
	}
	if got := l.Entries(); got != 0 {
		t.Errorf("Entries = %d, want 0", got)
	}
}

func TestReparseAfterExternalWrite(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	l, path := newTestLedger(t, now)

	if err := l.Append("1001", "a@b", "first"); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if _, ok := l.MostRecentSend("1002"); ok {
		t.Fatalf("PV 1002 should not exist yet")
	}

	// Another process appends a line behind our back.
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.WriteString("[2025-05-30 08:00:00] PV: 1002 | To: c@d | Subject: external\n"); err != nil {
		t.Fatal(err)
	}
	f.Close()

	if _, ok := l.MostRecentSend("1002"); !ok {
		t.Errorf("ledger must reparse when the file changes on disk")
	}
}

func TestAppendSurvivesReread(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	l, path := newTestLedger(t, now)

	if err := l.Append("1001", "attorney@firm.example", "Follow-up | with pipes"); err != nil {
		t.Fatalf("Append: %v", err)
	}

	// A brand-new ledger over the same file sees the same data.
	fresh := NewLedger(path, zap.NewNop())
	ts, ok := fresh.MostRecentSend("1001")
	if !ok {
		t.Fatalf("fresh ledger did not find PV 1001")
	}
	if !ts.Equal(now.Truncate(time.Second)) {
		t.Errorf("ts = %v, want %v", ts, now.Truncate(time.Second))
	}
}

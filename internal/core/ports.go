package core

import (
	"context"
	"time"
)

// MailProvider defines the interface to the upstream mailbox.
type MailProvider interface {
	// Search returns message summaries matching the provider query, most
	// recent first. maxResults <= 0 means no limit.
	Search(ctx context.Context, query string, maxResults int) ([]EmailRecord, error)

	// Send delivers a message and returns the provider message id.
	Send(ctx context.Context, to, subject, body, threadID string) (string, error)
}

// CaseIndex supplies case records from the roster. The core treats it as
// read-only and tolerates an empty or partially-malformed roster.
type CaseIndex interface {
	LookupByPV(pv string) (*CaseRecord, bool)
	AllCases() []CaseRecord
}

// EmailSource is the classifier's view of the local mailbox mirror.
type EmailSource interface {
	// Records returns every cached message summary.
	Records() []EmailRecord

	// IsSent reports whether the record originates from our own account.
	IsSent(rec EmailRecord) bool
}

// MailMirror is the syncable local mailbox mirror. Both sync flavors
// return the number of records the mirror gained.
type MailMirror interface {
	EmailSource
	FullSync(ctx context.Context) (int, error)
	IncrementalSync(ctx context.Context) (int, error)
	FindByText(term string) []EmailRecord
	IsStale() bool
}

// SendRecorder appends one line to the append-only send log.
type SendRecorder interface {
	Append(pv, to, subject string) error
}

// SentLedger yields the most recent application-logged send per case.
type SentLedger interface {
	// MostRecentSend returns the latest logged send timestamp for the
	// case, or false when the case never appears in the ledger.
	MostRecentSend(pv string) (time.Time, bool)
}

// TrackingStore persists the per-case tracking map. The classifier
// rewrites it wholesale after each full pass; there are no partial writes.
type TrackingStore interface {
	Load(ctx context.Context) (map[string]*CaseTracking, error)
	Replace(ctx context.Context, cases map[string]*CaseTracking) error
	Close() error
}

// AckLedger reports operator-acknowledged (snoozed) cases.
type AckLedger interface {
	IsAcknowledged(pv string) bool
}

// Drafter produces collection email text for a case.
type Drafter interface {
	Draft(ctx context.Context, req DraftRequest) (string, error)
}

// Sender delivers an already-drafted email outside the mail provider.
type Sender interface {
	Send(ctx context.Context, to, subject, body string) error
}

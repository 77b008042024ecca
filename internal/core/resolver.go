package core

import (
	"time"

	"go.uber.org/zap"
)

// Resolution is the reconciled last-contact answer for one case.
type Resolution struct {
	HasContact       bool
	LastContact      time.Time // UTC
	DaysSinceContact int
	Source           string // which candidate actually won
}

// ContactResolver reconciles up to three candidate last-contact signals
// into one timestamp with a provenance tag. Candidates are tried in a
// fixed order; a later candidate wins only when strictly more recent, so
// the resolved timestamp is always the max of whichever are present.
type ContactResolver struct {
	ledger SentLedger
	logger *zap.Logger
	now    func() time.Time
}

// NewContactResolver creates a resolver backed by the sent-email ledger.
func NewContactResolver(ledger SentLedger, logger *zap.Logger) *ContactResolver {
	return &ContactResolver{
		ledger: ledger,
		logger: logger,
		now:    time.Now,
	}
}

// WithClock overrides the resolver's time source.
func (r *ContactResolver) WithClock(now func() time.Time) *ContactResolver {
	r.now = now
	return r
}

// Resolve produces the last-contact resolution for one case. tracking may
// be nil (case never observed in any email source).
func (r *ContactResolver) Resolve(pv string, tracking *CaseTracking) Resolution {
	var res Resolution

	// 1. Aggregate last_contact field from the tracking entry.
	if tracking != nil && tracking.LastContact != "" {
		if t, err := ParseISO(tracking.LastContact); err == nil {
			res = Resolution{HasContact: true, LastContact: t, Source: SourceTracking}
		} else {
			r.logger.Warn("Unparseable last_contact on tracking entry",
				zap.String("pv", pv),
				zap.String("last_contact", tracking.LastContact),
				zap.Error(err))
		}
	}

	// 2. Fallback: the aggregate can be stale or corrupt while the
	// activity list is sound; use the most recent dated activity.
	if !res.HasContact && tracking != nil {
		var latest time.Time
		for _, act := range tracking.Activities {
			if !act.Timestamp.IsZero() && act.Timestamp.After(latest) {
				latest = act.Timestamp
			}
		}
		if !latest.IsZero() {
			res = Resolution{HasContact: true, LastContact: latest.UTC(), Source: SourceActivityFallback}
		}
	}

	// 3. The application's own send log is fresher than any cache sync;
	// it overrides only when strictly more recent.
	if sent, ok := r.ledger.MostRecentSend(pv); ok {
		sent = sent.UTC()
		if !res.HasContact || sent.After(res.LastContact) {
			res = Resolution{HasContact: true, LastContact: sent, Source: SourceSentEmailLog}
		}
	}

	if !res.HasContact {
		return res
	}

	now := r.now().UTC()
	if now.Before(res.LastContact) {
		r.logger.Warn("Future-dated last contact, clamping to today",
			zap.String("pv", pv),
			zap.Time("last_contact", res.LastContact),
			zap.String("source", res.Source))
	}
	res.DaysSinceContact = DaysBetween(res.LastContact, now)
	return res
}

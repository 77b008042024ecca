package core

import (
	"testing"
	"time"

	"go.uber.org/zap"
)

type fakeSentLedger struct {
	sends map[string]time.Time
}

func (f *fakeSentLedger) MostRecentSend(pv string) (time.Time, bool) {
	ts, ok := f.sends[pv]
	return ts, ok
}

func newTestResolver(sends map[string]time.Time, now time.Time) *ContactResolver {
	return NewContactResolver(&fakeSentLedger{sends: sends}, zap.NewNop()).
		WithClock(func() time.Time { return now })
}

func TestResolvePrecedence(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	day := func(d int) time.Time { return now.AddDate(0, 0, -d) }

	tests := []struct {
		name       string
		tracking   *CaseTracking
		ledgerSend time.Time
		wantHas    bool
		wantDays   int
		wantSource string
	}{
		{
			name:       "tracking field wins when freshest",
			tracking:   &CaseTracking{LastContact: day(40).Format(time.RFC3339)},
			wantHas:    true,
			wantDays:   40,
			wantSource: SourceTracking,
		},
		{
			name: "activity fallback when aggregate is corrupt",
			tracking: &CaseTracking{
				LastContact: "not-a-date",
				Activities: []Activity{
					{Timestamp: day(70), Type: ActivitySent},
					{Timestamp: day(50), Type: ActivityReceived},
				},
			},
			wantHas:    true,
			wantDays:   50,
			wantSource: SourceActivityFallback,
		},
		{
			name: "activity fallback when aggregate is empty",
			tracking: &CaseTracking{
				Activities: []Activity{{Timestamp: day(65), Type: ActivitySent}},
			},
			wantHas:    true,
			wantDays:   65,
			wantSource: SourceActivityFallback,
		},
		{
			name:       "ledger overrides when strictly newer",
			tracking:   &CaseTracking{LastContact: day(40).Format(time.RFC3339)},
			ledgerSend: day(10),
			wantHas:    true,
			wantDays:   10,
			wantSource: SourceSentEmailLog,
		},
		{
			name:       "ledger does not override an equal or older timestamp",
			tracking:   &CaseTracking{LastContact: day(10).Format(time.RFC3339)},
			ledgerSend: day(40),
			wantHas:    true,
			wantDays:   10,
			wantSource: SourceTracking,
		},
		{
			name:       "ledger alone",
			ledgerSend: day(25),
			wantHas:    true,
			wantDays:   25,
			wantSource: SourceSentEmailLog,
		},
		{
			name:    "nothing resolves",
			wantHas: false,
		},
		{
			name: "undated activities resolve nothing",
			tracking: &CaseTracking{
				Activities: []Activity{{Type: ActivitySent}, {Type: ActivityReceived}},
			},
			wantHas: false,
		},
		{
			name:       "future contact clamps to zero days",
			ledgerSend: now.AddDate(0, 0, 3),
			wantHas:    true,
			wantDays:   0,
			wantSource: SourceSentEmailLog,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sends := map[string]time.Time{}
			if !tt.ledgerSend.IsZero() {
				sends["1001"] = tt.ledgerSend
			}
			r := newTestResolver(sends, now)

			res := r.Resolve("1001", tt.tracking)
			if res.HasContact != tt.wantHas {
				t.Fatalf("HasContact = %v, want %v", res.HasContact, tt.wantHas)
			}
			if !tt.wantHas {
				return
			}
			if res.DaysSinceContact != tt.wantDays {
				t.Errorf("DaysSinceContact = %d, want %d", res.DaysSinceContact, tt.wantDays)
			}
			if res.Source != tt.wantSource {
				t.Errorf("Source = %q, want %q", res.Source, tt.wantSource)
			}
		})
	}
}

func TestResolveIsIdempotent(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	r := newTestResolver(map[string]time.Time{"1001": now.AddDate(0, 0, -15)}, now)
	tracking := &CaseTracking{LastContact: now.AddDate(0, 0, -40).Format(time.RFC3339)}

	first := r.Resolve("1001", tracking)
	second := r.Resolve("1001", tracking)
	if first != second {
		t.Errorf("repeated resolution diverged: %+v vs %+v", first, second)
	}
}

package core

import (
	"testing"
	"time"

	"go.uber.org/zap"
)

type fakeAckLedger struct {
	acked map[string]bool
}

func (f *fakeAckLedger) IsAcknowledged(pv string) bool {
	return f.acked[pv]
}

func TestFilterAcknowledged(t *testing.T) {
	result := &ClassificationResult{
		ComputedAt: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		Buckets: Buckets{
			CategoryCritical: {
				{PV: "1"}, {PV: "2"},
			},
			CategoryMissingDOI: {
				{PV: "2"}, {PV: "3"},
			},
		},
	}
	ledger := &fakeAckLedger{acked: map[string]bool{"2": true}}

	filtered := FilterAcknowledged(result, ledger, zap.NewNop())

	if got := len(filtered.Buckets[CategoryCritical]); got != 1 {
		t.Errorf("critical has %d cases, want 1", got)
	}
	if got := len(filtered.Buckets[CategoryMissingDOI]); got != 1 {
		t.Errorf("missing_doi has %d cases, want 1", got)
	}
	for cat, cases := range filtered.Buckets {
		for _, cs := range cases {
			if cs.PV == "2" {
				t.Errorf("acknowledged PV 2 still present in %s", cat)
			}
		}
	}

	// The input result is untouched.
	if len(result.Buckets[CategoryCritical]) != 2 {
		t.Errorf("filtering mutated the original result")
	}
	if !filtered.ComputedAt.Equal(result.ComputedAt) {
		t.Errorf("filtering must not change the computation timestamp")
	}
}

func TestFilterAcknowledgedNilLedger(t *testing.T) {
	result := &ClassificationResult{Buckets: Buckets{CategoryCritical: {{PV: "1"}}}}
	if got := FilterAcknowledged(result, nil, zap.NewNop()); got != result {
		t.Errorf("nil ledger must return the result unchanged")
	}
}

package core

import (
	"go.uber.org/zap"
)

// FilterAcknowledged removes snoozed cases from every bucket of a
// classification result. The input result is left untouched; callers
// holding the cached instance never see it mutate.
func FilterAcknowledged(result *ClassificationResult, ledger AckLedger, logger *zap.Logger) *ClassificationResult {
	if result == nil || ledger == nil {
		return result
	}

	filtered := make(Buckets, len(result.Buckets))
	dropped := 0
	for cat, cases := range result.Buckets {
		keep := make([]CaseSummary, 0, len(cases))
		for _, cs := range cases {
			if ledger.IsAcknowledged(cs.PV) {
				dropped++
				continue
			}
			keep = append(keep, cs)
		}
		filtered[cat] = keep
	}

	if dropped > 0 {
		logger.Info("Filtered acknowledged cases from classification",
			zap.Int("hidden_entries", dropped))
	}
	return &ClassificationResult{Buckets: filtered, ComputedAt: result.ComputedAt}
}

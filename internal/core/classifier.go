package core

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ClassifierSettings holds the tunable thresholds for a classification pass.
type ClassifierSettings struct {
	ResultTTL          time.Duration
	CriticalDays       int
	HighPriorityDays   int
	FollowUpDays       int
	StatuteYears       float64
	DOISentinelYear    int
	LitigationKeywords []string
}

// DefaultClassifierSettings returns the office's standard thresholds.
func DefaultClassifierSettings() ClassifierSettings {
	return ClassifierSettings{
		ResultTTL:        time.Hour,
		CriticalDays:     90,
		HighPriorityDays: 60,
		FollowUpDays:     30,
		StatuteYears:     2.0,
		DOISentinelYear:  2099,
		LitigationKeywords: []string{
			"litigation", "lawsuit", "filed", "settled", "settlement",
			"pending", "court", "dismissed", "trial", "arbitration",
		},
	}
}

// Sender substrings marking delivery-failure daemons. A bounce is recorded
// as activity but never counts as contact or as a response.
var bounceIndicators = []string{
	"mailer-daemon", "postmaster", "delivery", "undeliverable",
	"bounce", "failure", "failed", "rejected", "returned mail",
}

// Subject substrings marking automatic replies, which carry no signal.
var autoReplyIndicators = []string{
	"out of office", "auto-reply", "automatic reply",
	"away from office", "on vacation", "on leave",
}

// StaleCaseClassifier walks every case in the roster, reconciles contact
// signals, and assigns each case to urgency buckets plus cross-cutting
// tags. A full pass clears and rebuilds all per-case tracking from the
// email sources; results are cached for ResultTTL and swapped atomically
// so readers never observe a half-built pass.
type StaleCaseClassifier struct {
	index    CaseIndex
	emails   EmailSource
	resolver *ContactResolver
	store    TrackingStore
	settings ClassifierSettings
	logger   *zap.Logger
	now      func() time.Time

	mu       sync.RWMutex
	cached   *ClassificationResult
	tracking map[string]*CaseTracking
}

// NewStaleCaseClassifier creates a classifier over the given dependencies.
func NewStaleCaseClassifier(
	index CaseIndex,
	emails EmailSource,
	resolver *ContactResolver,
	store TrackingStore,
	settings ClassifierSettings,
	logger *zap.Logger,
) *StaleCaseClassifier {
	return &StaleCaseClassifier{
		index:    index,
		emails:   emails,
		resolver: resolver,
		store:    store,
		settings: settings,
		logger:   logger,
		now:      time.Now,
	}
}

// WithClock overrides the classifier's time source.
func (c *StaleCaseClassifier) WithClock(now func() time.Time) *StaleCaseClassifier {
	c.now = now
	return c
}

// ClassifyAll returns the full bucket map. A cached result younger than
// ResultTTL is returned as-is unless forceRefresh is set; otherwise the
// pass rebuilds the tracking map from the email sources, classifies every
// case, persists the rebuilt map, and swaps the result into the cache.
// A cancelled pass leaves the previous cache untouched.
func (c *StaleCaseClassifier) ClassifyAll(ctx context.Context, forceRefresh bool) (*ClassificationResult, error) {
	if !forceRefresh {
		c.mu.RLock()
		cached := c.cached
		c.mu.RUnlock()
		if cached != nil && c.now().Sub(cached.ComputedAt) < c.settings.ResultTTL {
			c.logger.Debug("Returning cached classification",
				zap.Time("computed_at", cached.ComputedAt))
			return cached, nil
		}
	}

	cases := c.normalizedCases()
	c.logger.Info("Starting classification pass", zap.Int("cases", len(cases)))

	tracking, err := c.rebuildTracking(ctx, cases)
	if err != nil {
		return nil, err
	}

	buckets := make(Buckets, len(Categories()))
	for _, cat := range Categories() {
		buckets[cat] = []CaseSummary{}
	}

	for _, cs := range cases {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		c.classifyCase(cs, tracking[cs.PV], buckets)
	}

	for cat := range buckets {
		sortBucket(buckets[cat])
	}

	result := &ClassificationResult{Buckets: buckets, ComputedAt: c.now()}

	// Wholesale rewrite of the persisted tracking map; a storage failure
	// must not lose the completed pass.
	if err := c.store.Replace(ctx, tracking); err != nil {
		c.logger.Error("Failed to persist tracking data", zap.Error(err))
	}

	c.mu.Lock()
	c.cached = result
	c.tracking = tracking
	c.mu.Unlock()

	for _, cat := range Categories() {
		if n := len(buckets[cat]); n > 0 {
			c.logger.Info("Category populated",
				zap.String("category", string(cat)), zap.Int("count", n))
		}
	}
	return result, nil
}

// Category returns a paginated slice of one bucket from the cached (or
// freshly computed) result. Ordering within a bucket is deterministic:
// most overdue first, ties broken by PV.
func (c *StaleCaseClassifier) Category(ctx context.Context, name string, limit int) (*CategoryPage, error) {
	cat := Category(name)
	known := false
	for _, k := range Categories() {
		if k == cat {
			known = true
			break
		}
	}
	if !known {
		return nil, fmt.Errorf("unknown category %q", name)
	}

	result, err := c.ClassifyAll(ctx, false)
	if err != nil {
		return nil, err
	}

	cases := result.Buckets[cat]
	total := len(cases)
	if limit <= 0 || limit > total {
		limit = total
	}
	return &CategoryPage{
		Category:  cat,
		Cases:     cases[:limit],
		Total:     total,
		Remaining: total - limit,
	}, nil
}

// Invalidate drops the cached result; the next ClassifyAll performs a
// full pass. Call after any send/receive action so consumers never see
// stale urgency.
func (c *StaleCaseClassifier) Invalidate() {
	c.mu.Lock()
	c.cached = nil
	c.mu.Unlock()
	c.logger.Info("Classification cache invalidated")
}

// TrackingFor returns the rebuilt tracking entry for one case from the
// most recent pass.
func (c *StaleCaseClassifier) TrackingFor(pv string) (*CaseTracking, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	tr, ok := c.tracking[pv]
	return tr, ok
}

// Summary returns roster-wide counts from the cached or fresh result.
func (c *StaleCaseClassifier) Summary(ctx context.Context) (*Dashboard, error) {
	result, err := c.ClassifyAll(ctx, false)
	if err != nil {
		return nil, err
	}
	d := &Dashboard{
		TotalCases: len(c.normalizedCases()),
		ByCategory: make(map[Category]int, len(result.Buckets)),
		ComputedAt: result.ComputedAt,
	}
	for cat, cases := range result.Buckets {
		d.ByCategory[cat] = len(cases)
	}
	d.Stale90Days = len(result.Buckets[CategoryCritical])
	d.Stale60Days = d.Stale90Days + len(result.Buckets[CategoryHighPriority])
	d.Stale30Days = d.Stale60Days + len(result.Buckets[CategoryNeedsFollowUp])
	return d, nil
}

// normalizedCases returns the roster with PVs trimmed and blank rows
// dropped. A malformed roster never aborts the pass.
func (c *StaleCaseClassifier) normalizedCases() []CaseRecord {
	all := c.index.AllCases()
	cases := make([]CaseRecord, 0, len(all))
	for _, cs := range all {
		cs.PV = strings.TrimSpace(cs.PV)
		if cs.PV == "" {
			c.logger.Debug("Skipping roster row without PV", zap.String("name", cs.Name))
			continue
		}
		cases = append(cases, cs)
	}
	return cases
}

type caseTerms struct {
	pv    string
	terms []string
}

// searchTermsFor builds the low-precision match terms for one case: PV
// variants, patient name (both "LAST, FIRST" and flipped), long name
// parts, and the CMS number.
func searchTermsFor(cs CaseRecord) []string {
	pv := strings.ToLower(cs.PV)
	terms := []string{pv, "pv " + pv, "pv#" + pv, "pv: " + pv, "pv" + pv}

	name := strings.ToLower(strings.TrimSpace(cs.Name))
	if name != "" {
		terms = append(terms, name)
		if strings.Contains(name, ",") {
			parts := strings.Split(name, ",")
			for i := range parts {
				parts[i] = strings.TrimSpace(parts[i])
			}
			for _, p := range parts {
				if len(p) > 3 {
					terms = append(terms, p)
				}
			}
			if len(parts) == 2 && parts[0] != "" && parts[1] != "" {
				terms = append(terms, parts[1]+" "+parts[0])
			}
		} else {
			for _, p := range strings.Fields(name) {
				if len(p) > 3 {
					terms = append(terms, p)
				}
			}
		}
	}

	if cms := strings.ToLower(strings.TrimSpace(cs.CMS)); cms != "" {
		terms = append(terms, cms)
	}
	return terms
}

// rebuildTracking discards any prior aggregation and rebuilds the whole
// per-case tracking map from the email mirror. No prior state carries
// over between passes.
func (c *StaleCaseClassifier) rebuildTracking(ctx context.Context, cases []CaseRecord) (map[string]*CaseTracking, error) {
	tracking := make(map[string]*CaseTracking, len(cases))
	terms := make([]caseTerms, 0, len(cases))
	for _, cs := range cases {
		if _, ok := tracking[cs.PV]; ok {
			continue // duplicate roster row; first one wins
		}
		tracking[cs.PV] = &CaseTracking{}
		terms = append(terms, caseTerms{pv: cs.PV, terms: searchTermsFor(cs)})
	}

	records := c.emails.Records()
	now := c.now()
	matched := 0
	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		text := strings.ToLower(rec.Subject + " " + rec.Snippet + " " + rec.From + " " + rec.To)
		sent := c.emails.IsSent(rec)
		for _, ct := range terms {
			if !matchesAny(text, ct.terms) {
				continue
			}
			c.ingest(tracking[ct.pv], rec, sent, now)
			matched++
		}
	}

	c.logger.Info("Tracking rebuilt from email cache",
		zap.Int("emails", len(records)), zap.Int("matches", matched))
	return tracking, nil
}

func matchesAny(text string, terms []string) bool {
	for _, term := range terms {
		if term != "" && strings.Contains(text, term) {
			return true
		}
	}
	return false
}

func containsAny(text string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(text, n) {
			return true
		}
	}
	return false
}

// ingest records one matched email against a case's tracking entry.
func (c *StaleCaseClassifier) ingest(tr *CaseTracking, rec EmailRecord, sent bool, now time.Time) {
	ts, err := ParseEmailDate(rec.Date, now)
	if err != nil {
		// Keep the undated activity; the resolver skips zero timestamps
		// and the case surfaces as a data-quality anomaly if nothing
		// else dates it.
		c.logger.Debug("Unparseable email date",
			zap.String("message_id", rec.ID), zap.String("date", rec.Date))
	}
	detail := strings.TrimSpace(rec.Subject + " " + rec.Snippet)

	if sent {
		tr.Activities = append(tr.Activities, Activity{
			Timestamp:   ts,
			Type:        ActivitySent,
			Detail:      detail,
			Counterpart: rec.To,
			MessageID:   rec.ID,
		})
		tr.SentCount++
		if strings.Contains(rec.To, "@") {
			tr.FirmEmail = rec.To
		}
		c.updateLastContact(tr, ts)
		return
	}

	from := strings.ToLower(rec.From)
	if containsAny(from, bounceIndicators) {
		tr.Activities = append(tr.Activities, Activity{
			Timestamp:   ts,
			Type:        ActivityBounced,
			Detail:      detail,
			Counterpart: rec.From,
			MessageID:   rec.ID,
		})
		return
	}
	if containsAny(strings.ToLower(rec.Subject), autoReplyIndicators) {
		return
	}

	tr.Activities = append(tr.Activities, Activity{
		Timestamp:   ts,
		Type:        ActivityReceived,
		Detail:      detail,
		Counterpart: rec.From,
		MessageID:   rec.ID,
	})
	tr.ResponseCount++
	if strings.Contains(rec.From, "@") {
		tr.FirmEmail = rec.From
	}
	c.updateLastContact(tr, ts)
}

func (c *StaleCaseClassifier) updateLastContact(tr *CaseTracking, ts time.Time) {
	if ts.IsZero() {
		return
	}
	if tr.LastContact != "" {
		if cur, err := ParseISO(tr.LastContact); err == nil && !ts.After(cur) {
			return
		}
	}
	tr.LastContact = ts.UTC().Format(time.RFC3339)
}

// classifyCase assigns one case to exactly one urgency bucket, with the
// no_response overlay for fresh-but-unanswered cases, plus the orthogonal
// missing_doi and statute_eligible tags.
func (c *StaleCaseClassifier) classifyCase(cs CaseRecord, tr *CaseTracking, buckets Buckets) {
	res := c.resolver.Resolve(cs.PV, tr)

	summary := CaseSummary{
		PV:            cs.PV,
		Name:          cs.Name,
		AttorneyEmail: cs.AttorneyEmail,
		LawFirm:       cs.LawFirm,
		DOI:           cs.DOI,
		Status:        cs.Status,
	}
	if tr != nil {
		summary.ResponseCount = tr.ResponseCount
		summary.ActivityCount = len(tr.Activities)
	}
	if res.HasContact {
		summary.HasContact = true
		summary.DaysSinceContact = res.DaysSinceContact
		summary.LastContact = res.LastContact.Format(time.RFC3339)
		summary.ContactSource = res.Source
	}

	switch {
	case res.HasContact && res.DaysSinceContact >= c.settings.CriticalDays:
		buckets[CategoryCritical] = append(buckets[CategoryCritical], summary)
	case res.HasContact && res.DaysSinceContact >= c.settings.HighPriorityDays:
		buckets[CategoryHighPriority] = append(buckets[CategoryHighPriority], summary)
	case res.HasContact && res.DaysSinceContact >= c.settings.FollowUpDays:
		buckets[CategoryNeedsFollowUp] = append(buckets[CategoryNeedsFollowUp], summary)
	case res.HasContact:
		buckets[CategoryRecentlySent] = append(buckets[CategoryRecentlySent], summary)
		if summary.ResponseCount == 0 {
			buckets[CategoryNoResponse] = append(buckets[CategoryNoResponse], summary)
		}
	default:
		if tr != nil && len(tr.Activities) > 0 {
			// Activities exist but none carries a usable date; distinct
			// from a case with zero tracking data at all.
			summary.DataQuality = "activities_without_dates"
			c.logger.Warn("Case has activities but no resolvable contact date",
				zap.String("pv", cs.PV), zap.Int("activities", len(tr.Activities)))
		}
		buckets[CategoryNeverContacted] = append(buckets[CategoryNeverContacted], summary)
	}

	doi, ok := ParseDOI(cs.DOI)
	if !ok || doi.Year() >= c.settings.DOISentinelYear {
		buckets[CategoryMissingDOI] = append(buckets[CategoryMissingDOI], summary)
		return
	}
	years := c.now().UTC().Sub(doi).Hours() / 24 / 365.25
	if years >= c.settings.StatuteYears && !c.litigationMentioned(tr) {
		buckets[CategoryStatuteEligible] = append(buckets[CategoryStatuteEligible], summary)
	}
}

// litigationMentioned reports whether any received correspondence for the
// case mentions litigation or settlement. Only inbound mail is scanned;
// our own outreach routinely quotes the same keywords.
func (c *StaleCaseClassifier) litigationMentioned(tr *CaseTracking) bool {
	if tr == nil {
		return false
	}
	for _, act := range tr.Activities {
		if act.Type != ActivityReceived {
			continue
		}
		text := strings.ToLower(act.Detail)
		for _, kw := range c.settings.LitigationKeywords {
			if kw != "" && strings.Contains(text, kw) {
				return true
			}
		}
	}
	return false
}

// sortBucket orders most overdue first; cases without a resolved contact
// sort as zero days. Ties break by PV so pagination is reproducible.
func sortBucket(cases []CaseSummary) {
	sort.SliceStable(cases, func(i, j int) bool {
		di, dj := 0, 0
		if cases[i].HasContact {
			di = cases[i].DaysSinceContact
		}
		if cases[j].HasContact {
			dj = cases[j].DaysSinceContact
		}
		if di != dj {
			return di > dj
		}
		return cases[i].PV < cases[j].PV
	})
}

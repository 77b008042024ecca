package core

import (
	"time"
)

// CaseRecord is the canonical, normalized view of one roster row. Key
// normalization happens once at the CaseIndex boundary; everything inside
// the core works with this shape only.
type CaseRecord struct {
	PV            string
	CMS           string
	Name          string
	AttorneyEmail string
	LawFirm       string
	DOI           string // raw spreadsheet value; may be a sentinel placeholder
	Status        string
}

// EmailRecord is one message summary mirrored from the mail provider.
// Records are append-only and de-duplicated by ID on merge.
type EmailRecord struct {
	ID       string `json:"id"`
	ThreadID string `json:"thread_id,omitempty"`
	From     string `json:"from"`
	To       string `json:"to"`
	Subject  string `json:"subject"`
	Snippet  string `json:"snippet"`
	Date     string `json:"date"` // provider date header, RFC-2822-like
}

// ActivityType classifies one tracked case activity.
type ActivityType string

const (
	ActivitySent     ActivityType = "sent"
	ActivityReceived ActivityType = "received"
	ActivityBounced  ActivityType = "bounced"
)

// Activity is one dated contact event attributed to a case.
type Activity struct {
	Timestamp   time.Time    `json:"timestamp"` // UTC; zero when the source date was unparseable
	Type        ActivityType `json:"type"`
	Detail      string       `json:"detail,omitempty"`
	Counterpart string       `json:"counterpart,omitempty"`
	MessageID   string       `json:"message_id,omitempty"`
}

// CaseTracking accumulates observed activity for one case. The map of
// entries is cleared and rebuilt wholesale by each full classification
// pass; it is never merged incrementally.
type CaseTracking struct {
	Activities    []Activity `json:"activities"`
	LastContact   string     `json:"last_contact,omitempty"` // ISO-8601 UTC
	ResponseCount int        `json:"response_count"`
	SentCount     int        `json:"sent_count"`
	FirmEmail     string     `json:"firm_email,omitempty"`
}

// Category names one classification bucket.
type Category string

const (
	CategoryCritical        Category = "critical"
	CategoryHighPriority    Category = "high_priority"
	CategoryNeedsFollowUp   Category = "needs_follow_up"
	CategoryNoResponse      Category = "no_response"
	CategoryNeverContacted  Category = "never_contacted"
	CategoryRecentlySent    Category = "recently_sent"
	CategoryMissingDOI      Category = "missing_doi"
	CategoryStatuteEligible Category = "statute_eligible"
)

// Categories returns every bucket name in stable display order.
func Categories() []Category {
	return []Category{
		CategoryCritical,
		CategoryHighPriority,
		CategoryNeedsFollowUp,
		CategoryNoResponse,
		CategoryNeverContacted,
		CategoryRecentlySent,
		CategoryMissingDOI,
		CategoryStatuteEligible,
	}
}

// Contact provenance tags reported by the ContactResolver.
const (
	SourceTracking         = "tracking"
	SourceActivityFallback = "activity_fallback"
	SourceSentEmailLog     = "sent_email_log"
)

// CaseSummary is the per-case line item placed into category buckets.
type CaseSummary struct {
	PV               string `json:"pv"`
	Name             string `json:"name"`
	AttorneyEmail    string `json:"attorney_email"`
	LawFirm          string `json:"law_firm"`
	HasContact       bool   `json:"has_contact"`
	DaysSinceContact int    `json:"days_since_contact"`
	LastContact      string `json:"last_contact,omitempty"`
	ContactSource    string `json:"contact_source,omitempty"`
	ResponseCount    int    `json:"response_count"`
	ActivityCount    int    `json:"activity_count"`
	DOI              string `json:"doi,omitempty"`
	Status           string `json:"status,omitempty"`
	DataQuality      string `json:"data_quality,omitempty"`
}

// Buckets maps category name to its ordered case summaries.
type Buckets map[Category][]CaseSummary

// ClassificationResult is one complete, immutable classification pass.
type ClassificationResult struct {
	Buckets    Buckets
	ComputedAt time.Time
}

// CategoryPage is a paginated slice of one bucket.
type CategoryPage struct {
	Category  Category      `json:"category"`
	Cases     []CaseSummary `json:"cases"`
	Total     int           `json:"total"`
	Remaining int           `json:"remaining"`
}

// Dashboard is a roster-wide summary of the latest classification pass.
type Dashboard struct {
	TotalCases   int              `json:"total_cases"`
	ByCategory   map[Category]int `json:"by_category"`
	Stale30Days  int              `json:"stale_30_days"`
	Stale60Days  int              `json:"stale_60_days"`
	Stale90Days  int              `json:"stale_90_days"`
	ComputedAt   time.Time        `json:"computed_at"`
	Acknowledged int              `json:"acknowledged"`
}

// DraftKind selects the flavor of email the drafting service produces.
type DraftKind string

const (
	DraftFollowUp       DraftKind = "follow_up"
	DraftStatusRequest  DraftKind = "status_request"
	DraftStatuteInquiry DraftKind = "statute_inquiry"
)

// DraftRequest carries everything a Drafter needs to write one email.
type DraftRequest struct {
	Case             CaseRecord
	Kind             DraftKind
	DaysSinceContact int
	History          []EmailRecord
}

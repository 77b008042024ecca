package core

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// Draft subject prefixes keyed by draft kind.
var draftSubjects = map[DraftKind]string{
	DraftFollowUp:       "Follow-up on lien case",
	DraftStatusRequest:  "Status request",
	DraftStatuteInquiry: "Statute of limitations inquiry",
}

// TrackerService is the orchestration layer over the mirror, the
// classifier, and the outbound mail path. Consumers (the daemon and the
// CLI) talk to this service only.
type TrackerService struct {
	mirror     MailMirror
	classifier *StaleCaseClassifier
	index      CaseIndex
	provider   MailProvider
	fallback   Sender
	drafter    Drafter
	recorder   SendRecorder
	ack        AckLedger
	logger     *zap.Logger
}

// NewTrackerService creates the orchestration service. fallback, when
// non-nil, carries sends for installs without a provider API.
func NewTrackerService(
	mirror MailMirror,
	classifier *StaleCaseClassifier,
	index CaseIndex,
	provider MailProvider,
	fallback Sender,
	drafter Drafter,
	recorder SendRecorder,
	ack AckLedger,
	logger *zap.Logger,
) *TrackerService {
	return &TrackerService{
		mirror:     mirror,
		classifier: classifier,
		index:      index,
		provider:   provider,
		fallback:   fallback,
		drafter:    drafter,
		recorder:   recorder,
		ack:        ack,
		logger:     logger,
	}
}

// Refresh syncs the mailbox mirror and recomputes the classification.
// full forces a complete re-download; otherwise a stale mirror gets an
// incremental sync and a fresh one is used as-is.
func (s *TrackerService) Refresh(ctx context.Context, full bool) (*ClassificationResult, error) {
	switch {
	case full:
		if _, err := s.mirror.FullSync(ctx); err != nil {
			return nil, err
		}
	case s.mirror.IsStale():
		if _, err := s.mirror.IncrementalSync(ctx); err != nil {
			return nil, err
		}
	default:
		s.logger.Debug("Mirror is fresh, skipping sync")
	}
	return s.classifier.ClassifyAll(ctx, true)
}

// Report returns the current classification with acknowledged cases
// hidden. It never triggers a sync; a TTL-fresh cached pass is reused.
func (s *TrackerService) Report(ctx context.Context) (*ClassificationResult, error) {
	result, err := s.classifier.ClassifyAll(ctx, false)
	if err != nil {
		return nil, err
	}
	return FilterAcknowledged(result, s.ack, s.logger), nil
}

// CategoryReport returns one acknowledged-filtered bucket page.
func (s *TrackerService) CategoryReport(ctx context.Context, name string, limit int) (*CategoryPage, error) {
	result, err := s.Report(ctx)
	if err != nil {
		return nil, err
	}
	cat := Category(name)
	cases, ok := result.Buckets[cat]
	if !ok {
		return nil, fmt.Errorf("unknown category %q", name)
	}
	total := len(cases)
	if limit <= 0 || limit > total {
		limit = total
	}
	return &CategoryPage{Category: cat, Cases: cases[:limit], Total: total, Remaining: total - limit}, nil
}

// Dashboard returns roster-wide counts plus the acknowledged tally.
func (s *TrackerService) Dashboard(ctx context.Context) (*Dashboard, error) {
	d, err := s.classifier.Summary(ctx)
	if err != nil {
		return nil, err
	}
	for _, cs := range s.index.AllCases() {
		if s.ack != nil && s.ack.IsAcknowledged(strings.TrimSpace(cs.PV)) {
			d.Acknowledged++
		}
	}
	return d, nil
}

// DraftEmail produces (but does not send) an email body for one case.
func (s *TrackerService) DraftEmail(ctx context.Context, pv string, kind DraftKind) (string, error) {
	req, err := s.buildDraftRequest(ctx, pv, kind)
	if err != nil {
		return "", err
	}
	return s.drafter.Draft(ctx, *req)
}

// SendFollowUp drafts and sends an email for one case, records the send
// in the ledger, and invalidates the classification cache so the case
// immediately reads as freshly contacted.
func (s *TrackerService) SendFollowUp(ctx context.Context, pv string, kind DraftKind) (string, error) {
	req, err := s.buildDraftRequest(ctx, pv, kind)
	if err != nil {
		return "", err
	}
	if req.Case.AttorneyEmail == "" {
		return "", &DataQualityError{PV: pv, Field: "attorney_email", Reason: "no address on file"}
	}

	body, err := s.drafter.Draft(ctx, *req)
	if err != nil {
		return "", err
	}
	subject := fmt.Sprintf("%s - PV %s (%s)", draftSubjects[req.Kind], req.Case.PV, req.Case.Name)

	var msgID string
	switch {
	case s.provider != nil:
		msgID, err = s.provider.Send(ctx, req.Case.AttorneyEmail, subject, body, "")
	case s.fallback != nil:
		err = s.fallback.Send(ctx, req.Case.AttorneyEmail, subject, body)
	default:
		return "", fmt.Errorf("no outbound transport configured")
	}
	if err != nil {
		return "", &ProviderError{Op: "send", Err: err}
	}

	// The ledger write must follow a confirmed send; a failed write is
	// loud but does not undo the send.
	if err := s.recorder.Append(req.Case.PV, req.Case.AttorneyEmail, subject); err != nil {
		s.logger.Error("Send succeeded but ledger append failed",
			zap.String("pv", pv), zap.Error(err))
	}
	s.classifier.Invalidate()

	s.logger.Info("Follow-up sent",
		zap.String("pv", pv),
		zap.String("to", req.Case.AttorneyEmail),
		zap.String("message_id", msgID))
	return msgID, nil
}

// CaseHistory returns mirrored correspondence matching the case's PV.
func (s *TrackerService) CaseHistory(pv string) []EmailRecord {
	return s.mirror.FindByText(pv)
}

func (s *TrackerService) buildDraftRequest(ctx context.Context, pv string, kind DraftKind) (*DraftRequest, error) {
	cs, ok := s.index.LookupByPV(pv)
	if !ok {
		return nil, fmt.Errorf("unknown case %q", pv)
	}

	days := 0
	if result, err := s.classifier.ClassifyAll(ctx, false); err == nil {
		for _, cases := range result.Buckets {
			for _, summary := range cases {
				if summary.PV == cs.PV && summary.HasContact {
					days = summary.DaysSinceContact
				}
			}
		}
	}

	history := s.mirror.FindByText(cs.PV)
	if len(history) > 8 {
		history = history[:8]
	}
	return &DraftRequest{Case: *cs, Kind: kind, DaysSinceContact: days, History: history}, nil
}

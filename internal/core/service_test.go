package core

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
)

type fakeMirror struct {
	records     []EmailRecord
	stale       bool
	fullSyncs   int
	incrSyncs   int
	fullSyncErr error
}

func (f *fakeMirror) Records() []EmailRecord { return f.records }

func (f *fakeMirror) IsSent(rec EmailRecord) bool {
	return strings.Contains(rec.From, "office@liendesk.example")
}

func (f *fakeMirror) FullSync(ctx context.Context) (int, error) {
	if f.fullSyncErr != nil {
		return 0, f.fullSyncErr
	}
	f.fullSyncs++
	return len(f.records), nil
}

func (f *fakeMirror) IncrementalSync(ctx context.Context) (int, error) {
	f.incrSyncs++
	return 0, nil
}

func (f *fakeMirror) FindByText(term string) []EmailRecord {
	var out []EmailRecord
	for _, rec := range f.records {
		if strings.Contains(strings.ToLower(rec.Subject), strings.ToLower(term)) {
			out = append(out, rec)
		}
	}
	return out
}

func (f *fakeMirror) IsStale() bool { return f.stale }

type fakeProvider struct {
	sent    []string
	sendErr error
}

func (f *fakeProvider) Search(ctx context.Context, query string, maxResults int) ([]EmailRecord, error) {
	return nil, nil
}

func (f *fakeProvider) Send(ctx context.Context, to, subject, body, threadID string) (string, error) {
	if f.sendErr != nil {
		return "", f.sendErr
	}
	f.sent = append(f.sent, to)
	return fmt.Sprintf("msg-%d", len(f.sent)), nil
}

type fakeDrafter struct {
	body string
	err  error
}

func (f *fakeDrafter) Draft(ctx context.Context, req DraftRequest) (string, error) {
	return f.body, f.err
}

type fakeRecorder struct {
	lines []string
	err   error
}

func (f *fakeRecorder) Append(pv, to, subject string) error {
	if f.err != nil {
		return f.err
	}
	f.lines = append(f.lines, pv+"|"+to)
	return nil
}

type serviceFixture struct {
	service    *TrackerService
	classifier *StaleCaseClassifier
	mirror     *fakeMirror
	provider   *fakeProvider
	recorder   *fakeRecorder
	acked      *fakeAckLedger
}

func newServiceFixture(cases []CaseRecord, sends map[string]time.Time) *serviceFixture {
	clock := func() time.Time { return testNow }
	mirror := &fakeMirror{}
	provider := &fakeProvider{}
	recorder := &fakeRecorder{}
	acked := &fakeAckLedger{acked: map[string]bool{}}
	index := &fakeIndex{cases: cases}
	resolver := NewContactResolver(&fakeSentLedger{sends: sends}, zap.NewNop()).WithClock(clock)
	classifier := NewStaleCaseClassifier(
		index, mirror, resolver, &fakeStore{}, DefaultClassifierSettings(), zap.NewNop(),
	).WithClock(clock)
	service := NewTrackerService(
		mirror, classifier, index, provider, nil, &fakeDrafter{body: "Dear counsel,"},
		recorder, acked, zap.NewNop(),
	)
	return &serviceFixture{
		service:    service,
		classifier: classifier,
		mirror:     mirror,
		provider:   provider,
		recorder:   recorder,
		acked:      acked,
	}
}

func TestRefreshSyncPolicy(t *testing.T) {
	f := newServiceFixture([]CaseRecord{{PV: "1"}}, nil)
	ctx := context.Background()

	if _, err := f.service.Refresh(ctx, true); err != nil {
		t.Fatalf("Refresh(full): %v", err)
	}
	if f.mirror.fullSyncs != 1 || f.mirror.incrSyncs != 0 {
		t.Errorf("full refresh ran %d full / %d incremental syncs", f.mirror.fullSyncs, f.mirror.incrSyncs)
	}

	f.mirror.stale = true
	if _, err := f.service.Refresh(ctx, false); err != nil {
		t.Fatalf("Refresh(stale): %v", err)
	}
	if f.mirror.incrSyncs != 1 {
		t.Errorf("stale mirror must trigger an incremental sync")
	}

	f.mirror.stale = false
	if _, err := f.service.Refresh(ctx, false); err != nil {
		t.Fatalf("Refresh(fresh): %v", err)
	}
	if f.mirror.fullSyncs != 1 || f.mirror.incrSyncs != 1 {
		t.Errorf("fresh mirror must not sync")
	}
}

func TestRefreshPropagatesSyncFailure(t *testing.T) {
	f := newServiceFixture([]CaseRecord{{PV: "1"}}, nil)
	f.mirror.fullSyncErr = &ProviderError{Op: "full sync", Err: fmt.Errorf("api down")}

	_, err := f.service.Refresh(context.Background(), true)
	if err == nil {
		t.Fatalf("expected sync failure to propagate")
	}
	if !IsProviderError(err) {
		t.Errorf("error should identify the provider as the cause: %v", err)
	}
}

func TestReportHidesAcknowledged(t *testing.T) {
	f := newServiceFixture(
		[]CaseRecord{{PV: "1"}, {PV: "2"}},
		map[string]time.Time{"1": testNow.AddDate(0, 0, -120), "2": testNow.AddDate(0, 0, -120)},
	)
	f.acked.acked["1"] = true

	result, err := f.service.Report(context.Background())
	if err != nil {
		t.Fatalf("Report: %v", err)
	}
	got := bucketPVs(result.Buckets, CategoryCritical)
	if len(got) != 1 || got[0] != "2" {
		t.Errorf("critical = %v, want [2]", got)
	}
}

func TestSendFollowUpRecordsAndInvalidates(t *testing.T) {
	f := newServiceFixture(
		[]CaseRecord{{PV: "1001", Name: "SMITH, JOHN", AttorneyEmail: "attorney@firm.example"}},
		nil,
	)
	ctx := context.Background()

	before, err := f.classifier.ClassifyAll(ctx, false)
	if err != nil {
		t.Fatalf("ClassifyAll: %v", err)
	}

	msgID, err := f.service.SendFollowUp(ctx, "1001", DraftFollowUp)
	if err != nil {
		t.Fatalf("SendFollowUp: %v", err)
	}
	if msgID == "" {
		t.Errorf("missing provider message id")
	}
	if len(f.provider.sent) != 1 || f.provider.sent[0] != "attorney@firm.example" {
		t.Errorf("sent to %v", f.provider.sent)
	}
	if len(f.recorder.lines) != 1 || !strings.HasPrefix(f.recorder.lines[0], "1001|") {
		t.Errorf("ledger lines = %v", f.recorder.lines)
	}

	after, err := f.classifier.ClassifyAll(ctx, false)
	if err != nil {
		t.Fatalf("ClassifyAll: %v", err)
	}
	if after == before {
		t.Errorf("send must invalidate the cached classification")
	}
}

func TestSendFollowUpFailuresDoNotReachLedger(t *testing.T) {
	f := newServiceFixture(
		[]CaseRecord{{PV: "1001", AttorneyEmail: "attorney@firm.example"}},
		nil,
	)
	f.provider.sendErr = fmt.Errorf("quota exceeded")

	_, err := f.service.SendFollowUp(context.Background(), "1001", DraftFollowUp)
	if err == nil {
		t.Fatalf("expected send failure")
	}
	if !IsProviderError(err) {
		t.Errorf("send failure should be a provider error: %v", err)
	}
	if len(f.recorder.lines) != 0 {
		t.Errorf("failed send must not be recorded in the ledger")
	}
}

func TestSendFollowUpRequiresAddress(t *testing.T) {
	f := newServiceFixture([]CaseRecord{{PV: "1001", Name: "SMITH, JOHN"}}, nil)

	_, err := f.service.SendFollowUp(context.Background(), "1001", DraftFollowUp)
	if err == nil {
		t.Fatalf("expected error for case without an attorney address")
	}
	if len(f.provider.sent) != 0 {
		t.Errorf("nothing should be sent without an address")
	}
}

type fakeSender struct {
	sent []string
}

func (f *fakeSender) Send(ctx context.Context, to, subject, body string) error {
	f.sent = append(f.sent, to)
	return nil
}

func TestSendFollowUpFallsBackToRelay(t *testing.T) {
	clock := func() time.Time { return testNow }
	index := &fakeIndex{cases: []CaseRecord{{PV: "1001", AttorneyEmail: "attorney@firm.example"}}}
	mirror := &fakeMirror{}
	recorder := &fakeRecorder{}
	relay := &fakeSender{}
	resolver := NewContactResolver(&fakeSentLedger{}, zap.NewNop()).WithClock(clock)
	classifier := NewStaleCaseClassifier(
		index, mirror, resolver, &fakeStore{}, DefaultClassifierSettings(), zap.NewNop(),
	).WithClock(clock)
	service := NewTrackerService(
		mirror, classifier, index, nil, relay, &fakeDrafter{body: "Dear counsel,"},
		recorder, &fakeAckLedger{}, zap.NewNop(),
	)

	if _, err := service.SendFollowUp(context.Background(), "1001", DraftFollowUp); err != nil {
		t.Fatalf("SendFollowUp: %v", err)
	}
	if len(relay.sent) != 1 || relay.sent[0] != "attorney@firm.example" {
		t.Errorf("relay sent to %v", relay.sent)
	}
	if len(recorder.lines) != 1 {
		t.Errorf("relay send must still reach the ledger")
	}
}

func TestSendFollowUpUnknownCase(t *testing.T) {
	f := newServiceFixture(nil, nil)
	if _, err := f.service.SendFollowUp(context.Background(), "9999", DraftFollowUp); err == nil {
		t.Fatalf("expected error for unknown case")
	}
}

func TestDashboardCountsAcknowledged(t *testing.T) {
	f := newServiceFixture(
		[]CaseRecord{{PV: "1"}, {PV: "2"}, {PV: "3"}},
		map[string]time.Time{"1": testNow.AddDate(0, 0, -120)},
	)
	f.acked.acked["2"] = true

	d, err := f.service.Dashboard(context.Background())
	if err != nil {
		t.Fatalf("Dashboard: %v", err)
	}
	if d.TotalCases != 3 {
		t.Errorf("TotalCases = %d, want 3", d.TotalCases)
	}
	if d.Acknowledged != 1 {
		t.Errorf("Acknowledged = %d, want 1", d.Acknowledged)
	}
	if d.Stale90Days != 1 {
		t.Errorf("Stale90Days = %d, want 1", d.Stale90Days)
	}
}

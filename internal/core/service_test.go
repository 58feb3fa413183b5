package core

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func newTestService(store Store) *Service {
	return NewService(store, ServiceConfig{MaxConcurrent: 1, MaxWait: time.Second})
}

func waitReport(t *testing.T, svc *Service, id string) *BatchReport {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	report, err := svc.Report(ctx, id)
	if err != nil {
		t.Fatalf("Report() error = %v", err)
	}
	return report
}

func TestService_StageBlocksInvalidFile(t *testing.T) {
	svc := newTestService(newFakeStore())

	sum, err := svc.Stage("beneficiaries.xlsx", beneficiaryMatrix(
		[2]string{"Ana Ruiz", "a@b.com"},
		[2]string{"Luis Soto", ""},
		[2]string{"Eva Diaz", "not-an-email"},
	))
	if err != nil {
		t.Fatalf("Stage() error = %v", err)
	}

	if sum.Phase != PhaseBlocked {
		t.Errorf("Phase = %s, want %s", sum.Phase, PhaseBlocked)
	}
	if sum.Rows != 3 || len(sum.ValidationErrors) != 2 {
		t.Errorf("summary = rows %d errors %d, want 3 and 2", sum.Rows, len(sum.ValidationErrors))
	}
	if len(sum.Unresolved) != 0 {
		t.Errorf("Unresolved = %v, want none for the template headers", sum.Unresolved)
	}

	err = svc.Start(context.Background(), sum.ID)
	if !errors.Is(err, ErrValidationBlocked) {
		t.Fatalf("Start() error = %v, want ErrValidationBlocked", err)
	}
}

func TestService_StripThenRun(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)

	sum, err := svc.Stage("beneficiaries.xlsx", beneficiaryMatrix(
		[2]string{"Ana Ruiz", "a@b.com"},
		[2]string{"Luis Soto", ""},
		[2]string{"Eva Diaz", "eva@example.com"},
	))
	if err != nil {
		t.Fatalf("Stage() error = %v", err)
	}

	sum, err = svc.StripInvalid(sum.ID)
	if err != nil {
		t.Fatalf("StripInvalid() error = %v", err)
	}
	if sum.Phase != PhaseStaged || sum.Rows != 2 || sum.RemovedRows != 1 {
		t.Errorf("after strip: phase %s rows %d removed %d", sum.Phase, sum.Rows, sum.RemovedRows)
	}

	invalid, err := svc.InvalidRows(sum.ID)
	if err != nil {
		t.Fatalf("InvalidRows() error = %v", err)
	}
	if len(invalid) != 2 || invalid[1][2].String() != "Luis Soto" {
		t.Errorf("InvalidRows() = %d rows, want header plus Luis Soto", len(invalid))
	}

	if err := svc.Start(context.Background(), sum.ID); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	report := waitReport(t, svc, sum.ID)

	if report.Total != 2 || report.Succeeded != 2 || report.Failed != 0 {
		t.Errorf("report = {total %d, succeeded %d, failed %d}", report.Total, report.Succeeded, report.Failed)
	}

	p, err := svc.Progress(sum.ID)
	if err != nil {
		t.Fatalf("Progress() error = %v", err)
	}
	if p.Phase != PhaseComplete || p.Status != report.Summary() {
		t.Errorf("final progress = %+v", p)
	}

	if err := svc.Start(context.Background(), sum.ID); !errors.Is(err, ErrAlreadyStarted) {
		t.Errorf("second Start() error = %v, want ErrAlreadyStarted", err)
	}
}

func TestService_StripWithoutEmailColumn(t *testing.T) {
	svc := newTestService(newFakeStore())

	sum, err := svc.Stage("people.csv", Matrix{TextRow("Name"), TextRow("Ana")})
	if err != nil {
		t.Fatalf("Stage() error = %v", err)
	}
	if _, err := svc.StripInvalid(sum.ID); !errors.Is(err, ErrEmailColumnMissing) {
		t.Errorf("StripInvalid() error = %v, want ErrEmailColumnMissing", err)
	}
}

func TestService_SubscribeAfterCompletion(t *testing.T) {
	svc := newTestService(newFakeStore())

	sum, err := svc.Stage("beneficiaries.xlsx", beneficiaryMatrix([2]string{"Ana Ruiz", "ana@example.com"}))
	if err != nil {
		t.Fatalf("Stage() error = %v", err)
	}
	if err := svc.Start(context.Background(), sum.ID); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	waitReport(t, svc, sum.ID)

	ch, err := svc.Subscribe(sum.ID)
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}

	var got []Progress
	for p := range ch {
		got = append(got, p)
	}
	if len(got) != 1 || got[0].Phase != PhaseComplete {
		t.Errorf("snapshots = %+v, want a single complete snapshot", got)
	}
}

func TestService_SubscribeReceivesUntilClose(t *testing.T) {
	svc := newTestService(newFakeStore())

	sum, err := svc.Stage("beneficiaries.xlsx", beneficiaryMatrix(
		[2]string{"Ana Ruiz", "ana@example.com"},
		[2]string{"Eva Diaz", "eva@example.com"},
	))
	if err != nil {
		t.Fatalf("Stage() error = %v", err)
	}

	ch, err := svc.Subscribe(sum.ID)
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}
	if err := svc.Start(context.Background(), sum.ID); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	var last Progress
	timeout := time.After(5 * time.Second)
	for done := false; !done; {
		select {
		case p, ok := <-ch:
			if !ok {
				done = true
				break
			}
			last = p
		case <-timeout:
			t.Fatal("progress channel was not closed")
		}
	}

	if last.Phase != PhaseComplete || last.Processed != 2 {
		t.Errorf("last snapshot = %+v, want complete with 2 processed", last)
	}
	if last.ImportID != sum.ID {
		t.Errorf("ImportID = %q, want %q", last.ImportID, sum.ID)
	}
}

func TestService_SubscribeClosedOnExpiry(t *testing.T) {
	svc := NewService(newFakeStore(), ServiceConfig{
		MaxConcurrent: 1,
		MaxWait:       time.Second,
		SessionTTL:    20 * time.Millisecond,
	})

	sum, err := svc.Stage("beneficiaries.xlsx", beneficiaryMatrix([2]string{"Ana Ruiz", "ana@example.com"}))
	if err != nil {
		t.Fatalf("Stage() error = %v", err)
	}
	ch, err := svc.Subscribe(sum.ID)
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}

	timeout := time.After(5 * time.Second)
	for {
		select {
		case _, ok := <-ch:
			if !ok {
				if _, err := svc.Get(sum.ID); !errors.Is(err, ErrImportNotFound) {
					t.Errorf("Get() after expiry error = %v, want ErrImportNotFound", err)
				}
				return
			}
		case <-timeout:
			t.Fatal("progress channel was not closed when the session expired")
		}
	}
}

func TestService_UnknownImport(t *testing.T) {
	svc := newTestService(newFakeStore())

	if _, err := svc.Get("missing"); !errors.Is(err, ErrImportNotFound) {
		t.Errorf("Get() error = %v, want ErrImportNotFound", err)
	}
	if err := svc.Start(context.Background(), "missing"); !errors.Is(err, ErrImportNotFound) {
		t.Errorf("Start() error = %v, want ErrImportNotFound", err)
	}
	if _, err := svc.Subscribe("missing"); !errors.Is(err, ErrImportNotFound) {
		t.Errorf("Subscribe() error = %v, want ErrImportNotFound", err)
	}
}

func TestService_StageEmpty(t *testing.T) {
	svc := newTestService(newFakeStore())
	if _, err := svc.Stage("empty.csv", nil); !errors.Is(err, ErrEmptyFile) {
		t.Errorf("Stage(nil) error = %v, want ErrEmptyFile", err)
	}
}

func TestService_ReportBeforeStart(t *testing.T) {
	svc := newTestService(newFakeStore())

	sum, err := svc.Stage("beneficiaries.xlsx", beneficiaryMatrix([2]string{"Ana Ruiz", "ana@example.com"}))
	if err != nil {
		t.Fatalf("Stage() error = %v", err)
	}
	if _, err := svc.Report(context.Background(), sum.ID); err == nil {
		t.Error("Report() before Start should fail")
	}
}

func TestService_Shutdown(t *testing.T) {
	svc := newTestService(newFakeStore())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := svc.Shutdown(ctx); err != nil {
		t.Errorf("Shutdown() with no running imports error = %v", err)
	}
	if st := svc.LimiterStatus(); st.Active != 0 {
		t.Errorf("LimiterStatus().Active = %d, want 0", st.Active)
	}
}

type fakeHistory struct {
	mu      sync.Mutex
	records []ImportRecord
}

func (h *fakeHistory) RecordImport(_ context.Context, rec ImportRecord) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.records = append(h.records, rec)
	return nil
}

func (h *fakeHistory) RecentImports(_ context.Context, limit int) ([]ImportRecord, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if limit > len(h.records) {
		limit = len(h.records)
	}
	return append([]ImportRecord(nil), h.records[:limit]...), nil
}

func TestService_RecordsHistory(t *testing.T) {
	history := &fakeHistory{}
	svc := NewService(newFakeStore(), ServiceConfig{MaxConcurrent: 1, MaxWait: time.Second, History: history})

	sum, err := svc.Stage("beneficiaries.xlsx", beneficiaryMatrix([2]string{"Ana Ruiz", "ana@example.com"}))
	if err != nil {
		t.Fatalf("Stage() error = %v", err)
	}

	ctx := ContextWithClient(context.Background(), Client{IPAddress: "10.0.0.7", UserAgent: "test"})
	if err := svc.Start(ctx, sum.ID); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	waitReport(t, svc, sum.ID)

	records, err := svc.History(context.Background(), 0)
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("History() = %d records, want 1", len(records))
	}
	rec := records[0]
	if rec.ID != sum.ID || rec.FileName != "beneficiaries.xlsx" || rec.Succeeded != 1 || rec.Total != 1 {
		t.Errorf("record = %+v", rec)
	}
	if rec.IPAddress != "10.0.0.7" || rec.UserAgent != "test" {
		t.Errorf("client = (%q, %q), want (10.0.0.7, test)", rec.IPAddress, rec.UserAgent)
	}
	if rec.FinishedAt.Before(rec.StartedAt) {
		t.Error("FinishedAt before StartedAt")
	}
}

func TestService_HistoryWithoutStore(t *testing.T) {
	records, err := newTestService(newFakeStore()).History(context.Background(), 10)
	if err != nil || len(records) != 0 {
		t.Errorf("History() = %v, %v; want empty", records, err)
	}
}

package core

import (
	"context"
	"time"
)

// ImportRecord is the kept summary of one finished batch.
type ImportRecord struct {
	ID         string    `json:"id"`
	FileName   string    `json:"fileName"`
	StartedAt  time.Time `json:"startedAt"`
	FinishedAt time.Time `json:"finishedAt"`
	Total      int       `json:"total"`
	Succeeded  int       `json:"succeeded"`
	Failed     int       `json:"failed"`
	Error      string    `json:"error,omitempty"`
	IPAddress  string    `json:"ipAddress,omitempty"`
	UserAgent  string    `json:"userAgent,omitempty"`
}

// HistoryStore keeps a record of finished imports. Store backends that can
// persist it implement this alongside Store.
type HistoryStore interface {
	RecordImport(ctx context.Context, rec ImportRecord) error
	RecentImports(ctx context.Context, limit int) ([]ImportRecord, error)
}

// DefaultHistoryLimit bounds History when no limit is given.
const DefaultHistoryLimit = 50

// History returns the most recent finished imports, newest first. It is
// empty when the service has no HistoryStore.
func (s *Service) History(ctx context.Context, limit int) ([]ImportRecord, error) {
	if s.history == nil {
		return []ImportRecord{}, nil
	}
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	return s.history.RecentImports(ctx, limit)
}

func newImportRecord(sess *importSession, report *BatchReport, err error) ImportRecord {
	rec := ImportRecord{
		ID:         sess.ID,
		FileName:   sess.FileName,
		StartedAt:  sess.startedAt,
		FinishedAt: time.Now(),
		IPAddress:  sess.client.IPAddress,
		UserAgent:  sess.client.UserAgent,
	}
	if report != nil {
		rec.Total = report.Total
		rec.Succeeded = report.Succeeded
		rec.Failed = report.Failed
	}
	if err != nil {
		rec.Error = err.Error()
	}
	return rec
}

// recordHistory saves a finished batch. A history failure is logged and
// never changes the import's outcome.
func (s *Service) recordHistory(ctx context.Context, rec ImportRecord) {
	if s.history == nil {
		return
	}
	if err := s.history.RecordImport(ctx, rec); err != nil {
		s.logger.Error("failed to record import history", "import_id", rec.ID, "error", err)
	}
}

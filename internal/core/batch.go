package core

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Runner sequences the Reconciler over every row of a batch.
//
// Rows run strictly one at a time in input order. After each row the running
// counters are updated and a Progress snapshot is passed to the ProgressFunc,
// whatever the row's outcome. A row failure never stops the batch; only a
// structural problem (no email column) does, before any row runs.
type Runner struct {
	reconciler *Reconciler
	onProgress ProgressFunc
	logger     *slog.Logger
}

// NewRunner creates a Runner. onProgress may be nil.
func NewRunner(reconciler *Reconciler, onProgress ProgressFunc) *Runner {
	return &Runner{
		reconciler: reconciler,
		onProgress: onProgress,
		logger:     slog.Default(),
	}
}

// WithLogger returns a copy of the runner logging to l.
func (r *Runner) WithLogger(l *slog.Logger) *Runner {
	cp := *r
	if l != nil {
		cp.logger = l
	}
	return &cp
}

// Run normalizes m, resolves its columns and reconciles every data row.
// It returns ErrEmailColumnMissing, with no row processed, when the header
// has no email column. Callers are expected to have validated m first.
func (r *Runner) Run(ctx context.Context, m Matrix) (BatchReport, error) {
	m = Normalize(m)
	cm := ResolveColumns(m.Header())
	if !cm.Resolved(FieldEmail) {
		r.logger.Error("batch aborted", "error", ErrEmailColumnMissing)
		return BatchReport{}, ErrEmailColumnMissing
	}

	rows := m.DataRows()
	emailIdx, _ := cm.Index(FieldEmail)

	return r.run(len(rows), func(i int) ReconciliationOutcome {
		rec, err := ExtractAt(rows[i], cm, i)
		if err != nil {
			return ReconciliationOutcome{
				RowNumber: RowNumber(i),
				Email:     rows[i][emailIdx].String(),
				Error:     err.Error(),
			}
		}
		return r.reconciler.Reconcile(ctx, rec)
	}), nil
}

// RunRecords reconciles already extracted records in order.
func (r *Runner) RunRecords(ctx context.Context, records []BeneficiaryRecord) BatchReport {
	return r.run(len(records), func(i int) ReconciliationOutcome {
		return r.reconciler.Reconcile(ctx, records[i])
	})
}

func (r *Runner) run(total int, process func(i int) ReconciliationOutcome) BatchReport {
	start := time.Now()
	report := BatchReport{
		Total:    total,
		Failures: []RowFailure{},
		Outcomes: make([]ReconciliationOutcome, 0, total),
	}

	r.logger.Info("batch started", "total", total)

	for i := 0; i < total; i++ {
		out := process(i)
		report.Outcomes = append(report.Outcomes, out)
		if out.Success {
			report.Succeeded++
		} else {
			report.Failed++
			report.Failures = append(report.Failures, RowFailure{
				RowNumber: out.RowNumber,
				Email:     out.Email,
				Message:   out.Error,
			})
			r.logger.Warn("row failed", "row", out.RowNumber, "email", out.Email, "error", out.Error)
		}

		processed := i + 1
		r.emit(Progress{
			Phase:     PhaseRunning,
			Total:     total,
			Processed: processed,
			Succeeded: report.Succeeded,
			Failed:    report.Failed,
			Status: fmt.Sprintf("Processed %d of %d records (%d succeeded, %d failed)",
				processed, total, report.Succeeded, report.Failed),
		})
	}

	report.Duration = time.Since(start)

	r.emit(Progress{
		Phase:     PhaseComplete,
		Total:     total,
		Processed: total,
		Succeeded: report.Succeeded,
		Failed:    report.Failed,
		Status:    report.Summary(),
	})

	r.logger.Info("batch complete",
		"total", total,
		"succeeded", report.Succeeded,
		"failed", report.Failed,
		"duration", report.Duration)

	return report
}

func (r *Runner) emit(p Progress) {
	if r.onProgress != nil {
		r.onProgress(p)
	}
}

package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Session errors.
var (
	ErrImportNotFound    = errors.New("import not found")
	ErrValidationBlocked = errors.New("import blocked by validation errors")
	ErrAlreadyStarted    = errors.New("import already started")
	ErrEmptyFile         = errors.New("empty file: no header row")
)

// DefaultSessionTTL is how long an idle import session is kept in memory.
const DefaultSessionTTL = 30 * time.Minute

// ServiceConfig holds the tunables of a Service.
type ServiceConfig struct {
	MaxConcurrent int           // parallel batches across sessions
	MaxWait       time.Duration // how long Start waits for a batch slot
	SessionTTL    time.Duration // idle lifetime of a session
	Deal          DealSettings
	History       HistoryStore // optional
	Logger        *slog.Logger
}

// Service manages import sessions: a staged, validated matrix that can be
// stripped of invalid rows, run against the store, and observed while it
// runs. Sessions live in memory only and expire after SessionTTL.
type Service struct {
	reconciler *Reconciler
	limiter    *ImportLimiter
	history    HistoryStore
	ttl        time.Duration
	logger     *slog.Logger

	mu      sync.RWMutex
	imports map[string]*importSession
}

type importSession struct {
	ID        string
	FileName  string
	CreatedAt time.Time

	mu        sync.Mutex
	matrix    Matrix
	rejected  Matrix // rows removed by StripInvalid, with header
	errors    []ValidationError
	started   bool
	startedAt time.Time
	client    Client
	progress  Progress
	report    *BatchReport
	err       error
	expires   time.Time

	Done       chan struct{}
	Listeners  []chan Progress
	ListenerMu sync.Mutex
}

// ImportSummary describes a session for callers.
type ImportSummary struct {
	ID               string            `json:"id"`
	FileName         string            `json:"fileName"`
	Phase            ImportPhase       `json:"phase"`
	Rows             int               `json:"rows"`
	Headers          []string          `json:"headers"`
	ResolvedColumns  int               `json:"resolvedColumns"`
	Unresolved       []Field           `json:"unresolved"`
	ValidationErrors []ValidationError `json:"validationErrors"`
	RemovedRows      int               `json:"removedRows"`
	Progress         Progress          `json:"progress"`
	CreatedAt        time.Time         `json:"createdAt"`
}

// NewService creates a Service reconciling against store.
func NewService(store Store, cfg ServiceConfig) *Service {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	ttl := cfg.SessionTTL
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	deal := cfg.Deal
	if deal == (DealSettings{}) {
		deal = DefaultDealSettings
	}

	return &Service{
		reconciler: NewReconciler(store, WithDealSettings(deal), WithLogger(logger)),
		limiter:    NewImportLimiter(cfg.MaxConcurrent, cfg.MaxWait),
		history:    cfg.History,
		ttl:        ttl,
		logger:     logger,
		imports:    make(map[string]*importSession),
	}
}

// Stage normalizes and validates a decoded matrix and opens a session for it.
// Validation errors do not fail Stage; they are reported on the summary and
// block Start until removed.
func (s *Service) Stage(fileName string, m Matrix) (ImportSummary, error) {
	if len(m) == 0 {
		return ImportSummary{}, ErrEmptyFile
	}

	norm := Normalize(m)
	sess := &importSession{
		ID:        uuid.New().String(),
		FileName:  fileName,
		CreatedAt: time.Now(),
		matrix:    norm,
		errors:    Validate(norm),
		expires:   time.Now().Add(s.ttl),
		Done:      make(chan struct{}),
	}
	sess.progress = Progress{
		ImportID: sess.ID,
		Phase:    PhaseStaged,
		Total:    len(norm.DataRows()),
	}
	if len(sess.errors) > 0 {
		sess.progress.Phase = PhaseBlocked
	}

	s.mu.Lock()
	s.imports[sess.ID] = sess
	s.mu.Unlock()
	s.cleanup(sess.ID, s.ttl)

	s.logger.Info("import staged",
		"import_id", sess.ID,
		"file", fileName,
		"rows", len(norm.DataRows()),
		"validation_errors", len(sess.errors))

	return sess.summary(), nil
}

// Get returns the current summary of a session.
func (s *Service) Get(id string) (ImportSummary, error) {
	sess, err := s.session(id)
	if err != nil {
		return ImportSummary{}, err
	}
	return sess.summary(), nil
}

// StripInvalid removes every row with a validation error from the session.
// The removed rows stay available through InvalidRows. A missing email
// column cannot be fixed by removing rows and returns ErrEmailColumnMissing.
func (s *Service) StripInvalid(id string) (ImportSummary, error) {
	sess, err := s.session(id)
	if err != nil {
		return ImportSummary{}, err
	}

	sess.mu.Lock()
	if sess.started {
		sess.mu.Unlock()
		return ImportSummary{}, ErrAlreadyStarted
	}
	if HasFileError(sess.errors) {
		sess.mu.Unlock()
		return ImportSummary{}, ErrEmailColumnMissing
	}

	removed := InvalidRows(sess.matrix, sess.errors)
	if len(sess.rejected) == 0 {
		sess.rejected = removed
	} else {
		sess.rejected = append(sess.rejected, removed.DataRows()...)
	}
	sess.matrix = RemoveInvalidRows(sess.matrix, sess.errors)
	sess.errors = Validate(sess.matrix)
	sess.progress.Total = len(sess.matrix.DataRows())
	if len(sess.errors) == 0 {
		sess.progress.Phase = PhaseStaged
	}
	sess.mu.Unlock()

	s.logger.Info("invalid rows removed", "import_id", id, "removed", len(removed.DataRows()))
	return sess.summary(), nil
}

// InvalidRows returns the header plus the rows that failed validation, for
// export. Rows already removed by StripInvalid are included.
func (s *Service) InvalidRows(id string) (Matrix, error) {
	sess, err := s.session(id)
	if err != nil {
		return nil, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	current := InvalidRows(sess.matrix, sess.errors)
	if len(sess.rejected) <= 1 {
		return current, nil
	}

	out := make(Matrix, 0, len(sess.rejected)+len(current)-1)
	out = append(out, sess.rejected...)
	out = append(out, current.DataRows()...)
	return out, nil
}

// Start launches the batch for a session in the background. It fails with
// ErrValidationBlocked while validation errors remain and with
// ErrTooManyImports when no batch slot frees up in time. The batch itself is
// detached from ctx: once started it runs to completion.
func (s *Service) Start(ctx context.Context, id string) error {
	sess, err := s.session(id)
	if err != nil {
		return err
	}

	sess.mu.Lock()
	switch {
	case sess.started:
		sess.mu.Unlock()
		return ErrAlreadyStarted
	case len(sess.errors) > 0:
		n := len(sess.errors)
		sess.mu.Unlock()
		return fmt.Errorf("%w: %d rows", ErrValidationBlocked, n)
	}
	sess.started = true
	sess.startedAt = time.Now()
	sess.client = ClientFromContext(ctx)
	total := sess.progress.Total
	sess.mu.Unlock()

	if err := s.limiter.Acquire(ctx); err != nil {
		sess.mu.Lock()
		sess.started = false
		sess.mu.Unlock()
		return err
	}

	sess.setProgress(Progress{
		ImportID: sess.ID,
		Phase:    PhaseRunning,
		Total:    total,
		Status:   "Starting import...",
	})

	batchCtx := context.WithoutCancel(ctx)
	go func() {
		defer s.limiter.Release()
		defer func() {
			if r := recover(); r != nil {
				s.logger.Error("panic in import", "import_id", sess.ID, "panic", r)
				err := fmt.Errorf("internal error: %v", r)
				s.recordHistory(batchCtx, newImportRecord(sess, nil, err))
				sess.finish(nil, err)
				s.cleanup(sess.ID, s.ttl)
			}
		}()
		s.process(batchCtx, sess)
	}()

	return nil
}

func (s *Service) process(ctx context.Context, sess *importSession) {
	sess.mu.Lock()
	m := sess.matrix
	sess.mu.Unlock()

	logger := s.logger.With("import_id", sess.ID, "file", sess.FileName)
	runner := NewRunner(s.reconciler, func(p Progress) {
		p.ImportID = sess.ID
		sess.setProgress(p)
	}).WithLogger(logger)

	report, err := runner.Run(ctx, m)
	if err != nil {
		s.recordHistory(ctx, newImportRecord(sess, nil, err))
		sess.finish(nil, err)
	} else {
		s.recordHistory(ctx, newImportRecord(sess, &report, nil))
		sess.finish(&report, nil)
	}
	s.cleanup(sess.ID, s.ttl)
}

// Subscribe returns a channel that receives progress snapshots. The current
// snapshot is sent immediately. The channel is closed when the batch ends
// or when the session expires.
func (s *Service) Subscribe(id string) (<-chan Progress, error) {
	sess, err := s.session(id)
	if err != nil {
		return nil, err
	}

	ch := make(chan Progress, 16)

	sess.ListenerMu.Lock()
	defer sess.ListenerMu.Unlock()

	select {
	case <-sess.Done:
		ch <- sess.currentProgress()
		close(ch)
		return ch, nil
	default:
	}

	sess.Listeners = append(sess.Listeners, ch)
	ch <- sess.currentProgress()
	return ch, nil
}

// Progress returns the current snapshot without blocking.
func (s *Service) Progress(id string) (Progress, error) {
	sess, err := s.session(id)
	if err != nil {
		return Progress{}, err
	}
	return sess.currentProgress(), nil
}

// Report blocks until the batch finishes (or ctx is done) and returns its
// report. A batch aborted by a structural error returns that error.
func (s *Service) Report(ctx context.Context, id string) (*BatchReport, error) {
	sess, err := s.session(id)
	if err != nil {
		return nil, err
	}

	sess.mu.Lock()
	started := sess.started
	sess.mu.Unlock()
	if !started {
		return nil, fmt.Errorf("import %s has not been started", id)
	}

	select {
	case <-sess.Done:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.report, sess.err
}

// LimiterStatus reports batch slot usage.
func (s *Service) LimiterStatus() ImportLimiterStatus {
	return s.limiter.Status()
}

// Shutdown waits for running batches to finish.
func (s *Service) Shutdown(ctx context.Context) error {
	return s.limiter.WaitForDrain(ctx)
}

func (s *Service) session(id string) (*importSession, error) {
	s.mu.RLock()
	sess, ok := s.imports[id]
	s.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrImportNotFound, id)
	}
	sess.touch(s.ttl)
	return sess, nil
}

// cleanup removes the session once it has been idle for the TTL and is not
// running. Active sessions are re-checked later.
func (s *Service) cleanup(id string, delay time.Duration) {
	time.AfterFunc(delay, func() {
		s.mu.RLock()
		sess, ok := s.imports[id]
		s.mu.RUnlock()
		if !ok {
			return
		}

		if remaining, busy := sess.expiry(); busy || remaining > 0 {
			s.cleanup(id, max(remaining, time.Second))
			return
		}

		s.mu.Lock()
		delete(s.imports, id)
		s.mu.Unlock()
		sess.closeListeners()
		s.logger.Debug("import session expired", "import_id", id)
	})
}

func (sess *importSession) touch(ttl time.Duration) {
	sess.mu.Lock()
	sess.expires = time.Now().Add(ttl)
	sess.mu.Unlock()
}

// expiry reports the idle time left and whether a batch is still running.
func (sess *importSession) expiry() (time.Duration, bool) {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	busy := sess.progress.Phase == PhaseRunning
	return time.Until(sess.expires), busy
}

func (sess *importSession) summary() ImportSummary {
	sess.mu.Lock()
	defer sess.mu.Unlock()

	cm := ResolveColumns(sess.matrix.Header())
	removed := 0
	if len(sess.rejected) > 1 {
		removed = len(sess.rejected) - 1
	}
	errs := sess.errors
	if errs == nil {
		errs = []ValidationError{}
	}

	return ImportSummary{
		ID:               sess.ID,
		FileName:         sess.FileName,
		Phase:            sess.progress.Phase,
		Rows:             len(sess.matrix.DataRows()),
		Headers:          sess.matrix.Header(),
		ResolvedColumns:  cm.Len(),
		Unresolved:       cm.Unresolved(),
		ValidationErrors: errs,
		RemovedRows:      removed,
		Progress:         sess.progress,
		CreatedAt:        sess.CreatedAt,
	}
}

func (sess *importSession) currentProgress() Progress {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.progress
}

func (sess *importSession) setProgress(p Progress) {
	sess.mu.Lock()
	sess.progress = p
	sess.mu.Unlock()
	sess.notifyProgress(p)
}

// finish records the batch result, publishes the final snapshot and
// releases every listener.
func (sess *importSession) finish(report *BatchReport, err error) {
	sess.mu.Lock()
	sess.report = report
	sess.err = err
	if err != nil {
		sess.progress.Phase = PhaseFailed
		sess.progress.Error = err.Error()
		sess.progress.Status = "Import failed: " + err.Error()
	} else {
		sess.progress.Phase = PhaseComplete
		sess.progress.Status = report.Summary()
	}
	final := sess.progress
	sess.mu.Unlock()

	sess.notifyProgress(final)

	sess.ListenerMu.Lock()
	for _, ch := range sess.Listeners {
		close(ch)
	}
	sess.Listeners = nil
	close(sess.Done)
	sess.ListenerMu.Unlock()
}

// closeListeners releases subscribers of a session that is being evicted
// without having run.
func (sess *importSession) closeListeners() {
	sess.ListenerMu.Lock()
	defer sess.ListenerMu.Unlock()

	for _, ch := range sess.Listeners {
		close(ch)
	}
	sess.Listeners = nil
}

// notifyProgress sends a snapshot to all listeners.
func (sess *importSession) notifyProgress(p Progress) {
	sess.ListenerMu.Lock()
	defer sess.ListenerMu.Unlock()

	for _, ch := range sess.Listeners {
		select {
		case ch <- p:
		default:
			// Listener is slow, skip this update
		}
	}
}

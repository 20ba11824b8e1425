package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	domain "github.com/mohammadpnp/data-importer/internal/domain/ingest"
	"github.com/mohammadpnp/data-importer/internal/domain/membership"
	"github.com/mohammadpnp/data-importer/internal/metrics"
	"github.com/sirupsen/logrus"
)

// SourceScanner enumerates and opens raw import files, whatever storage
// backs them (local disk or an object store).
type SourceScanner interface {
	Scan(ctx context.Context) ([]domain.DiscoveredFile, error)
	Open(ctx context.Context, path string) (io.ReadCloser, error)
}

type SchedulerConfig struct {
	Interval time.Duration
}

// Scheduler drives the periodic import cycle. At most one cycle runs at a
// time: the try-lock refuses overlapping ticks in-process, and the durable
// claim state in the source-file table covers restarts.
type Scheduler struct {
	scanner SourceScanner
	files   domain.SourceFileRepository
	imports domain.ImportStore
	members membership.Store
	cfg     SchedulerConfig
	logger  *logrus.Logger
	metrics *metrics.ImportMetrics

	cycleMu sync.Mutex

	lastMu sync.RWMutex
	last   *domain.CycleSummary

	once    sync.Once
	baseCtx context.Context
}

func NewScheduler(scanner SourceScanner, files domain.SourceFileRepository, imports domain.ImportStore, members membership.Store, cfg SchedulerConfig, logger *logrus.Logger, m *metrics.ImportMetrics) *Scheduler {
	if cfg.Interval <= 0 {
		cfg.Interval = 60 * time.Second
	}
	if logger == nil {
		logger = logrus.New()
	}
	if m == nil {
		m = metrics.New()
	}

	return &Scheduler{
		scanner: scanner,
		files:   files,
		imports: imports,
		members: members,
		cfg:     cfg,
		logger:  logger,
		metrics: m,
	}
}

func (s *Scheduler) Start(ctx context.Context) {
	s.once.Do(func() {
		s.baseCtx = ctx
		go s.loop(ctx)
	})
}

func (s *Scheduler) loop(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		if _, err := s.RunCycle(ctx); err != nil {
			if errors.Is(err, ErrCycleInProgress) {
				s.logger.Warn("previous import cycle still running, skipping tick")
				continue
			}
			s.logger.Errorf("import cycle: %v", err)
		}
	}
}

// TriggerNow runs a cycle in the background unless one is already in
// flight. The cycle slot is reserved before returning, so a caller that
// got a nil error cannot lose it to a timer tick.
func (s *Scheduler) TriggerNow() error {
	if !s.cycleMu.TryLock() {
		return ErrCycleInProgress
	}

	ctx := s.baseCtx
	if ctx == nil {
		ctx = context.Background()
	}

	go func() {
		defer s.cycleMu.Unlock()
		if _, err := s.runAttempt(ctx); err != nil {
			s.logger.Errorf("manual import cycle: %v", err)
		}
	}()
	return nil
}

// WaitIdle blocks until no cycle is in flight. Used on shutdown so the
// current file can reach a terminal state before the process exits.
func (s *Scheduler) WaitIdle() {
	s.cycleMu.Lock()
	s.cycleMu.Unlock()
}

func (s *Scheduler) LastCycle() (domain.CycleSummary, bool) {
	s.lastMu.RLock()
	defer s.lastMu.RUnlock()

	if s.last == nil {
		return domain.CycleSummary{}, false
	}
	return *s.last, true
}

func (s *Scheduler) RunCycle(ctx context.Context) (domain.CycleSummary, error) {
	if !s.cycleMu.TryLock() {
		return domain.CycleSummary{}, ErrCycleInProgress
	}
	defer s.cycleMu.Unlock()

	return s.runAttempt(ctx)
}

// runAttempt assumes the caller holds cycleMu.
func (s *Scheduler) runAttempt(ctx context.Context) (domain.CycleSummary, error) {
	summary := domain.CycleSummary{StartedAt: time.Now().UTC()}
	err := s.runCycle(ctx, &summary)
	summary.FinishedAt = time.Now().UTC()

	switch {
	case err != nil:
		summary.Status = domain.CycleAborted
	case summary.RecordsRejected > 0 || summary.FilesFailed > 0:
		summary.Status = domain.CycleCompletedWithErrors
	default:
		summary.Status = domain.CycleCompleted
	}

	s.metrics.Cycles.WithLabelValues(string(summary.Status)).Inc()
	s.metrics.RecordsAccepted.Add(float64(summary.RecordsAccepted))
	s.metrics.RecordsRejected.Add(float64(summary.RecordsRejected))

	s.lastMu.Lock()
	s.last = &summary
	s.lastMu.Unlock()

	s.logger.WithFields(logrus.Fields{
		"status":   summary.Status,
		"files":    summary.FilesProcessed,
		"accepted": summary.RecordsAccepted,
		"rejected": summary.RecordsRejected,
	}).Info("import cycle finished")

	return summary, err
}

func (s *Scheduler) runCycle(ctx context.Context, summary *domain.CycleSummary) error {
	// Any file still claimed here was left behind by a crashed run; the
	// single-flight lock guarantees no live cycle holds it.
	recovered, err := s.files.ResetStaleClaims(ctx)
	if err != nil {
		return fmt.Errorf("%w: reset stale claims: %v", domain.ErrStoreUnavailable, err)
	}
	if recovered > 0 {
		s.logger.Warnf("recovered %d file(s) left claimed by a previous run", recovered)
	}

	discovered, err := s.scanner.Scan(ctx)
	if err != nil {
		return fmt.Errorf("scan source locations: %w", err)
	}
	if err := s.files.RegisterDiscovered(ctx, discovered); err != nil {
		return fmt.Errorf("%w: register discovered files: %v", domain.ErrStoreUnavailable, err)
	}

	pending, err := s.files.ListPending(ctx)
	if err != nil {
		return fmt.Errorf("%w: list pending files: %v", domain.ErrStoreUnavailable, err)
	}

	for _, f := range pending {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		// A claimed file always reaches a terminal state, even when the
		// worker is shutting down: cancellation is honored between files
		// only. An abrupt kill is what the stale-claim reset covers.
		fileCtx := context.WithoutCancel(ctx)

		if err := s.files.Claim(fileCtx, f.ID); err != nil {
			if errors.Is(err, domain.ErrAlreadyClaimed) {
				s.logger.Errorf("invariant violation: file %s already claimed, skipping this cycle", f.Path)
				continue
			}
			return fmt.Errorf("%w: claim %s: %v", domain.ErrStoreUnavailable, f.Path, err)
		}

		result, err := s.processFile(fileCtx, f)
		result.Path = f.Path
		summary.FilesProcessed++
		summary.RecordsAccepted += result.Accepted
		summary.RecordsRejected += result.Rejected

		if err != nil {
			if errors.Is(err, domain.ErrFileUnreadable) {
				result.Failed = true
				result.Reason = truncateReason(err.Error())
				summary.FilesFailed++
				summary.Files = append(summary.Files, result)
				s.metrics.FilesFailed.Inc()
				s.logger.Errorf("file %s unreadable: %v", f.Path, err)
				if markErr := s.files.MarkFailed(fileCtx, f.ID, result.Reason); markErr != nil {
					return fmt.Errorf("%w: mark %s failed: %v", domain.ErrStoreUnavailable, f.Path, markErr)
				}
				continue
			}
			// Store-level failure: abort the cycle. Files already consumed
			// stay consumed, the rest stay pending for the next tick, and
			// this file's claim is released by the next cycle's recovery.
			summary.Files = append(summary.Files, result)
			return err
		}

		if err := s.files.MarkConsumed(fileCtx, f.ID); err != nil {
			return fmt.Errorf("%w: mark %s consumed: %v", domain.ErrStoreUnavailable, f.Path, err)
		}
		summary.Files = append(summary.Files, result)
		s.metrics.FilesConsumed.Inc()
	}

	return nil
}

func (s *Scheduler) processFile(ctx context.Context, f domain.SourceFile) (domain.FileResult, error) {
	var result domain.FileResult

	reader, err := s.scanner.Open(ctx, f.Path)
	if err != nil {
		return result, fmt.Errorf("%w: open: %v", domain.ErrFileUnreadable, err)
	}
	defer reader.Close()

	dec := json.NewDecoder(reader)

	token, err := dec.Token()
	if err != nil {
		return result, fmt.Errorf("%w: read start token: %v", domain.ErrFileUnreadable, err)
	}
	if delim, ok := token.(json.Delim); !ok || delim != '[' {
		return result, fmt.Errorf("%w: payload must be a JSON array", domain.ErrFileUnreadable)
	}

	for dec.More() {
		var raw RawRecord
		if err := dec.Decode(&raw); err != nil {
			return result, fmt.Errorf("%w: decode record: %v", domain.ErrFileUnreadable, err)
		}

		mapped, err := MapRecord(f.ID, raw, time.Now().UTC())
		if err != nil {
			result.Rejected++
			s.logger.Debugf("file %s: %v", f.Path, err)
			continue
		}

		if err := s.applyRecord(ctx, mapped); err != nil {
			if isRecordRejection(err) {
				result.Rejected++
				s.logger.Debugf("file %s: %v", f.Path, err)
				continue
			}
			return result, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
		}
		result.Accepted++
	}

	if _, err := dec.Token(); err != nil {
		return result, fmt.Errorf("%w: read end token: %v", domain.ErrFileUnreadable, err)
	}

	return result, nil
}

func (s *Scheduler) applyRecord(ctx context.Context, mapped MappedRecord) error {
	switch mapped.Kind {
	case KindContact:
		if _, err := s.imports.Upsert(ctx, mapped.Record); err != nil {
			return fmt.Errorf("upsert record: %w", err)
		}
		return nil
	case KindMembership:
		if _, err := s.members.ApplyMembership(ctx, mapped.Principal, mapped.Groups); err != nil {
			return fmt.Errorf("apply membership: %w", err)
		}
		return nil
	case KindDeactivation:
		if err := s.members.Deactivate(ctx, mapped.ExternalID); err != nil {
			return fmt.Errorf("deactivate %s: %w", mapped.ExternalID, err)
		}
		return nil
	default:
		return fmt.Errorf("unhandled record kind %d", mapped.Kind)
	}
}

// Conflicts and unknown principals are properties of the record, not of
// the store connection. They count as rejections; the abort path is
// reserved for failures the next cycle might not hit again.
func isRecordRejection(err error) bool {
	return errors.Is(err, domain.ErrRecordConflict) ||
		errors.Is(err, membership.ErrUnknownPrincipal) ||
		errors.Is(err, membership.ErrConflictingIdentity)
}

func truncateReason(reason string) string {
	const maxLen = 1000
	reason = strings.TrimSpace(reason)
	if len(reason) <= maxLen {
		return reason
	}
	return reason[:maxLen]
}

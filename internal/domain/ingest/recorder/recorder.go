// Package recorder commits transaction candidates while enforcing the
// duplicate-suppression policy: a capture from a source is dropped when
// the same source already produced one inside the trailing window,
// because near-simultaneous notifications usually describe the same
// real-world event.
//
// The check-window-then-insert sequence must not race with itself for a
// single source, so the recorder serializes writes per source key. Keys
// are independent; unrelated sources never wait on each other.
package recorder

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/avast/retry-go"

	"github.com/dinarko/dinarko/internal/domain/common"
	"github.com/dinarko/dinarko/internal/domain/ingest/repository"
	"github.com/dinarko/dinarko/pkg/observability"
)

const (
	// DefaultWindow is the trailing dedup interval.
	DefaultWindow = 5 * time.Minute

	// windowQueryLimit bounds the window query; one prior capture is
	// already enough to suppress.
	windowQueryLimit = 5
)

// Recorder serializes the dedup check and insert per source.
type Recorder struct {
	repo   repository.CandidateRepository
	window time.Duration
	logger *slog.Logger

	mu      sync.Mutex
	sources map[string]*sync.Mutex
}

// New creates a recorder. A non-positive window falls back to
// DefaultWindow.
func New(repo repository.CandidateRepository, window time.Duration, logger *slog.Logger) *Recorder {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Recorder{
		repo:    repo,
		window:  window,
		logger:  logger,
		sources: make(map[string]*sync.Mutex),
	}
}

// Window returns the configured dedup window.
func (r *Recorder) Window() time.Duration {
	return r.window
}

// Record commits the candidate unless the dedup window already holds a
// capture from the same source, in which case it returns
// common.ErrDuplicate. Transient insert failures are retried.
//
// The baseline policy compares sources only. Amounts and descriptions
// are not consulted, so two genuinely distinct purchases within the
// window are also suppressed. Making dedup amount-aware is a product
// decision, not a bug fix.
func (r *Recorder) Record(ctx context.Context, c *repository.TransactionCandidate) error {
	lock := r.sourceLock(c.SourceApp)
	lock.Lock()
	defer lock.Unlock()

	since := c.CapturedAt.Add(-r.window)
	prior, err := r.repo.RecentBySource(ctx, c.SourceApp, since, windowQueryLimit)
	if err != nil {
		return fmt.Errorf("dedup window query failed: %w", err)
	}

	if hasCaptureInWindow(prior, since, c.CapturedAt) {
		observability.CapturesSuppressed.Inc()
		r.logger.Debug("duplicate capture suppressed",
			"source", c.SourceApp, "captured_at", c.CapturedAt)
		return common.ErrDuplicate
	}

	err = retry.Do(
		func() error { return r.repo.Insert(ctx, c) },
		retry.Attempts(3),
		retry.Delay(50*time.Millisecond),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool { return ctx.Err() == nil }),
	)
	if err != nil {
		return fmt.Errorf("failed to record candidate: %w", err)
	}

	observability.CapturesRecorded.WithLabelValues(c.Type).Inc()
	return nil
}

// hasCaptureInWindow applies the half-open interval [since, now): the
// lower bound is inclusive, captures at or after now don't count.
func hasCaptureInWindow(prior []*repository.TransactionCandidate, since, now time.Time) bool {
	for _, p := range prior {
		if !p.CapturedAt.Before(since) && p.CapturedAt.Before(now) {
			return true
		}
	}
	return false
}

// sourceLock returns the mutex for one source, creating it on first
// use. Entries are never evicted: the source population is the intake
// whitelist, a handful of banking apps, so the map stays small for the
// process lifetime.
func (r *Recorder) sourceLock(sourceApp string) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()
	lock, ok := r.sources[sourceApp]
	if !ok {
		lock = &sync.Mutex{}
		r.sources[sourceApp] = lock
	}
	return lock
}

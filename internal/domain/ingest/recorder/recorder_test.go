package recorder

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/dinarko/dinarko/internal/domain/common"
	"github.com/dinarko/dinarko/internal/domain/ingest/repository"
)

type fakeCandidateRepo struct {
	mu          sync.Mutex
	inserted    []*repository.TransactionCandidate
	failFirst   int // number of Insert calls to fail before succeeding
	inFlight    int
	maxInFlight int
}

func (f *fakeCandidateRepo) enter() {
	f.mu.Lock()
	f.inFlight++
	if f.inFlight > f.maxInFlight {
		f.maxInFlight = f.inFlight
	}
	f.mu.Unlock()
}

func (f *fakeCandidateRepo) leave() {
	f.mu.Lock()
	f.inFlight--
	f.mu.Unlock()
}

func (f *fakeCandidateRepo) Insert(ctx context.Context, c *repository.TransactionCandidate) error {
	f.enter()
	defer f.leave()
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failFirst > 0 {
		f.failFirst--
		return errors.New("transient failure")
	}
	stored := *c
	f.inserted = append(f.inserted, &stored)
	return nil
}

func (f *fakeCandidateRepo) RecentBySource(ctx context.Context, sourceApp string, since time.Time, limit int) ([]*repository.TransactionCandidate, error) {
	f.enter()
	defer f.leave()
	// Give overlapping callers a chance to be observed.
	time.Sleep(time.Millisecond)
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*repository.TransactionCandidate
	for i := len(f.inserted) - 1; i >= 0 && len(out) < limit; i-- {
		c := f.inserted[i]
		if c.SourceApp == sourceApp && !c.CapturedAt.Before(since) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeCandidateRepo) SpentSince(ctx context.Context, since time.Time) (float64, error) {
	return 0, nil
}

func (f *fakeCandidateRepo) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.inserted)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func candidate(source string, at time.Time) *repository.TransactionCandidate {
	return &repository.TransactionCandidate{
		Type:       "expense",
		Amount:     500,
		Category:   "other",
		SourceApp:  source,
		CapturedAt: at,
	}
}

func TestRecord_FirstCaptureCommits(t *testing.T) {
	repo := &fakeCandidateRepo{}
	rec := New(repo, 5*time.Minute, testLogger())

	if err := rec.Record(context.Background(), candidate("rs.banka.app", time.Now())); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if repo.count() != 1 {
		t.Fatalf("expected 1 insert, got %d", repo.count())
	}
}

func TestRecord_SuppressesWithinWindow(t *testing.T) {
	repo := &fakeCandidateRepo{}
	rec := New(repo, 5*time.Minute, testLogger())
	now := time.Now()

	if err := rec.Record(context.Background(), candidate("rs.banka.app", now)); err != nil {
		t.Fatalf("first Record: %v", err)
	}

	err := rec.Record(context.Background(), candidate("rs.banka.app", now.Add(200*time.Millisecond)))
	if !errors.Is(err, common.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
	if repo.count() != 1 {
		t.Fatalf("expected duplicate to be dropped, got %d inserts", repo.count())
	}

	// A different source is unaffected.
	if err := rec.Record(context.Background(), candidate("rs.druga.banka", now)); err != nil {
		t.Fatalf("other source Record: %v", err)
	}
	if repo.count() != 2 {
		t.Fatalf("expected 2 inserts, got %d", repo.count())
	}
}

// The window lower bound is inclusive: a capture exactly at now−W is a
// duplicate, one millisecond older is not.
func TestRecord_WindowInclusivity(t *testing.T) {
	window := 5 * time.Minute
	now := time.Now()

	t.Run("capture exactly at now minus W suppresses", func(t *testing.T) {
		repo := &fakeCandidateRepo{}
		rec := New(repo, window, testLogger())
		if err := rec.Record(context.Background(), candidate("rs.banka.app", now.Add(-window))); err != nil {
			t.Fatalf("seed Record: %v", err)
		}
		err := rec.Record(context.Background(), candidate("rs.banka.app", now))
		if !errors.Is(err, common.ErrDuplicate) {
			t.Fatalf("expected ErrDuplicate for boundary capture, got %v", err)
		}
	})

	t.Run("capture just outside window commits", func(t *testing.T) {
		repo := &fakeCandidateRepo{}
		rec := New(repo, window, testLogger())
		if err := rec.Record(context.Background(), candidate("rs.banka.app", now.Add(-window-time.Millisecond))); err != nil {
			t.Fatalf("seed Record: %v", err)
		}
		if err := rec.Record(context.Background(), candidate("rs.banka.app", now)); err != nil {
			t.Fatalf("expected commit for capture outside window, got %v", err)
		}
		if repo.count() != 2 {
			t.Fatalf("expected 2 inserts, got %d", repo.count())
		}
	})
}

// Records for one source run one at a time, so near-simultaneous
// captures behind an existing one all resolve to duplicates.
func TestRecord_ConcurrentSameSource(t *testing.T) {
	repo := &fakeCandidateRepo{}
	rec := New(repo, 5*time.Minute, testLogger())
	now := time.Now()

	if err := rec.Record(context.Background(), candidate("rs.banka.app", now.Add(-time.Second))); err != nil {
		t.Fatalf("seed Record: %v", err)
	}

	const racers = 8
	var wg sync.WaitGroup
	errs := make([]error, racers)
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = rec.Record(context.Background(), candidate("rs.banka.app", now.Add(time.Duration(i)*time.Millisecond)))
		}(i)
	}
	wg.Wait()

	if repo.count() != 1 {
		t.Fatalf("expected only the seed insert, got %d", repo.count())
	}
	for i, err := range errs {
		if !errors.Is(err, common.ErrDuplicate) {
			t.Fatalf("racer %d: expected ErrDuplicate, got %v", i, err)
		}
	}
	if repo.maxInFlight > 1 {
		t.Fatalf("repository saw %d overlapping calls for one source", repo.maxInFlight)
	}
}

func TestRecord_RetriesTransientInsert(t *testing.T) {
	repo := &fakeCandidateRepo{failFirst: 2}
	rec := New(repo, 5*time.Minute, testLogger())

	if err := rec.Record(context.Background(), candidate("rs.banka.app", time.Now())); err != nil {
		t.Fatalf("Record should succeed after retries: %v", err)
	}
	if repo.count() != 1 {
		t.Fatalf("expected 1 insert, got %d", repo.count())
	}
}

func TestNew_DefaultWindow(t *testing.T) {
	rec := New(&fakeCandidateRepo{}, 0, testLogger())
	if rec.Window() != DefaultWindow {
		t.Errorf("Window = %v, want %v", rec.Window(), DefaultWindow)
	}
}

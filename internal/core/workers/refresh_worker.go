package workers

import (
	"context"
	"errors"
	"log"
	"sync"

	"github.com/grepguru/zenlock-engine/internal/core/domain"
)

// StatsRefresher recomputes and caches one period's rollup.
type StatsRefresher interface {
	RefreshDaily(ctx context.Context, dateKey string) (*domain.DailyStats, error)
	RefreshWeekly(ctx context.Context, weekKey string) (*domain.WeeklyStats, error)
	RefreshMonthly(ctx context.Context, monthKey string) (*domain.MonthlyStats, error)
}

// RefreshJob names the period buckets touched by one session write.
type RefreshJob struct {
	DateKey  string
	WeekKey  string
	MonthKey string
}

// RefreshWorker keeps the rollup tables continuously updated: session
// writes enqueue the affected period keys and the worker recomputes them
// off the request path. A single worker goroutine is the only async writer
// of stats rows, so upserts for one key can never interleave stale data.
type RefreshWorker struct {
	stats StatsRefresher
	jobs  chan RefreshJob

	mu      sync.Mutex
	pending map[RefreshJob]bool
}

func NewRefreshWorker(stats StatsRefresher) *RefreshWorker {
	return &RefreshWorker{
		stats:   stats,
		jobs:    make(chan RefreshJob, 100),
		pending: make(map[RefreshJob]bool),
	}
}

func (w *RefreshWorker) Start(ctx context.Context) {
	go func() {
		log.Println("Refresh Worker started in background...")
		for {
			select {
			case job := <-w.jobs:
				w.mu.Lock()
				delete(w.pending, job)
				w.mu.Unlock()
				w.processJob(ctx, job)
			case <-ctx.Done():
				log.Println("Refresh Worker shutting down...")
				return
			}
		}
	}()
}

// Enqueue schedules a rollup refresh. A job already sitting in the queue
// for the same keys is coalesced; a full queue drops the job since the
// next write for the period will schedule it again.
func (w *RefreshWorker) Enqueue(job RefreshJob) {
	w.mu.Lock()
	if w.pending[job] {
		w.mu.Unlock()
		return
	}
	w.pending[job] = true
	w.mu.Unlock()

	select {
	case w.jobs <- job:
	default:
		w.mu.Lock()
		delete(w.pending, job)
		w.mu.Unlock()
		log.Printf("Refresh Worker queue full! Dropping job for %s", job.DateKey)
	}
}

func (w *RefreshWorker) processJob(ctx context.Context, job RefreshJob) {
	if job.DateKey != "" {
		if _, err := w.stats.RefreshDaily(ctx, job.DateKey); err != nil && !errors.Is(err, domain.ErrNoSessions) {
			log.Printf("Worker Error refreshing daily stats for %s: %v", job.DateKey, err)
		}
	}
	if job.WeekKey != "" {
		if _, err := w.stats.RefreshWeekly(ctx, job.WeekKey); err != nil && !errors.Is(err, domain.ErrNoSessions) {
			log.Printf("Worker Error refreshing weekly stats for %s: %v", job.WeekKey, err)
		}
	}
	if job.MonthKey != "" {
		if _, err := w.stats.RefreshMonthly(ctx, job.MonthKey); err != nil && !errors.Is(err, domain.ErrNoSessions) {
			log.Printf("Worker Error refreshing monthly stats for %s: %v", job.MonthKey, err)
		}
	}
}

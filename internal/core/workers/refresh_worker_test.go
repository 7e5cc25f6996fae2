package workers_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/grepguru/zenlock-engine/internal/core/domain"
	"github.com/grepguru/zenlock-engine/internal/core/workers"
)

type recordingRefresher struct {
	mu      sync.Mutex
	daily   []string
	weekly  []string
	monthly []string
}

func (r *recordingRefresher) RefreshDaily(ctx context.Context, key string) (*domain.DailyStats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.daily = append(r.daily, key)
	return &domain.DailyStats{Date: key}, nil
}

func (r *recordingRefresher) RefreshWeekly(ctx context.Context, key string) (*domain.WeeklyStats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.weekly = append(r.weekly, key)
	return nil, domain.ErrNoSessions
}

func (r *recordingRefresher) RefreshMonthly(ctx context.Context, key string) (*domain.MonthlyStats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.monthly = append(r.monthly, key)
	return &domain.MonthlyStats{MonthKey: key}, nil
}

func (r *recordingRefresher) counts() (int, int, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.daily), len(r.weekly), len(r.monthly)
}

func TestRefreshWorker_ProcessesAllBuckets(t *testing.T) {
	refresher := &recordingRefresher{}
	w := workers.NewRefreshWorker(refresher)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w.Start(ctx)

	w.Enqueue(workers.RefreshJob{DateKey: "2024-01-01", WeekKey: "2024-W01", MonthKey: "2024-01"})

	assert.Eventually(t, func() bool {
		d, wk, m := refresher.counts()
		return d == 1 && wk == 1 && m == 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestRefreshWorker_CoalescesPendingDuplicates(t *testing.T) {
	refresher := &recordingRefresher{}
	w := workers.NewRefreshWorker(refresher)

	job := workers.RefreshJob{DateKey: "2024-01-01", WeekKey: "2024-W01", MonthKey: "2024-01"}

	// Queue before starting the worker: duplicates must collapse into one.
	w.Enqueue(job)
	w.Enqueue(job)
	w.Enqueue(job)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w.Start(ctx)

	assert.Eventually(t, func() bool {
		d, _, _ := refresher.counts()
		return d >= 1
	}, 2*time.Second, 10*time.Millisecond)

	time.Sleep(50 * time.Millisecond)
	d, wk, m := refresher.counts()
	assert.Equal(t, 1, d)
	assert.Equal(t, 1, wk)
	assert.Equal(t, 1, m)
}

func TestRefreshWorker_EmptyKeysSkipped(t *testing.T) {
	refresher := &recordingRefresher{}
	w := workers.NewRefreshWorker(refresher)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w.Start(ctx)

	w.Enqueue(workers.RefreshJob{DateKey: "2024-01-02"})

	assert.Eventually(t, func() bool {
		d, _, _ := refresher.counts()
		return d == 1
	}, 2*time.Second, 10*time.Millisecond)

	_, wk, m := refresher.counts()
	assert.Zero(t, wk)
	assert.Zero(t, m)
}

package services_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grepguru/zenlock-engine/internal/adapters/repository"
	"github.com/grepguru/zenlock-engine/internal/core/domain"
	"github.com/grepguru/zenlock-engine/internal/core/services"
	"github.com/grepguru/zenlock-engine/internal/core/workers"
)

// fakeNotifier records every table published after a committed write.
type fakeNotifier struct {
	mu     sync.Mutex
	tables []domain.Table
}

func (f *fakeNotifier) Publish(tables ...domain.Table) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tables = append(f.tables, tables...)
}

func (f *fakeNotifier) published(table domain.Table) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.tables {
		if t == table {
			return true
		}
	}
	return false
}

// signalRefresher counts refresh calls per bucket and signals on each one.
type signalRefresher struct {
	mu     sync.Mutex
	daily  []string
	weekly []string
	month  []string
	calls  chan struct{}
}

func newSignalRefresher() *signalRefresher {
	return &signalRefresher{calls: make(chan struct{}, 16)}
}

func (r *signalRefresher) RefreshDaily(ctx context.Context, dateKey string) (*domain.DailyStats, error) {
	r.mu.Lock()
	r.daily = append(r.daily, dateKey)
	r.mu.Unlock()
	r.calls <- struct{}{}
	return &domain.DailyStats{Date: dateKey}, nil
}

func (r *signalRefresher) RefreshWeekly(ctx context.Context, weekKey string) (*domain.WeeklyStats, error) {
	r.mu.Lock()
	r.weekly = append(r.weekly, weekKey)
	r.mu.Unlock()
	r.calls <- struct{}{}
	return &domain.WeeklyStats{WeekKey: weekKey}, nil
}

func (r *signalRefresher) RefreshMonthly(ctx context.Context, monthKey string) (*domain.MonthlyStats, error) {
	r.mu.Lock()
	r.month = append(r.month, monthKey)
	r.mu.Unlock()
	r.calls <- struct{}{}
	return &domain.MonthlyStats{MonthKey: monthKey}, nil
}

func (r *signalRefresher) wait(t *testing.T, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		select {
		case <-r.calls:
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for refresh call %d of %d", i+1, n)
		}
	}
}

func insertInput(start time.Time) services.InsertSessionInput {
	return services.InsertSessionInput{
		StartTime:      start,
		EndTime:        start.Add(25 * time.Minute),
		TargetDuration: 1500,
		ActualDuration: 1500,
		Completed:      true,
		Source:         domain.SourceManual,
		FocusScore:     0.8,
	}
}

func TestSessionService_InsertRoundTrip(t *testing.T) {
	repo := repository.NewInMemorySessionRepository()
	notifier := &fakeNotifier{}
	svc := services.NewSessionService(repo, nil, notifier)
	ctx := context.Background()

	start := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	input := insertInput(start)
	input.Usage = []services.UsageInput{
		{PackageName: "com.example.notes", AppName: "Notes", UsageTime: 300, IsWhitelisted: true},
	}

	session, err := svc.InsertSessionWithUsage(ctx, input)
	require.NoError(t, err)
	require.NotEmpty(t, session.ID)

	fetched, err := svc.GetSession(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, "2024-01-01", fetched.DateKey())
	assert.True(t, fetched.Completed)

	usage, err := svc.SessionUsage(ctx, session.ID)
	require.NoError(t, err)
	require.Len(t, usage, 1)
	assert.Equal(t, session.ID, usage[0].SessionID)

	assert.True(t, notifier.published(domain.TableSessions))
	assert.True(t, notifier.published(domain.TableAppUsage))
}

func TestSessionService_RejectsMismatchedUsage(t *testing.T) {
	repo := repository.NewInMemorySessionRepository()
	svc := services.NewSessionService(repo, nil, nil)
	ctx := context.Background()

	input := insertInput(time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC))
	input.Usage = []services.UsageInput{
		{SessionID: "someone-else", PackageName: "com.example.notes", UsageTime: 300},
	}

	_, err := svc.InsertSessionWithUsage(ctx, input)
	assert.ErrorIs(t, err, domain.ErrUsageSessionMismatch)

	// Nothing may have been stored.
	count, err := repo.CountAll(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestSessionService_StartAndFinalize(t *testing.T) {
	repo := repository.NewInMemorySessionRepository()
	svc := services.NewSessionService(repo, nil, nil)
	ctx := context.Background()

	start := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	session, err := svc.StartSession(ctx, services.StartSessionInput{
		StartTime:      start,
		TargetDuration: 1500,
		Source:         domain.SourceManual,
	})
	require.NoError(t, err)
	assert.True(t, session.Open())

	final, err := svc.FinalizeSession(ctx, services.FinalizeSessionInput{
		ID:             session.ID,
		EndTime:        start.Add(20 * time.Minute),
		ActualDuration: 1200,
		Completed:      false,
		FocusScore:     0.5,
		Usage: []services.UsageInput{
			{PackageName: "com.example.chat", UsageTime: 90},
		},
	})
	require.NoError(t, err)
	assert.False(t, final.Open())
	assert.True(t, final.Interrupted())

	// The finalize mutation is single-shot.
	_, err = svc.FinalizeSession(ctx, services.FinalizeSessionInput{
		ID:      session.ID,
		EndTime: start.Add(30 * time.Minute),
	})
	assert.ErrorIs(t, err, domain.ErrSessionFinalized)
}

func TestSessionService_WriteTriggersRefresh(t *testing.T) {
	repo := repository.NewInMemorySessionRepository()
	refresher := newSignalRefresher()
	worker := workers.NewRefreshWorker(refresher)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	worker.Start(ctx)

	svc := services.NewSessionService(repo, worker, nil)

	_, err := svc.InsertSessionWithUsage(ctx, insertInput(time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)))
	require.NoError(t, err)

	refresher.wait(t, 3)

	refresher.mu.Lock()
	defer refresher.mu.Unlock()
	assert.Equal(t, []string{"2024-01-01"}, refresher.daily)
	assert.Equal(t, []string{"2024-W01"}, refresher.weekly)
	assert.Equal(t, []string{"2024-01"}, refresher.month)
}

func TestSessionService_RecentLimitClamped(t *testing.T) {
	repo := repository.NewInMemorySessionRepository()
	svc := services.NewSessionService(repo, nil, nil)
	ctx := context.Background()

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 15; i++ {
		_, err := svc.InsertSessionWithUsage(ctx, insertInput(base.Add(time.Duration(i)*time.Hour)))
		require.NoError(t, err)
	}

	recent, err := svc.RecentSessions(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, recent, services.DefaultRecentLimit)

	// Newest first.
	assert.True(t, recent[0].StartTime.After(recent[1].StartTime))
}

func TestSessionService_RangeValidation(t *testing.T) {
	svc := services.NewSessionService(repository.NewInMemorySessionRepository(), nil, nil)
	ctx := context.Background()

	now := time.Now().UTC()
	_, err := svc.SessionsForRange(ctx, now, now)
	assert.ErrorIs(t, err, domain.ErrInvalidSessionWindow)

	_, err = svc.SessionsForDate(ctx, "01-01-2024")
	assert.ErrorIs(t, err, domain.ErrInvalidPeriodKey)
}

func TestSessionService_Overview(t *testing.T) {
	repo := repository.NewInMemorySessionRepository()
	svc := services.NewSessionService(repo, nil, nil)
	ctx := context.Background()

	overview, err := svc.GetOverview(ctx)
	require.NoError(t, err)
	assert.Zero(t, overview.TotalSessions)
	assert.Nil(t, overview.LastSessionTime)

	_, err = svc.InsertSessionWithUsage(ctx, insertInput(time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)))
	require.NoError(t, err)
	_, err = svc.InsertSessionWithUsage(ctx, insertInput(time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC)))
	require.NoError(t, err)

	overview, err = svc.GetOverview(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, overview.TotalSessions)
	assert.Equal(t, int64(3000), overview.TotalFocusTime)
	assert.Equal(t, 2, overview.ActiveDays)
	require.NotNil(t, overview.LastSessionTime)
	assert.Equal(t, time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC), overview.LastSessionTime.UTC())
}

func TestSessionService_FocusTimeForRange(t *testing.T) {
	repo := repository.NewInMemorySessionRepository()
	svc := services.NewSessionService(repo, nil, nil)
	ctx := context.Background()

	_, err := svc.InsertSessionWithUsage(ctx, insertInput(time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)))
	require.NoError(t, err)
	_, err = svc.InsertSessionWithUsage(ctx, insertInput(time.Date(2024, 1, 5, 9, 0, 0, 0, time.UTC)))
	require.NoError(t, err)

	// Only the first session starts inside the range.
	total, err := svc.FocusTimeForRange(ctx,
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, int64(1500), total)

	_, err = svc.FocusTimeForRange(ctx,
		time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	assert.ErrorIs(t, err, domain.ErrInvalidSessionWindow)
}

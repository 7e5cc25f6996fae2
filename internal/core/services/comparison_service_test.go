package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grepguru/zenlock-engine/internal/adapters/repository"
	"github.com/grepguru/zenlock-engine/internal/core/domain"
	"github.com/grepguru/zenlock-engine/internal/core/services"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestComparisonService_Keys(t *testing.T) {
	stats := repository.NewInMemoryStatsRepository()

	t.Run("Mid Month", func(t *testing.T) {
		svc := services.NewComparisonService(stats).
			WithClock(fixedClock(time.Date(2024, 9, 12, 15, 0, 0, 0, time.UTC)))

		assert.Equal(t, "2024-09-11", svc.YesterdayKey())
		assert.Equal(t, "2024-W36", svc.LastWeekKey())
		assert.Equal(t, "2024-08", svc.LastMonthKey())
	})

	t.Run("Year Rollover", func(t *testing.T) {
		svc := services.NewComparisonService(stats).
			WithClock(fixedClock(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)))

		assert.Equal(t, "2024-12-31", svc.YesterdayKey())
		// 2025-01-01 falls in 2025-W01, so last week is the final week of 2024.
		assert.Equal(t, "2024-W52", svc.LastWeekKey())
		assert.Equal(t, "2024-12", svc.LastMonthKey())
	})
}

func TestComparisonService_ReadsCachedRowsOnly(t *testing.T) {
	stats := repository.NewInMemoryStatsRepository()
	svc := services.NewComparisonService(stats).
		WithClock(fixedClock(time.Date(2024, 9, 12, 15, 0, 0, 0, time.UTC)))
	ctx := context.Background()

	// No cached rollup means absent, never a zero row.
	_, err := svc.Yesterday(ctx)
	assert.ErrorIs(t, err, domain.ErrStatsNotFound)

	require.NoError(t, stats.UpsertDaily(ctx, &domain.DailyStats{
		Date:           "2024-09-11",
		TotalSessions:  3,
		TotalFocusTime: 5400,
	}))
	require.NoError(t, stats.UpsertWeekly(ctx, &domain.WeeklyStats{
		WeekKey:       "2024-W36",
		TotalSessions: 9,
	}))
	require.NoError(t, stats.UpsertMonthly(ctx, &domain.MonthlyStats{
		MonthKey:      "2024-08",
		TotalSessions: 40,
	}))

	yesterday, err := svc.Yesterday(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, yesterday.TotalSessions)

	lastWeek, err := svc.LastWeek(ctx)
	require.NoError(t, err)
	assert.Equal(t, 9, lastWeek.TotalSessions)

	lastMonth, err := svc.LastMonth(ctx)
	require.NoError(t, err)
	assert.Equal(t, 40, lastMonth.TotalSessions)
}

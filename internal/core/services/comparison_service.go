package services

import (
	"context"
	"time"

	"github.com/grepguru/zenlock-engine/internal/core/domain"
)

// ComparisonService resolves relative period keys (yesterday, last week,
// last month) and looks up their cached rollups for trend display. It
// never recomputes: a miss is reported as ErrStatsNotFound together with
// the resolved key so the caller can trigger an explicit refresh.
type ComparisonService struct {
	stats domain.StatsRepository
	now   func() time.Time
}

func NewComparisonService(stats domain.StatsRepository) *ComparisonService {
	return &ComparisonService{
		stats: stats,
		now:   time.Now,
	}
}

// WithClock overrides the time source, for tests and replays.
func (s *ComparisonService) WithClock(now func() time.Time) *ComparisonService {
	s.now = now
	return s
}

func (s *ComparisonService) YesterdayKey() string {
	return domain.DateKeyOf(s.now().UTC().AddDate(0, 0, -1))
}

// LastWeekKey decrements the current ISO week, rolling the year over when
// needed.
func (s *ComparisonService) LastWeekKey() string {
	key, _ := domain.PreviousWeekKey(domain.WeekKeyOf(s.now()))
	return key
}

func (s *ComparisonService) LastMonthKey() string {
	key, _ := domain.PreviousMonthKey(domain.MonthKeyOf(s.now()))
	return key
}

func (s *ComparisonService) Yesterday(ctx context.Context) (*domain.DailyStats, error) {
	return s.stats.GetDaily(ctx, s.YesterdayKey())
}

func (s *ComparisonService) LastWeek(ctx context.Context) (*domain.WeeklyStats, error) {
	return s.stats.GetWeekly(ctx, s.LastWeekKey())
}

func (s *ComparisonService) LastMonth(ctx context.Context) (*domain.MonthlyStats, error) {
	return s.stats.GetMonthly(ctx, s.LastMonthKey())
}

package services

import (
	"context"

	"github.com/grepguru/zenlock-engine/internal/core/domain"
)

// StatsService is the period aggregator: it derives rollup rows from the
// raw session log with explicit calendar arithmetic and caches them with
// replace-by-key upserts. Computing the same unchanged period twice yields
// an identical persisted row.
type StatsService struct {
	sessions domain.SessionRepository
	stats    domain.StatsRepository
	notifier ChangePublisher
}

func NewStatsService(sessions domain.SessionRepository, stats domain.StatsRepository, notifier ChangePublisher) *StatsService {
	return &StatsService{
		sessions: sessions,
		stats:    stats,
		notifier: notifier,
	}
}

// finalized drops sessions still in their open transient state: a session
// contributes to rollups only once finalized.
func finalized(sessions []*domain.Session) []*domain.Session {
	out := sessions[:0]
	for _, s := range sessions {
		if !s.Open() {
			out = append(out, s)
		}
	}
	return out
}

func (s *StatsService) whitelistedTime(ctx context.Context, sessions []*domain.Session) (int64, error) {
	ids := make([]string, len(sessions))
	for i, sess := range sessions {
		ids[i] = sess.ID
	}
	usage, err := s.sessions.ListUsageForSessions(ctx, ids)
	if err != nil {
		return 0, err
	}
	var total int64
	for _, u := range usage {
		if u.IsWhitelisted {
			total += u.UsageTime
		}
	}
	return total, nil
}

// ComputeDaily aggregates one date bucket. An empty period returns
// ErrNoSessions: "no data yet" is distinct from a computed all-zero row.
func (s *StatsService) ComputeDaily(ctx context.Context, dateKey string) (*domain.DailyStats, error) {
	if err := domain.ValidateDateKey(dateKey); err != nil {
		return nil, err
	}

	rows, err := s.sessions.ListForDate(ctx, dateKey)
	if err != nil {
		return nil, err
	}
	rows = finalized(rows)
	if len(rows) == 0 {
		return nil, domain.ErrNoSessions
	}

	stats := &domain.DailyStats{Date: dateKey}
	var scoreSum float64
	for _, sess := range rows {
		stats.TotalSessions++
		stats.TotalFocusTime += sess.ActualDuration
		scoreSum += sess.FocusScore
		if sess.Completed {
			stats.CompletedSessions++
		} else {
			stats.InterruptedSessions++
		}
	}
	stats.AvgFocusScore = scoreSum / float64(stats.TotalSessions)

	if stats.TotalWhitelistedTime, err = s.whitelistedTime(ctx, rows); err != nil {
		return nil, err
	}
	return stats, nil
}

// RefreshDaily computes and caches a date bucket. No cached row is written
// for an empty period.
func (s *StatsService) RefreshDaily(ctx context.Context, dateKey string) (*domain.DailyStats, error) {
	stats, err := s.ComputeDaily(ctx, dateKey)
	if err != nil {
		return nil, err
	}
	if err := s.stats.UpsertDaily(ctx, stats); err != nil {
		return nil, err
	}
	if s.notifier != nil {
		s.notifier.Publish(domain.TableDailyStats)
	}
	return stats, nil
}

func (s *StatsService) GetDaily(ctx context.Context, dateKey string) (*domain.DailyStats, error) {
	if err := domain.ValidateDateKey(dateKey); err != nil {
		return nil, err
	}
	return s.stats.GetDaily(ctx, dateKey)
}

func (s *StatsService) ListDailyRange(ctx context.Context, startDate, endDate string) ([]*domain.DailyStats, error) {
	if err := domain.ValidateDateKey(startDate); err != nil {
		return nil, err
	}
	if err := domain.ValidateDateKey(endDate); err != nil {
		return nil, err
	}
	if startDate > endDate {
		return nil, domain.ErrInvalidPeriodKey
	}
	return s.stats.ListDailyRange(ctx, startDate, endDate)
}

// ComputeWeekly aggregates one ISO week bucket, including the best day of
// the week derived from the same session scan.
func (s *StatsService) ComputeWeekly(ctx context.Context, weekKey string) (*domain.WeeklyStats, error) {
	from, to, err := domain.WeekBounds(weekKey)
	if err != nil {
		return nil, err
	}

	rows, err := s.sessions.ListForRange(ctx, from, to)
	if err != nil {
		return nil, err
	}
	rows = finalized(rows)
	if len(rows) == 0 {
		return nil, domain.ErrNoSessions
	}

	stats := &domain.WeeklyStats{WeekKey: weekKey}
	var scoreSum float64
	var completed int
	dayTotals := make(map[string]int64)
	for _, sess := range rows {
		stats.TotalSessions++
		stats.TotalFocusTime += sess.ActualDuration
		scoreSum += sess.FocusScore
		if sess.Completed {
			completed++
		}
		dayTotals[sess.DateKey()] += sess.ActualDuration
	}
	stats.AvgFocusScore = scoreSum / float64(stats.TotalSessions)
	stats.CompletionRate = float64(completed) / float64(stats.TotalSessions) * 100
	stats.AvgDailyFocusTime = stats.TotalFocusTime / 7

	// Walk the week's dates in order so ties resolve to the earliest day.
	dates, err := domain.WeekDates(weekKey)
	if err != nil {
		return nil, err
	}
	for _, day := range dates {
		if total, ok := dayTotals[day]; ok && total > stats.BestDayFocusTime {
			stats.BestDayFocusTime = total
			stats.BestDayDate = day
		}
	}

	if stats.TotalWhitelistedTime, err = s.whitelistedTime(ctx, rows); err != nil {
		return nil, err
	}
	return stats, nil
}

// RefreshWeekly computes and caches a week bucket, carrying over any
// user-written notes from the row it replaces.
func (s *StatsService) RefreshWeekly(ctx context.Context, weekKey string) (*domain.WeeklyStats, error) {
	stats, err := s.ComputeWeekly(ctx, weekKey)
	if err != nil {
		return nil, err
	}

	existing, err := s.stats.GetWeekly(ctx, weekKey)
	switch {
	case err == nil:
		stats.Notes = existing.Notes
	case err == domain.ErrStatsNotFound:
	default:
		return nil, err
	}

	if err := s.stats.UpsertWeekly(ctx, stats); err != nil {
		return nil, err
	}
	if s.notifier != nil {
		s.notifier.Publish(domain.TableWeeklyStats)
	}
	return stats, nil
}

func (s *StatsService) GetWeekly(ctx context.Context, weekKey string) (*domain.WeeklyStats, error) {
	if err := domain.ValidateWeekKey(weekKey); err != nil {
		return nil, err
	}
	return s.stats.GetWeekly(ctx, weekKey)
}

func (s *StatsService) ListRecentWeekly(ctx context.Context, limit int) ([]*domain.WeeklyStats, error) {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	return s.stats.ListRecentWeekly(ctx, limit)
}

// UpdateWeeklyNotes attaches user notes to an existing weekly rollup.
func (s *StatsService) UpdateWeeklyNotes(ctx context.Context, weekKey, notes string) (*domain.WeeklyStats, error) {
	stats, err := s.GetWeekly(ctx, weekKey)
	if err != nil {
		return nil, err
	}
	stats.Notes = notes
	if err := s.stats.UpsertWeekly(ctx, stats); err != nil {
		return nil, err
	}
	if s.notifier != nil {
		s.notifier.Publish(domain.TableWeeklyStats)
	}
	return stats, nil
}

// ComputeMonthly aggregates one calendar-month bucket, including active
// days and the best ISO week overlapping the month.
func (s *StatsService) ComputeMonthly(ctx context.Context, monthKey string) (*domain.MonthlyStats, error) {
	from, to, err := domain.MonthBounds(monthKey)
	if err != nil {
		return nil, err
	}

	rows, err := s.sessions.ListForRange(ctx, from, to)
	if err != nil {
		return nil, err
	}
	rows = finalized(rows)
	if len(rows) == 0 {
		return nil, domain.ErrNoSessions
	}

	stats := &domain.MonthlyStats{MonthKey: monthKey}
	var scoreSum float64
	var completed int
	dayTotals := make(map[string]int64)
	weekTotals := make(map[string]int64)
	for _, sess := range rows {
		stats.TotalSessions++
		stats.TotalFocusTime += sess.ActualDuration
		scoreSum += sess.FocusScore
		if sess.Completed {
			completed++
		}
		dayTotals[sess.DateKey()] += sess.ActualDuration
		weekTotals[sess.WeekKey()] += sess.ActualDuration
	}
	stats.AvgFocusScore = scoreSum / float64(stats.TotalSessions)
	stats.CompletionRate = float64(completed) / float64(stats.TotalSessions) * 100
	stats.ActiveDays = len(dayTotals)

	days, err := domain.DaysInMonth(monthKey)
	if err != nil {
		return nil, err
	}
	stats.AvgDailyFocusTime = stats.TotalFocusTime / int64(days)

	weeks, err := domain.MonthWeekKeys(monthKey)
	if err != nil {
		return nil, err
	}
	stats.AvgWeeklyFocusTime = stats.TotalFocusTime / int64(len(weeks))
	for _, week := range weeks {
		if total, ok := weekTotals[week]; ok && total > stats.BestWeekFocusTime {
			stats.BestWeekFocusTime = total
			stats.BestWeekKey = week
		}
	}

	if stats.TotalWhitelistedTime, err = s.whitelistedTime(ctx, rows); err != nil {
		return nil, err
	}
	return stats, nil
}

func (s *StatsService) RefreshMonthly(ctx context.Context, monthKey string) (*domain.MonthlyStats, error) {
	stats, err := s.ComputeMonthly(ctx, monthKey)
	if err != nil {
		return nil, err
	}
	if err := s.stats.UpsertMonthly(ctx, stats); err != nil {
		return nil, err
	}
	if s.notifier != nil {
		s.notifier.Publish(domain.TableMonthlyStats)
	}
	return stats, nil
}

func (s *StatsService) GetMonthly(ctx context.Context, monthKey string) (*domain.MonthlyStats, error) {
	if err := domain.ValidateMonthKey(monthKey); err != nil {
		return nil, err
	}
	return s.stats.GetMonthly(ctx, monthKey)
}

func (s *StatsService) ListRecentMonthly(ctx context.Context, limit int) ([]*domain.MonthlyStats, error) {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	return s.stats.ListRecentMonthly(ctx, limit)
}

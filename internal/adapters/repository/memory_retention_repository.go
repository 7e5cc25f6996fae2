package repository

import (
	"context"
	"sort"
	"time"

	"github.com/grepguru/zenlock-engine/internal/core/domain"
)

// InMemoryRetentionRepository runs the cleanup cascade against the other
// in-memory stores. It lives in the same package so it can apply the
// ordered deletes under each store's write lock.
type InMemoryRetentionRepository struct {
	sessions *InMemorySessionRepository
	stats    *InMemoryStatsRepository
	mobile   *InMemoryMobileUsageRepository
}

func NewInMemoryRetentionRepository(sessions *InMemorySessionRepository, stats *InMemoryStatsRepository, mobile *InMemoryMobileUsageRepository) *InMemoryRetentionRepository {
	return &InMemoryRetentionRepository{
		sessions: sessions,
		stats:    stats,
		mobile:   mobile,
	}
}

func (r *InMemoryRetentionRepository) CleanupBefore(ctx context.Context, sessionCutoff time.Time, dailyKey, weeklyKey, monthlyKey string) (domain.RetentionReport, error) {
	var report domain.RetentionReport

	r.sessions.mu.Lock()
	var victims []string
	for id, s := range r.sessions.sessions {
		if s.StartTime.Before(sessionCutoff) {
			victims = append(victims, id)
		}
	}
	// Usage rows first, then their sessions.
	for _, id := range victims {
		report.UsageRows += int64(len(r.sessions.usage[id]))
		delete(r.sessions.usage, id)
	}
	for _, id := range victims {
		delete(r.sessions.sessions, id)
		report.SessionRows++
	}
	r.sessions.mu.Unlock()

	r.stats.mu.Lock()
	for date := range r.stats.daily {
		if date < dailyKey {
			delete(r.stats.daily, date)
			report.DailyRows++
		}
	}
	for week := range r.stats.weekly {
		if week < weeklyKey {
			delete(r.stats.weekly, week)
			report.WeeklyRows++
		}
	}
	for month := range r.stats.monthly {
		if month < monthlyKey {
			delete(r.stats.monthly, month)
			report.MonthlyRows++
		}
	}
	r.stats.mu.Unlock()

	return report, nil
}

func (r *InMemoryRetentionRepository) TrimMobileUsage(ctx context.Context, keep int) (int64, error) {
	r.mobile.mu.Lock()
	defer r.mobile.mu.Unlock()

	if len(r.mobile.samples) <= keep {
		return 0, nil
	}

	dates := make([]string, 0, len(r.mobile.samples))
	for date := range r.mobile.samples {
		dates = append(dates, date)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(dates)))

	var removed int64
	for _, date := range dates[keep:] {
		delete(r.mobile.samples, date)
		removed++
	}
	return removed, nil
}

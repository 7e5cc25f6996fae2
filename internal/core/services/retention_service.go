package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/grepguru/zenlock-engine/internal/core/domain"
)

// RetentionPolicy holds per-table maximum ages. Raw events age out first;
// rollups are cheap and keep a longer history.
type RetentionPolicy struct {
	SessionMaxAge time.Duration
	DailyMaxAge   time.Duration
	WeeklyMaxAge  time.Duration
	MonthlyMaxAge time.Duration
}

func DefaultRetentionPolicy() RetentionPolicy {
	return RetentionPolicy{
		SessionMaxAge: 30 * 24 * time.Hour,
		DailyMaxAge:   365 * 24 * time.Hour,
		WeeklyMaxAge:  2 * 365 * 24 * time.Hour,
		MonthlyMaxAge: 5 * 365 * 24 * time.Hour,
	}
}

// RetentionService enforces the two retention policies: cutoff deletion
// across the event and rollup tables, and the fixed-size FIFO window over
// daily mobile usage. Both passes are idempotent and safe to re-invoke after a
// failure; the external scheduler simply retries on its next cycle.
type RetentionService struct {
	repo     domain.RetentionRepository
	notifier ChangePublisher
}

func NewRetentionService(repo domain.RetentionRepository, notifier ChangePublisher) *RetentionService {
	return &RetentionService{
		repo:     repo,
		notifier: notifier,
	}
}

// CleanupBefore deletes everything strictly older than the cutoff: usage
// rows first, then their sessions, then stats rows below the derived
// period keys. Rows exactly at the cutoff survive.
func (s *RetentionService) CleanupBefore(ctx context.Context, cutoff time.Time) (domain.RetentionReport, error) {
	return s.cleanup(ctx, cutoff, cutoff, cutoff, cutoff)
}

// CleanupWithPolicy applies per-table cutoffs derived from now and the policy.
func (s *RetentionService) CleanupWithPolicy(ctx context.Context, now time.Time, policy RetentionPolicy) (domain.RetentionReport, error) {
	return s.cleanup(ctx,
		now.Add(-policy.SessionMaxAge),
		now.Add(-policy.DailyMaxAge),
		now.Add(-policy.WeeklyMaxAge),
		now.Add(-policy.MonthlyMaxAge),
	)
}

func (s *RetentionService) cleanup(ctx context.Context, sessionCutoff, dailyCutoff, weeklyCutoff, monthlyCutoff time.Time) (domain.RetentionReport, error) {
	report, err := s.repo.CleanupBefore(ctx,
		sessionCutoff.UTC(),
		domain.DateKeyOf(dailyCutoff),
		domain.WeekKeyOf(weeklyCutoff),
		domain.MonthKeyOf(monthlyCutoff),
	)
	if err != nil {
		return report, fmt.Errorf("%w: %v", domain.ErrRetentionInterrupted, err)
	}

	log.Printf("[RETENTION] Cleanup removed %d usage, %d session, %d daily, %d weekly, %d monthly rows",
		report.UsageRows, report.SessionRows, report.DailyRows, report.WeeklyRows, report.MonthlyRows)

	if s.notifier != nil {
		s.notifier.Publish(
			domain.TableSessions, domain.TableAppUsage,
			domain.TableDailyStats, domain.TableWeeklyStats, domain.TableMonthlyStats,
		)
	}
	return report, nil
}

// TrimMobileUsage prunes the mobile-usage window down to its 30 most
// recent dates. Re-running at or under the bound is a no-op.
func (s *RetentionService) TrimMobileUsage(ctx context.Context) (int64, error) {
	removed, err := s.repo.TrimMobileUsage(ctx, domain.MobileUsageWindowDays)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", domain.ErrRetentionInterrupted, err)
	}
	if removed > 0 {
		log.Printf("[RETENTION] Trimmed %d mobile usage rows", removed)
		if s.notifier != nil {
			s.notifier.Publish(domain.TableMobileUsage)
		}
	}
	return removed, nil
}

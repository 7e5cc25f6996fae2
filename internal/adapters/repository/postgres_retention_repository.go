package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/grepguru/zenlock-engine/internal/core/domain"
)

type PostgresRetentionRepository struct {
	db *sqlx.DB
}

func NewPostgresRetentionRepository(db *sqlx.DB) *PostgresRetentionRepository {
	return &PostgresRetentionRepository{db: db}
}

// CleanupBefore runs the whole cascade in one transaction. Usage rows go
// before their sessions so the foreign key never blocks the delete.
func (r *PostgresRetentionRepository) CleanupBefore(ctx context.Context, sessionCutoff time.Time, dailyKey, weeklyKey, monthlyKey string) (domain.RetentionReport, error) {
	var report domain.RetentionReport

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return report, err
	}
	defer tx.Rollback()

	steps := []struct {
		query string
		arg   any
		count *int64
	}{
		{`DELETE FROM app_usage WHERE session_id IN (SELECT id FROM sessions WHERE start_time < $1)`, sessionCutoff, &report.UsageRows},
		{`DELETE FROM sessions WHERE start_time < $1`, sessionCutoff, &report.SessionRows},
		{`DELETE FROM daily_stats WHERE date < $1`, dailyKey, &report.DailyRows},
		{`DELETE FROM weekly_stats WHERE week_key < $1`, weeklyKey, &report.WeeklyRows},
		{`DELETE FROM monthly_stats WHERE month_key < $1`, monthlyKey, &report.MonthlyRows},
	}

	for _, step := range steps {
		result, err := tx.ExecContext(ctx, step.query, step.arg)
		if err != nil {
			return domain.RetentionReport{}, err
		}
		rows, err := result.RowsAffected()
		if err != nil {
			return domain.RetentionReport{}, err
		}
		*step.count = rows
	}

	if err := tx.Commit(); err != nil {
		return domain.RetentionReport{}, err
	}
	return report, nil
}

// TrimMobileUsage deletes everything older than the keep-th most recent
// date. With keep or fewer rows present the subquery is empty and nothing
// is removed.
func (r *PostgresRetentionRepository) TrimMobileUsage(ctx context.Context, keep int) (int64, error) {
	query := `
		DELETE FROM daily_mobile_usage
		WHERE date < (
			SELECT date FROM daily_mobile_usage
			ORDER BY date DESC
			LIMIT 1 OFFSET $1
		)`

	result, err := r.db.ExecContext(ctx, query, keep-1)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

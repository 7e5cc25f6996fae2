package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/grepguru/zenlock-engine/internal/core/domain"
)

type PostgresStatsRepository struct {
	db *sqlx.DB
}

func NewPostgresStatsRepository(db *sqlx.DB) *PostgresStatsRepository {
	return &PostgresStatsRepository{db: db}
}

func (r *PostgresStatsRepository) UpsertDaily(ctx context.Context, stats *domain.DailyStats) error {
	query := `
		INSERT INTO daily_stats (
			date, total_sessions, total_focus_time,
			completed_sessions, interrupted_sessions,
			avg_focus_score, total_whitelisted_time
		) VALUES (
			:date, :total_sessions, :total_focus_time,
			:completed_sessions, :interrupted_sessions,
			:avg_focus_score, :total_whitelisted_time
		)
		ON CONFLICT (date) DO UPDATE SET
			total_sessions = EXCLUDED.total_sessions,
			total_focus_time = EXCLUDED.total_focus_time,
			completed_sessions = EXCLUDED.completed_sessions,
			interrupted_sessions = EXCLUDED.interrupted_sessions,
			avg_focus_score = EXCLUDED.avg_focus_score,
			total_whitelisted_time = EXCLUDED.total_whitelisted_time`

	_, err := r.db.NamedExecContext(ctx, query, stats)
	return err
}

func (r *PostgresStatsRepository) GetDaily(ctx context.Context, date string) (*domain.DailyStats, error) {
	var stats domain.DailyStats
	err := r.db.GetContext(ctx, &stats, `SELECT * FROM daily_stats WHERE date = $1`, date)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrStatsNotFound
		}
		return nil, err
	}
	return &stats, nil
}

func (r *PostgresStatsRepository) ListDailyRange(ctx context.Context, startDate, endDate string) ([]*domain.DailyStats, error) {
	stats := []*domain.DailyStats{}

	query := `
		SELECT * FROM daily_stats
		WHERE date >= $1 AND date <= $2
		ORDER BY date DESC`

	if err := r.db.SelectContext(ctx, &stats, query, startDate, endDate); err != nil {
		return nil, err
	}
	return stats, nil
}

func (r *PostgresStatsRepository) UpsertWeekly(ctx context.Context, stats *domain.WeeklyStats) error {
	query := `
		INSERT INTO weekly_stats (
			week_key, total_sessions, total_focus_time,
			avg_daily_focus_time, completion_rate, avg_focus_score,
			best_day_focus_time, best_day_date,
			total_whitelisted_time, notes
		) VALUES (
			:week_key, :total_sessions, :total_focus_time,
			:avg_daily_focus_time, :completion_rate, :avg_focus_score,
			:best_day_focus_time, :best_day_date,
			:total_whitelisted_time, :notes
		)
		ON CONFLICT (week_key) DO UPDATE SET
			total_sessions = EXCLUDED.total_sessions,
			total_focus_time = EXCLUDED.total_focus_time,
			avg_daily_focus_time = EXCLUDED.avg_daily_focus_time,
			completion_rate = EXCLUDED.completion_rate,
			avg_focus_score = EXCLUDED.avg_focus_score,
			best_day_focus_time = EXCLUDED.best_day_focus_time,
			best_day_date = EXCLUDED.best_day_date,
			total_whitelisted_time = EXCLUDED.total_whitelisted_time,
			notes = EXCLUDED.notes`

	_, err := r.db.NamedExecContext(ctx, query, stats)
	return err
}

func (r *PostgresStatsRepository) GetWeekly(ctx context.Context, weekKey string) (*domain.WeeklyStats, error) {
	var stats domain.WeeklyStats
	err := r.db.GetContext(ctx, &stats, `SELECT * FROM weekly_stats WHERE week_key = $1`, weekKey)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrStatsNotFound
		}
		return nil, err
	}
	return &stats, nil
}

func (r *PostgresStatsRepository) ListRecentWeekly(ctx context.Context, limit int) ([]*domain.WeeklyStats, error) {
	stats := []*domain.WeeklyStats{}

	// "YYYY-Www" keys sort chronologically as plain text.
	query := `SELECT * FROM weekly_stats ORDER BY week_key DESC LIMIT $1`

	if err := r.db.SelectContext(ctx, &stats, query, limit); err != nil {
		return nil, err
	}
	return stats, nil
}

func (r *PostgresStatsRepository) UpsertMonthly(ctx context.Context, stats *domain.MonthlyStats) error {
	query := `
		INSERT INTO monthly_stats (
			month_key, total_sessions, total_focus_time,
			avg_daily_focus_time, avg_weekly_focus_time,
			completion_rate, avg_focus_score,
			best_week_focus_time, best_week_key,
			active_days, total_whitelisted_time
		) VALUES (
			:month_key, :total_sessions, :total_focus_time,
			:avg_daily_focus_time, :avg_weekly_focus_time,
			:completion_rate, :avg_focus_score,
			:best_week_focus_time, :best_week_key,
			:active_days, :total_whitelisted_time
		)
		ON CONFLICT (month_key) DO UPDATE SET
			total_sessions = EXCLUDED.total_sessions,
			total_focus_time = EXCLUDED.total_focus_time,
			avg_daily_focus_time = EXCLUDED.avg_daily_focus_time,
			avg_weekly_focus_time = EXCLUDED.avg_weekly_focus_time,
			completion_rate = EXCLUDED.completion_rate,
			avg_focus_score = EXCLUDED.avg_focus_score,
			best_week_focus_time = EXCLUDED.best_week_focus_time,
			best_week_key = EXCLUDED.best_week_key,
			active_days = EXCLUDED.active_days,
			total_whitelisted_time = EXCLUDED.total_whitelisted_time`

	_, err := r.db.NamedExecContext(ctx, query, stats)
	return err
}

func (r *PostgresStatsRepository) GetMonthly(ctx context.Context, monthKey string) (*domain.MonthlyStats, error) {
	var stats domain.MonthlyStats
	err := r.db.GetContext(ctx, &stats, `SELECT * FROM monthly_stats WHERE month_key = $1`, monthKey)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrStatsNotFound
		}
		return nil, err
	}
	return &stats, nil
}

func (r *PostgresStatsRepository) ListRecentMonthly(ctx context.Context, limit int) ([]*domain.MonthlyStats, error) {
	stats := []*domain.MonthlyStats{}

	query := `SELECT * FROM monthly_stats ORDER BY month_key DESC LIMIT $1`

	if err := r.db.SelectContext(ctx, &stats, query, limit); err != nil {
		return nil, err
	}
	return stats, nil
}

package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/grepguru/zenlock-engine/internal/core/domain"
)

type PostgresMobileUsageRepository struct {
	db *sqlx.DB
}

func NewPostgresMobileUsageRepository(db *sqlx.DB) *PostgresMobileUsageRepository {
	return &PostgresMobileUsageRepository{db: db}
}

func (r *PostgresMobileUsageRepository) Upsert(ctx context.Context, usage *domain.DailyMobileUsage) error {
	now := time.Now().UTC()
	if usage.CreatedAt.IsZero() {
		usage.CreatedAt = now
	}
	usage.UpdatedAt = now

	// created_at keeps its original value when the date already exists.
	query := `
		INSERT INTO daily_mobile_usage (date, total_usage, created_at, updated_at)
		VALUES (:date, :total_usage, :created_at, :updated_at)
		ON CONFLICT (date) DO UPDATE SET
			total_usage = EXCLUDED.total_usage,
			updated_at = EXCLUDED.updated_at`

	_, err := r.db.NamedExecContext(ctx, query, usage)
	return err
}

func (r *PostgresMobileUsageRepository) GetByDate(ctx context.Context, date string) (*domain.DailyMobileUsage, error) {
	var usage domain.DailyMobileUsage
	err := r.db.GetContext(ctx, &usage, `SELECT * FROM daily_mobile_usage WHERE date = $1`, date)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrMobileUsageNotFound
		}
		return nil, err
	}
	return &usage, nil
}

func (r *PostgresMobileUsageRepository) ListRecent(ctx context.Context, limit int) ([]*domain.DailyMobileUsage, error) {
	samples := []*domain.DailyMobileUsage{}

	query := `SELECT * FROM daily_mobile_usage ORDER BY date DESC LIMIT $1`

	if err := r.db.SelectContext(ctx, &samples, query, limit); err != nil {
		return nil, err
	}
	return samples, nil
}

func (r *PostgresMobileUsageRepository) ListRange(ctx context.Context, startDate, endDate string) ([]*domain.DailyMobileUsage, error) {
	samples := []*domain.DailyMobileUsage{}

	query := `
		SELECT * FROM daily_mobile_usage
		WHERE date >= $1 AND date <= $2
		ORDER BY date DESC`

	if err := r.db.SelectContext(ctx, &samples, query, startDate, endDate); err != nil {
		return nil, err
	}
	return samples, nil
}

func (r *PostgresMobileUsageRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `SELECT count(*) FROM daily_mobile_usage`)
	return count, err
}

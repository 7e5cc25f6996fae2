package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/grepguru/zenlock-engine/internal/core/domain"
)

type PostgresScheduleRepository struct {
	db *sqlx.DB
}

func NewPostgresScheduleRepository(db *sqlx.DB) *PostgresScheduleRepository {
	return &PostgresScheduleRepository{db: db}
}

// scheduleRow maps the repeat_days integer array, which the domain type
// keeps as a plain []int.
type scheduleRow struct {
	ID               string        `db:"id"`
	Name             string        `db:"name"`
	StartTime        string        `db:"start_time"`
	EndTime          string        `db:"end_time"`
	RepeatDays       pq.Int64Array `db:"repeat_days"`
	Enabled          bool          `db:"enabled"`
	PreNotifyMinutes int           `db:"pre_notify_minutes"`
	CreatedAt        time.Time     `db:"created_at"`
	UpdatedAt        time.Time     `db:"updated_at"`
}

func toScheduleRow(s *domain.Schedule) *scheduleRow {
	days := make(pq.Int64Array, len(s.RepeatDays))
	for i, d := range s.RepeatDays {
		days[i] = int64(d)
	}
	return &scheduleRow{
		ID:               s.ID,
		Name:             s.Name,
		StartTime:        s.StartTime,
		EndTime:          s.EndTime,
		RepeatDays:       days,
		Enabled:          s.Enabled,
		PreNotifyMinutes: s.PreNotifyMinutes,
		CreatedAt:        s.CreatedAt,
		UpdatedAt:        s.UpdatedAt,
	}
}

func (row *scheduleRow) toDomain() *domain.Schedule {
	days := make([]int, len(row.RepeatDays))
	for i, d := range row.RepeatDays {
		days[i] = int(d)
	}
	return &domain.Schedule{
		ID:               row.ID,
		Name:             row.Name,
		StartTime:        row.StartTime,
		EndTime:          row.EndTime,
		RepeatDays:       days,
		Enabled:          row.Enabled,
		PreNotifyMinutes: row.PreNotifyMinutes,
		CreatedAt:        row.CreatedAt,
		UpdatedAt:        row.UpdatedAt,
	}
}

func (r *PostgresScheduleRepository) Create(ctx context.Context, schedule *domain.Schedule) error {
	if schedule.ID == "" {
		schedule.ID = uuid.NewString()
	}

	query := `
		INSERT INTO schedules (
			id, name, start_time, end_time,
			repeat_days, enabled, pre_notify_minutes,
			created_at, updated_at
		) VALUES (
			:id, :name, :start_time, :end_time,
			:repeat_days, :enabled, :pre_notify_minutes,
			:created_at, :updated_at
		)`

	_, err := r.db.NamedExecContext(ctx, query, toScheduleRow(schedule))
	return err
}

func (r *PostgresScheduleRepository) GetByID(ctx context.Context, id string) (*domain.Schedule, error) {
	var row scheduleRow
	err := r.db.GetContext(ctx, &row, `SELECT * FROM schedules WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrScheduleNotFound
		}
		return nil, err
	}
	return row.toDomain(), nil
}

func (r *PostgresScheduleRepository) List(ctx context.Context) ([]*domain.Schedule, error) {
	return r.list(ctx, `SELECT * FROM schedules ORDER BY created_at ASC`)
}

func (r *PostgresScheduleRepository) ListEnabled(ctx context.Context) ([]*domain.Schedule, error) {
	return r.list(ctx, `SELECT * FROM schedules WHERE enabled = TRUE ORDER BY created_at ASC`)
}

func (r *PostgresScheduleRepository) list(ctx context.Context, query string) ([]*domain.Schedule, error) {
	rows := []*scheduleRow{}
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, err
	}

	schedules := make([]*domain.Schedule, len(rows))
	for i, row := range rows {
		schedules[i] = row.toDomain()
	}
	return schedules, nil
}

func (r *PostgresScheduleRepository) Update(ctx context.Context, schedule *domain.Schedule) error {
	query := `
		UPDATE schedules
		SET name = :name,
		    start_time = :start_time,
		    end_time = :end_time,
		    repeat_days = :repeat_days,
		    enabled = :enabled,
		    pre_notify_minutes = :pre_notify_minutes,
		    updated_at = :updated_at
		WHERE id = :id`

	result, err := r.db.NamedExecContext(ctx, query, toScheduleRow(schedule))
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrScheduleNotFound
	}
	return nil
}

func (r *PostgresScheduleRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM schedules WHERE id = $1`, id)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrScheduleNotFound
	}
	return nil
}

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

type PostgresSessionRepository struct {
	db *sqlx.DB
}

func NewPostgresSessionRepository(db *sqlx.DB) *PostgresSessionRepository {
	return &PostgresSessionRepository{db: db}
}

const insertSessionQuery = `
	INSERT INTO sessions (
		id, start_time, end_time,
		target_duration, actual_duration,
		completed, source, focus_score, created_at
	) VALUES (
		:id, :start_time, :end_time,
		:target_duration, :actual_duration,
		:completed, :source, :focus_score, :created_at
	)`

const insertUsageQuery = `
	INSERT INTO app_usage (
		id, session_id, package_name,
		app_name, usage_time, is_whitelisted, created_at
	) VALUES (
		:id, :session_id, :package_name,
		:app_name, :usage_time, :is_whitelisted, :created_at
	)`

func (r *PostgresSessionRepository) InsertWithUsage(ctx context.Context, session *domain.Session, usage []*domain.AppUsage) error {
	if session.ID == "" {
		session.ID = uuid.NewString()
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.NamedExecContext(ctx, insertSessionQuery, session); err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return errors.New("session already exists")
		}
		return err
	}

	if err := insertUsageRows(ctx, tx, session.ID, usage); err != nil {
		return err
	}

	return tx.Commit()
}

func (r *PostgresSessionRepository) Finalize(ctx context.Context, session *domain.Session, usage []*domain.AppUsage) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `
		UPDATE sessions
		SET end_time = :end_time,
		    actual_duration = :actual_duration,
		    completed = :completed,
		    focus_score = :focus_score
		WHERE id = :id
		  AND end_time IS NULL`

	result, err := tx.NamedExecContext(ctx, query, session)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		exists, err := r.exists(ctx, session.ID)
		if err != nil {
			return err
		}
		if !exists {
			return domain.ErrSessionNotFound
		}
		return domain.ErrSessionFinalized
	}

	if err := insertUsageRows(ctx, tx, session.ID, usage); err != nil {
		return err
	}

	return tx.Commit()
}

func insertUsageRows(ctx context.Context, tx *sqlx.Tx, sessionID string, usage []*domain.AppUsage) error {
	for _, row := range usage {
		if row.ID == "" {
			row.ID = uuid.NewString()
		}
		row.SessionID = sessionID
		if _, err := tx.NamedExecContext(ctx, insertUsageQuery, row); err != nil {
			if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23503" {
				return domain.ErrSessionNotFound
			}
			return err
		}
	}
	return nil
}

func (r *PostgresSessionRepository) GetByID(ctx context.Context, id string) (*domain.Session, error) {
	var session domain.Session
	err := r.db.GetContext(ctx, &session, `SELECT * FROM sessions WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, err
	}
	return &session, nil
}

func (r *PostgresSessionRepository) ListForDate(ctx context.Context, dateKey string) ([]*domain.Session, error) {
	from, to, err := domain.DayBounds(dateKey)
	if err != nil {
		return nil, err
	}
	return r.ListForRange(ctx, from, to)
}

func (r *PostgresSessionRepository) ListForRange(ctx context.Context, from, to time.Time) ([]*domain.Session, error) {
	sessions := []*domain.Session{}

	query := `
		SELECT * FROM sessions
		WHERE start_time >= $1
		  AND start_time < $2
		ORDER BY start_time DESC`

	if err := r.db.SelectContext(ctx, &sessions, query, from, to); err != nil {
		return nil, err
	}
	return sessions, nil
}

func (r *PostgresSessionRepository) ListRecent(ctx context.Context, limit int) ([]*domain.Session, error) {
	sessions := []*domain.Session{}

	query := `SELECT * FROM sessions ORDER BY start_time DESC LIMIT $1`

	if err := r.db.SelectContext(ctx, &sessions, query, limit); err != nil {
		return nil, err
	}
	return sessions, nil
}

func (r *PostgresSessionRepository) ListUsage(ctx context.Context, sessionID string) ([]*domain.AppUsage, error) {
	usage := []*domain.AppUsage{}

	query := `
		SELECT * FROM app_usage
		WHERE session_id = $1
		ORDER BY usage_time DESC`

	if err := r.db.SelectContext(ctx, &usage, query, sessionID); err != nil {
		return nil, err
	}
	return usage, nil
}

func (r *PostgresSessionRepository) ListUsageForSessions(ctx context.Context, sessionIDs []string) ([]*domain.AppUsage, error) {
	usage := []*domain.AppUsage{}
	if len(sessionIDs) == 0 {
		return usage, nil
	}

	query := `
		SELECT * FROM app_usage
		WHERE session_id = ANY($1)
		ORDER BY usage_time DESC`

	if err := r.db.SelectContext(ctx, &usage, query, pq.Array(sessionIDs)); err != nil {
		return nil, err
	}
	return usage, nil
}

func (r *PostgresSessionRepository) CountAll(ctx context.Context) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `SELECT count(*) FROM sessions`)
	return count, err
}

func (r *PostgresSessionRepository) TotalFocusTime(ctx context.Context) (int64, error) {
	var total int64
	err := r.db.GetContext(ctx, &total, `SELECT COALESCE(SUM(actual_duration), 0) FROM sessions WHERE end_time IS NOT NULL`)
	return total, err
}

func (r *PostgresSessionRepository) LastSessionTime(ctx context.Context) (*time.Time, error) {
	var last sql.NullTime
	err := r.db.GetContext(ctx, &last, `SELECT MAX(start_time) FROM sessions`)
	if err != nil {
		return nil, err
	}
	if !last.Valid {
		return nil, nil
	}
	t := last.Time.UTC()
	return &t, nil
}

func (r *PostgresSessionRepository) ActiveDayCount(ctx context.Context) (int, error) {
	// Date keys are derived in Go everywhere else, so the distinct-day count
	// uses the same UTC truncation instead of a SQL date function.
	var count int
	err := r.db.GetContext(ctx, &count, `SELECT count(DISTINCT date_trunc('day', start_time AT TIME ZONE 'UTC')) FROM sessions`)
	return count, err
}

func (r *PostgresSessionRepository) FocusTimeForRange(ctx context.Context, from, to time.Time) (int64, error) {
	var total int64

	query := `
		SELECT COALESCE(SUM(actual_duration), 0) FROM sessions
		WHERE end_time IS NOT NULL
		  AND start_time >= $1
		  AND start_time < $2`

	err := r.db.GetContext(ctx, &total, query, from, to)
	return total, err
}

func (r *PostgresSessionRepository) exists(ctx context.Context, id string) (bool, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `SELECT count(*) FROM sessions WHERE id = $1`, id)
	return count > 0, err
}

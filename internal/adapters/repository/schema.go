package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// Migrate creates the engine's tables if they do not exist yet. Statements
// are idempotent so the bootstrap can run on every startup.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS sessions (
			id              UUID PRIMARY KEY,
			start_time      TIMESTAMPTZ NOT NULL,
			end_time        TIMESTAMPTZ,
			target_duration BIGINT NOT NULL DEFAULT 0,
			actual_duration BIGINT NOT NULL DEFAULT 0,
			completed       BOOLEAN NOT NULL DEFAULT FALSE,
			source          TEXT NOT NULL DEFAULT 'manual',
			focus_score     DOUBLE PRECISION NOT NULL DEFAULT 0,
			created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_start_time ON sessions (start_time DESC)`,

		`CREATE TABLE IF NOT EXISTS app_usage (
			id             UUID PRIMARY KEY,
			session_id     UUID NOT NULL REFERENCES sessions(id),
			package_name   TEXT NOT NULL,
			app_name       TEXT NOT NULL DEFAULT '',
			usage_time     BIGINT NOT NULL DEFAULT 0,
			is_whitelisted BOOLEAN NOT NULL DEFAULT FALSE,
			created_at     TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_app_usage_session ON app_usage (session_id)`,

		`CREATE TABLE IF NOT EXISTS daily_stats (
			date                   TEXT PRIMARY KEY,
			total_sessions         INTEGER NOT NULL DEFAULT 0,
			total_focus_time       BIGINT NOT NULL DEFAULT 0,
			completed_sessions     INTEGER NOT NULL DEFAULT 0,
			interrupted_sessions   INTEGER NOT NULL DEFAULT 0,
			avg_focus_score        DOUBLE PRECISION NOT NULL DEFAULT 0,
			total_whitelisted_time BIGINT NOT NULL DEFAULT 0
		)`,

		`CREATE TABLE IF NOT EXISTS weekly_stats (
			week_key               TEXT PRIMARY KEY,
			total_sessions         INTEGER NOT NULL DEFAULT 0,
			total_focus_time       BIGINT NOT NULL DEFAULT 0,
			avg_daily_focus_time   BIGINT NOT NULL DEFAULT 0,
			completion_rate        DOUBLE PRECISION NOT NULL DEFAULT 0,
			avg_focus_score        DOUBLE PRECISION NOT NULL DEFAULT 0,
			best_day_focus_time    BIGINT NOT NULL DEFAULT 0,
			best_day_date          TEXT NOT NULL DEFAULT '',
			total_whitelisted_time BIGINT NOT NULL DEFAULT 0,
			notes                  TEXT NOT NULL DEFAULT ''
		)`,

		`CREATE TABLE IF NOT EXISTS monthly_stats (
			month_key              TEXT PRIMARY KEY,
			total_sessions         INTEGER NOT NULL DEFAULT 0,
			total_focus_time       BIGINT NOT NULL DEFAULT 0,
			avg_daily_focus_time   BIGINT NOT NULL DEFAULT 0,
			avg_weekly_focus_time  BIGINT NOT NULL DEFAULT 0,
			completion_rate        DOUBLE PRECISION NOT NULL DEFAULT 0,
			avg_focus_score        DOUBLE PRECISION NOT NULL DEFAULT 0,
			best_week_focus_time   BIGINT NOT NULL DEFAULT 0,
			best_week_key          TEXT NOT NULL DEFAULT '',
			active_days            INTEGER NOT NULL DEFAULT 0,
			total_whitelisted_time BIGINT NOT NULL DEFAULT 0
		)`,

		`CREATE TABLE IF NOT EXISTS daily_mobile_usage (
			date        TEXT PRIMARY KEY,
			total_usage BIGINT NOT NULL DEFAULT 0,
			created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,

		`CREATE TABLE IF NOT EXISTS schedules (
			id                 UUID PRIMARY KEY,
			name               TEXT NOT NULL,
			start_time         TEXT NOT NULL,
			end_time           TEXT NOT NULL,
			repeat_days        INTEGER[] NOT NULL DEFAULT '{}',
			enabled            BOOLEAN NOT NULL DEFAULT TRUE,
			pre_notify_minutes INTEGER NOT NULL DEFAULT 0,
			created_at         TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at         TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
	}

	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

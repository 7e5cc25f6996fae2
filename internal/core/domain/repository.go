package domain

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrRetentionInterrupted wraps a failure inside the cleanup cascade.
	// The delete ordering keeps partial state safe, so the pass can simply
	// be re-run on the next scheduler cycle.
	ErrRetentionInterrupted = errors.New("retention cascade interrupted")
)

// Table identifies one of the persisted logical tables. Live-query
// dependencies and commit notifications are expressed in terms of tables,
// never individual subscribers.
type Table string

const (
	TableSessions     Table = "sessions"
	TableAppUsage     Table = "app_usage"
	TableDailyStats   Table = "daily_stats"
	TableWeeklyStats  Table = "weekly_stats"
	TableMonthlyStats Table = "monthly_stats"
	TableMobileUsage  Table = "daily_mobile_usage"
	TableSchedules    Table = "schedules"
)

type SessionRepository interface {
	// InsertWithUsage atomically persists a session together with its usage
	// rows: after it returns either everything is visible or nothing is.
	InsertWithUsage(ctx context.Context, session *Session, usage []*AppUsage) error

	// Finalize persists the one allowed session mutation, inserting the
	// accompanying usage batch in the same transaction.
	Finalize(ctx context.Context, session *Session, usage []*AppUsage) error

	GetByID(ctx context.Context, id string) (*Session, error)

	// ListForDate returns sessions whose start time falls on the given
	// date key, newest first.
	ListForDate(ctx context.Context, dateKey string) ([]*Session, error)

	// ListForRange returns sessions with start time in [from, to), newest first.
	ListForRange(ctx context.Context, from, to time.Time) ([]*Session, error)

	ListRecent(ctx context.Context, limit int) ([]*Session, error)

	// ListUsage returns a session's usage rows ordered by usage time descending.
	ListUsage(ctx context.Context, sessionID string) ([]*AppUsage, error)

	// ListUsageForSessions returns all usage rows owned by any of the given
	// sessions, for period-level whitelisted-time sums.
	ListUsageForSessions(ctx context.Context, sessionIDs []string) ([]*AppUsage, error)

	CountAll(ctx context.Context) (int, error)
	TotalFocusTime(ctx context.Context) (int64, error)
	LastSessionTime(ctx context.Context) (*time.Time, error)
	// ActiveDayCount counts distinct date keys with at least one session.
	ActiveDayCount(ctx context.Context) (int, error)
	FocusTimeForRange(ctx context.Context, from, to time.Time) (int64, error)
}

type StatsRepository interface {
	// Upserts replace the whole row for an existing period key.
	UpsertDaily(ctx context.Context, stats *DailyStats) error
	GetDaily(ctx context.Context, date string) (*DailyStats, error)
	ListDailyRange(ctx context.Context, startDate, endDate string) ([]*DailyStats, error)

	UpsertWeekly(ctx context.Context, stats *WeeklyStats) error
	GetWeekly(ctx context.Context, weekKey string) (*WeeklyStats, error)
	ListRecentWeekly(ctx context.Context, limit int) ([]*WeeklyStats, error)

	UpsertMonthly(ctx context.Context, stats *MonthlyStats) error
	GetMonthly(ctx context.Context, monthKey string) (*MonthlyStats, error)
	ListRecentMonthly(ctx context.Context, limit int) ([]*MonthlyStats, error)
}

type MobileUsageRepository interface {
	// Upsert replaces the sample for an existing date, preserving CreatedAt.
	Upsert(ctx context.Context, usage *DailyMobileUsage) error
	GetByDate(ctx context.Context, date string) (*DailyMobileUsage, error)
	ListRecent(ctx context.Context, limit int) ([]*DailyMobileUsage, error)
	ListRange(ctx context.Context, startDate, endDate string) ([]*DailyMobileUsage, error)
	Count(ctx context.Context) (int, error)
}

// RetentionReport counts the rows removed by one cleanup pass.
type RetentionReport struct {
	UsageRows   int64 `json:"usage_rows"`
	SessionRows int64 `json:"session_rows"`
	DailyRows   int64 `json:"daily_rows"`
	WeeklyRows  int64 `json:"weekly_rows"`
	MonthlyRows int64 `json:"monthly_rows"`
}

type RetentionRepository interface {
	// CleanupBefore deletes, in one transaction and in this order: usage
	// rows of sessions strictly older than sessionCutoff, those sessions,
	// then stats rows with keys lexicographically below each cutoff key.
	// Rows exactly at a cutoff survive.
	CleanupBefore(ctx context.Context, sessionCutoff time.Time, dailyKey, weeklyKey, monthlyKey string) (RetentionReport, error)

	// TrimMobileUsage keeps only the `keep` most recent distinct dates of
	// daily mobile usage, returning the number of rows removed. Re-running
	// at or below the bound is a no-op.
	TrimMobileUsage(ctx context.Context, keep int) (int64, error)
}

type ScheduleRepository interface {
	Create(ctx context.Context, schedule *Schedule) error
	GetByID(ctx context.Context, id string) (*Schedule, error)
	List(ctx context.Context) ([]*Schedule, error)
	ListEnabled(ctx context.Context) ([]*Schedule, error)
	Update(ctx context.Context, schedule *Schedule) error
	Delete(ctx context.Context, id string) error
}

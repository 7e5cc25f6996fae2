package domain

import "errors"

var (
	// ErrNoSessions signals an empty period: nothing to aggregate and
	// nothing cached. It is a valid "no data" answer, not a failure, and
	// is distinct from a computed all-zero row.
	ErrNoSessions = errors.New("no sessions in period")

	// ErrStatsNotFound signals that no cached rollup exists for a key.
	ErrStatsNotFound = errors.New("no cached stats for period")
)

// Rollup rows are derived wholesale from raw session rows and carry no
// write timestamps: recomputing an unchanged period must reproduce the
// stored row exactly.

type DailyStats struct {
	Date                 string  `json:"date" db:"date"`
	TotalSessions        int     `json:"total_sessions" db:"total_sessions"`
	TotalFocusTime       int64   `json:"total_focus_time" db:"total_focus_time"`
	CompletedSessions    int     `json:"completed_sessions" db:"completed_sessions"`
	InterruptedSessions  int     `json:"interrupted_sessions" db:"interrupted_sessions"`
	AvgFocusScore        float64 `json:"avg_focus_score" db:"avg_focus_score"`
	TotalWhitelistedTime int64   `json:"total_whitelisted_time" db:"total_whitelisted_time"`
}

// CompletionRate is a percentage over finalized sessions.
func (d *DailyStats) CompletionRate() float64 {
	if d.TotalSessions == 0 {
		return 0
	}
	return float64(d.CompletedSessions) / float64(d.TotalSessions) * 100
}

type WeeklyStats struct {
	WeekKey              string  `json:"week_key" db:"week_key"`
	TotalSessions        int     `json:"total_sessions" db:"total_sessions"`
	TotalFocusTime       int64   `json:"total_focus_time" db:"total_focus_time"`
	AvgDailyFocusTime    int64   `json:"avg_daily_focus_time" db:"avg_daily_focus_time"`
	CompletionRate       float64 `json:"completion_rate" db:"completion_rate"`
	AvgFocusScore        float64 `json:"avg_focus_score" db:"avg_focus_score"`
	BestDayFocusTime     int64   `json:"best_day_focus_time" db:"best_day_focus_time"`
	BestDayDate          string  `json:"best_day_date" db:"best_day_date"`
	TotalWhitelistedTime int64   `json:"total_whitelisted_time" db:"total_whitelisted_time"`
	Notes                string  `json:"notes" db:"notes"`
}

type MonthlyStats struct {
	MonthKey             string  `json:"month_key" db:"month_key"`
	TotalSessions        int     `json:"total_sessions" db:"total_sessions"`
	TotalFocusTime       int64   `json:"total_focus_time" db:"total_focus_time"`
	AvgDailyFocusTime    int64   `json:"avg_daily_focus_time" db:"avg_daily_focus_time"`
	AvgWeeklyFocusTime   int64   `json:"avg_weekly_focus_time" db:"avg_weekly_focus_time"`
	CompletionRate       float64 `json:"completion_rate" db:"completion_rate"`
	AvgFocusScore        float64 `json:"avg_focus_score" db:"avg_focus_score"`
	BestWeekFocusTime    int64   `json:"best_week_focus_time" db:"best_week_focus_time"`
	BestWeekKey          string  `json:"best_week_key" db:"best_week_key"`
	ActiveDays           int     `json:"active_days" db:"active_days"`
	TotalWhitelistedTime int64   `json:"total_whitelisted_time" db:"total_whitelisted_time"`
}

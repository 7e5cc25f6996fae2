package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrSessionNotFound      = errors.New("session not found")
	ErrSessionFinalized     = errors.New("session has already been finalized")
	ErrInvalidSessionWindow = errors.New("invalid session window (end must not precede start, duration must fit the window)")
	ErrInvalidFocusScore    = errors.New("focus score must be between 0.0 and 1.0")
	ErrInvalidStartTime     = errors.New("session start time is required")
)

const SourceManual = "manual"

// Session is a single timed focus interval. A session is created open
// (EndTime nil) when the focus window starts and is mutated exactly once,
// by Finalize. All durations are whole seconds.
type Session struct {
	ID             string     `json:"id" db:"id"`
	StartTime      time.Time  `json:"start_time" db:"start_time"`
	EndTime        *time.Time `json:"end_time,omitempty" db:"end_time"`
	TargetDuration int64      `json:"target_duration" db:"target_duration"`
	ActualDuration int64      `json:"actual_duration" db:"actual_duration"`
	Completed      bool       `json:"completed" db:"completed"`
	Source         string     `json:"source" db:"source"`
	FocusScore     float64    `json:"focus_score" db:"focus_score"`
	CreatedAt      time.Time  `json:"created_at" db:"created_at"`
}

func NewSession(startTime time.Time, targetDuration int64, source string) (*Session, error) {
	if startTime.IsZero() {
		return nil, ErrInvalidStartTime
	}
	if targetDuration < 0 {
		return nil, ErrInvalidSessionWindow
	}
	if strings.TrimSpace(source) == "" {
		source = SourceManual
	}
	return &Session{
		ID:             uuid.NewString(),
		StartTime:      startTime.UTC(),
		TargetDuration: targetDuration,
		Source:         source,
		CreatedAt:      time.Now().UTC(),
	}, nil
}

// Open reports whether the session is still in its transient unfinalized state.
func (s *Session) Open() bool {
	return s.EndTime == nil
}

// Finalize closes the session. It is the only mutation a session record
// ever receives; a second call fails with ErrSessionFinalized.
func (s *Session) Finalize(endTime time.Time, actualDuration int64, completed bool, focusScore float64) error {
	if !s.Open() {
		return ErrSessionFinalized
	}
	if endTime.Before(s.StartTime) {
		return ErrInvalidSessionWindow
	}
	if actualDuration < 0 || actualDuration > int64(endTime.Sub(s.StartTime).Seconds()) {
		return ErrInvalidSessionWindow
	}
	if focusScore < 0 || focusScore > 1 {
		return ErrInvalidFocusScore
	}
	end := endTime.UTC()
	s.EndTime = &end
	s.ActualDuration = actualDuration
	s.Completed = completed
	s.FocusScore = focusScore
	return nil
}

// Interrupted reports whether a finalized session ended before its
// scheduled end.
func (s *Session) Interrupted() bool {
	return !s.Open() && !s.Completed
}

// DateKey, WeekKey and MonthKey bucket the session by its start time.
func (s *Session) DateKey() string  { return DateKeyOf(s.StartTime) }
func (s *Session) WeekKey() string  { return WeekKeyOf(s.StartTime) }
func (s *Session) MonthKey() string { return MonthKeyOf(s.StartTime) }

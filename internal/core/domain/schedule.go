package domain

import (
	"errors"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrScheduleNotFound    = errors.New("schedule not found")
	ErrScheduleNameEmpty   = errors.New("schedule name cannot be empty")
	ErrScheduleNameTooLong = errors.New("schedule name is too long (max 100 chars)")
	ErrInvalidClockTime    = errors.New("invalid time format (must be HH:MM 24h)")
	ErrInvalidTimeWindow   = errors.New("schedule start time must not be after end time")
	ErrInvalidRepeatDays   = errors.New("invalid repeat days (must be 0-6)")
	ErrInvalidPreNotify    = errors.New("pre-notify minutes cannot be negative")
)

var clockTimeRegex = regexp.MustCompile(`^([0-1][0-9]|2[0-3]):[0-5][0-9]$`)

const MaxScheduleNameLen = 100

// Schedule is a recurring focus-window definition. The engine stores it and
// checks structural shape only; when the window actually opens and closes is
// the external trigger's business.
type Schedule struct {
	ID               string    `json:"id" db:"id"`
	Name             string    `json:"name" db:"name"`
	StartTime        string    `json:"start_time" db:"start_time"`
	EndTime          string    `json:"end_time" db:"end_time"`
	RepeatDays       []int     `json:"repeat_days,omitempty"`
	Enabled          bool      `json:"enabled" db:"enabled"`
	PreNotifyMinutes int       `json:"pre_notify_minutes" db:"pre_notify_minutes"`
	CreatedAt        time.Time `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time `json:"updated_at" db:"updated_at"`
}

func normalizeRepeatDays(days []int) []int {
	if len(days) == 0 {
		return nil
	}

	uniqueMap := make(map[int]bool)
	var uniqueDays []int
	for _, d := range days {
		if !uniqueMap[d] {
			uniqueMap[d] = true
			uniqueDays = append(uniqueDays, d)
		}
	}

	sort.Ints(uniqueDays)
	return uniqueDays
}

func validateSchedule(name, startTime, endTime string, repeatDays []int, preNotify int) error {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return ErrScheduleNameEmpty
	}
	if len(trimmed) > MaxScheduleNameLen {
		return ErrScheduleNameTooLong
	}

	if !clockTimeRegex.MatchString(startTime) || !clockTimeRegex.MatchString(endTime) {
		return ErrInvalidClockTime
	}

	// HH:MM strings compare correctly as stored values; overnight windows
	// are the trigger's concern, not ours.
	if startTime > endTime {
		return ErrInvalidTimeWindow
	}

	for _, day := range repeatDays {
		if day < 0 || day > 6 {
			return ErrInvalidRepeatDays
		}
	}

	if preNotify < 0 {
		return ErrInvalidPreNotify
	}

	return nil
}

func NewSchedule(name, startTime, endTime string, repeatDays []int, enabled bool, preNotifyMinutes int) (*Schedule, error) {
	if err := validateSchedule(name, startTime, endTime, repeatDays, preNotifyMinutes); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	return &Schedule{
		ID:               uuid.NewString(),
		Name:             strings.TrimSpace(name),
		StartTime:        startTime,
		EndTime:          endTime,
		RepeatDays:       normalizeRepeatDays(repeatDays),
		Enabled:          enabled,
		PreNotifyMinutes: preNotifyMinutes,
		CreatedAt:        now,
		UpdatedAt:        now,
	}, nil
}

func (s *Schedule) Update(name, startTime, endTime string, repeatDays []int, enabled bool, preNotifyMinutes int) error {
	if err := validateSchedule(name, startTime, endTime, repeatDays, preNotifyMinutes); err != nil {
		return err
	}

	s.Name = strings.TrimSpace(name)
	s.StartTime = startTime
	s.EndTime = endTime
	s.RepeatDays = normalizeRepeatDays(repeatDays)
	s.Enabled = enabled
	s.PreNotifyMinutes = preNotifyMinutes
	s.UpdatedAt = time.Now().UTC()
	return nil
}

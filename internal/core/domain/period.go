package domain

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"time"
)

var (
	ErrInvalidPeriodKey = errors.New("invalid period key format")
)

// Canonical period-key formats. The week key always carries the "W"
// separator; producers and consumers share these helpers so the two
// representations can never drift apart.
const (
	DateKeyLayout  = "2006-01-02"
	MonthKeyLayout = "2006-01"
)

var (
	dateKeyRegex  = regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])-(0[1-9]|[12]\d|3[01])$`)
	weekKeyRegex  = regexp.MustCompile(`^\d{4}-W(0[1-9]|[1-4]\d|5[0-3])$`)
	monthKeyRegex = regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])$`)
)

// DateKeyOf maps a timestamp to its calendar-day bucket in UTC.
func DateKeyOf(t time.Time) string {
	return t.UTC().Format(DateKeyLayout)
}

// WeekKeyOf maps a timestamp to its ISO-8601 week bucket, e.g. "2024-W37".
// The ISO year can differ from the calendar year around January 1st.
func WeekKeyOf(t time.Time) string {
	year, week := t.UTC().ISOWeek()
	return fmt.Sprintf("%04d-W%02d", year, week)
}

// MonthKeyOf maps a timestamp to its calendar-month bucket, e.g. "2024-09".
func MonthKeyOf(t time.Time) string {
	return t.UTC().Format(MonthKeyLayout)
}

func ValidateDateKey(key string) error {
	if !dateKeyRegex.MatchString(key) {
		return ErrInvalidPeriodKey
	}
	if _, err := time.Parse(DateKeyLayout, key); err != nil {
		return ErrInvalidPeriodKey
	}
	return nil
}

func ValidateWeekKey(key string) error {
	if !weekKeyRegex.MatchString(key) {
		return ErrInvalidPeriodKey
	}
	return nil
}

func ValidateMonthKey(key string) error {
	if !monthKeyRegex.MatchString(key) {
		return ErrInvalidPeriodKey
	}
	return nil
}

// ParseDateKey returns midnight UTC of the given date key.
func ParseDateKey(key string) (time.Time, error) {
	if !dateKeyRegex.MatchString(key) {
		return time.Time{}, ErrInvalidPeriodKey
	}
	t, err := time.Parse(DateKeyLayout, key)
	if err != nil {
		return time.Time{}, ErrInvalidPeriodKey
	}
	return t, nil
}

// DayBounds returns the half-open UTC interval [start, end) covering a date key.
func DayBounds(key string) (time.Time, time.Time, error) {
	start, err := ParseDateKey(key)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return start, start.AddDate(0, 0, 1), nil
}

// WeekStart returns the Monday (midnight UTC) of an ISO week key.
func WeekStart(key string) (time.Time, error) {
	if err := ValidateWeekKey(key); err != nil {
		return time.Time{}, err
	}
	year, _ := strconv.Atoi(key[:4])
	week, _ := strconv.Atoi(key[6:])

	// January 4th always falls in ISO week 1 of its year.
	jan4 := time.Date(year, time.January, 4, 0, 0, 0, 0, time.UTC)
	weekday := int(jan4.Weekday())
	if weekday == 0 {
		weekday = 7
	}
	week1Monday := jan4.AddDate(0, 0, 1-weekday)
	return week1Monday.AddDate(0, 0, (week-1)*7), nil
}

// WeekBounds returns the half-open UTC interval [monday, next monday) of a week key.
func WeekBounds(key string) (time.Time, time.Time, error) {
	start, err := WeekStart(key)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return start, start.AddDate(0, 0, 7), nil
}

// MonthBounds returns the half-open UTC interval [1st, 1st of next month) of a month key.
func MonthBounds(key string) (time.Time, time.Time, error) {
	if err := ValidateMonthKey(key); err != nil {
		return time.Time{}, time.Time{}, err
	}
	start, err := time.Parse(MonthKeyLayout, key)
	if err != nil {
		return time.Time{}, time.Time{}, ErrInvalidPeriodKey
	}
	return start, start.AddDate(0, 1, 0), nil
}

// PreviousDateKey resolves "yesterday" relative to the given date key.
func PreviousDateKey(key string) (string, error) {
	day, err := ParseDateKey(key)
	if err != nil {
		return "", err
	}
	return DateKeyOf(day.AddDate(0, 0, -1)), nil
}

// PreviousWeekKey decrements a week key by one ISO week, rolling the year
// over when needed.
func PreviousWeekKey(key string) (string, error) {
	start, err := WeekStart(key)
	if err != nil {
		return "", err
	}
	return WeekKeyOf(start.AddDate(0, 0, -7)), nil
}

// PreviousMonthKey decrements a month key by one calendar month, rolling
// the year over when needed.
func PreviousMonthKey(key string) (string, error) {
	start, _, err := MonthBounds(key)
	if err != nil {
		return "", err
	}
	return MonthKeyOf(start.AddDate(0, -1, 0)), nil
}

// WeekDates lists the seven date keys of an ISO week, Monday first.
func WeekDates(key string) ([]string, error) {
	start, err := WeekStart(key)
	if err != nil {
		return nil, err
	}
	dates := make([]string, 7)
	for i := range dates {
		dates[i] = DateKeyOf(start.AddDate(0, 0, i))
	}
	return dates, nil
}

// MonthWeekKeys lists the distinct ISO week keys overlapping a month, in order.
func MonthWeekKeys(key string) ([]string, error) {
	start, end, err := MonthBounds(key)
	if err != nil {
		return nil, err
	}
	var weeks []string
	seen := make(map[string]bool)
	for d := start; d.Before(end); d = d.AddDate(0, 0, 1) {
		wk := WeekKeyOf(d)
		if !seen[wk] {
			seen[wk] = true
			weeks = append(weeks, wk)
		}
	}
	return weeks, nil
}

// DaysInMonth returns the number of calendar days covered by a month key.
func DaysInMonth(key string) (int, error) {
	start, end, err := MonthBounds(key)
	if err != nil {
		return 0, err
	}
	return int(end.Sub(start).Hours() / 24), nil
}

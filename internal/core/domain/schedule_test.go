package domain_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grepguru/zenlock-engine/internal/core/domain"
)

func TestNewSchedule(t *testing.T) {
	t.Run("Success: Normalizes repeat days", func(t *testing.T) {
		s, err := domain.NewSchedule("Morning Focus", "08:30", "10:00", []int{5, 1, 1, 3}, true, 10)

		require.NoError(t, err)
		assert.NotEmpty(t, s.ID)
		assert.Equal(t, []int{1, 3, 5}, s.RepeatDays)
		assert.True(t, s.Enabled)
		assert.Equal(t, 10, s.PreNotifyMinutes)
	})

	t.Run("Error: Empty name", func(t *testing.T) {
		_, err := domain.NewSchedule("   ", "08:30", "10:00", nil, true, 0)
		assert.Equal(t, domain.ErrScheduleNameEmpty, err)
	})

	t.Run("Error: Name too long", func(t *testing.T) {
		_, err := domain.NewSchedule(strings.Repeat("x", 101), "08:30", "10:00", nil, true, 0)
		assert.Equal(t, domain.ErrScheduleNameTooLong, err)
	})

	t.Run("Error: Malformed clock times", func(t *testing.T) {
		_, err := domain.NewSchedule("Focus", "8:30", "10:00", nil, true, 0)
		assert.Equal(t, domain.ErrInvalidClockTime, err)

		_, err = domain.NewSchedule("Focus", "08:30", "24:00", nil, true, 0)
		assert.Equal(t, domain.ErrInvalidClockTime, err)
	})

	t.Run("Error: Start after end", func(t *testing.T) {
		_, err := domain.NewSchedule("Focus", "10:00", "08:30", nil, true, 0)
		assert.Equal(t, domain.ErrInvalidTimeWindow, err)
	})

	t.Run("Error: Repeat day out of range", func(t *testing.T) {
		_, err := domain.NewSchedule("Focus", "08:30", "10:00", []int{7}, true, 0)
		assert.Equal(t, domain.ErrInvalidRepeatDays, err)
	})

	t.Run("Error: Negative pre-notify", func(t *testing.T) {
		_, err := domain.NewSchedule("Focus", "08:30", "10:00", nil, true, -1)
		assert.Equal(t, domain.ErrInvalidPreNotify, err)
	})
}

func TestSchedule_Update(t *testing.T) {
	s, err := domain.NewSchedule("Focus", "08:30", "10:00", []int{1}, true, 0)
	require.NoError(t, err)
	created := s.CreatedAt

	t.Run("Success", func(t *testing.T) {
		require.NoError(t, s.Update("Deep Work", "09:00", "11:00", []int{2, 4}, false, 5))
		assert.Equal(t, "Deep Work", s.Name)
		assert.Equal(t, []int{2, 4}, s.RepeatDays)
		assert.False(t, s.Enabled)
		assert.Equal(t, created, s.CreatedAt)
	})

	t.Run("Error: Invalid update leaves schedule untouched", func(t *testing.T) {
		err := s.Update("", "09:00", "11:00", nil, true, 0)
		assert.Equal(t, domain.ErrScheduleNameEmpty, err)
		assert.Equal(t, "Deep Work", s.Name)
	})
}

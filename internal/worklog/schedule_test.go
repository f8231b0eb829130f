package worklog

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseClock(t *testing.T) {
	h, m, err := ParseClock("08:30")
	require.NoError(t, err)
	assert.Equal(t, 8, h)
	assert.Equal(t, 30, m)

	for _, bad := range []string{"", "8", "24:00", "12:60", "ab:cd"} {
		_, _, err := ParseClock(bad)
		assert.Error(t, err, bad)
	}
}

func TestSendAt(t *testing.T) {
	loc, err := time.LoadLocation("Asia/Dubai")
	require.NoError(t, err)
	due := time.Date(2025, 6, 1, 0, 0, 0, 0, loc)

	t.Run("end time still ahead schedules same day", func(t *testing.T) {
		now := time.Date(2025, 6, 1, 23, 0, 0, 0, loc)
		at, immediate, err := SendAt(due, "23:59", now, loc)
		require.NoError(t, err)
		assert.False(t, immediate)
		assert.Equal(t, time.Date(2025, 6, 1, 23, 59, 0, 0, loc), at)
	})

	t.Run("end time just passed rolls to next day", func(t *testing.T) {
		now := time.Date(2025, 6, 1, 23, 59, 1, 0, loc)
		at, immediate, err := SendAt(due, "23:59", now, loc)
		require.NoError(t, err)
		assert.False(t, immediate)
		assert.Equal(t, time.Date(2025, 6, 2, 23, 59, 0, 0, loc), at)
	})

	t.Run("exact end time counts as passed", func(t *testing.T) {
		now := time.Date(2025, 6, 1, 17, 0, 0, 0, loc)
		at, immediate, err := SendAt(due, "17:00", now, loc)
		require.NoError(t, err)
		assert.False(t, immediate)
		assert.Equal(t, time.Date(2025, 6, 2, 17, 0, 0, 0, loc), at)
	})

	t.Run("due date well in the past sends immediately", func(t *testing.T) {
		now := time.Date(2025, 6, 10, 9, 0, 0, 0, loc)
		_, immediate, err := SendAt(due, "17:00", now, loc)
		require.NoError(t, err)
		assert.True(t, immediate)
	})

	t.Run("bad clock string", func(t *testing.T) {
		_, _, err := SendAt(due, "later", time.Now(), loc)
		assert.Error(t, err)
	})
}

package worklog

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCheckEditable(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	t.Run("everything allowed when rules are off", func(t *testing.T) {
		d := CheckEditable(false, 0, false, now.Add(-1000*time.Hour), now)
		assert.Equal(t, DenialNone, d)
	})

	t.Run("only latest editable", func(t *testing.T) {
		d := CheckEditable(true, 0, false, now, now)
		assert.Equal(t, DenialNotLatest, d)

		d = CheckEditable(true, 0, true, now, now)
		assert.Equal(t, DenialNone, d)
	})

	t.Run("time window", func(t *testing.T) {
		created := now.Add(-49 * time.Hour)
		d := CheckEditable(false, 48, true, created, now)
		assert.Equal(t, DenialWindowExpired, d)

		created = now.Add(-47 * time.Hour)
		d = CheckEditable(false, 48, true, created, now)
		assert.Equal(t, DenialNone, d)
	})

	t.Run("latest rule checked before window", func(t *testing.T) {
		created := now.Add(-49 * time.Hour)
		d := CheckEditable(true, 48, false, created, now)
		assert.Equal(t, DenialNotLatest, d)
	})
}

package handler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"stockbrain-system/internal/database/models"
)

func TestSweepIDsContinuesPastFailures(t *testing.T) {
	var attempted []int64
	claim := func(ctx context.Context, id int64) error {
		attempted = append(attempted, id)
		if id == 2 {
			return errors.New("smtp rejected")
		}
		return nil
	}

	sent, failed := sweepIDs(context.Background(), []int64{1, 2, 3}, claim)

	assert.Equal(t, []int64{1, 2, 3}, attempted)
	assert.Equal(t, 2, sent)
	assert.Equal(t, 1, failed)
}

func TestSweepIDsEmptyBatch(t *testing.T) {
	sent, failed := sweepIDs(context.Background(), nil, func(ctx context.Context, id int64) error {
		t.Fatal("claim must not run for an empty batch")
		return nil
	})
	assert.Zero(t, sent)
	assert.Zero(t, failed)
}

func TestApplyStandardHours(t *testing.T) {
	hours := models.StandardWorkHours{StartTime: "08:00", EndTime: "17:00"}

	start, end := applyStandardHours("", "", hours)
	assert.Equal(t, "08:00", start)
	assert.Equal(t, "17:00", end)

	start, end = applyStandardHours("06:30", "", hours)
	assert.Equal(t, "06:30", start)
	assert.Equal(t, "17:00", end)

	start, end = applyStandardHours("06:30", "15:00", hours)
	assert.Equal(t, "06:30", start)
	assert.Equal(t, "15:00", end)
}

func TestNotificationView(t *testing.T) {
	at := time.Date(2025, 6, 1, 17, 0, 0, 0, time.UTC)

	view := notificationView(gin.H{}, "workshop@example.com", &at)
	assert.Equal(t, "workshop@example.com", view["email_recipient"])
	assert.Equal(t, &at, view["email_scheduled_at"])

	view = notificationView(gin.H{}, "", nil)
	assert.Nil(t, view["email_recipient"])
	assert.Nil(t, view["email_scheduled_at"])
}

package mailer

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"stockbrain-system/internal/database/models"
)

func TestShouldSend(t *testing.T) {
	base := models.WorklogEmailSettings{
		SendNew:        true,
		SendEdit:       true,
		RecipientEmail: "workshop@example.com",
	}

	t.Run("send for new and edit when enabled", func(t *testing.T) {
		assert.True(t, ShouldSend(base, EventNew, "jdoe"))
		assert.True(t, ShouldSend(base, EventEdit, "jdoe"))
	})

	t.Run("event toggle wins", func(t *testing.T) {
		s := base
		s.SendNew = false
		assert.False(t, ShouldSend(s, EventNew, "jdoe"))
		assert.True(t, ShouldSend(s, EventEdit, "jdoe"))
	})

	t.Run("no recipient means no mail", func(t *testing.T) {
		s := base
		s.RecipientEmail = ""
		assert.False(t, ShouldSend(s, EventNew, "jdoe"))
	})

	t.Run("user allow list", func(t *testing.T) {
		s := base
		s.Users = models.StringArray{"alice", "bob"}
		assert.True(t, ShouldSend(s, EventNew, "alice"))
		assert.False(t, ShouldSend(s, EventNew, "jdoe"))
	})

	t.Run("unknown event", func(t *testing.T) {
		assert.False(t, ShouldSend(base, Event("deleted"), "jdoe"))
	})
}

func TestDocumentRendering(t *testing.T) {
	d := Document{
		WLNumber:   "WL-250307-John-Doe",
		AuthorName: "John Doe",
		Edited:     false,
	}
	assert.Equal(t, "New work log: WL-250307-John-Doe (John Doe)", d.Subject())

	d.Edited = true
	assert.Equal(t, "Work log updated: WL-250307-John-Doe (John Doe)", d.Subject())

	d.Entries = []DocumentEntry{{
		Location:       "Truck 12",
		JobDescription: "Replace brake pads",
		State:          "DONE",
		Quantity:       "2",
		Unit:           "PAIR",
	}}
	body := d.Body()
	assert.Contains(t, body, "WL-250307-John-Doe")
	assert.Contains(t, body, "Truck 12")
	assert.Contains(t, body, "Replace brake pads")
	assert.Contains(t, body, "2 PAIR")
}

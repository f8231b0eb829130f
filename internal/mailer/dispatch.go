package mailer

import "stockbrain-system/internal/database/models"

// Event distinguishes which work log action triggered a notification.
type Event string

const (
	EventNew  Event = "new"
	EventEdit Event = "edit"
)

// ShouldSend decides whether the e-mail settings call for a notification for
// the given event and author. The checks run in order: the event's toggle,
// then a configured recipient, then the author allow-list. An empty user list
// means every author triggers mail.
func ShouldSend(settings models.WorklogEmailSettings, event Event, authorUsername string) bool {
	switch event {
	case EventNew:
		if !settings.SendNew {
			return false
		}
	case EventEdit:
		if !settings.SendEdit {
			return false
		}
	default:
		return false
	}
	if settings.RecipientEmail == "" {
		return false
	}
	if len(settings.Users) == 0 {
		return true
	}
	return settings.Users.Contains(authorUsername)
}

package handler

import (
	"context"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"

	"stockbrain-system/internal/database/models"
	"stockbrain-system/internal/mailer"
	"stockbrain-system/internal/worklog"
)

// EmailDispatcher owns the notification lifecycle for work logs: deciding
// whether a save triggers mail, scheduling it for the end of the working
// day, and delivering pending mail. It is shared between the HTTP handlers
// and the sweep binary.
type EmailDispatcher struct {
	db     *gorm.DB
	loc    *time.Location
	sender mailer.Sender // nil = build from the admin SMTP settings per send
}

func NewEmailDispatcher(db *gorm.DB, loc *time.Location) *EmailDispatcher {
	return &EmailDispatcher{db: db, loc: loc}
}

// NewEmailDispatcherWithSender injects a fixed sender, used in tests.
func NewEmailDispatcherWithSender(db *gorm.DB, loc *time.Location, sender mailer.Sender) *EmailDispatcher {
	return &EmailDispatcher{db: db, loc: loc, sender: sender}
}

func (d *EmailDispatcher) senderFor() (mailer.Sender, error) {
	if d.sender != nil {
		return d.sender, nil
	}
	var settings models.AdminEmailSettings
	if err := d.db.Where("singleton = ?", 1).First(&settings).Error; err != nil {
		return nil, err
	}
	return mailer.NewSMTPSender(settings), nil
}

// HandleEvent runs after a work log save commits. It re-reads the dispatch
// settings, and either queues the mail for the scheduled send time or
// delivers it right away. Returns the recipient the mail goes to and the
// scheduled send time; both are empty when no mail is owed or the mail was
// delivered immediately.
func (d *EmailDispatcher) HandleEvent(ctx context.Context, workLogID int64, event mailer.Event) (recipient string, scheduledAt *time.Time, err error) {
	var settings models.WorklogEmailSettings
	if err := d.db.Where("singleton = ?", 1).First(&settings).Error; err != nil {
		return "", nil, err
	}

	var wl models.WorkLog
	if err := d.db.Preload("Author").First(&wl, workLogID).Error; err != nil {
		return "", nil, err
	}

	authorUsername := ""
	if wl.Author != nil {
		authorUsername = wl.Author.Username
	}
	if !mailer.ShouldSend(settings, event, authorUsername) {
		return "", nil, nil
	}

	now := time.Now().In(d.loc)
	sendTime := now

	if settings.EnableScheduledSend {
		endTime := wl.EndTime
		if endTime == "" {
			var hours models.StandardWorkHours
			if err := d.db.Where("singleton = ?", 1).First(&hours).Error; err != nil {
				return "", nil, err
			}
			endTime = hours.EndTime
		}
		target, immediate, err := worklog.SendAt(wl.DueDate, endTime, now, d.loc)
		if err != nil {
			return "", nil, err
		}
		if !immediate {
			if err := d.db.Model(&models.WorkLog{}).Where("id = ?", wl.ID).Updates(map[string]interface{}{
				"email_pending":      true,
				"email_event":        string(event),
				"email_scheduled_at": target,
				"email_sent_at":      nil,
			}).Error; err != nil {
				return "", nil, err
			}
			return settings.RecipientEmail, &target, nil
		}
		sendTime = target
	}

	// Immediate path still goes through the claim so a concurrent sweep
	// cannot double-send.
	if err := d.db.Model(&models.WorkLog{}).Where("id = ?", wl.ID).Updates(map[string]interface{}{
		"email_pending":      true,
		"email_event":        string(event),
		"email_scheduled_at": sendTime,
		"email_sent_at":      nil,
	}).Error; err != nil {
		return "", nil, err
	}
	if err := d.ClaimAndSend(ctx, wl.ID); err != nil {
		return "", nil, err
	}
	return settings.RecipientEmail, nil, nil
}

// ClaimAndSend atomically claims a pending work log mail and delivers it.
// The conditional UPDATE guarantees a single winner when the sweep and a
// send-now request race; losing callers see zero rows and back off. Delivery
// failure reverts the claim so the next sweep retries.
func (d *EmailDispatcher) ClaimAndSend(ctx context.Context, workLogID int64) error {
	now := time.Now().In(d.loc)
	claim := d.db.Model(&models.WorkLog{}).
		Where("id = ? AND email_pending", workLogID).
		Updates(map[string]interface{}{
			"email_pending":      false,
			"email_scheduled_at": nil,
			"email_sent_at":      now,
		})
	if claim.Error != nil {
		return claim.Error
	}
	if claim.RowsAffected == 0 {
		return nil
	}

	if err := d.deliver(workLogID); err != nil {
		// Re-arm with the claim time so the next sweep retries it.
		revertErr := d.db.Model(&models.WorkLog{}).Where("id = ?", workLogID).Updates(map[string]interface{}{
			"email_pending":      true,
			"email_scheduled_at": now,
			"email_sent_at":      nil,
		}).Error
		if revertErr != nil {
			return fmt.Errorf("delivery failed (%v) and revert failed: %w", err, revertErr)
		}
		return err
	}
	return nil
}

// SweepDue claims and sends every pending mail whose scheduled time has
// passed. Returns how many were delivered and how many failed.
func (d *EmailDispatcher) SweepDue(ctx context.Context) (sent, failed int, err error) {
	var ids []int64
	err = d.db.Model(&models.WorkLog{}).
		Where("email_pending AND email_scheduled_at <= ?", time.Now().In(d.loc)).
		Pluck("id", &ids).Error
	if err != nil {
		return 0, 0, err
	}
	sent, failed = sweepIDs(ctx, ids, d.ClaimAndSend)
	return sent, failed, nil
}

// sweepIDs attempts each claim independently. One undeliverable work log is
// logged and counted, never allowed to block the rest of the batch.
func sweepIDs(ctx context.Context, ids []int64, claim func(context.Context, int64) error) (sent, failed int) {
	for _, id := range ids {
		if err := claim(ctx, id); err != nil {
			log.Printf("work log %d: delivery failed: %v", id, err)
			failed++
			continue
		}
		sent++
	}
	return sent, failed
}

func (d *EmailDispatcher) deliver(workLogID int64) error {
	var settings models.WorklogEmailSettings
	if err := d.db.Where("singleton = ?", 1).First(&settings).Error; err != nil {
		return err
	}
	if settings.RecipientEmail == "" {
		return fmt.Errorf("no recipient configured")
	}

	var wl models.WorkLog
	if err := d.db.
		Preload("Author").
		Preload("Entries").
		Preload("Entries.VehicleLocation").
		Preload("Entries.State").
		Preload("Entries.Unit").
		First(&wl, workLogID).Error; err != nil {
		return err
	}

	doc := buildDocument(wl)
	sender, err := d.senderFor()
	if err != nil {
		return err
	}
	return sender.Send([]string{settings.RecipientEmail}, doc.Subject(), doc.Body())
}

func buildDocument(wl models.WorkLog) mailer.Document {
	doc := mailer.Document{
		WLNumber:  wl.WLNumber,
		DueDate:   wl.DueDate,
		StartTime: wl.StartTime,
		EndTime:   wl.EndTime,
		Notes:     wl.Notes,
		Edited:    wl.EmailEvent == string(mailer.EventEdit),
	}
	if wl.Author != nil {
		doc.AuthorName = wl.Author.Firstname + " " + wl.Author.Lastname
		if doc.AuthorName == " " {
			doc.AuthorName = wl.Author.Username
		}
	}

	for _, entry := range wl.Entries {
		de := mailer.DocumentEntry{
			JobDescription:  entry.JobDescription,
			PartDescription: entry.PartDescription,
			Notes:           entry.Notes,
			TimeHours:       entry.TimeHours.String(),
		}
		if entry.VehicleLocation != nil {
			de.Location = entry.VehicleLocation.Name
		}
		if entry.State != nil {
			de.State = entry.State.ShortName
		}
		if entry.PartRack != "" || entry.PartBox != "" {
			de.PartLocation = fmt.Sprintf("%s--%s--%s", entry.PartRack, entry.PartShelf, entry.PartBox)
		}
		if entry.Quantity != nil {
			de.Quantity = entry.Quantity.String()
		}
		if entry.Unit != nil {
			de.Unit = entry.Unit.Code
		}
		doc.Entries = append(doc.Entries, de)
	}
	return doc
}

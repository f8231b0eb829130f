package mailer

import (
	"fmt"
	"net/smtp"
	"strings"

	"stockbrain-system/internal/database/models"
)

// Sender delivers a single message. The SMTP implementation is behind this
// interface so the scheduling and dispatch logic can be tested without a
// mail server.
type Sender interface {
	Send(to []string, subject, body string) error
}

// SMTPSender sends through the SMTP relay configured in the admin e-mail
// settings.
type SMTPSender struct {
	settings models.AdminEmailSettings
}

func NewSMTPSender(settings models.AdminEmailSettings) *SMTPSender {
	return &SMTPSender{settings: settings}
}

func (s *SMTPSender) Send(to []string, subject, body string) error {
	if s.settings.SMTPHost == "" {
		return fmt.Errorf("smtp host is not configured")
	}
	addr := fmt.Sprintf("%s:%d", s.settings.SMTPHost, s.settings.SMTPPort)

	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s\r\n", s.settings.FromEmail)
	fmt.Fprintf(&msg, "To: %s\r\n", strings.Join(to, ", "))
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/plain; charset=\"utf-8\"\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(body)

	var auth smtp.Auth
	if s.settings.SMTPUsername != "" {
		auth = smtp.PlainAuth("", s.settings.SMTPUsername, s.settings.SMTPPassword, s.settings.SMTPHost)
	}
	if err := smtp.SendMail(addr, auth, s.settings.FromEmail, to, []byte(msg.String())); err != nil {
		return fmt.Errorf("failed to send mail via %s: %w", addr, err)
	}
	return nil
}

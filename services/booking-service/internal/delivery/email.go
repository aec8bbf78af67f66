package delivery

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
)

// EmailSink sends reminders via unauthenticated SMTP (Mailpit-compatible).
type EmailSink struct {
	addr string
	from string
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewEmailSink(host string, port string, from string) *EmailSink {
	host = strings.TrimSpace(host)
	port = strings.TrimSpace(port)
	from = strings.TrimSpace(from)
	if from == "" {
		from = "no-reply@apptdesk.local"
	}
	return &EmailSink{
		addr: fmt.Sprintf("%s:%s", host, port),
		from: from,
		send: smtp.SendMail,
	}
}

func (s *EmailSink) Deliver(_ context.Context, r Reminder) error {
	to := strings.TrimSpace(r.Email)
	if to == "" {
		return ErrNoRecipient
	}
	msg := buildMessage(s.from, to, r.Title, r.Message)
	return s.send(s.addr, nil, s.from, []string{to}, []byte(msg))
}

func buildMessage(from, to, subject, body string) string {
	// Minimal RFC 5322 message; enough for Mailpit and most SMTP relays.
	return fmt.Sprintf(
		"From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n%s\r\n",
		from,
		to,
		subject,
		body,
	)
}

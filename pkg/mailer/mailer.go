/**
 * @description
 * This package sends plain-text transactional email over SMTP. The password
 * reset OTP flow is its only caller, so it stays deliberately small: one
 * message shape, PLAIN auth, no attachments or HTML.
 */
package mailer

import (
	"fmt"
	"log"
	"net/smtp"
	"strings"
)

// SMTPMailer sends mail through a single SMTP relay.
type SMTPMailer struct {
	host     string
	port     string
	username string
	password string
	from     string
}

// NewSMTPMailer creates a mailer for the given relay. Username and password
// may be empty for relays that accept unauthenticated mail (local dev).
func NewSMTPMailer(host, port, username, password, from string) *SMTPMailer {
	return &SMTPMailer{
		host:     host,
		port:     port,
		username: username,
		password: password,
		from:     from,
	}
}

// Send delivers one plain-text message.
func (m *SMTPMailer) Send(to, subject, body string) error {
	msg := strings.Join([]string{
		"From: " + m.from,
		"To: " + to,
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=\"utf-8\"",
		"",
		body,
	}, "\r\n")

	addr := m.host + ":" + m.port
	var auth smtp.Auth
	if m.username != "" {
		auth = smtp.PlainAuth("", m.username, m.password, m.host)
	}

	if err := smtp.SendMail(addr, auth, m.from, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("failed to send mail to %s: %w", to, err)
	}
	log.Printf("level=info component=mailer msg=\"mail sent\" to=%s subject=%q", to, subject)
	return nil
}

// LogMailer writes mail to the process log instead of sending it. Used when
// no SMTP relay is configured.
type LogMailer struct{}

func (LogMailer) Send(to, subject, body string) error {
	log.Printf("level=warn component=mailer mode=fallback msg=\"mail not sent\" to=%s subject=%q body=%q", to, subject, body)
	return nil
}

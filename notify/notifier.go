// Package notify delivers best-effort account notifications. A failed
// send is reported but never rolls back the operation that triggered it.
package notify

import (
	"fmt"
	"net/smtp"
	"os"
)

// Notifier sends a single fire-and-forget message.
type Notifier interface {
	Send(to, subject, body string) error
}

// SMTPNotifier delivers mail over plain SMTP.
type SMTPNotifier struct {
	addr string
	from string
	auth smtp.Auth
}

// NewSMTPNotifierFromEnv builds a notifier from SMTP_* environment
// variables. Returns nil when no host is configured.
func NewSMTPNotifierFromEnv() *SMTPNotifier {
	host := os.Getenv("SMTP_HOST")
	if host == "" {
		return nil
	}
	port := os.Getenv("SMTP_PORT")
	if port == "" {
		port = "587"
	}
	from := os.Getenv("SMTP_FROM")
	var auth smtp.Auth
	if user := os.Getenv("SMTP_USERNAME"); user != "" {
		auth = smtp.PlainAuth("", user, os.Getenv("SMTP_PASSWORD"), host)
	}
	return &SMTPNotifier{
		addr: host + ":" + port,
		from: from,
		auth: auth,
	}
}

// Send delivers one message.
func (n *SMTPNotifier) Send(to, subject, body string) error {
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s\r\n", n.from, to, subject, body)
	return smtp.SendMail(n.addr, n.auth, n.from, []string{to}, []byte(msg))
}

// NoopNotifier drops every message; used when SMTP is not configured.
type NoopNotifier struct{}

// Send discards the message.
func (NoopNotifier) Send(to, subject, body string) error { return nil }

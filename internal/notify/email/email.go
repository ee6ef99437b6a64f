// Package email sends alert notifications over SMTP.
package email

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/linnemanlabs/pulse/internal/triage"
)

// Config carries the SMTP connection and addressing settings.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	To       string
}

// Notifier sends alerts as plain-text email.
type Notifier struct {
	cfg  Config
	send func(addr string, auth smtp.Auth, from string, to []string, msg []byte) error
}

// New creates a new email notifier.
func New(cfg Config) *Notifier {
	return &Notifier{cfg: cfg, send: smtp.SendMail}
}

// Name implements notify.Notifier.
func (n *Notifier) Name() string { return "email" }

// Send delivers the alert to the configured recipient.
func (n *Notifier) Send(ctx context.Context, a *triage.Alert) error {
	if n.cfg.Host == "" || n.cfg.To == "" {
		return fmt.Errorf("email: smtp host or recipient not configured")
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("email: %w", err)
	}

	var auth smtp.Auth
	if n.cfg.Username != "" {
		auth = smtp.PlainAuth("", n.cfg.Username, n.cfg.Password, n.cfg.Host)
	}

	addr := fmt.Sprintf("%s:%d", n.cfg.Host, n.cfg.Port)
	msg := buildMessage(n.cfg.From, n.cfg.To, a)

	if err := n.send(addr, auth, n.cfg.From, []string{n.cfg.To}, msg); err != nil {
		return fmt.Errorf("email: send: %w", err)
	}
	return nil
}

func buildMessage(from, to string, a *triage.Alert) []byte {
	var b strings.Builder

	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject(a))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	b.WriteString("\r\n")

	fmt.Fprintf(&b, "A %s urgency brand mention was detected on %s.\r\n\r\n", a.Urgency, a.Source)
	fmt.Fprintf(&b, "Author:    %s\r\n", a.Author)
	fmt.Fprintf(&b, "Sentiment: %s (%.2f)\r\n", a.SentimentLabel, a.SentimentScore)
	if a.URL != "" {
		fmt.Fprintf(&b, "Link:      %s\r\n", a.URL)
	}
	fmt.Fprintf(&b, "\r\nMention:\r\n%s\r\n", a.Content)
	fmt.Fprintf(&b, "\r\nRecommended response:\r\n%s\r\n", a.Recommendation)
	fmt.Fprintf(&b, "\r\n-- \r\npulse alert %s\r\n", a.ID)

	return []byte(b.String())
}

// subject builds the Subject header from enum and config values only, never
// from mention content, so header injection is not a concern.
func subject(a *triage.Alert) string {
	return fmt.Sprintf("[%s] Brand mention alert on %s", a.Urgency, a.Source)
}

package email

import (
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"
)

// Sender delivers outbound mail. The SMTP implementation is used when the
// server is configured; otherwise NoopSender logs and drops.
type Sender interface {
	Send(to, subject, body string) error
}

type SMTPSender struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

func (s *SMTPSender) Send(to, subject, body string) error {
	addr := fmt.Sprintf("%s:%d", s.Host, s.Port)
	var auth smtp.Auth
	if s.Username != "" {
		auth = smtp.PlainAuth("", s.Username, s.Password, s.Host)
	}

	msg := strings.Join([]string{
		"From: " + s.From,
		"To: " + to,
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=\"utf-8\"",
		"",
		body,
	}, "\r\n")

	return smtp.SendMail(addr, auth, s.From, []string{to}, []byte(msg))
}

type NoopSender struct {
	Logger *slog.Logger
}

func (s *NoopSender) Send(to, subject, _ string) error {
	s.Logger.Info("email suppressed: no SMTP configured", "to", to, "subject", subject)
	return nil
}

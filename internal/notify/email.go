package notify

import (
	"context"
	"fmt"
	"net"
	"net/smtp"
	"strings"
	"time"

	"warden/internal/config"
	"warden/internal/report"
)

type emailAdapter struct {
	host     string
	port     int
	from     string
	to       []string
	username string
	password string
}

func newEmailAdapter(cfg config.EmailChannel) *emailAdapter {
	port := cfg.SMTPPort
	if port <= 0 {
		port = 587
	}
	return &emailAdapter{
		host:     strings.TrimSpace(cfg.SMTPHost),
		port:     port,
		from:     strings.TrimSpace(cfg.From),
		to:       cfg.To,
		username: strings.TrimSpace(cfg.Username),
		password: cfg.Password,
	}
}

func (e *emailAdapter) ID() string { return "email" }

func (e *emailAdapter) Send(ctx context.Context, rep *report.Report) error {
	addr := net.JoinHostPort(e.host, fmt.Sprintf("%d", e.port))
	var auth smtp.Auth
	if e.username != "" {
		auth = smtp.PlainAuth("", e.username, e.password, e.host)
	}

	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s\r\n", e.from)
	fmt.Fprintf(&msg, "To: %s\r\n", strings.Join(e.to, ", "))
	fmt.Fprintf(&msg, "Subject: %s\r\n", messageTitle(rep))
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(strings.ReplaceAll(messageBody(rep), "\n", "\r\n"))
	msg.WriteString("\r\n")

	// smtp.SendMail has no context hook, so run it in a goroutine and
	// let the caller's deadline abandon a stuck connection.
	done := make(chan error, 1)
	go func() {
		done <- smtp.SendMail(addr, auth, e.from, e.to, []byte(msg.String()))
	}()
	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("send email notification: %w", err)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(30 * time.Second):
		return fmt.Errorf("send email notification: timed out")
	}
}

// Package notify emails run summaries after scraping executions.
// Delivery failures are the caller's to log; nothing here is fatal to a
// run.
package notify

import (
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"
	"time"

	"github.com/jordan-wright/email"

	"github.com/bidintel/bidwatch/scrape/internal/store"
)

// Config holds SMTP delivery settings. An empty Host or To list
// disables notifications.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	To       []string
}

func (c *Config) defaults() {
	if c.Port <= 0 {
		c.Port = 587
	}
	if c.From == "" && len(c.To) > 0 {
		c.From = c.To[0]
	}
}

// Notifier sends run summary emails.
type Notifier struct {
	cfg    Config
	logger *slog.Logger
}

// New creates a Notifier.
func New(cfg Config, logger *slog.Logger) *Notifier {
	cfg.defaults()
	if logger == nil {
		logger = slog.Default()
	}
	return &Notifier{cfg: cfg, logger: logger}
}

// Enabled reports whether delivery is configured.
func (n *Notifier) Enabled() bool {
	return n.cfg.Host != "" && len(n.cfg.To) > 0
}

// RunFinished emails the outcome of one scraping execution.
func (n *Notifier) RunFinished(r *store.RunLog) error {
	if !n.Enabled() {
		return nil
	}

	mail := email.NewEmail()
	mail.From = fmt.Sprintf("bidwatch <%s>", n.cfg.From)
	mail.To = n.cfg.To
	mail.Subject = summarySubject(r)
	mail.Text = []byte(summaryBody(r))

	addr := fmt.Sprintf("%s:%d", n.cfg.Host, n.cfg.Port)
	var auth smtp.Auth
	if n.cfg.Username != "" {
		auth = smtp.PlainAuth("", n.cfg.Username, n.cfg.Password, n.cfg.Host)
	}
	if err := mail.Send(addr, auth); err != nil {
		return fmt.Errorf("notify: send: %w", err)
	}
	n.logger.Info("notify: run summary sent", "to", n.cfg.To, "kind", r.Kind)
	return nil
}

func summarySubject(r *store.RunLog) string {
	outcome := "completed"
	if !r.Success {
		outcome = "FAILED"
	}
	return fmt.Sprintf("bidwatch: %s run %s (%d new)", r.Kind, outcome, r.NewRecords)
}

func summaryBody(r *store.RunLog) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Scraping run: %s\n", r.Kind)
	fmt.Fprintf(&b, "Started:  %s\n", time.UnixMilli(r.StartedAt).UTC().Format(time.RFC3339))
	fmt.Fprintf(&b, "Duration: %s\n\n", time.Duration(r.DurationMs)*time.Millisecond)
	fmt.Fprintf(&b, "Attempted: %d\n", r.Attempted)
	fmt.Fprintf(&b, "New:       %d\n", r.NewRecords)
	fmt.Fprintf(&b, "Skipped:   %d\n", r.Skipped)
	fmt.Fprintf(&b, "Errors:    %d\n", r.Errors)
	if r.Notes != "" {
		fmt.Fprintf(&b, "\nNotes: %s\n", r.Notes)
	}
	return b.String()
}

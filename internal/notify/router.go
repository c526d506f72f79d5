package notify

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"warden/internal/checker"
	"warden/internal/config"
	"warden/internal/faults"
	"warden/internal/logging"
	"warden/internal/report"
)

// Adapter delivers one report to one destination.
type Adapter interface {
	ID() string
	Send(ctx context.Context, rep *report.Report) error
}

// Channel pairs an adapter with its routing policy.
type Channel struct {
	Adapter     Adapter
	MinSeverity checker.Severity
	Retries     int
}

const (
	defaultRetries = 2
	backoffBase    = time.Second
	backoffCap     = 30 * time.Second
)

// Router fans completed reports out to the configured channels. Each
// delivery runs in its own goroutine so a slow or failing channel never
// delays the others. Close waits for in-flight deliveries to finish.
type Router struct {
	channels []Channel
	logger   *slog.Logger
	backoff  time.Duration
	wg       sync.WaitGroup
}

// NewRouter builds a router over the given channels. A router with no
// channels is valid and drops every report.
func NewRouter(channels []Channel, logger *slog.Logger) *Router {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Router{
		channels: channels,
		logger:   logger.With(logging.String(logging.FieldComponent, "notify")),
		backoff:  backoffBase,
	}
}

// BuildChannels constructs channels for every enabled entry in the
// configuration. The configuration is assumed validated, so severity
// strings parse and required fields are present.
func BuildChannels(cfg *config.Config) ([]Channel, error) {
	var channels []Channel
	add := func(adapter Adapter, minSeverity string, retries int) error {
		sev, err := checker.ParseSeverity(minSeverity)
		if err != nil {
			return fmt.Errorf("channel %s: %w", adapter.ID(), err)
		}
		if retries < 0 {
			retries = defaultRetries
		}
		channels = append(channels, Channel{Adapter: adapter, MinSeverity: sev, Retries: retries})
		return nil
	}

	ch := cfg.Channels
	if ch.Ntfy.Enabled {
		if err := add(newNtfyAdapter(ch.Ntfy), ch.Ntfy.MinSeverity, ch.Ntfy.Retries); err != nil {
			return nil, err
		}
	}
	if ch.Discord.Enabled {
		if err := add(newDiscordAdapter(ch.Discord), ch.Discord.MinSeverity, ch.Discord.Retries); err != nil {
			return nil, err
		}
	}
	if ch.Teams.Enabled {
		if err := add(newTeamsAdapter(ch.Teams), ch.Teams.MinSeverity, ch.Teams.Retries); err != nil {
			return nil, err
		}
	}
	if ch.Webhook.Enabled {
		if err := add(newWebhookAdapter(ch.Webhook), ch.Webhook.MinSeverity, ch.Webhook.Retries); err != nil {
			return nil, err
		}
	}
	if ch.Email.Enabled {
		if err := add(newEmailAdapter(ch.Email), ch.Email.MinSeverity, ch.Email.Retries); err != nil {
			return nil, err
		}
	}
	return channels, nil
}

// HandleReport routes one report. Channels whose minimum severity is
// above the report's overall severity are skipped.
func (r *Router) HandleReport(ctx context.Context, rep *report.Report) {
	if r == nil || rep == nil {
		return
	}
	for _, ch := range r.channels {
		if rep.OverallSeverity < ch.MinSeverity {
			continue
		}
		r.wg.Add(1)
		go func(ch Channel) {
			defer r.wg.Done()
			r.deliver(ctx, ch, rep)
		}(ch)
	}
}

// Close blocks until all in-flight deliveries have completed.
func (r *Router) Close() {
	if r == nil {
		return
	}
	r.wg.Wait()
}

func (r *Router) deliver(ctx context.Context, ch Channel, rep *report.Report) {
	var lastErr error
	for attempt := 0; attempt <= ch.Retries; attempt++ {
		if attempt > 0 {
			if !sleepBackoff(ctx, r.backoff, attempt) {
				return
			}
		}
		lastErr = ch.Adapter.Send(ctx, rep)
		if lastErr == nil {
			r.logger.Debug("notification delivered",
				logging.String(logging.FieldChannel, ch.Adapter.ID()),
				logging.String(logging.FieldPath, rep.Path),
				logging.Int("attempt", attempt+1))
			return
		}
		if ctx.Err() != nil {
			return
		}
		if !faults.IsTransient(lastErr) {
			r.logger.Warn("notification rejected permanently",
				logging.String(logging.FieldChannel, ch.Adapter.ID()),
				logging.String(logging.FieldPath, rep.Path),
				logging.Error(lastErr))
			return
		}
	}
	r.logger.Warn("notification dropped after retries",
		logging.String(logging.FieldChannel, ch.Adapter.ID()),
		logging.String(logging.FieldPath, rep.Path),
		logging.Int("attempts", ch.Retries+1),
		logging.Error(lastErr))
}

func sleepBackoff(ctx context.Context, base time.Duration, attempt int) bool {
	delay := base << (attempt - 1)
	if delay > backoffCap {
		delay = backoffCap
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

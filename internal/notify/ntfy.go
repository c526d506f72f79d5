package notify

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"warden/internal/checker"
	"warden/internal/config"
	"warden/internal/faults"
	"warden/internal/report"
)

type ntfyAdapter struct {
	endpoint string
	client   *http.Client
}

func newNtfyAdapter(cfg config.NtfyChannel) *ntfyAdapter {
	timeout := time.Duration(cfg.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &ntfyAdapter{
		endpoint: strings.TrimSpace(cfg.Topic),
		client:   &http.Client{Timeout: timeout},
	}
}

func (n *ntfyAdapter) ID() string { return "ntfy" }

func (n *ntfyAdapter) Send(ctx context.Context, rep *report.Report) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(messageBody(rep)))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	req.Header.Set("Title", messageTitle(rep))
	req.Header.Set("Tags", strings.Join([]string{"warden", rep.OverallSeverity.String()}, ","))
	if priority := ntfyPriority(rep.OverallSeverity); priority != "" {
		req.Header.Set("Priority", priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return faults.Wrap(faults.ErrTransient, "ntfy", "send", "", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		statusErr := fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
		return faults.Wrap(classifyStatus(resp.StatusCode), "ntfy", "send", "", statusErr)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func ntfyPriority(sev checker.Severity) string {
	switch sev {
	case checker.SeverityCritical:
		return "urgent"
	case checker.SeverityError:
		return "high"
	default:
		return ""
	}
}

package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"warden/internal/config"
	"warden/internal/report"
)

type webhookAdapter struct {
	url       string
	authToken string
	client    *http.Client
}

func newWebhookAdapter(cfg config.WebhookChannel) *webhookAdapter {
	return &webhookAdapter{
		url:       strings.TrimSpace(cfg.URL),
		authToken: strings.TrimSpace(cfg.AuthToken),
		client:    &http.Client{Timeout: 10 * time.Second},
	}
}

func (w *webhookAdapter) ID() string { return "webhook" }

// Send posts the full report as JSON. Unlike the chat channels this
// adapter carries every finding, not a truncated summary.
func (w *webhookAdapter) Send(ctx context.Context, rep *report.Report) error {
	body, err := json.Marshal(rep)
	if err != nil {
		return fmt.Errorf("encode webhook payload: %w", err)
	}
	var headers map[string]string
	if w.authToken != "" {
		headers = map[string]string{"Authorization": "Bearer " + w.authToken}
	}
	return postJSON(ctx, w.client, w.url, "webhook", body, headers)
}

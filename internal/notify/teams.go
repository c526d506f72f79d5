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

type teamsAdapter struct {
	webhookURL string
	client     *http.Client
}

func newTeamsAdapter(cfg config.TeamsChannel) *teamsAdapter {
	return &teamsAdapter{
		webhookURL: strings.TrimSpace(cfg.WebhookURL),
		client:     &http.Client{Timeout: 10 * time.Second},
	}
}

func (t *teamsAdapter) ID() string { return "teams" }

func (t *teamsAdapter) Send(ctx context.Context, rep *report.Report) error {
	card := map[string]any{
		"@type":      "MessageCard",
		"@context":   "http://schema.org/extensions",
		"themeColor": severityHex(rep.OverallSeverity),
		"summary":    messageTitle(rep),
		"title":      messageTitle(rep),
		"text":       strings.ReplaceAll(messageBody(rep), "\n", "\n\n"),
	}
	body, err := json.Marshal(card)
	if err != nil {
		return fmt.Errorf("encode teams payload: %w", err)
	}
	return postJSON(ctx, t.client, t.webhookURL, "teams", body, nil)
}

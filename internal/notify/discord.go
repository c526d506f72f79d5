package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"warden/internal/config"
	"warden/internal/faults"
	"warden/internal/report"
)

type discordAdapter struct {
	webhookURL string
	client     *http.Client
}

func newDiscordAdapter(cfg config.DiscordChannel) *discordAdapter {
	return &discordAdapter{
		webhookURL: strings.TrimSpace(cfg.WebhookURL),
		client:     &http.Client{Timeout: 10 * time.Second},
	}
}

func (d *discordAdapter) ID() string { return "discord" }

type discordEmbed struct {
	Title       string              `json:"title"`
	Description string              `json:"description"`
	Color       int                 `json:"color"`
	Fields      []discordEmbedField `json:"fields,omitempty"`
}

type discordEmbedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

func (d *discordAdapter) Send(ctx context.Context, rep *report.Report) error {
	embed := discordEmbed{
		Title:       messageTitle(rep),
		Description: messageBody(rep),
		Color:       severityColor(rep.OverallSeverity),
		Fields: []discordEmbedField{
			{Name: "Path", Value: rep.Path, Inline: true},
			{Name: "Event", Value: string(rep.EventKind), Inline: true},
			{Name: "Findings", Value: fmt.Sprintf("%d", len(rep.Findings)), Inline: true},
		},
	}
	body, err := json.Marshal(map[string]any{"embeds": []discordEmbed{embed}})
	if err != nil {
		return fmt.Errorf("encode discord payload: %w", err)
	}
	return postJSON(ctx, d.client, d.webhookURL, "discord", body, nil)
}

// postJSON performs a webhook-style POST and classifies any non-2xx
// status so the router knows whether retrying can help.
func postJSON(ctx context.Context, client *http.Client, url, channel string, body []byte, headers map[string]string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build %s request: %w", channel, err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "application/json")
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := client.Do(req)
	if err != nil {
		return faults.Wrap(faults.ErrTransient, channel, "send", "", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		statusErr := fmt.Errorf("%s returned %d: %s", channel, resp.StatusCode, strings.TrimSpace(string(snippet)))
		return faults.Wrap(classifyStatus(resp.StatusCode), channel, "send", "", statusErr)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// classifyStatus separates permanent rejections (bad payload, dead
// webhook) from statuses that deserve a retry.
func classifyStatus(status int) error {
	switch {
	case status == http.StatusRequestTimeout, status == http.StatusTooManyRequests:
		return faults.ErrTransient
	case status >= 400 && status < 500:
		return faults.ErrDelivery
	default:
		return faults.ErrTransient
	}
}

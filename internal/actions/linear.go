package actions

import (
	"bytes"
	"context"
	"encoding/json"
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

// linearIntegration creates issues through Linear's GraphQL endpoint.
// Unlike the REST trackers this is a single-URL API, so apiBase points
// at the graphql endpoint itself.
type linearIntegration struct {
	apiBase string
	apiKey  string
	teamID  string
	client  *http.Client
}

func newLinearIntegration(cfg config.LinearIntegration) *linearIntegration {
	return &linearIntegration{
		apiBase: strings.TrimSpace(cfg.APIBase),
		apiKey:  strings.TrimSpace(cfg.APIKey),
		teamID:  strings.TrimSpace(cfg.TeamID),
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

func (l *linearIntegration) ID() string { return "linear" }

const linearCreateMutation = `mutation IssueCreate($input: IssueCreateInput!) {
  issueCreate(input: $input) {
    success
    issue { identifier url }
  }
}`

func (l *linearIntegration) CreateAction(ctx context.Context, rep *report.Report, f checker.Finding) (string, error) {
	payload := map[string]any{
		"query": linearCreateMutation,
		"variables": map[string]any{
			"input": map[string]any{
				"teamId":      l.teamID,
				"title":       issueTitle(rep.Path, f),
				"description": issueBody(rep, f),
			},
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("encode linear issue: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, l.apiBase, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build linear request: %w", err)
	}
	req.Header.Set("Authorization", l.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := l.client.Do(req)
	if err != nil {
		return "", faults.Wrap(faults.ErrIntegration, "linear", "create issue", "", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		statusErr := fmt.Errorf("linear returned %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
		return "", faults.Wrap(faults.ErrIntegration, "linear", "create issue", "", statusErr)
	}

	var reply struct {
		Data struct {
			IssueCreate struct {
				Success bool `json:"success"`
				Issue   struct {
					Identifier string `json:"identifier"`
					URL        string `json:"url"`
				} `json:"issue"`
			} `json:"issueCreate"`
		} `json:"data"`
		Errors []struct {
			Message string `json:"message"`
		} `json:"errors"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&reply); err != nil {
		return "", fmt.Errorf("decode linear response: %w", err)
	}
	if len(reply.Errors) > 0 {
		gqlErr := fmt.Errorf("linear rejected issueCreate: %s", reply.Errors[0].Message)
		return "", faults.Wrap(faults.ErrIntegration, "linear", "create issue", "", gqlErr)
	}
	if !reply.Data.IssueCreate.Success {
		return "", faults.Wrap(faults.ErrIntegration, "linear", "create issue", "issueCreate reported failure", nil)
	}
	if url := reply.Data.IssueCreate.Issue.URL; url != "" {
		return url, nil
	}
	return reply.Data.IssueCreate.Issue.Identifier, nil
}

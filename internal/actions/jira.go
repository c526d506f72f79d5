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

type jiraIntegration struct {
	baseURL    string
	email      string
	apiToken   string
	projectKey string
	issueType  string
	client     *http.Client
}

func newJiraIntegration(cfg config.JiraIntegration) *jiraIntegration {
	return &jiraIntegration{
		baseURL:    strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		email:      strings.TrimSpace(cfg.Email),
		apiToken:   strings.TrimSpace(cfg.APIToken),
		projectKey: strings.TrimSpace(cfg.ProjectKey),
		issueType:  strings.TrimSpace(cfg.IssueType),
		client:     &http.Client{Timeout: 15 * time.Second},
	}
}

func (j *jiraIntegration) ID() string { return "jira" }

func (j *jiraIntegration) CreateAction(ctx context.Context, rep *report.Report, f checker.Finding) (string, error) {
	payload := map[string]any{
		"fields": map[string]any{
			"project":     map[string]string{"key": j.projectKey},
			"summary":     issueTitle(rep.Path, f),
			"description": issueBody(rep, f),
			"issuetype":   map[string]string{"name": j.issueType},
			"labels":      []string{"warden", f.Severity.String()},
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("encode jira issue: %w", err)
	}

	url := j.baseURL + "/rest/api/2/issue"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build jira request: %w", err)
	}
	req.SetBasicAuth(j.email, j.apiToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := j.client.Do(req)
	if err != nil {
		return "", faults.Wrap(faults.ErrIntegration, "jira", "create issue", "", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		statusErr := fmt.Errorf("jira returned %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
		return "", faults.Wrap(faults.ErrIntegration, "jira", "create issue", "", statusErr)
	}

	var created struct {
		Key  string `json:"key"`
		Self string `json:"self"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return "", fmt.Errorf("decode jira response: %w", err)
	}
	if created.Key != "" {
		return fmt.Sprintf("%s/browse/%s", j.baseURL, created.Key), nil
	}
	return created.Self, nil
}

package actions

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"warden/internal/checker"
	"warden/internal/config"
	"warden/internal/faults"
	"warden/internal/report"
)

const gitlabDefaultAPIBase = "https://gitlab.com/api/v4"

type gitlabIntegration struct {
	apiBase   string
	token     string
	projectID string
	client    *http.Client
}

func newGitLabIntegration(cfg config.GitLabIntegration) *gitlabIntegration {
	apiBase := strings.TrimRight(strings.TrimSpace(cfg.APIBase), "/")
	if apiBase == "" {
		apiBase = gitlabDefaultAPIBase
	}
	return &gitlabIntegration{
		apiBase:   apiBase,
		token:     strings.TrimSpace(cfg.Token),
		projectID: strings.TrimSpace(cfg.ProjectID),
		client:    &http.Client{Timeout: 15 * time.Second},
	}
}

func (g *gitlabIntegration) ID() string { return "gitlab" }

func (g *gitlabIntegration) CreateAction(ctx context.Context, rep *report.Report, f checker.Finding) (string, error) {
	payload := map[string]any{
		"title":       issueTitle(rep.Path, f),
		"description": issueBody(rep, f),
		"labels":      "warden," + f.Severity.String(),
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("encode gitlab issue: %w", err)
	}

	endpoint := fmt.Sprintf("%s/projects/%s/issues", g.apiBase, url.PathEscape(g.projectID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build gitlab request: %w", err)
	}
	req.Header.Set("PRIVATE-TOKEN", g.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return "", faults.Wrap(faults.ErrIntegration, "gitlab", "create issue", "", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		statusErr := fmt.Errorf("gitlab returned %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
		return "", faults.Wrap(faults.ErrIntegration, "gitlab", "create issue", "", statusErr)
	}

	var created struct {
		IID    int    `json:"iid"`
		WebURL string `json:"web_url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return "", fmt.Errorf("decode gitlab response: %w", err)
	}
	if created.WebURL != "" {
		return created.WebURL, nil
	}
	return fmt.Sprintf("%s!%d", g.projectID, created.IID), nil
}

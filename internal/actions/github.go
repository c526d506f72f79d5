package actions

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"warden/internal/checker"
	"warden/internal/config"
	"warden/internal/faults"
	"warden/internal/report"
)

const githubDefaultAPIBase = "https://api.github.com"

type githubIntegration struct {
	apiBase string
	token   string
	repo    string
	client  *http.Client
}

func newGitHubIntegration(cfg config.GitHubIntegration) *githubIntegration {
	apiBase := strings.TrimRight(strings.TrimSpace(cfg.APIBase), "/")
	if apiBase == "" {
		apiBase = githubDefaultAPIBase
	}
	return &githubIntegration{
		apiBase: apiBase,
		token:   strings.TrimSpace(cfg.Token),
		repo:    strings.TrimSpace(cfg.Repo),
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

func (g *githubIntegration) ID() string { return "github" }

func (g *githubIntegration) CreateAction(ctx context.Context, rep *report.Report, f checker.Finding) (string, error) {
	payload := map[string]any{
		"title":  issueTitle(rep.Path, f),
		"body":   issueBody(rep, f),
		"labels": []string{"warden", f.Severity.String()},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("encode github issue: %w", err)
	}

	url := fmt.Sprintf("%s/repos/%s/issues", g.apiBase, g.repo)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build github request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("Authorization", "Bearer "+g.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return "", faults.Wrap(faults.ErrIntegration, "github", "create issue", "", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		statusErr := fmt.Errorf("github returned %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
		return "", faults.Wrap(faults.ErrIntegration, "github", "create issue", "", statusErr)
	}

	var created struct {
		Number  int    `json:"number"`
		HTMLURL string `json:"html_url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return "", fmt.Errorf("decode github response: %w", err)
	}
	if created.HTMLURL != "" {
		return created.HTMLURL, nil
	}
	return fmt.Sprintf("%s#%d", g.repo, created.Number), nil
}

func issueTitle(path string, f checker.Finding) string {
	return fmt.Sprintf("[%s] %s: %s", f.CheckerID, filepath.Base(path), truncate(f.Message, 80))
}

func issueBody(rep *report.Report, f checker.Finding) string {
	var b strings.Builder
	fmt.Fprintf(&b, "**File:** `%s`\n", rep.Path)
	fmt.Fprintf(&b, "**Checker:** %s\n", f.CheckerID)
	fmt.Fprintf(&b, "**Severity:** %s\n", f.Severity)
	if f.Line > 0 {
		fmt.Fprintf(&b, "**Line:** %d\n", f.Line)
	}
	fmt.Fprintf(&b, "\n%s\n", f.Message)
	if f.Suggestion != "" {
		fmt.Fprintf(&b, "\n**Suggestion:** %s\n", f.Suggestion)
	}
	fmt.Fprintf(&b, "\n_Reported by warden at %s._\n", rep.GeneratedAt.UTC().Format(time.RFC3339))
	return b.String()
}

// truncate shortens s to at most limit runes, counting in runes so a
// multi-byte character is never split mid-sequence.
func truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return string(runes[:limit-3]) + "..."
}

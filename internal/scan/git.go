package scan

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

const gitTimeout = 60 * time.Second

// sincePatterns is the allowlist for the --since argument. Anything
// outside it is rejected so the value can be passed to git verbatim.
var sincePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^\d+\s+(second|minute|hour|day|week|month|year)s?\s+ago$`),
	regexp.MustCompile(`(?i)^yesterday$`),
	regexp.MustCompile(`(?i)^today$`),
	regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`),
	regexp.MustCompile(`^\d{4}-\d{2}-\d{2}\s+\d{2}:\d{2}(:\d{2})?$`),
}

// ValidateSince reports whether a --since value matches one of the
// accepted time expressions ("2 hours ago", "yesterday", "2026-01-15").
func ValidateSince(since string) bool {
	since = strings.TrimSpace(since)
	if since == "" {
		return false
	}
	for _, pattern := range sincePatterns {
		if pattern.MatchString(since) {
			return true
		}
	}
	return false
}

// gitChangedFiles lists files touched in the repository at root. With a
// since expression it walks the commit log; without one it diffs the
// last commit. Paths are returned absolute, deduplicated, and filtered
// to files that still exist.
func gitChangedFiles(ctx context.Context, root, since string) ([]string, error) {
	if since != "" && !ValidateSince(since) {
		return nil, fmt.Errorf("invalid --since value %q", since)
	}

	ctx, cancel := context.WithTimeout(ctx, gitTimeout)
	defer cancel()

	var cmd *exec.Cmd
	if since != "" {
		cmd = exec.CommandContext(ctx, "git", "-C", root, "log", "--name-only", "--pretty=format:", "--since="+since)
	} else {
		cmd = exec.CommandContext(ctx, "git", "-C", root, "diff", "--name-only", "HEAD~1", "HEAD")
	}

	out, err := cmd.Output()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return nil, fmt.Errorf("git: %s", strings.TrimSpace(string(exitErr.Stderr)))
		}
		return nil, fmt.Errorf("git: %w", err)
	}

	seen := make(map[string]struct{})
	var files []string
	for _, line := range strings.Split(string(out), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if _, dup := seen[line]; dup {
			continue
		}
		seen[line] = struct{}{}
		files = append(files, filepath.Join(root, line))
	}
	return files, nil
}

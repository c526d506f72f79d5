package checker

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"regexp"

	"warden/internal/watch"
)

type secretPattern struct {
	name     string
	severity Severity
	re       *regexp.Regexp
}

var secretPatterns = []secretPattern{
	{
		name:     "AWS access key",
		severity: SeverityCritical,
		re:       regexp.MustCompile(`\bAKIA[0-9A-Z]{16}\b`),
	},
	{
		name:     "private key material",
		severity: SeverityCritical,
		re:       regexp.MustCompile(`-----BEGIN (?:RSA |EC |DSA |OPENSSH )?PRIVATE KEY-----`),
	},
	{
		name:     "hardcoded credential",
		severity: SeverityError,
		re:       regexp.MustCompile(`(?i)\b(api[_-]?key|secret|token|passwd|password)\b\s*[:=]\s*["'][^"']{8,}["']`),
	},
}

// secretScanChecker looks for credentials committed into files. It never
// mutates files; secrets are for humans to rotate, not for tools to edit.
type secretScanChecker struct {
	desc Descriptor
}

func newSecretScanChecker(opts Options) (Checker, error) {
	return &secretScanChecker{
		desc: Descriptor{
			ID:             "secretscan",
			Extensions:     opts.Extensions,
			Kinds:          defaultKinds(opts.Kinds),
			AutoFixAllowed: false,
		},
	}, nil
}

func (c *secretScanChecker) Describe() Descriptor {
	return c.desc
}

func (c *secretScanChecker) Run(ctx context.Context, target Target) ([]Finding, error) {
	if target.Kind == watch.KindDeleted {
		return nil, nil
	}
	file, err := os.Open(target.Path)
	if err != nil {
		return nil, NewExecutionError(c.desc.ID, err)
	}
	defer file.Close()

	var findings []Finding
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		if lineNo%512 == 0 && ctx.Err() != nil {
			return nil, ctx.Err()
		}
		line := scanner.Text()
		for _, pattern := range secretPatterns {
			if pattern.re.MatchString(line) {
				findings = append(findings, Finding{
					CheckerID:  c.desc.ID,
					Severity:   pattern.severity,
					Message:    fmt.Sprintf("possible %s", pattern.name),
					Suggestion: "move the value to an environment variable or secret store and rotate it",
					Line:       lineNo,
				})
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, NewExecutionError(c.desc.ID, err)
	}
	return findings, nil
}

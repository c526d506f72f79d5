package checker

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"

	"warden/internal/fileutil"
	"warden/internal/watch"
)

// whitespaceChecker flags trailing whitespace and missing final newlines.
// It is the repository's reference fix-capable checker: when fixing is
// authorized it rewrites the file atomically and reports the findings
// with fix_applied set.
type whitespaceChecker struct {
	desc                Descriptor
	requireFinalNewline bool
}

func newWhitespaceChecker(opts Options) (Checker, error) {
	requireFinal := true
	if v, ok := opts.Settings["require_final_newline"]; ok {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "true", "":
			requireFinal = true
		case "false":
			requireFinal = false
		default:
			return nil, fmt.Errorf("require_final_newline: expected true or false, got %q", v)
		}
	}
	return &whitespaceChecker{
		desc: Descriptor{
			ID:             "whitespace",
			Extensions:     opts.Extensions,
			Kinds:          defaultKinds(opts.Kinds),
			AutoFixAllowed: true,
		},
		requireFinalNewline: requireFinal,
	}, nil
}

func (c *whitespaceChecker) Describe() Descriptor {
	return c.desc
}

func (c *whitespaceChecker) Run(ctx context.Context, target Target) ([]Finding, error) {
	if target.Kind == watch.KindDeleted {
		return nil, nil
	}
	data, err := os.ReadFile(target.Path)
	if err != nil {
		return nil, NewExecutionError(c.desc.ID, err)
	}
	if bytes.IndexByte(data, 0) >= 0 {
		// Binary file, nothing to check.
		return nil, nil
	}

	lines := bytes.Split(data, []byte("\n"))
	var dirtyLines []int
	for i, line := range lines {
		if i%1024 == 0 && ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if trimmed := bytes.TrimRight(line, " \t"); len(trimmed) != len(line) {
			dirtyLines = append(dirtyLines, i+1)
		}
	}
	missingNewline := c.requireFinalNewline && len(data) > 0 && data[len(data)-1] != '\n'

	if len(dirtyLines) == 0 && !missingNewline {
		return nil, nil
	}

	fixed := false
	if target.AllowFix {
		if err := ctx.Err(); err != nil {
			// Superseded mid-run: report without mutating the file.
			return nil, err
		}
		if err := fileutil.WriteFileAtomic(target.Path, cleanContent(lines, missingNewline)); err != nil {
			return nil, NewExecutionError(c.desc.ID, fmt.Errorf("apply whitespace fix: %w", err))
		}
		fixed = true
	}

	var findings []Finding
	if len(dirtyLines) > 0 {
		findings = append(findings, Finding{
			CheckerID:  c.desc.ID,
			Severity:   SeverityWarning,
			Message:    fmt.Sprintf("trailing whitespace on %d line(s)", len(dirtyLines)),
			FixApplied: fixed,
			Suggestion: "strip trailing whitespace",
			Line:       dirtyLines[0],
		})
	}
	if missingNewline {
		findings = append(findings, Finding{
			CheckerID:  c.desc.ID,
			Severity:   SeverityWarning,
			Message:    "file does not end with a newline",
			FixApplied: fixed,
			Suggestion: "add a final newline",
		})
	}
	return findings, nil
}

func cleanContent(lines [][]byte, addFinalNewline bool) []byte {
	cleaned := make([][]byte, len(lines))
	for i, line := range lines {
		cleaned[i] = bytes.TrimRight(line, " \t")
	}
	out := bytes.Join(cleaned, []byte("\n"))
	if addFinalNewline && len(out) > 0 && out[len(out)-1] != '\n' {
		out = append(out, '\n')
	}
	return out
}

func defaultKinds(kinds []watch.Kind) []watch.Kind {
	if len(kinds) > 0 {
		return kinds
	}
	return []watch.Kind{watch.KindCreated, watch.KindModified, watch.KindRenamed}
}

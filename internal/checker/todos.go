package checker

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"regexp"

	"warden/internal/watch"
)

var todoRe = regexp.MustCompile(`\b(TODO|FIXME|HACK|XXX)\b[:\s]`)

// todoChecker surfaces annotation comments so they show up in reports
// instead of rotting in the tree.
type todoChecker struct {
	desc Descriptor
}

func newTodoChecker(opts Options) (Checker, error) {
	return &todoChecker{
		desc: Descriptor{
			ID:             "todos",
			Extensions:     opts.Extensions,
			Kinds:          defaultKinds(opts.Kinds),
			AutoFixAllowed: false,
		},
	}, nil
}

func (c *todoChecker) Describe() Descriptor {
	return c.desc
}

func (c *todoChecker) Run(ctx context.Context, target Target) ([]Finding, error) {
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
		match := todoRe.FindStringSubmatch(scanner.Text())
		if match == nil {
			continue
		}
		severity := SeverityInfo
		if match[1] == "FIXME" || match[1] == "HACK" || match[1] == "XXX" {
			severity = SeverityWarning
		}
		findings = append(findings, Finding{
			CheckerID: c.desc.ID,
			Severity:  severity,
			Message:   fmt.Sprintf("%s annotation", match[1]),
			Line:      lineNo,
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, NewExecutionError(c.desc.ID, err)
	}
	return findings, nil
}

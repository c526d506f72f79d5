package report

import (
	"testing"

	"warden/internal/checker"
	"warden/internal/watch"
)

func TestAggregateEmptyRunsIsInfo(t *testing.T) {
	rep := Aggregate("/tmp/a.go", watch.KindModified, nil)
	if rep.OverallSeverity != checker.SeverityInfo {
		t.Fatalf("expected info for empty report, got %s", rep.OverallSeverity)
	}
	if len(rep.Findings) != 0 {
		t.Fatalf("expected no findings, got %d", len(rep.Findings))
	}
	if rep.Path != "/tmp/a.go" || rep.EventKind != watch.KindModified {
		t.Fatal("path or kind not carried into report")
	}
}

func TestAggregateOverallSeverityIsOrderIndependent(t *testing.T) {
	critical := checker.Finding{CheckerID: "a", Severity: checker.SeverityCritical, Message: "bad"}
	info := checker.Finding{CheckerID: "b", Severity: checker.SeverityInfo, Message: "note"}

	forward := Aggregate("/f", watch.KindModified, []CheckerRun{
		{CheckerID: "a", Findings: []checker.Finding{critical}},
		{CheckerID: "b", Findings: []checker.Finding{info}},
	})
	reverse := Aggregate("/f", watch.KindModified, []CheckerRun{
		{CheckerID: "b", Findings: []checker.Finding{info}},
		{CheckerID: "a", Findings: []checker.Finding{critical}},
	})
	if forward.OverallSeverity != checker.SeverityCritical || reverse.OverallSeverity != checker.SeverityCritical {
		t.Fatalf("overall severity depends on order: %s vs %s", forward.OverallSeverity, reverse.OverallSeverity)
	}
}

func TestAggregatePreservesOrderAndCollapsesDuplicates(t *testing.T) {
	rep := Aggregate("/f", watch.KindModified, []CheckerRun{
		{CheckerID: "a", Findings: []checker.Finding{
			{CheckerID: "a", Severity: checker.SeverityWarning, Message: "first"},
			{CheckerID: "a", Severity: checker.SeverityWarning, Message: "dup"},
			{CheckerID: "a", Severity: checker.SeverityWarning, Message: "dup"},
			{CheckerID: "a", Severity: checker.SeverityWarning, Message: "last"},
		}},
		{CheckerID: "b", Findings: []checker.Finding{
			{CheckerID: "b", Severity: checker.SeverityInfo, Message: "dup"},
		}},
	})

	want := []string{"first", "dup", "last", "dup"}
	if len(rep.Findings) != len(want) {
		t.Fatalf("expected %d findings, got %d", len(want), len(rep.Findings))
	}
	for i, message := range want {
		if rep.Findings[i].Message != message {
			t.Errorf("finding %d: expected %q, got %q", i, message, rep.Findings[i].Message)
		}
	}
}

func TestReportCounters(t *testing.T) {
	rep := Aggregate("/f", watch.KindModified, []CheckerRun{
		{CheckerID: "a", Findings: []checker.Finding{
			{CheckerID: "a", Severity: checker.SeverityWarning, Message: "w", FixApplied: true},
			{CheckerID: "a", Severity: checker.SeverityError, Message: "e"},
			{CheckerID: "a", Severity: checker.SeverityCritical, Message: "c"},
		}},
	})

	if got := rep.FixesApplied(); got != 1 {
		t.Errorf("expected 1 fix, got %d", got)
	}
	if got := rep.CountAtOrAbove(checker.SeverityError); got != 2 {
		t.Errorf("expected 2 findings at error or above, got %d", got)
	}
	if got := rep.CountAtOrAbove(checker.SeverityInfo); got != 3 {
		t.Errorf("expected 3 findings at info or above, got %d", got)
	}
}

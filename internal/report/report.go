package report

import (
	"time"

	"warden/internal/checker"
	"warden/internal/watch"
)

// Report is the merged outcome of all checkers run against one stabilized
// event. Reports are immutable once emitted.
type Report struct {
	Path            string            `json:"path"`
	EventKind       watch.Kind        `json:"event_kind"`
	Findings        []checker.Finding `json:"findings"`
	OverallSeverity checker.Severity  `json:"overall_severity"`
	GeneratedAt     time.Time         `json:"generated_at"`
}

// FixesApplied counts findings that were auto-fixed during the run.
func (r *Report) FixesApplied() int {
	count := 0
	for _, f := range r.Findings {
		if f.FixApplied {
			count++
		}
	}
	return count
}

// CountAtOrAbove counts findings at or above the given severity.
func (r *Report) CountAtOrAbove(min checker.Severity) int {
	count := 0
	for _, f := range r.Findings {
		if f.Severity >= min {
			count++
		}
	}
	return count
}

// CheckerRun carries one checker's ordered findings into aggregation.
type CheckerRun struct {
	CheckerID string
	Findings  []checker.Finding
}

// Aggregate merges per-checker findings into a single Report. Finding
// order within each checker is preserved and checkers appear in the order
// given; identical consecutive (checker, message) findings are collapsed.
// OverallSeverity is the maximum finding severity, or info when there are
// no findings, which makes it independent of checker ordering.
func Aggregate(path string, kind watch.Kind, runs []CheckerRun) *Report {
	rep := &Report{
		Path:            path,
		EventKind:       kind,
		OverallSeverity: checker.SeverityInfo,
		GeneratedAt:     time.Now().UTC(),
	}
	for _, run := range runs {
		var prev *checker.Finding
		for _, f := range run.Findings {
			if prev != nil && prev.CheckerID == f.CheckerID && prev.Message == f.Message {
				continue
			}
			rep.Findings = append(rep.Findings, f)
			rep.OverallSeverity = checker.MaxSeverity(rep.OverallSeverity, f.Severity)
			last := rep.Findings[len(rep.Findings)-1]
			prev = &last
		}
	}
	return rep
}

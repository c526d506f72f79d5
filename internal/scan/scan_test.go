package scan

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"warden/internal/checker"
	"warden/internal/dispatch"
	"warden/internal/report"
	"warden/internal/watch"
)

func writeFile(t *testing.T, path, contents string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func testDispatcher(t *testing.T, sinks ...dispatch.Sink) *dispatch.Dispatcher {
	t.Helper()
	registry, err := checker.NewRegistry(checker.Builtins(), []checker.InstanceConfig{
		{ID: "todos", Enabled: true},
	})
	if err != nil {
		t.Fatalf("build registry: %v", err)
	}
	d, err := dispatch.New(dispatch.Options{
		Registry:    registry,
		Generations: dispatch.StaticGenerations(),
		Sinks:       sinks,
	})
	if err != nil {
		t.Fatalf("build dispatcher: %v", err)
	}
	return d
}

type captureSink struct {
	mu      sync.Mutex
	reports []*report.Report
}

func (s *captureSink) HandleReport(_ context.Context, rep *report.Report) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reports = append(s.reports, rep)
}

// Batch mode routes reports through the same sinks as watch mode, so a
// scan finding still reaches notifications and tracker integrations.
func TestScannerForwardsReportsToSinks(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "flagged.go"), "// FIXME: broken\n")

	sink := &captureSink{}
	scanner, err := New(Options{
		Root:       root,
		Ignorer:    watch.NewIgnorer(nil),
		Dispatcher: testDispatcher(t, sink),
	})
	if err != nil {
		t.Fatalf("new scanner: %v", err)
	}
	if _, err := scanner.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}

	sink.mu.Lock()
	defer sink.mu.Unlock()
	if len(sink.reports) != 1 {
		t.Fatalf("expected 1 report forwarded to sinks, got %d", len(sink.reports))
	}
	if len(sink.reports[0].Findings) == 0 {
		t.Fatal("forwarded report should carry the finding")
	}
}

func TestScannerRunCountsFindings(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "clean.go"), "package main\n")
	writeFile(t, filepath.Join(root, "dirty.go"), "package main\n// TODO: refactor\n// FIXME: broken\n")
	writeFile(t, filepath.Join(root, "sub", "more.go"), "// HACK: works on my machine\n")

	scanner, err := New(Options{
		Root:       root,
		Ignorer:    watch.NewIgnorer(nil),
		Dispatcher: testDispatcher(t),
	})
	if err != nil {
		t.Fatalf("new scanner: %v", err)
	}

	summary, err := scanner.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if summary.FilesScanned != 3 {
		t.Fatalf("expected 3 files scanned, got %d", summary.FilesScanned)
	}
	if summary.FilesWithFindings != 2 {
		t.Fatalf("expected 2 files with findings, got %d", summary.FilesWithFindings)
	}
	if summary.Findings[checker.SeverityInfo] != 1 {
		t.Fatalf("expected 1 info finding, got %d", summary.Findings[checker.SeverityInfo])
	}
	if summary.Findings[checker.SeverityWarning] != 2 {
		t.Fatalf("expected 2 warning findings, got %d", summary.Findings[checker.SeverityWarning])
	}
	if !summary.HasAtOrAbove(checker.SeverityWarning) {
		t.Fatal("HasAtOrAbove(warning) should be true")
	}
	if summary.HasAtOrAbove(checker.SeverityError) {
		t.Fatal("HasAtOrAbove(error) should be false")
	}
	if summary.TotalFindings() != 3 {
		t.Fatalf("expected 3 total findings, got %d", summary.TotalFindings())
	}
}

func TestScannerWalkSkipsIgnoredDirs(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "kept.go"), "package main\n")
	writeFile(t, filepath.Join(root, "node_modules", "dep.js"), "// TODO: vendored\n")
	writeFile(t, filepath.Join(root, ".git", "config"), "[core]\n")

	scanner, err := New(Options{
		Root:       root,
		Ignorer:    watch.NewIgnorer(nil),
		Dispatcher: testDispatcher(t),
	})
	if err != nil {
		t.Fatalf("new scanner: %v", err)
	}

	summary, err := scanner.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if summary.FilesScanned != 1 {
		t.Fatalf("ignored directories should be skipped, scanned %d files", summary.FilesScanned)
	}
	if summary.TotalFindings() != 0 {
		t.Fatalf("expected no findings, got %d", summary.TotalFindings())
	}
}

func TestScannerInvalidSinceIsFatal(t *testing.T) {
	scanner, err := New(Options{
		Root:       t.TempDir(),
		Since:      "1 hour ago; rm -rf /",
		Dispatcher: testDispatcher(t),
	})
	if err != nil {
		t.Fatalf("new scanner: %v", err)
	}
	if _, err := scanner.Run(context.Background()); err == nil {
		t.Fatal("invalid --since must fail the scan, not widen it")
	}
}

func TestScannerDiffFallsBackWithoutGit(t *testing.T) {
	// A plain temp dir is not a git repository, so diff mode falls back
	// to a full walk instead of failing.
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.txt"), "plain\n")

	scanner, err := New(Options{
		Root:       root,
		Diff:       true,
		Ignorer:    watch.NewIgnorer(nil),
		Dispatcher: testDispatcher(t),
	})
	if err != nil {
		t.Fatalf("new scanner: %v", err)
	}

	summary, err := scanner.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if summary.FilesScanned != 1 {
		t.Fatalf("expected fallback walk to scan 1 file, got %d", summary.FilesScanned)
	}
}

func TestValidateSince(t *testing.T) {
	valid := []string{
		"2 hours ago",
		"1 day ago",
		"30 minutes ago",
		"yesterday",
		"Yesterday",
		"today",
		"2026-01-15",
		"2026-01-15 09:30",
		"2026-01-15 09:30:00",
	}
	for _, v := range valid {
		if !ValidateSince(v) {
			t.Errorf("ValidateSince(%q) = false, want true", v)
		}
	}

	invalid := []string{
		"",
		"last tuesday",
		"2 fortnights ago",
		"2026-1-5",
		"1 hour ago; rm -rf /",
		"--since=yesterday",
		"$(whoami)",
	}
	for _, v := range invalid {
		if ValidateSince(v) {
			t.Errorf("ValidateSince(%q) = true, want false", v)
		}
	}
}

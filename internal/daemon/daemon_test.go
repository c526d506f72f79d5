package daemon

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"warden/internal/checker"
	"warden/internal/config"
	"warden/internal/dispatch"
	"warden/internal/report"
	"warden/internal/testsupport"
	"warden/internal/watch"
)

type recordingSink struct {
	mu      sync.Mutex
	reports []*report.Report
}

func (s *recordingSink) HandleReport(_ context.Context, rep *report.Report) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reports = append(s.reports, rep)
}

func (s *recordingSink) snapshot() []*report.Report {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*report.Report(nil), s.reports...)
}

func testRegistry(t *testing.T) *checker.Registry {
	t.Helper()
	registry, err := checker.NewRegistry(checker.Builtins(), []checker.InstanceConfig{
		{ID: "todos", Enabled: true},
	})
	if err != nil {
		t.Fatalf("build registry: %v", err)
	}
	return registry
}

func newTestDaemon(t *testing.T, cfg *config.Config, sinks ...dispatch.Sink) *Daemon {
	t.Helper()
	if err := os.MkdirAll(cfg.Paths.WatchDir, 0o755); err != nil {
		t.Fatalf("create watch dir: %v", err)
	}
	d, err := New(Options{Config: cfg, Registry: testRegistry(t), Sinks: sinks})
	if err != nil {
		t.Fatalf("build daemon: %v", err)
	}
	return d
}

func TestDaemonLockExcludesSecondInstance(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	first := newTestDaemon(t, cfg)
	second := newTestDaemon(t, cfg)

	ctx := context.Background()
	if err := first.Start(ctx); err != nil {
		t.Fatalf("start first: %v", err)
	}
	defer first.Stop()

	err := second.Start(ctx)
	if err == nil {
		second.Stop()
		t.Fatal("second instance must not acquire the lock")
	}
	if !strings.Contains(err.Error(), "already watching") {
		t.Fatalf("unexpected error: %v", err)
	}

	first.Stop()
	if err := second.Start(ctx); err != nil {
		t.Fatalf("start after release: %v", err)
	}
	second.Stop()
}

func TestDaemonEmitsReportForChangedFile(t *testing.T) {
	sink := &recordingSink{}
	cfg := testsupport.NewConfig(t, testsupport.WithQuietPeriod(50))
	d := newTestDaemon(t, cfg, sink)

	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer d.Stop()

	path := filepath.Join(cfg.Paths.WatchDir, "notes.txt")
	testsupport.WriteFile(t, path, "// TODO: follow up\n")

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		for _, rep := range sink.snapshot() {
			if rep.Path == path && len(rep.Findings) > 0 {
				if rep.Findings[0].CheckerID != "todos" {
					t.Fatalf("unexpected checker %q", rep.Findings[0].CheckerID)
				}
				return
			}
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("no report for %s within deadline", path)
}

func TestDaemonStatusCounters(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithQuietPeriod(50))
	d := newTestDaemon(t, cfg)

	status := d.Status()
	if status.Running {
		t.Fatal("daemon must not report running before Start")
	}
	if status.WatchDir != cfg.Paths.WatchDir {
		t.Fatalf("watch dir = %q", status.WatchDir)
	}

	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	if !d.Status().Running {
		t.Fatal("daemon must report running after Start")
	}

	path := filepath.Join(cfg.Paths.WatchDir, "a.txt")
	testsupport.WriteFile(t, path, "hello\n")

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if d.Status().EventsSeen > 0 {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	if d.Status().EventsSeen == 0 {
		t.Fatal("events seen counter never advanced")
	}

	d.Stop()
	if d.Status().Running {
		t.Fatal("daemon must report stopped after Stop")
	}
}

// Debounce timers fire from goroutines the waitgroup does not track, so
// enqueue can land mid-shutdown. It must observe either the live context
// or nil, never a torn read.
func TestDaemonEnqueueDuringStop(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	d := newTestDaemon(t, cfg)

	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 1000; i++ {
			d.enqueue(watch.StabilizedEvent{Path: filepath.Join(cfg.Paths.WatchDir, "f.go")})
		}
	}()
	d.Stop()
	<-done
}

func TestDaemonStopIsIdempotent(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	d := newTestDaemon(t, cfg)

	// Stop before Start is a no-op.
	d.Stop()

	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	d.Stop()
	d.Stop()
}

package actions

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"warden/internal/checker"
	"warden/internal/config"
	"warden/internal/report"
)

type fakeIntegration struct {
	id string

	mu      sync.Mutex
	created []string
	fail    bool
}

func (f *fakeIntegration) ID() string { return f.id }

func (f *fakeIntegration) CreateAction(_ context.Context, rep *report.Report, fd checker.Finding) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return "", errors.New("api unavailable")
	}
	f.created = append(f.created, rep.Path+"|"+fd.Message)
	return "issue-1", nil
}

func (f *fakeIntegration) createdCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.created)
}

func actionReport(sev checker.Severity, message string) *report.Report {
	return &report.Report{
		Path:            "/src/a.go",
		EventKind:       "modified",
		Findings:        []checker.Finding{{CheckerID: "secretscan", Severity: sev, Message: message}},
		OverallSeverity: sev,
		GeneratedAt:     time.Now().UTC(),
	}
}

func newTestRouter(t *testing.T, integration Integration) (*Router, *Store) {
	t.Helper()
	store, err := OpenPath(filepath.Join(t.TempDir(), "actions.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	cfg := config.Default()
	return NewRouter(&cfg, store, []Integration{integration}, nil), store
}

func TestRouterCreatesActionAboveThreshold(t *testing.T) {
	integration := &fakeIntegration{id: "github"}
	router, store := newTestRouter(t, integration)

	router.HandleReport(context.Background(), actionReport(checker.SeverityCritical, "possible AWS access key"))
	router.Close()

	if integration.createdCount() != 1 {
		t.Fatalf("expected 1 created action, got %d", integration.createdCount())
	}

	rep := actionReport(checker.SeverityCritical, "possible AWS access key")
	sig := Signature(rep.Path, rep.Findings[0])
	rec, err := store.Lookup(context.Background(), sig, "github")
	if err != nil || rec == nil {
		t.Fatalf("expected stored record, got %+v err %v", rec, err)
	}
	if rec.ActionID != "issue-1" {
		t.Fatalf("unexpected action id %q", rec.ActionID)
	}
}

func TestRouterSkipsFindingsBelowThreshold(t *testing.T) {
	integration := &fakeIntegration{id: "github"}
	router, _ := newTestRouter(t, integration)

	// Default threshold is error.
	router.HandleReport(context.Background(), actionReport(checker.SeverityWarning, "trailing whitespace"))
	router.Close()

	if integration.createdCount() != 0 {
		t.Fatalf("warning finding must not create an action, got %d", integration.createdCount())
	}
}

func TestRouterSuppressesDuplicateWithinWindow(t *testing.T) {
	integration := &fakeIntegration{id: "github"}
	router, _ := newTestRouter(t, integration)
	ctx := context.Background()

	router.HandleReport(ctx, actionReport(checker.SeverityError, "hardcoded credential"))
	router.Close()
	router.HandleReport(ctx, actionReport(checker.SeverityError, "hardcoded credential"))
	router.Close()

	if integration.createdCount() != 1 {
		t.Fatalf("duplicate within renotify window should be suppressed, got %d creations", integration.createdCount())
	}
}

func TestRouterRetriesAfterFailedCreation(t *testing.T) {
	integration := &fakeIntegration{id: "github", fail: true}
	router, store := newTestRouter(t, integration)
	ctx := context.Background()

	router.HandleReport(ctx, actionReport(checker.SeverityCritical, "private key material"))
	router.Close()

	rep := actionReport(checker.SeverityCritical, "private key material")
	sig := Signature(rep.Path, rep.Findings[0])
	if rec, _ := store.Lookup(ctx, sig, "github"); rec != nil {
		t.Fatal("failed creation must not be recorded")
	}

	// The integration recovers; the next report creates the action.
	integration.mu.Lock()
	integration.fail = false
	integration.mu.Unlock()

	router.HandleReport(ctx, actionReport(checker.SeverityCritical, "private key material"))
	router.Close()

	if integration.createdCount() != 1 {
		t.Fatalf("expected creation after recovery, got %d", integration.createdCount())
	}
}

func TestRouterIgnoresFixedFindings(t *testing.T) {
	integration := &fakeIntegration{id: "github"}
	router, _ := newTestRouter(t, integration)

	rep := actionReport(checker.SeverityCritical, "already handled")
	rep.Findings[0].FixApplied = true
	router.HandleReport(context.Background(), rep)
	router.Close()

	if integration.createdCount() != 0 {
		t.Fatal("auto-fixed findings must not open tracker actions")
	}
}

package actions

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"warden/internal/checker"
	"warden/internal/config"
	"warden/internal/logging"
	"warden/internal/report"
)

// Integration creates an action in an external tracker and returns an
// identifier for it (issue URL or number).
type Integration interface {
	ID() string
	CreateAction(ctx context.Context, rep *report.Report, f checker.Finding) (string, error)
}

// Router consumes reports and creates tracker actions for findings at
// or above the configured threshold, suppressing signatures acted on
// within the renotify window.
type Router struct {
	store        *Store
	integrations []Integration
	threshold    checker.Severity
	renotify     time.Duration
	logger       *slog.Logger

	mu sync.Mutex
	wg sync.WaitGroup
}

// NewRouter builds an action router. With no integrations the router is
// a noop sink.
func NewRouter(cfg *config.Config, store *Store, integrations []Integration, logger *slog.Logger) *Router {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Router{
		store:        store,
		integrations: integrations,
		threshold:    cfg.ActionThreshold(),
		renotify:     cfg.RenotifyWindow(),
		logger:       logger.With(logging.String(logging.FieldComponent, "actions")),
	}
}

// BuildIntegrations constructs integrations for every enabled entry in
// the configuration.
func BuildIntegrations(cfg *config.Config) []Integration {
	var integrations []Integration
	if gh := cfg.Actions.GitHub; gh.Enabled && gh.AutoCreateIssue {
		integrations = append(integrations, newGitHubIntegration(gh))
	}
	if gl := cfg.Actions.GitLab; gl.Enabled && gl.AutoCreateIssue {
		integrations = append(integrations, newGitLabIntegration(gl))
	}
	if j := cfg.Actions.Jira; j.Enabled && j.AutoCreateIssue {
		integrations = append(integrations, newJiraIntegration(j))
	}
	if l := cfg.Actions.Linear; l.Enabled && l.AutoCreateIssue {
		integrations = append(integrations, newLinearIntegration(l))
	}
	return integrations
}

// HandleReport processes one report asynchronously.
func (r *Router) HandleReport(ctx context.Context, rep *report.Report) {
	if r == nil || rep == nil || len(r.integrations) == 0 {
		return
	}
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		r.consider(ctx, rep)
	}()
}

// Close blocks until all in-flight action creation has completed.
func (r *Router) Close() {
	if r == nil {
		return
	}
	r.wg.Wait()
}

// consider serializes signature lookups and creations so that two
// reports carrying the same finding never race into duplicate actions.
func (r *Router) consider(ctx context.Context, rep *report.Report) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, finding := range rep.Findings {
		if finding.Severity < r.threshold || finding.FixApplied {
			continue
		}
		signature := Signature(rep.Path, finding)
		for _, integration := range r.integrations {
			r.createOnce(ctx, integration, rep, finding, signature)
		}
	}
}

func (r *Router) createOnce(ctx context.Context, integration Integration, rep *report.Report, finding checker.Finding, signature string) {
	logger := r.logger.With(
		logging.String(logging.FieldIntegration, integration.ID()),
		logging.String(logging.FieldPath, rep.Path),
		logging.String(logging.FieldChecker, finding.CheckerID),
		logging.String("signature", signature))

	rec, err := r.store.Lookup(ctx, signature, integration.ID())
	if err != nil {
		logger.Warn("action lookup failed", logging.Error(err))
		return
	}
	if rec != nil && time.Since(rec.LastCreatedAt) < r.renotify {
		logger.Debug("action suppressed within renotify window",
			logging.String("existing_action", rec.ActionID))
		return
	}

	actionID, err := integration.CreateAction(ctx, rep, finding)
	if err != nil {
		// No record on failure; the next report retries creation.
		logger.Warn("action creation failed", logging.Error(err))
		return
	}
	if err := r.store.Record(ctx, ActionRecord{
		FilePath:       rep.Path,
		IssueSignature: signature,
		CheckerID:      finding.CheckerID,
		Integration:    integration.ID(),
		ActionID:       actionID,
	}); err != nil {
		logger.Warn("action record failed", logging.Error(err))
		return
	}
	logger.Info("action created", logging.String("action_id", actionID))
}

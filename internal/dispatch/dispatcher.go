package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"warden/internal/checker"
	"warden/internal/fileutil"
	"warden/internal/logging"
	"warden/internal/report"
	"warden/internal/watch"
)

// GenerationSource reports the current debounce generation for a path.
// The dispatcher compares it with an event's generation to detect that a
// run has been superseded by newer changes.
type GenerationSource interface {
	Generation(path string) uint64
}

// Sink receives completed reports. Sinks must not block for long; the
// notification router does its own fan-out asynchronously.
type Sink interface {
	HandleReport(ctx context.Context, rep *report.Report)
}

// staticGenerations satisfies GenerationSource for batch scans, where
// events are never superseded.
type staticGenerations struct{}

func (staticGenerations) Generation(string) uint64 { return 0 }

// StaticGenerations returns a GenerationSource under which no event ever
// goes stale.
func StaticGenerations() GenerationSource {
	return staticGenerations{}
}

// Options configures a Dispatcher.
type Options struct {
	Registry          *checker.Registry
	Generations       GenerationSource
	Sinks             []Sink
	Logger            *slog.Logger
	CheckerTimeout    time.Duration
	RunTimeout        time.Duration
	MaxParallelChecks int
	ReportOnly        bool
	EmitEmptyReports  bool
}

// Dispatcher coordinates checker execution for stabilized events.
type Dispatcher struct {
	registry       *checker.Registry
	gens           GenerationSource
	sinks          []Sink
	logger         *slog.Logger
	checkerTimeout time.Duration
	runTimeout     time.Duration
	reportOnly     bool
	emitEmpty      bool

	sem   *semaphore.Weighted
	locks *pathLocks

	mu       sync.Mutex
	inflight map[string]context.CancelFunc

	wg sync.WaitGroup
}

// DefaultCheckerTimeout applies when no invocation timeout is configured.
const DefaultCheckerTimeout = 2 * time.Minute

// New constructs a Dispatcher.
func New(opts Options) (*Dispatcher, error) {
	if opts.Registry == nil {
		return nil, errors.New("dispatcher requires a checker registry")
	}
	if opts.Generations == nil {
		opts.Generations = StaticGenerations()
	}
	if opts.CheckerTimeout <= 0 {
		opts.CheckerTimeout = DefaultCheckerTimeout
	}
	parallel := opts.MaxParallelChecks
	if parallel <= 0 {
		parallel = 4
	}
	return &Dispatcher{
		registry:       opts.Registry,
		gens:           opts.Generations,
		sinks:          opts.Sinks,
		logger:         logging.NewComponentLogger(opts.Logger, "dispatch"),
		checkerTimeout: opts.CheckerTimeout,
		runTimeout:     opts.RunTimeout,
		reportOnly:     opts.ReportOnly,
		emitEmpty:      opts.EmitEmptyReports,
		sem:            semaphore.NewWeighted(int64(parallel)),
		locks:          newPathLocks(),
		inflight:       make(map[string]context.CancelFunc),
	}, nil
}

// Go handles an event on its own goroutine, tracked for Wait.
func (d *Dispatcher) Go(ctx context.Context, ev watch.StabilizedEvent) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		d.Handle(ctx, ev)
	}()
}

// Wait blocks until every run started with Go has finished.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// Handle runs the full dispatch cycle for one stabilized event and
// returns the emitted report, or nil when the run was skipped or
// discarded as stale.
//
// At most one run is in flight per canonical path. Arriving while an
// older run for the same path is in flight cancels that run
// cooperatively; a checker that ignores its context may still finish,
// and a fix it already wrote is not rolled back, but its report is
// discarded.
func (d *Dispatcher) Handle(ctx context.Context, ev watch.StabilizedEvent) *report.Report {
	canon, err := fileutil.CanonicalPath(ev.Path)
	if err != nil {
		canon = ev.Path
	}

	selected := d.registry.Resolve(ev.Path, ev.Kind)
	if len(selected) == 0 && !d.emitEmpty {
		d.logger.Debug("no checkers matched",
			logging.String(logging.FieldPath, ev.Path),
			logging.String("kind", string(ev.Kind)),
		)
		return nil
	}

	// Supersede any in-flight run for the same path before queueing on
	// its lock, so the lock frees promptly.
	d.mu.Lock()
	if cancel, ok := d.inflight[canon]; ok {
		cancel()
	}
	d.mu.Unlock()

	unlock := d.locks.acquire(canon)
	defer unlock()

	if d.stale(ev) {
		d.logger.Debug("event superseded before run start",
			logging.String(logging.FieldPath, ev.Path),
			logging.Uint64(logging.FieldGeneration, ev.Generation),
		)
		return nil
	}

	var runCtx context.Context
	var cancelRun context.CancelFunc
	if d.runTimeout > 0 {
		runCtx, cancelRun = context.WithTimeout(ctx, d.runTimeout)
	} else {
		runCtx, cancelRun = context.WithCancel(ctx)
	}
	defer cancelRun()

	d.mu.Lock()
	d.inflight[canon] = cancelRun
	d.mu.Unlock()
	defer func() {
		d.mu.Lock()
		delete(d.inflight, canon)
		d.mu.Unlock()
	}()

	runID := uuid.NewString()
	runCtx = logging.WithRunID(runCtx, runID)
	runCtx = logging.WithPath(runCtx, ev.Path)
	logger := logging.WithContext(runCtx, d.logger).With(
		logging.String("kind", string(ev.Kind)),
		logging.Uint64(logging.FieldGeneration, ev.Generation),
	)

	start := time.Now()
	logger.Info("check run started",
		logging.String(logging.FieldEventType, "run_start"),
		logging.Int("checkers", len(selected)),
	)

	runs := d.execute(runCtx, logger, ev, selected)

	if d.stale(ev) {
		logger.Info("check run discarded as stale",
			logging.String(logging.FieldEventType, "run_discarded"),
			logging.Duration("run_duration", time.Since(start)),
		)
		return nil
	}

	rep := report.Aggregate(ev.Path, ev.Kind, runs)
	logger.Info("check run completed",
		logging.String(logging.FieldEventType, "run_complete"),
		logging.Int("findings", len(rep.Findings)),
		logging.String(logging.FieldSeverity, rep.OverallSeverity.String()),
		logging.Duration("run_duration", time.Since(start)),
	)

	for _, sink := range d.sinks {
		sink.HandleReport(ctx, rep)
	}
	return rep
}

func (d *Dispatcher) stale(ev watch.StabilizedEvent) bool {
	return d.gens.Generation(ev.Path) != ev.Generation
}

// execute runs the selected checkers. Fix-capable checkers go first,
// sequentially, in configured order, so later read-only checkers see
// post-fix file content; the remainder run concurrently under the
// parallelism bound.
func (d *Dispatcher) execute(ctx context.Context, logger *slog.Logger, ev watch.StabilizedEvent, selected []checker.Selected) []report.CheckerRun {
	var fixers, readers []checker.Selected
	for _, sel := range selected {
		if sel.FixCapable && !d.reportOnly {
			fixers = append(fixers, sel)
		} else {
			readers = append(readers, sel)
		}
	}

	runs := make([]report.CheckerRun, 0, len(selected))

	// Fixing is gated on freshness: once the event is superseded a
	// newer run owns the file, so remaining fixers run read-only.
	for _, sel := range fixers {
		allowFix := !d.stale(ev) && ctx.Err() == nil
		runs = append(runs, d.invoke(ctx, logger, sel.Checker, checker.Target{
			Path:     ev.Path,
			Kind:     ev.Kind,
			AllowFix: allowFix,
		}))
	}

	readerRuns := make([]report.CheckerRun, len(readers))
	var wg sync.WaitGroup
	for i, sel := range readers {
		wg.Add(1)
		go func(i int, sel checker.Selected) {
			defer wg.Done()
			if err := d.sem.Acquire(ctx, 1); err != nil {
				readerRuns[i] = report.CheckerRun{CheckerID: sel.Checker.Describe().ID}
				return
			}
			defer d.sem.Release(1)
			readerRuns[i] = d.invoke(ctx, logger, sel.Checker, checker.Target{
				Path: ev.Path,
				Kind: ev.Kind,
			})
		}(i, sel)
	}
	wg.Wait()

	return append(runs, readerRuns...)
}

type invokeResult struct {
	findings []checker.Finding
	err      error
}

// invoke runs one checker with the invocation timeout. A timeout or
// failure becomes a synthetic error finding so sibling checkers and the
// report survive it. The checker goroutine is abandoned on timeout; hard
// termination of an in-flight external call is not attempted.
func (d *Dispatcher) invoke(ctx context.Context, logger *slog.Logger, chk checker.Checker, target checker.Target) report.CheckerRun {
	id := chk.Describe().ID
	run := report.CheckerRun{CheckerID: id}

	invokeCtx, cancel := context.WithTimeout(ctx, d.checkerTimeout)
	defer cancel()

	resultCh := make(chan invokeResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				resultCh <- invokeResult{err: checker.NewExecutionError(id, fmt.Errorf("panic: %v", r))}
			}
		}()
		findings, err := chk.Run(invokeCtx, target)
		resultCh <- invokeResult{findings: findings, err: err}
	}()

	select {
	case res := <-resultCh:
		if res.err != nil {
			run.Findings = d.failureFindings(logger, id, res.err)
			return run
		}
		run.Findings = res.findings
		return run
	case <-invokeCtx.Done():
		if ctx.Err() != nil {
			// Superseded or shutting down; the report will be discarded.
			return run
		}
		logger.Warn("checker timed out",
			logging.String(logging.FieldChecker, id),
			logging.Duration("timeout", d.checkerTimeout),
			logging.String(logging.FieldEventType, "checker_timeout"),
		)
		run.Findings = []checker.Finding{{
			CheckerID: id,
			Severity:  checker.SeverityError,
			Message:   "checker timed out",
		}}
		return run
	}
}

func (d *Dispatcher) failureFindings(logger *slog.Logger, id string, err error) []checker.Finding {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return []checker.Finding{{
			CheckerID: id,
			Severity:  checker.SeverityError,
			Message:   "checker timed out",
		}}
	}
	logger.Error("checker failed",
		logging.String(logging.FieldChecker, id),
		logging.Error(err),
		logging.String(logging.FieldEventType, "checker_failed"),
	)
	return []checker.Finding{{
		CheckerID: id,
		Severity:  checker.SeverityError,
		Message:   fmt.Sprintf("checker failed: %v", err),
	}}
}

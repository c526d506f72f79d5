// Package daemon wires the watch pipeline together and enforces
// single-instance execution via a lock file.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"warden/internal/checker"
	"warden/internal/config"
	"warden/internal/dispatch"
	"warden/internal/logging"
	"warden/internal/report"
	"warden/internal/watch"
)

// Options carries the daemon's dependencies.
type Options struct {
	Config     *config.Config
	Logger     *slog.Logger
	Registry   *checker.Registry
	Sinks      []dispatch.Sink
	ReportOnly bool
}

// Daemon owns the filesystem source, debouncer, event queue, and
// dispatcher for one watched directory.
type Daemon struct {
	cfg        *config.Config
	logger     *slog.Logger
	debouncer  *watch.Debouncer
	queue      *watch.Queue
	source     *watch.FSSource
	dispatcher *dispatch.Dispatcher

	lockPath string
	lock     *flock.Flock

	running        atomic.Bool
	startedAt      time.Time
	eventsSeen     atomic.Uint64
	reportsEmitted atomic.Uint64

	mu     sync.Mutex // guards ctx and cancel
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// Status is a point-in-time snapshot of daemon state.
type Status struct {
	Running        bool
	PID            int
	StartedAt      time.Time
	WatchDir       string
	QueueDepth     int
	EventsSeen     uint64
	ReportsEmitted uint64
	LockPath       string
}

// New constructs a daemon with initialized pipeline components. The
// debouncer doubles as the dispatcher's generation source so stale runs
// are detected against live filesystem activity.
func New(opts Options) (*Daemon, error) {
	if opts.Config == nil || opts.Registry == nil {
		return nil, errors.New("daemon requires config and registry")
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}

	cfg := opts.Config
	d := &Daemon{
		cfg:      cfg,
		logger:   logger,
		lockPath: filepath.Join(cfg.Paths.StateDir, "warden.lock"),
	}
	d.lock = flock.New(d.lockPath)
	d.queue = watch.NewQueue(cfg.Watch.QueueSize)

	d.debouncer = watch.NewDebouncer(cfg.QuietPeriod(), cfg.Watch.MaxRestarts, d.enqueue)

	dispatcher, err := dispatch.New(dispatch.Options{
		Registry:          opts.Registry,
		Generations:       d.debouncer,
		Sinks:             append([]dispatch.Sink{sinkFunc(d.countReport)}, opts.Sinks...),
		Logger:            logger,
		CheckerTimeout:    cfg.CheckerTimeout(),
		RunTimeout:        cfg.RunTimeout(),
		MaxParallelChecks: cfg.Dispatch.MaxParallelChecks,
		ReportOnly:        opts.ReportOnly,
		EmitEmptyReports:  cfg.Dispatch.EmitEmptyReports,
	})
	if err != nil {
		return nil, fmt.Errorf("build dispatcher: %w", err)
	}
	d.dispatcher = dispatcher

	ignorer := watch.NewIgnorer(cfg.Watch.Ignore)
	source, err := watch.NewFSSource(cfg.Paths.WatchDir, ignorer, logger, d.observe)
	if err != nil {
		return nil, fmt.Errorf("build watch source: %w", err)
	}
	d.source = source
	return d, nil
}

type sinkFunc func(ctx context.Context, rep *report.Report)

func (f sinkFunc) HandleReport(ctx context.Context, rep *report.Report) { f(ctx, rep) }

func (d *Daemon) countReport(context.Context, *report.Report) {
	d.reportsEmitted.Add(1)
}

func (d *Daemon) observe(n watch.ChangeNotice) {
	d.eventsSeen.Add(1)
	d.debouncer.Observe(n)
}

// runContext returns the pipeline context, or nil outside Start/Stop.
// Debounce timer goroutines outlive the waitgroup, so the read has to
// be synchronized against Stop clearing the context.
func (d *Daemon) runContext() context.Context {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.ctx
}

// enqueue hands a stabilized event to the queue. The debouncer calls it
// from timer goroutines, so a full queue briefly blocks stabilization
// rather than dropping the event.
func (d *Daemon) enqueue(ev watch.StabilizedEvent) {
	ctx := d.runContext()
	if ctx == nil {
		return
	}
	if err := d.queue.Put(ctx, ev); err != nil {
		d.logger.Warn("event dropped during shutdown",
			logging.String(logging.FieldPath, ev.Path))
	}
}

// Start acquires the instance lock and launches the pipeline.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another warden instance is already watching")
	}

	runCtx, cancel := context.WithCancel(ctx)
	d.mu.Lock()
	d.ctx, d.cancel = runCtx, cancel
	d.mu.Unlock()
	d.startedAt = time.Now()

	d.wg.Add(2)
	go func() {
		defer d.wg.Done()
		if err := d.source.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
			d.logger.Error("watch source stopped", logging.Error(err))
		}
	}()
	go func() {
		defer d.wg.Done()
		d.consume(runCtx)
	}()

	d.running.Store(true)
	d.logger.Info("warden daemon started",
		logging.String(logging.FieldPath, d.cfg.Paths.WatchDir),
		logging.String("lock", d.lockPath))
	return nil
}

func (d *Daemon) consume(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-d.queue.Events():
			if !ok {
				return
			}
			d.dispatcher.Go(ctx, ev)
		}
	}
}

// Stop tears the pipeline down: no new events are observed, pending
// debounce timers are discarded, and in-flight checker runs finish.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}
	d.mu.Lock()
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.mu.Unlock()
	d.debouncer.Stop()
	d.wg.Wait()
	d.dispatcher.Wait()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.mu.Lock()
	d.ctx = nil
	d.mu.Unlock()
	d.running.Store(false)
	d.logger.Info("warden daemon stopped")
}

// Close stops the daemon and releases its resources.
func (d *Daemon) Close() error {
	d.Stop()
	return nil
}

// Status returns the current daemon status.
func (d *Daemon) Status() Status {
	return Status{
		Running:        d.running.Load(),
		PID:            os.Getpid(),
		StartedAt:      d.startedAt,
		WatchDir:       d.cfg.Paths.WatchDir,
		QueueDepth:     d.queue.Depth(),
		EventsSeen:     d.eventsSeen.Load(),
		ReportsEmitted: d.reportsEmitted.Load(),
		LockPath:       d.lockPath,
	}
}

package watch

import (
	"sync"
	"time"
)

// Debouncer coalesces bursts of change notices per path into a single
// stabilized event once the path has been quiet for the configured window.
// Every notice restarts the path's timer; a configurable restart cap keeps
// a continuously rewritten file from starving dispatch forever.
type Debouncer struct {
	quiet       time.Duration
	maxRestarts int
	emit        func(StabilizedEvent)

	mu      sync.Mutex
	pending map[string]*pendingChange
	gens    map[string]uint64
	stopped bool
}

type pendingChange struct {
	kind     Kind
	first    Kind
	timer    *time.Timer
	restarts int
}

// DefaultQuietPeriod is the debounce window used when none is configured.
const DefaultQuietPeriod = time.Second

// DefaultMaxRestarts bounds how often a hot path may reset its own timer
// before the pending event is force-emitted.
const DefaultMaxRestarts = 50

// NewDebouncer constructs a Debouncer that passes stabilized events to emit.
// The emit callback may block; it runs outside the debouncer lock.
func NewDebouncer(quiet time.Duration, maxRestarts int, emit func(StabilizedEvent)) *Debouncer {
	if quiet <= 0 {
		quiet = DefaultQuietPeriod
	}
	if maxRestarts <= 0 {
		maxRestarts = DefaultMaxRestarts
	}
	return &Debouncer{
		quiet:       quiet,
		maxRestarts: maxRestarts,
		emit:        emit,
		pending:     make(map[string]*pendingChange),
		gens:        make(map[string]uint64),
	}
}

// Observe records a change notice, replacing any pending event for the
// same path and restarting its quiet-period timer. The path's generation
// is bumped on every call so in-flight runs for older generations can
// detect supersession.
func (d *Debouncer) Observe(n ChangeNotice) {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}

	d.gens[n.Path]++

	p, ok := d.pending[n.Path]
	if !ok {
		p = &pendingChange{kind: n.Kind, first: n.Kind}
		path := n.Path
		p.timer = time.AfterFunc(d.quiet, func() { d.expire(path) })
		d.pending[n.Path] = p
		d.mu.Unlock()
		return
	}

	p.kind = coalesce(p.first, p.kind, n.Kind)
	p.restarts++
	if p.restarts >= d.maxRestarts {
		// Escape hatch for pathological continuous writers.
		p.timer.Stop()
		ev := d.takeLocked(n.Path, p)
		d.mu.Unlock()
		d.emit(ev)
		return
	}
	p.timer.Reset(d.quiet)
	d.mu.Unlock()
}

// Generation returns the current generation counter for path. An in-flight
// run compares this against its event's generation to detect staleness.
func (d *Debouncer) Generation(path string) uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.gens[path]
}

// Stop cancels all pending timers. Pending events are dropped; callers
// shutting down have no consumer left for them.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	for path, p := range d.pending {
		p.timer.Stop()
		delete(d.pending, path)
	}
}

func (d *Debouncer) expire(path string) {
	d.mu.Lock()
	p, ok := d.pending[path]
	if !ok || d.stopped {
		d.mu.Unlock()
		return
	}
	ev := d.takeLocked(path, p)
	d.mu.Unlock()
	d.emit(ev)
}

func (d *Debouncer) takeLocked(path string, p *pendingChange) StabilizedEvent {
	delete(d.pending, path)
	return StabilizedEvent{
		Path:         path,
		Kind:         p.kind,
		StabilizedAt: time.Now(),
		Generation:   d.gens[path],
	}
}

// coalesce folds the next notice kind into the pending kind for a burst.
// A deletion always wins. A burst that began with a creation stays a
// creation, because the file did not exist before the burst. Everything
// else collapses to a modification of a pre-existing file.
func coalesce(first, current, next Kind) Kind {
	if next == KindDeleted {
		return KindDeleted
	}
	if first == KindCreated {
		return KindCreated
	}
	if current == KindDeleted {
		// Deleted then recreated within the window: the file existed
		// before the burst, so observers see a modification.
		return KindModified
	}
	if next == KindRenamed && current != KindModified {
		return KindRenamed
	}
	return KindModified
}

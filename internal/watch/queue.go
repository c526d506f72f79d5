package watch

import "context"

// Queue is a bounded FIFO of stabilized events between the debouncer and
// the dispatcher. When full, Put blocks instead of dropping: every
// stabilized event is processed at least once, and backpressure reaches
// the change source.
type Queue struct {
	ch chan StabilizedEvent
}

// DefaultQueueSize bounds the event queue when no size is configured.
const DefaultQueueSize = 256

// NewQueue builds a queue holding at most size events.
func NewQueue(size int) *Queue {
	if size <= 0 {
		size = DefaultQueueSize
	}
	return &Queue{ch: make(chan StabilizedEvent, size)}
}

// Put enqueues an event, blocking while the queue is full. It returns the
// context error if ctx is canceled before a slot frees.
func (q *Queue) Put(ctx context.Context, ev StabilizedEvent) error {
	select {
	case q.ch <- ev:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Events exposes the consumer side of the queue.
func (q *Queue) Events() <-chan StabilizedEvent {
	return q.ch
}

// Depth reports how many events are currently buffered.
func (q *Queue) Depth() int {
	return len(q.ch)
}

// Close releases the consumer channel. Only the producer side may call it,
// after the last Put has returned.
func (q *Queue) Close() {
	close(q.ch)
}

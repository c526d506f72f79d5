package watch

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestQueuePutAndConsume(t *testing.T) {
	q := NewQueue(4)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := q.Put(ctx, StabilizedEvent{Path: "/tmp/a", Kind: KindModified}); err != nil {
			t.Fatalf("put: %v", err)
		}
	}
	if q.Depth() != 3 {
		t.Fatalf("expected depth 3, got %d", q.Depth())
	}

	ev := <-q.Events()
	if ev.Path != "/tmp/a" {
		t.Fatalf("unexpected event path %s", ev.Path)
	}
	if q.Depth() != 2 {
		t.Fatalf("expected depth 2, got %d", q.Depth())
	}
}

func TestQueuePutBlocksWhenFull(t *testing.T) {
	q := NewQueue(1)
	ctx := context.Background()

	if err := q.Put(ctx, StabilizedEvent{Path: "/tmp/a"}); err != nil {
		t.Fatalf("put: %v", err)
	}

	done := make(chan error, 1)
	go func() {
		done <- q.Put(ctx, StabilizedEvent{Path: "/tmp/b"})
	}()

	select {
	case err := <-done:
		t.Fatalf("put returned %v before a slot freed", err)
	case <-time.After(30 * time.Millisecond):
	}

	<-q.Events()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("put after drain: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("put did not complete after a slot freed")
	}
}

func TestQueuePutHonorsContext(t *testing.T) {
	q := NewQueue(1)
	if err := q.Put(context.Background(), StabilizedEvent{Path: "/tmp/a"}); err != nil {
		t.Fatalf("put: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- q.Put(ctx, StabilizedEvent{Path: "/tmp/b"})
	}()
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("put did not observe cancellation")
	}
}

package queue_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/loesoe/cortex/internal/adapters/mq/queue"
)

func TestEnqueueDequeue(t *testing.T) {
	q := queue.NewInMemoryQueue(queue.WithCapacity(4))
	ctx := context.Background()

	if got := q.Capacity(); got != 4 {
		t.Fatalf("Capacity() = %d, want 4", got)
	}

	if ok := q.Enqueue(ctx, queue.Message{ID: "m1", UserID: "u1", Text: "hoi"}); !ok {
		t.Fatal("Enqueue returned false on an empty queue")
	}
	if got := q.Len(ctx); got != 1 {
		t.Fatalf("Len() = %d, want 1", got)
	}

	m := <-q.Dequeue(ctx)
	if m.ID != "m1" || m.Text != "hoi" {
		t.Fatalf("dequeued %+v, want the enqueued message", m)
	}
	if got := q.Len(ctx); got != 0 {
		t.Fatalf("Len() after dequeue = %d, want 0", got)
	}
}

func TestEnqueueFull(t *testing.T) {
	q := queue.NewInMemoryQueue(queue.WithCapacity(2))
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if ok := q.Enqueue(ctx, queue.Message{ID: fmt.Sprintf("m%d", i)}); !ok {
			t.Fatalf("Enqueue %d returned false below capacity", i)
		}
	}
	if ok := q.Enqueue(ctx, queue.Message{ID: "overflow"}); ok {
		t.Fatal("Enqueue succeeded on a full queue")
	}
	if got := q.Len(ctx); got != 2 {
		t.Fatalf("Len() = %d, want 2", got)
	}
}

func TestClose(t *testing.T) {
	q := queue.NewInMemoryQueue(queue.WithCapacity(2))
	ctx := context.Background()

	q.Enqueue(ctx, queue.Message{ID: "m1"})

	if err := q.Close(); err != nil {
		t.Fatalf("Close() = %v", err)
	}
	if !q.IsClosed() {
		t.Fatal("IsClosed() = false after Close")
	}
	if err := q.Close(); err != nil {
		t.Fatalf("second Close() = %v", err)
	}

	if ok := q.Enqueue(ctx, queue.Message{ID: "late"}); ok {
		t.Fatal("Enqueue succeeded on a closed queue")
	}

	// Buffered messages drain, then the channel closes.
	m, open := <-q.Dequeue(ctx)
	if !open || m.ID != "m1" {
		t.Fatalf("drain got (%+v, %v), want buffered message", m, open)
	}
	if _, open := <-q.Dequeue(ctx); open {
		t.Fatal("dequeue channel still open after drain")
	}
}

func TestDefaultCapacity(t *testing.T) {
	q := queue.NewInMemoryQueue(queue.WithCapacity(0))
	if got := q.Capacity(); got != 10000 {
		t.Fatalf("Capacity() = %d, want the default 10000", got)
	}
}

// Package queue defines the contract for enqueuing and consuming inbound
// messages awaiting feature extraction.
//
// The MVP ships with an in-memory bounded queue backed by a channel.
package queue

import (
	"context"
	"sync"

	"github.com/loesoe/cortex/internal/domain/model"
	"github.com/loesoe/cortex/pkg/metrics"
)

// Default queue configuration constants.
const defaultCapacity = 10000

// Message represents the payload type flowing through the queue.
type Message = model.Message

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue adds a message to the queue.
	// Returns false if the queue is full or closed.
	Enqueue(ctx context.Context, m Message) bool

	// Dequeue returns a channel that receives messages as they become
	// available. The channel is closed when the queue is closed.
	Dequeue(ctx context.Context) <-chan Message

	// Len returns the current number of queued messages.
	Len(ctx context.Context) int

	// Capacity returns the maximum number of queued messages.
	Capacity() int

	// Close gracefully shuts down the queue. After closing, no new
	// messages can be enqueued and the dequeue channel is closed.
	Close() error

	// IsClosed reports whether the queue has been closed.
	IsClosed() bool
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	messages chan Message
	capacity int

	mu     sync.RWMutex
	closed bool
}

// Option applies a configuration option to the queue.
type Option func(*InMemoryQueue)

// WithCapacity sets the maximum number of buffered messages.
func WithCapacity(n int) Option {
	return func(q *InMemoryQueue) {
		if n > 0 {
			q.capacity = n
		}
	}
}

// NewInMemoryQueue creates a new in-memory queue.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{
		capacity: defaultCapacity,
	}
	for _, opt := range opts {
		opt(q)
	}
	q.messages = make(chan Message, q.capacity)

	metrics.UpdateQueueSize(0)
	return q
}

// Enqueue adds a message to the queue.
func (q *InMemoryQueue) Enqueue(ctx context.Context, m Message) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordQueueDrop()
		return false
	}

	select {
	case q.messages <- m:
		metrics.UpdateQueueSize(len(q.messages))
		return true
	case <-ctx.Done():
		metrics.RecordQueueDrop()
		return false
	default:
		metrics.RecordQueueDrop()
		return false
	}
}

// Dequeue returns the consumption channel.
func (q *InMemoryQueue) Dequeue(ctx context.Context) <-chan Message {
	return q.messages
}

// Len returns the current number of queued messages.
func (q *InMemoryQueue) Len(ctx context.Context) int {
	return len(q.messages)
}

// Capacity returns the maximum number of queued messages.
func (q *InMemoryQueue) Capacity() int {
	return q.capacity
}

// Close marks the queue closed and closes the dequeue channel so workers
// can drain the remaining messages.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	q.closed = true
	close(q.messages)
	return nil
}

// IsClosed reports whether the queue has been closed.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}

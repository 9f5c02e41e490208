// Package worker defines worker contracts for asynchronous message
// feature extraction and event appending.
package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/loesoe/cortex/internal/adapters/mq/queue"
	"github.com/loesoe/cortex/internal/domain/model"
	"github.com/loesoe/cortex/pkg/logger"
	"github.com/loesoe/cortex/pkg/metrics"
)

// Message abstracts what workers read off the queue.
type Message = model.Message

// Extractor turns raw message text into a feature vector.
type Extractor interface {
	Extract(text string, history []string) model.FeatureVector
}

// Appender stores the event produced from a processed message.
type Appender interface {
	Append(ctx context.Context, e model.Event) (int64, error)
}

// Learner receives per-user learning updates derived from a message.
type Learner interface {
	RecordPrompt(userID, intent string)
	SetMood(userID, mood string)
}

// Queue defines how workers receive messages.
type Queue interface {
	Dequeue(ctx context.Context) <-chan queue.Message
}

// Worker processes messages until its queue closes or the context ends.
type Worker interface {
	Run(ctx context.Context)

	// Shutdown gracefully stops the worker.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker for processing messages.
type InMemoryWorker struct {
	queue     Queue
	extractor Extractor
	appender  Appender
	learner   Learner
	name      string

	shutdown chan struct{}
	done     chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(q Queue, ex Extractor, sink Appender, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:     q,
		extractor: ex,
		appender:  sink,
		name:      "worker",
		shutdown:  make(chan struct{}),
		done:      make(chan struct{}),
		logger:    logger.Get().Named("worker"),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	messages := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			w.drain(ctx, messages)
			return
		case m, ok := <-messages:
			if !ok {
				return
			}
			w.handle(ctx, m)
		}
	}
}

// drain consumes whatever is already buffered so a graceful shutdown does
// not abandon queued messages. It never blocks waiting for new work.
func (w *InMemoryWorker) drain(ctx context.Context, messages <-chan queue.Message) {
	for {
		select {
		case m, ok := <-messages:
			if !ok {
				return
			}
			w.handle(ctx, m)
		default:
			return
		}
	}
}

func (w *InMemoryWorker) handle(ctx context.Context, m queue.Message) {
	if err := w.processMessage(ctx, m); err != nil {
		metrics.RecordIngestError()
		w.logger.Error(ctx, "error processing message",
			logger.String("message_id", m.ID),
			logger.Error(err))
	}
}

// Shutdown gracefully stops the worker.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	close(w.shutdown)

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// processMessage extracts features from a single message, pushes learning
// updates and appends the resulting event.
func (w *InMemoryWorker) processMessage(ctx context.Context, m queue.Message) error {
	start := time.Now()

	fv := w.extractor.Extract(m.Text, m.History)

	if w.learner != nil {
		w.learner.RecordPrompt(m.UserID, fv.Intent.Label)
		w.learner.SetMood(m.UserID, fv.Emotion.Label)
	}

	confidence := fv.Intent.Confidence
	event := model.Event{
		UserID:     m.UserID,
		SessionID:  m.SessionID,
		EventType:  "message",
		Source:     "chat",
		Confidence: &confidence,
		Tags: []string{
			"intent:" + fv.Intent.Label,
			"emotion:" + fv.Emotion.Label,
		},
		Payload: fv.AsPayload(),
	}

	if _, err := w.appender.Append(ctx, event); err != nil {
		return fmt.Errorf("append message event: %w", err)
	}

	metrics.RecordMessageIngested()
	w.logger.Debug(ctx, "message processed",
		logger.String("message_id", m.ID),
		logger.String("intent", fv.Intent.Label),
		logger.String("emotion", fv.Emotion.Label),
		logger.Int64("latency_ms", time.Since(start).Milliseconds()))
	return nil
}

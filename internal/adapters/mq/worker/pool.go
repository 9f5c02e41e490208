package worker

import (
	"context"
	"runtime"
	"strconv"

	"github.com/loesoe/cortex/pkg/logger"
	"github.com/loesoe/cortex/pkg/metrics"
)

// Default pool configuration constants.
const defaultWorkerMultiplier = 2

// Pool manages multiple workers draining the same queue.
type Pool struct {
	workers []*InMemoryWorker

	logger logger.Logger
}

// NewPool creates a new worker pool. A workerCount below one falls back to
// a multiple of the CPU count.
func NewPool(workerCount int, q Queue, ex Extractor, sink Appender, opts ...Option) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU() * defaultWorkerMultiplier
	}

	pool := &Pool{
		workers: make([]*InMemoryWorker, workerCount),
		logger:  logger.Get().Named("worker-pool"),
	}

	for i := 0; i < workerCount; i++ {
		workerOpts := append([]Option{WithName("worker-" + strconv.Itoa(i))}, opts...)
		pool.workers[i] = NewInMemoryWorker(q, ex, sink, workerOpts...)
	}

	metrics.UpdateWorkerCount(workerCount)
	return pool
}

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
	p.logger.Info(ctx, "worker pool started", logger.Int("workers", len(p.workers)))
}

// Shutdown gracefully stops all workers.
func (p *Pool) Shutdown(ctx context.Context) error {
	var firstErr error
	for _, w := range p.workers {
		if err := w.Shutdown(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	metrics.UpdateWorkerCount(0)
	return firstErr
}

// Size returns the number of workers in the pool.
func (p *Pool) Size() int {
	return len(p.workers)
}

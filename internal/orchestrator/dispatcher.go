package orchestrator

import (
	"context"
	"fmt"
	"sync"

	"github.com/Anirudh9794/container-service-extension/internal/logger"
)

// Dispatcher accepts admitted task workflows for asynchronous execution
type Dispatcher interface {
	Submit(fn func(ctx context.Context)) error
}

// WorkerPool is a fixed-size pool draining an explicit work queue. Each
// submitted item is one task's whole workflow: items run in parallel across
// workers, while the steps inside one item stay strictly sequential.
type WorkerPool struct {
	name    string
	workers int
	queue   chan func(ctx context.Context)
	log     logger.Interface

	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	started bool
	stopped bool
}

// NewWorkerPool creates a worker pool with the given concurrency and queue depth
func NewWorkerPool(name string, workers, queueDepth int, log logger.Interface) *WorkerPool {
	if workers <= 0 {
		workers = 4
	}
	if queueDepth <= 0 {
		queueDepth = 64
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &WorkerPool{
		name:    name,
		workers: workers,
		queue:   make(chan func(ctx context.Context), queueDepth),
		log:     log.WithField("component", name),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Start launches the worker goroutines
func (p *WorkerPool) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started {
		return
	}
	p.started = true

	p.log.WithField("workers", p.workers).Info("Starting worker pool")
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.run(i)
	}
}

func (p *WorkerPool) run(id int) {
	defer p.wg.Done()
	log := p.log.WithField("worker", id)
	for {
		select {
		case <-p.ctx.Done():
			return
		case fn, ok := <-p.queue:
			if !ok {
				return
			}
			func() {
				defer func() {
					if r := recover(); r != nil {
						log.WithField("panic", r).Error("Panic recovered in task workflow")
					}
				}()
				fn(p.ctx)
			}()
		}
	}
}

// Submit enqueues a workflow for execution. It fails when the pool has been
// stopped or the queue is full; callers surface that to the client rather
// than blocking the request.
func (p *WorkerPool) Submit(fn func(ctx context.Context)) error {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return fmt.Errorf("worker pool %s is stopped", p.name)
	}
	p.mu.Unlock()

	select {
	case p.queue <- fn:
		return nil
	default:
		return fmt.Errorf("worker pool %s queue is full", p.name)
	}
}

// Stop stops accepting work and waits for in-flight workflows to finish,
// up to the given context deadline.
func (p *WorkerPool) Stop(ctx context.Context) error {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return nil
	}
	p.stopped = true
	close(p.queue)
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.cancel()
		return nil
	case <-ctx.Done():
		p.cancel()
		return fmt.Errorf("worker pool %s did not drain before deadline", p.name)
	}
}

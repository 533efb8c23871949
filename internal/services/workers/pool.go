package workers

import (
	"context"
	"fmt"
	"sync"

	"github.com/ternarybob/arbor"
)

// Task is one unit of background work, typically a submit or pipeline run
// for a single application.
type Task func(ctx context.Context) error

// Pool runs tasks on a fixed set of workers. Browser-bound work is expensive,
// so the pool caps concurrency instead of spawning per-task goroutines.
type Pool struct {
	tasks      chan Task
	maxWorkers int
	wg         sync.WaitGroup
	ctx        context.Context
	cancel     context.CancelFunc
	errors     []error
	errorsMu   sync.Mutex
	logger     arbor.ILogger
}

// NewPool creates a pool with the given concurrency cap.
func NewPool(maxWorkers int, logger arbor.ILogger) *Pool {
	if maxWorkers <= 0 {
		maxWorkers = 4
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Pool{
		tasks:      make(chan Task, maxWorkers*2),
		maxWorkers: maxWorkers,
		ctx:        ctx,
		cancel:     cancel,
		logger:     logger,
	}
}

// Start launches the workers.
func (p *Pool) Start() {
	p.logger.Info().
		Int("max_workers", p.maxWorkers).
		Msg("Starting worker pool")

	for i := 0; i < p.maxWorkers; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
}

// Submit queues a task. Blocks while the queue is full, fails once the pool
// is shutting down.
func (p *Pool) Submit(task Task) error {
	select {
	case p.tasks <- task:
		return nil
	case <-p.ctx.Done():
		return fmt.Errorf("worker pool is shutting down")
	}
}

// Wait closes the queue and blocks until in-flight tasks finish.
func (p *Pool) Wait() {
	close(p.tasks)
	p.wg.Wait()
}

// Shutdown cancels running tasks and waits for the workers to exit.
func (p *Pool) Shutdown() {
	p.cancel()
	p.Wait()
	p.logger.Info().Msg("Worker pool shutdown complete")
}

// Errors returns the errors collected from failed tasks.
func (p *Pool) Errors() []error {
	p.errorsMu.Lock()
	defer p.errorsMu.Unlock()
	return append([]error(nil), p.errors...)
}

func (p *Pool) worker(id int) {
	defer p.wg.Done()

	p.logger.Debug().Int("worker_id", id).Msg("Worker started")

	for {
		select {
		case task, ok := <-p.tasks:
			if !ok {
				p.logger.Debug().Int("worker_id", id).Msg("Worker stopping, queue closed")
				return
			}
			p.runTask(id, task)

		case <-p.ctx.Done():
			p.logger.Debug().Int("worker_id", id).Msg("Worker stopping, context cancelled")
			return
		}
	}
}

// runTask executes one task, recovering panics so a bad page or parser
// cannot take the worker down.
func (p *Pool) runTask(id int, task Task) {
	var err error
	func() {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("task panicked: %v", r)
			}
		}()
		err = task(p.ctx)
	}()

	if err != nil {
		p.errorsMu.Lock()
		p.errors = append(p.errors, err)
		p.errorsMu.Unlock()

		p.logger.Error().Err(err).Int("worker_id", id).Msg("Task failed")
	}
}

// Package tasks provides a bounded worker pool for fire-and-forget side
// effects (mail dispatch, blob uploads). Callers never wait for completion
// and operation correctness never depends on a task's success.
package tasks

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Task is one unit of background work.
type Task func(ctx context.Context)

// Pool runs submitted tasks on a fixed set of workers with a bounded queue.
type Pool struct {
	queue chan Task
	wg    sync.WaitGroup
	log   *zap.Logger

	mu     sync.Mutex
	closed bool
}

// NewPool starts workers goroutines draining a queue of the given size.
func NewPool(workers, queueSize int, log *zap.Logger) *Pool {
	if workers <= 0 {
		workers = 4
	}
	if queueSize <= 0 {
		queueSize = 64
	}
	p := &Pool{queue: make(chan Task, queueSize), log: log}
	p.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go p.worker()
	}
	return p
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for t := range p.queue {
		func() {
			defer func() {
				if r := recover(); r != nil {
					p.log.Error("background task panic", zap.Any("reason", r))
				}
			}()
			t(context.Background())
		}()
	}
}

// Submit enqueues a task. When the queue is full or the pool is closed the
// task is dropped with a warning: background work is advisory.
func (p *Pool) Submit(t Task) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		p.log.Warn("task dropped: pool closed")
		return
	}
	select {
	case p.queue <- t:
	default:
		p.log.Warn("task dropped: queue full")
	}
}

// Close stops accepting tasks and waits for in-flight ones to finish.
func (p *Pool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.queue)
	p.mu.Unlock()
	p.wg.Wait()
}

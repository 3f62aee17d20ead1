package crawl

import (
	"context"
	"sync"
)

// job is the unit of work dispatched to a worker.
type job[T, R any] struct {
	payload T
	result  chan<- jobResult[T, R]
}

type jobResult[T, R any] struct {
	payload T
	value   R
	err     error
}

// workerPool is a fixed-size goroutine pool with a bounded input queue.
// Submit blocks while the queue is full, which caps in-flight work.
type workerPool[T, R any] struct {
	queue   chan job[T, R]
	process func(ctx context.Context, t T) (R, error)
	wg      sync.WaitGroup
}

// newWorkerPool creates and starts a pool with n goroutines and queue capacity cap.
func newWorkerPool[T, R any](ctx context.Context, n, cap int, fn func(context.Context, T) (R, error)) *workerPool[T, R] {
	p := &workerPool[T, R]{
		queue:   make(chan job[T, R], cap),
		process: fn,
	}
	for i := 0; i < n; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			p.run(ctx)
		}()
	}
	return p
}

func (p *workerPool[T, R]) run(ctx context.Context) {
	for {
		select {
		case j, ok := <-p.queue:
			if !ok {
				return
			}
			v, err := p.process(ctx, j.payload)
			if j.result != nil {
				j.result <- jobResult[T, R]{payload: j.payload, value: v, err: err}
			}
		case <-ctx.Done():
			return
		}
	}
}

// Submit enqueues a job, waiting for queue space. It returns false if ctx
// is done first. result must have room for the reply.
func (p *workerPool[T, R]) Submit(ctx context.Context, t T, result chan<- jobResult[T, R]) bool {
	select {
	case p.queue <- job[T, R]{payload: t, result: result}:
		return true
	case <-ctx.Done():
		return false
	}
}

// Drain closes the queue and waits for all workers to finish.
func (p *workerPool[T, R]) Drain() {
	close(p.queue)
	p.wg.Wait()
}

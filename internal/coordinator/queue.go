package coordinator

import (
	"context"
	"sync"
)

type task struct {
	op  string
	run func()
}

// queue runs tasks one at a time in submission order on a single worker.
// Submissions never block.
type queue struct {
	mu       sync.Mutex
	cond     *sync.Cond
	pending  []task
	inflight int
	closed   bool
	idle     chan struct{}
	stopped  chan struct{}
}

func newQueue() *queue {
	q := &queue{
		idle:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	close(q.idle)
	q.cond = sync.NewCond(&q.mu)
	go q.work()
	return q
}

// push reports false once the queue is closed.
func (q *queue) push(t task) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}
	if q.inflight == 0 {
		q.idle = make(chan struct{})
	}
	q.inflight++
	q.pending = append(q.pending, t)
	q.cond.Signal()
	return true
}

func (q *queue) work() {
	defer close(q.stopped)
	for {
		q.mu.Lock()
		for len(q.pending) == 0 && !q.closed {
			q.cond.Wait()
		}
		if len(q.pending) == 0 && q.closed {
			q.mu.Unlock()
			return
		}
		t := q.pending[0]
		q.pending[0] = task{}
		q.pending = q.pending[1:]
		q.mu.Unlock()

		t.run()

		q.mu.Lock()
		q.inflight--
		if q.inflight == 0 {
			close(q.idle)
		}
		q.mu.Unlock()
	}
}

// drain waits until every submitted task has finished.
func (q *queue) drain(ctx context.Context) error {
	q.mu.Lock()
	idle := q.idle
	q.mu.Unlock()

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// close stops accepting tasks; the worker exits after the backlog.
func (q *queue) close() {
	q.mu.Lock()
	q.closed = true
	q.cond.Broadcast()
	q.mu.Unlock()
}

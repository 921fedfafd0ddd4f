package state

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
)

// ErrQueueClosed is returned by Sync once the queue has been closed.
var ErrQueueClosed = errors.New("queue closed")

// Queue runs posted tasks one at a time, in posting order, on a single
// worker goroutine. Posting never blocks.
type Queue struct {
	name string

	mu     sync.Mutex
	tasks  []func()
	closed bool
	wake   chan struct{}
	done   chan struct{}

	ran atomic.Int64
}

// NewQueue starts a queue worker.
func NewQueue(name string) *Queue {
	q := &Queue{
		name: name,
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
	go q.run()
	return q
}

// Post enqueues task. It reports false when the queue is closed.
func (q *Queue) Post(task func()) bool {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return false
	}
	q.tasks = append(q.tasks, task)
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}
	return true
}

// Sync runs code on q and waits for its result.
func Sync[T any](q *Queue, code func() (T, error)) (T, error) {
	type result struct {
		v   T
		err error
	}
	ch := make(chan result, 1)
	ok := q.Post(func() {
		var r result
		defer func() { ch <- r }()
		r.v, r.err = code()
	})
	if !ok {
		var zero T
		return zero, ErrQueueClosed
	}
	r := <-ch
	return r.v, r.err
}

// Flush waits until every task posted before the call has run.
func (q *Queue) Flush() {
	Sync(q, func() (struct{}, error) { return struct{}{}, nil })
}

// Pending returns the number of queued tasks not yet started.
func (q *Queue) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.tasks)
}

// Ran returns how many tasks have completed.
func (q *Queue) Ran() int64 { return q.ran.Load() }

// Close stops accepting tasks and waits for the queued ones to finish.
func (q *Queue) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		<-q.done
		return
	}
	q.closed = true
	q.mu.Unlock()
	select {
	case q.wake <- struct{}{}:
	default:
	}
	<-q.done
}

func (q *Queue) run() {
	defer close(q.done)
	for {
		q.mu.Lock()
		if len(q.tasks) == 0 {
			closed := q.closed
			q.mu.Unlock()
			if closed {
				return
			}
			<-q.wake
			continue
		}
		task := q.tasks[0]
		q.tasks[0] = nil
		q.tasks = q.tasks[1:]
		q.mu.Unlock()

		q.exec(task)
	}
}

func (q *Queue) exec(task func()) {
	defer func() {
		q.ran.Add(1)
		if r := recover(); r != nil {
			if assertInvariants {
				panic(r)
			}
			log.Error("task panicked", "queue", q.name, "panic", fmt.Sprint(r))
		}
	}()
	task()
}

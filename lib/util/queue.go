package util

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// node is a single element of the queue
type node[T any] struct {
	value *T
	next  atomic.Pointer[node[T]]
}

// Queue is an unbounded lock-free multi-producer single-consumer queue.
// Producers append to a linked list with CAS, a single goroutine moves the
// items to the channel returned by Recv. Items pushed by one producer are
// received in push order.
type Queue[T any] struct {
	head   atomic.Pointer[node[T]]
	tail   atomic.Pointer[node[T]]
	out    chan *T
	closed atomic.Bool
	size   atomic.Int64

	mu   sync.Mutex // only used to park the consumer
	cond *sync.Cond
}

// NewQueue creates a new queue and starts its consumer goroutine
func NewQueue[T any]() *Queue[T] {
	sentinel := &node[T]{}

	q := &Queue[T]{
		out: make(chan *T),
	}
	q.cond = sync.NewCond(&q.mu)
	q.head.Store(sentinel)
	q.tail.Store(sentinel)

	go q.consume()
	return q
}

// Push adds an item to the queue.
// Returns false if the item is nil or the queue is closed.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (q *Queue[T]) Push(value *T) bool {
	if value == nil || q.closed.Load() {
		return false
	}

	n := &node[T]{value: value}
	var backoff uint8

	for {
		tail := q.tail.Load()
		next := tail.next.Load()

		if next == nil {
			if tail.next.CompareAndSwap(nil, n) {
				// another producer may have moved the tail already
				q.tail.CompareAndSwap(tail, n)
				q.size.Add(1)
				q.wake()
				return true
			}
		} else {
			// help a producer that appended but did not move the tail yet
			q.tail.CompareAndSwap(tail, next)
		}

		// spin at low contention, yield at high contention
		if backoff < 10 {
			backoff++
			for i := 0; i < 1<<backoff; i++ {
				runtime.Gosched()
			}
		}
		runtime.Gosched()
	}
}

// wake signals the consumer while holding the mutex, so a signal sent
// between the consumer's emptiness check and its Wait is not lost
func (q *Queue[T]) wake() {
	q.mu.Lock()
	q.cond.Signal()
	q.mu.Unlock()
}

// consume moves all items to the out channel until the queue is closed and empty
func (q *Queue[T]) consume() {
	defer close(q.out)

	for {
		for {
			head := q.head.Load()
			next := head.next.Load()
			if next == nil {
				break
			}

			value := next.value
			q.head.Store(next)
			q.out <- value
			q.size.Add(-1)

			// the node is the new sentinel, drop the reference for the gc
			next.value = nil
		}

		q.mu.Lock()
		if q.head.Load().next.Load() == nil {
			if q.closed.Load() {
				q.mu.Unlock()
				return
			}
			q.cond.Wait()
		}
		q.mu.Unlock()
	}
}

// Recv returns the channel the items are delivered on.
// The channel is closed after Close was called and all items were received.
func (q *Queue[T]) Recv() <-chan *T {
	return q.out
}

// Close prevents further pushes. Items already in the queue are still delivered.
func (q *Queue[T]) Close() {
	q.closed.Store(true)
	q.wake()
}

// IsClosed returns true if Close was called
func (q *Queue[T]) IsClosed() bool {
	return q.closed.Load()
}

// Len returns the number of items that were pushed but not yet received
func (q *Queue[T]) Len() int {
	return int(q.size.Load())
}

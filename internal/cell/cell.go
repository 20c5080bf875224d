// Package cell provides the observable state holder connecting backend
// drivers to widgets. Each widget owns one Cell; its drivers mutate the cell
// through queued mutator callbacks, and every applied mutation raises the
// widget's redraw notification.
package cell

import "sync"

// Cell holds one widget's state of type T. Mutations are enqueued by Update
// and applied one at a time, in FIFO arrival order, by the cell's dispatch
// goroutine. Drivers hold the Cell as a non-owning reference: once the
// owning widget closes it, further updates are absorbed silently.
type Cell[T any] struct {
	mu     sync.Mutex
	state  T
	notify func()

	pending *Queue[func(*T)]
	done    chan struct{}
}

// New creates a Cell with the given initial state and starts its dispatch
// goroutine. notify is invoked after every applied mutation; it runs on the
// dispatch goroutine and must not block.
func New[T any](initial T, notify func()) *Cell[T] {
	c := &Cell[T]{
		state:   initial,
		notify:  notify,
		pending: NewQueue[func(*T)](),
		done:    make(chan struct{}),
	}
	go c.run()
	return c
}

// Update enqueues a mutation of the widget state and returns immediately.
// Mutations from concurrent callers are applied in arrival order. After
// Close, Update is a silent no-op; absence of failure is the only guarantee.
func (c *Cell[T]) Update(fn func(*T)) {
	if fn == nil {
		return
	}
	c.pending.Push(fn)
}

// Get returns a snapshot copy of the current state.
func (c *Cell[T]) Get() T {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Close marks the cell dead, discards any mutations not yet applied, and
// waits for the dispatch goroutine to finish. Idempotent.
func (c *Cell[T]) Close() {
	c.pending.Close()
	<-c.done
}

// run applies queued mutations until the cell is closed. Every mutation is
// followed by exactly one notification, whether or not it changed anything
// the caller can observe.
func (c *Cell[T]) run() {
	defer close(c.done)

	for {
		fn, ok := c.pending.Pop()
		if !ok {
			return
		}

		c.mu.Lock()
		fn(&c.state)
		c.mu.Unlock()

		if c.notify != nil {
			c.notify()
		}
	}
}

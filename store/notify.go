package store

import "sync"

// Dispatcher controls when a queued change notification is delivered. The
// store enqueues at most one drain closure per external mutating call; the
// dispatcher decides when it runs. This replaces microtask-style deferral
// with an explicit contract the embedding runtime owns.
type Dispatcher interface {
	Dispatch(fn func())
}

// SyncDispatcher runs the notification at the end of the mutating call that
// produced it. One call, one notification — the default behavior.
type SyncDispatcher struct{}

func (SyncDispatcher) Dispatch(fn func()) {
	fn()
}

// QueueDispatcher accumulates notification closures until the embedder
// drains them. Because the store coalesces while a notification is pending,
// a batch of synchronous calls between drains collapses to one delivery.
type QueueDispatcher struct {
	mu      sync.Mutex
	pending []func()
}

// NewQueueDispatcher returns an empty QueueDispatcher.
func NewQueueDispatcher() *QueueDispatcher {
	return &QueueDispatcher{}
}

func (d *QueueDispatcher) Dispatch(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.pending = append(d.pending, fn)
}

// Drain runs every queued closure in order and clears the queue.
func (d *QueueDispatcher) Drain() {
	d.mu.Lock()
	fns := d.pending
	d.pending = nil
	d.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

// Len returns the number of queued closures.
func (d *QueueDispatcher) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pending)
}

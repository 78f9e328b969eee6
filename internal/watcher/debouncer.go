package watcher

import (
	"sync"
	"time"
)

// Debouncer coalesces rapid file change events.
// It waits for a quiet period before firing the callback once per key.
type Debouncer struct {
	mu       sync.Mutex
	pending  map[string]*time.Timer
	interval time.Duration
	callback func(key string)
	stopped  bool
}

// NewDebouncer creates a debouncer that fires callback after interval of
// quiet for a key.
func NewDebouncer(interval time.Duration, callback func(key string)) *Debouncer {
	return &Debouncer{
		pending:  make(map[string]*time.Timer),
		interval: interval,
		callback: callback,
	}
}

// Trigger registers an event for key.
// If an event for the same key is already pending, its timer is reset.
func (d *Debouncer) Trigger(key string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}

	if timer, exists := d.pending[key]; exists {
		timer.Stop()
	}
	d.pending[key] = time.AfterFunc(d.interval, func() {
		d.fire(key)
	})
}

// fire executes the callback for a debounced key.
func (d *Debouncer) fire(key string) {
	d.mu.Lock()
	if _, exists := d.pending[key]; !exists || d.stopped {
		d.mu.Unlock()
		return
	}
	delete(d.pending, key)
	d.mu.Unlock()

	// Call the callback outside the lock
	d.callback(key)
}

// Stop cancels all pending timers and prevents new events.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopped = true

	for key, timer := range d.pending {
		timer.Stop()
		delete(d.pending, key)
	}
}

// PendingCount returns the number of pending debounced events.
func (d *Debouncer) PendingCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pending)
}

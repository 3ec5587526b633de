package debounce

import (
	"sync"
	"time"
)

// Debouncer runs at most one pending action per key. Starting a key that
// already has a pending action replaces it and restarts the quiet period.
type Debouncer struct {
	mu     sync.Mutex
	timers map[string]*entry
	seq    uint64
	closed bool
}

type entry struct {
	timer *time.Timer
	gen   uint64
}

func New() *Debouncer {
	return &Debouncer{timers: make(map[string]*entry)}
}

func (d *Debouncer) Start(key string, delay time.Duration, action func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return
	}

	if e, ok := d.timers[key]; ok {
		e.timer.Stop()
	}
	d.seq++
	gen := d.seq

	e := &entry{gen: gen}
	e.timer = time.AfterFunc(delay, func() {
		d.mu.Lock()
		// A timer that fired while being replaced must not run.
		cur, ok := d.timers[key]
		if !ok || cur.gen != gen {
			d.mu.Unlock()
			return
		}
		delete(d.timers, key)
		d.mu.Unlock()

		action()
	})
	d.timers[key] = e
}

// Cancel drops the pending action for key, if any.
func (d *Debouncer) Cancel(key string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if e, ok := d.timers[key]; ok {
		e.timer.Stop()
		delete(d.timers, key)
	}
}

func (d *Debouncer) Pending(key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	_, ok := d.timers[key]
	return ok
}

// Stop cancels every pending action. Later calls to Start are ignored.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	for key, e := range d.timers {
		e.timer.Stop()
		delete(d.timers, key)
	}
	d.closed = true
}

// Package timers provides a registry of named, delayed, one-shot callbacks.
// Timers are keyed by (table, kind); scheduling under a key already in flight
// atomically cancels and replaces the previous timer, which is what prevents
// stale phase advancement when a player acts just before their timeout fires.
package timers

import (
	"sync"
	"time"

	"github.com/decred/slog"
)

type key struct {
	table string
	kind  string
}

// Registry tracks in-flight timers. The zero value is not usable; call New.
type Registry struct {
	log    slog.Logger
	mu     sync.Mutex
	timers map[key]*time.Timer
}

// New creates an empty timer registry. A nil logger discards output.
func New(log slog.Logger) *Registry {
	if log == nil {
		log = slog.Disabled
	}
	return &Registry{
		log:    log,
		timers: make(map[key]*time.Timer),
	}
}

// Schedule arms fn to run once after delay under the (table, kind) name. Any
// timer already in flight under the same name is cancelled first. The callback
// runs on the timer goroutine; if the timer was replaced or cancelled between
// firing and running, the callback is suppressed.
func (r *Registry) Schedule(table, kind string, delay time.Duration, fn func()) {
	k := key{table: table, kind: kind}

	r.mu.Lock()
	defer r.mu.Unlock()

	if prev, ok := r.timers[k]; ok {
		prev.Stop()
	}

	var tm *time.Timer
	tm = time.AfterFunc(delay, func() {
		r.mu.Lock()
		// Only run if this timer is still the registered one; a
		// cancel-and-replace may have raced with the firing.
		if r.timers[k] != tm {
			r.mu.Unlock()
			return
		}
		delete(r.timers, k)
		r.mu.Unlock()

		// A panicking callback must not take the process down; whatever
		// state it guarded stays as the last consistent mutation left it.
		defer func() {
			if p := recover(); p != nil {
				r.log.Errorf("timer %s/%s callback panicked: %v", k.table, k.kind, p)
			}
		}()
		fn()
	})
	r.timers[k] = tm
}

// Cancel stops the timer under the (table, kind) name if one is in flight.
// Cancelling an unknown or already-fired timer is a no-op.
func (r *Registry) Cancel(table, kind string) {
	k := key{table: table, kind: kind}

	r.mu.Lock()
	defer r.mu.Unlock()

	if tm, ok := r.timers[k]; ok {
		tm.Stop()
		delete(r.timers, k)
	}
}

// CancelTable stops every timer belonging to a table. Used on table closure.
func (r *Registry) CancelTable(table string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for k, tm := range r.timers {
		if k.table == table {
			tm.Stop()
			delete(r.timers, k)
		}
	}
}

// Pending returns the number of in-flight timers, for tests and diagnostics.
func (r *Registry) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.timers)
}

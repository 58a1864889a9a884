// Package pending implements the walker's pending registry (spec §4.3):
// the in-flight fetch counter and the cancellable set of scheduled
// refresh timers that together drive the walk controller's termination
// check (spec §3 invariant 6).
package pending

import (
	"sync"
	"time"
)

// Token identifies one scheduled timer so it can be found and cancelled.
type Token uint64

// Registry tracks outstanding fetches and scheduled timers for a single
// walk engine. All methods are safe for concurrent use: fetch callbacks
// and timer firings run on arbitrary goroutines, but every state change
// is serialized behind one mutex, matching the single coordinating-task
// model spec §5 requires of an implementation in a thread-rich language.
type Registry struct {
	mu       sync.Mutex
	inflight int
	timers   map[Token]*time.Timer
	next     Token
	ended    bool

	// notify is invoked after Decr, SetEnded and each timer firing, the
	// transitions that can leave the registry ended and fully idle — the
	// walk controller uses it to re-run its ended->closed consumption
	// check. Incr, Cancel and CancelAll do not invoke it.
	notify func()
}

// New builds an empty registry. notify may be nil.
func New(notify func()) *Registry {
	return &Registry{
		timers: make(map[Token]*time.Timer),
		notify: notify,
	}
}

// Incr records that a fetch has been issued. Call before invoking the
// loader.
func (r *Registry) Incr() {
	r.mu.Lock()
	r.inflight++
	r.mu.Unlock()
}

// Decr records that a fetch's callback has run, success or error. Call
// exactly once per Incr.
func (r *Registry) Decr() {
	r.mu.Lock()
	r.inflight--
	r.mu.Unlock()
	r.fireNotify()
}

// Inflight returns the current in-flight fetch count.
func (r *Registry) Inflight() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.inflight
}

// SetEnded marks the registry as belonging to a controller that has left
// the reading state. Once ended, Schedule becomes a no-op (spec §4.3).
func (r *Registry) SetEnded() {
	r.mu.Lock()
	r.ended = true
	r.mu.Unlock()
	r.fireNotify()
}

// Schedule arranges for action to run after delay, unless the registry
// has already been marked ended, in which case it is a no-op that
// returns ok=false. On firing, the token is removed from the pending set
// before action runs, and the notify callback fires afterward so the
// controller can re-check whether the walk has drained.
func (r *Registry) Schedule(delay time.Duration, action func()) (tok Token, ok bool) {
	r.mu.Lock()
	if r.ended {
		r.mu.Unlock()
		return 0, false
	}
	r.next++
	tok = r.next
	var timer *time.Timer
	timer = time.AfterFunc(delay, func() {
		r.mu.Lock()
		_, stillPending := r.timers[tok]
		delete(r.timers, tok)
		r.mu.Unlock()
		if !stillPending {
			return
		}
		action()
		r.fireNotify()
	})
	r.timers[tok] = timer
	r.mu.Unlock()
	return tok, true
}

// Cancel stops a single pending timer, if it is still pending.
func (r *Registry) Cancel(tok Token) {
	r.mu.Lock()
	timer, ok := r.timers[tok]
	if ok {
		delete(r.timers, tok)
	}
	r.mu.Unlock()
	if ok {
		timer.Stop()
	}
}

// CancelAll stops every pending timer. Called when the walk transitions
// to closed (spec §4.8, §5 "Cancellation").
func (r *Registry) CancelAll() {
	r.mu.Lock()
	timers := r.timers
	r.timers = make(map[Token]*time.Timer)
	r.mu.Unlock()
	for _, t := range timers {
		t.Stop()
	}
}

// PendingTimers returns the number of scheduled-but-not-yet-fired timers.
func (r *Registry) PendingTimers() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.timers)
}

// Idle reports whether there is nothing left to wait for: no in-flight
// fetches and no scheduled timers (spec §3 invariant 5 combined).
func (r *Registry) Idle() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.inflight == 0 && len(r.timers) == 0
}

func (r *Registry) fireNotify() {
	if r.notify != nil {
		r.notify()
	}
}

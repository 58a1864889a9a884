package walk

import (
	"context"
	"sync"

	"hlswalk/internal/model"
)

// Stream is the pull-based output described in spec §6: a readable
// stream in object mode. The engine's run loop pushes events into an
// internal, unbounded queue that never blocks the producer (spec §5
// "Backpressure" is an acknowledged open question — fetches are never
// throttled by a slow consumer); a single forwarder goroutine drains
// that queue, in order, into the channel Next reads from.
type Stream struct {
	mu       sync.Mutex
	queue    []model.Event
	notify   chan struct{}
	out      chan model.Event
	finished bool

	startOnce sync.Once
	onStart   func()
	onClose   func()
}

func newStream(onStart, onClose func()) *Stream {
	s := &Stream{
		notify:  make(chan struct{}, 1),
		out:     make(chan model.Event),
		onStart: onStart,
		onClose: onClose,
	}
	go s.forward()
	return s
}

// push enqueues e for delivery. Safe to call from the engine's run
// loop; never blocks.
func (s *Stream) push(e model.Event) {
	s.mu.Lock()
	s.queue = append(s.queue, e)
	s.mu.Unlock()
	select {
	case s.notify <- struct{}{}:
	default:
	}
}

// finish drains any queued events and then closes the output channel.
// Called once by the engine when it reaches the closed state.
func (s *Stream) finish() {
	s.mu.Lock()
	s.finished = true
	s.mu.Unlock()
	select {
	case s.notify <- struct{}{}:
	default:
	}
}

func (s *Stream) forward() {
	for {
		s.mu.Lock()
		for len(s.queue) == 0 && !s.finished {
			s.mu.Unlock()
			<-s.notify
			s.mu.Lock()
		}
		if len(s.queue) == 0 && s.finished {
			s.mu.Unlock()
			close(s.out)
			return
		}
		e := s.queue[0]
		s.queue = s.queue[1:]
		s.mu.Unlock()
		s.out <- e
	}
}

// Next blocks until an event is available, the stream is closed (ok
// == false), or ctx is cancelled (ok == false). The first call triggers
// the engine's initialized->reading transition (spec §4.8).
func (s *Stream) Next(ctx context.Context) (model.Event, bool) {
	s.startOnce.Do(func() {
		if s.onStart != nil {
			s.onStart()
		}
	})
	select {
	case e, ok := <-s.out:
		return e, ok
	case <-ctx.Done():
		return nil, false
	}
}

// Close tells the engine the consumer is done reading. In-flight
// fetches are not forcibly cancelled (spec §5 "Cancellation"); the
// engine simply stops scheduling new work and drains to closed.
func (s *Stream) Close() {
	if s.onClose != nil {
		s.onClose()
	}
}

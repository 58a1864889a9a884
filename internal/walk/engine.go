// Package walk implements the playlist walk engine (spec §2): the state
// machine that schedules conditional refetches, tracks outstanding
// fetches, deduplicates unchanged playlists, diffs successive playlists,
// coordinates subresource completion, and exposes the result as a
// pull-based stream of events.
package walk

import (
	"context"
	"fmt"

	"hlswalk/internal/loader"
	"hlswalk/internal/logger"
	"hlswalk/internal/model"
	"hlswalk/internal/parse"
	"hlswalk/internal/pending"
)

// controllerState is the walk controller's state machine (spec §4.8).
type controllerState int

const (
	stateInitialized controllerState = iota
	stateReading
	stateEnded
	stateClosed
)

// Engine is the walker: a single logical actor owning the master/media
// playlist caches, the in-flight counter, and the pending timer set
// (spec §2). Every mutation to that state happens inside the run loop
// goroutine, which serializes fetch completions and timer firings into
// one stream of closures — the message-passing controller spec §9
// recommends for a thread-rich language.
type Engine struct {
	entryURI string
	opts     Options
	log      logger.Logger

	pool     *fetchPool
	registry *pending.Registry
	stream   *Stream

	ops chan func()

	state   controllerState
	masters map[string]*model.MasterPlaylist
	medias  map[string]*model.MediaPlaylist

	// masterTimers/mediaTimers hold the pending.Token of each playlist's
	// currently-armed refresh timer, keyed by its URI, so a playlist that
	// stops being referenced (a variant dropped from a live master) can
	// have its still-pending refresh cancelled instead of firing and
	// resurrecting it (spec §3 "dropped when their defining parent no
	// longer references them").
	masterTimers map[string]pending.Token
	mediaTimers  map[string]pending.Token
}

// New builds a walk Engine rooted at entryURI. Nothing is fetched until
// the consumer's first call to Next (spec §4.8
// "initialized -> reading: triggered by the first downstream read").
func New(entryURI string, opts Options) *Engine {
	opts = opts.withDefaults()

	l := opts.Loader
	if l == nil {
		l = loader.NewDispatch(opts.RootPath, opts.UserAgent, opts.Logger)
	}

	e := &Engine{
		entryURI:     entryURI,
		opts:         opts,
		log:          opts.Logger,
		ops:          make(chan func(), 1024),
		masters:      make(map[string]*model.MasterPlaylist),
		medias:       make(map[string]*model.MediaPlaylist),
		masterTimers: make(map[string]pending.Token),
		mediaTimers:  make(map[string]pending.Token),
	}

	e.pool = newFetchPool(l, opts.Logger, opts.Concurrency)
	e.registry = pending.New(func() {
		e.ops <- func() { e.checkClosed() }
	})
	e.stream = newStream(
		func() { e.ops <- func() { e.start() } },
		func() { e.ops <- func() { e.consumerClosed() } },
	)

	go e.run()
	return e
}

// Next pulls the next event from the output stream, blocking until one
// is available, the stream closes, or ctx is cancelled.
func (e *Engine) Next(ctx context.Context) (model.Event, bool) {
	return e.stream.Next(ctx)
}

// Close tells the engine the consumer is abandoning the walk. In-flight
// fetches finish but no new work is scheduled (spec §5 "Cancellation").
func (e *Engine) Close() {
	e.stream.Close()
}

func (e *Engine) run() {
	for {
		select {
		case fr := <-e.pool.out:
			e.handleFetchResult(fr)
		case op := <-e.ops:
			op()
		}
		if e.state == stateClosed {
			e.pool.stop()
			return
		}
	}
}

func (e *Engine) start() {
	if e.state != stateInitialized {
		return
	}
	e.state = stateReading
	e.fetchPlaylist(e.entryURI)
}

func (e *Engine) consumerClosed() {
	if e.state == stateClosed {
		return
	}
	e.state = stateEnded
	e.registry.SetEnded()
	e.checkClosed()
}

func (e *Engine) setEnded() {
	if e.state == stateEnded || e.state == stateClosed {
		return
	}
	e.state = stateEnded
	e.registry.SetEnded()
	e.checkClosed()
}

// checkClosed implements spec §4.8's "ended -> closed" transition: it
// holds once the controller is ended, nothing is in flight, and no
// timer remains pending (spec §3 invariant 6). It is re-run after every
// registry Decr, SetEnded and timer firing via the notify callback, which always arrives
// through e.ops — giving the one-tick deferral spec §4.8 calls for.
func (e *Engine) checkClosed() {
	if e.state != stateEnded {
		return
	}
	if !e.registry.Idle() {
		return
	}
	e.state = stateClosed
	e.registry.CancelAll()
	e.masters = nil
	e.medias = nil
	e.masterTimers = nil
	e.mediaTimers = nil
	e.stream.finish()
}

func (e *Engine) fetchPlaylist(uri string) {
	if e.state != stateReading {
		return
	}
	e.registry.Incr()
	e.pool.submit(fetchTask{
		kind: fetchPlaylist,
		uri:  uri,
		opts: loader.Options{RawResponse: e.opts.RawResponse},
	})
}

func (e *Engine) handleFetchResult(fr fetchResult) {
	e.registry.Decr()

	if fr.err != nil {
		e.log.Warnf("fetch failed for %s: %v", fr.task.uri, fr.err)
		e.stream.push(model.ErrorEvent{URI: fr.task.uri, Err: fr.err})
		return
	}

	switch fr.task.kind {
	case fetchPlaylist:
		e.handlePlaylistFetched(fr.task.uri, fr.result)
	case fetchSegmentData:
		e.handleSegmentDataFetched(fr.task, fr.result)
	case fetchSegmentKey:
		e.handleSegmentKeyFetched(fr.task, fr.result)
	case fetchSegmentMap:
		e.handleSegmentMapFetched(fr.task, fr.result)
	case fetchSessionKey:
		e.handleSessionKeyFetched(fr.task, fr.result)
	case fetchSessionData:
		e.handleSessionDataFetched(fr.task, fr.result)
	}
}

func (e *Engine) handlePlaylistFetched(uri string, res loader.Result) {
	// A playlist that lands after the walk has left reading is dropped:
	// it queues no subresource fetches and emits nothing.
	if e.state != stateReading {
		return
	}
	result, err := parse.Parse(uri, res.Data)
	if err != nil {
		e.log.Warnf("parse failed for %s: %v", uri, err)
		e.stream.push(model.ErrorEvent{URI: uri, Err: err})
		return
	}
	switch {
	case result.Master != nil:
		e.applyMaster(uri, result.Master)
	case result.Media != nil:
		e.applyMedia(uri, result.Media)
	default:
		e.stream.push(model.ErrorEvent{URI: uri, Err: fmt.Errorf("playlist %s decoded to neither master nor media", uri)})
	}
}

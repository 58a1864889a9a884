package walk

import (
	"context"
	"sync"

	"hlswalk/internal/loader"
	"hlswalk/internal/logger"
	"hlswalk/internal/model"
)

// fetchKind tags what a fetchTask is for, so the run loop knows which
// slot to fill on completion (spec §4.6 "four kinds of secondary
// fetch", plus the one playlist fetch kind shared by master, media, and
// the initial root fetch — the run loop only learns which it got once
// the parser reports back).
type fetchKind int

const (
	fetchPlaylist fetchKind = iota
	fetchSegmentData
	fetchSegmentKey
	fetchSegmentMap
	fetchSessionKey
	fetchSessionData
)

// fetchTask is one unit of work handed to the pool. Only the fields
// relevant to kind are populated; the run loop's result handler knows
// which to read.
type fetchTask struct {
	kind fetchKind
	uri  string
	opts loader.Options

	masterURI string
	mediaURI  string

	segments     []*model.Segment
	key          *model.Key
	mapRef       *model.Map
	sessionEntry *model.SessionDataEntry
}

type fetchResult struct {
	task   fetchTask
	result loader.Result
	err    error
}

// fetchPool bounds concurrent fetches with a fixed worker count, the
// way the teacher's dash.Downloader bounds concurrent segment downloads
// (spec §9 design-note #4: "A bounded worker pool is a safe addition").
//
// submit is called synchronously from the engine's single run-loop
// goroutine — the same goroutine that is the sole drainer of out. A
// media playlist with a large segment fan-out can submit hundreds of
// tasks in one diffMedia call, all before that goroutine returns to
// reading out again. If submit fed the bounded tasks channel directly,
// filling tasks would stall workers mid-send on out, and out filling
// would then block submit itself — the run loop deadlocked against its
// own backlog. So, mirroring Stream's unbounded-intake-queue plus
// forwarder-goroutine shape, submit only ever appends to an in-memory
// queue and signals a dedicated dispatch goroutine; only that goroutine
// blocks on the bounded tasks channel, never the run loop.
type fetchPool struct {
	loader loader.Loader
	logger logger.Logger

	mu     sync.Mutex
	queue  []fetchTask
	notify chan struct{}

	tasks chan fetchTask
	out   chan fetchResult

	dispatchDone chan struct{}

	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
}

func newFetchPool(l loader.Loader, log logger.Logger, workers int) *fetchPool {
	ctx, cancel := context.WithCancel(context.Background())
	p := &fetchPool{
		loader:       l,
		logger:       log,
		notify:       make(chan struct{}, 1),
		tasks:        make(chan fetchTask, 256),
		out:          make(chan fetchResult, 256),
		dispatchDone: make(chan struct{}),
		ctx:          ctx,
		cancel:       cancel,
	}
	p.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go p.worker()
	}
	go p.dispatch()
	return p
}

// submit queues a fetch. The caller must have already recorded the
// in-flight increment (spec §4.3 "incremented before issuing any
// fetch"). Never blocks, regardless of how many tasks are already
// queued or how full the worker pool is.
func (p *fetchPool) submit(task fetchTask) {
	p.mu.Lock()
	p.queue = append(p.queue, task)
	p.mu.Unlock()
	select {
	case p.notify <- struct{}{}:
	default:
	}
}

// dispatch is the only goroutine that feeds the bounded tasks channel,
// so it alone may block doing so. stop waits on dispatchDone before
// closing tasks, so dispatch is guaranteed to have stopped sending
// before the channel it sends on is closed.
func (p *fetchPool) dispatch() {
	defer close(p.dispatchDone)
	for {
		p.mu.Lock()
		for len(p.queue) == 0 {
			p.mu.Unlock()
			select {
			case <-p.notify:
			case <-p.ctx.Done():
				return
			}
			p.mu.Lock()
		}
		task := p.queue[0]
		p.queue = p.queue[1:]
		p.mu.Unlock()

		select {
		case p.tasks <- task:
		case <-p.ctx.Done():
			return
		}
	}
}

func (p *fetchPool) worker() {
	defer p.wg.Done()
	for {
		select {
		case task, ok := <-p.tasks:
			if !ok {
				return
			}
			p.loader.Load(p.ctx, task.uri, task.opts, func(res loader.Result, err error) {
				select {
				case p.out <- fetchResult{task: task, result: res, err: err}:
				case <-p.ctx.Done():
				}
			})
		case <-p.ctx.Done():
			return
		}
	}
}

// stop cancels outstanding work and shuts workers down. The cancelled
// context is the one every Load call receives, so a request still
// running when stop is called is aborted; the engine only calls stop
// once its in-flight count has reached zero. Queued tasks are dropped
// and workers exit once idle.
func (p *fetchPool) stop() {
	p.cancel()
	<-p.dispatchDone
	close(p.tasks)
	p.wg.Wait()
}

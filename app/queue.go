// Single-flight FIFO in front of the engine. The subprocess is a serial
// conversational partner, so exactly one item is ever awaiting output; all
// other callers wait in strict submission order.

package app

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"example/chess-engine-api/app/models"
)

// engineTransport is what the queue needs from the supervisor.
type engineTransport interface {
	Write(lines []string) error
	Events() <-chan engineEvent
	Ready() bool
}

// queueItem is one pending conversation with the engine.
type queueItem struct {
	id      string
	lines   []string
	timeout time.Duration
	done    chan queueResult // buffered, written exactly once
}

type queueResult struct {
	res searchResult
	err error
}

// searchResult is the terminal output of one conversation: the chosen move
// and the last score seen per multipv rank.
type searchResult struct {
	BestMove string
	Lines    []models.CandidateMove // rank ascending
}

type CommandQueue struct {
	engine engineTransport
	log    zerolog.Logger

	mu       sync.Mutex
	waiting  []*queueItem
	inflight *queueItem
	partial  map[int]models.CandidateMove
	timer    *time.Timer
	closed   bool

	quit chan struct{}
}

func NewCommandQueue(engine engineTransport, logger zerolog.Logger) *CommandQueue {
	q := &CommandQueue{
		engine: engine,
		log:    logger.With().Str("component", "queue").Logger(),
		quit:   make(chan struct{}),
	}
	go q.run()
	return q
}

// Submit enqueues the command lines and blocks until the conversation
// completes, fails, or times out. Items are serviced strictly in submission
// order; no priority or preemption.
func (q *CommandQueue) Submit(ctx context.Context, lines []string, timeout time.Duration) (searchResult, error) {
	item := &queueItem{
		id:      uuid.NewString(),
		lines:   lines,
		timeout: timeout,
		done:    make(chan queueResult, 1),
	}

	q.mu.Lock()
	if q.closed || !q.engine.Ready() {
		q.mu.Unlock()
		return searchResult{}, ErrEngineUnavailable
	}
	q.waiting = append(q.waiting, item)
	q.dispatchLocked()
	q.mu.Unlock()

	select {
	case r := <-item.done:
		return r.res, r.err
	case <-ctx.Done():
		// the item still completes internally; its buffered done channel
		// keeps the queue from blocking on an abandoned caller
		return searchResult{}, ctx.Err()
	}
}

func (q *CommandQueue) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	items := q.takeAllLocked()
	q.mu.Unlock()

	close(q.quit)
	for _, it := range items {
		it.done <- queueResult{err: ErrEngineUnavailable}
	}
}

// EngineReady is the supervisor's signal that dispatch may resume after a
// restart.
func (q *CommandQueue) EngineReady() {
	q.mu.Lock()
	q.dispatchLocked()
	q.mu.Unlock()
}

// EngineTerminated flushes the in-flight item and everything waiting with an
// engine-unavailable failure. Restart is a fresh start; nothing is replayed.
func (q *CommandQueue) EngineTerminated() {
	q.mu.Lock()
	items := q.takeAllLocked()
	q.mu.Unlock()

	if len(items) > 0 {
		q.log.Warn().Int("flushed", len(items)).Msg("engine terminated, flushing queue")
	}
	for _, it := range items {
		it.done <- queueResult{err: ErrEngineUnavailable}
	}
}

func (q *CommandQueue) run() {
	for {
		select {
		case <-q.quit:
			return
		case ev, ok := <-q.engine.Events():
			if !ok {
				return
			}
			q.handleEvent(ev)
		}
	}
}

func (q *CommandQueue) handleEvent(ev engineEvent) {
	q.mu.Lock()

	if q.inflight == nil {
		q.mu.Unlock()
		if ev.Kind == eventBestMove {
			// late output from a timed-out search; see timeout handling below
			q.log.Debug().Str("move", ev.Move).Msg("discarding stale bestmove")
		}
		return
	}

	switch ev.Kind {
	case eventScoredLine:
		// the engine streams improving estimates; last score per rank wins
		q.partial[ev.Rank] = models.CandidateMove{Rank: ev.Rank, Move: ev.Move, CP: ev.CP, Mate: ev.Mate}
		q.mu.Unlock()
	case eventBestMove:
		item := q.inflight
		res := searchResult{BestMove: ev.Move, Lines: rankedLines(q.partial)}
		q.clearInflightLocked()
		q.dispatchLocked()
		q.mu.Unlock()
		item.done <- queueResult{res: res}
	default:
		q.mu.Unlock()
	}
}

// dispatchLocked sends the head item when the queue is idle and the engine is
// ready, and arms its timeout.
func (q *CommandQueue) dispatchLocked() {
	for q.inflight == nil && len(q.waiting) > 0 && q.engine.Ready() {
		item := q.waiting[0]
		q.waiting[0] = nil
		q.waiting = q.waiting[1:]

		if err := q.engine.Write(item.lines); err != nil {
			item.done <- queueResult{err: err}
			continue
		}

		q.inflight = item
		q.partial = make(map[int]models.CandidateMove)
		q.timer = time.AfterFunc(item.timeout, func() { q.timeoutItem(item.id) })
		return
	}
}

// timeoutItem releases the caller with a timeout failure. The engine process
// is not killed; a slow search is not a crash. The stale search's eventual
// bestmove is discarded if nothing is in flight when it arrives, but if the
// next item has already been dispatched the supervisor's ordered event
// stream can misattribute it. Known weakness: UCI has no correlation ids.
func (q *CommandQueue) timeoutItem(id string) {
	q.mu.Lock()
	if q.inflight == nil || q.inflight.id != id {
		q.mu.Unlock()
		return
	}
	item := q.inflight
	q.clearInflightLocked()
	q.dispatchLocked()
	q.mu.Unlock()

	q.log.Warn().Str("item", id).Msg("engine search timed out")
	item.done <- queueResult{err: ErrTimeout}
}

func (q *CommandQueue) clearInflightLocked() {
	if q.timer != nil {
		q.timer.Stop()
		q.timer = nil
	}
	q.inflight = nil
	q.partial = nil
}

func (q *CommandQueue) takeAllLocked() []*queueItem {
	var items []*queueItem
	if q.inflight != nil {
		items = append(items, q.inflight)
		q.clearInflightLocked()
	}
	items = append(items, q.waiting...)
	q.waiting = nil
	return items
}

func rankedLines(partial map[int]models.CandidateMove) []models.CandidateMove {
	lines := make([]models.CandidateMove, 0, len(partial))
	for _, l := range partial {
		lines = append(lines, l)
	}
	sort.Slice(lines, func(i, j int) bool { return lines[i].Rank < lines[j].Rank })
	return lines
}

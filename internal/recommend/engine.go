// Package recommend scores a batch of candidate jobs against the user
// profile with progressive per-item results. One job's failure never
// blocks the rest of the batch.
package recommend

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"careerpilot/internal/jobs"
)

// Backend is the slice of the gateway the engine depends on.
type Backend interface {
	ListCandidateJobs(ctx context.Context) ([]jobs.Summary, error)
	ScoreJob(ctx context.Context, jobID string) (*jobs.Match, error)
	HideJob(ctx context.Context, jobID string) error
}

// State is the batch lifecycle.
type State int

const (
	Idle State = iota
	Listing
	Scoring
	Settled
)

func (s State) String() string {
	switch s {
	case Listing:
		return "listing"
	case Scoring:
		return "scoring"
	case Settled:
		return "settled"
	default:
		return "idle"
	}
}

// Snapshot is one fully formed view of the batch: results sorted
// descending by score (stable for ties, so equal scores keep arrival
// order) plus the ids still pending.
type Snapshot struct {
	State      State
	Results    []jobs.Match
	PendingIDs map[string]bool
	// ListErr carries a listing failure; per-job scoring failures are
	// logged and swallowed, they never appear here.
	ListErr error
}

// ErrBatchActive is returned when Start is called while a batch is still
// listing or scoring on this engine.
var ErrBatchActive = errors.New("recommend: a batch is already in progress")

const defaultConcurrency = 4

// snapshot channel capacity; sends are non-blocking so a stalled
// consumer drops intermediate snapshots rather than stalling workers.
const updateBuffer = 128

// Engine owns the pending set and result list for one batch at a time.
// A new Start supersedes the previous batch; Cancel discards in-flight
// completions.
type Engine struct {
	mu      sync.Mutex
	backend Backend
	log     *zap.Logger
	width   int64
	updates chan Snapshot

	state   State
	results []jobs.Match
	pending map[string]bool
	gen     int
	cancel  context.CancelFunc
	done    chan struct{}
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger attaches a logger. Default is a no-op logger.
func WithLogger(l *zap.Logger) Option { return func(e *Engine) { e.log = l } }

// WithConcurrency caps in-flight scoring requests. Width 1 makes
// completion order deterministic, which the tests rely on.
func WithConcurrency(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.width = int64(n)
		}
	}
}

// NewEngine creates an idle engine.
func NewEngine(backend Backend, opts ...Option) *Engine {
	e := &Engine{
		backend: backend,
		log:     zap.NewNop(),
		width:   defaultConcurrency,
		updates: make(chan Snapshot, updateBuffer),
		pending: make(map[string]bool),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Updates delivers a snapshot after every state change: the Listing and
// Scoring transitions, each per-job completion, settlement, and hide
// operations. The channel is never closed; use Wait to detect batch
// completion.
func (e *Engine) Updates() <-chan Snapshot { return e.updates }

// Start begins a new batch: list candidates, then fan out one scoring
// call per id under the concurrency cap. Returns ErrBatchActive while a
// previous batch is still running.
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	if e.state == Listing || e.state == Scoring {
		e.mu.Unlock()
		return ErrBatchActive
	}
	e.gen++
	gen := e.gen
	e.state = Listing
	e.results = nil
	e.pending = make(map[string]bool)
	runCtx, cancel := context.WithCancel(ctx)
	e.cancel = cancel
	e.done = make(chan struct{})
	done := e.done
	e.notifyLocked()
	e.mu.Unlock()

	go e.run(runCtx, gen, done)
	return nil
}

// Wait blocks until the current batch has settled or been canceled.
// No-op when nothing was started.
func (e *Engine) Wait() {
	e.mu.Lock()
	done := e.done
	e.mu.Unlock()
	if done != nil {
		<-done
	}
}

// Cancel discards the in-flight batch: outstanding requests are ignored
// on completion and the pending/result sets are dropped. The engine
// returns to Idle and accepts a new Start.
func (e *Engine) Cancel() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.cancel == nil {
		return
	}
	e.cancel()
	if e.state == Listing || e.state == Scoring {
		e.state = Idle
		e.results = nil
		e.pending = make(map[string]bool)
	}
}

// Snapshot returns the current batch view.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

// Hide removes a scored job from the results immediately and issues the
// hide request. On failure the entry is re-inserted at its prior sorted
// position and the error returned.
func (e *Engine) Hide(ctx context.Context, jobID string) error {
	e.mu.Lock()
	idx := -1
	for i, m := range e.results {
		if m.JobID == jobID {
			idx = i
			break
		}
	}
	if idx < 0 {
		e.mu.Unlock()
		return fmt.Errorf("recommend: no result for job %s", jobID)
	}
	removed := e.results[idx]
	e.results = append(e.results[:idx], e.results[idx+1:]...)
	e.notifyLocked()
	e.mu.Unlock()

	if err := e.backend.HideJob(ctx, jobID); err != nil {
		e.mu.Lock()
		at := idx
		if at > len(e.results) {
			at = len(e.results)
		}
		e.results = append(e.results[:at], append([]jobs.Match{removed}, e.results[at:]...)...)
		e.notifyLocked()
		e.mu.Unlock()
		e.log.Warn("hide failed, entry restored", zap.String("job_id", jobID), zap.Error(err))
		return fmt.Errorf("hide job %s: %w", jobID, err)
	}
	return nil
}

func (e *Engine) run(ctx context.Context, gen int, done chan struct{}) {
	defer close(done)

	list, err := e.backend.ListCandidateJobs(ctx)

	e.mu.Lock()
	if e.gen != gen || ctx.Err() != nil {
		e.mu.Unlock()
		return
	}
	if err != nil {
		e.state = Settled
		e.log.Warn("candidate listing failed", zap.Error(err))
		e.notifyWithErrLocked(err)
		e.mu.Unlock()
		return
	}
	if len(list) == 0 {
		e.state = Settled
		e.notifyLocked()
		e.mu.Unlock()
		return
	}
	e.state = Scoring
	ids := make([]string, 0, len(list))
	for _, job := range list {
		e.pending[job.ID] = true
		ids = append(ids, job.ID)
	}
	e.notifyLocked()
	e.mu.Unlock()

	sem := semaphore.NewWeighted(e.width)
	var wg sync.WaitGroup
	for _, id := range ids {
		if err := sem.Acquire(ctx, 1); err != nil {
			// Canceled mid-batch: the remaining ids never launch.
			break
		}
		wg.Add(1)
		go func(jobID string) {
			defer wg.Done()
			defer sem.Release(1)
			match, scoreErr := e.backend.ScoreJob(ctx, jobID)
			e.complete(ctx, gen, jobID, match, scoreErr)
		}(id)
	}
	wg.Wait()
}

// complete applies one scoring outcome. Stale generations and canceled
// contexts are dropped without touching state.
func (e *Engine) complete(ctx context.Context, gen int, jobID string, match *jobs.Match, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.gen != gen || ctx.Err() != nil {
		return
	}

	delete(e.pending, jobID)
	switch {
	case err != nil:
		e.log.Warn("scoring failed, job dropped from batch",
			zap.String("job_id", jobID), zap.Error(err))
	case match == nil:
		e.log.Warn("scorer returned no match", zap.String("job_id", jobID))
	default:
		m := *match
		m.JobID = jobID
		if m.Tier == "" {
			m.Tier = jobs.TierFor(m.Score)
		}
		e.results = append(e.results, m)
		sort.SliceStable(e.results, func(i, j int) bool {
			return e.results[i].Score > e.results[j].Score
		})
	}

	if len(e.pending) == 0 {
		e.state = Settled
	}
	e.notifyLocked()
}

func (e *Engine) snapshotLocked() Snapshot {
	pending := make(map[string]bool, len(e.pending))
	for id := range e.pending {
		pending[id] = true
	}
	return Snapshot{
		State:      e.state,
		Results:    append([]jobs.Match(nil), e.results...),
		PendingIDs: pending,
	}
}

func (e *Engine) notifyLocked() {
	e.notifyWithErrLocked(nil)
}

func (e *Engine) notifyWithErrLocked(err error) {
	snap := e.snapshotLocked()
	snap.ListErr = err
	select {
	case e.updates <- snap:
	default:
		e.log.Debug("snapshot dropped, consumer behind")
	}
}

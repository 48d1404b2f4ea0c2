// Package task runs long operations on a background goroutine and hands their
// progress and completion callbacks back to a single "main" goroutine.
package task

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"libexport/logger"

	"github.com/google/uuid"
)

// ProgressSink receives progress reports from a running task.
type ProgressSink interface {
	SetProgress(current, total int)
}

// Task is a unit of background work.
//
// Run executes on a worker goroutine and must poll ctx to honour cancellation.
// OnDone is called once on the main goroutine after Run returned; aborted is
// true when Run stopped because the task was cancelled.
type Task interface {
	Run(ctx context.Context, sink ProgressSink) error
	OnDone(aborted bool)
}

// Flags describe how a task should be presented.
type Flags uint8

const (
	FlagShowProgress Flags = 1 << iota
	FlagShowAbort
	FlagShowDelayed
)

// Has reports whether all bits of f2 are set.
func (f Flags) Has(f2 Flags) bool { return f&f2 == f2 }

// Status is the lifecycle state of a task.
type Status string

const (
	StatusRunning Status = "running"
	StatusDone    Status = "done"
	StatusFailed  Status = "failed"
	StatusAborted Status = "aborted"
)

// Progress is a progress snapshot.
type Progress struct {
	Current int `json:"current"`
	Total   int `json:"total"`
}

// Handle controls a started task.
type Handle struct {
	ID        string
	Flags     Flags
	StartedAt time.Time

	cancel context.CancelFunc
	done   chan struct{}

	mu         sync.RWMutex
	progress   Progress
	status     Status
	err        error
	finishedAt time.Time

	progressPending atomic.Bool
	observers       []func(Progress)
}

// Cancel requests cancellation. The task observes it at its next poll.
func (h *Handle) Cancel() { h.cancel() }

// Done is closed after OnDone has run.
func (h *Handle) Done() <-chan struct{} { return h.done }

// Progress returns the latest progress report.
func (h *Handle) Progress() Progress {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.progress
}

// Status returns the current status.
func (h *Handle) Status() Status {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.status
}

// Err returns the error Run returned, if any.
func (h *Handle) Err() error {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.err
}

// FinishedAt returns when Run returned, or the zero time while it is running.
func (h *Handle) FinishedAt() time.Time {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.finishedAt
}

// Option configures a started task.
type Option func(*Handle)

// WithProgressObserver registers fn to be called on the main goroutine with
// progress updates. Bursts of updates are coalesced.
func WithProgressObserver(fn func(Progress)) Option {
	return func(h *Handle) { h.observers = append(h.observers, fn) }
}

// Runner starts background tasks and owns the main-goroutine callback queue.
type Runner struct {
	queue chan func()

	mu      sync.RWMutex
	handles map[string]*Handle
}

// NewRunner creates a runner whose callback queue holds queueSize entries.
func NewRunner(queueSize int) *Runner {
	if queueSize < 1 {
		queueSize = 1
	}
	return &Runner{
		queue:   make(chan func(), queueSize),
		handles: make(map[string]*Handle),
	}
}

// RunBackground starts t on a new goroutine and returns immediately.
func (r *Runner) RunBackground(t Task, flags Flags, opts ...Option) *Handle {
	ctx, cancel := context.WithCancel(context.Background())
	h := &Handle{
		ID:        uuid.NewString(),
		Flags:     flags,
		StartedAt: time.Now(),
		cancel:    cancel,
		done:      make(chan struct{}),
		status:    StatusRunning,
	}
	for _, opt := range opts {
		opt(h)
	}

	r.mu.Lock()
	r.handles[h.ID] = h
	r.mu.Unlock()

	logger.Debug("background task started", logger.String("task_id", h.ID))
	go r.work(ctx, t, h)
	return h
}

// Get looks up a task by ID.
func (r *Runner) Get(id string) (*Handle, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handles[id]
	return h, ok
}

// Forget drops a finished task from the registry. Running tasks are kept.
func (r *Runner) Forget(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	h, ok := r.handles[id]
	if !ok || h.Status() == StatusRunning {
		return false
	}
	delete(r.handles, id)
	return true
}

// Pump runs queued callbacks on the calling goroutine until ctx is done.
func (r *Runner) Pump(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case fn := <-r.queue:
			fn()
		}
	}
}

// PumpUntilDone runs queued callbacks on the calling goroutine until h finished
// and its OnDone callback ran.
func (r *Runner) PumpUntilDone(h *Handle) {
	for {
		select {
		case <-h.done:
			return
		case fn := <-r.queue:
			fn()
		}
	}
}

func (r *Runner) work(ctx context.Context, t Task, h *Handle) {
	defer h.cancel()

	err := t.Run(ctx, sinkFunc(func(current, total int) {
		r.reportProgress(h, Progress{Current: current, Total: total})
	}))
	// Only the cancellation itself counts as an abort. A real failure that
	// races with a late cancel is still reported.
	aborted := err != nil && ctx.Err() != nil && errors.Is(err, ctx.Err())

	h.mu.Lock()
	h.err = err
	h.finishedAt = time.Now()
	switch {
	case aborted:
		h.status = StatusAborted
	case err != nil:
		h.status = StatusFailed
	default:
		h.status = StatusDone
	}
	status := h.status
	h.mu.Unlock()

	logger.Debug("background task finished", logger.String("task_id", h.ID), logger.String("status", string(status)))
	r.queue <- func() {
		defer close(h.done)
		t.OnDone(aborted)
	}
}

func (r *Runner) reportProgress(h *Handle, p Progress) {
	h.mu.Lock()
	h.progress = p
	h.mu.Unlock()

	if len(h.observers) == 0 || !h.progressPending.CompareAndSwap(false, true) {
		return
	}
	r.queue <- func() {
		h.progressPending.Store(false)
		latest := h.Progress()
		for _, fn := range h.observers {
			fn(latest)
		}
	}
}

type sinkFunc func(current, total int)

func (f sinkFunc) SetProgress(current, total int) { f(current, total) }

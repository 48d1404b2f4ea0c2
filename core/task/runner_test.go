package task

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stepTask struct {
	steps   int
	failAt  int
	release chan struct{}

	mu      sync.Mutex
	aborted *bool
}

func (s *stepTask) Run(ctx context.Context, sink ProgressSink) error {
	for i := 0; i < s.steps; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		sink.SetProgress(i, s.steps)
		if s.failAt > 0 && i == s.failAt {
			return errors.New("step failed")
		}
		if s.release != nil {
			<-s.release
		}
	}
	return nil
}

func (s *stepTask) OnDone(aborted bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.aborted = &aborted
}

func (s *stepTask) doneWith() *bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.aborted
}

func TestRunnerCompletes(t *testing.T) {
	r := NewRunner(4)
	st := &stepTask{steps: 3}

	var seen []Progress
	h := r.RunBackground(st, FlagShowProgress|FlagShowAbort, WithProgressObserver(func(p Progress) {
		seen = append(seen, p)
	}))
	r.PumpUntilDone(h)

	assert.Equal(t, StatusDone, h.Status())
	assert.NoError(t, h.Err())
	require.NotNil(t, st.doneWith())
	assert.False(t, *st.doneWith())
	assert.Equal(t, Progress{Current: 2, Total: 3}, h.Progress())
	assert.NotEmpty(t, seen)
	assert.True(t, h.Flags.Has(FlagShowAbort))
	assert.False(t, h.Flags.Has(FlagShowDelayed))

	got, ok := r.Get(h.ID)
	require.True(t, ok)
	assert.Same(t, h, got)
}

func TestRunnerFailure(t *testing.T) {
	r := NewRunner(4)
	st := &stepTask{steps: 5, failAt: 2}

	h := r.RunBackground(st, 0)
	r.PumpUntilDone(h)

	assert.Equal(t, StatusFailed, h.Status())
	assert.EqualError(t, h.Err(), "step failed")
	require.NotNil(t, st.doneWith())
	assert.False(t, *st.doneWith())
}

func TestRunnerCancel(t *testing.T) {
	r := NewRunner(4)
	st := &stepTask{steps: 10, release: make(chan struct{})}

	h := r.RunBackground(st, FlagShowAbort)
	h.Cancel()
	close(st.release)

	r.PumpUntilDone(h)

	assert.Equal(t, StatusAborted, h.Status())
	assert.ErrorIs(t, h.Err(), context.Canceled)
	require.NotNil(t, st.doneWith())
	assert.True(t, *st.doneWith())
}

// lateFailTask cancels itself and then fails for an unrelated reason.
type lateFailTask struct {
	cancel  func()
	aborted *bool
}

func (l *lateFailTask) Run(ctx context.Context, _ ProgressSink) error {
	l.cancel()
	<-ctx.Done()
	return errors.New("disk full")
}

func (l *lateFailTask) OnDone(aborted bool) { l.aborted = &aborted }

func TestRunnerFailureAfterCancelIsNotAbort(t *testing.T) {
	r := NewRunner(4)
	lt := &lateFailTask{}
	var h *Handle
	ready := make(chan struct{})
	lt.cancel = func() {
		<-ready
		h.Cancel()
	}

	h = r.RunBackground(lt, FlagShowAbort)
	close(ready)
	r.PumpUntilDone(h)

	assert.Equal(t, StatusFailed, h.Status())
	assert.EqualError(t, h.Err(), "disk full")
	require.NotNil(t, lt.aborted)
	assert.False(t, *lt.aborted)
}

func TestRunnerForget(t *testing.T) {
	r := NewRunner(4)
	st := &stepTask{steps: 2, release: make(chan struct{})}
	h := r.RunBackground(st, 0)

	assert.True(t, h.FinishedAt().IsZero())
	assert.False(t, r.Forget(h.ID), "running tasks stay registered")

	close(st.release)
	r.PumpUntilDone(h)

	assert.False(t, h.FinishedAt().Before(h.StartedAt))
	assert.True(t, r.Forget(h.ID))
	_, ok := r.Get(h.ID)
	assert.False(t, ok)
	assert.False(t, r.Forget(h.ID))
}

func TestRunnerPumpStopsWithContext(t *testing.T) {
	r := NewRunner(1)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	done := make(chan struct{})
	go func() {
		r.Pump(ctx)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Pump did not return after the context ended")
	}
}

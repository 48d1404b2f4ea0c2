package export

import (
	"context"
	"fmt"
	"sync"

	"libexport/core/task"
	"libexport/logger"
)

// Notifier shows a single failure message to the user.
type Notifier interface {
	Complain(title, message string)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(title, message string)

// Complain implements Notifier.
func (f NotifierFunc) Complain(title, message string) { f(title, message) }

// Publisher ships a finished export somewhere else, e.g. object storage.
type Publisher interface {
	Publish(ctx context.Context, localPath string) (location string, err error)
}

// FailureTitle is the title of the failure dialog.
const FailureTitle = "JSON library export"

// Task adapts an export to the background task runner. It keeps exactly one
// failure message and reports it once the task is done; success and
// cancellation are silent.
type Task struct {
	exporter  *Exporter
	path      string
	notifier  Notifier
	publisher Publisher

	mu        sync.Mutex
	result    Result
	failure   string
	published string
}

var _ task.Task = (*Task)(nil)

// NewTask creates a task exporting to path. publisher may be nil.
func NewTask(exporter *Exporter, path string, notifier Notifier, publisher Publisher) *Task {
	return &Task{exporter: exporter, path: path, notifier: notifier, publisher: publisher}
}

// Run implements task.Task.
func (t *Task) Run(ctx context.Context, sink task.ProgressSink) error {
	res, err := t.exporter.Export(ctx, t.path, sink)

	t.mu.Lock()
	defer t.mu.Unlock()
	t.result = res
	if err != nil {
		if !IsAborted(err) {
			t.failure = err.Error()
		}
		return err
	}

	if t.publisher != nil {
		location, err := t.publisher.Publish(ctx, t.path)
		if err != nil {
			t.failure = fmt.Sprintf("export written to %s but publishing failed: %v", t.path, err)
			return err
		}
		t.published = location
	}
	return nil
}

// OnDone implements task.Task.
func (t *Task) OnDone(aborted bool) {
	t.mu.Lock()
	failure := t.failure
	t.mu.Unlock()

	if aborted {
		logger.Info("export task aborted", logger.String("path", t.path))
		return
	}
	if failure == "" {
		return
	}
	if t.notifier != nil {
		t.notifier.Complain(FailureTitle, failure)
	}
}

// Result returns how the export ended.
func (t *Task) Result() Result {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.result
}

// Failure returns the failure message, or "" when there was none.
func (t *Task) Failure() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.failure
}

// Published returns where the export was published, if anywhere.
func (t *Task) Published() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.published
}

// Path returns the destination file.
func (t *Task) Path() string { return t.path }

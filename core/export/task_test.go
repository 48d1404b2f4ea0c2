package export

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"libexport/core/catalog"
	"libexport/core/task"
	"libexport/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingNotifier struct {
	titles   []string
	messages []string
}

func (n *recordingNotifier) Complain(title, message string) {
	n.titles = append(n.titles, title)
	n.messages = append(n.messages, message)
}

type stubPublisher struct {
	location string
	err      error
	got      string
}

func (p *stubPublisher) Publish(_ context.Context, localPath string) (string, error) {
	p.got = localPath
	return p.location, p.err
}

func runTask(t *testing.T, tk *Task) *task.Handle {
	t.Helper()
	r := task.NewRunner(8)
	h := r.RunBackground(tk, task.FlagShowProgress|task.FlagShowAbort)
	r.PumpUntilDone(h)
	return h
}

func TestTaskSuccessIsSilent(t *testing.T) {
	out := filepath.Join(t.TempDir(), "library.json")
	n := &recordingNotifier{}
	tk := NewTask(NewExporter(exampleCatalog()), out, n, nil)

	h := runTask(t, tk)

	assert.Equal(t, task.StatusDone, h.Status())
	assert.Empty(t, n.messages)
	assert.Empty(t, tk.Failure())
	assert.Equal(t, StateDone, tk.Result().State)
	assert.FileExists(t, out)
}

func TestTaskFailureComplainsOnce(t *testing.T) {
	out := filepath.Join(t.TempDir(), "library.json")
	n := &recordingNotifier{}
	c := &brokenCatalog{MemoryCatalog: exampleCatalog(), brokenPath: "C:/music/a.mp3"}
	tk := NewTask(NewExporter(c), out, n, nil)

	h := runTask(t, tk)

	assert.Equal(t, task.StatusFailed, h.Status())
	require.Len(t, n.messages, 1)
	assert.Equal(t, FailureTitle, n.titles[0])
	assert.Equal(t, "failed to get info on track: C:/music/a.mp3", n.messages[0])
	assert.NoFileExists(t, out)
}

// gatedCatalog blocks the first Info call until gate is closed.
type gatedCatalog struct {
	*catalog.MemoryCatalog
	gate    chan struct{}
	entered chan struct{}
	once    sync.Once
}

func (c *gatedCatalog) Info(track model.TrackRecord) (*model.FileInfo, bool) {
	c.once.Do(func() {
		close(c.entered)
		<-c.gate
	})
	return c.MemoryCatalog.Info(track)
}

func TestTaskCancelledIsSilent(t *testing.T) {
	out := filepath.Join(t.TempDir(), "library.json")
	n := &recordingNotifier{}
	c := &gatedCatalog{MemoryCatalog: richCatalog(3), gate: make(chan struct{}), entered: make(chan struct{})}
	tk := NewTask(NewExporter(c), out, n, nil)

	r := task.NewRunner(8)
	h := r.RunBackground(tk, task.FlagShowAbort)
	<-c.entered
	h.Cancel()
	close(c.gate)
	r.PumpUntilDone(h)

	assert.Equal(t, task.StatusAborted, h.Status())
	assert.Empty(t, n.messages)
	assert.Empty(t, tk.Failure())
	assert.Equal(t, StateAborted, tk.Result().State)
	assert.NoFileExists(t, out)
}

func TestTaskWriteFailureAfterLateCancelComplains(t *testing.T) {
	n := &recordingNotifier{}
	handles := make(chan *task.Handle, 1)
	exporter := NewExporter(exampleCatalog(), WithFileCreator(func(string) (io.WriteCloser, error) {
		// Cancel lands after enumeration finished, then the write itself fails.
		(<-handles).Cancel()
		return &failingCloser{}, nil
	}))
	tk := NewTask(exporter, "library.json", n, nil)

	r := task.NewRunner(8)
	h := r.RunBackground(tk, task.FlagShowAbort)
	handles <- h
	r.PumpUntilDone(h)

	assert.Equal(t, task.StatusFailed, h.Status())
	assert.ErrorIs(t, h.Err(), ErrFileWrite)
	assert.Equal(t, StateFailed, tk.Result().State)
	require.Len(t, n.messages, 1)
	assert.Contains(t, n.messages[0], "may be incomplete")
}

func TestTaskPublishes(t *testing.T) {
	out := filepath.Join(t.TempDir(), "library.json")
	n := &recordingNotifier{}
	pub := &stubPublisher{location: "s3://exports/library.json"}
	tk := NewTask(NewExporter(exampleCatalog()), out, n, pub)

	runTask(t, tk)

	assert.Equal(t, out, pub.got)
	assert.Equal(t, "s3://exports/library.json", tk.Published())
	assert.Empty(t, n.messages)
}

func TestTaskPublishFailureKeepsFile(t *testing.T) {
	out := filepath.Join(t.TempDir(), "library.json")
	n := &recordingNotifier{}
	pub := &stubPublisher{err: errors.New("bucket unreachable")}
	tk := NewTask(NewExporter(exampleCatalog()), out, n, pub)

	h := runTask(t, tk)

	assert.Equal(t, task.StatusFailed, h.Status())
	require.Len(t, n.messages, 1)
	assert.Contains(t, n.messages[0], "bucket unreachable")
	_, err := os.Stat(out)
	assert.NoError(t, err)
}

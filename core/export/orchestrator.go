package export

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"libexport/core/catalog"
	"libexport/logger"
)

// State is a step of a single export run.
type State int

const (
	StateIdle State = iota
	StateLockAcquired
	StateEnumerating
	StateWriting
	StateDone
	StateAborted
	StateFailed
)

var stateNames = [...]string{
	StateIdle:         "idle",
	StateLockAcquired: "lock_acquired",
	StateEnumerating:  "enumerating",
	StateWriting:      "writing",
	StateDone:         "done",
	StateAborted:      "aborted",
	StateFailed:       "failed",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("state(%d)", int(s))
	}
	return stateNames[s]
}

// ProgressSink receives one update per track, before the track is processed.
type ProgressSink interface {
	SetProgress(current, total int)
}

// ProgressFunc adapts a function to ProgressSink.
type ProgressFunc func(current, total int)

// SetProgress implements ProgressSink.
func (f ProgressFunc) SetProgress(current, total int) { f(current, total) }

// Result describes how an export ended.
type Result struct {
	State    State
	Path     string
	Tracks   int
	Bytes    int64
	Duration time.Duration
}

// Exporter runs library exports against a catalog.
type Exporter struct {
	catalog catalog.Catalog
	create  func(path string) (io.WriteCloser, error)
}

// Option configures an Exporter.
type Option func(*Exporter)

// WithFileCreator replaces os.Create as the way the destination is opened.
func WithFileCreator(create func(path string) (io.WriteCloser, error)) Option {
	return func(e *Exporter) { e.create = create }
}

// NewExporter creates an exporter for c.
func NewExporter(c catalog.Catalog, opts ...Option) *Exporter {
	e := &Exporter{
		catalog: c,
		create: func(path string) (io.WriteCloser, error) {
			return os.Create(path)
		},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Export snapshots the catalog and writes it to path as JSON.
//
// The catalog lock is held only while tracks are enumerated. ctx is polled once
// per track; a cancelled export returns ErrAborted and leaves path untouched,
// as does an extraction failure. sink may be nil.
func (e *Exporter) Export(ctx context.Context, path string, sink ProgressSink) (Result, error) {
	run := &exportRun{path: path, started: time.Now()}
	if sink == nil {
		sink = ProgressFunc(func(int, int) {})
	}
	logger.Info("starting library export", logger.String("path", path))

	tracks := e.catalog.AllTracks()

	lock := catalog.AcquireScope(e.catalog)
	defer lock.Release()
	run.enter(StateLockAcquired)

	extractor, err := NewExtractor(e.catalog)
	if err != nil {
		return run.fail(err)
	}

	run.enter(StateEnumerating)
	builder := NewBuilder(len(tracks))
	for i, track := range tracks {
		if err := ctx.Err(); err != nil {
			return run.abort(i, len(tracks), err)
		}
		sink.SetProgress(i, len(tracks))

		fields, err := extractor.Extract(track)
		if err != nil {
			return run.fail(err)
		}
		builder.AppendTrack(fields)
	}
	doc := builder.Finalize()
	run.tracks = len(doc)

	lock.Release()
	run.enter(StateWriting)

	// Encode before opening so a bad value cannot truncate an earlier export.
	data, err := doc.Encode()
	if err != nil {
		return run.fail(fmt.Errorf("%w: %w", ErrEncode, err))
	}

	f, err := e.create(path)
	if err != nil {
		return run.fail(&FileOpenError{Path: path, Err: err})
	}

	n, writeErr := f.Write(data)
	run.bytes = int64(n)
	if closeErr := f.Close(); writeErr == nil {
		writeErr = closeErr
	}
	if writeErr != nil {
		return run.fail(&FileWriteError{Path: path, Err: writeErr})
	}

	run.enter(StateDone)
	res := run.result()
	logger.Info("library export finished",
		logger.String("path", path),
		logger.Int("tracks", res.Tracks),
		logger.Int64("bytes", res.Bytes),
		logger.Duration("elapsed", res.Duration))
	return res, nil
}

type exportRun struct {
	path    string
	state   State
	started time.Time
	tracks  int
	bytes   int64
}

func (r *exportRun) enter(s State) {
	logger.Debug("export state change",
		logger.String("path", r.path),
		logger.String("from", r.state.String()),
		logger.String("to", s.String()))
	r.state = s
}

func (r *exportRun) result() Result {
	return Result{
		State:    r.state,
		Path:     r.path,
		Tracks:   r.tracks,
		Bytes:    r.bytes,
		Duration: time.Since(r.started),
	}
}

func (r *exportRun) fail(err error) (Result, error) {
	r.enter(StateFailed)
	logger.Error("library export failed", logger.String("path", r.path), logger.ErrorField(err))
	return r.result(), err
}

func (r *exportRun) abort(processed, total int, cause error) (Result, error) {
	r.enter(StateAborted)
	logger.Info("library export aborted",
		logger.String("path", r.path),
		logger.Int("processed", processed),
		logger.Int("total", total))
	return r.result(), fmt.Errorf("%w: %w", ErrAborted, cause)
}

// IsAborted reports whether err is a cancelled export rather than a failure.
func IsAborted(err error) bool {
	return errors.Is(err, ErrAborted)
}

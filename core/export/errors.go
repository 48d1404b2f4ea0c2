package export

import (
	"errors"
	"fmt"
)

var (
	// ErrExtraction means the catalog could not supply a consistent info record.
	ErrExtraction = errors.New("track info unavailable")
	// ErrFileOpen means the destination file could not be opened for writing.
	ErrFileOpen = errors.New("failed to open file for writing")
	// ErrEncode means the snapshot held a value JSON cannot represent.
	// Nothing was written.
	ErrEncode = errors.New("failed to encode library")
	// ErrFileWrite means writing, flushing or closing the destination failed.
	ErrFileWrite = errors.New("error writing file")
	// ErrAborted is returned when the export was cancelled. It is not a failure.
	ErrAborted = errors.New("export aborted")
	// ErrCompile means a lookup expression did not compile.
	ErrCompile = errors.New("failed to compile lookup expression")
)

// ExtractionError names the track whose info could not be read.
type ExtractionError struct {
	Path         string
	SubsongIndex uint32
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("failed to get info on track: %s", e.Path)
}

func (e *ExtractionError) Unwrap() error { return ErrExtraction }

// FileOpenError is returned before anything was written.
type FileOpenError struct {
	Path string
	Err  error
}

func (e *FileOpenError) Error() string {
	return fmt.Sprintf("failed to open %s for writing: %v", e.Path, e.Err)
}

func (e *FileOpenError) Unwrap() []error { return []error{ErrFileOpen, e.Err} }

// FileWriteError is returned after bytes may already have reached the file.
type FileWriteError struct {
	Path string
	Err  error
}

func (e *FileWriteError) Error() string {
	return fmt.Sprintf("error writing %s, the file may be incomplete: %v", e.Path, e.Err)
}

func (e *FileWriteError) Unwrap() []error { return []error{ErrFileWrite, e.Err} }

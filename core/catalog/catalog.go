// Package catalog is the shared library catalog the exporter reads from:
// the catalog contract, its snapshot lock, an in-memory implementation, and
// the scanner and watcher that populate it from a music directory.
package catalog

import (
	"libexport/core/titleformat"
	"libexport/model"
)

// Expression is a compiled lookup expression.
type Expression interface {
	Source() string
}

// Locker is the exclusive access primitive of a catalog.
type Locker interface {
	Lock()
	Unlock()
}

// Catalog is the host catalog the exporter consumes.
//
// Info and Format may only be called while the catalog lock is held, and the
// values they return are borrowed: they must not be retained after Unlock.
type Catalog interface {
	Locker

	// AllTracks returns every track in catalog order.
	AllTracks() []model.TrackRecord
	// Info returns the file info of track. ok is false when the catalog cannot
	// supply a consistent record (the track was removed or is mid-update).
	Info(track model.TrackRecord) (info *model.FileInfo, ok bool)
	// Format evaluates expr against track. It never fails.
	Format(track model.TrackRecord, info *model.FileInfo, expr Expression) string
	// Compile compiles a lookup expression.
	Compile(source string) (Expression, error)
}

// CompileExpression compiles source with the title formatting engine.
func CompileExpression(source string) (Expression, error) {
	script, err := titleformat.Compile(source)
	if err != nil {
		return nil, err
	}
	return script, nil
}

package catalog

import (
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"libexport/core/titleformat"
	"libexport/model"
)

// Entry is a catalog row: the track handle, its file info and its playback statistics.
// Stats keys are lower-cased stat names (see model.Stat*), values are already formatted.
type Entry struct {
	Track model.TrackRecord
	Info  model.FileInfo
	Stats map[string]string
}

// MemoryCatalog is an in-memory Catalog. Readers hold the catalog lock through
// Lock/Unlock; mutations take the same lock, so they wait for a running export.
type MemoryCatalog struct {
	mu      sync.Mutex
	locked  atomic.Bool
	order   []model.TrackRecord
	entries map[model.TrackRecord]*Entry
}

// NewMemoryCatalog creates a catalog holding entries in the given order.
func NewMemoryCatalog(entries ...Entry) *MemoryCatalog {
	c := &MemoryCatalog{entries: make(map[model.TrackRecord]*Entry, len(entries))}
	c.putLocked(entries)
	return c
}

// Lock acquires the exclusive catalog lock.
func (c *MemoryCatalog) Lock() {
	c.mu.Lock()
	c.locked.Store(true)
}

// Unlock releases the exclusive catalog lock.
func (c *MemoryCatalog) Unlock() {
	c.locked.Store(false)
	c.mu.Unlock()
}

// AllTracks returns the current track list in catalog order.
func (c *MemoryCatalog) AllTracks() []model.TrackRecord {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]model.TrackRecord, len(c.order))
	copy(out, c.order)
	return out
}

// Len returns the number of tracks.
func (c *MemoryCatalog) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.order)
}

// Info returns the borrowed file info of track. It fails when the lock is not
// held or the track is no longer in the catalog.
func (c *MemoryCatalog) Info(track model.TrackRecord) (*model.FileInfo, bool) {
	if !c.locked.Load() {
		return nil, false
	}
	e, ok := c.entries[track]
	if !ok {
		return nil, false
	}
	return &e.Info, true
}

// Format evaluates expr against the track. Unknown expression types are
// recompiled from their source; a source that does not compile yields "".
func (c *MemoryCatalog) Format(track model.TrackRecord, info *model.FileInfo, expr Expression) string {
	script, ok := expr.(*titleformat.Script)
	if !ok {
		var err error
		if script, err = titleformat.Compile(expr.Source()); err != nil {
			return ""
		}
	}
	var stats map[string]string
	if e, ok := c.entries[track]; ok {
		stats = e.Stats
	}
	return script.Format(trackLookup{track: track, info: info, stats: stats})
}

// Compile compiles a lookup expression.
func (c *MemoryCatalog) Compile(source string) (Expression, error) {
	return CompileExpression(source)
}

// Put adds entries, replacing existing ones in place.
func (c *MemoryCatalog) Put(entries ...Entry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.putLocked(entries)
}

// Replace swaps the whole catalog content.
func (c *MemoryCatalog) Replace(entries []Entry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.order = nil
	c.entries = make(map[model.TrackRecord]*Entry, len(entries))
	c.putLocked(entries)
}

// RemovePath removes every track of the file at path and returns how many were removed.
func (c *MemoryCatalog) RemovePath(path string) int {
	return c.removeWhere(func(p string) bool { return p == path })
}

// RemoveTree removes every track of the file at root or anywhere below the
// directory root, and returns how many were removed. Paths use forward slashes.
func (c *MemoryCatalog) RemoveTree(root string) int {
	return c.removeWhere(func(p string) bool { return UnderPath(p, root) })
}

func (c *MemoryCatalog) removeWhere(match func(path string) bool) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	kept := c.order[:0]
	removed := 0
	for _, t := range c.order {
		if match(t.Path) {
			delete(c.entries, t)
			removed++
			continue
		}
		kept = append(kept, t)
	}
	c.order = kept
	return removed
}

// UnderPath reports whether path is root itself or lies below it.
func UnderPath(path, root string) bool {
	if path == root {
		return true
	}
	root = strings.TrimSuffix(root, "/")
	return root != "" && strings.HasPrefix(path, root+"/")
}

func (c *MemoryCatalog) putLocked(entries []Entry) {
	for i := range entries {
		e := entries[i]
		if _, exists := c.entries[e.Track]; !exists {
			c.order = append(c.order, e.Track)
		}
		c.entries[e.Track] = &e
	}
}

type trackLookup struct {
	track model.TrackRecord
	info  *model.FileInfo
	stats map[string]string
}

func (l trackLookup) Field(name string) (string, bool) {
	if v, ok := l.stats[name]; ok && v != "" {
		return v, true
	}
	if l.info != nil {
		if values, ok := l.info.MetaValues(name); ok && len(values) > 0 {
			return strings.Join(values, ", "), true
		}
		if v, ok := l.info.InfoValue(name); ok {
			return v, true
		}
	}
	switch name {
	case "path":
		return l.track.Path, true
	case "subsong":
		return strconv.FormatUint(uint64(l.track.SubsongIndex), 10), true
	case "length_seconds":
		if l.info != nil {
			return strconv.FormatFloat(l.info.Length, 'f', -1, 64), true
		}
	}
	return "", false
}

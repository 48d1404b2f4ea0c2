package export

import (
	"fmt"
	"strings"

	"libexport/core/catalog"
	"libexport/model"
)

type statLookup int

const (
	lookupFirstPlayed statLookup = iota
	lookupLastPlayed
	lookupPlayCount
	lookupAdded
	lookupRating
	lookupLastfmPlaycount
	lookupLastfmLoved
	numStatLookups
)

// statExpressions are the playback statistic lookups. The last two are the
// custom database fields written by the last.fm sync scripts.
var statExpressions = [numStatLookups]string{
	lookupFirstPlayed:     "[%first_played%]",
	lookupLastPlayed:      "[%last_played%]",
	lookupPlayCount:       "[%play_count%]",
	lookupAdded:           "[%added%]",
	lookupRating:          "[%rating%]",
	lookupLastfmPlaycount: "[%LASTFM_PLAYCOUNT_DB%]",
	lookupLastfmLoved:     "[%LASTFM_LOVED_DB%]",
}

// Extractor pulls TrackFields out of a locked catalog. The lookup expressions
// are compiled once by NewExtractor and reused for every track.
type Extractor struct {
	catalog catalog.Catalog
	lookups [numStatLookups]catalog.Expression
}

// NewExtractor compiles the playback statistic lookups against c.
func NewExtractor(c catalog.Catalog) (*Extractor, error) {
	e := &Extractor{catalog: c}
	for i, src := range statExpressions {
		expr, err := c.Compile(src)
		if err != nil {
			return nil, fmt.Errorf("%w %q: %w", ErrCompile, src, err)
		}
		e.lookups[i] = expr
	}
	return e, nil
}

// Extract reads one track. The catalog lock must be held. Everything returned
// is copied, so it stays valid after the lock is released.
func (e *Extractor) Extract(track model.TrackRecord) (model.TrackFields, error) {
	info, ok := e.catalog.Info(track)
	if !ok || info == nil {
		return model.TrackFields{}, &ExtractionError{Path: track.Path, SubsongIndex: track.SubsongIndex}
	}

	fields := model.TrackFields{
		Path:         strings.Clone(track.Path),
		SubsongIndex: track.SubsongIndex,
		Length:       info.Length,
	}

	if !info.ReplayGain.IsEmpty() {
		fields.ReplayGain = copyReplayGain(info.ReplayGain)
	}

	if len(info.Info) > 0 {
		fields.Info = make([]model.InfoField, len(info.Info))
		for i, f := range info.Info {
			fields.Info[i] = model.InfoField{Name: strings.Clone(f.Name), Value: strings.Clone(f.Value)}
		}
	}

	if len(info.Meta) > 0 {
		fields.Meta = make([]model.MetaField, len(info.Meta))
		for i, f := range info.Meta {
			values := make([]string, len(f.Values))
			for j, v := range f.Values {
				values[j] = strings.Clone(v)
			}
			fields.Meta[i] = model.MetaField{Name: strings.Clone(f.Name), Values: values}
		}
	}

	stats := e.playbackStats(track, info)
	if !stats.IsEmpty() {
		fields.PlaybackStats = &stats
	}

	return fields, nil
}

func (e *Extractor) playbackStats(track model.TrackRecord, info *model.FileInfo) model.PlaybackStats {
	var out [numStatLookups]string
	for i, expr := range e.lookups {
		out[i] = strings.Clone(e.catalog.Format(track, info, expr))
	}
	return model.PlaybackStats{
		FirstPlayed:     out[lookupFirstPlayed],
		LastPlayed:      out[lookupLastPlayed],
		PlayCount:       out[lookupPlayCount],
		Added:           out[lookupAdded],
		Rating:          out[lookupRating],
		LastfmPlaycount: out[lookupLastfmPlaycount],
		LastfmLoved:     out[lookupLastfmLoved],
	}
}

func copyReplayGain(rg model.ReplayGain) *model.ReplayGain {
	clone := func(v *float64) *float64 {
		if v == nil {
			return nil
		}
		c := *v
		return &c
	}
	return &model.ReplayGain{
		AlbumGain: clone(rg.AlbumGain),
		AlbumPeak: clone(rg.AlbumPeak),
		TrackGain: clone(rg.TrackGain),
		TrackPeak: clone(rg.TrackPeak),
	}
}

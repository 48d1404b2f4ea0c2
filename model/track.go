package model

import "strings"

// TrackRecord identifies one entry of the library catalog.
// A single file may hold several tracks (cue sheets, chaptered files), told apart by SubsongIndex.
// TrackRecord is comparable and used directly as the catalog key.
type TrackRecord struct {
	Path         string `json:"path"`
	SubsongIndex uint32 `json:"subsongIndex"`
}

// ReplayGain holds loudness normalisation data. A nil field means "not present".
type ReplayGain struct {
	AlbumGain *float64 `json:"albumGain,omitempty"`
	AlbumPeak *float64 `json:"albumPeak,omitempty"`
	TrackGain *float64 `json:"trackGain,omitempty"`
	TrackPeak *float64 `json:"trackPeak,omitempty"`
}

// IsEmpty reports whether none of the four values is present.
func (rg ReplayGain) IsEmpty() bool {
	return rg.AlbumGain == nil && rg.AlbumPeak == nil && rg.TrackGain == nil && rg.TrackPeak == nil
}

// InfoField is a single-valued technical property (codec, bitrate, ...).
type InfoField struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// MetaField is a tag. Tags may be multi-valued, so Values is always a slice.
type MetaField struct {
	Name   string   `json:"name"`
	Values []string `json:"values"`
}

// FileInfo is the technical and tag bundle the catalog keeps for each track.
// Info and Meta keep their catalog order.
type FileInfo struct {
	Length     float64     `json:"length"` // seconds
	ReplayGain ReplayGain  `json:"replayGain"`
	Info       []InfoField `json:"info"`
	Meta       []MetaField `json:"meta"`
}

// MetaValues returns the values of the first meta field named name, ignoring case.
func (fi *FileInfo) MetaValues(name string) ([]string, bool) {
	for _, m := range fi.Meta {
		if strings.EqualFold(m.Name, name) {
			return m.Values, true
		}
	}
	return nil, false
}

// InfoValue returns the value of the first info field named name, ignoring case.
func (fi *FileInfo) InfoValue(name string) (string, bool) {
	for _, f := range fi.Info {
		if strings.EqualFold(f.Name, name) {
			return f.Value, true
		}
	}
	return "", false
}

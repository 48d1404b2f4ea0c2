package model

// PlaybackStats are the derived statistics looked up through title formatting.
// An empty string means the lookup produced nothing.
type PlaybackStats struct {
	FirstPlayed     string `json:"firstPlayed,omitempty"`
	LastPlayed      string `json:"lastPlayed,omitempty"`
	PlayCount       string `json:"playCount,omitempty"`
	Added           string `json:"added,omitempty"`
	Rating          string `json:"rating,omitempty"`
	LastfmPlaycount string `json:"lastfmPlaycount,omitempty"`
	LastfmLoved     string `json:"lastfmLoved,omitempty"`
}

// IsEmpty reports whether every statistic is empty.
func (s PlaybackStats) IsEmpty() bool {
	return s == PlaybackStats{}
}

// TrackFields is everything the exporter pulls out of the catalog for one track.
// All values are owned copies; nil optional sections mean "absent".
type TrackFields struct {
	Path          string
	SubsongIndex  uint32
	Length        float64
	ReplayGain    *ReplayGain
	Info          []InfoField
	Meta          []MetaField
	PlaybackStats *PlaybackStats
}

// Stat field names resolved by the title formatter. They match what the
// playback statistics database and the last.fm sync scripts expose.
const (
	StatFirstPlayed     = "first_played"
	StatLastPlayed      = "last_played"
	StatPlayCount       = "play_count"
	StatAdded           = "added"
	StatRating          = "rating"
	StatLastfmPlaycount = "lastfm_playcount_db"
	StatLastfmLoved     = "lastfm_loved_db"
)

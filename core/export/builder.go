package export

import "libexport/model"

// Builder accumulates track objects for one export. It is not safe for
// concurrent use.
type Builder struct {
	tracks Document
}

// NewBuilder reserves room for capacity tracks.
func NewBuilder(capacity int) *Builder {
	return &Builder{tracks: make(Document, 0, capacity)}
}

// AppendTrack shapes fields into a JSON object and appends it.
func (b *Builder) AppendTrack(fields model.TrackFields) {
	b.tracks = append(b.tracks, TrackObject(fields))
}

// Len returns the number of appended tracks.
func (b *Builder) Len() int { return len(b.tracks) }

// Finalize returns the finished document. The builder must not be used afterwards.
func (b *Builder) Finalize() Document {
	doc := b.tracks
	b.tracks = nil
	if doc == nil {
		doc = Document{}
	}
	return doc
}

// TrackObject converts one track into its JSON object. Optional sections are
// only present when they carry data.
func TrackObject(f model.TrackFields) Object {
	obj := make(Object, 0, 7)
	obj = append(obj,
		Member{"path", f.Path},
		Member{"subsong_index", f.SubsongIndex},
		Member{"length", Number(f.Length)},
	)

	if rg := replayGainObject(f.ReplayGain); rg != nil {
		obj = append(obj, Member{"replaygain", rg})
	}

	if len(f.Info) > 0 {
		info := make(Object, 0, len(f.Info))
		for _, field := range f.Info {
			info = append(info, Member{field.Name, field.Value})
		}
		obj = append(obj, Member{"info", info})
	}

	if len(f.Meta) > 0 {
		meta := make(Object, 0, len(f.Meta))
		for _, field := range f.Meta {
			values := field.Values
			if values == nil {
				values = []string{}
			}
			meta = append(meta, Member{field.Name, values})
		}
		obj = append(obj, Member{"meta", meta})
	}

	if stats := playbackStatsObject(f.PlaybackStats); stats != nil {
		obj = append(obj, Member{"playback_stats", stats})
	}

	return obj
}

func replayGainObject(rg *model.ReplayGain) Object {
	if rg == nil || rg.IsEmpty() {
		return nil
	}
	obj := make(Object, 0, 4)
	add := func(key string, v *float64) {
		if v != nil {
			obj = append(obj, Member{key, Number(*v)})
		}
	}
	add("album_gain", rg.AlbumGain)
	add("album_peak", rg.AlbumPeak)
	add("track_gain", rg.TrackGain)
	add("track_peak", rg.TrackPeak)
	return obj
}

func playbackStatsObject(s *model.PlaybackStats) Object {
	if s == nil || s.IsEmpty() {
		return nil
	}
	obj := make(Object, 0, 7)
	add := func(key, v string) {
		if v != "" {
			obj = append(obj, Member{key, v})
		}
	}
	add("first_played", s.FirstPlayed)
	add("last_played", s.LastPlayed)
	add("play_count", s.PlayCount)
	add("added", s.Added)
	add("rating", s.Rating)
	add("lastfm_playcount", s.LastfmPlaycount)
	add("lastfm_loved", s.LastfmLoved)
	return obj
}

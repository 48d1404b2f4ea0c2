package repository

import (
	"testing"
	"time"

	"libexport/model"

	"github.com/stretchr/testify/assert"
)

func TestStatFields(t *testing.T) {
	first := time.Date(2019, 1, 2, 3, 4, 5, 0, time.Local)
	added := time.Date(2018, 12, 24, 10, 0, 0, 0, time.Local)
	scrobbles := 40
	loved := true

	fields := StatFields(&model.PlaybackStat{
		Path:            "C:/music/a.flac",
		FirstPlayed:     &first,
		Added:           &added,
		PlayCount:       42,
		Rating:          5,
		LastfmPlaycount: &scrobbles,
		LastfmLoved:     &loved,
	})

	assert.Equal(t, map[string]string{
		model.StatFirstPlayed:     "2019-01-02 03:04:05",
		model.StatAdded:           "2018-12-24 10:00:00",
		model.StatPlayCount:       "42",
		model.StatRating:          "5",
		model.StatLastfmPlaycount: "40",
		model.StatLastfmLoved:     "1",
	}, fields)
}

func TestStatFieldsOmitsUnknown(t *testing.T) {
	notLoved := false
	fields := StatFields(&model.PlaybackStat{Path: "x", LastfmLoved: &notLoved})
	assert.Equal(t, map[string]string{model.StatLastfmLoved: "0"}, fields)
}

func TestStatsByTrack(t *testing.T) {
	rows := []model.PlaybackStat{
		{Path: "a.cue", SubsongIndex: 1, PlayCount: 1},
		{Path: "a.cue", SubsongIndex: 2, Rating: 3},
	}

	stats := StatsByTrack(rows)

	assert.Len(t, stats, 2)
	assert.Equal(t, "1", stats[model.TrackRecord{Path: "a.cue", SubsongIndex: 1}][model.StatPlayCount])
	assert.Equal(t, "3", stats[model.TrackRecord{Path: "a.cue", SubsongIndex: 2}][model.StatRating])
}

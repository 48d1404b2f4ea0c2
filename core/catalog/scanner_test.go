package catalog

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"libexport/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.senan.xyz/taglib"
)

func TestBuildFileInfo(t *testing.T) {
	tags := map[string][]string{
		"TITLE":                 {"Roygbiv"},
		"ARTIST":                {"Boards of Canada"},
		"GENRE":                 {"Electronic", "IDM"},
		"COMMENT":               {""},
		"REPLAYGAIN_ALBUM_GAIN": {"-3.20 dB"},
		"REPLAYGAIN_TRACK_PEAK": {"0.988525"},
		"REPLAYGAIN_TRACK_GAIN": {"garbage"},
	}
	props := taglib.Properties{Length: 151 * time.Second, Bitrate: 320, SampleRate: 44100, Channels: 2}

	fi := buildFileInfo(tags, props, "MP3", "ID3v2.4")

	assert.Equal(t, 151.0, fi.Length)
	require.NotNil(t, fi.ReplayGain.AlbumGain)
	assert.Equal(t, -3.2, *fi.ReplayGain.AlbumGain)
	require.NotNil(t, fi.ReplayGain.TrackPeak)
	assert.Equal(t, 0.988525, *fi.ReplayGain.TrackPeak)
	assert.Nil(t, fi.ReplayGain.TrackGain)
	assert.Nil(t, fi.ReplayGain.AlbumPeak)

	assert.Equal(t, []model.MetaField{
		{Name: "artist", Values: []string{"Boards of Canada"}},
		{Name: "genre", Values: []string{"Electronic", "IDM"}},
		{Name: "title", Values: []string{"Roygbiv"}},
	}, fi.Meta)

	assert.Equal(t, []model.InfoField{
		{Name: "codec", Value: "MP3"},
		{Name: "bitrate", Value: "320"},
		{Name: "samplerate", Value: "44100"},
		{Name: "channels", Value: "2"},
		{Name: "tagtype", Value: "ID3v2.4"},
	}, fi.Info)
}

func TestParseReplayGainValue(t *testing.T) {
	tests := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"-3.20 dB", -3.2, true},
		{"+1.5dB", 1.5, true},
		{"−6.00 dB", -6, true},
		{"0.988525", 0.988525, true},
		{"", 0, false},
		{"dB", 0, false},
		{"loud", 0, false},
		{"nan dB", 0, false},
		{"inf", 0, false},
		{"-Infinity", 0, false},
		{"1e999", 0, false},
	}
	for _, tt := range tests {
		got, ok := parseReplayGainValue(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

type stubStats map[model.TrackRecord]map[string]string

func (s stubStats) PlaybackStats(context.Context) (map[model.TrackRecord]map[string]string, error) {
	return s, nil
}

func TestScannerScan(t *testing.T) {
	root := t.TempDir()
	for _, name := range []string{"b.flac", "a.mp3", "notes.txt", "broken.ogg"} {
		require.NoError(t, os.WriteFile(filepath.Join(root, name), []byte("not audio"), 0o644))
	}
	sub := filepath.Join(root, "sub")
	require.NoError(t, os.Mkdir(sub, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(sub, "c.m4a"), []byte("x"), 0o644))

	aPath := filepath.ToSlash(filepath.Join(root, "a.mp3"))
	s := NewScanner(root, stubStats{
		{Path: aPath}: {model.StatPlayCount: "3"},
	})
	s.readTags = func(path string) (map[string][]string, error) {
		if filepath.Base(path) == "broken.ogg" {
			return nil, errors.New("invalid file")
		}
		return map[string][]string{"TITLE": {filepath.Base(path)}}, nil
	}
	s.readProperties = func(string) (taglib.Properties, error) {
		return taglib.Properties{Length: time.Minute}, nil
	}

	entries, err := s.Scan(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, aPath, entries[0].Track.Path)
	assert.Equal(t, "3", entries[0].Stats[model.StatPlayCount])
	assert.Equal(t, "b.flac", entries[1].Info.Meta[0].Values[0])
	assert.Equal(t, "c.m4a", entries[2].Info.Meta[0].Values[0])

	// Content is not real audio, so the codec comes from the extension.
	codec, ok := entries[1].Info.InfoValue("codec")
	require.True(t, ok)
	assert.Equal(t, "FLAC", codec)
}

func TestScannerScanCancelled(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.mp3"), []byte("x"), 0o644))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewScanner(root, nil).Scan(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

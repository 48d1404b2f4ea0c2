package catalog

import (
	"sync"
	"testing"
	"time"

	"libexport/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleEntries() []Entry {
	return []Entry{
		{
			Track: model.TrackRecord{Path: "C:/music/a.mp3"},
			Info: model.FileInfo{
				Length: 180,
				Meta:   []model.MetaField{{Name: "artist", Values: []string{"X", "Y"}}},
				Info:   []model.InfoField{{Name: "codec", Value: "MP3"}},
			},
			Stats: map[string]string{model.StatPlayCount: "7"},
		},
		{Track: model.TrackRecord{Path: "C:/music/b.flac"}, Info: model.FileInfo{Length: 210.5}},
	}
}

func TestMemoryCatalogOrder(t *testing.T) {
	c := NewMemoryCatalog(sampleEntries()...)
	tracks := c.AllTracks()
	require.Len(t, tracks, 2)
	assert.Equal(t, "C:/music/a.mp3", tracks[0].Path)
	assert.Equal(t, "C:/music/b.flac", tracks[1].Path)

	// Replacing an existing track keeps its position.
	c.Put(Entry{Track: model.TrackRecord{Path: "C:/music/a.mp3"}, Info: model.FileInfo{Length: 1}})
	c.Put(Entry{Track: model.TrackRecord{Path: "C:/music/c.ogg"}})
	tracks = c.AllTracks()
	require.Len(t, tracks, 3)
	assert.Equal(t, "C:/music/a.mp3", tracks[0].Path)
	assert.Equal(t, "C:/music/c.ogg", tracks[2].Path)
}

func TestMemoryCatalogInfoRequiresLock(t *testing.T) {
	c := NewMemoryCatalog(sampleEntries()...)
	track := c.AllTracks()[0]

	_, ok := c.Info(track)
	assert.False(t, ok, "info must not be handed out without the lock")

	lock := AcquireScope(c)
	defer lock.Release()
	info, ok := c.Info(track)
	require.True(t, ok)
	assert.Equal(t, 180.0, info.Length)

	_, ok = c.Info(model.TrackRecord{Path: "missing"})
	assert.False(t, ok)
}

func TestMemoryCatalogRemovePath(t *testing.T) {
	c := NewMemoryCatalog(sampleEntries()...)
	c.Put(Entry{Track: model.TrackRecord{Path: "C:/music/a.mp3", SubsongIndex: 1}})

	assert.Equal(t, 2, c.RemovePath("C:/music/a.mp3"))
	assert.Equal(t, 1, c.Len())
	assert.Equal(t, 0, c.RemovePath("C:/music/a.mp3"))
}

func TestMemoryCatalogRemoveTree(t *testing.T) {
	c := NewMemoryCatalog(
		Entry{Track: model.TrackRecord{Path: "/music/rock/a.mp3"}},
		Entry{Track: model.TrackRecord{Path: "/music/rock/live/b.flac"}},
		Entry{Track: model.TrackRecord{Path: "/music/rockabilly/c.mp3"}},
		Entry{Track: model.TrackRecord{Path: "/music/d.mp3"}},
	)

	assert.Equal(t, 2, c.RemoveTree("/music/rock"))
	assert.Equal(t, 2, c.Len())
	assert.Equal(t, 0, c.RemoveTree("/music/rock/"))
	assert.Equal(t, 1, c.RemoveTree("/music/d.mp3"), "a file path removes just that file")

	tracks := c.AllTracks()
	require.Len(t, tracks, 1)
	assert.Equal(t, "/music/rockabilly/c.mp3", tracks[0].Path)
}

func TestUnderPath(t *testing.T) {
	assert.True(t, UnderPath("/a/b", "/a/b"))
	assert.True(t, UnderPath("/a/b/c.mp3", "/a/b"))
	assert.True(t, UnderPath("/a/b/c.mp3", "/a/b/"))
	assert.False(t, UnderPath("/a/bc/d.mp3", "/a/b"))
	assert.False(t, UnderPath("/a/b", ""))
}

func TestMemoryCatalogFormat(t *testing.T) {
	c := NewMemoryCatalog(sampleEntries()...)
	track := c.AllTracks()[0]

	playCount, err := c.Compile("[%play_count%]")
	require.NoError(t, err)
	artist, err := c.Compile("[%artist%]")
	require.NoError(t, err)
	rating, err := c.Compile("[%rating%]")
	require.NoError(t, err)
	codec, err := c.Compile("%codec%")
	require.NoError(t, err)

	lock := AcquireScope(c)
	defer lock.Release()
	info, ok := c.Info(track)
	require.True(t, ok)

	assert.Equal(t, "7", c.Format(track, info, playCount))
	assert.Equal(t, "X, Y", c.Format(track, info, artist))
	assert.Equal(t, "", c.Format(track, info, rating))
	assert.Equal(t, "MP3", c.Format(track, info, codec))
}

func TestMemoryCatalogMutationWaitsForLock(t *testing.T) {
	c := NewMemoryCatalog(sampleEntries()...)
	lock := AcquireScope(c)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		c.RemovePath("C:/music/a.mp3")
	}()

	time.Sleep(20 * time.Millisecond)
	_, ok := c.Info(model.TrackRecord{Path: "C:/music/a.mp3"})
	assert.True(t, ok, "catalog changed while the snapshot lock was held")

	lock.Release()
	wg.Wait()
	assert.Equal(t, 1, c.Len())
}

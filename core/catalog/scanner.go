package catalog

import (
	"context"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"libexport/logger"
	"libexport/model"

	"github.com/dhowden/tag"
	"go.senan.xyz/taglib"
)

// StatsSource supplies playback statistics for the scanned tracks.
type StatsSource interface {
	PlaybackStats(ctx context.Context) (map[model.TrackRecord]map[string]string, error)
}

// audioExtensions 支持扫描的音频扩展名
var audioExtensions = map[string]bool{
	".mp3": true, ".flac": true, ".ogg": true, ".oga": true, ".opus": true,
	".m4a": true, ".m4b": true, ".mp4": true, ".aac": true, ".wav": true,
	".wv": true, ".ape": true, ".wma": true, ".aif": true, ".aiff": true,
	".mpc": true, ".dsf": true,
}

// IsAudioFile reports whether path has a supported audio extension.
func IsAudioFile(path string) bool {
	return audioExtensions[strings.ToLower(filepath.Ext(path))]
}

// Scanner builds catalog entries from the audio files below a directory.
type Scanner struct {
	root  string
	stats StatsSource

	statsMu sync.RWMutex
	known   map[model.TrackRecord]map[string]string

	readTags       func(path string) (map[string][]string, error)
	readProperties func(path string) (taglib.Properties, error)
}

// NewScanner creates a scanner for root. stats may be nil.
func NewScanner(root string, stats StatsSource) *Scanner {
	return &Scanner{
		root:           root,
		stats:          stats,
		readTags:       taglib.ReadTags,
		readProperties: taglib.ReadProperties,
	}
}

// Root returns the scanned directory.
func (s *Scanner) Root() string { return s.root }

// Scan walks the directory in lexical order and reads every audio file.
// Files that cannot be read are skipped.
func (s *Scanner) Scan(ctx context.Context) ([]Entry, error) {
	if err := s.refreshStats(ctx); err != nil {
		return nil, err
	}

	var paths []string
	err := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			logger.Warn("skipping unreadable path", logger.String("path", path), logger.ErrorField(err))
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if !d.IsDir() && IsAudioFile(path) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk library directory %s: %w", s.root, err)
	}
	sort.Strings(paths)

	entries := make([]Entry, 0, len(paths))
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		entry, err := s.ReadFile(path)
		if err != nil {
			logger.Warn("skipping audio file", logger.String("path", path), logger.ErrorField(err))
			continue
		}
		entries = append(entries, entry)
	}

	logger.Info("library scan finished",
		logger.String("root", s.root),
		logger.Int("files", len(paths)),
		logger.Int("tracks", len(entries)))
	return entries, nil
}

// ReadFile reads a single audio file into a catalog entry. Statistics come from
// the last Scan.
func (s *Scanner) ReadFile(path string) (Entry, error) {
	tags, err := s.readTags(path)
	if err != nil {
		return Entry{}, fmt.Errorf("failed to read tags of %s: %w", path, err)
	}
	props, err := s.readProperties(path)
	if err != nil {
		return Entry{}, fmt.Errorf("failed to read properties of %s: %w", path, err)
	}
	codec, tagType := probeContainer(path)

	track := model.TrackRecord{Path: filepath.ToSlash(path)}
	s.statsMu.RLock()
	stats := s.known[track]
	s.statsMu.RUnlock()

	return Entry{
		Track: track,
		Info:  buildFileInfo(tags, props, codec, tagType),
		Stats: stats,
	}, nil
}

func (s *Scanner) refreshStats(ctx context.Context) error {
	if s.stats == nil {
		return nil
	}
	known, err := s.stats.PlaybackStats(ctx)
	if err != nil {
		return fmt.Errorf("failed to load playback statistics: %w", err)
	}
	s.statsMu.Lock()
	s.known = known
	s.statsMu.Unlock()
	return nil
}

// probeContainer returns the codec and tag container type detected by dhowden/tag,
// falling back to the file extension.
func probeContainer(path string) (codec, tagType string) {
	codec = strings.ToUpper(strings.TrimPrefix(filepath.Ext(path), "."))

	f, err := os.Open(path)
	if err != nil {
		return codec, ""
	}
	defer f.Close()

	m, err := tag.ReadFrom(f)
	if err != nil {
		return codec, ""
	}
	if ft := string(m.FileType()); ft != "" {
		codec = ft
	}
	return codec, string(m.Format())
}

const replayGainPrefix = "REPLAYGAIN_"

// buildFileInfo converts taglib output into the catalog's file info.
// Meta names are lower-cased and sorted so the order is reproducible.
func buildFileInfo(tags map[string][]string, props taglib.Properties, codec, tagType string) model.FileInfo {
	fi := model.FileInfo{Length: props.Length.Seconds()}

	names := make([]string, 0, len(tags))
	for name := range tags {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		values := tags[name]
		upper := strings.ToUpper(name)
		if strings.HasPrefix(upper, replayGainPrefix) {
			applyReplayGain(&fi.ReplayGain, upper, values)
			continue
		}
		kept := make([]string, 0, len(values))
		for _, v := range values {
			if v != "" {
				kept = append(kept, v)
			}
		}
		if len(kept) == 0 {
			continue
		}
		fi.Meta = append(fi.Meta, model.MetaField{Name: strings.ToLower(name), Values: kept})
	}

	addInfo := func(name, value string) {
		if value != "" && value != "0" {
			fi.Info = append(fi.Info, model.InfoField{Name: name, Value: value})
		}
	}
	addInfo("codec", codec)
	addInfo("bitrate", strconv.FormatUint(uint64(props.Bitrate), 10))
	addInfo("samplerate", strconv.FormatUint(uint64(props.SampleRate), 10))
	addInfo("channels", strconv.FormatUint(uint64(props.Channels), 10))
	addInfo("tagtype", tagType)

	return fi
}

func applyReplayGain(rg *model.ReplayGain, name string, values []string) {
	if len(values) == 0 {
		return
	}
	v, ok := parseReplayGainValue(values[0])
	if !ok {
		return
	}
	switch strings.TrimPrefix(name, replayGainPrefix) {
	case "ALBUM_GAIN":
		rg.AlbumGain = &v
	case "ALBUM_PEAK":
		rg.AlbumPeak = &v
	case "TRACK_GAIN":
		rg.TrackGain = &v
	case "TRACK_PEAK":
		rg.TrackPeak = &v
	}
}

// parseReplayGainValue parses values such as "-3.20 dB", "+1.5dB" or "0.988525".
func parseReplayGainValue(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, "−", "-")
	if len(s) >= 2 && strings.EqualFold(s[len(s)-2:], "db") {
		s = strings.TrimSpace(s[:len(s)-2])
	}
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

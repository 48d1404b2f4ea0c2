package model

import "time"

// PlaybackStat is one row of the playback statistics database.
type PlaybackStat struct {
	ID              int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	Path            string     `gorm:"type:varchar(1024);not null;index:idx_stat_path,length:255" json:"path"`
	SubsongIndex    uint32     `gorm:"not null;default:0" json:"subsongIndex"`
	FirstPlayed     *time.Time `json:"firstPlayed"`
	LastPlayed      *time.Time `json:"lastPlayed"`
	PlayCount       int        `gorm:"not null;default:0" json:"playCount"`
	Added           *time.Time `json:"added"`
	Rating          int        `gorm:"not null;default:0" json:"rating"` // 0 = unrated, 1-5
	LastfmPlaycount *int       `json:"lastfmPlaycount"`
	LastfmLoved     *bool      `json:"lastfmLoved"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

// TableName 指定表名
func (PlaybackStat) TableName() string {
	return "playback_stats"
}

package repository

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"libexport/core/catalog"
	"libexport/model"

	"gorm.io/gorm"
)

// StatTimeLayout 是统计时间字段的文本格式
const StatTimeLayout = "2006-01-02 15:04:05"

// PlaybackStatsRepository 播放统计数据访问接口
type PlaybackStatsRepository interface {
	FindAll(ctx context.Context) ([]model.PlaybackStat, error)
	Save(ctx context.Context, stat *model.PlaybackStat) error
	// PlaybackStats 实现 catalog.StatsSource
	PlaybackStats(ctx context.Context) (map[model.TrackRecord]map[string]string, error)
}

type gormPlaybackStatsRepository struct {
	db *gorm.DB
}

var _ catalog.StatsSource = (*gormPlaybackStatsRepository)(nil)

// NewGormPlaybackStatsRepository 创建 GORM 播放统计仓库
func NewGormPlaybackStatsRepository(db *gorm.DB) PlaybackStatsRepository {
	return &gormPlaybackStatsRepository{db: db}
}

// FindAll 按路径顺序读取全部统计
func (r *gormPlaybackStatsRepository) FindAll(ctx context.Context) ([]model.PlaybackStat, error) {
	var stats []model.PlaybackStat
	err := r.db.WithContext(ctx).
		Order("path ASC, subsong_index ASC").
		Find(&stats).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load playback stats: %w", err)
	}
	return stats, nil
}

// Save 新增或更新一条统计
func (r *gormPlaybackStatsRepository) Save(ctx context.Context, stat *model.PlaybackStat) error {
	return r.db.WithContext(ctx).Save(stat).Error
}

func (r *gormPlaybackStatsRepository) PlaybackStats(ctx context.Context) (map[model.TrackRecord]map[string]string, error) {
	rows, err := r.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	return StatsByTrack(rows), nil
}

// StatsByTrack 把数据库行转换成标题格式化可以查询的字段；同一曲目出现多行时后者覆盖前者
func StatsByTrack(rows []model.PlaybackStat) map[model.TrackRecord]map[string]string {
	out := make(map[model.TrackRecord]map[string]string, len(rows))
	for i := range rows {
		row := &rows[i]
		out[model.TrackRecord{Path: row.Path, SubsongIndex: row.SubsongIndex}] = StatFields(row)
	}
	return out
}

// StatFields 转换单行统计；未知的值不输出
func StatFields(row *model.PlaybackStat) map[string]string {
	fields := make(map[string]string, 7)
	setTime := func(name string, t *time.Time) {
		if t != nil && !t.IsZero() {
			fields[name] = t.Format(StatTimeLayout)
		}
	}

	setTime(model.StatFirstPlayed, row.FirstPlayed)
	setTime(model.StatLastPlayed, row.LastPlayed)
	setTime(model.StatAdded, row.Added)
	if row.PlayCount > 0 || row.FirstPlayed != nil {
		fields[model.StatPlayCount] = strconv.Itoa(row.PlayCount)
	}
	if row.Rating > 0 {
		fields[model.StatRating] = strconv.Itoa(row.Rating)
	}
	if row.LastfmPlaycount != nil {
		fields[model.StatLastfmPlaycount] = strconv.Itoa(*row.LastfmPlaycount)
	}
	if row.LastfmLoved != nil {
		if *row.LastfmLoved {
			fields[model.StatLastfmLoved] = "1"
		} else {
			fields[model.StatLastfmLoved] = "0"
		}
	}
	return fields
}

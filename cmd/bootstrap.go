package cmd

import (
	"context"
	"fmt"

	"libexport/cache"
	"libexport/config"
	"libexport/core/catalog"
	"libexport/core/export"
	"libexport/core/settings"
	"libexport/db"
	"libexport/logger"
	"libexport/repository"
	"libexport/storage"
)

// services 是命令共用的依赖，close 释放数据库和 Redis 连接
type services struct {
	catalog   *catalog.MemoryCatalog
	scanner   *catalog.Scanner
	settings  settings.Store
	publisher export.Publisher
	closers   []func() error
}

func (s *services) close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			logger.Warn("failed to close resource", logger.ErrorField(err))
		}
	}
}

func openSettings(cfg *config.Config) (settings.Store, func() error, error) {
	if cfg.RedisConfigured() {
		if err := cache.ConnectRedis(cfg); err != nil {
			return nil, nil, err
		}
		logger.Info("using Redis settings store", logger.String("host", cfg.RedisHost))
		return cache.NewRedisSettingsStore(cache.RedisClient), cache.CloseRedis, nil
	}
	store, err := settings.NewFileStore(cfg.SettingsFile)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open settings file %s: %w", cfg.SettingsFile, err)
	}
	return store, func() error { return nil }, nil
}

// loadServices 打开设置存储、统计数据库和发布目标，并扫描音乐目录
func loadServices(ctx context.Context, cfg *config.Config) (*services, error) {
	s := &services{catalog: catalog.NewMemoryCatalog()}

	store, closeStore, err := openSettings(cfg)
	if err != nil {
		return nil, err
	}
	s.settings = store
	s.closers = append(s.closers, closeStore)

	var stats catalog.StatsSource
	if cfg.StatsDBConfigured() {
		if err := db.ConnectGormDB(cfg); err != nil {
			s.close()
			return nil, err
		}
		s.closers = append(s.closers, db.CloseGormDB)
		stats = repository.NewGormPlaybackStatsRepository(db.GormDB)
	}

	if cfg.MinioEnabled {
		pub, err := storage.NewMinioPublisher(ctx, cfg)
		if err != nil {
			s.close()
			return nil, err
		}
		s.publisher = pub
	}

	s.scanner = catalog.NewScanner(cfg.LibraryDir, stats)
	entries, err := s.scanner.Scan(ctx)
	if err != nil {
		s.close()
		return nil, fmt.Errorf("failed to scan %s: %w", cfg.LibraryDir, err)
	}
	s.catalog.Replace(entries)
	return s, nil
}

package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"libexport/config"
	"libexport/core/settings"

	"github.com/go-redis/redis/v8"
)

// RedisClient 是全局Redis客户端
var RedisClient *redis.Client

// ConnectRedis 初始化Redis连接
func ConnectRedis(cfg *config.Config) error {
	RedisClient = redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.RedisHost, cfg.RedisPort),
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	// 测试连接
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := RedisClient.Ping(ctx).Result(); err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return nil
}

// CloseRedis 关闭Redis连接
func CloseRedis() error {
	if RedisClient != nil {
		return RedisClient.Close()
	}
	return nil
}

const settingsKeyPrefix = "libexport:settings:"

// kv 是 RedisSettingsStore 用到的 Redis 命令子集
type kv interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// RedisSettingsStore 把导出设置保存在 Redis 中，多个实例共享同一个上次导出路径
type RedisSettingsStore struct {
	client kv
}

var _ settings.Store = (*RedisSettingsStore)(nil)

// NewRedisSettingsStore 创建设置存储，client 一般是 RedisClient
func NewRedisSettingsStore(client kv) *RedisSettingsStore {
	return &RedisSettingsStore{client: client}
}

func (s *RedisSettingsStore) LastExportPath(ctx context.Context) (string, error) {
	val, err := s.client.Get(ctx, settingsKeyPrefix+settings.KeyLastExportPath).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read export path from Redis: %w", err)
	}
	return val, nil
}

func (s *RedisSettingsStore) SetLastExportPath(ctx context.Context, path string) error {
	if err := s.client.Set(ctx, settingsKeyPrefix+settings.KeyLastExportPath, path, 0).Err(); err != nil {
		return fmt.Errorf("failed to store export path in Redis: %w", err)
	}
	return nil
}

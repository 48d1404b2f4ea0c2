package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromEnvDefaults(t *testing.T) {
	for _, key := range []string{"DB_HOST", "REDIS_HOST", "MINIO_ENABLED", "JWT_SECRET", "HTTP_ADDR", "REDIS_DB"} {
		t.Setenv(key, "")
	}
	t.Setenv("HTTP_ADDR", ":8080")

	cfg := fromEnv()

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.False(t, cfg.StatsDBConfigured())
	assert.False(t, cfg.RedisConfigured())
	assert.False(t, cfg.MinioEnabled, "an unparsable bool keeps the default")
	assert.Equal(t, 0, cfg.RedisDB, "an unparsable int keeps the default")
	assert.Empty(t, cfg.JWTSecret)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("LIBRARY_DIR", "/srv/music")
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("REDIS_HOST", "cache.internal")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("MINIO_ENABLED", "true")
	t.Setenv("MINIO_USE_SSL", "1")
	t.Setenv("LOG_LEVEL", "debug")

	cfg := fromEnv()

	assert.Equal(t, "/srv/music", cfg.LibraryDir)
	assert.True(t, cfg.StatsDBConfigured())
	assert.True(t, cfg.RedisConfigured())
	assert.Equal(t, 3, cfg.RedisDB)
	assert.True(t, cfg.MinioEnabled)
	assert.True(t, cfg.MinioUseSSL)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestGetEnvHelpers(t *testing.T) {
	t.Setenv("LIBEXPORT_TEST_INT", "nope")
	t.Setenv("LIBEXPORT_TEST_BOOL", " false ")

	assert.Equal(t, 7, getEnvInt("LIBEXPORT_TEST_INT", 7))
	assert.False(t, getEnvBool("LIBEXPORT_TEST_BOOL", true))
	assert.Equal(t, "fallback", getEnv("LIBEXPORT_TEST_UNSET", "fallback"))
}

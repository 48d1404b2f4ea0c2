package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeKV struct {
	data   map[string]string
	getErr error
}

func (f *fakeKV) Get(_ context.Context, key string) *redis.StringCmd {
	if f.getErr != nil {
		return redis.NewStringResult("", f.getErr)
	}
	v, ok := f.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (f *fakeKV) Set(_ context.Context, key string, value interface{}, _ time.Duration) *redis.StatusCmd {
	f.data[key] = value.(string)
	return redis.NewStatusResult("OK", nil)
}

func TestRedisSettingsStore(t *testing.T) {
	ctx := context.Background()
	kv := &fakeKV{data: map[string]string{}}
	s := NewRedisSettingsStore(kv)

	path, err := s.LastExportPath(ctx)
	require.NoError(t, err)
	assert.Empty(t, path, "a missing key is not an error")

	require.NoError(t, s.SetLastExportPath(ctx, "/exports/lib.json"))
	assert.Equal(t, "/exports/lib.json", kv.data["libexport:settings:export.last_path"])

	path, err = s.LastExportPath(ctx)
	require.NoError(t, err)
	assert.Equal(t, "/exports/lib.json", path)
}

func TestRedisSettingsStoreError(t *testing.T) {
	s := NewRedisSettingsStore(&fakeKV{getErr: errors.New("connection refused")})

	_, err := s.LastExportPath(context.Background())
	assert.ErrorContains(t, err, "connection refused")
}

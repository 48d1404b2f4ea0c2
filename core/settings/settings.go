// Package settings persists user choices between exports.
package settings

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"libexport/logger"

	"github.com/spf13/viper"
)

// KeyLastExportPath is the settings key of the last used export destination.
const KeyLastExportPath = "export.last_path"

// Store remembers the last export destination.
type Store interface {
	LastExportPath(ctx context.Context) (string, error)
	SetLastExportPath(ctx context.Context, path string) error
}

// PathOrDefault returns the remembered path, or fallback when none is stored
// or the store cannot be read.
func PathOrDefault(ctx context.Context, s Store, fallback string) string {
	if s == nil {
		return fallback
	}
	path, err := s.LastExportPath(ctx)
	if err != nil {
		logger.Warn("failed to read last export path", logger.ErrorField(err))
		return fallback
	}
	if path == "" {
		return fallback
	}
	return path
}

// MemoryStore keeps settings for the lifetime of the process.
type MemoryStore struct {
	mu   sync.RWMutex
	path string
}

func NewMemoryStore() *MemoryStore { return &MemoryStore{} }

func (m *MemoryStore) LastExportPath(context.Context) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.path, nil
}

func (m *MemoryStore) SetLastExportPath(_ context.Context, path string) error {
	m.mu.Lock()
	m.path = path
	m.mu.Unlock()
	return nil
}

// FileStore keeps settings in a YAML file managed by viper.
type FileStore struct {
	mu   sync.Mutex
	file string
	v    *viper.Viper
}

// NewFileStore opens the settings file. A missing file is not an error; it is
// created on the first write.
func NewFileStore(file string) (*FileStore, error) {
	v := viper.New()
	v.SetConfigFile(file)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.Is(err, fs.ErrNotExist) && !errors.As(err, &notFound) {
			return nil, err
		}
	}
	return &FileStore{file: file, v: v}, nil
}

func (s *FileStore) LastExportPath(context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.v.GetString(KeyLastExportPath), nil
}

func (s *FileStore) SetLastExportPath(_ context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.v.Set(KeyLastExportPath, path)
	if err := os.MkdirAll(filepath.Dir(s.file), 0o755); err != nil {
		return err
	}
	return s.v.WriteConfigAs(s.file)
}

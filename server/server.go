package server

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"libexport/core/export"
	"libexport/core/settings"
	"libexport/core/task"
	"libexport/logger"

	"github.com/gorilla/mux"
)

// Options 是 HTTP 服务依赖
type Options struct {
	Exporter    *export.Exporter
	Runner      *task.Runner
	Settings    settings.Store
	Publisher   export.Publisher // 可以为 nil
	DefaultPath string
	JWTSecret   string // 为空时不校验 token

	// JobRetention 是已结束任务保留可查询的时间，0 表示 DefaultJobRetention
	JobRetention time.Duration
}

// DefaultJobRetention 已结束任务的默认保留时间
const DefaultJobRetention = time.Hour

// Server 通过 HTTP 提供导出任务的启动、查询和取消
type Server struct {
	opts    Options
	router  *mux.Router
	handler http.Handler

	mu   sync.RWMutex
	jobs map[string]*job
}

type job struct {
	handle *task.Handle
	task   *export.Task
}

// New 创建服务并注册路由
func New(opts Options) *Server {
	if opts.JobRetention <= 0 {
		opts.JobRetention = DefaultJobRetention
	}
	s := &Server{
		opts:   opts,
		router: mux.NewRouter(),
		jobs:   make(map[string]*job),
	}
	s.routes()
	s.handler = corsMiddleware(s.router)
	return s
}

func (s *Server) routes() {
	api := s.router.PathPrefix("/api").Subrouter()
	api.Use(s.authMiddleware)
	api.HandleFunc("/exports", s.StartExportHandler).Methods(http.MethodPost)
	api.HandleFunc("/exports/{id}", s.GetExportHandler).Methods(http.MethodGet)
	api.HandleFunc("/exports/{id}", s.CancelExportHandler).Methods(http.MethodDelete)
	api.HandleFunc("/exports/{id}/ws", s.ExportProgressWSHandler).Methods(http.MethodGet)
	api.HandleFunc("/settings", s.GetSettingsHandler).Methods(http.MethodGet)
}

// ServeHTTP 实现 http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// ListenAndServe 启动服务，ctx 结束后优雅关闭
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", logger.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()
	go s.pruneLoop(ctx)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.cancelAll()
	return srv.Shutdown(shutdownCtx)
}

func (s *Server) cancelAll() {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, j := range s.jobs {
		j.handle.Cancel()
	}
}

// pruneLoop 定期清理过期任务，直到 ctx 结束
func (s *Server) pruneLoop(ctx context.Context) {
	ticker := time.NewTicker(max(s.opts.JobRetention/4, time.Second))
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			s.pruneJobs(now)
		}
	}
}

// pruneJobs 删除结束时间早于 now-JobRetention 的任务
func (s *Server) pruneJobs(now time.Time) int {
	cutoff := now.Add(-s.opts.JobRetention)
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, j := range s.jobs {
		finished := j.handle.FinishedAt()
		if finished.IsZero() || finished.After(cutoff) {
			continue
		}
		delete(s.jobs, id)
		s.opts.Runner.Forget(id)
		removed++
	}
	if removed > 0 {
		logger.Debug("pruned finished export jobs", logger.Int("count", removed))
	}
	return removed
}

func (s *Server) lookup(id string) (*job, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	j, ok := s.jobs[id]
	return j, ok
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Max-Age", "86400")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

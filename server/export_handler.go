package server

import (
	"errors"
	"io"
	"net/http"
	"time"

	"libexport/core/export"
	"libexport/core/settings"
	"libexport/core/task"
	"libexport/logger"

	"github.com/goccy/go-json"
	"github.com/gorilla/mux"
)

type startExportRequest struct {
	Path string `json:"path"`
}

type exportStatus struct {
	ID          string        `json:"id"`
	Path        string        `json:"path"`
	Status      task.Status   `json:"status"`
	Progress    task.Progress `json:"progress"`
	StartedAt   time.Time     `json:"startedAt"`
	Tracks      int           `json:"tracks,omitempty"`
	Bytes       int64         `json:"bytes,omitempty"`
	Error       string        `json:"error,omitempty"`
	PublishedTo string        `json:"publishedTo,omitempty"`
}

func (j *job) status() exportStatus {
	st := exportStatus{
		ID:        j.handle.ID,
		Path:      j.task.Path(),
		Status:    j.handle.Status(),
		Progress:  j.handle.Progress(),
		StartedAt: j.handle.StartedAt,
	}
	switch st.Status {
	case task.StatusDone:
		res := j.task.Result()
		st.Tracks = res.Tracks
		st.Bytes = res.Bytes
		st.PublishedTo = j.task.Published()
	case task.StatusFailed:
		st.Error = j.task.Failure()
		if st.Error == "" && j.handle.Err() != nil {
			st.Error = j.handle.Err().Error()
		}
	}
	return st
}

// StartExportHandler 启动一次导出，路径为空时使用上次的导出路径
func (s *Server) StartExportHandler(w http.ResponseWriter, r *http.Request) {
	var req startExportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	path := req.Path
	if path == "" {
		path = settings.PathOrDefault(r.Context(), s.opts.Settings, s.opts.DefaultPath)
	}
	if s.opts.Settings != nil {
		if err := s.opts.Settings.SetLastExportPath(r.Context(), path); err != nil {
			logger.Warn("failed to remember export path", logger.String("path", path), logger.ErrorField(err))
		}
	}

	notifier := export.NotifierFunc(func(title, message string) {
		logger.Error(title, logger.String("path", path), logger.String("reason", message))
	})
	tk := export.NewTask(s.opts.Exporter, path, notifier, s.opts.Publisher)
	h := s.opts.Runner.RunBackground(tk, task.FlagShowProgress|task.FlagShowAbort)

	s.pruneJobs(time.Now())
	j := &job{handle: h, task: tk}
	s.mu.Lock()
	s.jobs[h.ID] = j
	s.mu.Unlock()

	logger.Info("export requested", logger.String("id", h.ID), logger.String("path", path))
	writeJSON(w, http.StatusAccepted, j.status())
}

// GetExportHandler 查询导出状态
func (s *Server) GetExportHandler(w http.ResponseWriter, r *http.Request) {
	j, ok := s.lookup(mux.Vars(r)["id"])
	if !ok {
		writeError(w, http.StatusNotFound, "Export not found")
		return
	}
	writeJSON(w, http.StatusOK, j.status())
}

// CancelExportHandler 请求取消导出；已结束的导出不受影响
func (s *Server) CancelExportHandler(w http.ResponseWriter, r *http.Request) {
	j, ok := s.lookup(mux.Vars(r)["id"])
	if !ok {
		writeError(w, http.StatusNotFound, "Export not found")
		return
	}
	if j.handle.Status() != task.StatusRunning {
		writeError(w, http.StatusConflict, "Export already finished")
		return
	}
	j.handle.Cancel()
	writeJSON(w, http.StatusAccepted, j.status())
}

// GetSettingsHandler 返回当前设置
func (s *Server) GetSettingsHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"lastExportPath": settings.PathOrDefault(r.Context(), s.opts.Settings, s.opts.DefaultPath),
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warn("failed to write response", logger.ErrorField(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

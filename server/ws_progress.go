package server

import (
	"net/http"
	"time"

	"libexport/logger"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
)

const progressInterval = 250 * time.Millisecond

var wsUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ExportProgressWSHandler 通过 websocket 推送导出进度，导出结束后发送最终状态并关闭连接
func (s *Server) ExportProgressWSHandler(w http.ResponseWriter, r *http.Request) {
	j, ok := s.lookup(mux.Vars(r)["id"])
	if !ok {
		writeError(w, http.StatusNotFound, "Export not found")
		return
	}

	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Error("websocket upgrade failed", logger.ErrorField(err))
		return
	}
	defer conn.Close()

	// 读取客户端消息以处理 close 帧，客户端断开后停止推送
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(progressInterval)
	defer ticker.Stop()

	var last exportStatus
	send := func(st exportStatus) bool {
		conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
		if err := conn.WriteJSON(st); err != nil {
			logger.Debug("progress stream closed", logger.String("id", st.ID), logger.ErrorField(err))
			return false
		}
		last = st
		return true
	}

	if !send(j.status()) {
		return
	}
	for {
		select {
		case <-closed:
			return
		case <-j.handle.Done():
			send(j.status())
			conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, string(last.Status)),
				time.Now().Add(time.Second))
			return
		case <-ticker.C:
			st := j.status()
			if st.Progress == last.Progress && st.Status == last.Status {
				continue
			}
			if !send(st) {
				return
			}
		}
	}
}

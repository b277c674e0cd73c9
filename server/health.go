package server

import (
	"net/http"
	"os"
)

// HealthHandler answers load balancer health checks.
type HealthHandler struct {
	clusterRole  string
	shutdownFile string
}

// NewHealthHandler 创建健康检查处理器
func NewHealthHandler(clusterRole, shutdownFile string) *HealthHandler {
	return &HealthHandler{clusterRole: clusterRole, shutdownFile: shutdownFile}
}

func (h *HealthHandler) shuttingDown() bool {
	if h.shutdownFile == "" {
		return false
	}
	_, err := os.Stat(h.shutdownFile)
	return err == nil
}

func (h *HealthHandler) respond(w http.ResponseWriter, requireMaster bool) {
	w.Header().Set("Content-Type", "text/plain")
	switch {
	case requireMaster && h.clusterRole != "master":
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("not the master server"))
	case h.shuttingDown():
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("shutdown in process"))
	default:
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	}
}

// Health is healthy only on the master server.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	h.respond(w, true)
}

// ReadOnly is healthy on any server that is not shutting down.
func (h *HealthHandler) ReadOnly(w http.ResponseWriter, r *http.Request) {
	h.respond(w, false)
}

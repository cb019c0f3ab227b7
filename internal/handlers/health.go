package handlers

import (
	"net/http"
	"runtime"
	"time"

	"metamorphosis/internal/startup"
)

const (
	statusHealthy  = "healthy"
	statusDegraded = "degraded"
)

// HealthResponse contains the health check response
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Uptime  string `json:"uptime"`

	// Feature availability
	Features map[string]bool `json:"features"`

	// System info
	GoVersion    string `json:"goVersion"`
	NumCPU       int    `json:"numCpu"`
	NumGoroutine int    `json:"numGoroutine"`
}

// HealthCheck reports liveness and which conversion routes can run. The
// service is degraded, but still answers 200, when an external tool is
// missing.
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	response := HealthResponse{
		Status:  statusHealthy,
		Version: startup.Version,
		Uptime:  time.Since(h.startTime).Round(time.Second).String(),
		Features: map[string]bool{
			"webp":       h.tools.Vips,
			"ffmpeg":     h.tools.FFmpeg,
			"ffprobe":    h.tools.FFprobe,
			"background": h.tools.Rembg,
			"history":    h.history != nil,
		},
		GoVersion:    runtime.Version(),
		NumCPU:       runtime.NumCPU(),
		NumGoroutine: runtime.NumGoroutine(),
	}

	if !h.tools.FFmpeg || !h.tools.Rembg || !h.tools.Vips {
		response.Status = statusDegraded
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	// For HEAD requests, only send headers (no body)
	if r.Method != http.MethodHead {
		writeJSON(w, response)
	}
}

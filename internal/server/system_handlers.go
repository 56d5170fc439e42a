package server

import (
	"net/http"
	"runtime"
)

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "healthy",
		"version": "1.0.0",
		"service": "quantdesk",
	})
}

// handleSystemStatus handles system status requests
func (s *Server) handleSystemStatus(w http.ResponseWriter, r *http.Request) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "running",
		"memory": map[string]interface{}{
			"alloc_mb":       m.Alloc / 1024 / 1024,
			"total_alloc_mb": m.TotalAlloc / 1024 / 1024,
			"sys_mb":         m.Sys / 1024 / 1024,
			"num_gc":         m.NumGC,
		},
		"goroutines": runtime.NumGoroutine(),
	})
}

// handleSchedule reports the daily sync schedule
func (s *Server) handleSchedule(w http.ResponseWriter, r *http.Request) {
	if s.schedule == nil {
		s.writeJSON(w, http.StatusOK, map[string]interface{}{"enabled": false})
		return
	}
	s.writeJSON(w, http.StatusOK, s.schedule)
}

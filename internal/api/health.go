package api

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/pokerzoo/pokerzoo/internal/poker"
	"github.com/pokerzoo/pokerzoo/internal/store"
)

// HealthStatus represents the overall health status.
type HealthStatus string

const (
	HealthStatusHealthy   HealthStatus = "healthy"
	HealthStatusDegraded  HealthStatus = "degraded"
	HealthStatusUnhealthy HealthStatus = "unhealthy"
)

// HealthCheckResponse represents a comprehensive health check response.
type HealthCheckResponse struct {
	Status        HealthStatus           `json:"status"`
	Timestamp     string                 `json:"timestamp"`
	EngineVersion string                 `json:"engine_version"`
	GitCommit     string                 `json:"git_commit,omitempty"`
	BuildTime     string                 `json:"build_time,omitempty"`
	Uptime        string                 `json:"uptime"`
	Checks        map[string]HealthCheck `json:"checks"`
	System        SystemInfo             `json:"system"`
	RequestID     string                 `json:"request_id,omitempty"`
}

// HealthCheck represents an individual health check.
type HealthCheck struct {
	Status      HealthStatus `json:"status"`
	Message     string       `json:"message,omitempty"`
	LastChecked string       `json:"last_checked"`
	Duration    string       `json:"duration,omitempty"`
}

// SystemInfo contains system information.
type SystemInfo struct {
	GoVersion     string `json:"go_version"`
	NumGoroutines int    `json:"num_goroutines"`
	NumCPU        int    `json:"num_cpu"`
	GOMAXPROCS    int    `json:"gomaxprocs"`
	MemoryAlloc   uint64 `json:"memory_alloc_bytes"`
	MemoryTotal   uint64 `json:"memory_total_bytes"`
	MemorySys     uint64 `json:"memory_sys_bytes"`
	GCCycles      uint32 `json:"gc_cycles"`
}

// handleHealthCheck provides the comprehensive health check endpoint.
func (s *Server) handleHealthCheck(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetReqID(r.Context())

	checks := make(map[string]HealthCheck)
	overallStatus := HealthStatusHealthy

	variantCheck := s.checkVariantsHealth()
	checks["variants"] = variantCheck
	if variantCheck.Status != HealthStatusHealthy {
		overallStatus = HealthStatusDegraded
	}

	dbCheck := s.checkDatabaseHealth()
	checks["database"] = dbCheck
	if dbCheck.Status == HealthStatusUnhealthy {
		overallStatus = HealthStatusUnhealthy
	} else if dbCheck.Status == HealthStatusDegraded && overallStatus == HealthStatusHealthy {
		overallStatus = HealthStatusDegraded
	}

	tableCheck := s.checkTablesHealth()
	checks["tables"] = tableCheck

	response := HealthCheckResponse{
		Status:        overallStatus,
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
		EngineVersion: EngineVersion,
		GitCommit:     GitCommit,
		BuildTime:     BuildTime,
		Uptime:        time.Since(s.startTime).String(),
		Checks:        checks,
		System:        s.getSystemInfo(),
		RequestID:     requestID,
	}

	status := http.StatusOK
	if overallStatus == HealthStatusUnhealthy {
		status = http.StatusServiceUnavailable
	}
	s.writeJSON(w, status, response)
}

// handleReadiness reports whether the server can take traffic.
func (s *Server) handleReadiness(w http.ResponseWriter, r *http.Request) {
	if dbCheck := s.checkDatabaseHealth(); dbCheck.Status == HealthStatusUnhealthy {
		s.writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"ready":  false,
			"reason": dbCheck.Message,
		})
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"ready": true})
}

// handleLiveness reports whether the process is alive.
func (s *Server) handleLiveness(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"alive":  true,
		"uptime": time.Since(s.startTime).String(),
	})
}

// checkVariantsHealth verifies the variant registry is populated and usable.
func (s *Server) checkVariantsHealth() HealthCheck {
	start := time.Now()
	check := HealthCheck{
		Status:      HealthStatusHealthy,
		LastChecked: start.UTC().Format(time.RFC3339),
	}

	ids := poker.ListVariants()
	if len(ids) == 0 {
		check.Status = HealthStatusUnhealthy
		check.Message = "no variants registered"
		return check
	}
	for _, id := range ids {
		if _, ok := poker.GetVariant(id); !ok {
			check.Status = HealthStatusDegraded
			check.Message = fmt.Sprintf("variant %s listed but not retrievable", id)
			break
		}
	}
	if check.Message == "" {
		check.Message = fmt.Sprintf("%d variants available", len(ids))
	}
	check.Duration = time.Since(start).String()
	return check
}

// checkDatabaseHealth verifies the store answers queries.
func (s *Server) checkDatabaseHealth() HealthCheck {
	start := time.Now()
	check := HealthCheck{
		Status:      HealthStatusHealthy,
		LastChecked: start.UTC().Format(time.RFC3339),
	}

	if s.db == nil {
		check.Status = HealthStatusDegraded
		check.Message = "database not configured"
		return check
	}
	if _, err := s.db.ListMatches(store.MatchesQuery{PerPage: 1}); err != nil {
		check.Status = HealthStatusUnhealthy
		check.Message = fmt.Sprintf("database query failed: %v", err)
	}
	check.Duration = time.Since(start).String()
	return check
}

// checkTablesHealth reports the live interactive session count.
func (s *Server) checkTablesHealth() HealthCheck {
	s.tablesMu.RLock()
	count := len(s.tables)
	s.tablesMu.RUnlock()

	return HealthCheck{
		Status:      HealthStatusHealthy,
		Message:     fmt.Sprintf("%d live tables", count),
		LastChecked: time.Now().UTC().Format(time.RFC3339),
	}
}

// getSystemInfo collects runtime statistics.
func (s *Server) getSystemInfo() SystemInfo {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	return SystemInfo{
		GoVersion:     runtime.Version(),
		NumGoroutines: runtime.NumGoroutine(),
		NumCPU:        runtime.NumCPU(),
		GOMAXPROCS:    runtime.GOMAXPROCS(0),
		MemoryAlloc:   m.Alloc,
		MemoryTotal:   m.TotalAlloc,
		MemorySys:     m.Sys,
		GCCycles:      m.NumGC,
	}
}

package handlers

import (
	"context"
	"net/http"
	"time"
)

const version = "0.1.0"

// Check represents the status of a health check.
type Check struct {
	Status  string `json:"status"`            // "pass" or "fail"
	Latency string `json:"latency,omitempty"` // e.g., "2ms"
	Message string `json:"message,omitempty"`
}

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status       string           `json:"status"` // "healthy" or "degraded"
	Version      string           `json:"version"`
	Connectivity string           `json:"connectivity"`
	Checks       map[string]Check `json:"checks"`
	Timestamp    string           `json:"timestamp"`
}

// Health handles the health check endpoint.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	checks := make(map[string]Check)
	allHealthy := true

	// Check the room directory store
	if h.rooms != nil {
		dbStart := time.Now()
		if err := h.rooms.Ping(ctx); err != nil {
			checks["directory"] = Check{Status: "fail", Message: "connection failed"}
			allHealthy = false
		} else {
			checks["directory"] = Check{Status: "pass", Latency: time.Since(dbStart).String()}
		}
	} else {
		checks["directory"] = Check{Status: "fail", Message: "not configured"}
		allHealthy = false
	}

	// Check Redis
	if h.redis != nil {
		redisStart := time.Now()
		if err := h.redis.Ping(ctx); err != nil {
			checks["redis"] = Check{Status: "fail", Message: "connection failed"}
			allHealthy = false
		} else {
			checks["redis"] = Check{Status: "pass", Latency: time.Since(redisStart).String()}
		}
	} else {
		checks["redis"] = Check{Status: "fail", Message: "not configured"}
		allHealthy = false
	}

	status := "healthy"
	statusCode := http.StatusOK
	if !allHealthy {
		status = "degraded"
		statusCode = http.StatusServiceUnavailable
	}

	connectivity := "online"
	if h.monitor != nil {
		connectivity = string(h.monitor.Status())
	}

	resp := HealthResponse{
		Status:       status,
		Version:      version,
		Connectivity: connectivity,
		Checks:       checks,
		Timestamp:    time.Now().UTC().Format(time.RFC3339),
	}

	h.JSON(w, statusCode, resp)
}

// RootResponse represents the root endpoint response.
type RootResponse struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// Root handles the root endpoint.
func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	h.JSON(w, http.StatusOK, RootResponse{
		Name:    "rait-rooms",
		Version: version,
	})
}

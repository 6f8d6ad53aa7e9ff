package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
)

const healthTimeout = 3 * time.Second

type Pinger interface {
	Ping(ctx context.Context) error
}

type healthCheck struct {
	name  string
	check func(ctx context.Context) error
}

type HealthHandler struct {
	checks []healthCheck
}

// NewHealthHandler checks the database and, when configured, Redis. Redis
// carries the email queue and the reset throttle.
func NewHealthHandler(db Pinger, redis *redis.Client) *HealthHandler {
	h := &HealthHandler{checks: []healthCheck{{name: "database", check: db.Ping}}}
	if redis != nil {
		h.checks = append(h.checks, healthCheck{
			name:  "redis",
			check: func(ctx context.Context) error { return redis.Ping(ctx).Err() },
		})
	}
	return h
}

type HealthResponse struct {
	Status   string            `json:"status"`
	Services map[string]string `json:"services"`
}

func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
	defer cancel()

	resp := HealthResponse{Status: "healthy", Services: make(map[string]string, len(h.checks))}
	for _, c := range h.checks {
		if err := c.check(ctx); err != nil {
			resp.Services[c.name] = "unhealthy"
			resp.Status = "unhealthy"
			continue
		}
		resp.Services[c.name] = "healthy"
	}

	status := http.StatusOK
	if resp.Status != "healthy" {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, resp)
}

// Ready only needs the database: without Redis, email falls back to the log.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
	defer cancel()

	if err := h.checks[0].check(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not ready"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

package handlers

import (
	"net/http"
	"time"

	"github.com/NealChanAI/stock-investment/internal/api/response"
	"github.com/NealChanAI/stock-investment/internal/infra/database/postgres"
)

// HealthHandler serves liveness and readiness probes.
type HealthHandler struct {
	pool      *postgres.Pool
	startTime time.Time
	version   string
}

// NewHealthHandler creates the health handler. pool may be nil when the
// server runs without persistence.
func NewHealthHandler(pool *postgres.Pool, version string) *HealthHandler {
	return &HealthHandler{pool: pool, startTime: time.Now(), version: version}
}

// HealthResponse is the liveness payload.
type HealthResponse struct {
	Status        string    `json:"status"`
	Version       string    `json:"version"`
	UptimeSeconds int64     `json:"uptime_seconds"`
	Timestamp     time.Time `json:"timestamp"`
}

// ReadyResponse is the readiness payload.
type ReadyResponse struct {
	Status    string            `json:"status"`
	Checks    map[string]string `json:"checks"`
	Timestamp time.Time         `json:"timestamp"`
}

// Health handles GET /health.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, HealthResponse{
		Status:        "healthy",
		Version:       h.version,
		UptimeSeconds: int64(time.Since(h.startTime).Seconds()),
		Timestamp:     time.Now(),
	})
}

// Ready handles GET /health/ready.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	checks := map[string]string{}
	status := "ready"
	code := http.StatusOK

	if h.pool != nil {
		db := h.pool.Health(r.Context())
		checks["database"] = db.Status
		if db.Status != "healthy" {
			status = "not_ready"
			code = http.StatusServiceUnavailable
		}
	} else {
		checks["database"] = "disabled"
	}

	response.JSON(w, code, ReadyResponse{
		Status:    status,
		Checks:    checks,
		Timestamp: time.Now(),
	})
}

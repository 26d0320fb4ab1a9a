package postgres

import (
	"context"
	"time"
)

// HealthStatus reports pool-level health for the readiness endpoint.
type HealthStatus struct {
	Status       string `json:"status"`
	ResponseTime string `json:"response_time"`
	TotalConns   int32  `json:"total_conns"`
	IdleConns    int32  `json:"idle_conns"`
	Error        string `json:"error,omitempty"`
}

// Health pings the database and snapshots pool statistics.
func (p *Pool) Health(ctx context.Context) HealthStatus {
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	started := time.Now()
	err := p.Ping(pingCtx)
	elapsed := time.Since(started)

	stats := p.Stat()
	status := HealthStatus{
		Status:       "healthy",
		ResponseTime: elapsed.String(),
		TotalConns:   stats.TotalConns(),
		IdleConns:    stats.IdleConns(),
	}
	if err != nil {
		status.Status = "unhealthy"
		status.Error = err.Error()
	}
	return status
}

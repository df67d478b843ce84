package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/irfndi/wellcast-go/internal/services"
)

var startTime = time.Now()

// HealthChecker is implemented by the Postgres and Redis clients
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// BreakerStats reports generative backend circuit breakers
type BreakerStats interface {
	AllStats() map[string]services.CircuitBreakerStats
}

// HealthHandler serves the liveness and dependency report
type HealthHandler struct {
	db       HealthChecker
	redis    HealthChecker
	breakers BreakerStats
	version  string
}

// HealthResponse is the body of GET /health
type HealthResponse struct {
	Status          string                                  `json:"status"`
	Timestamp       time.Time                               `json:"timestamp"`
	Services        map[string]string                       `json:"services"`
	CircuitBreakers map[string]services.CircuitBreakerStats `json:"circuit_breakers,omitempty"`
	Version         string                                  `json:"version"`
	Uptime          string                                  `json:"uptime"`
}

// NewHealthHandler creates a health handler. breakers may be nil.
func NewHealthHandler(db, redis HealthChecker, breakers BreakerStats, version string) *HealthHandler {
	return &HealthHandler{db: db, redis: redis, breakers: breakers, version: version}
}

// HealthCheck reports dependency status. An open breaker does not make the
// service unhealthy since template recommendations still work.
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	deps := map[string]string{
		"database": checkStatus(ctx, h.db),
		"redis":    checkStatus(ctx, h.redis),
	}

	status := "healthy"
	for _, s := range deps {
		if s != "healthy" {
			status = "degraded"
			break
		}
	}

	response := HealthResponse{
		Status:    status,
		Timestamp: time.Now(),
		Services:  deps,
		Version:   h.version,
		Uptime:    time.Since(startTime).String(),
	}
	if h.breakers != nil {
		response.CircuitBreakers = h.breakers.AllStats()
	}

	code := http.StatusOK
	if status != "healthy" {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, response)
}

func checkStatus(ctx context.Context, checker HealthChecker) string {
	if checker == nil {
		return "unhealthy: not configured"
	}
	if err := checker.HealthCheck(ctx); err != nil {
		return "unhealthy: " + err.Error()
	}
	return "healthy"
}

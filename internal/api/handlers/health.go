package handlers

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shirou/gopsutil/v3/mem"
)

// HealthChecker reports whether a backing service is reachable.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// HealthHandler serves liveness and dependency status.
type HealthHandler struct {
	db      HealthChecker
	redis   HealthChecker
	version string
	started time.Time
}

// HealthResponse is the /health payload.
type HealthResponse struct {
	Status    string         `json:"status"`
	Timestamp time.Time      `json:"timestamp"`
	Version   string         `json:"version"`
	Uptime    string         `json:"uptime"`
	Services  ServiceStatus  `json:"services"`
	System    SystemSnapshot `json:"system"`
}

// ServiceStatus holds per-dependency health.
type ServiceStatus struct {
	Database string `json:"database"`
	Redis    string `json:"redis"`
}

// SystemSnapshot is a coarse view of process and host resource use.
type SystemSnapshot struct {
	Goroutines    int     `json:"goroutines"`
	MemoryUsedPct float64 `json:"memory_used_pct,omitempty"`
}

// NewHealthHandler creates a health handler over the given dependencies.
// Either checker may be nil when the deployment runs without it.
func NewHealthHandler(db, redis HealthChecker, version string) *HealthHandler {
	return &HealthHandler{db: db, redis: redis, version: version, started: time.Now()}
}

// Check reports overall health. Degraded dependencies flip the top-level
// status and the HTTP code so load balancers can act on it.
func (h *HealthHandler) Check(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	resp := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC(),
		Version:   h.version,
		Uptime:    time.Since(h.started).Round(time.Second).String(),
		Services: ServiceStatus{
			Database: checkService(ctx, h.db),
			Redis:    checkService(ctx, h.redis),
		},
		System: systemSnapshot(ctx),
	}

	code := http.StatusOK
	if resp.Services.Database == "unhealthy" || resp.Services.Redis == "unhealthy" {
		resp.Status = "degraded"
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, resp)
}

func checkService(ctx context.Context, checker HealthChecker) string {
	if checker == nil {
		return "disabled"
	}
	if err := checker.HealthCheck(ctx); err != nil {
		return "unhealthy"
	}
	return "healthy"
}

func systemSnapshot(ctx context.Context) SystemSnapshot {
	snap := SystemSnapshot{Goroutines: runtime.NumGoroutine()}
	if info, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		snap.MemoryUsedPct = info.UsedPercent
	}
	return snap
}

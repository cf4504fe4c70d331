package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Anirudh9794/container-service-extension/internal/storage"
)

// HealthHandler handles health check endpoints
type HealthHandler struct {
	database *storage.Database
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(db *storage.Database) *HealthHandler {
	return &HealthHandler{
		database: db,
	}
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Uptime    string    `json:"uptime,omitempty"`
}

// ReadinessResponse represents the readiness check response
type ReadinessResponse struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Services  map[string]string `json:"services"`
}

var startTime = time.Now()

// Health returns the basic health status
func (h *HealthHandler) Health(c *gin.Context) {
	response := HealthResponse{
		Status:    "ok",
		Timestamp: time.Now(),
		Uptime:    time.Since(startTime).String(),
	}

	c.JSON(http.StatusOK, response)
}

// Ready returns the readiness status including service dependencies
func (h *HealthHandler) Ready(c *gin.Context) {
	services := make(map[string]string)
	status := "ready"
	statusCode := http.StatusOK

	if err := h.database.Health(); err != nil {
		services["database"] = "unhealthy: " + err.Error()
		status = "not_ready"
		statusCode = http.StatusServiceUnavailable
	} else {
		services["database"] = "healthy"
	}

	response := ReadinessResponse{
		Status:    status,
		Timestamp: time.Now(),
		Services:  services,
	}

	c.JSON(statusCode, response)
}

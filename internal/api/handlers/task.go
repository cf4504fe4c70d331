package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Anirudh9794/container-service-extension/internal/logger"
)

// TaskLister is the orchestration surface the task handler needs
type TaskLister interface {
	ListTaskIDs(ctx context.Context) ([]string, error)
}

// TaskHandler handles task-related API operations
type TaskHandler struct {
	coordinator TaskLister
	logger      logger.Interface
}

// NewTaskHandler creates a new task handler
func NewTaskHandler(coordinator TaskLister, log logger.Interface) *TaskHandler {
	return &TaskHandler{
		coordinator: coordinator,
		logger:      log.WithField("handler", "task"),
	}
}

// ListIDs returns all known task identifiers for operational polling
func (h *TaskHandler) ListIDs(c *gin.Context) {
	ids, err := h.coordinator.ListTaskIDs(c.Request.Context())
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, ids)
}

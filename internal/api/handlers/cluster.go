package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Anirudh9794/container-service-extension/internal/errors"
	"github.com/Anirudh9794/container-service-extension/internal/logger"
	"github.com/Anirudh9794/container-service-extension/internal/models"
	"github.com/Anirudh9794/container-service-extension/internal/orchestrator"
)

// ClusterCoordinator is the orchestration surface the cluster handler needs
type ClusterCoordinator interface {
	ListClusters(ctx context.Context) ([]models.Cluster, error)
	CreateCluster(ctx context.Context, cfg orchestrator.ClusterConfig) (*orchestrator.ClusterAccepted, error)
	DeleteCluster(ctx context.Context, clusterID string) (*orchestrator.DeleteAccepted, error)
}

// ClusterHandler handles cluster-related API operations
type ClusterHandler struct {
	coordinator ClusterCoordinator
	logger      logger.Interface
}

// NewClusterHandler creates a new cluster handler
func NewClusterHandler(coordinator ClusterCoordinator, log logger.Interface) *ClusterHandler {
	return &ClusterHandler{
		coordinator: coordinator,
		logger:      log.WithField("handler", "cluster"),
	}
}

// ClusterResponse is one cluster entity as served on the wire, with nodes
// split by role
type ClusterResponse struct {
	ClusterID      string               `json:"cluster_id"`
	Name           string               `json:"name"`
	Status         models.ClusterStatus `json:"status"`
	LeaderEndpoint string               `json:"leader_endpoint,omitempty"`
	MasterNodes    []models.Node        `json:"master_nodes"`
	Nodes          []models.Node        `json:"nodes"`
}

func toClusterResponse(cluster models.Cluster) ClusterResponse {
	return ClusterResponse{
		ClusterID:      cluster.ID,
		Name:           cluster.Name,
		Status:         cluster.Status,
		LeaderEndpoint: cluster.LeaderEndpoint,
		MasterNodes:    cluster.MasterNodes(),
		Nodes:          cluster.WorkerNodes(),
	}
}

// List returns the current snapshot of all clusters
func (h *ClusterHandler) List(c *gin.Context) {
	clusters, err := h.coordinator.ListClusters(c.Request.Context())
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	response := make([]ClusterResponse, 0, len(clusters))
	for _, cluster := range clusters {
		response = append(response, toClusterResponse(cluster))
	}

	c.JSON(http.StatusOK, response)
}

// Create admits a cluster create request and returns 202 with the task
// handle; provisioning completes asynchronously
func (h *ClusterHandler) Create(c *gin.Context) {
	var cfg orchestrator.ClusterConfig
	if err := c.ShouldBindJSON(&cfg); err != nil {
		c.JSON(http.StatusBadRequest,
			errors.NewError(errors.CodeBadRequest, "malformed cluster config: "+err.Error()))
		return
	}

	accepted, err := h.coordinator.CreateCluster(c.Request.Context(), cfg)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	h.logger.WithFields(map[string]interface{}{
		"cluster_id": accepted.ClusterID,
		"task_id":    accepted.TaskID,
	}).Info("Accepted cluster create request")
	c.JSON(http.StatusAccepted, accepted)
}

// Delete admits a cluster delete request by cluster ID and returns 202
func (h *ClusterHandler) Delete(c *gin.Context) {
	clusterID := c.Param("clusterid")

	accepted, err := h.coordinator.DeleteCluster(c.Request.Context(), clusterID)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	h.logger.WithFields(map[string]interface{}{
		"cluster_id": accepted.ClusterID,
		"task_id":    accepted.TaskID,
	}).Info("Accepted cluster delete request")
	c.JSON(http.StatusAccepted, accepted)
}

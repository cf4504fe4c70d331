package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Anirudh9794/container-service-extension/internal/errors"
	"github.com/Anirudh9794/container-service-extension/internal/logger"
	"github.com/Anirudh9794/container-service-extension/internal/models"
	"github.com/Anirudh9794/container-service-extension/internal/orchestrator"
)

// stubCoordinator returns canned results for handler tests
type stubCoordinator struct {
	clusters  []models.Cluster
	accepted  *orchestrator.ClusterAccepted
	deleted   *orchestrator.DeleteAccepted
	taskIDs   []string
	err       error
	gotConfig orchestrator.ClusterConfig
	gotID     string
}

func (s *stubCoordinator) ListClusters(ctx context.Context) ([]models.Cluster, error) {
	return s.clusters, s.err
}

func (s *stubCoordinator) CreateCluster(ctx context.Context, cfg orchestrator.ClusterConfig) (*orchestrator.ClusterAccepted, error) {
	s.gotConfig = cfg
	return s.accepted, s.err
}

func (s *stubCoordinator) DeleteCluster(ctx context.Context, clusterID string) (*orchestrator.DeleteAccepted, error) {
	s.gotID = clusterID
	return s.deleted, s.err
}

func (s *stubCoordinator) ListTaskIDs(ctx context.Context) ([]string, error) {
	return s.taskIDs, s.err
}

func newTestRouter(coordinator *stubCoordinator) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()

	log := logger.NewNop()
	cluster := NewClusterHandler(coordinator, log)
	task := NewTaskHandler(coordinator, log)

	router.GET("/cluster", cluster.List)
	router.POST("/cluster", cluster.Create)
	router.DELETE("/cluster/:clusterid", cluster.Delete)
	router.GET("/tasks", task.ListIDs)
	return router
}

func TestClusterList(t *testing.T) {
	coordinator := &stubCoordinator{
		clusters: []models.Cluster{
			{
				ID: "c-1", Name: "demo-1", Status: models.ClusterStatusActive,
				LeaderEndpoint: "https://10.150.0.10:6443",
				Nodes: []models.Node{
					{ID: "n-1", Name: "mstr-abc", Role: models.NodeRoleMaster},
					{ID: "n-2", Name: "node-def", Role: models.NodeRoleWorker},
				},
			},
		},
	}
	router := newTestRouter(coordinator)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/cluster", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var body []ClusterResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body, 1)
	assert.Equal(t, "c-1", body[0].ClusterID)
	assert.Equal(t, models.ClusterStatusActive, body[0].Status)
	require.Len(t, body[0].MasterNodes, 1)
	require.Len(t, body[0].Nodes, 1)
	assert.Equal(t, "mstr-abc", body[0].MasterNodes[0].Name)
	assert.Equal(t, "node-def", body[0].Nodes[0].Name)
}

func TestClusterListEmpty(t *testing.T) {
	router := newTestRouter(&stubCoordinator{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/cluster", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, "[]", w.Body.String())
}

func TestClusterCreateAccepted(t *testing.T) {
	coordinator := &stubCoordinator{
		accepted: &orchestrator.ClusterAccepted{
			ClusterID: "c-1",
			Name:      "demo-1",
			Status:    models.ClusterStatusInactive,
			TaskID:    "t-1",
		},
	}
	router := newTestRouter(coordinator)

	payload := `{"name":"demo-1","node_count":3,"vdc":"vdc1","network":"net1"}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/cluster", bytes.NewBufferString(payload))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, "demo-1", coordinator.gotConfig.Name)
	assert.Equal(t, 3, coordinator.gotConfig.NodeCount)

	var body orchestrator.ClusterAccepted
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "c-1", body.ClusterID)
	assert.Equal(t, "t-1", body.TaskID)
	assert.Equal(t, models.ClusterStatusInactive, body.Status)
}

func TestClusterCreateMalformedBody(t *testing.T) {
	router := newTestRouter(&stubCoordinator{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/cluster", bytes.NewBufferString("{not json"))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)

	var body errors.Error
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, int64(errors.CodeBadRequest), body.Code)
	assert.Contains(t, body.Message, "malformed cluster config")
}

func TestClusterCreateValidationError(t *testing.T) {
	coordinator := &stubCoordinator{
		err: errors.NewValidationError("node_count", 0, "must be at least 1"),
	}
	router := newTestRouter(coordinator)

	payload := `{"name":"demo-1","node_count":0,"vdc":"vdc1","network":"net1"}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/cluster", bytes.NewBufferString(payload))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)

	var body errors.Error
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, int64(errors.CodeBadRequest), body.Code)
	assert.Contains(t, body.Message, "node_count")
}

func TestClusterCreateNameConflict(t *testing.T) {
	coordinator := &stubCoordinator{
		err: errors.Wrapf(errors.ErrConflict, "cluster %q already exists", "demo-1"),
	}
	router := newTestRouter(coordinator)

	payload := `{"name":"demo-1","node_count":3,"vdc":"vdc1","network":"net1"}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/cluster", bytes.NewBufferString(payload))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusConflict, w.Code)

	var body errors.Error
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, int64(errors.CodeConflict), body.Code)
	// the wrapped sentinel surfaces as a nested cause
	require.NotNil(t, body.Cause)
	assert.Equal(t, int64(errors.CodeConflict), body.Cause.Code)
}

func TestClusterDeleteAccepted(t *testing.T) {
	coordinator := &stubCoordinator{
		deleted: &orchestrator.DeleteAccepted{
			Name:      "demo-1",
			ClusterID: "c-1",
			TaskID:    "t-2",
			Status:    models.ClusterStatusActive,
		},
	}
	router := newTestRouter(coordinator)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodDelete, "/cluster/c-1", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, "c-1", coordinator.gotID)

	var body orchestrator.DeleteAccepted
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "t-2", body.TaskID)
	assert.Equal(t, "demo-1", body.Name)
}

func TestClusterDeleteNotFound(t *testing.T) {
	coordinator := &stubCoordinator{
		err: errors.Wrapf(errors.ErrNotFound, "cluster %q", "missing"),
	}
	router := newTestRouter(coordinator)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodDelete, "/cluster/missing", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusNotFound, w.Code)

	var body errors.Error
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, int64(errors.CodeNotFound), body.Code)
}

func TestClusterListInternalError(t *testing.T) {
	coordinator := &stubCoordinator{err: fmt.Errorf("database on fire")}
	router := newTestRouter(coordinator)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/cluster", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusInternalServerError, w.Code)

	var body errors.Error
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, int64(errors.CodeInternal), body.Code)
	assert.Equal(t, "internal server error", body.Message)
	require.NotNil(t, body.Cause)
	assert.Equal(t, "database on fire", body.Cause.Message)
}

func TestTaskListIDs(t *testing.T) {
	coordinator := &stubCoordinator{taskIDs: []string{"t-1", "t-2"}}
	router := newTestRouter(coordinator)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/tasks", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var ids []string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &ids))
	assert.Equal(t, []string{"t-1", "t-2"}, ids)
}

// Package orchestrator contains the cluster-lifecycle engine: the
// coordinator admitting create/delete requests, the executor driving
// provisioning workflows, and the worker pool the workflows run on.
package orchestrator

import (
	"context"
	"regexp"
	"sync"

	"github.com/google/uuid"

	"github.com/Anirudh9794/container-service-extension/internal/errors"
	"github.com/Anirudh9794/container-service-extension/internal/logger"
	"github.com/Anirudh9794/container-service-extension/internal/models"
	"github.com/Anirudh9794/container-service-extension/internal/store"
)

// clusterNamePattern is the DNS-label syntax cluster names must follow
var clusterNamePattern = regexp.MustCompile(`^[a-zA-Z]([-0-9a-zA-Z]*[0-9a-zA-Z])?(\.[a-zA-Z]([-0-9a-zA-Z]*[0-9a-zA-Z])?)*$`)

const (
	minClusterNameLength = 3
	maxClusterNameLength = 63
)

// ClusterConfig is the payload of a cluster create request
type ClusterConfig struct {
	Name      string `json:"name"`
	NodeCount int    `json:"node_count"`
	VDC       string `json:"vdc"`
	Network   string `json:"network"`
	// ClusterID optionally pre-assigns the cluster identifier
	ClusterID string `json:"cluster_id,omitempty"`
}

// ClusterAccepted is the 202 response of an admitted create request
type ClusterAccepted struct {
	ClusterID string               `json:"cluster_id"`
	Name      string               `json:"name"`
	Status    models.ClusterStatus `json:"status"`
	TaskID    string               `json:"task_id"`
}

// DeleteAccepted is the 202 response of an admitted delete request
type DeleteAccepted struct {
	Name      string               `json:"name"`
	ClusterID string               `json:"cluster_id"`
	TaskID    string               `json:"task_id"`
	Status    models.ClusterStatus `json:"status"`
}

// Coordinator is the front-door logic bound to the REST verbs: it validates
// requests, enforces name uniqueness and per-cluster serialization, creates
// tasks, and hands workflows to the executor through the dispatcher.
type Coordinator struct {
	clusters   *store.ClusterRegistry
	tasks      *store.TaskStore
	executor   *Executor
	dispatcher Dispatcher
	log        logger.Interface
	names      nameLockSet
}

// NewCoordinator creates an orchestration coordinator
func NewCoordinator(clusters *store.ClusterRegistry, tasks *store.TaskStore, executor *Executor, dispatcher Dispatcher, log logger.Interface) *Coordinator {
	return &Coordinator{
		clusters:   clusters,
		tasks:      tasks,
		executor:   executor,
		dispatcher: dispatcher,
		log:        log.WithField("component", "coordinator"),
		names:      nameLockSet{locks: make(map[string]*sync.Mutex)},
	}
}

// ListClusters returns the current snapshot of all cluster entities
func (c *Coordinator) ListClusters(ctx context.Context) ([]models.Cluster, error) {
	return c.clusters.List()
}

// ListTaskIDs returns all known task identifiers
func (c *Coordinator) ListTaskIDs(ctx context.Context) ([]string, error) {
	return c.tasks.ListIDs()
}

// CreateCluster admits a cluster create request. Validation happens before
// any durable write; admission is serialized per cluster name so two
// concurrent creates for the same name cannot both pass the uniqueness
// check. On success the cluster is registered in provisioning state, a
// running task is recorded, and the workflow is dispatched asynchronously.
func (c *Coordinator) CreateCluster(ctx context.Context, cfg ClusterConfig) (*ClusterAccepted, error) {
	if err := validateClusterConfig(&cfg); err != nil {
		return nil, err
	}

	unlock := c.names.acquire(cfg.Name)
	defer unlock()

	active, err := c.tasks.ActiveForCluster(cfg.Name)
	if err != nil {
		return nil, err
	}
	if active != nil {
		return nil, errors.Wrapf(errors.ErrConflict,
			"cluster %q already has operation %q in progress", cfg.Name, active.Kind)
	}

	clusterID := cfg.ClusterID
	if clusterID == "" {
		clusterID = uuid.New().String()
	}
	cluster := &models.Cluster{
		ID:        clusterID,
		Name:      cfg.Name,
		Status:    models.ClusterStatusInactive,
		VDC:       cfg.VDC,
		Network:   cfg.Network,
		NodeCount: cfg.NodeCount,
	}
	if err := c.clusters.Create(cluster); err != nil {
		return nil, err
	}

	task := &models.Task{
		ID:          uuid.New().String(),
		Kind:        models.TaskKindCreate,
		Status:      models.TaskStatusRunning,
		Message:     "Creating cluster " + cfg.Name,
		ClusterID:   cluster.ID,
		ClusterName: cluster.Name,
	}
	if err := c.tasks.Create(task); err != nil {
		// release the reserved name rather than leaking a half-admitted cluster
		if derr := c.clusters.Delete(cluster.ID); derr != nil {
			c.log.WithError(derr).WithField("cluster_id", cluster.ID).
				Error("Failed to release cluster after task creation failure")
		}
		return nil, err
	}

	if err := c.dispatch(task, cluster, c.executor.RunCreate); err != nil {
		return nil, err
	}

	c.log.WithFields(map[string]interface{}{
		"cluster":    cluster.Name,
		"cluster_id": cluster.ID,
		"task_id":    task.ID,
	}).Info("Admitted cluster create request")

	return &ClusterAccepted{
		ClusterID: cluster.ID,
		Name:      cluster.Name,
		Status:    cluster.Status,
		TaskID:    task.ID,
	}, nil
}

// DeleteCluster admits a cluster delete request by cluster ID
func (c *Coordinator) DeleteCluster(ctx context.Context, clusterID string) (*DeleteAccepted, error) {
	cluster, err := c.clusters.GetByID(clusterID)
	if err != nil {
		return nil, err
	}

	unlock := c.names.acquire(cluster.Name)
	defer unlock()

	active, err := c.tasks.ActiveForCluster(cluster.Name)
	if err != nil {
		return nil, err
	}
	if active != nil {
		return nil, errors.Wrapf(errors.ErrConflict,
			"cluster %q already has operation %q in progress", cluster.Name, active.Kind)
	}

	task := &models.Task{
		ID:          uuid.New().String(),
		Kind:        models.TaskKindDelete,
		Status:      models.TaskStatusRunning,
		Message:     "Deleting cluster " + cluster.Name,
		ClusterID:   cluster.ID,
		ClusterName: cluster.Name,
	}
	if err := c.tasks.Create(task); err != nil {
		return nil, err
	}

	if err := c.dispatch(task, cluster, c.executor.RunDelete); err != nil {
		return nil, err
	}

	c.log.WithFields(map[string]interface{}{
		"cluster":    cluster.Name,
		"cluster_id": cluster.ID,
		"task_id":    task.ID,
	}).Info("Admitted cluster delete request")

	return &DeleteAccepted{
		Name:      cluster.Name,
		ClusterID: cluster.ID,
		TaskID:    task.ID,
		Status:    cluster.Status,
	}, nil
}

// dispatch hands a workflow to the pool. Failure to enqueue finalizes the
// task immediately so no admitted task is left running forever.
func (c *Coordinator) dispatch(task *models.Task, cluster *models.Cluster, run func(context.Context, *models.Task, *models.Cluster)) error {
	err := c.dispatcher.Submit(func(ctx context.Context) {
		run(ctx, task, cluster)
	})
	if err == nil {
		return nil
	}
	msg := "could not dispatch workflow: " + err.Error()
	if uerr := c.tasks.UpdateStatus(task.ID, models.TaskStatusError, msg); uerr != nil {
		c.log.WithError(uerr).WithField("task_id", task.ID).Error("Failed to finalize undispatchable task")
	}
	return errors.Wrapf(err, "failed to dispatch %s workflow for cluster %q", task.Kind, cluster.Name)
}

// validateClusterConfig rejects malformed configs before any durable write
func validateClusterConfig(cfg *ClusterConfig) error {
	if len(cfg.Name) < minClusterNameLength || len(cfg.Name) > maxClusterNameLength {
		return errors.NewValidationError("name", cfg.Name, "must be 3-63 characters")
	}
	if !clusterNamePattern.MatchString(cfg.Name) {
		return errors.NewValidationError("name", cfg.Name, "must be a valid DNS label")
	}
	if cfg.NodeCount < 1 {
		return errors.NewValidationError("node_count", cfg.NodeCount, "must be at least 1")
	}
	if cfg.VDC == "" {
		return errors.NewValidationError("vdc", cfg.VDC, "is required")
	}
	if cfg.Network == "" {
		return errors.NewValidationError("network", cfg.Network, "is required")
	}
	return nil
}

// nameLockSet serializes admission per cluster name
type nameLockSet struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// acquire locks the mutex for name and returns its unlock function
func (s *nameLockSet) acquire(name string) func() {
	s.mu.Lock()
	lock, ok := s.locks[name]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[name] = lock
	}
	s.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}

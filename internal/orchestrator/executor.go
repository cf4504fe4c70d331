package orchestrator

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"

	"github.com/Anirudh9794/container-service-extension/internal/errors"
	"github.com/Anirudh9794/container-service-extension/internal/logger"
	"github.com/Anirudh9794/container-service-extension/internal/models"
	"github.com/Anirudh9794/container-service-extension/internal/provider"
	"github.com/Anirudh9794/container-service-extension/internal/store"
)

// TaskEvent describes one task status transition, published to observers
type TaskEvent struct {
	TaskID      string            `json:"task_id"`
	Kind        models.TaskKind   `json:"kind"`
	ClusterID   string            `json:"cluster_id"`
	ClusterName string            `json:"cluster_name"`
	Status      models.TaskStatus `json:"status"`
	Message     string            `json:"message"`
	Time        time.Time         `json:"time"`
}

// EventSink receives task events. A nil sink disables publication.
type EventSink interface {
	PublishTaskEvent(event TaskEvent)
}

// ExecutorConfig tunes the provisioning executor
type ExecutorConfig struct {
	// CallTimeout bounds each individual provider call
	CallTimeout time.Duration

	// ReadRetryMax bounds retries of idempotent provider reads. Mutating
	// calls are never silently retried.
	ReadRetryMax uint64

	// RollbackOnFailure controls best-effort teardown of already-created
	// nodes when a create workflow fails partway
	RollbackOnFailure bool
}

// DefaultExecutorConfig returns executor defaults
func DefaultExecutorConfig() ExecutorConfig {
	return ExecutorConfig{
		CallTimeout:       2 * time.Minute,
		ReadRetryMax:      3,
		RollbackOnFailure: true,
	}
}

// Executor drives the multi-step workflow for a single cluster operation
// against the infrastructure provider, updating the task store and cluster
// registry as it progresses. Steps within one task execute strictly
// sequentially; tasks for different clusters run in parallel on the pool.
type Executor struct {
	clusters *store.ClusterRegistry
	tasks    *store.TaskStore
	provider provider.Provider
	events   EventSink
	cfg      ExecutorConfig
	log      logger.Interface
}

// NewExecutor creates a provisioning executor
func NewExecutor(clusters *store.ClusterRegistry, tasks *store.TaskStore, prov provider.Provider, events EventSink, cfg ExecutorConfig, log logger.Interface) *Executor {
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = DefaultExecutorConfig().CallTimeout
	}
	return &Executor{
		clusters: clusters,
		tasks:    tasks,
		provider: prov,
		events:   events,
		cfg:      cfg,
		log:      log.WithField("component", "executor"),
	}
}

// RunCreate executes the create workflow for an admitted task: reserve
// resources, allocate masters, bootstrap the control plane, allocate and
// join workers, then activate the cluster. Nodes become visible in the
// registry as each allocation succeeds.
func (e *Executor) RunCreate(ctx context.Context, task *models.Task, cluster *models.Cluster) {
	log := e.log.WithFields(map[string]interface{}{
		"task_id":    task.ID,
		"cluster":    cluster.Name,
		"cluster_id": cluster.ID,
	})
	log.Info("Starting create workflow")

	var created []models.Node

	e.progress(task, fmt.Sprintf("Reserving resources in vdc %q, network %q", cluster.VDC, cluster.Network))
	err := e.callWithRetry(ctx, "validate resources", func(c context.Context) error {
		return e.provider.ValidateResources(c, cluster.VDC, cluster.Network)
	})
	if err != nil {
		e.failCreate(ctx, task, cluster, created, err)
		return
	}

	e.progress(task, "Adding master node")
	master, err := e.allocateNode(ctx, cluster, models.NodeRoleMaster)
	if err != nil {
		e.failCreate(ctx, task, cluster, created, err)
		return
	}
	created = append(created, *master.node)

	e.progress(task, "Initializing cluster control plane")
	var endpoint string
	err = e.call(ctx, "init control plane", func(c context.Context) error {
		var ierr error
		endpoint, ierr = e.provider.InitControlPlane(c, master.info)
		return ierr
	})
	if err != nil {
		e.failCreate(ctx, task, cluster, created, err)
		return
	}
	if err := e.clusters.SetLeaderEndpoint(cluster.ID, endpoint); err != nil {
		e.failCreate(ctx, task, cluster, created, err)
		return
	}
	log.WithField("leader_endpoint", endpoint).Info("Control plane initialized")

	workers := cluster.NodeCount - 1
	if workers > 0 {
		e.progress(task, fmt.Sprintf("Adding %d worker node(s)", workers))
	}
	for i := 0; i < workers; i++ {
		worker, err := e.allocateNode(ctx, cluster, models.NodeRoleWorker)
		if err != nil {
			e.failCreate(ctx, task, cluster, created, err)
			return
		}
		created = append(created, *worker.node)

		err = e.call(ctx, "join node", func(c context.Context) error {
			return e.provider.JoinNode(c, endpoint, worker.info)
		})
		if err != nil {
			e.failCreate(ctx, task, cluster, created, err)
			return
		}
	}

	if err := e.clusters.UpdateStatus(cluster.ID, models.ClusterStatusActive); err != nil {
		e.failCreate(ctx, task, cluster, created, err)
		return
	}
	e.finalize(task, models.TaskStatusSuccess,
		fmt.Sprintf("Created cluster %q with %d node(s)", cluster.Name, len(created)))
	log.Info("Create workflow completed")
}

// RunDelete executes the delete workflow: deallocate every node, removing
// each row as the provider confirms, then tombstone the cluster. Nodes the
// provider no longer knows count as already gone, so a repeated delete on a
// partially-deleted cluster converges instead of failing.
func (e *Executor) RunDelete(ctx context.Context, task *models.Task, cluster *models.Cluster) {
	log := e.log.WithFields(map[string]interface{}{
		"task_id":    task.ID,
		"cluster":    cluster.Name,
		"cluster_id": cluster.ID,
	})
	log.Info("Starting delete workflow")

	nodes, err := e.clusters.ListNodes(cluster.ID)
	if err != nil {
		e.failDelete(task, cluster, err)
		return
	}

	e.progress(task, fmt.Sprintf("Deleting %d node(s) of cluster %q", len(nodes), cluster.Name))

	var remaining []string
	var firstErr error
	for i := range nodes {
		node := nodes[i]
		err := e.call(ctx, "delete node", func(c context.Context) error {
			return e.provider.DeleteNode(c, node.ID)
		})
		if err != nil && !errors.Is(err, provider.ErrNodeNotFound) {
			log.WithError(err).WithField("node", node.Name).Error("Failed to deallocate node")
			remaining = append(remaining, node.Name)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if err := e.clusters.RemoveNode(node.ID); err != nil {
			log.WithError(err).WithField("node", node.Name).Error("Failed to remove node record")
			remaining = append(remaining, node.Name)
			if firstErr == nil {
				firstErr = err
			}
		}
	}

	if len(remaining) > 0 {
		err := errors.Wrapf(firstErr, "failed to delete node(s) %s", strings.Join(remaining, ", "))
		e.failDelete(task, cluster, err)
		return
	}

	if err := e.clusters.Delete(cluster.ID); err != nil {
		e.failDelete(task, cluster, err)
		return
	}
	e.finalize(task, models.TaskStatusSuccess, fmt.Sprintf("Deleted cluster %q", cluster.Name))
	log.Info("Delete workflow completed")
}

// allocatedNode pairs the provider's view of a node with its registry row
type allocatedNode struct {
	info *provider.NodeInfo
	node *models.Node
}

func (e *Executor) allocateNode(ctx context.Context, cluster *models.Cluster, role models.NodeRole) (*allocatedNode, error) {
	name := nodeName(role)
	spec := provider.NodeSpec{
		Name:        name,
		Role:        role,
		VDC:         cluster.VDC,
		Network:     cluster.Network,
		ClusterID:   cluster.ID,
		ClusterName: cluster.Name,
	}

	var info *provider.NodeInfo
	err := e.call(ctx, "create node", func(c context.Context) error {
		var cerr error
		info, cerr = e.provider.CreateNode(c, spec)
		return cerr
	})
	if err != nil {
		return nil, err
	}

	node := &models.Node{
		ID:          info.Ref,
		Name:        info.Name,
		Role:        role,
		Href:        info.Href,
		IPAddress:   info.IP,
		ClusterID:   cluster.ID,
		ClusterName: cluster.Name,
	}
	if err := e.clusters.AddNode(node); err != nil {
		return nil, err
	}
	return &allocatedNode{info: info, node: node}, nil
}

// failCreate finalizes a failed create workflow: best-effort rollback of
// already-created nodes, cluster marked error for operator remediation,
// task finalized error. Rollback failures chain onto the cause but never
// block finalization.
func (e *Executor) failCreate(ctx context.Context, task *models.Task, cluster *models.Cluster, created []models.Node, cause error) {
	log := e.log.WithFields(map[string]interface{}{"task_id": task.ID, "cluster": cluster.Name})
	log.WithError(cause).Error("Create workflow failed")

	if e.cfg.RollbackOnFailure && len(created) > 0 {
		if rbErr := e.rollback(ctx, created); rbErr != nil {
			cause = fmt.Errorf("rollback incomplete: %v; original failure: %w", rbErr, cause)
		}
	}

	if err := e.clusters.UpdateStatus(cluster.ID, models.ClusterStatusError); err != nil {
		log.WithError(err).Error("Failed to mark cluster as errored")
	}
	e.finalize(task, models.TaskStatusError, cause.Error())
}

// rollback tears down created nodes in reverse allocation order
func (e *Executor) rollback(ctx context.Context, created []models.Node) error {
	var failed []string
	for i := len(created) - 1; i >= 0; i-- {
		node := created[i]
		err := e.call(ctx, "delete node", func(c context.Context) error {
			return e.provider.DeleteNode(c, node.ID)
		})
		if err != nil && !errors.Is(err, provider.ErrNodeNotFound) {
			failed = append(failed, node.Name)
			continue
		}
		if err := e.clusters.RemoveNode(node.ID); err != nil {
			failed = append(failed, node.Name)
		}
	}
	if len(failed) > 0 {
		return fmt.Errorf("could not roll back node(s) %s", strings.Join(failed, ", "))
	}
	return nil
}

func (e *Executor) failDelete(task *models.Task, cluster *models.Cluster, cause error) {
	e.log.WithFields(map[string]interface{}{"task_id": task.ID, "cluster": cluster.Name}).
		WithError(cause).Error("Delete workflow failed")
	if err := e.clusters.UpdateStatus(cluster.ID, models.ClusterStatusError); err != nil {
		e.log.WithError(err).Error("Failed to mark cluster as errored")
	}
	e.finalize(task, models.TaskStatusError, cause.Error())
}

// call makes one provider call under the configured timeout. Deadline
// expiry is reported as a timeout-kind provider error.
func (e *Executor) call(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	cctx, cancel := context.WithTimeout(ctx, e.cfg.CallTimeout)
	defer cancel()

	err := fn(cctx)
	if err == nil {
		return nil
	}
	timeout := errors.Is(err, context.DeadlineExceeded)
	return errors.NewProviderError(op, timeout, err)
}

// callWithRetry retries an idempotent provider read with bounded
// exponential backoff
func (e *Executor) callWithRetry(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), e.cfg.ReadRetryMax), ctx)
	return backoff.Retry(func() error {
		return e.call(ctx, op, fn)
	}, policy)
}

// progress records an intermediate message on a running task
func (e *Executor) progress(task *models.Task, message string) {
	if err := e.tasks.UpdateStatus(task.ID, models.TaskStatusRunning, message); err != nil {
		e.log.WithError(err).WithField("task_id", task.ID).Warn("Failed to record task progress")
		return
	}
	e.publish(task, models.TaskStatusRunning, message)
}

// finalize moves a task to a terminal state; terminal tasks are immutable
func (e *Executor) finalize(task *models.Task, status models.TaskStatus, message string) {
	if err := e.tasks.UpdateStatus(task.ID, status, message); err != nil {
		e.log.WithError(err).WithField("task_id", task.ID).Error("Failed to finalize task")
		return
	}
	e.publish(task, status, message)
}

func (e *Executor) publish(task *models.Task, status models.TaskStatus, message string) {
	if e.events == nil {
		return
	}
	e.events.PublishTaskEvent(TaskEvent{
		TaskID:      task.ID,
		Kind:        task.Kind,
		ClusterID:   task.ClusterID,
		ClusterName: task.ClusterName,
		Status:      status,
		Message:     message,
		Time:        time.Now().UTC(),
	})
}

// nodeName derives a role-prefixed node name, masters as mstr-XXXX and
// workers as node-XXXX
func nodeName(role models.NodeRole) string {
	prefix := "node"
	if role == models.NodeRoleMaster {
		prefix = "mstr"
	}
	return fmt.Sprintf("%s-%s", prefix, uuid.New().String()[:8])
}

package orchestrator

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Anirudh9794/container-service-extension/internal/errors"
	"github.com/Anirudh9794/container-service-extension/internal/logger"
	"github.com/Anirudh9794/container-service-extension/internal/models"
)

// noopDispatcher accepts workflows without running them, leaving their
// tasks in the running state
type noopDispatcher struct{}

func (noopDispatcher) Submit(fn func(ctx context.Context)) error { return nil }

// failingDispatcher rejects every submission
type failingDispatcher struct{}

func (failingDispatcher) Submit(fn func(ctx context.Context)) error {
	return fmt.Errorf("queue is full")
}

func newAdmissionFixture(t *testing.T, d Dispatcher) *fixture {
	t.Helper()
	f := newFixture(t)
	f.coordinator = NewCoordinator(f.clusters, f.tasks, f.executor, d, logger.NewNop())
	return f
}

func TestCreateClusterValidation(t *testing.T) {
	f := newFixture(t)

	cases := []struct {
		name   string
		mutate func(cfg *ClusterConfig)
	}{
		{"name too short", func(cfg *ClusterConfig) { cfg.Name = "ab" }},
		{"name too long", func(cfg *ClusterConfig) { cfg.Name = strings.Repeat("a", 64) }},
		{"name starts with digit", func(cfg *ClusterConfig) { cfg.Name = "1abc" }},
		{"name ends with hyphen", func(cfg *ClusterConfig) { cfg.Name = "abc-" }},
		{"name has underscore", func(cfg *ClusterConfig) { cfg.Name = "ab_c" }},
		{"name has empty label", func(cfg *ClusterConfig) { cfg.Name = "abc..def" }},
		{"zero node count", func(cfg *ClusterConfig) { cfg.NodeCount = 0 }},
		{"negative node count", func(cfg *ClusterConfig) { cfg.NodeCount = -2 }},
		{"missing vdc", func(cfg *ClusterConfig) { cfg.VDC = "" }},
		{"missing network", func(cfg *ClusterConfig) { cfg.Network = "" }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig("demo-1")
			tc.mutate(&cfg)

			_, err := f.coordinator.CreateCluster(context.Background(), cfg)
			require.Error(t, err)
			assert.True(t, errors.Is(err, errors.ErrInvalidInput))
		})
	}

	// rejected requests leave no durable trace
	clusters, err := f.clusters.List()
	require.NoError(t, err)
	assert.Empty(t, clusters)
	ids, err := f.tasks.ListIDs()
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestCreateClusterAcceptsMultiLabelNames(t *testing.T) {
	f := newFixture(t)

	accepted, err := f.coordinator.CreateCluster(context.Background(), validConfig("dev.team-a.k8s"))
	require.NoError(t, err)
	assert.Equal(t, "dev.team-a.k8s", accepted.Name)
	assert.NotEmpty(t, accepted.ClusterID)
	assert.NotEmpty(t, accepted.TaskID)
}

func TestCreateClusterConflictsWithExistingName(t *testing.T) {
	f := newFixture(t)

	_, err := f.coordinator.CreateCluster(context.Background(), validConfig("demo-1"))
	require.NoError(t, err)

	_, err = f.coordinator.CreateCluster(context.Background(), validConfig("demo-1"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrConflict))
}

func TestCreateClusterConflictsWithActiveTask(t *testing.T) {
	f := newAdmissionFixture(t, noopDispatcher{})

	accepted, err := f.coordinator.CreateCluster(context.Background(), validConfig("demo-1"))
	require.NoError(t, err)

	// the first workflow never ran, so its task is still in progress
	_, err = f.coordinator.CreateCluster(context.Background(), validConfig("demo-1"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrConflict))
	assert.Contains(t, err.Error(), "in progress")

	_, err = f.coordinator.DeleteCluster(context.Background(), accepted.ClusterID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrConflict))
}

func TestCreateClusterConcurrentSameName(t *testing.T) {
	f := newAdmissionFixture(t, noopDispatcher{})

	const attempts = 8
	var wg sync.WaitGroup
	results := make(chan error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.coordinator.CreateCluster(context.Background(), validConfig("demo-1"))
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var succeeded, conflicted int
	for err := range results {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, errors.ErrConflict):
			conflicted++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, attempts-1, conflicted)

	clusters, err := f.clusters.List()
	require.NoError(t, err)
	assert.Len(t, clusters, 1)
}

func TestDeleteClusterNotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.coordinator.DeleteCluster(context.Background(), "no-such-id")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrNotFound))
}

func TestCreateClusterDispatchFailureFinalizesTask(t *testing.T) {
	f := newAdmissionFixture(t, failingDispatcher{})

	_, err := f.coordinator.CreateCluster(context.Background(), validConfig("demo-1"))
	require.Error(t, err)

	// the admitted task must not be left running forever
	ids, err := f.tasks.ListIDs()
	require.NoError(t, err)
	require.Len(t, ids, 1)

	task, err := f.tasks.Get(ids[0])
	require.NoError(t, err)
	assert.Equal(t, models.TaskStatusError, task.Status)
	assert.Contains(t, task.Message, "could not dispatch")
}

func TestCreateClusterHonorsPreassignedID(t *testing.T) {
	f := newFixture(t)

	cfg := validConfig("demo-1")
	cfg.ClusterID = "fixed-id-1"
	accepted, err := f.coordinator.CreateCluster(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, "fixed-id-1", accepted.ClusterID)

	cluster, err := f.clusters.GetByID("fixed-id-1")
	require.NoError(t, err)
	assert.Equal(t, "demo-1", cluster.Name)
}

func TestListClustersAndTaskIDs(t *testing.T) {
	f := newFixture(t)

	_, err := f.coordinator.CreateCluster(context.Background(), validConfig("demo-1"))
	require.NoError(t, err)
	_, err = f.coordinator.CreateCluster(context.Background(), validConfig("demo-2"))
	require.NoError(t, err)

	clusters, err := f.coordinator.ListClusters(context.Background())
	require.NoError(t, err)
	require.Len(t, clusters, 2)
	assert.Equal(t, "demo-1", clusters[0].Name)
	assert.Equal(t, "demo-2", clusters[1].Name)

	ids, err := f.coordinator.ListTaskIDs(context.Background())
	require.NoError(t, err)
	assert.Len(t, ids, 2)
}

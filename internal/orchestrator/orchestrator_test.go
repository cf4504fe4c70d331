package orchestrator

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Anirudh9794/container-service-extension/internal/logger"
	"github.com/Anirudh9794/container-service-extension/internal/provider"
	"github.com/Anirudh9794/container-service-extension/internal/storage"
	"github.com/Anirudh9794/container-service-extension/internal/store"
)

// syncDispatcher runs workflows inline so tests observe final state without
// polling
type syncDispatcher struct{}

func (syncDispatcher) Submit(fn func(ctx context.Context)) error {
	fn(context.Background())
	return nil
}

// eventRecorder captures published task events
type eventRecorder struct {
	mu     sync.Mutex
	events []TaskEvent
}

func (r *eventRecorder) PublishTaskEvent(event TaskEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *eventRecorder) all() []TaskEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]TaskEvent(nil), r.events...)
}

type fixture struct {
	clusters    *store.ClusterRegistry
	tasks       *store.TaskStore
	provider    *provider.MockProvider
	executor    *Executor
	coordinator *Coordinator
	events      *eventRecorder
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	cfg := &storage.Config{
		Path:         filepath.Join(t.TempDir(), "test.db"),
		MaxOpenConns: 1,
		MaxIdleConns: 1,
		LogLevel:     "silent",
	}
	db, err := storage.New(cfg, logger.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	log := logger.NewNop()
	clusters := store.NewClusterRegistry(db, log)
	tasks := store.NewTaskStore(db, log)
	mock := provider.NewMockProvider()
	events := &eventRecorder{}

	executor := NewExecutor(clusters, tasks, mock, events, ExecutorConfig{
		CallTimeout:       5 * time.Second,
		ReadRetryMax:      0,
		RollbackOnFailure: true,
	}, log)
	coordinator := NewCoordinator(clusters, tasks, executor, syncDispatcher{}, log)

	return &fixture{
		clusters:    clusters,
		tasks:       tasks,
		provider:    mock,
		executor:    executor,
		coordinator: coordinator,
		events:      events,
	}
}

func validConfig(name string) ClusterConfig {
	return ClusterConfig{
		Name:      name,
		NodeCount: 3,
		VDC:       "vdc1",
		Network:   "net1",
	}
}

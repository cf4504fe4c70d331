package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Anirudh9794/container-service-extension/internal/logger"
	"github.com/Anirudh9794/container-service-extension/internal/storage"
)

// newTestDB opens a migrated sqlite database in a temp directory
func newTestDB(t *testing.T) *storage.Database {
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
	return db
}

func newTestStores(t *testing.T) (*ClusterRegistry, *TaskStore) {
	t.Helper()
	db := newTestDB(t)
	log := logger.NewNop()
	return NewClusterRegistry(db, log), NewTaskStore(db, log)
}

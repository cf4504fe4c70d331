// Package store holds the data-access layer: the task store and the cluster
// registry. No provisioning semantics live here; both types expose plain
// create/read/update contracts with the concurrency guarantees the
// orchestrator relies on (conditional inserts, atomic status updates).
package store

import (
	"gorm.io/gorm"

	"github.com/Anirudh9794/container-service-extension/internal/errors"
	"github.com/Anirudh9794/container-service-extension/internal/logger"
	"github.com/Anirudh9794/container-service-extension/internal/models"
	"github.com/Anirudh9794/container-service-extension/internal/storage"
)

// TaskStore is the durable record of every asynchronous operation
type TaskStore struct {
	store *storage.Database
	log   logger.Interface
}

// NewTaskStore creates a new TaskStore
func NewTaskStore(store *storage.Database, log logger.Interface) *TaskStore {
	return &TaskStore{
		store: store,
		log:   log.WithField("component", "task-store"),
	}
}

// Create persists a new task
func (s *TaskStore) Create(task *models.Task) error {
	if err := s.store.DB().Create(task).Error; err != nil {
		return errors.Wrapf(err, "failed to create task")
	}
	return nil
}

// Get returns a task by ID
func (s *TaskStore) Get(id string) (*models.Task, error) {
	var task models.Task
	err := s.store.DB().First(&task, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.Wrapf(errors.ErrNotFound, "task %s", id)
		}
		return nil, err
	}
	return &task, nil
}

// List returns all known tasks
func (s *TaskStore) List() ([]models.Task, error) {
	var tasks []models.Task
	if err := s.store.DB().Order("created_at").Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

// ListIDs returns the identifiers of all known tasks
func (s *TaskStore) ListIDs() ([]string, error) {
	ids := make([]string, 0)
	err := s.store.DB().Model(&models.Task{}).Order("created_at").Pluck("id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// ActiveForCluster returns the non-terminal task targeting the given cluster
// name, or nil when none exists. At most one such task can exist at any time.
func (s *TaskStore) ActiveForCluster(clusterName string) (*models.Task, error) {
	var task models.Task
	err := s.store.DB().
		Where("cluster_name = ? AND status = ?", clusterName, models.TaskStatusRunning).
		First(&task).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &task, nil
}

// UpdateStatus atomically moves a running task to the given status and
// message, touching no other fields. Terminal tasks are immutable: updating
// a task that already reached success or error fails with ErrConflict.
func (s *TaskStore) UpdateStatus(id string, status models.TaskStatus, message string) error {
	result := s.store.DB().
		Model(&models.Task{}).
		Where("id = ? AND status = ?", id, models.TaskStatusRunning).
		Updates(map[string]interface{}{"status": status, "message": message})
	if result.Error != nil {
		return errors.Wrapf(result.Error, "failed to update task %s", id)
	}
	if result.RowsAffected == 0 {
		if _, err := s.Get(id); err != nil {
			return err
		}
		return errors.Wrapf(errors.ErrConflict, "task %s is already terminal", id)
	}
	return nil
}

package store

import (
	"gorm.io/gorm"

	"github.com/Anirudh9794/container-service-extension/internal/errors"
	"github.com/Anirudh9794/container-service-extension/internal/logger"
	"github.com/Anirudh9794/container-service-extension/internal/models"
	"github.com/Anirudh9794/container-service-extension/internal/storage"
)

// ClusterRegistry is the durable record of cluster and node entities
type ClusterRegistry struct {
	store *storage.Database
	log   logger.Interface
}

// NewClusterRegistry creates a new ClusterRegistry
func NewClusterRegistry(store *storage.Database, log logger.Interface) *ClusterRegistry {
	return &ClusterRegistry{
		store: store,
		log:   log.WithField("component", "cluster-registry"),
	}
}

// Create registers a new cluster. The insert is conditional on the name not
// being held by any live cluster; a unique-index violation surfaces as
// ErrConflict so the caller can report a name conflict without a separate
// read-then-write race.
func (r *ClusterRegistry) Create(cluster *models.Cluster) error {
	err := r.store.DB().Create(cluster).Error
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return errors.Wrapf(errors.ErrConflict, "cluster name %q is already in use", cluster.Name)
		}
		return errors.Wrapf(err, "failed to create cluster")
	}
	return nil
}

// GetByID returns a cluster and its nodes by cluster ID. A lookup matching
// more than one row (impossible under primary-key uniqueness, kept as a
// defensive check) fails with ErrMultipleMatches rather than guessing.
func (r *ClusterRegistry) GetByID(id string) (*models.Cluster, error) {
	var clusters []models.Cluster
	err := r.store.DB().Preload("Nodes").Where("id = ?", id).Find(&clusters).Error
	if err != nil {
		return nil, err
	}
	switch len(clusters) {
	case 0:
		return nil, errors.Wrapf(errors.ErrNotFound, "cluster %s", id)
	case 1:
		return &clusters[0], nil
	default:
		return nil, errors.Wrapf(errors.ErrMultipleMatches, "cluster id %s matches %d entities", id, len(clusters))
	}
}

// GetByName returns a cluster and its nodes by cluster name
func (r *ClusterRegistry) GetByName(name string) (*models.Cluster, error) {
	var cluster models.Cluster
	err := r.store.DB().Preload("Nodes").Where("name = ?", name).First(&cluster).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.Wrapf(errors.ErrNotFound, "cluster %q", name)
		}
		return nil, err
	}
	return &cluster, nil
}

// List returns a snapshot of all live clusters with their nodes
func (r *ClusterRegistry) List() ([]models.Cluster, error) {
	var clusters []models.Cluster
	err := r.store.DB().Preload("Nodes").Order("name").Find(&clusters).Error
	if err != nil {
		return nil, err
	}
	return clusters, nil
}

// UpdateStatus atomically updates a cluster's status field, last writer wins,
// with no partial overwrite of other fields
func (r *ClusterRegistry) UpdateStatus(id string, status models.ClusterStatus) error {
	result := r.store.DB().
		Model(&models.Cluster{}).
		Where("id = ?", id).
		Update("status", status)
	if result.Error != nil {
		return errors.Wrapf(result.Error, "failed to update cluster %s status", id)
	}
	if result.RowsAffected == 0 {
		return errors.Wrapf(errors.ErrNotFound, "cluster %s", id)
	}
	return nil
}

// SetLeaderEndpoint records the control-plane leader endpoint once bootstrap
// completes
func (r *ClusterRegistry) SetLeaderEndpoint(id, endpoint string) error {
	result := r.store.DB().
		Model(&models.Cluster{}).
		Where("id = ?", id).
		Update("leader_endpoint", endpoint)
	if result.Error != nil {
		return errors.Wrapf(result.Error, "failed to set cluster %s leader endpoint", id)
	}
	if result.RowsAffected == 0 {
		return errors.Wrapf(errors.ErrNotFound, "cluster %s", id)
	}
	return nil
}

// Delete tombstones a cluster entity. Node rows are removed individually by
// the executor as the provider deallocates them.
func (r *ClusterRegistry) Delete(id string) error {
	result := r.store.DB().Delete(&models.Cluster{}, "id = ?", id)
	if result.Error != nil {
		return errors.Wrapf(result.Error, "failed to delete cluster %s", id)
	}
	if result.RowsAffected == 0 {
		return errors.Wrapf(errors.ErrNotFound, "cluster %s", id)
	}
	return nil
}

// AddNode records a node as soon as its infrastructure allocation succeeds,
// so observers see incremental progress
func (r *ClusterRegistry) AddNode(node *models.Node) error {
	if err := r.store.DB().Create(node).Error; err != nil {
		return errors.Wrapf(err, "failed to record node %s", node.Name)
	}
	return nil
}

// RemoveNode deletes a node row after its infrastructure is deallocated or
// rolled back
func (r *ClusterRegistry) RemoveNode(nodeID string) error {
	result := r.store.DB().Delete(&models.Node{}, "id = ?", nodeID)
	if result.Error != nil {
		return errors.Wrapf(result.Error, "failed to remove node %s", nodeID)
	}
	return nil
}

// ListNodes returns all nodes belonging to a cluster
func (r *ClusterRegistry) ListNodes(clusterID string) ([]models.Node, error) {
	var nodes []models.Node
	err := r.store.DB().Where("cluster_id = ?", clusterID).Order("created_at").Find(&nodes).Error
	if err != nil {
		return nil, err
	}
	return nodes, nil
}

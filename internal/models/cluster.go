package models

import (
	"time"

	"gorm.io/gorm"
)

// Cluster represents a container-orchestration cluster managed by the service
type Cluster struct {
	ID        string         `json:"cluster_id" gorm:"primarykey"`
	Name      string         `json:"name" gorm:"uniqueIndex;not null"`
	Status    ClusterStatus  `json:"status" gorm:"default:'inactive'"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`

	// Provisioning parameters
	VDC       string `json:"vdc"`
	Network   string `json:"network"`
	NodeCount int    `json:"node_count"`

	// Endpoint of the control-plane leader, set once bootstrap completes
	LeaderEndpoint string `json:"leader_endpoint"`

	// Relationships
	Nodes []Node `json:"nodes,omitempty" gorm:"foreignKey:ClusterID"`
}

// ClusterStatus defines the possible states of a cluster
type ClusterStatus string

const (
	// ClusterStatusInactive marks a cluster that is registered but not yet
	// fully provisioned
	ClusterStatusInactive ClusterStatus = "inactive"
	// ClusterStatusActive marks a fully provisioned, bootstrapped cluster
	ClusterStatusActive ClusterStatus = "active"
	// ClusterStatusError marks a cluster whose provisioning or deletion
	// failed and is left for operator remediation
	ClusterStatusError ClusterStatus = "error"
)

// IsActive returns true if the cluster is in an active state
func (c *Cluster) IsActive() bool {
	return c.Status == ClusterStatusActive
}

// MasterNodes returns the cluster's nodes with the master role
func (c *Cluster) MasterNodes() []Node {
	return c.nodesByRole(NodeRoleMaster)
}

// WorkerNodes returns the cluster's nodes with the worker role
func (c *Cluster) WorkerNodes() []Node {
	return c.nodesByRole(NodeRoleWorker)
}

func (c *Cluster) nodesByRole(role NodeRole) []Node {
	nodes := make([]Node, 0, len(c.Nodes))
	for _, n := range c.Nodes {
		if n.Role == role {
			nodes = append(nodes, n)
		}
	}
	return nodes
}

// TableName returns the table name for the Cluster model
func (Cluster) TableName() string {
	return "clusters"
}

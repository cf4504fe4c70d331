package models

import (
	"time"
)

// Node represents a single provisioned compute unit belonging to exactly
// one Cluster
type Node struct {
	ID        string    `json:"node_id" gorm:"primarykey"`
	Name      string    `json:"name" gorm:"not null"`
	Role      NodeRole  `json:"node_type" gorm:"default:'worker'"`
	Href      string    `json:"href"`
	IPAddress string    `json:"ip"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Back-references to the owning cluster
	ClusterID   string `json:"cluster_id" gorm:"index;not null"`
	ClusterName string `json:"cluster_name"`

	// Relationships
	Cluster *Cluster `json:"-" gorm:"foreignKey:ClusterID"`
}

// NodeRole defines the role of a node in the cluster
type NodeRole string

const (
	NodeRoleMaster NodeRole = "master"
	NodeRoleWorker NodeRole = "worker"
)

// IsMaster returns true if the node is a control-plane node
func (n *Node) IsMaster() bool {
	return n.Role == NodeRoleMaster
}

// TableName returns the table name for the Node model
func (Node) TableName() string {
	return "nodes"
}

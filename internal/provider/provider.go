// Package provider defines the boundary to the underlying virtualized
// infrastructure platform. The orchestration engine only sequences calls
// through this interface and tracks outcomes; node placement, VM creation,
// network wiring, and IP assignment are the platform's concern.
package provider

import (
	"context"
	"errors"

	"github.com/Anirudh9794/container-service-extension/internal/models"
)

// ErrNodeNotFound is returned by DeleteNode when the referenced node no
// longer exists on the platform. Callers treat it as "already gone" so
// deletes stay safely retriable.
var ErrNodeNotFound = errors.New("node not found on provider")

// NodeSpec describes one node allocation request
type NodeSpec struct {
	Name        string
	Role        models.NodeRole
	VDC         string
	Network     string
	ClusterID   string
	ClusterName string
}

// NodeInfo describes one allocated node as reported by the platform
type NodeInfo struct {
	// Ref is the provider's opaque handle for the node, used for deletion
	Ref  string
	Name string
	IP   string
	Href string
}

// Provider wraps the virtualization platform's node-allocation API. All
// calls are network-bound and must honor context cancellation; the executor
// wraps each call with a bounded timeout.
type Provider interface {
	// ValidateResources checks that the named VDC and network exist and can
	// host new allocations. Idempotent read; safe to retry.
	ValidateResources(ctx context.Context, vdc, network string) error

	// CreateNode allocates one compute unit. Not retried on failure to avoid
	// leaking duplicate allocations.
	CreateNode(ctx context.Context, spec NodeSpec) (*NodeInfo, error)

	// DeleteNode deallocates a node by its provider ref. Returns
	// ErrNodeNotFound when the node is already gone.
	DeleteNode(ctx context.Context, ref string) error

	// InitControlPlane bootstraps the cluster control plane on the given
	// master node and returns the leader endpoint.
	InitControlPlane(ctx context.Context, master *NodeInfo) (string, error)

	// JoinNode joins an allocated worker to the control plane at endpoint.
	JoinNode(ctx context.Context, endpoint string, node *NodeInfo) error
}

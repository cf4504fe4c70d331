package provider

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Anirudh9794/container-service-extension/internal/models"
)

func TestMockProviderNodeLifecycle(t *testing.T) {
	p := NewMockProvider()
	ctx := context.Background()

	require.NoError(t, p.ValidateResources(ctx, "vdc1", "net1"))
	require.Error(t, p.ValidateResources(ctx, "", "net1"))

	info, err := p.CreateNode(ctx, NodeSpec{
		Name: "mstr-abc", Role: models.NodeRoleMaster,
		VDC: "vdc1", Network: "net1", ClusterID: "c-1", ClusterName: "demo-1",
	})
	require.NoError(t, err)
	assert.Equal(t, "mstr-abc", info.Name)
	assert.NotEmpty(t, info.Ref)
	assert.NotEmpty(t, info.IP)
	assert.Equal(t, 1, p.NodeCount())

	endpoint, err := p.InitControlPlane(ctx, info)
	require.NoError(t, err)
	assert.Contains(t, endpoint, info.IP)

	require.NoError(t, p.DeleteNode(ctx, info.Ref))
	assert.Equal(t, 0, p.NodeCount())

	// a second delete reports the node as already gone
	err = p.DeleteNode(ctx, info.Ref)
	assert.ErrorIs(t, err, ErrNodeNotFound)
}

func TestMockProviderFailureInjection(t *testing.T) {
	p := NewMockProvider()
	ctx := context.Background()

	p.FailWith("create", assert.AnError)
	_, err := p.CreateNode(ctx, NodeSpec{Name: "node-abc"})
	assert.ErrorIs(t, err, assert.AnError)

	p.FailWith("create", nil)
	p.FailCreateAfter = 1
	_, err = p.CreateNode(ctx, NodeSpec{Name: "node-abc"})
	require.NoError(t, err)
	_, err = p.CreateNode(ctx, NodeSpec{Name: "node-def"})
	require.Error(t, err)
}

func TestMockProviderHonorsContext(t *testing.T) {
	p := NewMockProvider()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.CreateNode(ctx, NodeSpec{Name: "node-abc"})
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, p.ValidateResources(ctx, "vdc1", "net1"), context.Canceled)
}

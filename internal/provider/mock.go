package provider

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// MockProvider is an in-memory Provider used in mock mode and by tests.
// Failures and latency can be injected per operation.
type MockProvider struct {
	mu    sync.Mutex
	nodes map[string]*NodeInfo

	// failure injection, keyed by operation name:
	// "validate", "create", "delete", "init", "join"
	failures map[string]error

	// FailCreateAfter fails CreateNode once the given number of nodes has
	// been allocated. Negative means never.
	FailCreateAfter int

	created int
}

// NewMockProvider creates a mock provider with no injected failures
func NewMockProvider() *MockProvider {
	return &MockProvider{
		nodes:           make(map[string]*NodeInfo),
		failures:        make(map[string]error),
		FailCreateAfter: -1,
	}
}

// FailWith injects an error for the given operation
func (p *MockProvider) FailWith(op string, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failures[op] = err
}

// NodeCount returns the number of nodes currently allocated
func (p *MockProvider) NodeCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.nodes)
}

// ValidateResources implements Provider
func (p *MockProvider) ValidateResources(ctx context.Context, vdc, network string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.failures["validate"]; err != nil {
		return err
	}
	if vdc == "" || network == "" {
		return fmt.Errorf("unknown vdc %q or network %q", vdc, network)
	}
	return nil
}

// CreateNode implements Provider
func (p *MockProvider) CreateNode(ctx context.Context, spec NodeSpec) (*NodeInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.failures["create"]; err != nil {
		return nil, err
	}
	if p.FailCreateAfter >= 0 && p.created >= p.FailCreateAfter {
		return nil, fmt.Errorf("allocation limit reached in %s", spec.VDC)
	}

	ref := uuid.New().String()
	info := &NodeInfo{
		Ref:  ref,
		Name: spec.Name,
		IP:   fmt.Sprintf("10.150.0.%d", p.created+10),
		Href: fmt.Sprintf("https://provider.local/api/vApp/vm-%s", ref),
	}
	p.nodes[ref] = info
	p.created++
	return info, nil
}

// DeleteNode implements Provider
func (p *MockProvider) DeleteNode(ctx context.Context, ref string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.failures["delete"]; err != nil {
		return err
	}
	if _, ok := p.nodes[ref]; !ok {
		return ErrNodeNotFound
	}
	delete(p.nodes, ref)
	return nil
}

// InitControlPlane implements Provider
func (p *MockProvider) InitControlPlane(ctx context.Context, master *NodeInfo) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.failures["init"]; err != nil {
		return "", err
	}
	return fmt.Sprintf("https://%s:6443", master.IP), nil
}

// JoinNode implements Provider
func (p *MockProvider) JoinNode(ctx context.Context, endpoint string, node *NodeInfo) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.failures["join"]; err != nil {
		return err
	}
	if endpoint == "" {
		return fmt.Errorf("no control plane endpoint for node %s", node.Name)
	}
	return nil
}

package provider

import (
	"fmt"
)

// Config selects and configures the provider backend
type Config struct {
	// Type of provider backend. Only "mock" ships with this module; real
	// platform adapters register here.
	Type string `yaml:"type"`

	// CallTimeout bounds every provider call made by the executor
	CallTimeout string `yaml:"call_timeout"`
}

// DefaultConfig returns default provider configuration
func DefaultConfig() Config {
	return Config{
		Type:        "mock",
		CallTimeout: "2m",
	}
}

// New creates a Provider for the configured backend type
func New(cfg Config) (Provider, error) {
	switch cfg.Type {
	case "mock", "":
		return NewMockProvider(), nil
	default:
		return nil, fmt.Errorf("unknown provider type %q", cfg.Type)
	}
}

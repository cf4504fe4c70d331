package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/Anirudh9794/container-service-extension/internal/logger"
	"github.com/Anirudh9794/container-service-extension/internal/provider"
	"github.com/Anirudh9794/container-service-extension/internal/storage"
)

// Config holds the entire application configuration
type Config struct {
	// Application settings
	App AppConfig `yaml:"app"`

	// Database configuration
	Database storage.Config `yaml:"database"`

	// API server configuration
	API APIConfig `yaml:"api"`

	// Logging configuration
	Log logger.Config `yaml:"log"`

	// Infrastructure provider configuration
	Provider provider.Config `yaml:"provider"`

	// Orchestrator configuration
	Orchestrator OrchestratorConfig `yaml:"orchestrator"`
}

// AppConfig contains general application settings
type AppConfig struct {
	Name        string `yaml:"name"`
	Environment string `yaml:"environment"`
	DataDir     string `yaml:"data_dir"`
}

// APIConfig contains REST API server settings
type APIConfig struct {
	Host             string `yaml:"host"`
	Port             int    `yaml:"port"`
	ReadTimeout      string `yaml:"read_timeout"`
	WriteTimeout     string `yaml:"write_timeout"`
	TLSCertFile      string `yaml:"tls_cert_file"`
	TLSKeyFile       string `yaml:"tls_key_file"`
	AuthEnabled      bool   `yaml:"auth_enabled"`
	RateLimitEnabled bool   `yaml:"rate_limit_enabled"`
	Debug            bool   `yaml:"debug"`
}

// GetAddress returns the listen address of the API server
func (c *APIConfig) GetAddress() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// IsTLSEnabled returns true when both certificate and key are configured
func (c *APIConfig) IsTLSEnabled() bool {
	return c.TLSCertFile != "" && c.TLSKeyFile != ""
}

// OrchestratorConfig contains worker pool and executor settings
type OrchestratorConfig struct {
	Workers           int    `yaml:"workers"`
	QueueDepth        int    `yaml:"queue_depth"`
	ReadRetryMax      uint64 `yaml:"read_retry_max"`
	RollbackOnFailure bool   `yaml:"rollback_on_failure"`
}

// Load loads configuration from a YAML file with defaults and environment
// overrides
func Load(configPath string) (*Config, error) {
	config := getDefaults()

	var configFile string
	if configPath != "" {
		configFile = configPath
	} else {
		searchPaths := []string{
			"./cse.yaml",
			"./config/cse.yaml",
			"/etc/cse/cse.yaml",
			filepath.Join(os.Getenv("HOME"), ".cse", "cse.yaml"),
		}

		for _, path := range searchPaths {
			if _, err := os.Stat(path); err == nil {
				configFile = path
				break
			}
		}
	}

	if configFile != "" {
		data, err := os.ReadFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
		}

		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", configFile, err)
		}
	}

	applyEnvOverrides(&config)

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

// validate validates the configuration and sets derived values
func (c *Config) validate() error {
	if c.App.DataDir != "" {
		if err := os.MkdirAll(c.App.DataDir, 0o755); err != nil {
			return fmt.Errorf("failed to create data directory: %w", err)
		}

		if !filepath.IsAbs(c.Database.Path) {
			c.Database.Path = filepath.Join(c.App.DataDir, c.Database.Path)
		}
	}

	if _, err := logrus.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("invalid log level '%s': %w", c.Log.Level, err)
	}

	if c.API.Port < 1 || c.API.Port > 65535 {
		return fmt.Errorf("invalid API port: %d", c.API.Port)
	}

	if c.Provider.CallTimeout != "" {
		if _, err := time.ParseDuration(c.Provider.CallTimeout); err != nil {
			return fmt.Errorf("invalid provider call_timeout '%s': %w", c.Provider.CallTimeout, err)
		}
	}

	if c.Orchestrator.Workers < 1 {
		return fmt.Errorf("orchestrator workers must be at least 1, got %d", c.Orchestrator.Workers)
	}

	return nil
}

// CallTimeout returns the parsed provider call timeout
func (c *Config) CallTimeout() time.Duration {
	d, err := time.ParseDuration(c.Provider.CallTimeout)
	if err != nil || d <= 0 {
		return 2 * time.Minute
	}
	return d
}

// applyEnvOverrides overrides selected settings from the environment
func applyEnvOverrides(config *Config) {
	if v := os.Getenv("CSE_API_HOST"); v != "" {
		config.API.Host = v
	}
	if v := os.Getenv("CSE_API_PORT"); v != "" {
		fmt.Sscanf(v, "%d", &config.API.Port)
	}
	if v := os.Getenv("CSE_DATABASE_PATH"); v != "" {
		config.Database.Path = v
	}
	if v := os.Getenv("CSE_LOG_LEVEL"); v != "" {
		config.Log.Level = v
	}
	if v := os.Getenv("CSE_LOG_FORMAT"); v != "" {
		config.Log.Format = v
	}
	if v := os.Getenv("CSE_PROVIDER_TYPE"); v != "" {
		config.Provider.Type = v
	}
}

// getDefaults returns a Config struct with default values
func getDefaults() Config {
	database := *storage.DefaultConfig()
	// relative to App.DataDir, joined during validation
	database.Path = "cse.db"

	return Config{
		App: AppConfig{
			Name:        "cse-server",
			Environment: "development",
			DataDir:     "./data",
		},
		Database: database,
		API: APIConfig{
			Host:             "0.0.0.0",
			Port:             8080,
			ReadTimeout:      "30s",
			WriteTimeout:     "30s",
			AuthEnabled:      true,
			RateLimitEnabled: false,
		},
		Log: logger.Config{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
		Provider: provider.DefaultConfig(),
		Orchestrator: OrchestratorConfig{
			Workers:           4,
			QueueDepth:        64,
			ReadRetryMax:      3,
			RollbackOnFailure: true,
		},
	}
}

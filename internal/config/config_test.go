package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cse.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfigFile(t, `
app:
  data_dir: `+t.TempDir()+`
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "cse-server", cfg.App.Name)
	assert.Equal(t, 8080, cfg.API.Port)
	assert.Equal(t, "0.0.0.0:8080", cfg.API.GetAddress())
	assert.True(t, cfg.API.AuthEnabled)
	assert.False(t, cfg.API.IsTLSEnabled())
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "mock", cfg.Provider.Type)
	assert.Equal(t, 4, cfg.Orchestrator.Workers)
	assert.True(t, cfg.Orchestrator.RollbackOnFailure)
	assert.Equal(t, 2*time.Minute, cfg.CallTimeout())
}

func TestLoadJoinsDatabasePathUnderDataDir(t *testing.T) {
	dataDir := t.TempDir()
	path := writeConfigFile(t, `
app:
  data_dir: `+dataDir+`
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dataDir, "cse.db"), cfg.Database.Path)
}

func TestLoadKeepsAbsoluteDatabasePath(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "elsewhere.db")
	path := writeConfigFile(t, `
app:
  data_dir: `+t.TempDir()+`
database:
  path: `+dbPath+`
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, dbPath, cfg.Database.Path)
}

func TestLoadFileOverrides(t *testing.T) {
	path := writeConfigFile(t, `
app:
  data_dir: `+t.TempDir()+`
api:
  host: 127.0.0.1
  port: 9443
log:
  level: debug
provider:
  call_timeout: 45s
orchestrator:
  workers: 2
  queue_depth: 8
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:9443", cfg.API.GetAddress())
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 45*time.Second, cfg.CallTimeout())
	assert.Equal(t, 2, cfg.Orchestrator.Workers)
	assert.Equal(t, 8, cfg.Orchestrator.QueueDepth)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("CSE_API_PORT", "9000")
	t.Setenv("CSE_LOG_LEVEL", "warn")
	t.Setenv("CSE_PROVIDER_TYPE", "mock")

	path := writeConfigFile(t, `
app:
  data_dir: `+t.TempDir()+`
api:
  port: 8081
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	// env wins over file
	assert.Equal(t, 9000, cfg.API.Port)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "mock", cfg.Provider.Type)
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	cases := []struct {
		name string
		yaml string
	}{
		{"bad log level", "log:\n  level: noisy\n"},
		{"bad port", "api:\n  port: 70000\n"},
		{"bad call timeout", "provider:\n  call_timeout: soon\n"},
		{"zero workers", "orchestrator:\n  workers: 0\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := writeConfigFile(t, "app:\n  data_dir: "+t.TempDir()+"\n"+tc.yaml)
			_, err := Load(path)
			require.Error(t, err)
		})
	}
}

func TestLoadMissingFileFails(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestIsTLSEnabled(t *testing.T) {
	cfg := APIConfig{}
	assert.False(t, cfg.IsTLSEnabled())
	cfg.TLSCertFile = "cert.pem"
	assert.False(t, cfg.IsTLSEnabled())
	cfg.TLSKeyFile = "key.pem"
	assert.True(t, cfg.IsTLSEnabled())
}

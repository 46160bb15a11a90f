package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "memory", cfg.Store.Driver)
	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, 30*time.Second, cfg.Optimizer.SolverTimeout)
	assert.Equal(t, 180, cfg.Planning.SearchCeilingDays)
	assert.InDelta(t, 0.4, cfg.Planning.InventoryWeight, 0.001)
}

func TestLoad_YAMLOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
http:
  addr: ":9090"
planning:
  inventory_weight: 0.5
  production_weight: 0.3
  risk_weight: 0.2
optimizer:
  solver_timeout: 10s
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.HTTP.Addr)
	assert.InDelta(t, 0.5, cfg.Planning.InventoryWeight, 0.001)
	assert.Equal(t, 10*time.Second, cfg.Optimizer.SolverTimeout)
	assert.Equal(t, "memory", cfg.Store.Driver, "unset keys keep their defaults")
}

func TestLoad_EnvOverridesYAML(t *testing.T) {
	t.Setenv("PLANWISE_HTTP_ADDR", ":7070")
	t.Setenv("PLANWISE_RISK_FEED_CACHE_TTL", "2m")
	t.Setenv("PLANWISE_PLANNING_COMMIT_RETRIES", "7")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ":7070", cfg.HTTP.Addr)
	assert.Equal(t, 2*time.Minute, cfg.RiskFeed.CacheTTL)
	assert.Equal(t, 7, cfg.Planning.CommitRetries)
}

func TestLoad_Validation(t *testing.T) {
	testCases := []struct {
		name string
		yaml string
	}{
		{"bad driver", "store:\n  driver: cassandra\n"},
		{"postgres without dsn", "store:\n  driver: postgres\n"},
		{"weights off", "planning:\n  inventory_weight: 0.9\n  production_weight: 0.9\n  risk_weight: 0.2\n"},
		{"zero ceiling", "planning:\n  search_ceiling_days: -1\n"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tc.yaml), 0o644))
			_, err := Load(path)
			assert.Error(t, err)
		})
	}
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadFromFile_AppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
backend:
  base_url: http://backend.local
database:
  redis:
    address: localhost:6379
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "pool-wizard", cfg.App.Name)
	assert.Equal(t, ":8080", cfg.Server.Address)
	assert.Equal(t, 15000, cfg.Backend.Timeout)
	assert.Equal(t, "California", cfg.Wizard.DefaultState)
	assert.Equal(t, "wizard:session:", cfg.Session.KeyPrefix)
	assert.Equal(t, 30*time.Minute, GetDuration(cfg.Session.TTL))
	assert.Equal(t, "pool-underwriting", cfg.Camunda.UnderwritingProcessID)
	assert.False(t, cfg.Database.Postgres.Enabled())
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "none", cfg.Tracing.Exporter)
}

func TestLoadFromFile_ExpandsEnvPlaceholders(t *testing.T) {
	t.Setenv("POOL_BACKEND", "https://api.example.com")
	path := writeConfig(t, `
backend:
  base_url: ${POOL_BACKEND}
database:
  redis:
    address: localhost:6379
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "https://api.example.com", cfg.Backend.BaseURL)
}

func TestLoadFromFile_UnsetPlaceholderDisablesLedger(t *testing.T) {
	t.Setenv("POOL_LEDGER_HOST", "")
	path := writeConfig(t, `
backend:
  base_url: http://backend.local
database:
  redis:
    address: localhost:6379
  postgres:
    host: ${POOL_LEDGER_HOST}
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Empty(t, cfg.Database.Postgres.Host)
	assert.False(t, cfg.Database.Postgres.Enabled())
}

func TestLoadFromFile_Validation(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		errMsg string
	}{
		{
			name: "missing backend",
			body: `
database:
  redis:
    address: localhost:6379
`,
			errMsg: "backend.base_url is required",
		},
		{
			name: "missing redis",
			body: `
backend:
  base_url: http://backend.local
`,
			errMsg: "database.redis.address is required",
		},
		{
			name: "postgres without database name",
			body: `
backend:
  base_url: http://backend.local
database:
  redis:
    address: localhost:6379
  postgres:
    host: db.local
    user: wizard
`,
			errMsg: "database.postgres.database is required",
		},
		{
			name: "camunda enabled without broker",
			body: `
backend:
  base_url: http://backend.local
database:
  redis:
    address: localhost:6379
camunda:
  enabled: true
`,
			errMsg: "camunda.broker_address is required",
		},
		{
			name: "email enabled without sender",
			body: `
backend:
  base_url: http://backend.local
database:
  redis:
    address: localhost:6379
notifications:
  email:
    enabled: true
`,
			errMsg: "notifications.email.from_email is required",
		},
		{
			name: "otlp exporter without endpoint",
			body: `
backend:
  base_url: http://backend.local
database:
  redis:
    address: localhost:6379
tracing:
  exporter: otlp
`,
			errMsg: "tracing.endpoint is required",
		},
		{
			name: "unknown trace exporter",
			body: `
backend:
  base_url: http://backend.local
database:
  redis:
    address: localhost:6379
tracing:
  exporter: zipkin
`,
			errMsg: "tracing.exporter must be none, stdout or otlp",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("BACKEND_BASE_URL", "")
			t.Setenv("REDIS_ADDRESS", "")
			_, err := LoadFromFile(writeConfig(t, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestGetWorkerConfig_Fallback(t *testing.T) {
	cfg := &Config{Workers: map[string]WorkerConfig{
		"validate-pool-submission": {Enabled: false, MaxJobsActive: 2, Timeout: 1000, MaxRetries: 1},
	}}

	assert.False(t, IsWorkerEnabled(cfg, "validate-pool-submission"))
	assert.True(t, IsWorkerEnabled(cfg, "unknown"))
	assert.Equal(t, 2, GetWorkerConfig(cfg, "validate-pool-submission").MaxJobsActive)
	assert.Equal(t, 5, GetWorkerConfig(cfg, "unknown").MaxJobsActive)
}

func TestPostgresConfig_GetDSN(t *testing.T) {
	p := PostgresConfig{Host: "db", Port: 5432, User: "u", Password: "p", Database: "pools", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=pools sslmode=disable", p.GetDSN())
}

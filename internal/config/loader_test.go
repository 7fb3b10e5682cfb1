package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maxviazov/crm-service/internal/config"
)

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}
	return path
}

func clearSecrets(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"APP_POSTGRES_USER", "APP_POSTGRES_PASSWORD", "APP_POSTGRES_DB",
		"POSTGRES_USER", "POSTGRES_PASSWORD", "POSTGRES_DB",
		"DB_USER", "DB_PASSWORD", "DB_NAME",
		"APP_AUTH_SECRET", "JWT_SECRET",
	} {
		t.Setenv(k, "")
	}
}

const baseYAML = `
app:
  name: crm-service
  version: 0.1.0
  env: test
  port: 18080

logger:
  level: info
  format: json
  output_target: stdout
  time_format: rfc3339
  with_caller: false
  stacktrace: false

postgres:
  host: 127.0.0.1
  port: 5432
  sslmode: disable
  max_conns: 5
  min_conns: 1
  max_conn_lifetime: 60
  max_conn_idle_time: 30
  health_check_period: 15

auth:
  issuer: test-issuer
  audience: test-audience

http:
  read_timeout: 3s
  rate_limit:
    rps: 5
    burst: 10
`

func TestConfigLoad_FromYAMLAndEnv(t *testing.T) {
	clearSecrets(t)
	path := writeTempConfig(t, baseYAML)

	t.Setenv("APP_POSTGRES_USER", "testuser")
	t.Setenv("APP_POSTGRES_PASSWORD", "testpass")
	t.Setenv("APP_POSTGRES_DB", "testdb")
	t.Setenv("APP_AUTH_SECRET", "0123456789abcdef-secret")

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, 18080, cfg.App.Port)
	assert.Equal(t, "testuser", cfg.Postgres.User)
	assert.Equal(t, "testpass", cfg.Postgres.Password)
	assert.Equal(t, "testdb", cfg.Postgres.DBName)
	assert.Equal(t, "127.0.0.1", cfg.Postgres.Host)
	assert.Equal(t, int32(5), cfg.Postgres.MaxConns)
	assert.Equal(t, "info", cfg.Logger.Level)
	assert.Equal(t, "stdout", cfg.Logger.OutputTarget)
	assert.Equal(t, "test-issuer", cfg.Auth.Issuer)
	assert.Equal(t, 3*time.Second, cfg.HTTP.ReadTimeout)
	assert.Equal(t, 10*time.Second, cfg.HTTP.ShutdownTimeout, "default applies")
	assert.Equal(t, 5.0, cfg.HTTP.RateLimit.RPS)
	assert.Equal(t, 12*time.Hour, cfg.Auth.TokenTTL)
}

func TestConfigLoad_LegacyEnvAliases(t *testing.T) {
	clearSecrets(t)
	path := writeTempConfig(t, baseYAML)

	t.Setenv("POSTGRES_USER", "legacy")
	t.Setenv("DB_PASSWORD", "pw")
	t.Setenv("DB_NAME", "crm")
	t.Setenv("JWT_SECRET", "0123456789abcdef-secret")

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "legacy", cfg.Postgres.User)
	assert.Equal(t, "crm", cfg.Postgres.DBName)
}

func TestConfigLoad_EnvOverridesYAML(t *testing.T) {
	clearSecrets(t)
	path := writeTempConfig(t, baseYAML)
	t.Setenv("APP_POSTGRES_USER", "u")
	t.Setenv("APP_POSTGRES_PASSWORD", "p")
	t.Setenv("APP_POSTGRES_DB", "d")
	t.Setenv("APP_AUTH_SECRET", "0123456789abcdef-secret")
	t.Setenv("APP_POSTGRES_HOST", "db.internal")

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "db.internal", cfg.Postgres.Host)
}

func TestConfigLoad_MissingRequiredEnvFails(t *testing.T) {
	clearSecrets(t)
	path := writeTempConfig(t, baseYAML)

	_, err := config.Load(path)
	assert.Error(t, err)
}

func TestConfigLoad_ShortSecretFails(t *testing.T) {
	clearSecrets(t)
	path := writeTempConfig(t, baseYAML)
	t.Setenv("APP_POSTGRES_USER", "u")
	t.Setenv("APP_POSTGRES_PASSWORD", "p")
	t.Setenv("APP_POSTGRES_DB", "d")
	t.Setenv("APP_AUTH_SECRET", "short")

	_, err := config.Load(path)
	assert.Error(t, err)
}

func TestConfigLoad_MissingFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaultsAndSecrets(t *testing.T) {
	t.Setenv("PULSE_JWT_SECRET", "from-env")
	t.Setenv("PULSE_DB_PASSWORD", "db-secret")

	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "@pulse.org", cfg.Auth.AdminEmailDomain)
	assert.Equal(t, time.Hour, cfg.JWT.Expiry)
	assert.Equal(t, 30*time.Second, cfg.Dashboard.CacheTTL)
	assert.Equal(t, "from-env", cfg.JWT.Secret)
	assert.Equal(t, "db-secret", cfg.Database.Password)
	assert.Contains(t, cfg.Database.DSN(), "password=db-secret")
}

func TestLoadConfigFileAndEnvOverride(t *testing.T) {
	dir := t.TempDir()
	yaml := []byte(`
server:
  port: 9000
database:
  driver: memory
jwt:
  secret: file-secret
storage:
  backend: minio
  minio:
    bucket: lab-results
`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), yaml, 0o600))
	t.Setenv("PULSE_SERVER_PORT", "9100")

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, 9100, cfg.Server.Port)
	assert.Equal(t, "memory", cfg.Database.Driver)
	assert.Equal(t, "file-secret", cfg.JWT.Secret)
	assert.Equal(t, "lab-results", cfg.Storage.Minio.Bucket)
}

func TestValidate(t *testing.T) {
	cfg := &Config{
		JWT:       JWTConfig{Secret: "x"},
		Database:  DatabaseConfig{Driver: "mysql"},
		Storage:   StorageConfig{Backend: "local"},
		Messaging: MessagingConfig{Backend: "none"},
	}
	assert.ErrorContains(t, cfg.Validate(), "unsupported database driver")

	cfg.Database.Driver = "memory"
	assert.NoError(t, cfg.Validate())

	cfg.JWT.Secret = ""
	assert.ErrorContains(t, cfg.Validate(), "jwt secret is required")
}

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.toml"))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "ragstack", cfg.App.Name)
	assert.Equal(t, 8080, cfg.App.Port)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, 30, cfg.Auth.AccessExpireMinutes)
	assert.Equal(t, "document_processing", cfg.RabbitMQ.DocumentProcessingQueue)
	assert.Equal(t, 40, cfg.RAG.MaxRetrievalResults)
	assert.Equal(t, 8, cfg.RAG.MaxFinalResults)
	assert.True(t, cfg.RateLimit.Enabled)
}

func TestLoadFromTOML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[app]
name = "ragstack-test"
port = 9090

[auth]
jwt_secret = "toml-secret"
access_expire_minutes = 15

[rag]
chunk_size = 500
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	t.Setenv("CONFIG_FILE", path)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "ragstack-test", cfg.App.Name)
	assert.Equal(t, 9090, cfg.App.Port)
	assert.Equal(t, "toml-secret", cfg.Auth.JWTSecret)
	assert.Equal(t, 15, cfg.Auth.AccessExpireMinutes)
	assert.Equal(t, 500, cfg.RAG.ChunkSize)
	// Sections absent from the file keep their defaults.
	assert.Equal(t, "127.0.0.1:6379", cfg.Redis.Addr)
}

func TestEnvOverridesTOML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[app]
port = 9090

[mysql]
host = "db.internal"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("APP_PORT", "7070")
	t.Setenv("MYSQL_HOST", "db.override")
	t.Setenv("JWT_SECRET", "env-secret")
	t.Setenv("RATE_LIMIT_ENABLED", "false")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.App.Port)
	assert.Equal(t, "db.override", cfg.MySQL.Host)
	assert.Equal(t, "env-secret", cfg.Auth.JWTSecret)
	assert.False(t, cfg.RateLimit.Enabled)
}

func TestEnvBadValuesFallBack(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.toml"))
	t.Setenv("APP_PORT", "not-a-number")
	t.Setenv("S3_USE_SSL", "maybe")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.App.Port)
	assert.False(t, cfg.Storage.UseSSL)
}

func TestMySQLDSN(t *testing.T) {
	cfg := defaultConfig()
	cfg.MySQL.User = "rag"
	cfg.MySQL.Password = "pw"
	cfg.MySQL.Host = "10.0.0.5"
	cfg.MySQL.Port = 3307
	cfg.MySQL.DB = "ragdb"
	cfg.MySQL.Params = "parseTime=true"

	assert.Equal(t, "rag:pw@tcp(10.0.0.5:3307)/ragdb?parseTime=true", cfg.MySQLDSN())
}

func TestHTTPAddr(t *testing.T) {
	cfg := defaultConfig()
	cfg.App.Host = "127.0.0.1"
	cfg.App.Port = 8888

	assert.Equal(t, "127.0.0.1:8888", cfg.HTTPAddr())
}

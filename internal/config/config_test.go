package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noConfigFile(t *testing.T) {
	t.Helper()
	t.Setenv(EnvPrefix+"_CONFIG", filepath.Join(t.TempDir(), "missing.toml"))
}

func TestLoadDefaults(t *testing.T) {
	noConfigFile(t)

	cfg, err := Load(New())
	require.NoError(t, err)

	assert.Equal(t, BackendFile, cfg.Storage.Backend)
	assert.Equal(t, filepath.Join("resources", "studentMarks.txt"), cfg.Storage.File)
	assert.Equal(t, "studentmarks", cfg.Storage.MongoDatabase)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "admin", cfg.Server.AdminUsername)
	assert.Empty(t, cfg.Server.AdminPasswordHash)
	assert.Equal(t, 10, cfg.Server.LoginRateLimit)
	assert.False(t, cfg.Log.Verbose)
}

func TestLoadEnvOverrides(t *testing.T) {
	noConfigFile(t)
	t.Setenv("STUDENTMARKS_STORAGE_FILE", "/tmp/marks.txt")
	t.Setenv("STUDENTMARKS_SERVER_PORT", "9090")
	t.Setenv("STUDENTMARKS_LOG_VERBOSE", "true")

	cfg, err := Load(New())
	require.NoError(t, err)

	assert.Equal(t, "/tmp/marks.txt", cfg.Storage.File)
	assert.Equal(t, "9090", cfg.Server.Port)
	assert.True(t, cfg.Log.Verbose)
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[storage]
backend = "mongodb"
mongo_url = "mongodb://localhost:27017"

[server]
login_rate_limit = 3
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	t.Setenv(EnvPrefix+"_CONFIG", path)

	cfg, err := Load(New())
	require.NoError(t, err)

	assert.Equal(t, BackendMongoDB, cfg.Storage.Backend)
	assert.Equal(t, "mongodb://localhost:27017", cfg.Storage.MongoURL)
	assert.Equal(t, "studentmarks", cfg.Storage.MongoDatabase)
	assert.Equal(t, 3, cfg.Server.LoginRateLimit)
}

func TestLoadInvalidConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[storage\nbackend ="), 0o600))
	t.Setenv(EnvPrefix+"_CONFIG", path)

	_, err := Load(New())
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := Config{
		Storage: StorageConfig{Backend: BackendFile, File: "marks.txt"},
		Server:  ServerConfig{LoginRateLimit: 1},
	}
	require.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		modify func(c *Config)
	}{
		{"unknown backend", func(c *Config) { c.Storage.Backend = "sqlite" }},
		{"missing file", func(c *Config) { c.Storage.File = "" }},
		{"missing mongo url", func(c *Config) { c.Storage.Backend = BackendMongoDB; c.Storage.MongoDatabase = "x" }},
		{"missing mongo database", func(c *Config) { c.Storage.Backend = BackendMongoDB; c.Storage.MongoURL = "mongodb://x" }},
		{"zero rate limit", func(c *Config) { c.Server.LoginRateLimit = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid
			tt.modify(&c)
			assert.Error(t, c.Validate())
		})
	}
}

func TestLoadRejectsInvalidEnv(t *testing.T) {
	noConfigFile(t)
	t.Setenv("STUDENTMARKS_STORAGE_BACKEND", "postgres")

	_, err := Load(New())
	assert.Error(t, err)
}

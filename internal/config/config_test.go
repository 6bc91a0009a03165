package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	for _, k := range []string{"PORT", "STORAGE_DRIVER", "ANALYSIS_DELAY"} {
		t.Setenv(k, "")
	}
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Addr())
	assert.Equal(t, "local", cfg.Storage.Driver)
	assert.Equal(t, "metrika", cfg.Search.IndexPrefix)
	assert.Equal(t, 15*time.Minute, cfg.JWT.AccessTTL)
	assert.Equal(t, 2*time.Second, cfg.Analysis.Delay)
}

func TestLoad_YAMLThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 9090
database:
  url: postgres://metrika@localhost/metrika?sslmode=disable
jwt:
  secret: from-yaml
  access_ttl: 5m
analysis:
  delay: 3s
storage:
  driver: s3
  bucket: docs
`), 0o600))

	t.Setenv("JWT_SECRET", "from-env")
	t.Setenv("PORT", "7070")
	t.Setenv("ANALYSIS_DELAY", "500ms")
	t.Setenv("S3_BUCKET", "")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":7070", cfg.Addr())
	assert.Equal(t, "from-env", cfg.JWT.Secret)
	assert.Equal(t, 5*time.Minute, cfg.JWT.AccessTTL)
	assert.Equal(t, 500*time.Millisecond, cfg.Analysis.Delay)
	assert.Equal(t, "s3", cfg.Storage.Driver)
	assert.Equal(t, "docs", cfg.Storage.Bucket, "empty env does not override")
	assert.Equal(t, "auto", cfg.Storage.Region)
	assert.Contains(t, cfg.Database.DSN, "postgres://")
}

func TestLoad_BadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [oops"), 0o600))
	_, err := Load(path)
	assert.Error(t, err)
}

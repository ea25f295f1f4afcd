package conf

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	// 工作目录中没有配置文件时回退到默认值
	cwd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(cwd) })

	config, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "revision-service", config.Service.Name)
	assert.Equal(t, "development", config.Service.Environment)
	assert.False(t, config.Database.Enabled)
	assert.Equal(t, "postgres", config.Database.Driver)
	assert.False(t, config.Redis.Enabled)
	assert.Equal(t, 10*time.Minute, config.Redis.DefaultTTL)
	assert.Equal(t, "info", config.Log.Level)
}

func TestLoad_FromFile(t *testing.T) {
	content := `
service:
  name: revision-service
  environment: production
database:
  enabled: true
  host: db.internal
  port: 5433
redis:
  enabled: true
  addr: redis.internal:6379
log:
  level: warn
  format: console
`
	path := filepath.Join(t.TempDir(), "revision-service.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	config, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "production", config.Service.Environment)
	assert.True(t, config.Database.Enabled)
	assert.Equal(t, "db.internal", config.Database.Host)
	assert.Equal(t, 5433, config.Database.Port)
	assert.True(t, config.Redis.Enabled)
	assert.Equal(t, "warn", config.Log.Level)

	// 未覆盖的键保留默认值
	assert.Equal(t, "postgres", config.Database.User)
}

func TestLoad_ExplicitFileMissing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("DB_PASSWORD", "s3cret")
	t.Setenv("REDIS_PASSWORD", "r3dis")

	cwd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(cwd) })

	config, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "s3cret", config.Database.Password)
	assert.Equal(t, "r3dis", config.Redis.Password)
}

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
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, int64(16<<20), cfg.Upload.MaxSize)
	assert.Equal(t, []string{"png", "jpg", "jpeg", "gif"}, cfg.Upload.AllowedExt)
	assert.Equal(t, 2*time.Hour, cfg.JWT.AccessTTL)
	assert.Equal(t, "admin@example.com", cfg.Admin.Email)
}

func TestLoad_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	file := filepath.Join(dir, "config.yaml")
	content := `
server:
  port: "9000"
database:
  driver: mysql
  dsn: "root:pw@tcp(127.0.0.1:3306)/d_order_info?parseTime=true"
jwt:
  access_ttl: 30m
`
	require.NoError(t, os.WriteFile(file, []byte(content), 0o644))
	t.Setenv("ORDER_SERVER_PORT", "9100")

	cfg, err := Load(file)
	require.NoError(t, err)
	assert.Equal(t, "9100", cfg.Server.Port, "环境变量优先于配置文件")
	assert.Equal(t, "mysql", cfg.Database.Driver)
	assert.Equal(t, 30*time.Minute, cfg.JWT.AccessTTL)
	assert.Equal(t, "local", cfg.Storage.Provider)
}

func TestLoad_DotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("ORDER_LOG_LEVEL=debug\n"), 0o644))
	t.Cleanup(func() { os.Unsetenv("ORDER_LOG_LEVEL") })

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	t.Chdir(t.TempDir())
	_, err := Load("not-exist.yaml")
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	cfg.Database.Driver = "oracle"
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.JWT.Secret = ""
	assert.Error(t, cfg.Validate())
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadInto_Defaults(t *testing.T) {
	chdir(t, t.TempDir())
	v := viper.New()

	used, err := LoadInto(v, "")
	require.NoError(t, err)
	assert.Empty(t, used, "没有配置文件")

	cfg, err := Decode(v)
	require.NoError(t, err)
	assert.Equal(t, 4096, cfg.BlockSize)
	assert.Positive(t, cfg.Workers)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, StorageDisk, cfg.Storage.Type)
	assert.Equal(t, RegistryNone, cfg.Registry.Driver)
	assert.Equal(t, 24*time.Hour, cfg.Cache.TTL)
	assert.Equal(t, filepath.Join(cfg.Home, "objects"), cfg.ObjectsPath())
	assert.Equal(t, DefaultServerAddr, cfg.Server.Addr)
}

func TestLoadInto_File(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
block_size: 1024
workers: 2
manifest:
  path: /tmp/m.txt
log:
  level: debug
storage:
  type: s3
  s3:
    bucket: seals
    endpoint: http://localhost:9000
cache:
  ttl: 1h
registry:
  driver: sqlite
  dsn: file:reg.db
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	v := viper.New()
	used, err := LoadInto(v, path)
	require.NoError(t, err)
	assert.Equal(t, path, used)

	cfg, err := Decode(v)
	require.NoError(t, err)
	assert.Equal(t, 1024, cfg.BlockSize)
	assert.Equal(t, 2, cfg.Workers)
	assert.Equal(t, "/tmp/m.txt", cfg.Manifest.Path)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, StorageS3, cfg.Storage.Type)
	assert.Equal(t, "seals", cfg.Storage.S3.Bucket)
	assert.Equal(t, "us-east-1", cfg.Storage.S3.Region, "未覆盖的键保留默认值")
	assert.Equal(t, time.Hour, cfg.Cache.TTL)
	assert.Equal(t, "sqlite", cfg.Registry.Driver)
	assert.Equal(t, "file:reg.db", cfg.Registry.DSN)
}

func TestLoadInto_EnvOverrides(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("VERITY_BLOCK_SIZE", "512")
	t.Setenv("VERITY_STORAGE_S3_BUCKET", "from-env")
	t.Setenv("VERITY_LOG_LEVEL", "warn")

	v := viper.New()
	_, err := LoadInto(v, "")
	require.NoError(t, err)

	cfg, err := Decode(v)
	require.NoError(t, err)
	assert.Equal(t, 512, cfg.BlockSize)
	assert.Equal(t, "from-env", cfg.Storage.S3.Bucket)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadInto_BrokenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("block_size: [oops"), 0644))

	_, err := LoadInto(viper.New(), path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			BlockSize: 4096,
			Storage:   StorageConfig{Type: StorageDisk},
			Registry:  RegistryConfig{Driver: RegistryNone},
		}
	}

	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"zero block size", func(c *Config) { c.BlockSize = 0 }},
		{"negative workers", func(c *Config) { c.Workers = -1 }},
		{"unknown storage", func(c *Config) { c.Storage.Type = "ftp" }},
		{"s3 without bucket", func(c *Config) { c.Storage.Type = StorageS3 }},
		{"unknown registry", func(c *Config) { c.Registry.Driver = "mysql" }},
	}

	require.NoError(t, valid().Validate())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			assert.Error(t, c.Validate())
		})
	}
}

// chdir 切换工作目录并在测试结束时恢复（等价于 Go 1.24 的 t.Chdir）
func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

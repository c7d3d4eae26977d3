package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"blockverity/pkg/config"
	"blockverity/pkg/storage/disk"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func baseConfig(t *testing.T) *config.Config {
	return &config.Config{
		BlockSize: 4096,
		Workers:   2,
		Home:      "/home/u/.verity",
		Storage:   config.StorageConfig{Type: config.StorageDisk},
		Registry:  config.RegistryConfig{Driver: config.RegistryNone},
	}
}

func TestInitStore_Disk(t *testing.T) {
	cfg := baseConfig(t)
	fs := afero.NewMemMapFs()

	store, closer, err := initStore(context.Background(), cfg, fs, nil)
	require.NoError(t, err)
	assert.Nil(t, closer)
	assert.IsType(t, &disk.Adapter{}, store)

	ok, err := afero.DirExists(fs, "/home/u/.verity/objects")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestInitStore_S3_MissingBucket(t *testing.T) {
	cfg := baseConfig(t)
	cfg.Storage.Type = config.StorageS3

	store, _, err := initStore(context.Background(), cfg, afero.NewMemMapFs(), nil)
	assert.Error(t, err)
	assert.Nil(t, store)
	assert.Contains(t, err.Error(), "bucket is required")
}

func TestInitStore_UnknownType(t *testing.T) {
	cfg := baseConfig(t)
	cfg.Storage.Type = "ftp"

	store, _, err := initStore(context.Background(), cfg, afero.NewMemMapFs(), nil)
	assert.Error(t, err)
	assert.Nil(t, store)
	assert.Contains(t, err.Error(), "unsupported storage type")
}

func TestNewApp_WithSQLiteRegistry(t *testing.T) {
	cfg := baseConfig(t)
	cfg.Registry = config.RegistryConfig{Driver: "sqlite", DSN: "file:app_test?mode=memory&cache=shared"}

	a, err := NewApp(context.Background(), cfg, afero.NewMemMapFs(), nil)
	require.NoError(t, err)
	assert.NotNil(t, a.Registry)
	assert.NotNil(t, a.Refs)
	assert.NoError(t, a.Close())
	assert.NoError(t, a.Close(), "重复 Close 是安全的")
}

func TestNewApp_BadRegistry(t *testing.T) {
	cfg := baseConfig(t)
	cfg.Registry = config.RegistryConfig{Driver: "sqlite"}

	_, err := NewApp(context.Background(), cfg, afero.NewMemMapFs(), nil)
	assert.Error(t, err)
}

func TestApp_EngineAndMetricsTextfile(t *testing.T) {
	cfg := baseConfig(t)
	textfile := filepath.Join(t.TempDir(), "verity.prom")
	cfg.Metrics.Textfile = textfile

	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/data/a.bin", make([]byte, 3*4096), 0644))

	a, err := NewApp(context.Background(), cfg, fs, nil)
	require.NoError(t, err)

	e, err := a.Engine("/data/a.bin", "")
	require.NoError(t, err)
	assert.Equal(t, "/data/a.bin.hashtree", e.ManifestPath())

	_, err = e.GenerateHashes(context.Background())
	require.NoError(t, err)
	require.NoError(t, a.Close())

	// textfile 写在真实文件系统上
	data, err := os.ReadFile(textfile)
	require.NoError(t, err)
	assert.Contains(t, string(data), "verity_blocks_hashed_total 3")
}

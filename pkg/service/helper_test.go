package service

import (
	"crypto/rand"
	"testing"

	"blockverity/pkg/app"
	"blockverity/pkg/config"
	"blockverity/pkg/logging"
	"blockverity/pkg/metrics"
	"blockverity/pkg/refs"
	"blockverity/pkg/storage/disk"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

const testBlockSize = 1024

// setupTestApp 是所有 Service 测试共享的基础设施：内存文件系统 + disk 存储，不带注册表
func setupTestApp(t *testing.T) *app.App {
	t.Helper()
	fs := afero.NewMemMapFs()

	store, err := disk.NewAdapter(fs, "/home/objects")
	require.NoError(t, err)

	return &app.App{
		Config:  &config.Config{BlockSize: testBlockSize, Workers: 2, Home: "/home"},
		Logger:  logging.Noop(),
		Metrics: metrics.New(),
		Fs:      fs,
		Store:   store,
		Refs:    refs.NewManager(fs, "/home"),
	}
}

// writeData 在 App 的文件系统上写入随机数据
func writeData(t *testing.T, a *app.App, path string, size int) {
	t.Helper()
	data := make([]byte, size)
	_, err := rand.Read(data)
	require.NoError(t, err)
	require.NoError(t, afero.WriteFile(a.Fs, path, data, 0o644))
}

package verifier

import (
	"context"
	"crypto/rand"
	"os"
	"testing"

	"blockverity/pkg/leafhasher"
	"blockverity/pkg/logging"
	"blockverity/pkg/manifest"
	"blockverity/pkg/merkle"
	"blockverity/pkg/metrics"
	"blockverity/pkg/source"
	"blockverity/pkg/types"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

const (
	dataPath     = "/data/sample_data.bin"
	manifestPath = "/data/hash_tree.txt"
	blockSize    = 4096
)

// fixture 是一个已经生成过清单的内存环境
type fixture struct {
	fs       afero.Fs
	verifier *Verifier
	hook     *test.Hook
	metrics  *metrics.Metrics
	digests  []types.Hash
	root     types.Hash
}

// setupFixture 写入 size 字节随机数据，生成并保存清单
func setupFixture(t *testing.T, size int) *fixture {
	t.Helper()
	fs := afero.NewMemMapFs()

	data := make([]byte, size)
	_, err := rand.Read(data)
	require.NoError(t, err)
	require.NoError(t, afero.WriteFile(fs, dataPath, data, 0644))

	src, err := source.NewFileSource(fs, dataPath)
	require.NoError(t, err)

	digests, err := leafhasher.ComputeBlockDigests(context.Background(), src, blockSize)
	require.NoError(t, err)
	require.NoError(t, manifest.Save(fs, manifestPath, digests))

	var root types.Hash
	if len(digests) > 0 {
		root, err = merkle.BuildRoot(digests)
		require.NoError(t, err)
	}

	base, hook := test.NewNullLogger()
	m := metrics.New()
	v, err := New(src, fs, manifestPath, blockSize, WithLogger(logging.Wrap(base)), WithMetrics(m))
	require.NoError(t, err)

	return &fixture{fs: fs, verifier: v, hook: hook, metrics: m, digests: digests, root: root}
}

// tamper 在 offset 处覆盖写入 payload (模拟攻击者修改数据文件)
func (f *fixture) tamper(t *testing.T, offset int64, payload []byte) {
	t.Helper()
	file, err := f.fs.OpenFile(dataPath, os.O_RDWR, 0644)
	require.NoError(t, err)
	defer file.Close()
	_, err = file.WriteAt(payload, offset)
	require.NoError(t, err)
}

// Package verifier 把数据文件的块与已提交的清单比对
//
// 逐块校验只看块自己的叶子摘要，不重算也不检查根摘要。
// 需要认证清单本身时，调用方显式使用 AuthenticateManifest / VerifyBlockAuthenticated。
package verifier

import (
	"context"
	"fmt"

	"blockverity/pkg/core"
	"blockverity/pkg/logging"
	"blockverity/pkg/manifest"
	"blockverity/pkg/merkle"
	"blockverity/pkg/metrics"
	"blockverity/pkg/source"
	"blockverity/pkg/types"

	"github.com/spf13/afero"
)

// Verifier 不缓存任何状态：每次调用都重新读取清单和数据文件
type Verifier struct {
	src          source.Source
	fs           afero.Fs
	manifestPath string
	blockSize    int

	logger  logging.Logger
	metrics *metrics.Metrics
}

type Option func(*Verifier)

func WithLogger(l logging.Logger) Option {
	return func(v *Verifier) { v.logger = l }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(v *Verifier) { v.metrics = m }
}

// New 创建校验器；fs 是清单所在的文件系统
func New(src source.Source, fs afero.Fs, manifestPath string, blockSize int, opts ...Option) (*Verifier, error) {
	if blockSize <= 0 {
		return nil, fmt.Errorf("%w: block size must be positive, got %d", core.ErrInvalidInput, blockSize)
	}
	if manifestPath == "" {
		return nil, fmt.Errorf("%w: manifest path is empty", core.ErrInvalidInput)
	}
	v := &Verifier{
		src:          src,
		fs:           fs,
		manifestPath: manifestPath,
		blockSize:    blockSize,
		logger:       logging.Noop(),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v, nil
}

func (v *Verifier) BlockSize() int { return v.blockSize }

// VerifyBlock 重新读取第 index 块 (最多 blockSize 字节，尾部短块按实际长度)，
// 与清单中的第 index 行做字符串精确比较。
// index 超出清单范围返回 ErrIndexOutOfRange，而不是 false。
func (v *Verifier) VerifyBlock(ctx context.Context, index int) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	digests, err := manifest.Load(v.fs, v.manifestPath)
	if err != nil {
		return false, err
	}
	return v.verifyAgainst(digests, index, nil)
}

func (v *Verifier) verifyAgainst(digests []types.Hash, index int, buf []byte) (bool, error) {
	if index < 0 || index >= len(digests) {
		return false, fmt.Errorf("%w: block %d (manifest has %d blocks)", core.ErrIndexOutOfRange, index, len(digests))
	}

	data, err := source.ReadBlock(v.src, index, v.blockSize, buf)
	if err != nil {
		return false, err
	}

	ok := core.CalculateBlobHash(data) == digests[index]
	v.metrics.ObserveBlock(ok)
	return ok, nil
}

// VerifyAllBlocks 按升序逐块校验，遇到第一个失败的块立即返回 false (fail-fast)
// 块数 = ceil(fileSize / blockSize)，文件大小在开始时读取一次。
// 失败的块号通过诊断日志报告，不进入返回值。
func (v *Verifier) VerifyAllBlocks(ctx context.Context) (bool, error) {
	size, err := v.src.Size()
	if err != nil {
		v.metrics.ObserveRun(metrics.ResultError)
		return false, err
	}
	count := core.BlockCount(size, v.blockSize)

	for i := 0; i < count; i++ {
		ok, err := v.VerifyBlock(ctx, i)
		if err != nil {
			v.metrics.ObserveRun(metrics.ResultError)
			return false, err
		}
		if !ok {
			v.logger.WithField("block", i).Errorf("Block %d verification failed!", i)
			v.metrics.ObserveRun(metrics.ResultMismatch)
			return false, nil
		}
	}

	v.logger.WithField("blocks", count).Info("All blocks verified successfully!")
	v.metrics.ObserveRun(metrics.ResultVerified)
	return true, nil
}

// AuthenticateManifest 用清单重算根，并与调用方单独信任的根比较
// 返回重算出的根；不一致时返回 ErrRootMismatch。
func (v *Verifier) AuthenticateManifest(ctx context.Context, trusted types.Hash) (types.Hash, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	digests, err := manifest.Load(v.fs, v.manifestPath)
	if err != nil {
		return "", err
	}
	root, err := merkle.BuildRoot(digests)
	if err != nil {
		return "", err
	}
	if root != trusted {
		return root, fmt.Errorf("%w: manifest root %s, trusted root %s", core.ErrRootMismatch, root.Short(), trusted.Short())
	}
	return root, nil
}

// VerifyBlockAuthenticated 先用认证路径确认清单中的叶子属于受信任的根，再校验块内容
// 清单被篡改 (而数据文件没有) 时，VerifyBlock 会误报，而这里会返回 ErrRootMismatch。
func (v *Verifier) VerifyBlockAuthenticated(ctx context.Context, index int, trusted types.Hash) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	digests, err := manifest.Load(v.fs, v.manifestPath)
	if err != nil {
		return false, err
	}

	proof, err := merkle.Prove(digests, index)
	if err != nil {
		return false, err
	}
	if !merkle.VerifyProof(digests[index], proof, trusted) {
		return false, fmt.Errorf("%w: block %d is not authenticated by root %s", core.ErrRootMismatch, index, trusted.Short())
	}
	return v.verifyAgainst(digests, index, nil)
}

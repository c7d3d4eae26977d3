// Package engine 把叶子哈希、Merkle 树、清单持久化和校验器组合成一个数据文件的完整流程
package engine

import (
	"context"
	"fmt"
	"io"
	"time"

	"blockverity/pkg/core"
	"blockverity/pkg/leafhasher"
	"blockverity/pkg/logging"
	"blockverity/pkg/manifest"
	"blockverity/pkg/merkle"
	"blockverity/pkg/metrics"
	"blockverity/pkg/source"
	"blockverity/pkg/storage"
	"blockverity/pkg/types"
	"blockverity/pkg/verifier"

	"github.com/spf13/afero"
)

// ManifestSuffix 未指定清单路径时，清单放在数据文件旁边
const ManifestSuffix = ".hashtree"

type Options struct {
	BlockSize    int
	Workers      int
	ManifestPath string
}

// Generation 是一次 GenerateHashes 的不可变结果
// 引擎本身不保存“当前根”，调用方显式传递它。
type Generation struct {
	DataPath  string
	BlockSize int
	DataSize  int64
	Digests   []types.Hash
	Root      types.Hash
	CreatedAt time.Time
}

func (g *Generation) BlockCount() int { return len(g.Digests) }

type Engine struct {
	fs       afero.Fs
	dataPath string
	opts     Options

	logger  logging.Logger
	metrics *metrics.Metrics
}

type Option func(*Engine)

func WithLogger(l logging.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

func New(fs afero.Fs, dataPath string, opts Options, options ...Option) (*Engine, error) {
	if dataPath == "" {
		return nil, fmt.Errorf("%w: data path is empty", core.ErrInvalidInput)
	}
	if opts.BlockSize == 0 {
		opts.BlockSize = leafhasher.DefaultBlockSize
	}
	if opts.BlockSize < 0 {
		return nil, fmt.Errorf("%w: block size must be positive, got %d", core.ErrInvalidInput, opts.BlockSize)
	}
	if opts.ManifestPath == "" {
		opts.ManifestPath = dataPath + ManifestSuffix
	}

	e := &Engine{
		fs:       fs,
		dataPath: dataPath,
		opts:     opts,
		logger:   logging.Noop(),
	}
	for _, o := range options {
		o(e)
	}
	return e, nil
}

func (e *Engine) DataPath() string     { return e.dataPath }
func (e *Engine) ManifestPath() string { return e.opts.ManifestPath }
func (e *Engine) BlockSize() int       { return e.opts.BlockSize }

func (e *Engine) source() (*source.FileSource, error) {
	return source.NewFileSource(e.fs, e.dataPath)
}

// GenerateHashes 计算所有块的叶子摘要并折叠出根
// 空文件没有叶子，返回 ErrInvalidInput，不会替换成默认根。
func (e *Engine) GenerateHashes(ctx context.Context) (*Generation, error) {
	src, err := e.source()
	if err != nil {
		return nil, err
	}
	size, err := src.Size()
	if err != nil {
		return nil, err
	}

	start := time.Now()
	digests, err := leafhasher.ComputeBlockDigestsParallel(ctx, src, e.opts.BlockSize, e.opts.Workers)
	if err != nil {
		return nil, err
	}
	e.metrics.ObserveHashed(len(digests), time.Since(start))

	root, err := merkle.BuildRoot(digests)
	if err != nil {
		return nil, fmt.Errorf("build root for %s: %w", e.dataPath, err)
	}

	e.logger.WithField("blocks", len(digests)).Debugf("hashed %s in %s", e.dataPath, time.Since(start))
	return &Generation{
		DataPath:  e.dataPath,
		BlockSize: e.opts.BlockSize,
		DataSize:  size,
		Digests:   digests,
		Root:      root,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// SaveHashes 把 gen 的叶子摘要写成清单文件 (覆盖)
func (e *Engine) SaveHashes(gen *Generation) error {
	if gen == nil {
		return fmt.Errorf("%w: no generation to save", core.ErrInvalidInput)
	}
	if gen.BlockSize != e.opts.BlockSize {
		return fmt.Errorf("%w: generation block size %d, engine block size %d", core.ErrInvalidInput, gen.BlockSize, e.opts.BlockSize)
	}
	if err := manifest.Save(e.fs, e.opts.ManifestPath, gen.Digests); err != nil {
		return err
	}
	e.logger.WithField("manifest", e.opts.ManifestPath).Infof("saved %d block digests", gen.BlockCount())
	return nil
}

func (e *Engine) verifier() (*verifier.Verifier, error) {
	src, err := e.source()
	if err != nil {
		return nil, err
	}
	return verifier.New(src, e.fs, e.opts.ManifestPath, e.opts.BlockSize,
		verifier.WithLogger(e.logger), verifier.WithMetrics(e.metrics))
}

func (e *Engine) VerifyBlock(ctx context.Context, index int) (bool, error) {
	v, err := e.verifier()
	if err != nil {
		return false, err
	}
	return v.VerifyBlock(ctx, index)
}

func (e *Engine) VerifyAllBlocks(ctx context.Context) (bool, error) {
	v, err := e.verifier()
	if err != nil {
		return false, err
	}
	return v.VerifyAllBlocks(ctx)
}

func (e *Engine) Audit(ctx context.Context) (*verifier.AuditReport, error) {
	v, err := e.verifier()
	if err != nil {
		return nil, err
	}
	return v.Audit(ctx)
}

func (e *Engine) AuthenticateManifest(ctx context.Context, trusted types.Hash) (types.Hash, error) {
	v, err := e.verifier()
	if err != nil {
		return "", err
	}
	return v.AuthenticateManifest(ctx, trusted)
}

func (e *Engine) VerifyBlockAuthenticated(ctx context.Context, index int, trusted types.Hash) (bool, error) {
	v, err := e.verifier()
	if err != nil {
		return false, err
	}
	return v.VerifyBlockAuthenticated(ctx, index, trusted)
}

// Prove 从磁盘上的清单生成第 index 块的认证路径
func (e *Engine) Prove(ctx context.Context, index int) (*merkle.Proof, types.Hash, error) {
	if err := ctx.Err(); err != nil {
		return nil, "", err
	}
	digests, err := manifest.Load(e.fs, e.opts.ManifestPath)
	if err != nil {
		return nil, "", err
	}
	proof, err := merkle.Prove(digests, index)
	if err != nil {
		return nil, "", err
	}
	return proof, digests[index], nil
}

// Seal 生成可信记录以及它引用的清单对象
// 清单字节与 SaveHashes 写出的文件逐字节一致，所以 ManifestBlob 的 ID 就是清单文件的 SHA-256。
func (e *Engine) Seal(gen *Generation) (*core.Seal, *core.ManifestBlob, error) {
	if gen == nil {
		return nil, nil, fmt.Errorf("%w: no generation to seal", core.ErrInvalidInput)
	}
	blob := core.NewManifestBlob(manifest.Encode(gen.Digests))
	seal, err := core.NewSeal(gen.Root, blob.ID(), gen.BlockSize, gen.BlockCount(), gen.DataSize)
	if err != nil {
		return nil, nil, err
	}
	return seal, blob, nil
}

// Publish 把清单和封印写入对象存储，先写清单再写封印
func (e *Engine) Publish(ctx context.Context, store storage.Store, gen *Generation) (*core.Seal, error) {
	seal, blob, err := e.Seal(gen)
	if err != nil {
		return nil, err
	}
	if err := store.Put(ctx, blob); err != nil {
		return nil, fmt.Errorf("failed to store manifest: %w", err)
	}
	if err := store.Put(ctx, seal); err != nil {
		return nil, fmt.Errorf("failed to store seal: %w", err)
	}
	e.logger.WithField("seal", seal.ID().Short()).Info("published seal")
	return seal, nil
}

// LoadSeal 从对象存储读取封印；id 可以是唯一前缀
func LoadSeal(ctx context.Context, store storage.Store, id types.HashPrefix) (*core.Seal, error) {
	full, err := store.ExpandHash(ctx, id)
	if err != nil {
		return nil, err
	}
	reader, err := store.Get(ctx, full)
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("%w: read seal %s: %w", core.ErrIO, full.Short(), err)
	}
	return core.DecodeSeal(data)
}

// Package exporter 从对象存储取回封印和清单，并把它们还原或打印出来
package exporter

import (
	"context"
	"fmt"
	"io"

	"blockverity/pkg/core"
	"blockverity/pkg/manifest"
	"blockverity/pkg/merkle"
	"blockverity/pkg/storage"
	"blockverity/pkg/types"

	"github.com/spf13/afero"
)

type Exporter struct {
	store storage.Store
}

func NewExporter(store storage.Store) *Exporter {
	return &Exporter{store: store}
}

func (e *Exporter) readAll(ctx context.Context, hash types.Hash) ([]byte, error) {
	reader, err := e.store.Get(ctx, hash)
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("%w: read object %s: %w", core.ErrIO, hash.Short(), err)
	}
	return data, nil
}

// FetchManifest 取回封印引用的清单，并确认它确实属于这个封印：
// 内容哈希等于引用、条数等于 BlockCount、重算的根等于封印里的根
func (e *Exporter) FetchManifest(ctx context.Context, seal *core.Seal) ([]types.Hash, error) {
	data, err := e.readAll(ctx, seal.Manifest.Hash)
	if err != nil {
		return nil, fmt.Errorf("failed to get manifest: %w", err)
	}
	if got := core.CalculateBlobHash(data); got != seal.Manifest.Hash {
		return nil, fmt.Errorf("%w: stored manifest hashes to %s, seal references %s",
			core.ErrRootMismatch, got.Short(), seal.Manifest.Hash.Short())
	}

	digests, err := manifest.Decode(data)
	if err != nil {
		return nil, err
	}
	if int64(len(digests)) != seal.BlockCount {
		return nil, fmt.Errorf("%w: manifest has %d blocks, seal says %d",
			core.ErrRootMismatch, len(digests), seal.BlockCount)
	}
	root, err := merkle.BuildRoot(digests)
	if err != nil {
		return nil, err
	}
	if root != seal.Root.Hash {
		return nil, fmt.Errorf("%w: manifest root %s, seal root %s",
			core.ErrRootMismatch, root.Short(), seal.Root.Hash.Short())
	}
	return digests, nil
}

// RestoreManifest 用封印里的清单覆盖本地清单文件
func (e *Exporter) RestoreManifest(ctx context.Context, seal *core.Seal, fs afero.Fs, path string) (int, error) {
	digests, err := e.FetchManifest(ctx, seal)
	if err != nil {
		return 0, err
	}
	if err := manifest.Save(fs, path, digests); err != nil {
		return 0, err
	}
	return len(digests), nil
}

// PrintObject 按类型打印存储中的对象：封印解码后打印字段，清单按原文打印
func (e *Exporter) PrintObject(ctx context.Context, hash types.Hash, w io.Writer) error {
	data, err := e.readAll(ctx, hash)
	if err != nil {
		return err
	}

	var header struct {
		TypeVal core.ObjectType `cbor:"t"`
	}
	if err := core.DecodeObject(data, &header); err != nil || header.TypeVal == "" {
		// 不是 CBOR，就是清单文本
		return printManifest(data, w)
	}

	switch header.TypeVal {
	case core.TypeSeal:
		seal, err := core.DecodeSeal(data)
		if err != nil {
			return err
		}
		PrintSeal(seal, w)
		return nil
	default:
		return fmt.Errorf("unknown object type: %s", header.TypeVal)
	}
}

package leafhasher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"blockverity/pkg/core"
	"blockverity/pkg/source"
	"blockverity/pkg/types"

	"golang.org/x/sync/errgroup"
)

// DefaultBlockSize 与 dm-verity 的典型块大小一致
const DefaultBlockSize = 4096

// ComputeBlockDigests 从 offset 0 顺序读取，每 blockSize 字节计算一个叶子摘要
// 最后一个短块只对实际读到的字节做哈希 (不补零)；空文件返回空切片。
// 读失败时返回 ErrIO，不返回部分结果。
func ComputeBlockDigests(ctx context.Context, src source.Source, blockSize int) ([]types.Hash, error) {
	if blockSize <= 0 {
		return nil, fmt.Errorf("%w: block size must be positive, got %d", core.ErrInvalidInput, blockSize)
	}

	rc, err := src.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	buf := make([]byte, blockSize)
	var digests []types.Hash

	for index := 0; ; index++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		n, err := io.ReadFull(rc, buf)
		if n > 0 {
			digests = append(digests, core.CalculateBlobHash(buf[:n]))
		}
		// EOF: 没读到任何字节；ErrUnexpectedEOF: 读到了尾部短块
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: read block %d: %w", core.ErrIO, index, err)
		}
	}

	return digests, nil
}

// ComputeBlockDigestsParallel 与 ComputeBlockDigests 结果完全一致，但按块并发哈希
// 每个块的摘要只依赖本块字节，所以可以并行；结果按块号写回预分配的切片，
// 顺序和顺序版一致 (根摘要依赖顺序)。
// 块数在开始时由 Size() 确定。
func ComputeBlockDigestsParallel(ctx context.Context, src source.Source, blockSize int, workers int) ([]types.Hash, error) {
	if blockSize <= 0 {
		return nil, fmt.Errorf("%w: block size must be positive, got %d", core.ErrInvalidInput, blockSize)
	}
	if workers <= 1 {
		return ComputeBlockDigests(ctx, src, blockSize)
	}

	size, err := src.Size()
	if err != nil {
		return nil, err
	}
	count := core.BlockCount(size, blockSize)
	digests := make([]types.Hash, count)
	if count == 0 {
		return digests, nil
	}

	// 复用块缓冲区，避免每块一次分配
	pool := sync.Pool{
		New: func() any {
			b := make([]byte, blockSize)
			return &b
		},
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i := 0; i < count; i++ {
		if gctx.Err() != nil {
			break
		}
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			bufp := pool.Get().(*[]byte)
			defer pool.Put(bufp)

			data, err := source.ReadBlock(src, i, blockSize, *bufp)
			if err != nil {
				return err
			}
			digests[i] = core.CalculateBlobHash(data)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return digests, nil
}

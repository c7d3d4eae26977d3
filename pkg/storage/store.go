package storage

import (
	"context"
	"errors"
	"io"

	"blockverity/pkg/core"
	"blockverity/pkg/types"
)

var (
	ErrNotFound      = errors.New("object not found")
	ErrAmbiguousHash = errors.New("ambiguous hash prefix")
	ErrPrefixShort   = errors.New("hash prefix too short")
)

// MinPrefixLen 短哈希至少 4 个字符
const MinPrefixLen = 4

// Store 保存封印和清单对象，按内容寻址
// 实现：本地磁盘 (disk)、S3 兼容对象存储 (s3)、Redis 存在性缓存装饰器 (cache)
type Store interface {
	// Put 持久化一个对象；已存在时直接返回 (幂等)
	Put(ctx context.Context, obj core.Object) error

	// Get 根据 Hash 读取原始字节，调用方负责 Close
	Get(ctx context.Context, hash types.Hash) (io.ReadCloser, error)

	Has(ctx context.Context, hash types.Hash) (bool, error)

	// ExpandHash 把唯一前缀扩展成完整哈希
	ExpandHash(ctx context.Context, prefix types.HashPrefix) (types.Hash, error)
}

// ValidatePrefix 规范化前缀并检查长度
func ValidatePrefix(prefix types.HashPrefix) (string, error) {
	p := string(prefix.Normalize())
	if len(p) < MinPrefixLen {
		return "", ErrPrefixShort
	}
	return p, nil
}

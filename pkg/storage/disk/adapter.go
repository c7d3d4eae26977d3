package disk

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"blockverity/pkg/core"
	"blockverity/pkg/storage"
	"blockverity/pkg/types"

	"github.com/spf13/afero"
)

// Adapter 把对象存在本地文件系统上，实现 storage.Store
type Adapter struct {
	fs       afero.Fs
	rootPath string // 比如: ~/.verity/objects
}

func NewAdapter(fs afero.Fs, root string) (*Adapter, error) {
	if err := fs.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("failed to create root storage dir: %w", err)
	}
	return &Adapter{fs: fs, rootPath: root}, nil
}

// layout 前 2 个字符作为子目录
// "aabbcc..." -> root/aa/bbcc...
func (s *Adapter) layout(hash types.Hash) string {
	h := string(hash)
	if len(h) < 2 {
		return filepath.Join(s.rootPath, h)
	}
	return filepath.Join(s.rootPath, h[:2], h[2:])
}

func (s *Adapter) Put(ctx context.Context, obj core.Object) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	targetPath := s.layout(obj.ID())

	if _, err := s.fs.Stat(targetPath); err == nil {
		return nil
	}

	dir := filepath.Dir(targetPath)
	if err := s.fs.MkdirAll(dir, 0755); err != nil {
		return err
	}

	// 先写临时文件再 Rename，要么不存在，要么完整
	tempFile, err := afero.TempFile(s.fs, dir, "temp-*")
	if err != nil {
		return err
	}
	defer s.fs.Remove(tempFile.Name())

	if _, err := tempFile.Write(obj.Bytes()); err != nil {
		tempFile.Close()
		return err
	}
	if err := tempFile.Close(); err != nil {
		return err
	}

	return s.fs.Rename(tempFile.Name(), targetPath)
}

func (s *Adapter) Get(ctx context.Context, hash types.Hash) (io.ReadCloser, error) {
	f, err := s.fs.Open(s.layout(hash))
	if os.IsNotExist(err) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return f, nil
}

func (s *Adapter) Has(ctx context.Context, hash types.Hash) (bool, error) {
	_, err := s.fs.Stat(s.layout(hash))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

// ExpandHash 只需要列出前缀所在的分片目录
func (s *Adapter) ExpandHash(ctx context.Context, prefix types.HashPrefix) (types.Hash, error) {
	p, err := storage.ValidatePrefix(prefix)
	if err != nil {
		return "", err
	}

	entries, err := afero.ReadDir(s.fs, filepath.Join(s.rootPath, p[:2]))
	if os.IsNotExist(err) {
		return "", storage.ErrNotFound
	}
	if err != nil {
		return "", err
	}

	var match types.Hash
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), "temp-") {
			continue
		}
		if !strings.HasPrefix(e.Name(), p[2:]) {
			continue
		}
		if match != "" {
			return "", fmt.Errorf("%w: %s", storage.ErrAmbiguousHash, p)
		}
		match = types.Hash(p[:2] + e.Name())
	}
	if match == "" {
		return "", storage.ErrNotFound
	}
	return match, nil
}

// Package source 把数据文件抽象成一个只读能力 (顺序读 + 定位读)
// 哈希和校验逻辑只依赖这个接口，测试时可以换成内存实现，不需要真实磁盘。
package source

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"blockverity/pkg/core"

	"github.com/spf13/afero"
)

// Source 是数据文件的只读视图
type Source interface {
	// Open 返回从 offset 0 开始的顺序读流
	Open() (io.ReadCloser, error)

	// ReadAt 语义同 io.ReaderAt：读不满时返回 io.EOF
	ReadAt(p []byte, off int64) (int, error)

	// Size 返回当前文件大小 (每次现查，不缓存)
	Size() (int64, error)
}

// FileSource 基于 afero.Fs 的实现
// 每次调用都重新打开文件，因此总能看到磁盘上的最新字节。
type FileSource struct {
	fs   afero.Fs
	path string
}

// NewFileSource 创建文件数据源；文件必须存在且不是目录
func NewFileSource(fs afero.Fs, path string) (*FileSource, error) {
	info, err := fs.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("%w: stat data file: %w", core.ErrIO, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: data file %s is a directory", core.ErrIO, path)
	}
	return &FileSource{fs: fs, path: path}, nil
}

func (s *FileSource) Path() string { return s.path }

func (s *FileSource) Open() (io.ReadCloser, error) {
	f, err := s.fs.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("%w: open data file: %w", core.ErrIO, err)
	}
	return f, nil
}

func (s *FileSource) ReadAt(p []byte, off int64) (int, error) {
	f, err := s.fs.Open(s.path)
	if err != nil {
		return 0, fmt.Errorf("%w: open data file: %w", core.ErrIO, err)
	}
	defer f.Close()
	return f.ReadAt(p, off)
}

func (s *FileSource) Size() (int64, error) {
	info, err := s.fs.Stat(s.path)
	if err != nil {
		return 0, fmt.Errorf("%w: stat data file: %w", core.ErrIO, err)
	}
	return info.Size(), nil
}

// Bytes 是内存中的数据源
type Bytes struct {
	data []byte
}

func FromBytes(data []byte) *Bytes { return &Bytes{data: data} }

func (b *Bytes) Open() (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(b.data)), nil
}

func (b *Bytes) ReadAt(p []byte, off int64) (int, error) {
	return bytes.NewReader(b.data).ReadAt(p, off)
}

func (b *Bytes) Size() (int64, error) { return int64(len(b.data)), nil }

// ReadBlock 读取第 index 块：最多 blockSize 字节，文件尾部的短块按实际长度返回
// buf 的容量至少为 blockSize；返回值是 buf 的子切片。
func ReadBlock(src Source, index int, blockSize int, buf []byte) ([]byte, error) {
	if blockSize <= 0 {
		return nil, fmt.Errorf("%w: block size must be positive, got %d", core.ErrInvalidInput, blockSize)
	}
	if index < 0 {
		return nil, fmt.Errorf("%w: negative block index %d", core.ErrIndexOutOfRange, index)
	}
	if cap(buf) < blockSize {
		buf = make([]byte, blockSize)
	}
	buf = buf[:blockSize]

	off := int64(index) * int64(blockSize)
	n, err := src.ReadAt(buf, off)
	// 部分 afero 实现在 off 越过文件尾时返回 ErrUnexpectedEOF，按短读处理
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		if errors.Is(err, core.ErrIO) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: read block %d: %w", core.ErrIO, index, err)
	}
	return buf[:n], nil
}

// Package manifest 读写叶子摘要清单
//
// 格式 (逐字节兼容)：UTF-8 文本，每块一行，小写 hex SHA-256 (64 字符) + "\n"，
// 按块号升序，没有头部、没有尾部元数据、没有清单自身的校验和。
package manifest

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"blockverity/pkg/core"
	"blockverity/pkg/types"

	"github.com/spf13/afero"
)

// Encode 把摘要序列编码成清单文本
func Encode(digests []types.Hash) []byte {
	var buf bytes.Buffer
	buf.Grow(len(digests) * (types.DigestHexLen + 1))
	for _, d := range digests {
		buf.WriteString(string(d))
		buf.WriteByte('\n')
	}
	return buf.Bytes()
}

// Decode 逐行解析清单文本，去掉每行首尾空白
// 末尾的空行被忽略；长度由调用者 (Verifier) 自己比对，这里不强制。
func Decode(data []byte) ([]types.Hash, error) {
	var digests []types.Hash
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		digests = append(digests, types.Hash(strings.TrimSpace(scanner.Text())))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: scan manifest: %w", core.ErrIO, err)
	}

	for len(digests) > 0 && digests[len(digests)-1] == "" {
		digests = digests[:len(digests)-1]
	}
	return digests, nil
}

// FilePerm 是清单文件的权限
const FilePerm os.FileMode = 0o644

// Save 覆盖写入清单
// 原子写入：先写同目录下的临时文件，再 Rename；读者要么看到旧清单，要么看到完整的新清单。
func Save(fs afero.Fs, path string, digests []types.Hash) error {
	dir := filepath.Dir(path)
	if err := fs.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("%w: create manifest dir: %w", core.ErrIO, err)
	}

	tempFile, err := afero.TempFile(fs, dir, ".manifest-*")
	if err != nil {
		return fmt.Errorf("%w: create temp manifest: %w", core.ErrIO, err)
	}
	// 如果成功 Rename 了，这个删除会失败，无害
	defer fs.Remove(tempFile.Name())

	if _, err := tempFile.Write(Encode(digests)); err != nil {
		tempFile.Close()
		return fmt.Errorf("%w: write manifest: %w", core.ErrIO, err)
	}
	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("%w: close manifest: %w", core.ErrIO, err)
	}
	// TempFile 创建的是 0600，Rename 会保留它；其他用户的校验进程需要能读清单
	if err := fs.Chmod(tempFile.Name(), FilePerm); err != nil {
		return fmt.Errorf("%w: chmod manifest: %w", core.ErrIO, err)
	}

	if err := fs.Rename(tempFile.Name(), path); err != nil {
		return fmt.Errorf("%w: rename manifest: %w", core.ErrIO, err)
	}
	return nil
}

// Load 读取清单，返回文件顺序的摘要；文件不存在时返回 ErrIO
func Load(fs afero.Fs, path string) ([]types.Hash, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("%w: read manifest %s: %w", core.ErrIO, path, err)
	}
	return Decode(data)
}

// ReadRaw 返回清单文件的原始字节 (用于上传到对象存储)
func ReadRaw(fs afero.Fs, path string) ([]byte, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("%w: read manifest %s: %w", core.ErrIO, path, err)
	}
	return data, nil
}

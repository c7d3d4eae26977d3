// Package refs 记录每个数据文件的“钉住”封印，也就是受信任的根的来源
// 钉住文件放在 <root>/pins/<sha256(数据文件绝对路径)>，内容是封印 ID。
package refs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"blockverity/pkg/core"
	"blockverity/pkg/types"

	"github.com/spf13/afero"
)

var ErrNoPin = errors.New("no pinned seal for data file")

type Manager struct {
	fs       afero.Fs
	rootPath string
}

func NewManager(fs afero.Fs, rootPath string) *Manager {
	return &Manager{fs: fs, rootPath: rootPath}
}

func (m *Manager) pinPath(dataPath string) string {
	key := core.CalculateBlobHash([]byte(filepath.Clean(dataPath)))
	return filepath.Join(m.rootPath, "pins", key.String())
}

// GetPin 读取钉住的封印 ID；从未钉住时返回 ErrNoPin
func (m *Manager) GetPin(dataPath string) (types.Hash, error) {
	data, err := afero.ReadFile(m.fs, m.pinPath(dataPath))
	if os.IsNotExist(err) {
		return "", ErrNoPin
	}
	if err != nil {
		return "", fmt.Errorf("failed to read pin: %w", err)
	}

	// 手工编辑时可能带换行
	id := types.Hash(strings.TrimSpace(string(data)))
	if !id.IsValid() {
		return "", fmt.Errorf("corrupt pin for %s: %q", dataPath, id)
	}
	return id, nil
}

// SetPin 覆盖写入钉住的封印 ID
func (m *Manager) SetPin(dataPath string, sealID types.Hash) error {
	if !sealID.IsValid() {
		return fmt.Errorf("%w: invalid seal id %q", core.ErrInvalidInput, sealID)
	}
	path := m.pinPath(dataPath)
	if err := m.fs.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create pins dir: %w", err)
	}
	return afero.WriteFile(m.fs, path, []byte(sealID.String()+"\n"), 0644)
}

// RemovePin 删除钉住；不存在时返回 ErrNoPin
func (m *Manager) RemovePin(dataPath string) error {
	err := m.fs.Remove(m.pinPath(dataPath))
	if os.IsNotExist(err) {
		return ErrNoPin
	}
	return err
}

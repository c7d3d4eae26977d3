package core

import (
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"blockverity/pkg/types"

	"github.com/stretchr/testify/require"
)

// -----------------------------------------------------------------------------
// 辅助工具
// -----------------------------------------------------------------------------

// mockHash 生成一个合法的 32 字节 Hex 字符串 (64字符长度)
func mockHash(input string) types.Hash {
	sum := sha256.Sum256([]byte(input))
	return types.Hash(hex.EncodeToString(sum[:]))
}

// mustNewSeal 创建 Seal，如果失败直接终止测试
func mustNewSeal(t *testing.T, root, manifestID types.Hash, blockSize, blockCount int, dataSize int64, msgAndArgs ...any) *Seal {
	t.Helper()
	s, err := NewSeal(root, manifestID, blockSize, blockCount, dataSize)
	require.NoError(t, err, msgAndArgs...)
	return s
}

// Package merkle 把有序的叶子摘要折叠成一棵二叉哈希树
//
// 内部节点 = SHA256(left_hex || right_hex)，拼接的是十六进制文本。
// 某一层节点数为奇数时，最后一个节点与自己配对 (self-duplication)，
// 不补零节点。树形完全由叶子数量决定，没有平衡或额外填充。
package merkle

import (
	"fmt"

	"blockverity/pkg/core"
	"blockverity/pkg/types"
)

// BuildRoot 自底向上逐层归约，直到只剩一个节点
// 只有一个叶子时，根就是叶子本身。
func BuildRoot(leaves []types.Hash) (types.Hash, error) {
	if len(leaves) == 0 {
		return "", fmt.Errorf("%w: cannot build merkle root from zero leaves", core.ErrInvalidInput)
	}

	level := leaves
	for len(level) > 1 {
		level = nextLevel(level)
	}
	return level[0], nil
}

// BuildLevels 返回所有层：levels[0] 是叶子 (副本)，最后一层只有根
func BuildLevels(leaves []types.Hash) ([][]types.Hash, error) {
	if len(leaves) == 0 {
		return nil, fmt.Errorf("%w: cannot build merkle tree from zero leaves", core.ErrInvalidInput)
	}

	// 复制一份，不持有调用者的切片
	level := make([]types.Hash, len(leaves))
	copy(level, leaves)

	levels := [][]types.Hash{level}
	for len(level) > 1 {
		level = nextLevel(level)
		levels = append(levels, level)
	}
	return levels, nil
}

// nextLevel 把 n 个节点归约成 ceil(n/2) 个
func nextLevel(level []types.Hash) []types.Hash {
	n := len(level)
	next := make([]types.Hash, 0, (n+1)/2)
	for i := 0; i < n; i += 2 {
		left := level[i]
		right := left // 奇数个：最后一个和自己配对
		if i+1 < n {
			right = level[i+1]
		}
		next = append(next, core.CalculateNodeHash(left, right))
	}
	return next
}

// Depth 返回 n 个叶子的树需要折叠几次才能到根
func Depth(n int) int {
	depth := 0
	for n > 1 {
		n = (n + 1) / 2
		depth++
	}
	return depth
}

package merkle

import (
	"fmt"

	"blockverity/pkg/core"
	"blockverity/pkg/types"
)

// Proof 是某个叶子到根的认证路径
// Siblings[i] 是第 i 层上与当前节点配对的兄弟；自配对时兄弟就是节点自己。
type Proof struct {
	Index     int          `json:"index"`
	LeafCount int          `json:"leaf_count"`
	Siblings  []types.Hash `json:"siblings"`
}

// Prove 为第 index 个叶子生成认证路径
func Prove(leaves []types.Hash, index int) (*Proof, error) {
	if index < 0 || index >= len(leaves) {
		return nil, fmt.Errorf("%w: leaf %d (tree has %d leaves)", core.ErrIndexOutOfRange, index, len(leaves))
	}
	levels, err := BuildLevels(leaves)
	if err != nil {
		return nil, err
	}

	proof := &Proof{
		Index:     index,
		LeafCount: len(leaves),
		Siblings:  make([]types.Hash, 0, len(levels)-1),
	}

	pos := index
	for _, level := range levels[:len(levels)-1] {
		sibling := pos ^ 1
		if sibling >= len(level) {
			sibling = pos
		}
		proof.Siblings = append(proof.Siblings, level[sibling])
		pos /= 2
	}
	return proof, nil
}

// RootFromProof 沿认证路径从叶子重算根
// 路径形状与叶子数不符，或奇数层尾节点没有自配对时返回 ErrInvalidInput。
func RootFromProof(leaf types.Hash, proof *Proof) (types.Hash, error) {
	if proof == nil || proof.Index < 0 || proof.Index >= proof.LeafCount {
		return "", fmt.Errorf("%w: malformed proof", core.ErrInvalidInput)
	}
	if len(proof.Siblings) != Depth(proof.LeafCount) {
		return "", fmt.Errorf("%w: proof has %d siblings, %d leaves need %d",
			core.ErrInvalidInput, len(proof.Siblings), proof.LeafCount, Depth(proof.LeafCount))
	}

	cur := leaf
	pos := proof.Index
	width := proof.LeafCount
	for level, sibling := range proof.Siblings {
		switch {
		case pos%2 == 1:
			cur = core.CalculateNodeHash(sibling, cur)
		case pos+1 == width:
			// 奇数层的尾节点只能和自己配对
			if sibling != cur {
				return "", fmt.Errorf("%w: level %d tail must pair with itself", core.ErrInvalidInput, level)
			}
			cur = core.CalculateNodeHash(cur, cur)
		default:
			cur = core.CalculateNodeHash(cur, sibling)
		}
		pos /= 2
		width = (width + 1) / 2
	}
	return cur, nil
}

// VerifyProof 沿认证路径重算根，与给定的根比较
func VerifyProof(leaf types.Hash, proof *Proof, root types.Hash) bool {
	got, err := RootFromProof(leaf, proof)
	return err == nil && got == root
}

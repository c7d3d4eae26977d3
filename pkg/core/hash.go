package core

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"blockverity/pkg/types"

	"github.com/fxamacker/cbor/v2"
)

// 定义符合 DAG-CBOR 规范的编码选项
// Seal 的 ID 是其 CBOR 字节的 SHA-256，所以编码必须是规范(唯一)的
var encOptions = cbor.EncOptions{
	// 强制 Map Key 排序 (Canonical)，保证相同的对象生成唯一的 Hash
	Sort: cbor.SortCanonical,

	ShortestFloat: cbor.ShortestFloatNone,

	// 时间格式化为 Unix 整数，不生成 Tag 0/1
	Time:    cbor.TimeUnix,
	TimeTag: cbor.EncTagNone,

	// 数组和 Map 必须在头部声明长度
	IndefLength: cbor.IndefLengthForbidden,

	BigIntConvert: cbor.BigIntConvertShortest,
}

// 全局复用的编码模式
var em, _ = encOptions.EncMode()

var decOptions = cbor.DecOptions{
	// --- 安全性配置 (防 DoS 攻击) ---
	MaxArrayElements: 10000,
	MaxMapPairs:      10000,
	MaxNestedLevels:  100,

	// --- 规范性配置 ---
	IndefLength: cbor.IndefLengthForbidden,
	DupMapKey:   cbor.DupMapKeyEnforcedAPF,
	BignumTag:   cbor.BignumTagForbidden,
	TimeTag:     cbor.DecTagIgnored,
}

var dm, _ = decOptions.DecMode()

// CalculateHash 计算对象的 Hash 和序列化数据
func CalculateHash(v any) (types.Hash, []byte, error) {
	data, err := em.Marshal(v)
	if err != nil {
		return "", nil, fmt.Errorf("failed to marshal object: %w", err)
	}
	return CalculateBlobHash(data), data, nil
}

// CalculateBlobHash 计算原始字节的 SHA-256 (叶子摘要就是它)
func CalculateBlobHash(data []byte) types.Hash {
	hashBytes := sha256.Sum256(data)
	return types.Hash(hex.EncodeToString(hashBytes[:]))
}

// CalculateNodeHash 计算 Merkle 内部节点
// 注意：拼接的是两个十六进制字符串的 ASCII 文本，不是解码后的 32 字节。
// 这是清单兼容性的一部分，不能改成 raw bytes。
func CalculateNodeHash(left, right types.Hash) types.Hash {
	buf := make([]byte, 0, len(left)+len(right))
	buf = append(buf, left...)
	buf = append(buf, right...)
	return CalculateBlobHash(buf)
}

// BlockCount = ceil(size / blockSize)
func BlockCount(size int64, blockSize int) int {
	if size <= 0 || blockSize <= 0 {
		return 0
	}
	bs := int64(blockSize)
	return int((size + bs - 1) / bs)
}

// DecodeObject 通用的解码函数
func DecodeObject(data []byte, v any) error {
	return dm.Unmarshal(data, v)
}

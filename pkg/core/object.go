package core

import "blockverity/pkg/types"

// ObjectType 定义了对象存储中的对象类型
type ObjectType string

const (
	TypeManifest ObjectType = "manifest" // 清单文件的原始字节
	TypeSeal     ObjectType = "seal"     // 受信任的根记录
)

// Object 是所有可以放进 storage.Store 的对象的通用接口
type Object interface {
	Type() ObjectType

	// ID 返回对象的哈希值 (内容寻址)
	ID() types.Hash

	// Bytes 返回对象的序列化数据 (用于存储)
	Bytes() []byte
}

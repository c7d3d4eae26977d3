// pkg/types/common.go
package types

import "strings"

// DigestHexLen 是 SHA-256 十六进制摘要的长度
const DigestHexLen = 64

// Hash 代表一个摘要 (SHA256 Hex String)
// 块摘要、Merkle 内部节点、根摘要都用它表示。
// 这是一个“值对象”，应当是不可变的。
type Hash string

func (h Hash) String() string { return string(h) }

func (h Hash) IsZero() bool { return h == "" }

// IsValid 要求 64 位小写十六进制，与清单文件格式一致
func (h Hash) IsValid() bool {
	if len(h) != DigestHexLen {
		return false
	}
	for i := 0; i < len(h); i++ {
		c := h[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}

// Short 返回前 8 位，用于日志和终端输出
func (h Hash) Short() string {
	if len(h) <= 8 {
		return string(h)
	}
	return string(h[:8])
}

// HashPrefix 是用户输入的短哈希 (如 "a8fd")
type HashPrefix string

func (p HashPrefix) String() string { return string(p) }

// Normalize 去掉空白并统一为小写
func (p HashPrefix) Normalize() HashPrefix {
	return HashPrefix(strings.ToLower(strings.TrimSpace(string(p))))
}

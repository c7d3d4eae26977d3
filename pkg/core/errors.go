package core

import "errors"

// 错误分类
// 所有失败都只影响当前操作：不重试、不回滚 (数据文件对引擎只读)
var (
	// ErrIO 文件不存在、不可读，或读取中途失败
	ErrIO = errors.New("i/o error")

	// ErrIndexOutOfRange 请求的块号不在 [0, blockCount) 内
	ErrIndexOutOfRange = errors.New("block index out of range")

	// ErrInvalidInput 例如没有任何块可以构树，或块大小非法
	ErrInvalidInput = errors.New("invalid input")

	// ErrRootMismatch 清单重算出的根与受信任的根不一致
	ErrRootMismatch = errors.New("root digest mismatch")
)

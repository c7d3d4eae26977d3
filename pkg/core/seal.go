package core

import (
	"fmt"
	"time"

	"blockverity/pkg/types"
)

// Seal 是一次生成的受信任记录：根摘要 + 生成参数 + 清单对象的引用
// 它本身不参与逐块校验，只用于在校验前认证清单 (重算根并比对)。
type Seal struct {
	hash     types.Hash `cbor:"-"`
	rawBytes []byte     `cbor:"-"`

	TypeVal ObjectType `cbor:"t"`

	Root     Link `cbor:"r"`
	Manifest Link `cbor:"m"`

	BlockSize  int64 `cbor:"bs"`
	BlockCount int64 `cbor:"bc"`
	DataSize   int64 `cbor:"ds"`

	CreatedAt int64 `cbor:"ts"`
}

// NewSeal 创建并密封 (计算 ID)
func NewSeal(root, manifestID types.Hash, blockSize int, blockCount int, dataSize int64) (*Seal, error) {
	if blockSize <= 0 {
		return nil, fmt.Errorf("%w: block size must be positive, got %d", ErrInvalidInput, blockSize)
	}
	s := &Seal{
		TypeVal:    TypeSeal,
		Root:       NewLink(root),
		Manifest:   NewLink(manifestID),
		BlockSize:  int64(blockSize),
		BlockCount: int64(blockCount),
		DataSize:   dataSize,
		CreatedAt:  time.Now().Unix(),
	}
	if err := s.seal(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Seal) seal() error {
	h, b, err := CalculateHash(s)
	if err != nil {
		return err
	}
	s.hash = h
	s.rawBytes = b
	return nil
}

// DecodeSeal 从存储读出的字节还原 Seal，并重新计算 ID
func DecodeSeal(data []byte) (*Seal, error) {
	var s Seal
	if err := DecodeObject(data, &s); err != nil {
		return nil, fmt.Errorf("failed to decode seal: %w", err)
	}
	if s.TypeVal != TypeSeal {
		return nil, fmt.Errorf("object is not a seal, got: %q", s.TypeVal)
	}
	if err := s.seal(); err != nil {
		return nil, err
	}
	return &s, nil
}

func (s *Seal) Type() ObjectType { return TypeSeal }
func (s *Seal) ID() types.Hash   { return s.hash }
func (s *Seal) Bytes() []byte    { return s.rawBytes }

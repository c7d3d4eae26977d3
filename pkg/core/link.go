package core

import (
	"encoding/hex"
	"fmt"

	"blockverity/pkg/types"

	"github.com/fxamacker/cbor/v2"
)

// Link 是 Seal 中对另一个摘要的引用 (根摘要或清单对象)
// CBOR 层面序列化为 Tag 42(0x00 + HashBytes)，与 IPLD 的 CID 链接一致，
// 比直接存 64 字节的 hex 文本更紧凑。
type Link struct {
	Hash types.Hash
}

const (
	linkTagNumber = 42
)

func NewLink(hash types.Hash) Link {
	return Link{Hash: hash}
}

// MarshalCBOR 规范：Tag 42, Content = [0x00, byte1, byte2...]
func (l Link) MarshalCBOR() ([]byte, error) {
	if !l.Hash.IsValid() {
		return nil, fmt.Errorf("invalid hash format in link: %q", l.Hash)
	}
	hashBytes, err := hex.DecodeString(string(l.Hash))
	if err != nil {
		return nil, fmt.Errorf("invalid hash format in link: %w", err)
	}

	// 0x00: Multibase Identity 前缀
	cidBytes := append([]byte{0x00}, hashBytes...)

	return em.Marshal(cbor.Tag{
		Number:  linkTagNumber,
		Content: cidBytes,
	})
}

func (l *Link) UnmarshalCBOR(data []byte) error {
	var tag cbor.Tag
	if err := dm.Unmarshal(data, &tag); err != nil {
		return err
	}

	if tag.Number != linkTagNumber {
		return fmt.Errorf("expected tag 42 for Link, got %d", tag.Number)
	}

	raw, ok := tag.Content.([]byte)
	if !ok {
		return fmt.Errorf("link content must be byte string")
	}
	if len(raw) < 1 {
		return fmt.Errorf("invalid link: empty content")
	}
	if raw[0] != 0x00 {
		return fmt.Errorf("invalid link: missing 0x00 multibase prefix")
	}
	if len(raw) != 33 {
		return fmt.Errorf("invalid link: expected 32 digest bytes, got %d", len(raw)-1)
	}

	l.Hash = types.Hash(hex.EncodeToString(raw[1:]))
	return nil
}

package core

import "blockverity/pkg/types"

// ManifestBlob 是清单文件的原始字节，按内容寻址
// 它不做 CBOR 编码：上传的就是磁盘上的文本，下载后可以直接落盘。
type ManifestBlob struct {
	hash types.Hash
	data []byte
}

func NewManifestBlob(data []byte) *ManifestBlob {
	return &ManifestBlob{
		hash: CalculateBlobHash(data),
		data: data,
	}
}

func (m *ManifestBlob) Type() ObjectType { return TypeManifest }
func (m *ManifestBlob) ID() types.Hash   { return m.hash }
func (m *ManifestBlob) Bytes() []byte    { return m.data }
func (m *ManifestBlob) Size() int64      { return int64(len(m.data)) }

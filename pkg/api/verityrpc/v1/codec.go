package verityrpcv1

import (
	"encoding/json"

	"google.golang.org/grpc/encoding"
)

// CodecName 是 gRPC content-subtype：application/grpc+json
const CodecName = "json"

// jsonCodec 让服务直接收发 Go 结构体，不依赖 protoc 生成的消息类型
type jsonCodec struct{}

func (jsonCodec) Marshal(v any) ([]byte, error)      { return json.Marshal(v) }
func (jsonCodec) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }
func (jsonCodec) Name() string                       { return CodecName }

func init() {
	encoding.RegisterCodec(jsonCodec{})
}

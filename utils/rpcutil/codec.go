// 提供connect使用的JSON编解码器
// 服务的请求和响应是普通Go结构体（车辆、快照），不经过protoc生成代码；
// proto消息（如emptypb.Empty）仍按protojson编码，以便与标准connect客户端互通
package rpcutil

import (
	"encoding/json"
	"fmt"

	"connectrpc.com/connect"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
)

// CodecName 编解码器名称，对应Content-Type application/json
const CodecName = "json"

// Codec JSON编解码器
type Codec struct{}

var _ connect.Codec = Codec{}

func (Codec) Name() string {
	return CodecName
}

// Marshal 编码，proto消息使用protojson，其他值使用encoding/json
func (Codec) Marshal(v any) ([]byte, error) {
	if m, ok := v.(proto.Message); ok {
		return protojson.Marshal(m)
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("rpcutil: marshal %T: %w", v, err)
	}
	return b, nil
}

// Unmarshal 解码，空消息体视为零值
func (Codec) Unmarshal(data []byte, v any) error {
	if m, ok := v.(proto.Message); ok {
		if len(data) == 0 {
			return nil
		}
		return protojson.UnmarshalOptions{DiscardUnknown: true}.Unmarshal(data, m)
	}
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("rpcutil: unmarshal %T: %w", v, err)
	}
	return nil
}

// HandlerOptions 服务端选项：注册JSON编解码器
func HandlerOptions(opts ...connect.HandlerOption) []connect.HandlerOption {
	return append([]connect.HandlerOption{connect.WithCodec(Codec{})}, opts...)
}

// ClientOptions 客户端选项：使用JSON编解码器
func ClientOptions(opts ...connect.ClientOption) []connect.ClientOption {
	return append([]connect.ClientOption{connect.WithCodec(Codec{})}, opts...)
}

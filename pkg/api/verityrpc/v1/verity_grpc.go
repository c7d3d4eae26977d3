package verityrpcv1

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	VerityService_Generate_FullMethodName    = "/verity.v1.VerityService/Generate"
	VerityService_VerifyBlock_FullMethodName = "/verity.v1.VerityService/VerifyBlock"
	VerityService_VerifyAll_FullMethodName   = "/verity.v1.VerityService/VerifyAll"
	VerityService_Audit_FullMethodName       = "/verity.v1.VerityService/Audit"
	VerityService_Prove_FullMethodName       = "/verity.v1.VerityService/Prove"
)

// VerityServiceClient 远程调用服务端本地数据文件的生成和校验
type VerityServiceClient interface {
	Generate(ctx context.Context, in *GenerateRequest, opts ...grpc.CallOption) (*GenerateResponse, error)
	VerifyBlock(ctx context.Context, in *VerifyBlockRequest, opts ...grpc.CallOption) (*VerifyBlockResponse, error)
	VerifyAll(ctx context.Context, in *VerifyAllRequest, opts ...grpc.CallOption) (*VerifyAllResponse, error)
	Audit(ctx context.Context, in *AuditRequest, opts ...grpc.CallOption) (*AuditResponse, error)
	Prove(ctx context.Context, in *ProveRequest, opts ...grpc.CallOption) (*ProveResponse, error)
}

type verityServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewVerityServiceClient(cc grpc.ClientConnInterface) VerityServiceClient {
	return &verityServiceClient{cc}
}

// 每次调用都强制使用 JSON codec
func callOpts(opts []grpc.CallOption) []grpc.CallOption {
	return append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
}

func (c *verityServiceClient) Generate(ctx context.Context, in *GenerateRequest, opts ...grpc.CallOption) (*GenerateResponse, error) {
	out := new(GenerateResponse)
	if err := c.cc.Invoke(ctx, VerityService_Generate_FullMethodName, in, out, callOpts(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *verityServiceClient) VerifyBlock(ctx context.Context, in *VerifyBlockRequest, opts ...grpc.CallOption) (*VerifyBlockResponse, error) {
	out := new(VerifyBlockResponse)
	if err := c.cc.Invoke(ctx, VerityService_VerifyBlock_FullMethodName, in, out, callOpts(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *verityServiceClient) VerifyAll(ctx context.Context, in *VerifyAllRequest, opts ...grpc.CallOption) (*VerifyAllResponse, error) {
	out := new(VerifyAllResponse)
	if err := c.cc.Invoke(ctx, VerityService_VerifyAll_FullMethodName, in, out, callOpts(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *verityServiceClient) Audit(ctx context.Context, in *AuditRequest, opts ...grpc.CallOption) (*AuditResponse, error) {
	out := new(AuditResponse)
	if err := c.cc.Invoke(ctx, VerityService_Audit_FullMethodName, in, out, callOpts(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *verityServiceClient) Prove(ctx context.Context, in *ProveRequest, opts ...grpc.CallOption) (*ProveResponse, error) {
	out := new(ProveResponse)
	if err := c.cc.Invoke(ctx, VerityService_Prove_FullMethodName, in, out, callOpts(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

// VerityServiceServer 由 pkg/service 实现
// 嵌入 UnimplementedVerityServiceServer 以便将来新增方法时保持兼容
type VerityServiceServer interface {
	Generate(context.Context, *GenerateRequest) (*GenerateResponse, error)
	VerifyBlock(context.Context, *VerifyBlockRequest) (*VerifyBlockResponse, error)
	VerifyAll(context.Context, *VerifyAllRequest) (*VerifyAllResponse, error)
	Audit(context.Context, *AuditRequest) (*AuditResponse, error)
	Prove(context.Context, *ProveRequest) (*ProveResponse, error)
	mustEmbedUnimplementedVerityServiceServer()
}

type UnimplementedVerityServiceServer struct{}

func (UnimplementedVerityServiceServer) Generate(context.Context, *GenerateRequest) (*GenerateResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method Generate not implemented")
}
func (UnimplementedVerityServiceServer) VerifyBlock(context.Context, *VerifyBlockRequest) (*VerifyBlockResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method VerifyBlock not implemented")
}
func (UnimplementedVerityServiceServer) VerifyAll(context.Context, *VerifyAllRequest) (*VerifyAllResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method VerifyAll not implemented")
}
func (UnimplementedVerityServiceServer) Audit(context.Context, *AuditRequest) (*AuditResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method Audit not implemented")
}
func (UnimplementedVerityServiceServer) Prove(context.Context, *ProveRequest) (*ProveResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method Prove not implemented")
}
func (UnimplementedVerityServiceServer) mustEmbedUnimplementedVerityServiceServer() {}

func RegisterVerityServiceServer(s grpc.ServiceRegistrar, srv VerityServiceServer) {
	s.RegisterService(&VerityService_ServiceDesc, srv)
}

// unaryHandler 把具体的请求类型和方法接到 grpc.MethodHandler 上
func unaryHandler[Req any, Resp any](fullMethod string, call func(VerityServiceServer, context.Context, *Req) (*Resp, error)) func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(VerityServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(VerityServiceServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

var VerityService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: "verity.v1.VerityService",
	HandlerType: (*VerityServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Generate",
			Handler:    unaryHandler(VerityService_Generate_FullMethodName, VerityServiceServer.Generate),
		},
		{
			MethodName: "VerifyBlock",
			Handler:    unaryHandler(VerityService_VerifyBlock_FullMethodName, VerityServiceServer.VerifyBlock),
		},
		{
			MethodName: "VerifyAll",
			Handler:    unaryHandler(VerityService_VerifyAll_FullMethodName, VerityServiceServer.VerifyAll),
		},
		{
			MethodName: "Audit",
			Handler:    unaryHandler(VerityService_Audit_FullMethodName, VerityServiceServer.Audit),
		},
		{
			MethodName: "Prove",
			Handler:    unaryHandler(VerityService_Prove_FullMethodName, VerityServiceServer.Prove),
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "verity/v1",
}

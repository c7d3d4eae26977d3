package server

import (
	verityrpc "blockverity/pkg/api/verityrpc/v1"
	"blockverity/pkg/app"
	"blockverity/pkg/service"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// New 组装 gRPC 服务：校验服务 + 标准健康检查
// Recovery 在 Logging 内层，Logging 才能看到 panic 转换后的状态码。
func New(application *app.App, opts ...grpc.ServerOption) *grpc.Server {
	logger := application.Logger
	opts = append([]grpc.ServerOption{
		grpc.ChainUnaryInterceptor(
			UnaryLoggingInterceptor(logger),
			UnaryRecoveryInterceptor(logger),
		),
		grpc.ChainStreamInterceptor(
			StreamLoggingInterceptor(logger),
			StreamRecoveryInterceptor(logger),
		),
	}, opts...)

	s := grpc.NewServer(opts...)
	verityrpc.RegisterVerityServiceServer(s, service.NewVerityService(application))

	hs := health.NewServer()
	hs.SetServingStatus(verityrpc.VerityService_ServiceDesc.ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(s, hs)
	return s
}

package client

import (
	"fmt"
	"time"

	verityrpc "blockverity/pkg/api/verityrpc/v1"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/keepalive"
)

// VerityClient 封装了与 verity-server 的连接
type VerityClient struct {
	conn *grpc.ClientConn

	Verity verityrpc.VerityServiceClient
	Health healthpb.HealthClient
}

// NewVerityClient 创建客户端；连接在后台建立，网络不通不会在这里报错
// 额外的 DialOption 追加在默认值之后 (测试里用 bufconn 的 dialer)。
func NewVerityClient(addr string, extra ...grpc.DialOption) (*VerityClient, error) {
	opts := []grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithKeepaliveParams(keepalive.ClientParameters{
			Time:                10 * time.Second,
			Timeout:             20 * time.Second,
			PermitWithoutStream: true,
		}),
	}
	opts = append(opts, extra...)

	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create grpc client for %s: %w", addr, err)
	}

	return &VerityClient{
		conn:   conn,
		Verity: verityrpc.NewVerityServiceClient(conn),
		Health: healthpb.NewHealthClient(conn),
	}, nil
}

func (c *VerityClient) Close() error {
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

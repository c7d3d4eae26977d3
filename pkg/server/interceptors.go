package server

import (
	"context"
	"runtime/debug"
	"time"

	"blockverity/pkg/logging"

	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// =============================================================================
// 1. Logging Interceptor (结构化日志)
// =============================================================================

// UnaryLoggingInterceptor 记录每个普通请求的方法、状态码和耗时
func UnaryLoggingInterceptor(logger logging.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		logRPC(logger, "unary", info.FullMethod, time.Since(start), err)
		return resp, err
	}
}

// StreamLoggingInterceptor 流式请求 (目前只有健康检查的 Watch)
func StreamLoggingInterceptor(logger logging.Logger) grpc.StreamServerInterceptor {
	return func(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		start := time.Now()
		err := handler(srv, ss)
		logRPC(logger, "stream", info.FullMethod, time.Since(start), err)
		return err
	}
}

func logRPC(logger logging.Logger, kind, method string, duration time.Duration, err error) {
	code := status.Code(err)
	entry := logger.WithFields(logrus.Fields{
		"kind":   kind,
		"method": method,
		"code":   code.String(),
		"dur":    duration,
	})

	switch code {
	case codes.OK:
		entry.Info("gRPC request")
	case codes.Internal, codes.Unknown:
		entry.WithError(err).Error("gRPC request")
	default:
		// OutOfRange / NotFound 之类属于调用方的问题
		entry.WithError(err).Warning("gRPC request")
	}
}

// =============================================================================
// 2. Recovery Interceptor
// =============================================================================

func UnaryRecoveryInterceptor(logger logging.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (resp any, err error) {
		defer func() {
			if r := recover(); r != nil {
				err = recoverFromPanic(logger, info.FullMethod, r)
			}
		}()
		return handler(ctx, req)
	}
}

func StreamRecoveryInterceptor(logger logging.Logger) grpc.StreamServerInterceptor {
	return func(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = recoverFromPanic(logger, info.FullMethod, r)
			}
		}()
		return handler(srv, ss)
	}
}

func recoverFromPanic(logger logging.Logger, method string, p any) error {
	logger.WithFields(logrus.Fields{
		"method": method,
		"panic":  p,
		"stack":  string(debug.Stack()),
	}).Error("panic recovered")
	return status.Errorf(codes.Internal, "internal server error: panic recovered")
}

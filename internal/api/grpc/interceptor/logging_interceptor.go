package interceptor

import (
	"context"
	"time"

	"lendahand-backend/internal/logger"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type LoggingInterceptor struct{}

func NewLoggingInterceptor() *LoggingInterceptor {
	return &LoggingInterceptor{}
}

// Unary returns a server interceptor that logs each call and converts panics
// into codes.Internal.
func (i *LoggingInterceptor) Unary() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (resp interface{}, err error) {
		start := time.Now()
		defer func() {
			if p := recover(); p != nil {
				logger.Error("Panic in gRPC handler", "method", info.FullMethod, "panic", p)
				err = status.Error(codes.Internal, "internal error")
			}
			code := status.Code(err)
			args := []any{"method", info.FullMethod, "code", code.String(), "duration_ms", time.Since(start).Milliseconds()}
			if code == codes.OK {
				logger.Debug("gRPC call", args...)
				return
			}
			logger.Warn("gRPC call failed", append(args, "error", err)...)
		}()
		return handler(ctx, req)
	}
}

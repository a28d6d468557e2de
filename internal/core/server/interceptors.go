package server

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/status"

	"github.com/Hollywood0805/Validation-engine-Backend/internal/metrics"
)

func unaryLoggingInterceptor(logger *zap.Logger, m metrics.Metrics) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		id, start := uuid.Must(uuid.NewV7()).String(), time.Now()
		resp, err := handler(ctx, req)
		observe(logger, m, id, info.FullMethod, start, err)
		return resp, err
	}
}

func streamLoggingInterceptor(logger *zap.Logger, m metrics.Metrics) grpc.StreamServerInterceptor {
	return func(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		id, start := uuid.Must(uuid.NewV7()).String(), time.Now()
		err := handler(srv, ss)
		observe(logger, m, id, info.FullMethod, start, err)
		return err
	}
}

func observe(logger *zap.Logger, m metrics.Metrics, requestID, method string, start time.Time, err error) {
	elapsed := time.Since(start)
	code := status.Code(err)
	if m != nil {
		m.ObserveGRPCRequest(method, code.String(), elapsed.Seconds())
	}

	fields := []zap.Field{
		zap.String("request_id", requestID),
		zap.String("method", method),
		zap.String("code", code.String()),
		zap.Duration("elapsed", elapsed),
	}
	if err != nil {
		logger.Warn("grpc request failed", append(fields, zap.Error(err))...)
		return
	}
	logger.Info("grpc request", fields...)
}

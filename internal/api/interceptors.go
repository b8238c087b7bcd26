package api

import (
	"context"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/signalsfoundry/impact-simulator/internal/logging"
)

const requestIDMetadataKey = "x-request-id"

// RequestIDUnaryServerInterceptor ensures a request_id is present on the
// context, sourcing it from inbound metadata if provided, and attaches a
// per-request logger annotated with request_id and method. The id is echoed
// back in the response header.
func RequestIDUnaryServerInterceptor(base logging.Logger) grpc.UnaryServerInterceptor {
	if base == nil {
		base = logging.Noop()
	}
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		ctx, reqLog := requestContext(ctx, base, info.FullMethod)
		start := time.Now()

		resp, err := handler(ctx, req)
		logCompletion(ctx, reqLog, start, err)
		return resp, err
	}
}

// RequestIDStreamServerInterceptor is the streaming counterpart of
// RequestIDUnaryServerInterceptor.
func RequestIDStreamServerInterceptor(base logging.Logger) grpc.StreamServerInterceptor {
	if base == nil {
		base = logging.Noop()
	}
	return func(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		ctx, reqLog := requestContext(ss.Context(), base, info.FullMethod)
		start := time.Now()

		err := handler(srv, &contextStream{ServerStream: ss, ctx: ctx})
		logCompletion(ctx, reqLog, start, err)
		return err
	}
}

func requestContext(ctx context.Context, base logging.Logger, method string) (context.Context, logging.Logger) {
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if incoming := firstHeader(md, requestIDMetadataKey); incoming != "" {
			ctx = logging.ContextWithRequestID(ctx, incoming)
		}
	}

	ctx, reqLog := logging.WithRequestLogger(ctx, base.With(logging.String("method", method)))
	ctx = logging.ContextWithLogger(ctx, reqLog)
	_ = grpc.SetHeader(ctx, metadata.Pairs(requestIDMetadataKey, logging.RequestIDFromContext(ctx)))
	return ctx, reqLog
}

func logCompletion(ctx context.Context, log logging.Logger, start time.Time, err error) {
	fields := []logging.Field{
		logging.String("code", status.Code(err).String()),
		logging.Duration("duration", time.Since(start)),
	}
	if err != nil {
		log.Warn(ctx, "rpc failed", append(fields, logging.Err(err))...)
		return
	}
	log.Debug(ctx, "rpc handled", fields...)
}

type contextStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (s *contextStream) Context() context.Context { return s.ctx }

func firstHeader(md metadata.MD, key string) string {
	if md == nil {
		return ""
	}
	if vals := md.Get(key); len(vals) > 0 {
		return vals[0]
	}
	return ""
}

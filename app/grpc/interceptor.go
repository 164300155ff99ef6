package grpc

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/vibast-solutions/ms-go-athlete-subscriptions/app/messaging"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

const requestIDHeader = "x-request-id"

type requestIDContextKey struct{}

func RequestIDInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, _ *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		requestID := requestIDFromMetadata(ctx)
		if requestID == "" {
			requestID = fmt.Sprintf("grpc-%s", uuid.NewString())
		}

		ctx = ContextWithRequestID(ctx, requestID)
		_ = grpc.SetHeader(ctx, metadata.Pairs(requestIDHeader, requestID))

		return handler(ctx, req)
	}
}

// OutgoingRequestIDInterceptor forwards the request id carried by ctx to the
// peer being called.
func OutgoingRequestIDInterceptor() grpc.UnaryClientInterceptor {
	return func(ctx context.Context, method string, req, reply interface{}, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
		if requestID := RequestIDFromContext(ctx); requestID != "" {
			ctx = metadata.AppendToOutgoingContext(ctx, requestIDHeader, requestID)
		}
		return invoker(ctx, method, req, reply, cc, opts...)
	}
}

func LoggingInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		latency := time.Since(start)

		fields := logrus.Fields{
			"method":     info.FullMethod,
			"grpc_code":  status.Code(err).String(),
			"latency":    latency.String(),
			"latency_ns": latency.Nanoseconds(),
		}
		if pattern, ok := patternOf(req); ok {
			fields["pattern"] = pattern.String()
		}
		if requestID := RequestIDFromContext(ctx); requestID != "" {
			fields["request_id"] = requestID
		}

		entry := logrus.WithFields(fields)
		if err != nil {
			entry.WithError(err).Warn("grpc_request")
			return resp, err
		}
		entry.Info("grpc_request")
		return resp, nil
	}
}

func RecoveryInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (_ interface{}, err error) {
		defer func() {
			if rec := recover(); rec != nil {
				entry := logrus.WithField("method", info.FullMethod).WithField("panic", rec)
				if requestID := RequestIDFromContext(ctx); requestID != "" {
					entry = entry.WithField("request_id", requestID)
				}
				entry.WithField("stack", string(debug.Stack())).Error("grpc_panic_recovered")
				err = status.Error(codes.Internal, "internal server error")
			}
		}()

		return handler(ctx, req)
	}
}

func ContextWithRequestID(ctx context.Context, requestID string) context.Context {
	if requestID == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDContextKey{}, requestID)
}

func RequestIDFromContext(ctx context.Context) string {
	requestID, _ := ctx.Value(requestIDContextKey{}).(string)
	return requestID
}

func loggerWithContext(ctx context.Context) *logrus.Entry {
	entry := logrus.NewEntry(logrus.StandardLogger())
	if requestID := RequestIDFromContext(ctx); requestID != "" {
		entry = entry.WithField("request_id", requestID)
	}
	return entry
}

func patternOf(req interface{}) (messaging.Pattern, bool) {
	envelope, ok := req.(*structpb.Struct)
	if !ok {
		return messaging.Pattern{}, false
	}
	pattern, _, err := messaging.ParseRequest(envelope)
	return pattern, err == nil
}

func requestIDFromMetadata(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	values := md.Get(requestIDHeader)
	if len(values) == 0 {
		return ""
	}
	return values[0]
}

package messaging

import (
	"context"
	"sync"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// HandlerFunc answers one pattern. Returning a nil value sends null.
type HandlerFunc func(ctx context.Context, data *structpb.Struct) (*structpb.Value, error)

type PatternServer interface {
	Send(ctx context.Context, req *structpb.Struct) (*structpb.Value, error)
}

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*PatternServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Send", Handler: sendHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "messaging/pattern.proto",
}

func RegisterPatternServer(s grpc.ServiceRegistrar, srv PatternServer) {
	s.RegisterService(&ServiceDesc, srv)
}

func sendHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(PatternServer).Send(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: SendMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(PatternServer).Send(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

// Router dispatches incoming requests to the handler registered for their pattern.
type Router struct {
	mu       sync.RWMutex
	handlers map[Pattern]HandlerFunc
}

func NewRouter() *Router {
	return &Router{handlers: make(map[Pattern]HandlerFunc)}
}

func (r *Router) Handle(pattern Pattern, handler HandlerFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[pattern] = handler
}

func (r *Router) Send(ctx context.Context, req *structpb.Struct) (*structpb.Value, error) {
	pattern, data, err := ParseRequest(req)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	r.mu.RLock()
	handler, ok := r.handlers[pattern]
	r.mu.RUnlock()
	if !ok {
		return nil, status.Errorf(codes.Unimplemented, "no handler for pattern %s", pattern)
	}

	value, err := handler(ctx, data)
	if err != nil {
		return nil, err
	}
	if value == nil {
		return structpb.NewNullValue(), nil
	}
	return value, nil
}

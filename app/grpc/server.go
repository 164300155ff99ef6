package grpc

import (
	"context"
	"errors"
	"math"

	"github.com/vibast-solutions/ms-go-athlete-subscriptions/app/apperror"
	"github.com/vibast-solutions/ms-go-athlete-subscriptions/app/mapper"
	"github.com/vibast-solutions/ms-go-athlete-subscriptions/app/messaging"
	"github.com/vibast-solutions/ms-go-athlete-subscriptions/app/service"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

var GetByOwnerPattern = messaging.Pattern{Role: "subscription", Cmd: "getByOwner"}

var codeByKind = map[apperror.Kind]codes.Code{
	apperror.KindNotFound:           codes.NotFound,
	apperror.KindPreconditionFailed: codes.FailedPrecondition,
	apperror.KindRequestTimeout:     codes.DeadlineExceeded,
	apperror.KindUnauthorized:       codes.Unauthenticated,
	apperror.KindTransport:          codes.Unavailable,
	apperror.KindInvalidRequest:     codes.InvalidArgument,
}

// Server answers peer services over the pattern transport.
type Server struct {
	subscriptionService *service.SubscriptionService
	router              *messaging.Router
}

func NewServer(subscriptionService *service.SubscriptionService) *Server {
	s := &Server{
		subscriptionService: subscriptionService,
		router:              messaging.NewRouter(),
	}
	s.router.Handle(GetByOwnerPattern, s.GetByOwner)
	return s
}

func (s *Server) Send(ctx context.Context, req *structpb.Struct) (*structpb.Value, error) {
	return s.router.Send(ctx, req)
}

// GetByOwner returns the owner's subscription, or null when there is none.
func (s *Server) GetByOwner(ctx context.Context, data *structpb.Struct) (*structpb.Value, error) {
	l := loggerWithContext(ctx)

	ownerID, err := ownerIDFromData(data)
	if err != nil {
		l.WithError(err).Debug("Get by owner validation failed")
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	item, err := s.subscriptionService.GetByOwner(ctx, ownerID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, nil
		}
		l.WithError(err).Error("Get by owner failed")
		return nil, StatusFromError(err)
	}

	record, err := mapper.SubscriptionToStruct(item)
	if err != nil {
		l.WithError(err).Error("Encode subscription failed")
		return nil, status.Error(codes.Internal, "internal server error")
	}
	return structpb.NewStructValue(record), nil
}

// StatusFromError converts a classified error into a gRPC status. Unclassified
// errors become Internal without leaking their text.
func StatusFromError(err error) error {
	if err == nil {
		return nil
	}
	code, ok := codeByKind[apperror.KindOf(err)]
	if !ok {
		return status.Error(codes.Internal, "internal server error")
	}
	return status.Error(code, err.Error())
}

func ownerIDFromData(data *structpb.Struct) (int64, error) {
	raw, ok := data.GetFields()["ownerId"]
	if !ok {
		return 0, errors.New("ownerId is required")
	}
	number, ok := raw.GetKind().(*structpb.Value_NumberValue)
	if !ok {
		return 0, errors.New("ownerId must be a number")
	}
	value := number.NumberValue
	if value <= 0 || value != math.Trunc(value) || value > math.MaxInt64 {
		return 0, errors.New("ownerId must be a positive integer")
	}
	return int64(value), nil
}

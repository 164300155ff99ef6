//go:build e2e
// +build e2e

package e2e

import (
	"context"
	"net"

	"github.com/vibast-solutions/ms-go-athlete-subscriptions/app/auth"
	"github.com/vibast-solutions/ms-go-athlete-subscriptions/app/messaging"
	"github.com/vibast-solutions/ms-go-athlete-subscriptions/app/reference"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// Addresses the service under test must be configured with
// (USER_SERVICE_GRPC_ADDR, CATALOG_SERVICE_GRPC_ADDR, AUTH_SERVICE_GRPC_ADDR).
const (
	userMockAddr    = "127.0.0.1:38091"
	catalogMockAddr = "127.0.0.1:38092"
	authMockAddr    = "127.0.0.1:38093"

	validBearerToken = "e2e-valid-token"
	missingID        = 900001
)

func startPeerMocks() (func(), error) {
	userRouter := messaging.NewRouter()
	catalogRouter := messaging.NewRouter()
	for _, kind := range []reference.Kind{
		reference.KindUser,
		reference.KindSubscriptionType,
		reference.KindLevel,
		reference.KindAddon,
		reference.KindPaymentMethod,
	} {
		route, _ := reference.RouteFor(kind)
		router := catalogRouter
		if kind == reference.KindUser {
			router = userRouter
		}
		router.Handle(route.Pattern, lookupHandler(route.PayloadKey))
	}

	authRouter := messaging.NewRouter()
	authRouter.Handle(auth.CheckPattern, func(_ context.Context, data *structpb.Struct) (*structpb.Value, error) {
		return structpb.NewBoolValue(data.GetFields()["jwt"].GetStringValue() == validBearerToken), nil
	})

	var servers []*grpc.Server
	stop := func() {
		for _, srv := range servers {
			srv.GracefulStop()
		}
	}
	for addr, router := range map[string]*messaging.Router{
		userMockAddr:    userRouter,
		catalogMockAddr: catalogRouter,
		authMockAddr:    authRouter,
	} {
		lis, err := net.Listen("tcp", addr)
		if err != nil {
			stop()
			return nil, err
		}
		srv := grpc.NewServer()
		messaging.RegisterPatternServer(srv, router)
		go func() {
			_ = srv.Serve(lis)
		}()
		servers = append(servers, srv)
	}
	return stop, nil
}

// lookupHandler knows every id below missingID.
func lookupHandler(payloadKey string) messaging.HandlerFunc {
	return func(_ context.Context, data *structpb.Struct) (*structpb.Value, error) {
		id := data.GetFields()[payloadKey].GetNumberValue()
		if id <= 0 || id >= missingID {
			return nil, nil
		}
		return structpb.NewValue(map[string]interface{}{"id": id})
	}
}

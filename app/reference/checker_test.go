package reference

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vibast-solutions/ms-go-athlete-subscriptions/app/messaging"
	"github.com/vibast-solutions/ms-go-athlete-subscriptions/app/messaging/messagingtest"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

func catalogRouter(t *testing.T, known map[int64]bool) *messaging.Router {
	t.Helper()
	router := messaging.NewRouter()
	for kind, route := range routes {
		kind, route := kind, route
		if kind == KindUser {
			continue
		}
		router.Handle(route.Pattern, func(_ context.Context, data *structpb.Struct) (*structpb.Value, error) {
			raw, ok := data.GetFields()[route.PayloadKey]
			if !ok {
				return nil, status.Errorf(codes.InvalidArgument, "missing %s", route.PayloadKey)
			}
			id := int64(raw.GetNumberValue())
			if !known[id] {
				return nil, nil
			}
			return structpb.NewValue(map[string]interface{}{"id": float64(id), "kind": string(kind)})
		})
	}
	return router
}

func TestCheckExistsFoundAndNotFound(t *testing.T) {
	catalog := messagingtest.NewClient(t, catalogRouter(t, map[int64]bool{10: true}))
	checker := NewRemoteChecker(nil, catalog, time.Second, nil)

	for _, kind := range []Kind{KindSubscriptionType, KindLevel, KindAddon, KindPaymentMethod} {
		t.Run(string(kind), func(t *testing.T) {
			assert.Equal(t, OutcomeFound, checker.CheckExists(context.Background(), kind, 10).Outcome)
			assert.Equal(t, OutcomeNotFound, checker.CheckExists(context.Background(), kind, 11).Outcome)
		})
	}
}

func TestCheckExistsUsesUserPayloadKey(t *testing.T) {
	router := messaging.NewRouter()
	var gotKey string
	router.Handle(messaging.Pattern{Role: "user", Cmd: "getById"}, func(_ context.Context, data *structpb.Struct) (*structpb.Value, error) {
		for key := range data.GetFields() {
			gotKey = key
		}
		return structpb.NewBoolValue(true), nil
	})
	users := messagingtest.NewClient(t, router)
	checker := NewRemoteChecker(users, nil, time.Second, nil)

	result := checker.CheckExists(context.Background(), KindUser, 1)
	require.True(t, result.Found())
	assert.Equal(t, "idDeportista", gotKey)
}

func TestCheckExistsMapsNotFoundStatus(t *testing.T) {
	router := messaging.NewRouter()
	router.Handle(messaging.Pattern{Role: "medioPago", Cmd: "getById"}, func(context.Context, *structpb.Struct) (*structpb.Value, error) {
		return nil, status.Error(codes.NotFound, "payment method not found")
	})
	checker := NewRemoteChecker(nil, messagingtest.NewClient(t, router), time.Second, nil)

	assert.Equal(t, OutcomeNotFound, checker.CheckExists(context.Background(), KindPaymentMethod, 3).Outcome)
}

func TestCheckExistsTimesOut(t *testing.T) {
	router := messaging.NewRouter()
	router.Handle(messaging.Pattern{Role: "nivelPlan", Cmd: "getById"}, func(ctx context.Context, _ *structpb.Struct) (*structpb.Value, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})
	checker := NewRemoteChecker(nil, messagingtest.NewClient(t, router), 50*time.Millisecond, nil)

	start := time.Now()
	result := checker.CheckExists(context.Background(), KindLevel, 2)

	assert.Equal(t, OutcomeTimedOut, result.Outcome)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestCheckExistsTransportError(t *testing.T) {
	router := messaging.NewRouter()
	router.Handle(messaging.Pattern{Role: "suscripcion", Cmd: "getById"}, func(context.Context, *structpb.Struct) (*structpb.Value, error) {
		return nil, status.Error(codes.Unavailable, "catalog down")
	})
	checker := NewRemoteChecker(nil, messagingtest.NewClient(t, router), time.Second, nil)

	result := checker.CheckExists(context.Background(), KindSubscriptionType, 10)
	assert.Equal(t, OutcomeTransportError, result.Outcome)
	assert.Error(t, result.Err)
}

type stuckSender struct {
	release chan struct{}
}

func (s *stuckSender) Send(context.Context, messaging.Pattern, map[string]interface{}) (*structpb.Value, error) {
	<-s.release
	return structpb.NewBoolValue(true), nil
}

func TestCheckExistsAbandonsSenderIgnoringDeadline(t *testing.T) {
	sender := &stuckSender{release: make(chan struct{})}
	defer close(sender.release)
	checker := NewRemoteChecker(sender, sender, 30*time.Millisecond, nil)

	start := time.Now()
	result := checker.CheckExists(context.Background(), KindUser, 1)

	assert.Equal(t, OutcomeTimedOut, result.Outcome)
	assert.True(t, errors.Is(result.Err, context.DeadlineExceeded))
	assert.Less(t, time.Since(start), time.Second)
}

func TestCheckExistsUnknownKind(t *testing.T) {
	checker := NewRemoteChecker(nil, nil, time.Second, nil)

	result := checker.CheckExists(context.Background(), Kind("coach"), 1)
	assert.Equal(t, OutcomeTransportError, result.Outcome)
	assert.ErrorIs(t, result.Err, ErrUnknownKind)
}

func TestCheckExistsRecordsMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)
	catalog := messagingtest.NewClient(t, catalogRouter(t, map[int64]bool{5: true}))
	checker := NewRemoteChecker(nil, catalog, time.Second, metrics)

	checker.CheckExists(context.Background(), KindAddon, 5)
	checker.CheckExists(context.Background(), KindAddon, 6)

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.CheckOutcome.WithLabelValues("add-on", "found")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.CheckOutcome.WithLabelValues("add-on", "not_found")))
}

func TestParseKind(t *testing.T) {
	kind, err := ParseKind("payment-method")
	require.NoError(t, err)
	assert.Equal(t, KindPaymentMethod, kind)

	_, err = ParseKind("coach")
	assert.ErrorIs(t, err, ErrUnknownKind)
}

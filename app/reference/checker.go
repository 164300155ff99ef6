package reference

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/vibast-solutions/ms-go-athlete-subscriptions/app/factory"
	"github.com/vibast-solutions/ms-go-athlete-subscriptions/app/messaging"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

const DefaultTimeout = 5 * time.Second

var (
	ErrUnknownKind = errors.New("unknown reference kind")
	ErrNoClient    = errors.New("no client configured for reference kind")
)

// Kind names the catalog that owns an identifier.
type Kind string

const (
	KindUser             Kind = "user"
	KindSubscriptionType Kind = "subscription-type"
	KindLevel            Kind = "level"
	KindAddon            Kind = "add-on"
	KindPaymentMethod    Kind = "payment-method"
)

// Outcome is the tagged result of a single existence check.
type Outcome int

const (
	OutcomeFound Outcome = iota
	OutcomeNotFound
	OutcomeTimedOut
	OutcomeTransportError
)

func (o Outcome) String() string {
	switch o {
	case OutcomeFound:
		return "found"
	case OutcomeNotFound:
		return "not_found"
	case OutcomeTimedOut:
		return "timed_out"
	case OutcomeTransportError:
		return "transport_error"
	default:
		return "unknown"
	}
}

type Result struct {
	Outcome Outcome
	Err     error
}

func (r Result) Found() bool {
	return r.Outcome == OutcomeFound
}

type Checker interface {
	CheckExists(ctx context.Context, kind Kind, id int64) Result
}

// Route is the pattern and payload key a kind is looked up with.
type Route struct {
	Pattern    messaging.Pattern
	PayloadKey string
}

var routes = map[Kind]Route{
	KindUser:             {Pattern: messaging.Pattern{Role: "user", Cmd: "getById"}, PayloadKey: "idDeportista"},
	KindSubscriptionType: {Pattern: messaging.Pattern{Role: "suscripcion", Cmd: "getById"}, PayloadKey: "suscripcionId"},
	KindLevel:            {Pattern: messaging.Pattern{Role: "nivelPlan", Cmd: "getById"}, PayloadKey: "nivelPlanId"},
	KindAddon:            {Pattern: messaging.Pattern{Role: "complementoPlan", Cmd: "getById"}, PayloadKey: "idComplementoPlan"},
	KindPaymentMethod:    {Pattern: messaging.Pattern{Role: "medioPago", Cmd: "getById"}, PayloadKey: "idMedioPago"},
}

func RouteFor(kind Kind) (Route, bool) {
	route, ok := routes[kind]
	return route, ok
}

func ParseKind(value string) (Kind, error) {
	kind := Kind(value)
	if _, ok := routes[kind]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, value)
	}
	return kind, nil
}

type sender interface {
	Send(ctx context.Context, pattern messaging.Pattern, data map[string]interface{}) (*structpb.Value, error)
}

// RemoteChecker resolves user ids against the user service and every catalog kind
// against the catalog service.
type RemoteChecker struct {
	senders map[Kind]sender
	timeout time.Duration
	metrics *Metrics
	logger  logrus.FieldLogger
}

func NewRemoteChecker(userClient, catalogClient sender, timeout time.Duration, metrics *Metrics) *RemoteChecker {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &RemoteChecker{
		senders: map[Kind]sender{
			KindUser:             userClient,
			KindSubscriptionType: catalogClient,
			KindLevel:            catalogClient,
			KindAddon:            catalogClient,
			KindPaymentMethod:    catalogClient,
		},
		timeout: timeout,
		metrics: metrics,
		logger:  factory.NewModuleLogger("reference-checker"),
	}
}

func (c *RemoteChecker) CheckExists(ctx context.Context, kind Kind, id int64) Result {
	start := time.Now()
	result := c.check(ctx, kind, id)
	c.metrics.ObserveCheck(kind, result.Outcome, time.Since(start))

	if result.Outcome == OutcomeTimedOut || result.Outcome == OutcomeTransportError {
		c.logger.WithError(result.Err).
			WithField("kind", string(kind)).
			WithField("id", id).
			WithField("outcome", result.Outcome.String()).
			Warn("Reference check failed")
	}
	return result
}

func (c *RemoteChecker) check(ctx context.Context, kind Kind, id int64) Result {
	route, ok := routes[kind]
	if !ok {
		return Result{Outcome: OutcomeTransportError, Err: fmt.Errorf("%w: %s", ErrUnknownKind, kind)}
	}
	client := c.senders[kind]
	if client == nil {
		return Result{Outcome: OutcomeTransportError, Err: fmt.Errorf("%w: %s", ErrNoClient, kind)}
	}

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	type response struct {
		value *structpb.Value
		err   error
	}
	done := make(chan response, 1)
	go func() {
		value, err := client.Send(callCtx, route.Pattern, map[string]interface{}{route.PayloadKey: id})
		done <- response{value: value, err: err}
	}()

	select {
	case resp := <-done:
		return classify(resp.value, resp.err)
	case <-callCtx.Done():
		return classify(nil, callCtx.Err())
	}
}

func classify(value *structpb.Value, err error) Result {
	if err == nil {
		if messaging.Truthy(value) {
			return Result{Outcome: OutcomeFound}
		}
		return Result{Outcome: OutcomeNotFound}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return Result{Outcome: OutcomeTimedOut, Err: err}
	}
	switch status.Code(err) {
	case codes.DeadlineExceeded:
		return Result{Outcome: OutcomeTimedOut, Err: err}
	case codes.NotFound:
		return Result{Outcome: OutcomeNotFound, Err: err}
	default:
		return Result{Outcome: OutcomeTransportError, Err: err}
	}
}

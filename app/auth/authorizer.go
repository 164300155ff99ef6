package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/vibast-solutions/ms-go-athlete-subscriptions/app/factory"
	"github.com/vibast-solutions/ms-go-athlete-subscriptions/app/messaging"
	"google.golang.org/protobuf/types/known/structpb"
)

const DefaultTimeout = 5 * time.Second

var (
	CheckPattern = messaging.Pattern{Role: "auth", Cmd: "check"}

	ErrMissingToken     = errors.New("missing bearer token")
	ErrUnexpectedAnswer = errors.New("auth service answered with a non boolean value")
	ErrDenied           = errors.New("token rejected")
)

type sender interface {
	Send(ctx context.Context, pattern messaging.Pattern, data map[string]interface{}) (*structpb.Value, error)
}

// RemoteAuthorizer asks the auth service whether a token is acceptable. Every
// failure denies access.
type RemoteAuthorizer struct {
	client  sender
	timeout time.Duration
	logger  logrus.FieldLogger
}

func NewRemoteAuthorizer(client sender, timeout time.Duration) *RemoteAuthorizer {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &RemoteAuthorizer{
		client:  client,
		timeout: timeout,
		logger:  factory.NewModuleLogger("auth-authorizer"),
	}
}

// Authorize returns nil only when the auth service answered true.
func (a *RemoteAuthorizer) Authorize(ctx context.Context, token string) error {
	if token == "" {
		return ErrMissingToken
	}

	callCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	value, err := a.client.Send(callCtx, CheckPattern, map[string]interface{}{"jwt": token})
	if err != nil {
		a.logger.WithError(err).Warn("Auth check call failed")
		return fmt.Errorf("auth check failed: %w", err)
	}

	allowed, ok := value.GetKind().(*structpb.Value_BoolValue)
	if !ok {
		a.logger.WithField("value", value.String()).Warn("Auth check returned a non boolean answer")
		return ErrUnexpectedAnswer
	}
	if !allowed.BoolValue {
		return ErrDenied
	}
	return nil
}

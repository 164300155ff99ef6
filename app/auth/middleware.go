package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"github.com/vibast-solutions/ms-go-athlete-subscriptions/app/apperror"
	"github.com/vibast-solutions/ms-go-athlete-subscriptions/app/dto"
	"github.com/vibast-solutions/ms-go-athlete-subscriptions/app/factory"
)

type authorizer interface {
	Authorize(ctx context.Context, token string) error
}

type Middleware struct {
	authorizer authorizer
	logger     logrus.FieldLogger
}

func NewMiddleware(authorizer authorizer) *Middleware {
	return &Middleware{
		authorizer: authorizer,
		logger:     factory.NewModuleLogger("auth-middleware"),
	}
}

// RequireBearer rejects requests whose Authorization bearer token is not
// accepted by the auth service.
func (m *Middleware) RequireBearer() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			token := BearerToken(ctx.Request().Header.Get(echo.HeaderAuthorization))
			if err := m.authorizer.Authorize(ctx.Request().Context(), token); err != nil {
				factory.LoggerWithContext(m.logger, ctx).WithError(err).Info("Request not authorized")
				return ctx.JSON(http.StatusUnauthorized, &dto.ErrorResponse{
					Error: "unauthorized",
					Kind:  string(apperror.KindUnauthorized),
				})
			}
			return next(ctx)
		}
	}
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) string {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

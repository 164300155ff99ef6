package controller

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"github.com/vibast-solutions/ms-go-athlete-subscriptions/app/apperror"
	"github.com/vibast-solutions/ms-go-athlete-subscriptions/app/dto"
	"github.com/vibast-solutions/ms-go-athlete-subscriptions/app/factory"
	"github.com/vibast-solutions/ms-go-athlete-subscriptions/app/mapper"
	"github.com/vibast-solutions/ms-go-athlete-subscriptions/app/service"
	"github.com/vibast-solutions/ms-go-athlete-subscriptions/app/types"
	"github.com/vibast-solutions/ms-go-athlete-subscriptions/app/validation"
)

var statusByKind = map[apperror.Kind]int{
	apperror.KindNotFound:           http.StatusNotFound,
	apperror.KindPreconditionFailed: http.StatusPreconditionFailed,
	apperror.KindRequestTimeout:     http.StatusRequestTimeout,
	apperror.KindUnauthorized:       http.StatusUnauthorized,
	apperror.KindTransport:          http.StatusBadGateway,
	apperror.KindInvalidRequest:     http.StatusBadRequest,
}

type SubscriptionController struct {
	subscriptionService *service.SubscriptionService
	orchestrator        *validation.Orchestrator
	logger              logrus.FieldLogger
}

func NewSubscriptionController(
	subscriptionService *service.SubscriptionService,
	orchestrator *validation.Orchestrator,
) *SubscriptionController {
	return &SubscriptionController{
		subscriptionService: subscriptionService,
		orchestrator:        orchestrator,
		logger:              factory.NewModuleLogger("subscriptions-controller"),
	}
}

func (c *SubscriptionController) Health(ctx echo.Context) error {
	if err := c.subscriptionService.Health(ctx.Request().Context()); err != nil {
		factory.LoggerWithContext(c.logger, ctx).WithError(err).Warn("Database health check failed")
		return ctx.JSON(http.StatusServiceUnavailable, &dto.HealthResponse{
			Status:  "error",
			Details: map[string]dto.HealthIndicator{"database": {Status: "down"}},
		})
	}

	return ctx.JSON(http.StatusOK, &dto.HealthResponse{
		Status:  "ok",
		Details: map[string]dto.HealthIndicator{"database": {Status: "up"}},
	})
}

func (c *SubscriptionController) GetSubscription(ctx echo.Context) error {
	req, err := types.NewOwnerRequestFromContext(ctx)
	if err != nil {
		return c.writeError(ctx, http.StatusBadRequest, apperror.KindInvalidRequest, "invalid owner id")
	}
	if err := req.Validate(); err != nil {
		return c.writeError(ctx, http.StatusBadRequest, apperror.KindInvalidRequest, err.Error())
	}

	item, err := c.subscriptionService.GetByOwner(ctx.Request().Context(), req.GetOwnerId())
	if err != nil {
		return c.writeAppError(ctx, err, "Get subscription failed")
	}

	return ctx.JSON(http.StatusOK, &dto.SubscriptionEnvelopeResponse{
		Subscription: mapper.SubscriptionToResponse(item),
	})
}

func (c *SubscriptionController) CreateSubscription(ctx echo.Context) error {
	req, err := types.NewCreateSubscriptionRequestFromContext(ctx)
	if err != nil {
		return c.writeError(ctx, http.StatusBadRequest, apperror.KindInvalidRequest, "invalid request body")
	}
	if err := req.ValidateCreate(); err != nil {
		return c.writeError(ctx, http.StatusBadRequest, apperror.KindInvalidRequest, err.Error())
	}

	subscription := mapper.SubscriptionRequestToEntity(req)
	if err := c.orchestrator.Validate(ctx.Request().Context(), mapper.SubscriptionToCandidate(subscription)); err != nil {
		return c.writeAppError(ctx, err, "Create subscription validation failed")
	}

	created, err := c.subscriptionService.Create(ctx.Request().Context(), subscription)
	if err != nil {
		return c.writeAppError(ctx, err, "Create subscription failed")
	}

	return ctx.JSON(http.StatusCreated, &dto.SubscriptionEnvelopeResponse{
		Subscription: mapper.SubscriptionToResponse(created),
	})
}

// UpdateSubscription validates the merged record, so references that were not
// part of the request are checked again before the write.
func (c *SubscriptionController) UpdateSubscription(ctx echo.Context) error {
	req, err := types.NewUpdateSubscriptionRequestFromContext(ctx)
	if err != nil {
		return c.writeError(ctx, http.StatusBadRequest, apperror.KindInvalidRequest, "invalid request body")
	}
	if err := req.ValidateUpdate(); err != nil {
		return c.writeError(ctx, http.StatusBadRequest, apperror.KindInvalidRequest, err.Error())
	}

	current, err := c.subscriptionService.GetByOwner(ctx.Request().Context(), req.GetOwnerId())
	if err != nil {
		return c.writeAppError(ctx, err, "Update subscription lookup failed")
	}

	patch := mapper.SubscriptionRequestToPatch(req)
	if err := c.orchestrator.Validate(ctx.Request().Context(), mapper.SubscriptionToCandidate(patch.Apply(current))); err != nil {
		return c.writeAppError(ctx, err, "Update subscription validation failed")
	}

	updated, err := c.subscriptionService.Update(ctx.Request().Context(), req.GetOwnerId(), patch)
	if err != nil {
		return c.writeAppError(ctx, err, "Update subscription failed")
	}

	return ctx.JSON(http.StatusOK, &dto.SubscriptionEnvelopeResponse{
		Subscription: mapper.SubscriptionToResponse(updated),
	})
}

func (c *SubscriptionController) DeleteSubscription(ctx echo.Context) error {
	req, err := types.NewOwnerRequestFromContext(ctx)
	if err != nil {
		return c.writeError(ctx, http.StatusBadRequest, apperror.KindInvalidRequest, "invalid owner id")
	}
	if err := req.Validate(); err != nil {
		return c.writeError(ctx, http.StatusBadRequest, apperror.KindInvalidRequest, err.Error())
	}

	if err := c.subscriptionService.Delete(ctx.Request().Context(), req.GetOwnerId()); err != nil {
		return c.writeAppError(ctx, err, "Delete subscription failed")
	}

	return ctx.NoContent(http.StatusNoContent)
}

// writeAppError maps a classified error to its status. Unclassified errors are
// logged and hidden behind a generic 500.
func (c *SubscriptionController) writeAppError(ctx echo.Context, err error, logMessage string) error {
	kind := apperror.KindOf(err)
	statusCode, ok := statusByKind[kind]
	if !ok {
		factory.LoggerWithContext(c.logger, ctx).WithError(err).Error(logMessage)
		return c.writeError(ctx, http.StatusInternalServerError, apperror.KindInternal, "internal server error")
	}

	entry := factory.LoggerWithContext(c.logger, ctx).WithError(err).WithField("kind", string(kind))
	if statusCode >= http.StatusInternalServerError {
		entry.Warn(logMessage)
	} else {
		entry.Debug(logMessage)
	}
	return c.writeError(ctx, statusCode, kind, err.Error())
}

func (c *SubscriptionController) writeError(ctx echo.Context, statusCode int, kind apperror.Kind, message string) error {
	return ctx.JSON(statusCode, &dto.ErrorResponse{Error: message, Kind: string(kind)})
}

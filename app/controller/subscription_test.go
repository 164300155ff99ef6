package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/vibast-solutions/ms-go-athlete-subscriptions/app/dto"
	"github.com/vibast-solutions/ms-go-athlete-subscriptions/app/entity"
	"github.com/vibast-solutions/ms-go-athlete-subscriptions/app/reference"
	"github.com/vibast-solutions/ms-go-athlete-subscriptions/app/repository"
	"github.com/vibast-solutions/ms-go-athlete-subscriptions/app/service"
	"github.com/vibast-solutions/ms-go-athlete-subscriptions/app/validation"
)

type controllerChecker struct {
	outcomes map[reference.Kind]reference.Outcome
	calls    int
}

func (c *controllerChecker) CheckExists(_ context.Context, kind reference.Kind, _ int64) reference.Result {
	c.calls++
	outcome, ok := c.outcomes[kind]
	if !ok {
		return reference.Result{Outcome: reference.OutcomeFound}
	}
	return reference.Result{Outcome: outcome, Err: errors.New(outcome.String())}
}

type controllerSubRepo struct {
	*repository.MemorySubscriptionRepository
	pingFn func(ctx context.Context) error
}

func (r *controllerSubRepo) Ping(ctx context.Context) error {
	if r.pingFn != nil {
		return r.pingFn(ctx)
	}
	return nil
}

func newControllerForTest(repo *controllerSubRepo, checker *controllerChecker) *SubscriptionController {
	if repo == nil {
		repo = &controllerSubRepo{MemorySubscriptionRepository: repository.NewMemorySubscriptionRepository()}
	}
	if checker == nil {
		checker = &controllerChecker{}
	}
	return NewSubscriptionController(service.NewSubscriptionService(repo), validation.NewOrchestrator(checker))
}

func newOwnerContext(method, path, body, ownerID string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	ctx := e.NewContext(req, rec)
	ctx.SetParamNames("ownerId")
	ctx.SetParamValues(ownerID)
	return ctx, rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) dto.ErrorResponse {
	t.Helper()
	var body dto.ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal failed: %v body=%s", err, rec.Body.String())
	}
	return body
}

func seed(t *testing.T, repo *controllerSubRepo, ownerID int64) {
	t.Helper()
	err := repo.Create(context.Background(), &entity.Subscription{
		OwnerID: ownerID, TierID: 10, LevelID: 2, AddonIDs: []int64{5}, PaymentMethodID: 3,
	})
	if err != nil {
		t.Fatalf("seed failed: %v", err)
	}
}

func TestCreateSubscriptionBadBody(t *testing.T) {
	ctrl := newControllerForTest(nil, nil)
	ctx, rec := newOwnerContext(http.MethodPost, "/subscriptions/1", "{bad", "1")

	if err := ctrl.CreateSubscription(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if body := decodeError(t, rec); body.Kind != "INVALID_REQUEST" {
		t.Fatalf("expected INVALID_REQUEST, got %+v", body)
	}
}

func TestCreateSubscriptionMissingFieldSkipsRemoteChecks(t *testing.T) {
	checker := &controllerChecker{}
	ctrl := newControllerForTest(nil, checker)
	ctx, rec := newOwnerContext(http.MethodPost, "/subscriptions/1", `{"tier_id":10,"level_id":2}`, "1")

	_ = ctrl.CreateSubscription(ctx)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if checker.calls != 0 {
		t.Fatalf("expected no remote checks, got %d", checker.calls)
	}
}

func TestCreateSubscriptionSuccess(t *testing.T) {
	ctrl := newControllerForTest(nil, nil)
	ctx, rec := newOwnerContext(http.MethodPost, "/subscriptions/1", `{"tier_id":10,"level_id":2,"addon_ids":[5],"payment_method_id":3}`, "1")

	_ = ctrl.CreateSubscription(ctx)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d body=%s", rec.Code, rec.Body.String())
	}

	var payload dto.SubscriptionEnvelopeResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if payload.Subscription.ID == 0 || payload.Subscription.OwnerID != 1 || payload.Subscription.TierID != 10 {
		t.Fatalf("unexpected subscription payload: %s", rec.Body.String())
	}
}

func TestCreateSubscriptionDuplicateOwner(t *testing.T) {
	repo := &controllerSubRepo{MemorySubscriptionRepository: repository.NewMemorySubscriptionRepository()}
	seed(t, repo, 1)
	ctrl := newControllerForTest(repo, nil)
	ctx, rec := newOwnerContext(http.MethodPost, "/subscriptions/1", `{"tier_id":11,"level_id":2,"payment_method_id":3}`, "1")

	_ = ctrl.CreateSubscription(ctx)
	if rec.Code != http.StatusPreconditionFailed {
		t.Fatalf("expected 412, got %d", rec.Code)
	}
	body := decodeError(t, rec)
	if body.Kind != "PRECONDITION_FAILED" || body.Error != "a subscription already exists for owner with id 1" {
		t.Fatalf("unexpected error body: %+v", body)
	}
}

func TestCreateSubscriptionMapsValidationOutcomes(t *testing.T) {
	cases := []struct {
		name     string
		outcomes map[reference.Kind]reference.Outcome
		status   int
		kind     string
		message  string
	}{
		{
			name:     "missing level",
			outcomes: map[reference.Kind]reference.Outcome{reference.KindLevel: reference.OutcomeNotFound},
			status:   http.StatusNotFound,
			kind:     "NOT_FOUND",
			message:  "plan level with id 2 not found",
		},
		{
			name:     "bad add-on",
			outcomes: map[reference.Kind]reference.Outcome{reference.KindAddon: reference.OutcomeNotFound},
			status:   http.StatusPreconditionFailed,
			kind:     "PRECONDITION_FAILED",
			message:  "plan add-on with id 5 not found",
		},
		{
			name:     "user timeout",
			outcomes: map[reference.Kind]reference.Outcome{reference.KindUser: reference.OutcomeTimedOut},
			status:   http.StatusRequestTimeout,
			kind:     "REQUEST_TIMEOUT",
		},
		{
			name:     "catalog down",
			outcomes: map[reference.Kind]reference.Outcome{reference.KindPaymentMethod: reference.OutcomeTransportError},
			status:   http.StatusBadGateway,
			kind:     "TRANSPORT_ERROR",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			repo := &controllerSubRepo{MemorySubscriptionRepository: repository.NewMemorySubscriptionRepository()}
			ctrl := newControllerForTest(repo, &controllerChecker{outcomes: tc.outcomes})
			ctx, rec := newOwnerContext(http.MethodPost, "/subscriptions/1", `{"tier_id":10,"level_id":2,"addon_ids":[5],"payment_method_id":3}`, "1")

			_ = ctrl.CreateSubscription(ctx)
			if rec.Code != tc.status {
				t.Fatalf("expected %d, got %d body=%s", tc.status, rec.Code, rec.Body.String())
			}
			body := decodeError(t, rec)
			if body.Kind != tc.kind {
				t.Fatalf("expected kind %s, got %+v", tc.kind, body)
			}
			if tc.message != "" && body.Error != tc.message {
				t.Fatalf("expected message %q, got %q", tc.message, body.Error)
			}
			if repo.Len() != 0 {
				t.Fatal("expected nothing persisted after failed validation")
			}
		})
	}
}

func TestGetSubscriptionNotFound(t *testing.T) {
	ctrl := newControllerForTest(nil, nil)
	ctx, rec := newOwnerContext(http.MethodGet, "/subscriptions/999", "", "999")

	_ = ctrl.GetSubscription(ctx)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if body := decodeError(t, rec); body.Error != "no subscription found for the given owner id" {
		t.Fatalf("unexpected error body: %+v", body)
	}
}

func TestGetSubscriptionInvalidOwner(t *testing.T) {
	ctrl := newControllerForTest(nil, nil)
	ctx, rec := newOwnerContext(http.MethodGet, "/subscriptions/-4", "", "-4")

	_ = ctrl.GetSubscription(ctx)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestUpdateSubscriptionValidationError(t *testing.T) {
	ctrl := newControllerForTest(nil, nil)
	ctx, rec := newOwnerContext(http.MethodPut, "/subscriptions/3", `{}`, "3")

	_ = ctrl.UpdateSubscription(ctx)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestUpdateSubscriptionMissingOwner(t *testing.T) {
	checker := &controllerChecker{}
	ctrl := newControllerForTest(nil, checker)
	ctx, rec := newOwnerContext(http.MethodPut, "/subscriptions/3", `{"level_id":4}`, "3")

	_ = ctrl.UpdateSubscription(ctx)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if checker.calls != 0 {
		t.Fatalf("expected no remote checks for a missing record, got %d", checker.calls)
	}
}

func TestUpdateSubscriptionMergesFields(t *testing.T) {
	repo := &controllerSubRepo{MemorySubscriptionRepository: repository.NewMemorySubscriptionRepository()}
	seed(t, repo, 1)
	ctrl := newControllerForTest(repo, nil)
	ctx, rec := newOwnerContext(http.MethodPut, "/subscriptions/1", `{"level_id":4}`, "1")

	_ = ctrl.UpdateSubscription(ctx)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rec.Code, rec.Body.String())
	}

	stored, _ := repo.FindByOwner(context.Background(), 1)
	if stored.LevelID != 4 || stored.TierID != 10 || len(stored.AddonIDs) != 1 || stored.AddonIDs[0] != 5 {
		t.Fatalf("expected merged record, got %+v", stored)
	}
}

func TestDeleteSubscription(t *testing.T) {
	repo := &controllerSubRepo{MemorySubscriptionRepository: repository.NewMemorySubscriptionRepository()}
	seed(t, repo, 3)
	ctrl := newControllerForTest(repo, nil)

	ctx, rec := newOwnerContext(http.MethodDelete, "/subscriptions/3", "", "3")
	_ = ctrl.DeleteSubscription(ctx)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}

	ctx, rec = newOwnerContext(http.MethodDelete, "/subscriptions/3", "", "3")
	_ = ctrl.DeleteSubscription(ctx)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestInternalErrorsAreHidden(t *testing.T) {
	repo := &controllerSubRepo{MemorySubscriptionRepository: repository.NewMemorySubscriptionRepository()}
	ctrl := newControllerForTest(repo, nil)
	ctx, rec := newOwnerContext(http.MethodGet, "/subscriptions/1", "", "1")

	_ = ctrl.writeAppError(ctx, errors.New("dial tcp 10.0.0.1:3306: connection refused"), "Get subscription failed")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if body := decodeError(t, rec); body.Error != "internal server error" || body.Kind != "INTERNAL" {
		t.Fatalf("unexpected error body: %+v", body)
	}
}

func TestHealth(t *testing.T) {
	repo := &controllerSubRepo{MemorySubscriptionRepository: repository.NewMemorySubscriptionRepository()}
	ctrl := newControllerForTest(repo, nil)

	ctx, rec := newOwnerContext(http.MethodGet, "/health", "", "")
	_ = ctrl.Health(ctx)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body dto.HealthResponse
	_ = json.Unmarshal(rec.Body.Bytes(), &body)
	if body.Status != "ok" || body.Details["database"].Status != "up" {
		t.Fatalf("unexpected health body: %s", rec.Body.String())
	}

	repo.pingFn = func(context.Context) error { return errors.New("down") }
	ctx, rec = newOwnerContext(http.MethodGet, "/health", "", "")
	_ = ctrl.Health(ctx)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
	_ = json.Unmarshal(rec.Body.Bytes(), &body)
	if body.Status != "error" || body.Details["database"].Status != "down" {
		t.Fatalf("unexpected health body: %s", rec.Body.String())
	}
}

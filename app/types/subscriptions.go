package types

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
)

// OwnerRequest addresses one subscription by its owner.
type OwnerRequest struct {
	OwnerId int64
}

func (r *OwnerRequest) GetOwnerId() int64 {
	if r == nil {
		return 0
	}
	return r.OwnerId
}

// SubscriptionRequest is the body of create and update calls. Pointer fields
// distinguish an omitted value from a zero one.
type SubscriptionRequest struct {
	OwnerId         int64    `json:"-"`
	TierId          *int64   `json:"tier_id"`
	LevelId         *int64   `json:"level_id"`
	AddonIds        *[]int64 `json:"addon_ids"`
	PaymentMethodId *int64   `json:"payment_method_id"`
}

func (r *SubscriptionRequest) GetOwnerId() int64 {
	if r == nil {
		return 0
	}
	return r.OwnerId
}

func (r *SubscriptionRequest) GetTierId() int64 {
	if r == nil || r.TierId == nil {
		return 0
	}
	return *r.TierId
}

func (r *SubscriptionRequest) GetLevelId() int64 {
	if r == nil || r.LevelId == nil {
		return 0
	}
	return *r.LevelId
}

func (r *SubscriptionRequest) GetHasAddonIds() bool {
	return r != nil && r.AddonIds != nil
}

func (r *SubscriptionRequest) GetAddonIds() []int64 {
	if r == nil || r.AddonIds == nil {
		return nil
	}
	return *r.AddonIds
}

func (r *SubscriptionRequest) GetPaymentMethodId() int64 {
	if r == nil || r.PaymentMethodId == nil {
		return 0
	}
	return *r.PaymentMethodId
}

func NewOwnerRequestFromContext(ctx echo.Context) (*OwnerRequest, error) {
	ownerID, err := parseOwnerID(ctx)
	if err != nil {
		return nil, err
	}
	return &OwnerRequest{OwnerId: ownerID}, nil
}

func (r *OwnerRequest) Validate() error {
	if r.GetOwnerId() <= 0 {
		return errors.New("ownerId must be a positive integer")
	}
	return nil
}

func NewCreateSubscriptionRequestFromContext(ctx echo.Context) (*SubscriptionRequest, error) {
	return newSubscriptionRequestFromContext(ctx)
}

func NewUpdateSubscriptionRequestFromContext(ctx echo.Context) (*SubscriptionRequest, error) {
	return newSubscriptionRequestFromContext(ctx)
}

// ValidateCreate requires every reference except the add-on list.
func (r *SubscriptionRequest) ValidateCreate() error {
	if err := r.validateOwner(); err != nil {
		return err
	}
	if r.TierId == nil {
		return errors.New("tier_id is required")
	}
	if r.LevelId == nil {
		return errors.New("level_id is required")
	}
	if r.PaymentMethodId == nil {
		return errors.New("payment_method_id is required")
	}
	return r.validatePresentFields()
}

// ValidateUpdate accepts any subset of fields, but at least one.
func (r *SubscriptionRequest) ValidateUpdate() error {
	if err := r.validateOwner(); err != nil {
		return err
	}
	if r.TierId == nil && r.LevelId == nil && r.AddonIds == nil && r.PaymentMethodId == nil {
		return errors.New("at least one of tier_id, level_id, addon_ids or payment_method_id is required")
	}
	return r.validatePresentFields()
}

func (r *SubscriptionRequest) validateOwner() error {
	if r.GetOwnerId() <= 0 {
		return errors.New("ownerId must be a positive integer")
	}
	return nil
}

func (r *SubscriptionRequest) validatePresentFields() error {
	if r.TierId != nil && *r.TierId <= 0 {
		return errors.New("tier_id must be a positive integer")
	}
	if r.LevelId != nil && *r.LevelId <= 0 {
		return errors.New("level_id must be a positive integer")
	}
	if r.PaymentMethodId != nil && *r.PaymentMethodId <= 0 {
		return errors.New("payment_method_id must be a positive integer")
	}
	for i, id := range r.GetAddonIds() {
		if id <= 0 {
			return fmt.Errorf("addon_ids[%d] must be a positive integer", i)
		}
	}
	return nil
}

func newSubscriptionRequestFromContext(ctx echo.Context) (*SubscriptionRequest, error) {
	ownerID, err := parseOwnerID(ctx)
	if err != nil {
		return nil, err
	}

	var body SubscriptionRequest
	if err := (&echo.DefaultBinder{}).BindBody(ctx, &body); err != nil {
		return nil, err
	}
	body.OwnerId = ownerID
	return &body, nil
}

func parseOwnerID(ctx echo.Context) (int64, error) {
	return strconv.ParseInt(strings.TrimSpace(ctx.Param("ownerId")), 10, 64)
}

package mapper

import (
	"time"

	"github.com/vibast-solutions/ms-go-athlete-subscriptions/app/dto"
	"github.com/vibast-solutions/ms-go-athlete-subscriptions/app/entity"
	"github.com/vibast-solutions/ms-go-athlete-subscriptions/app/types"
	"github.com/vibast-solutions/ms-go-athlete-subscriptions/app/validation"
	"google.golang.org/protobuf/types/known/structpb"
)

func SubscriptionToResponse(item *entity.Subscription) dto.SubscriptionResponse {
	if item == nil {
		return dto.SubscriptionResponse{}
	}

	return dto.SubscriptionResponse{
		ID:              item.ID,
		OwnerID:         item.OwnerID,
		TierID:          item.TierID,
		LevelID:         item.LevelID,
		AddonIDs:        addonIDsOrEmpty(item.AddonIDs),
		PaymentMethodID: item.PaymentMethodID,
		CreatedAt:       formatTime(item.CreatedAt),
		UpdatedAt:       formatTime(item.UpdatedAt),
	}
}

// SubscriptionToStruct renders a record for the pattern transport.
func SubscriptionToStruct(item *entity.Subscription) (*structpb.Struct, error) {
	addonIDs := make([]interface{}, 0, len(item.AddonIDs))
	for _, id := range item.AddonIDs {
		addonIDs = append(addonIDs, id)
	}

	return structpb.NewStruct(map[string]interface{}{
		"id":              item.ID,
		"ownerId":         item.OwnerID,
		"tierId":          item.TierID,
		"levelId":         item.LevelID,
		"addonIds":        addonIDs,
		"paymentMethodId": item.PaymentMethodID,
		"createdAt":       formatTime(item.CreatedAt),
		"updatedAt":       formatTime(item.UpdatedAt),
	})
}

func SubscriptionRequestToEntity(req *types.SubscriptionRequest) *entity.Subscription {
	return &entity.Subscription{
		OwnerID:         req.GetOwnerId(),
		TierID:          req.GetTierId(),
		LevelID:         req.GetLevelId(),
		AddonIDs:        addonIDsOrEmpty(req.GetAddonIds()),
		PaymentMethodID: req.GetPaymentMethodId(),
	}
}

func SubscriptionRequestToPatch(req *types.SubscriptionRequest) entity.SubscriptionPatch {
	return entity.SubscriptionPatch{
		TierID:          req.TierId,
		LevelID:         req.LevelId,
		AddonIDs:        req.GetAddonIds(),
		HasAddonIDs:     req.GetHasAddonIds(),
		PaymentMethodID: req.PaymentMethodId,
	}
}

func SubscriptionToCandidate(item *entity.Subscription) validation.Candidate {
	return validation.Candidate{
		OwnerID:         item.OwnerID,
		TierID:          item.TierID,
		LevelID:         item.LevelID,
		AddonIDs:        item.AddonIDs,
		PaymentMethodID: item.PaymentMethodID,
	}
}

func addonIDsOrEmpty(ids []int64) []int64 {
	if ids == nil {
		return []int64{}
	}
	return ids
}

func formatTime(v time.Time) string {
	if v.IsZero() {
		return ""
	}
	return v.UTC().Format(time.RFC3339)
}

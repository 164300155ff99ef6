package entity

import "time"

type Subscription struct {
	ID              uint64
	OwnerID         int64
	TierID          int64
	LevelID         int64
	AddonIDs        []int64
	PaymentMethodID int64
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// SubscriptionPatch carries the fields of a merge-patch update. Nil fields keep
// the stored value.
type SubscriptionPatch struct {
	TierID          *int64
	LevelID         *int64
	AddonIDs        []int64
	HasAddonIDs     bool
	PaymentMethodID *int64
}

// Apply overlays the patch onto a copy of s.
func (p SubscriptionPatch) Apply(s *Subscription) *Subscription {
	merged := *s
	merged.AddonIDs = append([]int64(nil), s.AddonIDs...)
	if p.TierID != nil {
		merged.TierID = *p.TierID
	}
	if p.LevelID != nil {
		merged.LevelID = *p.LevelID
	}
	if p.HasAddonIDs {
		merged.AddonIDs = append(make([]int64, 0, len(p.AddonIDs)), p.AddonIDs...)
	}
	if p.PaymentMethodID != nil {
		merged.PaymentMethodID = *p.PaymentMethodID
	}
	return &merged
}

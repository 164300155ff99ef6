package dto

type SubscriptionResponse struct {
	ID              uint64  `json:"id"`
	OwnerID         int64   `json:"owner_id"`
	TierID          int64   `json:"tier_id"`
	LevelID         int64   `json:"level_id"`
	AddonIDs        []int64 `json:"addon_ids"`
	PaymentMethodID int64   `json:"payment_method_id"`
	CreatedAt       string  `json:"created_at"`
	UpdatedAt       string  `json:"updated_at"`
}

type SubscriptionEnvelopeResponse struct {
	Subscription SubscriptionResponse `json:"subscription"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

type HealthIndicator struct {
	Status string `json:"status"`
}

type HealthResponse struct {
	Status  string                     `json:"status"`
	Details map[string]HealthIndicator `json:"details"`
}

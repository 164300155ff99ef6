package repository

import (
	"context"
	"sync"

	"github.com/vibast-solutions/ms-go-athlete-subscriptions/app/entity"
)

// MemorySubscriptionRepository keeps subscriptions in process. The owner
// uniqueness check and the insert happen under one lock.
type MemorySubscriptionRepository struct {
	mu      sync.RWMutex
	nextID  uint64
	byOwner map[int64]*entity.Subscription
}

func NewMemorySubscriptionRepository() *MemorySubscriptionRepository {
	return &MemorySubscriptionRepository{byOwner: make(map[int64]*entity.Subscription)}
}

func (r *MemorySubscriptionRepository) Create(_ context.Context, subscription *entity.Subscription) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byOwner[subscription.OwnerID]; exists {
		return ErrSubscriptionAlreadyExists
	}
	r.nextID++
	subscription.ID = r.nextID
	r.byOwner[subscription.OwnerID] = cloneSubscription(subscription)
	return nil
}

func (r *MemorySubscriptionRepository) Update(_ context.Context, subscription *entity.Subscription) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, exists := r.byOwner[subscription.OwnerID]
	if !exists {
		return ErrSubscriptionNotFound
	}
	updated := cloneSubscription(subscription)
	updated.ID = current.ID
	updated.CreatedAt = current.CreatedAt
	r.byOwner[subscription.OwnerID] = updated
	return nil
}

func (r *MemorySubscriptionRepository) FindByOwner(_ context.Context, ownerID int64) (*entity.Subscription, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, exists := r.byOwner[ownerID]
	if !exists {
		return nil, nil
	}
	return cloneSubscription(item), nil
}

func (r *MemorySubscriptionRepository) DeleteByOwner(_ context.Context, ownerID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byOwner[ownerID]; !exists {
		return ErrSubscriptionNotFound
	}
	delete(r.byOwner, ownerID)
	return nil
}

func (r *MemorySubscriptionRepository) Ping(context.Context) error {
	return nil
}

// Len reports the number of stored subscriptions.
func (r *MemorySubscriptionRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byOwner)
}

func cloneSubscription(src *entity.Subscription) *entity.Subscription {
	cp := *src
	cp.AddonIDs = append(make([]int64, 0, len(src.AddonIDs)), src.AddonIDs...)
	return &cp
}

package service

import (
	"context"
	"errors"
	"time"

	"github.com/vibast-solutions/ms-go-athlete-subscriptions/app/entity"
	"github.com/vibast-solutions/ms-go-athlete-subscriptions/app/repository"
)

type SubscriptionService struct {
	subscriptionRepo subscriptionRepository
	now              func() time.Time
}

type subscriptionRepository interface {
	Create(ctx context.Context, subscription *entity.Subscription) error
	Update(ctx context.Context, subscription *entity.Subscription) error
	FindByOwner(ctx context.Context, ownerID int64) (*entity.Subscription, error)
	DeleteByOwner(ctx context.Context, ownerID int64) error
	Ping(ctx context.Context) error
}

func NewSubscriptionService(subscriptionRepo subscriptionRepository) *SubscriptionService {
	return &SubscriptionService{
		subscriptionRepo: subscriptionRepo,
		now:              func() time.Time { return time.Now().UTC() },
	}
}

func (s *SubscriptionService) GetByOwner(ctx context.Context, ownerID int64) (*entity.Subscription, error) {
	subscription, err := s.subscriptionRepo.FindByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if subscription == nil {
		return nil, errSubscriptionNotFound()
	}
	return subscription, nil
}

// Create persists a subscription whose references were already validated.
// The owner pre-check and the storage unique constraint both report a
// duplicate owner as a precondition failure.
func (s *SubscriptionService) Create(ctx context.Context, subscription *entity.Subscription) (*entity.Subscription, error) {
	existing, err := s.subscriptionRepo.FindByOwner(ctx, subscription.OwnerID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, errSubscriptionAlreadyExists(subscription.OwnerID)
	}

	now := s.now()
	record := *subscription
	record.ID = 0
	record.AddonIDs = append(make([]int64, 0, len(subscription.AddonIDs)), subscription.AddonIDs...)
	record.CreatedAt = now
	record.UpdatedAt = now

	if err := s.subscriptionRepo.Create(ctx, &record); err != nil {
		if errors.Is(err, repository.ErrSubscriptionAlreadyExists) {
			return nil, errSubscriptionAlreadyExists(subscription.OwnerID)
		}
		return nil, err
	}

	return &record, nil
}

func (s *SubscriptionService) Update(ctx context.Context, ownerID int64, patch entity.SubscriptionPatch) (*entity.Subscription, error) {
	current, err := s.subscriptionRepo.FindByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, errSubscriptionNotFound()
	}

	merged := patch.Apply(current)
	merged.UpdatedAt = s.now()

	if err := s.subscriptionRepo.Update(ctx, merged); err != nil {
		if errors.Is(err, repository.ErrSubscriptionNotFound) {
			return nil, errSubscriptionNotFound()
		}
		return nil, err
	}

	return merged, nil
}

func (s *SubscriptionService) Delete(ctx context.Context, ownerID int64) error {
	if err := s.subscriptionRepo.DeleteByOwner(ctx, ownerID); err != nil {
		if errors.Is(err, repository.ErrSubscriptionNotFound) {
			return errSubscriptionNotFound()
		}
		return err
	}
	return nil
}

func (s *SubscriptionService) Health(ctx context.Context) error {
	return s.subscriptionRepo.Ping(ctx)
}

package service

import "github.com/vibast-solutions/ms-go-athlete-subscriptions/app/apperror"

const msgSubscriptionNotFound = "no subscription found for the given owner id"

func errSubscriptionNotFound() error {
	return apperror.NotFound(msgSubscriptionNotFound)
}

func errSubscriptionAlreadyExists(ownerID int64) error {
	return apperror.PreconditionFailed("a subscription already exists for owner with id %d", ownerID)
}

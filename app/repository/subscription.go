package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/vibast-solutions/ms-go-athlete-subscriptions/app/entity"
)

var (
	ErrSubscriptionNotFound      = errors.New("subscription not found")
	ErrSubscriptionAlreadyExists = errors.New("subscription already exists")
)

const subscriptionColumns = `id, owner_id, tier_id, level_id, addon_ids, payment_method_id, created_at, updated_at`

type SubscriptionRepository struct {
	db      DBTX
	dialect Dialect
}

func NewSubscriptionRepository(db DBTX, dialect Dialect) *SubscriptionRepository {
	if dialect == "" {
		dialect = DialectMySQL
	}
	return &SubscriptionRepository{db: db, dialect: dialect}
}

func (r *SubscriptionRepository) Create(ctx context.Context, subscription *entity.Subscription) error {
	addonIDs, err := encodeAddonIDs(subscription.AddonIDs)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO subscriptions (
			owner_id, tier_id, level_id, addon_ids, payment_method_id,
			created_at, updated_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	args := []interface{}{
		subscription.OwnerID,
		subscription.TierID,
		subscription.LevelID,
		addonIDs,
		subscription.PaymentMethodID,
		subscription.CreatedAt,
		subscription.UpdatedAt,
	}

	if r.dialect == DialectPostgres {
		var id uint64
		err := r.db.QueryRowContext(ctx, r.dialect.rebind(query+` RETURNING id`), args...).Scan(&id)
		if err != nil {
			if isDuplicateEntryError(err) {
				return ErrSubscriptionAlreadyExists
			}
			return err
		}
		subscription.ID = id
		return nil
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		if isDuplicateEntryError(err) {
			return ErrSubscriptionAlreadyExists
		}
		return err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	subscription.ID = uint64(id)
	return nil
}

func (r *SubscriptionRepository) Update(ctx context.Context, subscription *entity.Subscription) error {
	addonIDs, err := encodeAddonIDs(subscription.AddonIDs)
	if err != nil {
		return err
	}

	query := `
		UPDATE subscriptions
		SET tier_id = ?, level_id = ?, addon_ids = ?, payment_method_id = ?, updated_at = ?
		WHERE owner_id = ?
	`

	result, err := r.db.ExecContext(ctx, r.dialect.rebind(query),
		subscription.TierID,
		subscription.LevelID,
		addonIDs,
		subscription.PaymentMethodID,
		subscription.UpdatedAt,
		subscription.OwnerID,
	)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrSubscriptionNotFound
	}

	return nil
}

func (r *SubscriptionRepository) FindByOwner(ctx context.Context, ownerID int64) (*entity.Subscription, error) {
	query := `
		SELECT ` + subscriptionColumns + `
		FROM subscriptions
		WHERE owner_id = ?
	`

	item := &entity.Subscription{}
	if err := scanSubscription(
		r.db.QueryRowContext(ctx, r.dialect.rebind(query), ownerID),
		item,
	); err == sql.ErrNoRows {
		return nil, nil
	} else if err != nil {
		return nil, err
	}

	return item, nil
}

func (r *SubscriptionRepository) DeleteByOwner(ctx context.Context, ownerID int64) error {
	query := `DELETE FROM subscriptions WHERE owner_id = ?`

	result, err := r.db.ExecContext(ctx, r.dialect.rebind(query), ownerID)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrSubscriptionNotFound
	}

	return nil
}

// Ping probes storage connectivity.
func (r *SubscriptionRepository) Ping(ctx context.Context) error {
	p, ok := r.db.(pinger)
	if !ok {
		return nil
	}
	return p.PingContext(ctx)
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSubscription(scanner rowScanner, item *entity.Subscription) error {
	var addonIDs string

	err := scanner.Scan(
		&item.ID,
		&item.OwnerID,
		&item.TierID,
		&item.LevelID,
		&addonIDs,
		&item.PaymentMethodID,
		&item.CreatedAt,
		&item.UpdatedAt,
	)
	if err != nil {
		return err
	}

	ids, err := decodeAddonIDs(addonIDs)
	if err != nil {
		return err
	}
	item.AddonIDs = ids

	return nil
}

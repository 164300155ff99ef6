package cmd

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/vibast-solutions/ms-go-athlete-subscriptions/app/entity"
	"github.com/vibast-solutions/ms-go-athlete-subscriptions/app/repository"
	"github.com/vibast-solutions/ms-go-athlete-subscriptions/config"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
)

type subscriptionStore interface {
	Create(ctx context.Context, subscription *entity.Subscription) error
	Update(ctx context.Context, subscription *entity.Subscription) error
	FindByOwner(ctx context.Context, ownerID int64) (*entity.Subscription, error)
	DeleteByOwner(ctx context.Context, ownerID int64) error
	Ping(ctx context.Context) error
}

// openSubscriptionStore returns the backend selected by STORAGE_DRIVER and a
// function releasing it.
func openSubscriptionStore(cfg *config.Config) (subscriptionStore, func(), error) {
	if cfg.Storage.Driver == config.StorageDriverMemory {
		logrus.Warn("Using in-memory storage, data is lost on restart")
		return repository.NewMemorySubscriptionRepository(), func() {}, nil
	}

	dialect, err := repository.ParseDialect(cfg.Storage.Driver)
	if err != nil {
		return nil, nil, err
	}
	sqlCfg := cfg.SQL()

	db, err := sql.Open(dialect.DriverName(), sqlCfg.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open %s database: %w", dialect, err)
	}
	db.SetMaxOpenConns(sqlCfg.MaxOpenConns)
	db.SetMaxIdleConns(sqlCfg.MaxIdleConns)
	db.SetConnMaxLifetime(sqlCfg.ConnMaxLifetime)

	pingCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("failed to ping %s database: %w", dialect, err)
	}

	return repository.NewSubscriptionRepository(db, dialect), func() { _ = db.Close() }, nil
}

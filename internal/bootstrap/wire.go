package bootstrap

import (
	"context"
	"fmt"

	"github.com/Domenick1991/activitybooking/config"
	"github.com/Domenick1991/activitybooking/internal/gateway"
	"github.com/Domenick1991/activitybooking/internal/repository"
	"github.com/Domenick1991/activitybooking/internal/repository/memory"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// Storage is the opened store plus what the process needs around it.
type Storage struct {
	Store repository.Store
	Ping  func(ctx context.Context) error
	Close func()
}

// OpenStorage opens the configured store. The memory driver keeps state for the lifetime of the process only.
func OpenStorage(ctx context.Context, cfg *config.Config) (*Storage, error) {
	if cfg.Storage.Driver == config.StorageDriverMemory {
		zap.L().Warn("using in-memory storage, state is lost on restart")
		return &Storage{
			Store: memory.NewStore(),
			Ping:  func(context.Context) error { return nil },
			Close: func() {},
		}, nil
	}

	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	store := repository.NewPGStore(pool)
	if cfg.Storage.AutoMigrate {
		if err := store.Migrate(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
		zap.L().Info("schema applied")
	}
	return &Storage{Store: store, Ping: pool.Ping, Close: pool.Close}, nil
}

func NewGateway(cfg config.PaymentConfig) gateway.Gateway {
	if cfg.Provider == config.PaymentProviderStripe {
		return gateway.NewStripeGateway(cfg.StripeSecretKey, cfg.SuccessURL, cfg.CancelURL, nil)
	}
	zap.L().Warn("using sandbox payment gateway")
	return gateway.NewSandboxGateway(cfg.CheckoutBaseURL)
}

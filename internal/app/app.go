// Package app wires configuration into the stores, usecases and provider
// shared by the API server and the sweep worker.
package app

import (
	"context"
	"fmt"
	"log"

	"lending-backoffice/internal/adapter/provider/mono"
	"lending-backoffice/internal/adapter/repository/gormrepo"
	"lending-backoffice/internal/config"
	"lending-backoffice/internal/domain/debit"
	"lending-backoffice/internal/infrastructure/cache"
	"lending-backoffice/internal/infrastructure/db"
	ucDebit "lending-backoffice/internal/usecase/debit"
	ucLoan "lending-backoffice/internal/usecase/loan"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type App struct {
	DB    *gorm.DB
	Redis *redis.Client

	Loans   *ucLoan.Usecase
	Debits  *ucDebit.Usecase
	Sweeper *ucDebit.Sweeper
}

// New opens the database and redis and builds the usecases. Close releases
// both connections.
func New(cfg *config.Config) (*App, error) {
	gdb, err := db.OpenGorm(cfg.DB.Driver, cfg.DSN(), cfg.DB.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if cfg.DB.Migrate {
		if err := db.AutoMigrate(gdb); err != nil {
			closeDB(gdb)
			return nil, fmt.Errorf("auto-migrate: %w", err)
		}
		log.Println("gorm: schema migrated")
	}

	rdb, err := cache.OpenRedis(cfg.Redis.Addr, cfg.Redis.DB)
	if err != nil {
		closeDB(gdb)
		return nil, fmt.Errorf("open redis: %w", err)
	}

	repos := gormrepo.NewRepos(gdb)
	tx := gormrepo.NewGormUoW(gdb)
	provider := mono.New(cfg.Provider.BaseURL, cfg.Provider.SecretKey, cfg.Provider.Timeout)

	debits := ucDebit.NewUsecase(repos, tx, provider, ucDebit.Options{
		Policy: debit.RetryPolicy{
			MaxAttempts: cfg.Retry.MaxAttempts,
			BaseBackoff: cfg.Retry.BaseBackoff,
			MaxBackoff:  cfg.Retry.MaxBackoff,
		},
		ChargeTimeout: cfg.Provider.Timeout,
	})
	sweeper := ucDebit.NewSweeper(debits, ucDebit.SweepConfig{
		BatchSize:   cfg.Sweep.BatchSize,
		Concurrency: cfg.Sweep.Concurrency,
		StaleAfter:  cfg.Sweep.StaleAfter,
		LockTTL:     cfg.Sweep.LockTTL,
	}, cache.NewRedisLocker(rdb))

	return &App{
		DB:      gdb,
		Redis:   rdb,
		Loans:   ucLoan.NewUsecase(repos, tx, cache.NewRedisCache(rdb)),
		Debits:  debits,
		Sweeper: sweeper,
	}, nil
}

// PingDB reports whether the database answers.
func (a *App) PingDB(ctx context.Context) error {
	sqlDB, err := a.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (a *App) PingRedis(ctx context.Context) error {
	return a.Redis.Ping(ctx).Err()
}

func (a *App) Close() {
	closeDB(a.DB)
	_ = a.Redis.Close()
}

func closeDB(gdb *gorm.DB) {
	if sqlDB, err := gdb.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

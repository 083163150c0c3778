package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"storefront/internal/database"
	"storefront/internal/events"
	httpapi "storefront/internal/http"
	"storefront/internal/repository"
	"storefront/internal/service"
)

// store owns the process-wide handles. It is opened once by the entry point
// and closed after the HTTP server drains
type store struct {
	set repository.Set
	db  *gorm.DB
	rdb *redis.Client
}

func (a *app) openStore(ctx context.Context) (*store, error) {
	if a.cfg.DBDriver == "memory" {
		a.logger.Warn("using the in-memory store, data is lost on exit")
		return &store{set: repository.NewMemorySet()}, nil
	}

	level := logger.Warn
	if a.cfg.LogLevel == "debug" {
		level = logger.Info
	}
	db, err := database.Open(database.Options{
		Driver:          a.cfg.DBDriver,
		DSN:             a.cfg.DatabaseURL,
		MaxOpenConns:    a.cfg.DBMaxOpenConns,
		MaxIdleConns:    a.cfg.DBMaxIdleConns,
		ConnMaxLifetime: a.cfg.DBConnMaxLifetime,
		LogLevel:        level,
	})
	if err != nil {
		return nil, err
	}
	st := &store{set: repository.NewGormSet(db), db: db}

	if a.cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: a.cfg.RedisAddr})
		if err := rdb.Ping(ctx).Err(); err != nil {
			_ = rdb.Close()
			_ = database.Close(db)
			return nil, fmt.Errorf("ping redis %s: %w", a.cfg.RedisAddr, err)
		}
		st.rdb = rdb
		st.set.Carts = repository.NewRedisCarts(rdb)
		a.logger.Info("carts stored in redis", "addr", a.cfg.RedisAddr)
	}
	return st, nil
}

func (s *store) migrate() error {
	if s.db == nil {
		return nil
	}
	return database.Migrate(s.db)
}

func (s *store) ping(ctx context.Context) error {
	if s.db != nil {
		sqlDB, err := s.db.DB()
		if err != nil {
			return err
		}
		if err := sqlDB.PingContext(ctx); err != nil {
			return fmt.Errorf("database: %w", err)
		}
	}
	if s.rdb != nil {
		if err := s.rdb.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis: %w", err)
		}
	}
	return nil
}

func (s *store) Close() error {
	var errs []error
	if s.rdb != nil {
		errs = append(errs, s.rdb.Close())
	}
	if s.db != nil {
		errs = append(errs, database.Close(s.db))
	}
	return errors.Join(errs...)
}

func newServices(set repository.Set, publisher events.Publisher) httpapi.Services {
	return httpapi.Services{
		Orders:     service.NewOrderService(set.Products, set.Orders, set.Tx, publisher),
		Reviews:    service.NewReviewService(set.Reviews, set.Products),
		Products:   service.NewProductService(set.Products, set.Categories),
		Categories: service.NewCategoryService(set.Categories),
		Users:      service.NewUserService(set.Users),
		Carts:      service.NewCartService(set.Carts, set.Products),
		Dashboard:  service.NewDashboardService(set.Users, set.Products, set.Orders),
	}
}

package db

import (
	"context"
	"fmt"

	"digital-menu/config"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

var Pool *pgxpool.Pool

// Cache is nil when REDIS_ADDR is not configured.
var Cache *redis.Client

func Init(cfg config.DBConfig) error {
	connStr := fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Database,
	)
	var err error
	Pool, err = pgxpool.New(context.Background(), connStr)
	return err
}

func InitCache(ctx context.Context, cfg config.RedisConfig) error {
	if cfg.Addr == "" {
		return nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return fmt.Errorf("redis ping: %w", err)
	}
	Cache = client
	return nil
}

func Close() {
	if Pool != nil {
		Pool.Close()
	}
	if Cache != nil {
		_ = Cache.Close()
	}
}

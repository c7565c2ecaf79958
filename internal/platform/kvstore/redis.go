package kvstore

import (
	"context"
	"fmt"
	"time"

	"github.com/godaralokesh29/CodeProgress-CF-Analytics-Tool/internal/platform/config"
	"github.com/godaralokesh29/CodeProgress-CF-Analytics-Tool/internal/platform/logger"

	"github.com/redis/go-redis/v9"
)

var RDB *redis.Client

func ConnectRedis(ctx context.Context) error {
	client := redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisDB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if _, err := client.Ping(pingCtx).Result(); err != nil {
		client.Close()
		return fmt.Errorf("could not connect to Redis at %s: %w", config.AppConfig.RedisAddr, err)
	}
	RDB = client
	logger.Success("Connected to Redis at %s", config.AppConfig.RedisAddr)
	return nil
}

func CloseRedis() {
	if RDB != nil {
		RDB.Close()
		logger.Info("Redis connection closed.")
	}
}

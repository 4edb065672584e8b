package connectors

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/echonotes/web-backend/pkg/commons"
	"github.com/echonotes/web-backend/pkg/configs"
)

// RedisConnector exposes the shared cache client.
type RedisConnector interface {
	Client() *redis.Client
	Close() error
}

type redisConnector struct {
	client *redis.Client
	logger commons.Logger
}

func NewRedisConnector(cfg configs.RedisConfig, logger commons.Logger) (RedisConnector, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.Database,
	})
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect redis at %s:%d: %w", cfg.Host, cfg.Port, err)
	}
	logger.Infof("redis connected: host=%s db=%d", cfg.Host, cfg.Database)
	return &redisConnector{client: client, logger: logger}, nil
}

func (c *redisConnector) Client() *redis.Client {
	return c.client
}

func (c *redisConnector) Close() error {
	return c.client.Close()
}

package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-triage/internal/config"
)

const statusKeyPrefix = "ticket_status:"

// Redis wraps the go-redis client used as a read-side cache for ticket
// status documents.
type Redis struct {
	Client    *redis.Client
	statusTTL time.Duration
}

// NewRedis connects to Redis using the provided configuration.
func NewRedis(cfg config.RedisConfig, logger *zap.Logger) *Redis {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		logger.Warn("unable to reach redis", zap.Error(err))
	} else {
		logger.Info("connected to redis")
	}

	return &Redis{Client: client, statusTTL: cfg.StatusTTL()}
}

// Close closes the client.
func (r *Redis) Close() {
	if r != nil && r.Client != nil {
		_ = r.Client.Close()
	}
}

// Ping verifies Redis connectivity.
func (r *Redis) Ping(ctx context.Context) error {
	if r == nil || r.Client == nil {
		return errors.New("redis client not configured")
	}
	return r.Client.Ping(ctx).Err()
}

// StoreTicketStatus caches a ticket status document under its ticket id.
func (r *Redis) StoreTicketStatus(ctx context.Context, ticketID string, document []byte) error {
	if r == nil || r.Client == nil {
		return errors.New("redis client not configured")
	}
	return r.Client.Set(ctx, statusKeyPrefix+ticketID, document, r.statusTTL).Err()
}

// FetchTicketStatus returns the cached status document, or (nil, nil) on a
// cache miss.
func (r *Redis) FetchTicketStatus(ctx context.Context, ticketID string) ([]byte, error) {
	if r == nil || r.Client == nil {
		return nil, errors.New("redis client not configured")
	}
	value, err := r.Client.Get(ctx, statusKeyPrefix+ticketID).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return value, nil
}

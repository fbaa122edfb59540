// Package cache provides a Redis read-through cache for user lookups.
// Users are immutable once created, so entries never need invalidation.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/fitlog/apiserver/config"
	"github.com/fitlog/apiserver/internal/logger"
	"github.com/fitlog/apiserver/types"
)

const keyPrefix = "fitlog:user:"

// UserStore is the repository being cached.
type UserStore interface {
	List(ctx context.Context) ([]types.User, error)
	GetByID(ctx context.Context, id string) (types.User, error)
	GetByUsername(ctx context.Context, username string) (types.User, error)
	Create(ctx context.Context, user types.User) (types.User, error)
}

// NewClient connects to Redis and verifies the connection.
func NewClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return client, nil
}

// UserRepository caches GetByID results of the wrapped store. Redis
// failures are logged and the call falls through to the store.
type UserRepository struct {
	next   UserStore
	client *redis.Client
	ttl    time.Duration
}

func NewUserRepository(next UserStore, client *redis.Client, ttl time.Duration) *UserRepository {
	return &UserRepository{next: next, client: client, ttl: ttl}
}

func (r *UserRepository) List(ctx context.Context) ([]types.User, error) {
	return r.next.List(ctx)
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (types.User, error) {
	return r.next.GetByUsername(ctx, username)
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (types.User, error) {
	log := logger.Log(ctx).With(zap.String("method", "cache.GetByID"), zap.String("user_id", id))

	raw, err := r.client.Get(ctx, keyPrefix+id).Bytes()
	switch {
	case err == nil:
		var user types.User
		if err := json.Unmarshal(raw, &user); err == nil {
			return user, nil
		}
		log.Warn(ctx, "discarding undecodable cache entry")
	case !errors.Is(err, redis.Nil):
		log.Warn(ctx, "redis get failed", zap.Error(err))
	}

	user, err := r.next.GetByID(ctx, id)
	if err != nil {
		return types.User{}, err
	}
	r.store(ctx, user)
	return user, nil
}

func (r *UserRepository) Create(ctx context.Context, user types.User) (types.User, error) {
	created, err := r.next.Create(ctx, user)
	if err != nil {
		return types.User{}, err
	}
	r.store(ctx, created)
	return created, nil
}

func (r *UserRepository) store(ctx context.Context, user types.User) {
	payload, err := json.Marshal(user)
	if err != nil {
		return
	}
	if err := r.client.Set(ctx, keyPrefix+user.ID, payload, r.ttl).Err(); err != nil {
		logger.Log(ctx).Warn(ctx, "redis set failed", zap.String("user_id", user.ID), zap.Error(err))
	}
}

package directory

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/arnavshah/schedule-board-api/pkg/models"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const cacheKey = "directory:users"

// UserStore is the durable side of the directory.
type UserStore interface {
	ListUsers(ctx context.Context) ([]models.User, error)
	CreateUser(ctx context.Context, u models.User) (models.User, error)
}

// Service serves the staff directory, caching the full listing in Redis
// when a client is configured.
type Service struct {
	store UserStore
	cache *redis.Client
	ttl   time.Duration
	log   *zap.Logger
}

// New creates a directory service. cache may be nil.
func New(store UserStore, cache *redis.Client, ttl time.Duration, log *zap.Logger) *Service {
	return &Service{store: store, cache: cache, ttl: ttl, log: log}
}

// NewRedisClient returns a client for addr, or nil when addr is empty.
func NewRedisClient(addr, password string, db int) *redis.Client {
	if addr == "" {
		return nil
	}
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}

// Users returns the whole directory. Cache failures fall through to the store.
func (s *Service) Users(ctx context.Context) ([]models.User, error) {
	if s.cache != nil {
		raw, err := s.cache.Get(ctx, cacheKey).Bytes()
		switch {
		case err == nil:
			var users []models.User
			jerr := json.Unmarshal(raw, &users)
			if jerr == nil {
				return users, nil
			}
			s.log.Warn("discarding unreadable directory cache", zap.Error(jerr))
		case !errors.Is(err, redis.Nil):
			s.log.Warn("directory cache read failed", zap.Error(err))
		}
	}

	users, err := s.store.ListUsers(ctx)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if raw, err := json.Marshal(users); err == nil {
			if err := s.cache.Set(ctx, cacheKey, raw, s.ttl).Err(); err != nil {
				s.log.Warn("directory cache write failed", zap.Error(err))
			}
		}
	}
	return users, nil
}

// Create adds a user and invalidates the cached listing.
func (s *Service) Create(ctx context.Context, u models.User) (models.User, error) {
	created, err := s.store.CreateUser(ctx, u)
	if err != nil {
		return models.User{}, err
	}
	s.Invalidate(ctx)
	return created, nil
}

// Invalidate drops the cached listing.
func (s *Service) Invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, cacheKey).Err(); err != nil {
		s.log.Warn("directory cache invalidation failed", zap.Error(err))
	}
}

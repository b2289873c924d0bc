package shortlink

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/foodgram/backend/internal/models"
)

// ErrNotFound is returned when no recipe owns a token.
var ErrNotFound = errors.New("short link not found")

func cacheKey(token string) string {
	return "shortlink:" + token
}

// Resolver maps tokens back to recipe ids. When a Redis client is configured,
// lookups are cached; tokens never change so entries only go stale on delete.
type Resolver struct {
	db     *gorm.DB
	redis  *redis.Client
	ttl    time.Duration
	logger logrus.FieldLogger
}

// NewResolver creates a Resolver. redisClient may be nil.
func NewResolver(db *gorm.DB, redisClient *redis.Client, ttl time.Duration, logger logrus.FieldLogger) *Resolver {
	return &Resolver{db: db, redis: redisClient, ttl: ttl, logger: logger}
}

// Resolve returns the id of the recipe owning token.
func (r *Resolver) Resolve(ctx context.Context, token string) (uint, error) {
	if !Valid(token) {
		return 0, ErrNotFound
	}

	if r.redis != nil {
		id, err := r.redis.Get(ctx, cacheKey(token)).Uint64()
		if err == nil {
			return uint(id), nil
		}
		if !errors.Is(err, redis.Nil) {
			// cache trouble should never break redirects
			r.logger.WithError(err).Warn("short link cache read failed")
		}
	}

	var recipe models.Recipe
	err := r.db.WithContext(ctx).Select("id").Where("short_link = ?", token).First(&recipe).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, err
	}

	if r.redis != nil {
		if err := r.redis.Set(ctx, cacheKey(token), strconv.FormatUint(uint64(recipe.ID), 10), r.ttl).Err(); err != nil {
			r.logger.WithError(err).Warn("short link cache write failed")
		}
	}

	return recipe.ID, nil
}

// Forget drops a cached token, used when its recipe is deleted.
func (r *Resolver) Forget(ctx context.Context, token string) {
	if r.redis == nil || token == "" {
		return
	}
	if err := r.redis.Del(ctx, cacheKey(token)).Err(); err != nil {
		r.logger.WithError(err).Warn("short link cache delete failed")
	}
}

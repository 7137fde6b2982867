package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sbilibin2017/gw-recipe-book/internal/logger"
)

// RecipeBodyCacheRepository caches encoded recipe bodies in Redis.
type RecipeBodyCacheRepository struct {
	client *redis.Client
	exp    time.Duration // expiration for cached bodies
}

// NewRecipeBodyCacheRepository creates a cache with the given TTL.
func NewRecipeBodyCacheRepository(client *redis.Client, expiration time.Duration) *RecipeBodyCacheRepository {
	return &RecipeBodyCacheRepository{
		client: client,
		exp:    expiration,
	}
}

func bodyCacheKey(id int64) string {
	return fmt.Sprintf("recipe_body:%d", id)
}

// Get returns the cached body of recipe id. A miss yields nil, nil.
func (r *RecipeBodyCacheRepository) Get(ctx context.Context, id int64) ([]byte, error) {
	key := bodyCacheKey(id)

	val, err := r.client.Get(ctx, key).Bytes()
	logger.Log.Infow("cache get",
		"key", key,
		"size", len(val),
		"error", err,
	)

	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return val, nil
}

// Set caches the body of recipe id.
func (r *RecipeBodyCacheRepository) Set(ctx context.Context, id int64, body []byte) error {
	key := bodyCacheKey(id)
	err := r.client.Set(ctx, key, body, r.exp).Err()

	logger.Log.Infow("cache set",
		"key", key,
		"size", len(body),
		"error", err,
	)

	return err
}

// Delete evicts the body of recipe id.
func (r *RecipeBodyCacheRepository) Delete(ctx context.Context, id int64) error {
	key := bodyCacheKey(id)
	err := r.client.Del(ctx, key).Err()

	logger.Log.Infow("cache delete",
		"key", key,
		"error", err,
	)

	return err
}

package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

const (
	ownedMoviesPrefix = "owned_movies:"
	ownedMoviesTTL    = 30 * time.Minute
)

// OwnedCacheRepo caches the per-user owned-movies set. An absent key reads
// as a miss, never as "owns nothing", so the store stays the source of truth.
type OwnedCacheRepo struct {
	client *goredis.Client
	ttl    time.Duration
}

func NewOwnedCacheRepo(client *goredis.Client) *OwnedCacheRepo {
	return &OwnedCacheRepo{client: client, ttl: ownedMoviesTTL}
}

func (r *OwnedCacheRepo) Get(ctx context.Context, userID int64) ([]string, bool, error) {
	if r.client == nil {
		return nil, false, fmt.Errorf("redis client is nil")
	}
	if userID <= 0 {
		return nil, false, nil
	}

	key := ownedMoviesKey(userID)
	exists, err := r.client.Exists(ctx, key).Result()
	if err != nil {
		return nil, false, fmt.Errorf("check owned movies key: %w", err)
	}
	if exists == 0 {
		return nil, false, nil
	}

	ids, err := r.client.SMembers(ctx, key).Result()
	if err != nil {
		return nil, false, fmt.Errorf("read owned movies set: %w", err)
	}
	return ids, true, nil
}

func (r *OwnedCacheRepo) Set(ctx context.Context, userID int64, movieIDs []string) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	if userID <= 0 || len(movieIDs) == 0 {
		return nil
	}

	key := ownedMoviesKey(userID)
	members := make([]interface{}, 0, len(movieIDs))
	for _, id := range movieIDs {
		members = append(members, id)
	}

	pipe := r.client.TxPipeline()
	pipe.Del(ctx, key)
	pipe.SAdd(ctx, key, members...)
	pipe.Expire(ctx, key, r.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("fill owned movies set: %w", err)
	}
	return nil
}

func (r *OwnedCacheRepo) Add(ctx context.Context, userID int64, movieID string) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	if userID <= 0 || movieID == "" {
		return nil
	}

	key := ownedMoviesKey(userID)
	// Only extend an existing set. Creating the key here would make a
	// single-element set read back as the full collection.
	exists, err := r.client.Exists(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("check owned movies key: %w", err)
	}
	if exists == 0 {
		return nil
	}

	pipe := r.client.TxPipeline()
	pipe.SAdd(ctx, key, movieID)
	pipe.Expire(ctx, key, r.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("append owned movies set: %w", err)
	}
	return nil
}

func ownedMoviesKey(userID int64) string {
	return ownedMoviesPrefix + strconv.FormatInt(userID, 10)
}

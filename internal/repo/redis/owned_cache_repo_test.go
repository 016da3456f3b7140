package redis_test

import (
	"context"
	"sort"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"

	redrepo "github.com/beastcodes27/movie-backend/internal/repo/redis"
)

func newOwnedCacheForTest(t *testing.T) (*miniredis.Miniredis, *redrepo.OwnedCacheRepo, func()) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}

	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	cleanup := func() {
		_ = client.Close()
		mr.Close()
	}

	return mr, redrepo.NewOwnedCacheRepo(client), cleanup
}

func TestOwnedCacheAbsentKeyIsMiss(t *testing.T) {
	_, cache, cleanup := newOwnedCacheForTest(t)
	defer cleanup()

	_, ok, err := cache.Get(context.Background(), 42)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if ok {
		t.Fatal("absent key must read as a miss")
	}
}

func TestOwnedCacheSetThenGet(t *testing.T) {
	_, cache, cleanup := newOwnedCacheForTest(t)
	defer cleanup()

	ctx := context.Background()
	if err := cache.Set(ctx, 42, []string{"movie-1", "movie-2"}); err != nil {
		t.Fatalf("set: %v", err)
	}

	ids, ok, err := cache.Get(ctx, 42)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !ok {
		t.Fatal("filled key must read as a hit")
	}
	sort.Strings(ids)
	if len(ids) != 2 || ids[0] != "movie-1" || ids[1] != "movie-2" {
		t.Fatalf("unexpected ids: %v", ids)
	}
}

func TestOwnedCacheAddExtendsExistingSetOnly(t *testing.T) {
	_, cache, cleanup := newOwnedCacheForTest(t)
	defer cleanup()

	ctx := context.Background()

	// Add against an absent key must not create a partial set.
	if err := cache.Add(ctx, 42, "movie-9"); err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, ok, _ := cache.Get(ctx, 42); ok {
		t.Fatal("add must not create the key")
	}

	if err := cache.Set(ctx, 42, []string{"movie-1"}); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := cache.Add(ctx, 42, "movie-9"); err != nil {
		t.Fatalf("add: %v", err)
	}

	ids, ok, err := cache.Get(ctx, 42)
	if err != nil || !ok {
		t.Fatalf("get: ok=%v err=%v", ok, err)
	}
	if len(ids) != 2 {
		t.Fatalf("expected 2 ids, got %v", ids)
	}
}

func TestOwnedCacheEntriesExpire(t *testing.T) {
	mr, cache, cleanup := newOwnedCacheForTest(t)
	defer cleanup()

	ctx := context.Background()
	if err := cache.Set(ctx, 42, []string{"movie-1"}); err != nil {
		t.Fatalf("set: %v", err)
	}

	mr.FastForward(31 * time.Minute)

	if _, ok, _ := cache.Get(ctx, 42); ok {
		t.Fatal("expired key must read as a miss")
	}
}

package catalog

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestResolverReadThroughCache(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	seeded := NewResolver(ResolverConfig{
		Local:        testDataset(t),
		Redis:        client,
		ImageBaseURL: "https://image.tmdb.org/t/p/w500",
		CacheTTL:     time.Minute,
	})

	want, err := seeded.Resolve(context.Background(), "Inception")
	if err != nil {
		t.Fatalf("seeding resolve: %v", err)
	}
	if !mr.Exists("catalog:title:inception") {
		t.Fatal("hit was not written through to the cache")
	}
	if ttl := mr.TTL("catalog:title:inception"); ttl != time.Minute {
		t.Fatalf("cache ttl = %v, want 1m", ttl)
	}

	// A resolver with no other tier can only answer from the cache.
	cacheOnly := NewResolver(ResolverConfig{Redis: client})
	got, err := cacheOnly.Resolve(context.Background(), "inception")
	if err != nil {
		t.Fatalf("cache resolve: %v", err)
	}
	if got.Title != want.Title || got.Summary != want.Summary || got.Poster != want.Poster {
		t.Fatalf("cached metadata disagrees:\n%+v\n%+v", got, want)
	}

	if _, err := cacheOnly.Resolve(context.Background(), "Never Cached"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("uncached title error = %v, want ErrNotFound", err)
	}
}

func TestResolverCacheErrorIsMiss(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	mr.Close() // every cache call now fails

	resolver := NewResolver(ResolverConfig{
		Local:        testDataset(t),
		Redis:        client,
		ImageBaseURL: "https://image.tmdb.org/t/p/w500",
	})

	meta, err := resolver.Resolve(context.Background(), "Inception")
	if err != nil {
		t.Fatalf("resolve with broken cache: %v", err)
	}
	if meta.Title != "Inception" {
		t.Fatalf("title = %q", meta.Title)
	}
}

func TestResolverSkipsUnreadableCacheEntry(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	if err := mr.Set("catalog:title:inception", "not json"); err != nil {
		t.Fatalf("seed cache: %v", err)
	}

	resolver := NewResolver(ResolverConfig{
		Local:        testDataset(t),
		Redis:        client,
		ImageBaseURL: "https://image.tmdb.org/t/p/w500",
	})

	meta, err := resolver.Resolve(context.Background(), "Inception")
	if err != nil {
		t.Fatalf("resolve past corrupt entry: %v", err)
	}
	if meta.Summary == "" {
		t.Fatal("expected metadata from the local tier")
	}
}

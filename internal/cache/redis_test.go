// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cache

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"
)

// skipIfNoRedis skips the test unless LINGO_TEST_REDIS_URL is set.
func skipIfNoRedis(t *testing.T) string {
	t.Helper()
	url := os.Getenv("LINGO_TEST_REDIS_URL")
	if url == "" {
		t.Skip("Skipping Redis tests: LINGO_TEST_REDIS_URL not set")
	}
	return url
}

func newTestRedisCache(t *testing.T) *RedisCache {
	t.Helper()
	url := skipIfNoRedis(t)

	opts := DefaultRedisOptions()
	opts.URL = url
	opts.Prefix = "lingotable-test:"
	c, err := NewRedisCache(opts)
	if err != nil {
		t.Fatalf("NewRedisCache: %v", err)
	}
	_ = c.Clear(context.Background())
	t.Cleanup(func() {
		_ = c.Clear(context.Background())
		_ = c.Close()
	})
	return c
}

func TestRedisCache_Basic(t *testing.T) {
	c := newTestRedisCache(t)
	ctx := context.Background()

	if err := c.Set(ctx, "k", []byte("v"), time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, err := c.Get(ctx, "k")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got) != "v" {
		t.Errorf("Get = %q, want v", got)
	}

	if err := c.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := c.Get(ctx, "k"); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("Get after Delete: err = %v, want ErrCacheMiss", err)
	}
}

func TestRedisCache_DeleteByPrefix(t *testing.T) {
	c := newTestRedisCache(t)
	ctx := context.Background()

	for _, k := range []string{"export:a.db:x", "export:a.db:y", "export:b.db:x"} {
		if err := c.Set(ctx, k, []byte("v"), time.Minute); err != nil {
			t.Fatalf("Set(%s): %v", k, err)
		}
	}
	if err := c.DeleteByPrefix(ctx, "export:a.db:"); err != nil {
		t.Fatalf("DeleteByPrefix: %v", err)
	}

	if _, err := c.Get(ctx, "export:a.db:x"); !errors.Is(err, ErrCacheMiss) {
		t.Error("export:a.db:x should be gone")
	}
	if _, err := c.Get(ctx, "export:b.db:x"); err != nil {
		t.Errorf("export:b.db:x should survive: %v", err)
	}
}

func TestNewRedisCache_RequiresURL(t *testing.T) {
	if _, err := NewRedisCache(RedisOptions{}); err == nil {
		t.Error("expected error for empty URL")
	}
}

// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"
)

func newTestMemoryCache(t *testing.T, maxSize int) *MemoryCache {
	t.Helper()
	c := NewMemoryCache(MemoryOptions{DefaultTTL: time.Hour, MaxSize: maxSize})
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestMemoryCache_BasicOperations(t *testing.T) {
	c := newTestMemoryCache(t, 0)
	ctx := context.Background()

	if err := c.Set(ctx, "export:default.db:chinese", []byte(`{"a":"b"}`), 0); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	val, err := c.Get(ctx, "export:default.db:chinese")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(val) != `{"a":"b"}` {
		t.Errorf("Get = %s, want {\"a\":\"b\"}", val)
	}

	// Returned slices are copies.
	val[0] = 'X'
	again, _ := c.Get(ctx, "export:default.db:chinese")
	if again[0] != '{' {
		t.Error("cached value was mutated through Get result")
	}

	if err := c.Delete(ctx, "export:default.db:chinese"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := c.Get(ctx, "export:default.db:chinese"); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("Get after Delete: err = %v, want ErrCacheMiss", err)
	}
}

func TestMemoryCache_Expiry(t *testing.T) {
	c := newTestMemoryCache(t, 0)
	ctx := context.Background()

	if err := c.Set(ctx, "short", []byte("v"), 10*time.Millisecond); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	time.Sleep(30 * time.Millisecond)

	if _, err := c.Get(ctx, "short"); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("expired Get: err = %v, want ErrCacheMiss", err)
	}
}

func TestMemoryCache_DeleteByPrefix(t *testing.T) {
	c := newTestMemoryCache(t, 0)
	ctx := context.Background()

	for _, k := range []string{"export:a.db:chinese", "export:a.db:all", "export:b.db:chinese"} {
		if err := c.Set(ctx, k, []byte("v"), 0); err != nil {
			t.Fatalf("Set(%s): %v", k, err)
		}
	}

	if err := c.DeleteByPrefix(ctx, "export:a.db:"); err != nil {
		t.Fatalf("DeleteByPrefix: %v", err)
	}

	if c.Len() != 1 {
		t.Errorf("Len = %d, want 1", c.Len())
	}
	if _, err := c.Get(ctx, "export:b.db:chinese"); err != nil {
		t.Errorf("other database entry should survive: %v", err)
	}
}

func TestMemoryCache_MaxSizeEvictsSoonestExpiry(t *testing.T) {
	c := newTestMemoryCache(t, 2)
	ctx := context.Background()

	_ = c.Set(ctx, "soon", []byte("1"), time.Minute)
	_ = c.Set(ctx, "later", []byte("2"), time.Hour)
	_ = c.Set(ctx, "new", []byte("3"), time.Hour)

	if c.Len() != 2 {
		t.Fatalf("Len = %d, want 2", c.Len())
	}
	if _, err := c.Get(ctx, "soon"); !errors.Is(err, ErrCacheMiss) {
		t.Error("entry closest to expiry should be evicted")
	}
	if _, err := c.Get(ctx, "later"); err != nil {
		t.Errorf("later: %v", err)
	}

	// Overwriting an existing key never evicts.
	_ = c.Set(ctx, "later", []byte("2b"), time.Hour)
	if c.Len() != 2 {
		t.Errorf("Len after overwrite = %d, want 2", c.Len())
	}
}

func TestMemoryCache_Stats(t *testing.T) {
	c := newTestMemoryCache(t, 0)
	ctx := context.Background()

	_ = c.Set(ctx, "k", []byte("v"), 0)
	_, _ = c.Get(ctx, "k")
	_, _ = c.Get(ctx, "missing")

	s := c.Stats()
	if s.Hits != 1 || s.Misses != 1 || s.Sets != 1 || s.Items != 1 {
		t.Errorf("Stats = %+v", s)
	}
	if s.HitRate != 50 {
		t.Errorf("HitRate = %v, want 50", s.HitRate)
	}
}

func TestMemoryCache_Closed(t *testing.T) {
	c := NewMemoryCache(MemoryOptions{CleanupInterval: time.Millisecond})
	if err := c.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}

	ctx := context.Background()
	if _, err := c.Get(ctx, "k"); !errors.Is(err, ErrCacheClosed) {
		t.Errorf("Get: err = %v, want ErrCacheClosed", err)
	}
	if err := c.Set(ctx, "k", nil, 0); !errors.Is(err, ErrCacheClosed) {
		t.Errorf("Set: err = %v, want ErrCacheClosed", err)
	}
}

func TestMemoryCache_Concurrent(t *testing.T) {
	c := newTestMemoryCache(t, 50)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := range 10 {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := range 100 {
				key := fmt.Sprintf("k%d-%d", n, j%20)
				_ = c.Set(ctx, key, []byte("v"), 0)
				_, _ = c.Get(ctx, key)
				if j%25 == 0 {
					_ = c.DeleteByPrefix(ctx, fmt.Sprintf("k%d-", n))
				}
			}
		}(i)
	}
	wg.Wait()

	if c.Len() > 50 {
		t.Errorf("Len = %d, exceeds MaxSize", c.Len())
	}
}

func TestJSONHelpers(t *testing.T) {
	c := newTestMemoryCache(t, 0)
	ctx := context.Background()

	type payload struct {
		Data map[string]string `json:"data"`
	}
	in := payload{Data: map[string]string{"greet.hello": "你好"}}
	if err := SetJSON(ctx, c, "p", in, 0); err != nil {
		t.Fatalf("SetJSON: %v", err)
	}

	out, err := GetJSON[payload](ctx, c, "p")
	if err != nil {
		t.Fatalf("GetJSON: %v", err)
	}
	if out.Data["greet.hello"] != "你好" {
		t.Errorf("GetJSON = %+v", out)
	}

	if _, err := GetJSON[payload](ctx, c, "absent"); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("GetJSON(absent): err = %v, want ErrCacheMiss", err)
	}
}

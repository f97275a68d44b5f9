package cache

import (
	"context"
	"testing"
	"time"
)

func TestMemory_SetGetRoundTrip(t *testing.T) {
	cache := NewMemory()
	ctx := context.Background()

	if err := cache.SetWithTTL(ctx, "gnap:clients:1", []byte("payload"), time.Hour); err != nil {
		t.Fatalf("SetWithTTL: %v", err)
	}
	data, found, err := cache.Get(ctx, "gnap:clients:1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !found {
		t.Fatalf("expected hit")
	}
	if string(data) != "payload" {
		t.Fatalf("unexpected payload %q", data)
	}
}

func TestMemory_MissAndExpiry(t *testing.T) {
	cache := NewMemory()
	ctx := context.Background()

	_, found, err := cache.Get(ctx, "absent")
	if err != nil || found {
		t.Fatalf("expected clean miss, found=%v err=%v", found, err)
	}

	if err := cache.SetWithTTL(ctx, "short", []byte("x"), time.Minute); err != nil {
		t.Fatalf("SetWithTTL: %v", err)
	}
	cache.nowFn = func() time.Time { return time.Now().UTC().Add(2 * time.Minute) }

	_, found, err = cache.Get(ctx, "short")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if found {
		t.Fatalf("expected expired entry to miss")
	}
}

func TestMemory_GetReturnsCopy(t *testing.T) {
	cache := NewMemory()
	ctx := context.Background()

	if err := cache.SetWithTTL(ctx, "key", []byte("abc"), time.Hour); err != nil {
		t.Fatalf("SetWithTTL: %v", err)
	}
	data, _, _ := cache.Get(ctx, "key")
	data[0] = 'z'

	fresh, _, _ := cache.Get(ctx, "key")
	if string(fresh) != "abc" {
		t.Fatalf("caller mutation leaked into cache: %q", fresh)
	}
}

func TestMemory_Clear(t *testing.T) {
	cache := NewMemory()
	ctx := context.Background()

	_ = cache.SetWithTTL(ctx, "key", []byte("abc"), time.Hour)
	cache.Clear()

	_, found, _ := cache.Get(ctx, "key")
	if found {
		t.Fatalf("expected cleared cache to miss")
	}
}

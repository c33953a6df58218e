package utils

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"

	"PracticeManager/cache"
)

func TestGenerateResetCode(t *testing.T) {
	for i := 0; i < 50; i++ {
		code, err := GenerateResetCode()
		if err != nil {
			t.Fatal(err)
		}
		if !resetCodeRegex.MatchString(code) {
			t.Fatalf("code %q is not six digits", code)
		}
	}
}

func TestResetCodes(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	c, _ := cache.NewCache(client)
	codes := NewResetCodes(c)
	ctx := context.Background()

	if err := codes.Set(ctx, " Dr@Example.com", "123456"); err != nil {
		t.Fatal(err)
	}
	ok, err := codes.Matches(ctx, "dr@example.com", "123456")
	if err != nil || !ok {
		t.Fatalf("expected match, ok=%v err=%v", ok, err)
	}
	if ok, _ := codes.Matches(ctx, "dr@example.com", "654321"); ok {
		t.Error("wrong code matched")
	}

	mr.FastForward(ResetCodeExpiry + time.Second)
	if ok, _ := codes.Matches(ctx, "dr@example.com", "123456"); ok {
		t.Error("expired code matched")
	}

	_ = codes.Set(ctx, "dr@example.com", "111111")
	_ = codes.Delete(ctx, "dr@example.com")
	if ok, _ := codes.Matches(ctx, "dr@example.com", "111111"); ok {
		t.Error("deleted code matched")
	}
}

func TestResetCodes_BurnedAfterMisses(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	c, _ := cache.NewCache(client)
	codes := NewResetCodes(c)
	ctx := context.Background()

	if err := codes.Set(ctx, "dr@example.com", "123456"); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < MaxResetAttempts-1; i++ {
		if ok, err := codes.Matches(ctx, "dr@example.com", "000000"); ok || err != nil {
			t.Fatalf("miss %d: ok=%v err=%v", i, ok, err)
		}
	}
	if ok, _ := codes.Matches(ctx, "dr@example.com", "123456"); !ok {
		t.Fatal("code should survive fewer misses than the limit")
	}

	_ = codes.Set(ctx, "dr@example.com", "123456")
	for i := 0; i < MaxResetAttempts; i++ {
		_, _ = codes.Matches(ctx, "dr@example.com", "000000")
	}
	if ok, _ := codes.Matches(ctx, "dr@example.com", "123456"); ok {
		t.Error("code should be dropped after too many misses")
	}
	if mr.Exists("reset_code:dr@example.com:attempts") {
		t.Error("miss counter should be removed with the code")
	}
}

package infra

import (
	"context"
	"testing"
	"time"
)

func TestRateLimiter_Burst(t *testing.T) {
	rl := NewRateLimiter(3, 1)

	for i := 0; i < 3; i++ {
		if !rl.TryAcquire() {
			t.Fatalf("burst token %d should be available", i)
		}
	}
	if rl.TryAcquire() {
		t.Error("4th token should not be available immediately")
	}
}

func TestRateLimiter_Refill(t *testing.T) {
	rl := NewRateLimiter(1, 100) // 100 tokens/sec

	if !rl.TryAcquire() {
		t.Fatal("first token should be available")
	}
	if rl.TryAcquire() {
		t.Fatal("bucket should be empty")
	}

	time.Sleep(30 * time.Millisecond)
	if !rl.TryAcquire() {
		t.Error("token should have refilled after 30ms at 100/s")
	}
}

func TestRateLimiter_WaitCancelled(t *testing.T) {
	rl := NewRateLimiter(1, 0.001) // effectively never refills
	rl.TryAcquire()                // drain

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if err := rl.Wait(ctx); err == nil {
		t.Error("Wait should fail when context is cancelled before a token frees up")
	}
}

func TestRateLimiter_WaitImmediate(t *testing.T) {
	rl := NewRateLimiter(1, 1)
	if err := rl.Wait(context.Background()); err != nil {
		t.Errorf("Wait with a full bucket should return immediately: %v", err)
	}
}

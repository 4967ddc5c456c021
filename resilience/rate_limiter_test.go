package resilience

import (
	"errors"
	"testing"
	"time"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestLimiter(cfg RateLimiterConfig) (*RateLimiter, *fakeClock) {
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	rl := NewRateLimiter(cfg)
	rl.now = clock.now
	rl.lastSweep = clock.t
	return rl, clock
}

func TestRateLimiter_AllowsBurst(t *testing.T) {
	rl, _ := newTestLimiter(RateLimiterConfig{Name: "test", Rate: 10, Burst: 5})

	for i := 0; i < 5; i++ {
		if !rl.Allow("1.2.3.4") {
			t.Errorf("request %d should be allowed", i)
		}
	}
	if rl.Allow("1.2.3.4") {
		t.Error("request over burst should be rejected")
	}
}

func TestRateLimiter_KeysAreIndependent(t *testing.T) {
	rl, _ := newTestLimiter(RateLimiterConfig{Rate: 1, Burst: 1})

	if !rl.Allow("a") || !rl.Allow("b") {
		t.Fatal("first request of each key should be allowed")
	}
	if rl.Allow("a") {
		t.Error("second request of a should be rejected")
	}
	if rl.Keys() != 2 {
		t.Errorf("expected 2 keys, got %d", rl.Keys())
	}
}

func TestRateLimiter_Refills(t *testing.T) {
	rl, clock := newTestLimiter(RateLimiterConfig{Rate: 10, Burst: 1})

	if !rl.Allow("k") {
		t.Fatal("first request should be allowed")
	}
	if rl.Allow("k") {
		t.Fatal("second request should be rejected")
	}
	clock.advance(150 * time.Millisecond)
	if !rl.Allow("k") {
		t.Error("request after refill should be allowed")
	}
}

func TestRateLimiter_DisabledWhenRateZero(t *testing.T) {
	rl, _ := newTestLimiter(RateLimiterConfig{})
	for i := 0; i < 100; i++ {
		if !rl.Allow("k") {
			t.Fatal("disabled limiter must allow everything")
		}
	}
	if rl.Keys() != 0 {
		t.Error("disabled limiter should not track keys")
	}
}

func TestRateLimiter_SweepsIdleKeys(t *testing.T) {
	rl, clock := newTestLimiter(RateLimiterConfig{Rate: 1, Burst: 1, IdleTTL: time.Minute})

	rl.Allow("old")
	clock.advance(2 * time.Minute)
	rl.Allow("new")

	if rl.Keys() != 1 {
		t.Errorf("expected idle key to be swept, have %d keys", rl.Keys())
	}
}

func TestRateLimiter_OnLimitAndExecute(t *testing.T) {
	var limited []string
	rl, _ := newTestLimiter(RateLimiterConfig{
		Name:    "publish",
		Rate:    1,
		Burst:   1,
		OnLimit: func(name, key string) { limited = append(limited, name+":"+key) },
	})

	calls := 0
	fn := func() error { calls++; return nil }
	if err := rl.Execute("k", fn); err != nil {
		t.Fatalf("first Execute failed: %v", err)
	}
	if err := rl.Execute("k", fn); !errors.Is(err, ErrRateLimited) {
		t.Errorf("expected ErrRateLimited, got %v", err)
	}
	if calls != 1 {
		t.Errorf("expected fn to run once, ran %d times", calls)
	}
	if len(limited) != 1 || limited[0] != "publish:k" {
		t.Errorf("unexpected OnLimit calls %v", limited)
	}
}

func TestDefaultRateLimiterConfig(t *testing.T) {
	cfg := DefaultRateLimiterConfig("publish")
	rl := NewRateLimiter(cfg)
	if rl.Rate() != 10 || rl.Burst() != 20 {
		t.Errorf("unexpected defaults rate=%v burst=%d", rl.Rate(), rl.Burst())
	}
}

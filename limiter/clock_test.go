package limiter_test

import (
	"sync"
	"testing"
	"time"

	"sliding_rate_limiter/limiter"
)

func TestRealClock_NonDecreasing(t *testing.T) {
	clk := limiter.NewRealClock()

	prev := clk.Now()
	for i := 0; i < 10_000; i++ {
		now := clk.Now()
		if now < prev {
			t.Fatalf("clock went backwards: %d after %d", now, prev)
		}
		prev = now
	}
}

func TestNewRealClockWithResolution(t *testing.T) {
	tests := []struct {
		name       string
		resolution time.Duration
		wantErr    bool
	}{
		{"millisecond", time.Millisecond, false},
		{"second", time.Second, false},
		{"zero", 0, true},
		{"negative", -time.Second, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clk, err := limiter.NewRealClockWithResolution(tt.resolution)
			if (err != nil) != tt.wantErr {
				t.Fatalf("error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && clk == nil {
				t.Fatal("expected clock, got nil")
			}
		})
	}
}

func TestRealClock_StartsNearZero(t *testing.T) {
	clk, err := limiter.NewRealClockWithResolution(time.Hour)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := clk.Now(); got != 0 {
		t.Errorf("Now() = %d, want 0 for an hour-resolution clock just created", got)
	}
}

func TestManualClock(t *testing.T) {
	clk := limiter.NewManualClock(5)
	if got := clk.Now(); got != 5 {
		t.Fatalf("Now() = %d, want 5", got)
	}

	clk.Advance(10)
	if got := clk.Now(); got != 15 {
		t.Fatalf("after Advance(10) Now() = %d, want 15", got)
	}

	clk.Set(3)
	if got := clk.Now(); got != 3 {
		t.Fatalf("after Set(3) Now() = %d, want 3", got)
	}
}

func TestManualClock_ConcurrentAdvance(t *testing.T) {
	clk := limiter.NewManualClock(0)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				clk.Advance(1)
				_ = clk.Now()
			}
		}()
	}
	wg.Wait()

	if got := clk.Now(); got != 5_000 {
		t.Errorf("Now() = %d, want 5000", got)
	}
}

func TestDecision_String(t *testing.T) {
	tests := []struct {
		d    limiter.Decision
		want string
	}{
		{limiter.Allowed, "ALLOWED"},
		{limiter.Denied, "DENIED"},
		{limiter.Decision(7), "UNKNOWN"},
	}
	for _, tt := range tests {
		if got := tt.d.String(); got != tt.want {
			t.Errorf("Decision(%d).String() = %q, want %q", int(tt.d), got, tt.want)
		}
		text, err := tt.d.MarshalText()
		if err != nil || string(text) != tt.want {
			t.Errorf("Decision(%d).MarshalText() = %q, %v", int(tt.d), text, err)
		}
	}
}

package retry

import (
	"math"
	"testing"
	"time"
)

func withJitter(t *testing.T, v float64) {
	t.Helper()
	prev := jitterFn
	jitterFn = func() float64 { return v }
	t.Cleanup(func() { jitterFn = prev })
}

// lowerBound is the non-jittered delay for attempt, capped at max.
func lowerBound(attempt int, base, max time.Duration) time.Duration {
	exp := float64(base) * math.Pow(2, float64(attempt))
	if max > 0 && exp >= float64(max) {
		return max
	}
	return time.Duration(exp)
}

func TestDelay_AttemptZeroWithinJitterBand(t *testing.T) {
	base := 100 * time.Millisecond
	for i := 0; i < 500; i++ {
		d := Delay(0, base, time.Minute)
		if d < base || d >= base*12/10 {
			t.Fatalf("Delay(0) = %v; want in [%v, %v)", d, base, base*12/10)
		}
	}
}

func TestDelay_ExactWithFixedJitter(t *testing.T) {
	withJitter(t, 0)
	if got := Delay(3, time.Second, time.Hour); got != 8*time.Second {
		t.Fatalf("Delay(3) without jitter = %v; want 8s", got)
	}

	withJitter(t, 0.5) // +10%
	if got := Delay(1, time.Second, time.Hour); got != 2200*time.Millisecond {
		t.Fatalf("Delay(1) with 10%% jitter = %v; want 2.2s", got)
	}
}

func TestDelay_CappedAtMax(t *testing.T) {
	max := 5 * time.Second
	for n := 0; n < 40; n++ {
		if d := Delay(n, time.Second, max); d > max {
			t.Fatalf("Delay(%d) = %v exceeds max %v", n, d, max)
		}
	}
	withJitter(t, 0.99)
	if got := Delay(2, time.Second, 4500*time.Millisecond); got != 4500*time.Millisecond {
		t.Fatalf("jittered delay should be capped, got %v", got)
	}
}

func TestDelay_LowerBoundMonotonic(t *testing.T) {
	base, max := 50*time.Millisecond, 10*time.Second
	prev := time.Duration(0)
	for n := 0; n < 20; n++ {
		lb := lowerBound(n, base, max)
		if lb < prev {
			t.Fatalf("lower bound decreased at attempt %d: %v < %v", n, lb, prev)
		}
		prev = lb
	}
}

func TestDelay_Degenerate(t *testing.T) {
	if d := Delay(3, 0, time.Second); d != 0 {
		t.Fatalf("zero base should yield zero delay, got %v", d)
	}
	withJitter(t, 0)
	if d := Delay(-2, time.Second, 0); d != time.Second {
		t.Fatalf("negative attempt treated as 0 and max<=0 uncapped; got %v", d)
	}
}

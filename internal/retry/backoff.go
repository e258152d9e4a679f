package retry

import (
	"math"
	"math/rand/v2"
	"time"
)

// maxJitter is the upper (exclusive) bound of the random fraction added to
// each delay.
const maxJitter = 0.2

// jitterFn returns a value in [0, 1). Tests replace it.
var jitterFn = rand.Float64

// Delay returns how long to wait before the retry that follows the given
// attempt index (0-based): base*2^attempt scaled by a random factor in
// [1, 1.2), capped at max. A max <= 0 disables the cap.
func Delay(attempt int, base, max time.Duration) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	if base <= 0 {
		return 0
	}

	exp := float64(base) * math.Pow(2, float64(attempt))
	d := exp * (1 + jitterFn()*maxJitter)

	if max > 0 && d >= float64(max) {
		return max
	}
	return time.Duration(d)
}

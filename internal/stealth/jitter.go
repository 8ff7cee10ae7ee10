package stealth

import (
	"math/rand"
	"time"
)

// Jitter produces randomized pauses that never land on whole seconds
type Jitter struct {
	rng *rand.Rand
}

// NewJitter creates a new Jitter instance
func NewJitter(rng *rand.Rand) *Jitter {
	return &Jitter{rng: rng}
}

// Duration returns a random duration between minSeconds and maxSeconds
func (j *Jitter) Duration(minSeconds, maxSeconds float64) time.Duration {
	if minSeconds < 0 {
		minSeconds = 0
	}
	if maxSeconds < minSeconds {
		maxSeconds = minSeconds
	}

	seconds := minSeconds + j.rng.Float64()*(maxSeconds-minSeconds)
	seconds += j.rng.Float64() * 0.0001
	return time.Duration(seconds * float64(time.Second))
}

// Intn returns a random integer in [min, max]
func (j *Jitter) Intn(min, max int) int {
	if min > max {
		min, max = max, min
	}
	if min == max {
		return min
	}
	return min + j.rng.Intn(max-min+1)
}

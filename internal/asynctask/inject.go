package asynctask

import (
	"errors"
	"math/rand"
	"sync"
	"time"
)

var ErrSimulatedFailure = errors.New("simulated failure")

// RandomFailures fails roughly rate of all tasks. A rate of 0 returns nil so no
// injector is installed.
func RandomFailures(rate float64, seed int64) FailureInjector {
	if rate <= 0 {
		return nil
	}
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	var mu sync.Mutex
	rng := rand.New(rand.NewSource(seed))
	return func() error {
		mu.Lock()
		defer mu.Unlock()
		if rng.Float64() < rate {
			return ErrSimulatedFailure
		}
		return nil
	}
}

package server

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiterBurstAndRefill(t *testing.T) {
	rl := newRateLimiter(RateLimitConfig{Burst: 3, RefillInterval: 3 * time.Second})
	start := rl.lastCheck

	for i := 0; i < 3; i++ {
		assert.True(t, rl.allowAt(start), "message %d within burst", i)
	}
	assert.False(t, rl.allowAt(start), "burst exhausted")

	assert.True(t, rl.allowAt(start.Add(time.Second)), "one token refilled")
	assert.False(t, rl.allowAt(start.Add(time.Second)))

	later := start.Add(time.Hour)
	for i := 0; i < 3; i++ {
		assert.True(t, rl.allowAt(later), "refill is capped at burst")
	}
	assert.False(t, rl.allowAt(later))
}

func TestRateLimiterDefaults(t *testing.T) {
	rl := newRateLimiter(RateLimitConfig{})

	assert.Equal(t, float64(1), rl.capacity)
	assert.Equal(t, float64(1), rl.rate)
	assert.True(t, rl.allowAt(rl.lastCheck))
	assert.False(t, rl.allowAt(rl.lastCheck))
}

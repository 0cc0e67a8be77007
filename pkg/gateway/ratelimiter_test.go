package gateway

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientRateLimiter_WindowLimit(t *testing.T) {
	limiter := NewClientRateLimiter(3, 10)

	for i := 0; i < 3; i++ {
		ok, _ := limiter.Acquire()
		require.True(t, ok)
		limiter.Release()
	}

	ok, reason := limiter.Acquire()
	assert.False(t, ok)
	assert.Equal(t, "rate limit exceeded", reason)
	assert.Equal(t, RateLimitExceeded, rateLimitCode(reason))
}

func TestClientRateLimiter_WindowSlides(t *testing.T) {
	now := time.Now()
	limiter := NewClientRateLimiter(2, 10)
	limiter.now = func() time.Time { return now }

	for i := 0; i < 2; i++ {
		ok, _ := limiter.Acquire()
		require.True(t, ok)
		limiter.Release()
	}
	ok, _ := limiter.Acquire()
	require.False(t, ok)

	now = now.Add(61 * time.Second)
	ok, _ = limiter.Acquire()
	assert.True(t, ok)

	count, inFlight := limiter.Stats()
	assert.Equal(t, 1, count)
	assert.Equal(t, 1, inFlight)
}

func TestClientRateLimiter_ConcurrencyLimit(t *testing.T) {
	limiter := NewClientRateLimiter(100, 2)

	ok1, _ := limiter.Acquire()
	ok2, _ := limiter.Acquire()
	require.True(t, ok1)
	require.True(t, ok2)

	ok, reason := limiter.Acquire()
	assert.False(t, ok)
	assert.Equal(t, "too many concurrent requests", reason)
	assert.Equal(t, TooManyConcurrent, rateLimitCode(reason))

	limiter.Release()
	ok, _ = limiter.Acquire()
	assert.True(t, ok)
}

func TestClientRateLimiter_ZeroDisables(t *testing.T) {
	limiter := NewClientRateLimiter(0, 0)
	for i := 0; i < 500; i++ {
		ok, _ := limiter.Acquire()
		require.True(t, ok)
	}
}

func TestClientRateLimiter_ReleaseNeverNegative(t *testing.T) {
	limiter := NewClientRateLimiter(10, 1)
	limiter.Release()
	limiter.Release()

	_, inFlight := limiter.Stats()
	assert.Equal(t, 0, inFlight)
}

func TestClientRateLimiter_Concurrent(t *testing.T) {
	limiter := NewClientRateLimiter(1000, 1000)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ok, _ := limiter.Acquire(); ok {
				limiter.Release()
			}
		}()
	}
	wg.Wait()

	count, inFlight := limiter.Stats()
	assert.Equal(t, 50, count)
	assert.Equal(t, 0, inFlight)
}

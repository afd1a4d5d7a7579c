package worker

import (
	"time"

	"github.com/jpillora/backoff"

	"github.com/anyswap/CrossChain-Settlement/types"
)

// retryDelay exponential delay before the next attempt of a row
// which already failed retryCount times
func retryDelay(base, max time.Duration, retryCount int) time.Duration {
	if retryCount <= 0 {
		return 0
	}
	b := &backoff.Backoff{
		Min:    base,
		Max:    max,
		Factor: 2,
	}
	return b.ForAttempt(float64(retryCount - 1))
}

// markRetry records a failed attempt and opens the next retry window
func markRetry(tx *types.Transaction, retries int, now int64, delay time.Duration) {
	tx.RetryCount = retries
	tx.LastRetryAt = now
	tx.NextRetryAt = now + int64(delay/time.Second)
}

// markExhausted records the last failed attempt of a row going terminal
func markExhausted(tx *types.Transaction, retries int, now int64) {
	tx.RetryCount = retries
	tx.LastRetryAt = now
	tx.NextRetryAt = 0
}

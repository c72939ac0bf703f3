package sync

import "time"

// retryStrategy holds the backoff intervals between fetch attempts.
type retryStrategy struct {
	intervals []time.Duration
}

// newRetryStrategy precomputes exponential backoff intervals: amount
// intervals starting at baseInterval, each factor times the previous one.
func newRetryStrategy(baseInterval time.Duration, factor, amount int) retryStrategy {
	intervals := make([]time.Duration, 0, amount)
	next := baseInterval
	for i := 0; i < amount; i++ {
		intervals = append(intervals, next)
		next *= time.Duration(factor)
	}
	return retryStrategy{intervals: intervals}
}

// duration returns the backoff before the given zero-based attempt,
// saturating at the last interval.
func (s retryStrategy) duration(attempt int) time.Duration {
	if attempt >= len(s.intervals) {
		attempt = len(s.intervals) - 1
	}
	return s.intervals[attempt]
}

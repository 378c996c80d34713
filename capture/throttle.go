package capture

import (
	"sync/atomic"
	"time"
)

// shouldLogEvery reports whether at least period has passed since the last
// true result recorded in last. Safe for concurrent callers.
func shouldLogEvery(last *atomic.Int64, period time.Duration) bool {
	if last == nil || period <= 0 {
		return true
	}

	now := time.Now().UnixNano()
	for {
		prev := last.Load()
		if prev != 0 && time.Duration(now-prev) < period {
			return false
		}
		if last.CompareAndSwap(prev, now) {
			return true
		}
	}
}

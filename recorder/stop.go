package recorder

import "time"

// StopCondition is consulted once per loop iteration with the wall-clock time
// elapsed since recording began.
type StopCondition interface {
	Stop(elapsed time.Duration) bool
}

// StopFunc adapts a function to StopCondition.
type StopFunc func(elapsed time.Duration) bool

func (f StopFunc) Stop(elapsed time.Duration) bool { return f(elapsed) }

// After stops a time-boxed recording once d has elapsed.
func After(d time.Duration) StopCondition {
	return StopFunc(func(elapsed time.Duration) bool {
		return elapsed >= d
	})
}

// Until stops once done is closed. done is the session's stop token.
func Until(done <-chan struct{}) StopCondition {
	return StopFunc(func(time.Duration) bool {
		select {
		case <-done:
			return true
		default:
			return false
		}
	})
}

// Any stops as soon as one of conds does.
func Any(conds ...StopCondition) StopCondition {
	return StopFunc(func(elapsed time.Duration) bool {
		for _, c := range conds {
			if c != nil && c.Stop(elapsed) {
				return true
			}
		}
		return false
	})
}

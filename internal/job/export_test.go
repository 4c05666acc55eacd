package job

import "time"

// SetClock swaps the package clock and returns a restore func.
func SetClock(fn func() time.Time) func() {
	prev := now
	now = fn
	return func() { now = prev }
}

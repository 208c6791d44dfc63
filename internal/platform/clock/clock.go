package clock

import "time"

// Clock abstracts time to keep services deterministic in tests.
type Clock interface {
	// Now keeps the monotonic reading, so durations between two calls are
	// immune to wall-clock steps. Convert with UTC only when storing or
	// formatting.
	Now() time.Time
	// AfterFunc runs f on its own goroutine once d has elapsed.
	AfterFunc(d time.Duration, f func()) Timer
}

// Timer is a cancelable scheduled call.
type Timer interface {
	// Stop prevents the call from firing. It reports false if the call
	// already fired or was stopped.
	Stop() bool
}

type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now()
}

func (SystemClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

package loop

import "time"

// Clock abstracts wall-clock time so tick pacing can be driven by a fake clock in tests.
type Clock interface {
	// Now returns the current time.
	Now() time.Time

	// NewTimer creates a timer that fires once after d.
	//
	// Parameters:
	//   - d: the delay before the timer fires
	//
	// Returns:
	//   - Timer: the started timer
	NewTimer(d time.Duration) Timer
}

// Timer is the subset of *time.Timer used by the loop controller.
type Timer interface {
	// C returns the channel the timer fires on.
	C() <-chan time.Time

	// Stop prevents the timer from firing. Returns false if it already fired or was stopped.
	Stop() bool
}

type systemClock struct{}

type systemTimer struct {
	t *time.Timer
}

// SystemClock returns a Clock backed by the time package.
//
// Returns:
//   - Clock: the real clock
func SystemClock() Clock {
	return systemClock{}
}

func (systemClock) Now() time.Time {
	return time.Now()
}

func (systemClock) NewTimer(d time.Duration) Timer {
	return systemTimer{t: time.NewTimer(d)}
}

func (t systemTimer) C() <-chan time.Time {
	return t.t.C
}

func (t systemTimer) Stop() bool {
	return t.t.Stop()
}

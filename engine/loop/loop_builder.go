package loop

// LoopControllerBuilderOption is a functional option for configuring a LoopController.
type LoopControllerBuilderOption func(*loopController)

// WithClock sets the clock used to pace Tick. Defaults to SystemClock.
//
// Parameters:
//   - c: the clock to use; nil keeps the default
//
// Returns:
//   - LoopControllerBuilderOption: option function to apply
func WithClock(c Clock) LoopControllerBuilderOption {
	return func(l *loopController) {
		if c != nil {
			l.clock = c
		}
	}
}

package renderer

const (
	// phaseStep is the per-frame increment of the phase, in hundredths.
	phaseStep = 2

	// phaseWrap is 1.0 in hundredths.
	phaseWrap = 100
)

// FrameState holds the per-frame animation counters. It is owned by a single renderer and
// touched only by the goroutine running its frames.
type FrameState struct {
	// A counts frames modulo 256.
	A uint32

	// phase is B in hundredths, so that repeated 0.02 steps land exactly on 1.0.
	phase uint32
}

// Advance moves the counters one frame forward: A wraps at 256 and B grows by 0.02,
// resetting to exactly 0 when it would reach 1.0.
func (s *FrameState) Advance() {
	s.A = (s.A + 1) % 256
	s.phase += phaseStep
	if s.phase >= phaseWrap {
		s.phase = 0
	}
}

// B returns the phase in [0, 1).
func (s FrameState) B() float32 {
	return float32(s.phase) / phaseWrap
}

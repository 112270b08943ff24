package renderer

import (
	"errors"
	"sync"

	"github.com/Carmen-Shannon/oxy-harness/engine/renderer/pipeline"
)

// HeadlessBackend is a RendererBackend that records calls instead of talking to a GPU.
// It is used by the headless backend type and by tests that need to inject frame failures.
type HeadlessBackend struct {
	mu *sync.Mutex

	width, height int
	scene         *SceneDescriptor
	pipeline      pipeline.Pipeline
	inFrame       bool

	configures int
	frames     int
	draws      int
	presents   int
	released   bool

	// failOn returns a non-nil error to fail the named call ("begin", "draw", "end", "present")
	// of the given 1-based frame.
	failOn func(call string, frame int) error
}

var _ RendererBackend = &HeadlessBackend{}

// NewHeadlessBackend creates an empty HeadlessBackend.
//
// Returns:
//   - *HeadlessBackend: the backend
func NewHeadlessBackend() *HeadlessBackend {
	return &HeadlessBackend{mu: &sync.Mutex{}}
}

// FailWith installs a hook consulted before every frame call.
//
// Parameters:
//   - fn: returns the error to report for a call of a frame, or nil to let it succeed
func (b *HeadlessBackend) FailWith(fn func(call string, frame int) error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failOn = fn
}

func (b *HeadlessBackend) ConfigureSurface(width, height int) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if width <= 0 || height <= 0 {
		return errors.New("surface size must be positive")
	}
	b.width, b.height = width, height
	b.configures++
	return nil
}

func (b *HeadlessBackend) Init(p pipeline.Pipeline, scene SceneDescriptor) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.configures == 0 {
		return errors.New("surface must be configured before Init")
	}
	if err := p.Validate(); err != nil {
		return err
	}
	b.pipeline = p
	b.scene = &scene
	return nil
}

func (b *HeadlessBackend) BeginFrame() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.inFrame {
		return ErrFrameInProgress
	}
	if err := b.fail("begin", b.frames+1); err != nil {
		return err
	}
	b.inFrame = true
	b.frames++
	return nil
}

func (b *HeadlessBackend) Draw() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.inFrame {
		return errors.New("draw outside of a frame")
	}
	if err := b.fail("draw", b.frames); err != nil {
		return err
	}
	b.draws++
	return nil
}

func (b *HeadlessBackend) EndFrame() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.inFrame {
		return errors.New("end frame outside of a frame")
	}
	b.inFrame = false
	return b.fail("end", b.frames)
}

func (b *HeadlessBackend) Present() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.fail("present", b.frames); err != nil {
		return err
	}
	b.presents++
	return nil
}

func (b *HeadlessBackend) Release() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.released = true
}

// Frames returns the number of frames begun.
func (b *HeadlessBackend) Frames() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.frames
}

// Draws returns the number of draw calls issued.
func (b *HeadlessBackend) Draws() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.draws
}

// Presents returns the number of successful presents.
func (b *HeadlessBackend) Presents() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.presents
}

// Size returns the last configured surface size.
func (b *HeadlessBackend) Size() (int, int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.width, b.height
}

// Released reports whether Release has been called.
func (b *HeadlessBackend) Released() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.released
}

// Scene returns the scene passed to Init, or nil before Init.
func (b *HeadlessBackend) Scene() *SceneDescriptor {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.scene
}

func (b *HeadlessBackend) fail(call string, frame int) error {
	if b.failOn == nil {
		return nil
	}
	return b.failOn(call, frame)
}

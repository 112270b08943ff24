// Package loop provides the cooperative tick scheduler shared by the window and render goroutines.
package loop

import (
	"sync"
	"sync/atomic"
	"time"
)

const (
	stateRunning int32 = iota
	stateStopped
)

// loopController implements the LoopController interface.
type loopController struct {
	clock Clock

	state atomic.Int32
	done  chan struct{} // closed exactly once by the Stop call that wins the state CAS
	wake  chan struct{} // capacity 1, signalled by Post

	mu      sync.Mutex
	pending []func()
}

// LoopController is a cooperative scheduler owned by a single goroutine.
//
// The owning goroutine calls Tick once per loop iteration. Any goroutine may call Stop,
// Stopped or Post. Once stopped the controller never runs again.
type LoopController interface {
	// Tick blocks the calling goroutine for up to budget, running any work items posted to the
	// controller as they arrive. It returns early once Stop has been called.
	// A budget <= 0 runs pending work and returns immediately.
	//
	// Parameters:
	//   - budget: the maximum time to block
	Tick(budget time.Duration)

	// Stop marks the controller stopped. Idempotent. It does not allocate or block,
	// so it is safe to call from a shutdown path triggered by an OS signal.
	Stop()

	// Stopped reports whether Stop has been called.
	//
	// Returns:
	//   - bool: true once stopped
	Stopped() bool

	// Post registers fn to run on the owning goroutine during its next Tick.
	//
	// Parameters:
	//   - fn: the work item
	//
	// Returns:
	//   - bool: false if the controller is already stopped and fn was dropped
	Post(fn func()) bool
}

var _ LoopController = &loopController{}

// NewLoopController creates a running LoopController.
//
// Parameters:
//   - options: functional options for the controller (clock)
//
// Returns:
//   - LoopController: the new controller
func NewLoopController(options ...LoopControllerBuilderOption) LoopController {
	l := &loopController{
		clock: SystemClock(),
		done:  make(chan struct{}),
		wake:  make(chan struct{}, 1),
	}
	for _, opt := range options {
		opt(l)
	}
	return l
}

func (l *loopController) Tick(budget time.Duration) {
	l.runPending()

	if budget <= 0 || l.Stopped() {
		return
	}

	timer := l.clock.NewTimer(budget)
	defer timer.Stop()

	for {
		select {
		case <-l.done:
			return
		case <-timer.C():
			l.runPending()
			return
		case <-l.wake:
			l.runPending()
			if l.Stopped() {
				return
			}
		}
	}
}

func (l *loopController) Stop() {
	if l.state.CompareAndSwap(stateRunning, stateStopped) {
		close(l.done)
	}
}

func (l *loopController) Stopped() bool {
	return l.state.Load() == stateStopped
}

func (l *loopController) Post(fn func()) bool {
	if fn == nil || l.Stopped() {
		return false
	}

	l.mu.Lock()
	l.pending = append(l.pending, fn)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
	return true
}

// runPending takes the queued work items and runs them in posting order on the calling goroutine.
func (l *loopController) runPending() {
	l.mu.Lock()
	work := l.pending
	l.pending = nil
	l.mu.Unlock()

	for _, fn := range work {
		fn()
	}
}

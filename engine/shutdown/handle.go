package shutdown

import (
	"runtime"
	"sync/atomic"
)

// Stopper is anything whose loop can be asked to stop. loop.LoopController satisfies it.
type Stopper interface {
	Stop()
}

type slot struct {
	stopper Stopper
}

// Handle is a shared, nullable reference to the Stopper of a running loop.
//
// The owning goroutine installs its controller with Set when its loop starts and removes it
// with Clear when the loop exits. Stop may be called from any goroutine at any time: it only
// performs atomic loads and adds, and a cleared handle makes it a no-op.
//
// A Handle must not be copied after first use.
type Handle struct {
	slot    atomic.Pointer[slot]
	readers atomic.Int32
}

// Set installs s as the current stopper, replacing any previous one.
//
// Parameters:
//   - s: the stopper to install; nil behaves like Clear without waiting
func (h *Handle) Set(s Stopper) {
	if s == nil {
		h.slot.Store(nil)
		return
	}
	h.slot.Store(&slot{stopper: s})
}

// Clear empties the handle and waits until no concurrent Stop call still holds the previous
// stopper. Once Clear returns, the previous stopper will not be touched through this handle
// again, so the owner may tear it down.
//
// Returns:
//   - Stopper: the stopper that was installed, or nil
func (h *Handle) Clear() Stopper {
	old := h.slot.Swap(nil)
	for h.readers.Load() > 0 {
		runtime.Gosched()
	}
	if old == nil {
		return nil
	}
	return old.stopper
}

// Stop calls Stop on the installed stopper, if any.
func (h *Handle) Stop() {
	h.readers.Add(1)
	defer h.readers.Add(-1)
	if s := h.slot.Load(); s != nil {
		s.stopper.Stop()
	}
}

// Active reports whether a stopper is currently installed.
//
// Returns:
//   - bool: true if the handle is non-empty
func (h *Handle) Active() bool {
	return h.slot.Load() != nil
}

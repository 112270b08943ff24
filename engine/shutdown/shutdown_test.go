package shutdown

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Carmen-Shannon/oxy-harness/engine/loop"
)

// sentinelStopper records Stop calls and flags any that arrive after destroy.
type sentinelStopper struct {
	destroyed       atomic.Bool
	stops           atomic.Int32
	stopsAfterDeath *atomic.Int32
}

func (s *sentinelStopper) Stop() {
	if s.destroyed.Load() {
		s.stopsAfterDeath.Add(1)
		return
	}
	s.stops.Add(1)
}

func (s *sentinelStopper) destroy() {
	s.destroyed.Store(true)
}

func TestRequestShutdownWithEmptyHandlesIsNoop(t *testing.T) {
	c := NewCoordinator()

	assert.NotPanics(t, func() {
		c.RequestShutdown()
		c.RequestShutdown()
	})
	assert.True(t, c.ShutdownRequested())
	assert.False(t, c.Main().Active())
	assert.False(t, c.Render().Active())
}

func TestDoneClosesOnFirstShutdownRequest(t *testing.T) {
	c := NewCoordinator()

	select {
	case <-c.Done():
		t.Fatal("done closed before shutdown was requested")
	default:
	}

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.RequestShutdown()
		}()
	}
	wg.Wait()

	select {
	case <-c.Done():
	case <-time.After(time.Second):
		t.Fatal("done not closed after shutdown")
	}
}

func TestRequestShutdownStopsBothLoops(t *testing.T) {
	c := NewCoordinator()
	mainLoop := loop.NewLoopController()
	renderLoop := loop.NewLoopController()
	c.Install(c.Main(), mainLoop)
	c.Install(c.Render(), renderLoop)

	go c.RequestShutdown()

	require.Eventually(t, func() bool { return mainLoop.Stopped() && renderLoop.Stopped() }, time.Second, time.Millisecond)
}

func TestRequestShutdownSkipsClearedHandle(t *testing.T) {
	c := NewCoordinator()
	mainLoop := loop.NewLoopController()
	renderLoop := loop.NewLoopController()
	c.Install(c.Main(), mainLoop)
	c.Install(c.Render(), renderLoop)

	assert.Equal(t, renderLoop, c.Render().Clear())
	c.RequestShutdown()

	assert.True(t, mainLoop.Stopped())
	assert.False(t, renderLoop.Stopped())
}

func TestInstallAfterShutdownStopsImmediately(t *testing.T) {
	c := NewCoordinator()
	c.RequestShutdown()

	l := loop.NewLoopController()
	c.Install(c.Render(), l)

	assert.True(t, l.Stopped())
}

func TestRequestWindowCloseWakesMainLoop(t *testing.T) {
	c := NewCoordinator()
	mainLoop := loop.NewLoopController()
	c.Install(c.Main(), mainLoop)

	returned := make(chan struct{})
	go func() {
		mainLoop.Tick(time.Hour)
		close(returned)
	}()

	assert.False(t, c.WindowCloseRequested())
	c.RequestWindowClose()

	assert.True(t, c.WindowCloseRequested())
	select {
	case <-returned:
	case <-time.After(time.Second):
		t.Fatal("main loop tick did not return after window close request")
	}
	assert.False(t, c.ShutdownRequested())
}

func TestRequestShutdownNeverStopsDestroyedController(t *testing.T) {
	c := NewCoordinator()
	var stopsAfterDeath atomic.Int32

	done := make(chan struct{})
	var wg sync.WaitGroup
	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-done:
					return
				default:
					c.RequestShutdown()
				}
			}
		}()
	}

	for range 2000 {
		s := &sentinelStopper{stopsAfterDeath: &stopsAfterDeath}
		c.Render().Set(s)
		c.Render().Clear()
		s.destroy()
	}
	close(done)
	wg.Wait()

	assert.Zero(t, stopsAfterDeath.Load())
}

func TestHandleSetNilClears(t *testing.T) {
	var h Handle
	s := &sentinelStopper{stopsAfterDeath: &atomic.Int32{}}
	h.Set(s)
	require.True(t, h.Active())

	h.Set(nil)
	assert.False(t, h.Active())
	h.Stop()
	assert.Zero(t, s.stops.Load())
}

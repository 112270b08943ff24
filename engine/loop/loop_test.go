package loop

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock is a manually advanced Clock.
type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*fakeTimer
}

type fakeTimer struct {
	clock    *fakeClock
	deadline time.Time
	ch       chan time.Time
	stopped  bool
	fired    bool
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Unix(0, 0)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) NewTimer(d time.Duration) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{clock: c, deadline: c.now.Add(d), ch: make(chan time.Time, 1)}
	c.timers = append(c.timers, t)
	return t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
	for _, t := range c.timers {
		if !t.stopped && !t.fired && !c.now.Before(t.deadline) {
			t.fired = true
			t.ch <- c.now
		}
	}
}

func (c *fakeClock) TimerCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.timers)
}

func (t *fakeTimer) C() <-chan time.Time {
	return t.ch
}

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	active := !t.stopped && !t.fired
	t.stopped = true
	return active
}

func tickAsync(l LoopController, budget time.Duration) <-chan struct{} {
	returned := make(chan struct{})
	go func() {
		l.Tick(budget)
		close(returned)
	}()
	return returned
}

func isClosed(ch <-chan struct{}) bool {
	select {
	case <-ch:
		return true
	default:
		return false
	}
}

func TestStopIsIdempotentAndMonotonic(t *testing.T) {
	l := NewLoopController()
	assert.False(t, l.Stopped())

	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			l.Stop()
		}()
	}
	wg.Wait()

	assert.True(t, l.Stopped())
	l.Stop()
	assert.True(t, l.Stopped())
	assert.True(t, isClosed(l.(*loopController).done))
}

func TestTickReturnsAfterBudget(t *testing.T) {
	clock := newFakeClock()
	l := NewLoopController(WithClock(clock))

	returned := tickAsync(l, 16*time.Millisecond)
	require.Eventually(t, func() bool { return clock.TimerCount() == 1 }, time.Second, time.Millisecond)

	clock.Advance(15 * time.Millisecond)
	assert.Never(t, func() bool { return isClosed(returned) }, 30*time.Millisecond, 5*time.Millisecond)

	clock.Advance(time.Millisecond)
	require.Eventually(t, func() bool { return isClosed(returned) }, time.Second, time.Millisecond)
	assert.False(t, l.Stopped())
}

func TestTickReturnsEarlyOnStop(t *testing.T) {
	clock := newFakeClock()
	l := NewLoopController(WithClock(clock))

	returned := tickAsync(l, time.Hour)
	require.Eventually(t, func() bool { return clock.TimerCount() == 1 }, time.Second, time.Millisecond)
	assert.False(t, isClosed(returned))

	go l.Stop()
	require.Eventually(t, func() bool { return isClosed(returned) }, time.Second, time.Millisecond)
}

func TestTickAfterStopDoesNotBlock(t *testing.T) {
	clock := newFakeClock()
	l := NewLoopController(WithClock(clock))
	l.Stop()

	l.Tick(time.Hour)
	assert.Equal(t, 0, clock.TimerCount())
}

func TestTickWithRealClockHonoursBudget(t *testing.T) {
	l := NewLoopController()

	start := time.Now()
	l.Tick(20 * time.Millisecond)
	elapsed := time.Since(start)

	assert.GreaterOrEqual(t, elapsed, 20*time.Millisecond)
	assert.Less(t, elapsed, 500*time.Millisecond)
}

func TestPostRunsOnTickingGoroutineInOrder(t *testing.T) {
	l := NewLoopController()

	var got []int
	for i := range 3 {
		require.True(t, l.Post(func() { got = append(got, i) }))
	}
	assert.Empty(t, got)

	l.Tick(0)
	assert.Equal(t, []int{0, 1, 2}, got)

	l.Tick(0)
	assert.Equal(t, []int{0, 1, 2}, got)
}

func TestPostWakesTickWithoutEndingIt(t *testing.T) {
	clock := newFakeClock()
	l := NewLoopController(WithClock(clock))

	ran := make(chan struct{})
	returned := tickAsync(l, 16*time.Millisecond)
	require.Eventually(t, func() bool { return clock.TimerCount() == 1 }, time.Second, time.Millisecond)

	require.True(t, l.Post(func() { close(ran) }))
	require.Eventually(t, func() bool { return isClosed(ran) }, time.Second, time.Millisecond)
	assert.False(t, isClosed(returned))

	clock.Advance(16 * time.Millisecond)
	require.Eventually(t, func() bool { return isClosed(returned) }, time.Second, time.Millisecond)
}

func TestPostAfterStopIsRejected(t *testing.T) {
	l := NewLoopController()
	l.Stop()

	assert.False(t, l.Post(func() {}))
	assert.False(t, NewLoopController().Post(nil))
}

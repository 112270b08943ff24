package profiler

import (
	"log/slog"
	"runtime"
	"strconv"
	"time"

	"github.com/Carmen-Shannon/oxy-harness/engine/logging"
)

// Stats is one reporting window of frame and memory statistics.
type Stats struct {
	FPS          float64
	HeapMB       float64
	AllocRateMB  float64
	SysMB        float64
	GCCount      uint32
	LastPauseUs  uint64
	MaxPauseUs   uint64
	FramesInSpan int
}

// Profiler tracks frame rate and memory statistics for performance monitoring.
// Outputs stats to the logger at a configurable interval.
type Profiler struct {
	frameCount     int
	lastTime       time.Time
	updateInterval time.Duration
	memStats       runtime.MemStats
	lastGCCount    uint32
	lastTotalAlloc uint64
	last           Stats

	now    func() time.Time
	logger *slog.Logger
}

// ProfilerBuilderOption is a functional option applied to a Profiler during NewProfiler.
type ProfilerBuilderOption func(*Profiler)

// WithInterval sets how often statistics are reported.
//
// Parameters:
//   - interval: the reporting interval, ignored if not positive
//
// Returns:
//   - ProfilerBuilderOption: a function that applies the interval option to a Profiler
func WithInterval(interval time.Duration) ProfilerBuilderOption {
	return func(p *Profiler) {
		if interval > 0 {
			p.updateInterval = interval
		}
	}
}

// WithNow replaces the time source, for tests.
func WithNow(now func() time.Time) ProfilerBuilderOption {
	return func(p *Profiler) {
		p.now = now
	}
}

// WithLogger sets the logger stats are written to. Defaults to logging.Logger().
func WithLogger(l *slog.Logger) ProfilerBuilderOption {
	return func(p *Profiler) {
		p.logger = l
	}
}

// NewProfiler creates a new Profiler. Update interval defaults to 1 second.
//
// Parameters:
//   - options: functional options to configure the profiler
//
// Returns:
//   - *Profiler: the newly created profiler instance
func NewProfiler(options ...ProfilerBuilderOption) *Profiler {
	p := &Profiler{
		updateInterval: time.Second,
		now:            time.Now,
	}
	for _, opt := range options {
		opt(p)
	}
	if p.logger == nil {
		p.logger = logging.Logger()
	}
	p.lastTime = p.now()
	return p
}

// Tick should be called once per frame to track frame timing.
// Logs performance statistics when the update interval has elapsed.
// Statistics include: FPS, heap usage, allocation rate, GC count/pause times, total memory.
//
// Returns:
//   - bool: true if stats were logged this tick, false otherwise
func (p *Profiler) Tick() bool {
	p.frameCount++
	currentTime := p.now()
	elapsed := currentTime.Sub(p.lastTime)

	if elapsed < p.updateInterval {
		return false
	}

	runtime.ReadMemStats(&p.memStats)
	// Alloc is live heap, TotalAlloc only grows, Sys is the process footprint.
	stats := Stats{
		FPS:          float64(p.frameCount) / elapsed.Seconds(),
		HeapMB:       float64(p.memStats.Alloc) / 1024 / 1024,
		SysMB:        float64(p.memStats.Sys) / 1024 / 1024,
		AllocRateMB:  float64(p.memStats.TotalAlloc-p.lastTotalAlloc) / 1024 / 1024 / elapsed.Seconds(),
		GCCount:      p.memStats.NumGC,
		FramesInSpan: p.frameCount,
	}

	if stats.GCCount > 0 {
		// PauseNs is a circular buffer of the last 256 GC pauses
		stats.LastPauseUs = p.memStats.PauseNs[(stats.GCCount-1)%256] / 1000

		startIdx := p.lastGCCount
		if stats.GCCount-startIdx > 256 {
			startIdx = stats.GCCount - 256
		}
		for i := startIdx; i < stats.GCCount; i++ {
			pause := p.memStats.PauseNs[i%256] / 1000
			if pause > stats.MaxPauseUs {
				stats.MaxPauseUs = pause
			}
		}
	}

	p.logger.Info("profiler",
		slog.String("fps", formatFloat(stats.FPS)),
		slog.String("heap_mb", formatFloat(stats.HeapMB)),
		slog.String("alloc_rate_mb_s", formatFloat(stats.AllocRateMB)),
		slog.Uint64("gc", uint64(stats.GCCount)),
		slog.Uint64("gc_last_us", stats.LastPauseUs),
		slog.Uint64("gc_max_us", stats.MaxPauseUs),
		slog.String("sys_mb", formatFloat(stats.SysMB)),
	)

	p.last = stats
	p.frameCount = 0
	p.lastTime = currentTime
	p.lastGCCount = stats.GCCount
	p.lastTotalAlloc = p.memStats.TotalAlloc
	return true
}

// Last returns the statistics of the most recently completed window.
func (p *Profiler) Last() Stats {
	return p.last
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

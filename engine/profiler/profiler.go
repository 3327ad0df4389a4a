package profiler

import (
	"fmt"
	"image"
	"runtime"
	"sync"
	"time"

	"github.com/Carmen-Shannon/oxy-fx/common"
	"github.com/Carmen-Shannon/oxy-fx/engine/clock"
)

// profiler is the implementation of the Profiler interface.
type profiler struct {
	mu *sync.Mutex

	frameCount     int
	lastTime       time.Time
	updateInterval time.Duration
	memStats       runtime.MemStats
	lastGCCount    uint32
	lastTotalAlloc uint64
	logging        bool
	now            func() time.Time

	// history is a ring of recent frame deltas in milliseconds.
	history []float64
	head    int
	filled  int
	frames  uint64

	overlayWidth  int
	overlayHeight int
}

// Profiler tracks frame rate and memory statistics for performance monitoring.
// It is the loop's stats overlay: Update runs once per frame after the passes, logs
// stats at a configurable interval and keeps a history of frame times for Overlay.
type Profiler interface {
	// Update records one frame.
	//
	// Parameters:
	//   - frame: the frame that just finished
	Update(frame clock.Frame)

	// Tick counts a frame and logs performance statistics when the update interval has elapsed.
	// Statistics include: FPS, heap usage, allocation rate, GC count/pause times, total memory.
	//
	// Returns:
	//   - bool: true if stats were logged this tick, false otherwise
	Tick() bool

	// FPS returns the frame rate implied by the recorded frame deltas.
	//
	// Returns:
	//   - float64: frames per second, 0 before any non-zero delta is recorded
	FPS() float64

	// Deltas returns the recorded frame deltas in milliseconds, oldest first.
	Deltas() []float64

	// Frames returns the number of frames recorded by Update.
	Frames() uint64

	// Overlay draws a frame-time graph with the current FPS.
	//
	// Returns:
	//   - *image.RGBA: a new image the size configured with WithOverlaySize
	Overlay() *image.RGBA
}

var _ Profiler = &profiler{}

// NewProfiler creates a new Profiler with default settings.
// Update interval defaults to 1 second and the history to 120 frames.
//
// Parameters:
//   - options: variadic list of ProfilerBuilderOption functions
//
// Returns:
//   - Profiler: the newly created profiler instance
func NewProfiler(options ...ProfilerBuilderOption) Profiler {
	p := &profiler{
		mu:             &sync.Mutex{},
		updateInterval: time.Second,
		logging:        true,
		now:            time.Now,
		history:        make([]float64, 120),
		overlayWidth:   160,
		overlayHeight:  64,
	}
	for _, opt := range options {
		opt(p)
	}
	p.lastTime = p.now()
	return p
}

func (p *profiler) Update(frame clock.Frame) {
	p.mu.Lock()
	p.history[p.head] = frame.Delta
	p.head = (p.head + 1) % len(p.history)
	p.filled = min(p.filled+1, len(p.history))
	p.frames++
	p.mu.Unlock()

	p.Tick()
}

func (p *profiler) Tick() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.frameCount++
	currentTime := p.now()
	elapsed := currentTime.Sub(p.lastTime)

	if elapsed < p.updateInterval || elapsed <= 0 {
		return false
	}

	fps := float64(p.frameCount) / elapsed.Seconds()

	runtime.ReadMemStats(&p.memStats)
	// Alloc: Bytes of allocated heap objects (live memory)
	// Sys: Total bytes of memory obtained from the OS (actual process footprint)
	allocMB := float64(p.memStats.Alloc) / 1024 / 1024
	sysMB := float64(p.memStats.Sys) / 1024 / 1024

	allocDelta := p.memStats.TotalAlloc - p.lastTotalAlloc
	allocRateMB := float64(allocDelta) / 1024 / 1024 / elapsed.Seconds()

	gcCount := p.memStats.NumGC
	var lastPauseUs, maxPauseUs uint64
	if gcCount > 0 {
		// PauseNs is a circular buffer of last 256 GC pauses
		lastPauseUs = p.memStats.PauseNs[(gcCount-1)%256] / 1000

		startIdx := p.lastGCCount
		if gcCount-startIdx > 256 {
			startIdx = gcCount - 256
		}
		for i := startIdx; i < gcCount; i++ {
			pause := p.memStats.PauseNs[i%256] / 1000
			if pause > maxPauseUs {
				maxPauseUs = pause
			}
		}
	}

	if p.logging {
		common.Logger().Info(fmt.Sprintf("[Profiler] FPS: %.2f | Heap: %.2f MB | Alloc Rate: %.2f MB/s | GC: %d (last: %d µs, max: %d µs) | Sys: %.2f MB",
			fps, allocMB, allocRateMB, gcCount, lastPauseUs, maxPauseUs, sysMB))
	}

	p.frameCount = 0
	p.lastTime = currentTime
	p.lastGCCount = gcCount
	p.lastTotalAlloc = p.memStats.TotalAlloc
	return true
}

func (p *profiler) FPS() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.fps()
}

// fps averages the recorded deltas. Caller must hold the mutex.
func (p *profiler) fps() float64 {
	if p.filled == 0 {
		return 0
	}
	var sum float64
	for _, d := range p.deltas() {
		sum += d
	}
	if sum <= 0 {
		return 0
	}
	return float64(p.filled) * 1000 / sum
}

func (p *profiler) Deltas() []float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.deltas()
}

// deltas copies the ring oldest first. Caller must hold the mutex.
func (p *profiler) deltas() []float64 {
	out := make([]float64, 0, p.filled)
	start := (p.head - p.filled + len(p.history)) % len(p.history)
	for i := range p.filled {
		out = append(out, p.history[(start+i)%len(p.history)])
	}
	return out
}

func (p *profiler) Frames() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.frames
}

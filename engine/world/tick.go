package world

import (
	"context"
	"math"
	"time"
)

const (
	fpsSampleSize = 60
	// fpsWarningRatio is the share of the target frame rate below which a
	// warning is logged.
	fpsWarningRatio = 0.9
)

// Run ticks the World at the configured frame rate until ctx is cancelled or
// the World is closed. Run blocks and makes the calling goroutine the owner
// of the World's state. If the World is already closed, Run returns
// immediately.
func (w *World) Run(ctx context.Context) {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.running.Add(1)
	w.mu.Unlock()
	defer w.running.Done()

	interval := time.Second / time.Duration(w.conf.FrameRate)
	tc := time.NewTicker(interval)
	defer tc.Stop()

	lastTick := time.Now()
	var (
		durationSum time.Duration
		frames      int
		warned      bool
	)
	for {
		select {
		case <-tc.C:
			start := time.Now()
			duration := start.Sub(lastTick)
			lastTick = start
			if duration > 0 {
				durationSum += duration
				frames++
				if frames >= fpsSampleSize {
					avg := durationSum / time.Duration(frames)
					fps := 1.0 / avg.Seconds()
					w.fps.Store(math.Float64bits(fps))
					if fps < float64(w.conf.FrameRate)*fpsWarningRatio {
						if !warned {
							w.conf.Log.Warn("Frame rate dropped below threshold.", "fps", fps, "target", w.conf.FrameRate)
							warned = true
						}
					} else {
						warned = false
					}
					durationSum, frames = 0, 0
				}
			}
			w.Tick()
		case <-ctx.Done():
			return
		case <-w.closing:
			return
		}
	}
}

// FPS returns the average number of frames per second measured by Run over
// the last sample period. FPS may be called from any goroutine.
func (w *World) FPS() float64 {
	return math.Float64frombits(w.fps.Load())
}

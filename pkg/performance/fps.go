package performance

import (
	"time"

	"github.com/eapache/queue"
)

// fpsWindow is the span of frame timestamps the estimator keeps.
const fpsWindow = time.Second

// fpsEstimator derives a frame rate from the timestamps of recent frames.
type fpsEstimator struct {
	frames *queue.Queue // of time.Time, oldest first
	fps    float64
	seen   uint64 // frames recorded since the last reset
}

func newFPSEstimator() *fpsEstimator {
	return &fpsEstimator{frames: queue.New()}
}

// record adds a frame at now and returns the updated rate: the number of
// frame intervals in the window divided by the window's actual span.
func (e *fpsEstimator) record(now time.Time) float64 {
	e.seen++
	e.frames.Add(now)
	for e.frames.Length() > 0 && now.Sub(e.frames.Peek().(time.Time)) > fpsWindow {
		e.frames.Remove()
	}

	n := e.frames.Length()
	if n < 2 {
		e.fps = 0
		return 0
	}
	span := now.Sub(e.frames.Peek().(time.Time))
	if span <= 0 {
		e.fps = 0
		return 0
	}
	e.fps = float64(n-1) / span.Seconds()
	return e.fps
}

// stalled reports whether a previous frame exists but has aged out of the
// window, leaving only the latest one.
func (e *fpsEstimator) stalled() bool {
	return e.seen > 1 && e.frames.Length() < 2
}

func (e *fpsEstimator) current() float64 {
	return e.fps
}

func (e *fpsEstimator) reset() {
	e.frames = queue.New()
	e.fps = 0
	e.seen = 0
}

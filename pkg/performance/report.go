package performance

import (
	"math"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Summary aggregates one measurement over the retained history.
type Summary struct {
	Avg float64 `json:"avg"`
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// MarshalLogObject implements zapcore.ObjectMarshaler
func (s Summary) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddFloat64("avg", s.Avg)
	enc.AddFloat64("min", s.Min)
	enc.AddFloat64("max", s.Max)
	return nil
}

// Report aggregates the tracker's history at a point in time.
type Report struct {
	Timestamp    time.Time     `json:"timestamp"`
	Samples      int           `json:"samples"`
	Span         time.Duration `json:"span"`
	TotalFrames  uint64        `json:"total_frames"`
	FPS          Summary       `json:"fps"`
	CPUPercent   Summary       `json:"cpu_percent"`
	MemoryMB     Summary       `json:"memory_mb"`
	FrameTimeMS  Summary       `json:"frame_time_ms"`
	RenderTimeMS Summary       `json:"render_time_ms"`
}

// Fields renders the report for structured logging.
func (r Report) Fields() []zap.Field {
	return []zap.Field{
		zap.Int("samples", r.Samples),
		zap.Duration("span", r.Span),
		zap.Uint64("total_frames", r.TotalFrames),
		zap.Object("fps", r.FPS),
		zap.Object("cpu_percent", r.CPUPercent),
		zap.Object("memory_mb", r.MemoryMB),
		zap.Object("frame_time_ms", r.FrameTimeMS),
		zap.Object("render_time_ms", r.RenderTimeMS),
	}
}

type summarizer struct {
	sum, min, max float64
	n             int
}

func newSummarizer() summarizer {
	return summarizer{min: math.Inf(1), max: math.Inf(-1)}
}

func (s *summarizer) add(v float64) {
	s.sum += v
	s.min = math.Min(s.min, v)
	s.max = math.Max(s.max, v)
	s.n++
}

func (s summarizer) summary() Summary {
	if s.n == 0 {
		return Summary{}
	}
	return Summary{Avg: s.sum / float64(s.n), Min: s.min, Max: s.max}
}

func buildReport(now time.Time, history []Snapshot, totalFrames uint64) Report {
	r := Report{Timestamp: now, Samples: len(history), TotalFrames: totalFrames}
	if len(history) == 0 {
		return r
	}
	r.Span = history[len(history)-1].Timestamp.Sub(history[0].Timestamp)

	fps, cpu, mem, frame, render := newSummarizer(), newSummarizer(), newSummarizer(), newSummarizer(), newSummarizer()
	for _, s := range history {
		fps.add(s.FPS)
		cpu.add(s.CPUPercent)
		mem.add(s.MemoryMB)
		frame.add(s.FrameTimeMS)
		render.add(s.RenderTimeMS)
	}
	r.FPS = fps.summary()
	r.CPUPercent = cpu.summary()
	r.MemoryMB = mem.summary()
	r.FrameTimeMS = frame.summary()
	r.RenderTimeMS = render.summary()
	return r
}

// Package alert defines the advisory signals raised by the frame tracker and
// the memory sampler.
//
// Alert is a closed sum type: the only implementations are the structs in
// this package, and every derivation (severity, message, metric labels)
// switches over all of them. Alerts are never errors; the caller decides what
// to do with them based on Severity.
package alert

import (
	"fmt"

	"go.uber.org/zap"
)

// Severity classifies how far a measurement is past its threshold.
type Severity int

const (
	// Warning means the threshold is violated but within a factor of two.
	Warning Severity = iota
	// Critical means the measurement is more than a factor of two past the threshold.
	Critical
)

// String implements fmt.Stringer
func (s Severity) String() string {
	switch s {
	case Warning:
		return "warning"
	case Critical:
		return "critical"
	default:
		return fmt.Sprintf("severity(%d)", int(s))
	}
}

// Kind identifies an alert variant.
type Kind int

// One kind per variant; the order is the tracker's evaluation priority.
const (
	KindLowFPS Kind = iota
	KindHighCPU
	KindHighMemory
	KindSlowFrame
	KindSlowRender
	KindPossibleLeak
	KindHighUsage
)

var kindNames = [...]string{
	KindLowFPS:       "low_fps",
	KindHighCPU:      "high_cpu",
	KindHighMemory:   "high_memory",
	KindSlowFrame:    "slow_frame",
	KindSlowRender:   "slow_render",
	KindPossibleLeak: "possible_leak",
	KindHighUsage:    "high_usage",
}

// String implements fmt.Stringer
func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Alert is implemented only by the variant types in this package.
type Alert interface {
	Kind() Kind
	Severity() Severity
	// Value is the offending measurement.
	Value() float64
	// Threshold is the configured limit the measurement crossed.
	Threshold() float64
	String() string

	sealed()
}

// LowFPS reports a frame rate below the configured minimum.
type LowFPS struct {
	Current float64
	Limit   float64
}

// HighCPU reports process CPU usage above the configured maximum.
type HighCPU struct {
	Current float64
	Limit   float64
}

// HighMemory reports process memory (MB) above the configured maximum.
type HighMemory struct {
	CurrentMB float64
	LimitMB   float64
}

// SlowFrame reports a total frame time (ms) above the configured maximum.
type SlowFrame struct {
	CurrentMS float64
	LimitMS   float64
}

// SlowRender reports a render time (ms) above the configured maximum.
type SlowRender struct {
	CurrentMS float64
	LimitMS   float64
}

// PossibleLeak reports a sustained three-sample increase in memory.
// IncreaseMB is the largest step of the trend.
type PossibleLeak struct {
	IncreaseMB  float64
	CurrentMB   float64
	ThresholdMB float64
}

// HighUsage reports sampled memory above the sampler's usage limit.
type HighUsage struct {
	CurrentMB float64
	LimitMB   float64
}

func (LowFPS) sealed()       {}
func (HighCPU) sealed()      {}
func (HighMemory) sealed()   {}
func (SlowFrame) sealed()    {}
func (SlowRender) sealed()   {}
func (PossibleLeak) sealed() {}
func (HighUsage) sealed()    {}

func (LowFPS) Kind() Kind       { return KindLowFPS }
func (HighCPU) Kind() Kind      { return KindHighCPU }
func (HighMemory) Kind() Kind   { return KindHighMemory }
func (SlowFrame) Kind() Kind    { return KindSlowFrame }
func (SlowRender) Kind() Kind   { return KindSlowRender }
func (PossibleLeak) Kind() Kind { return KindPossibleLeak }
func (HighUsage) Kind() Kind    { return KindHighUsage }

func (a LowFPS) Value() float64       { return a.Current }
func (a HighCPU) Value() float64      { return a.Current }
func (a HighMemory) Value() float64   { return a.CurrentMB }
func (a SlowFrame) Value() float64    { return a.CurrentMS }
func (a SlowRender) Value() float64   { return a.CurrentMS }
func (a PossibleLeak) Value() float64 { return a.IncreaseMB }
func (a HighUsage) Value() float64    { return a.CurrentMB }

func (a LowFPS) Threshold() float64       { return a.Limit }
func (a HighCPU) Threshold() float64      { return a.Limit }
func (a HighMemory) Threshold() float64   { return a.LimitMB }
func (a SlowFrame) Threshold() float64    { return a.LimitMS }
func (a SlowRender) Threshold() float64   { return a.LimitMS }
func (a PossibleLeak) Threshold() float64 { return a.ThresholdMB }
func (a HighUsage) Threshold() float64    { return a.LimitMB }

func (a LowFPS) Severity() Severity       { return severityOf(a) }
func (a HighCPU) Severity() Severity      { return severityOf(a) }
func (a HighMemory) Severity() Severity   { return severityOf(a) }
func (a SlowFrame) Severity() Severity    { return severityOf(a) }
func (a SlowRender) Severity() Severity   { return severityOf(a) }
func (a PossibleLeak) Severity() Severity { return severityOf(a) }
func (a HighUsage) Severity() Severity    { return severityOf(a) }

func (a LowFPS) String() string       { return describe(a) }
func (a HighCPU) String() string      { return describe(a) }
func (a HighMemory) String() string   { return describe(a) }
func (a SlowFrame) String() string    { return describe(a) }
func (a SlowRender) String() string   { return describe(a) }
func (a PossibleLeak) String() string { return describe(a) }
func (a HighUsage) String() string    { return describe(a) }

// severityOf is the single place severity is derived.
func severityOf(a Alert) Severity {
	switch a := a.(type) {
	case LowFPS:
		if a.Current < 0.5*a.Limit {
			return Critical
		}
		return Warning
	case HighCPU, HighMemory, SlowFrame, SlowRender, PossibleLeak, HighUsage:
		if a.Value() > 2*a.Threshold() {
			return Critical
		}
		return Warning
	default:
		panic(fmt.Sprintf("alert: unknown variant %T", a))
	}
}

func describe(a Alert) string {
	switch a := a.(type) {
	case LowFPS:
		return fmt.Sprintf("low fps: %.1f (minimum %.1f)", a.Current, a.Limit)
	case HighCPU:
		return fmt.Sprintf("high cpu usage: %.1f%% (maximum %.1f%%)", a.Current, a.Limit)
	case HighMemory:
		return fmt.Sprintf("high memory usage: %.1fMB (maximum %.1fMB)", a.CurrentMB, a.LimitMB)
	case SlowFrame:
		return fmt.Sprintf("slow frame: %.2fms (maximum %.2fms)", a.CurrentMS, a.LimitMS)
	case SlowRender:
		return fmt.Sprintf("slow render: %.2fms (maximum %.2fms)", a.CurrentMS, a.LimitMS)
	case PossibleLeak:
		return fmt.Sprintf("possible memory leak: +%.1fMB per sample, now %.1fMB (threshold %.1fMB)",
			a.IncreaseMB, a.CurrentMB, a.ThresholdMB)
	case HighUsage:
		return fmt.Sprintf("memory usage %.1fMB above limit %.1fMB", a.CurrentMB, a.LimitMB)
	default:
		panic(fmt.Sprintf("alert: unknown variant %T", a))
	}
}

// Fields renders an alert as zap fields.
func Fields(a Alert) []zap.Field {
	fields := []zap.Field{
		zap.Stringer("kind", a.Kind()),
		zap.Stringer("severity", a.Severity()),
		zap.Float64("value", a.Value()),
		zap.Float64("threshold", a.Threshold()),
	}
	if leak, ok := a.(PossibleLeak); ok {
		fields = append(fields, zap.Float64("current_mb", leak.CurrentMB))
	}
	return fields
}

// IsMemory reports whether the alert is about memory pressure, which calls
// for releasing cached resources rather than only shrinking them.
func IsMemory(a Alert) bool {
	switch a.(type) {
	case HighMemory, PossibleLeak, HighUsage:
		return true
	case LowFPS, HighCPU, SlowFrame, SlowRender:
		return false
	default:
		return false
	}
}

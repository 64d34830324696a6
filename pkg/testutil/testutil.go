// Package testutil provides testing utilities for lumen
package testutil

import (
	"context"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

// TestLogger creates a test logger that writes to the test output.
// The logger is automatically cleaned up when the test completes.
func TestLogger(t *testing.T) *zap.Logger {
	return zaptest.NewLogger(t)
}

// TestContext creates a test context with a 30-second timeout.
// The caller must call the returned cancel function to avoid leaks.
func TestContext(_ *testing.T) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 30*time.Second)
}

// AssertEventually asserts that a condition becomes true within the specified timeout.
// It checks the condition every 10ms until it succeeds or the timeout expires.
func AssertEventually(t *testing.T, condition func() bool, timeout time.Duration, msg string) {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if condition() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}

	t.Fatalf("condition not met within %v: %s", timeout, msg)
}

// FakeClock is a manually advanced clock. Its Now method matches the
// func() time.Time hooks the components use for interval gating.
type FakeClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewFakeClock returns a clock frozen at a fixed, non-zero instant.
func NewFakeClock() *FakeClock {
	return &FakeClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
}

// Now returns the current fake time.
func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d.
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// StubProbe returns scripted process readings and counts how often it was queried.
type StubProbe struct {
	mu       sync.Mutex
	CPU      float64
	Memory   float64
	Err      error
	CPUCalls int
	MemCalls int
}

// CPUPercent returns the scripted CPU reading.
func (p *StubProbe) CPUPercent() (float64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.CPUCalls++
	return p.CPU, p.Err
}

// MemoryMB returns the scripted memory reading.
func (p *StubProbe) MemoryMB() (float64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.MemCalls++
	return p.Memory, p.Err
}

// Set replaces the scripted readings.
func (p *StubProbe) Set(cpu, memory float64, err error) {
	p.mu.Lock()
	p.CPU, p.Memory, p.Err = cpu, memory, err
	p.mu.Unlock()
}

// Calls returns how many CPU and memory queries were made.
func (p *StubProbe) Calls() (cpu, memory int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.CPUCalls, p.MemCalls
}

package dsp

import (
	"math"
	"sync/atomic"
	"time"
)

// rampDone is the residual below which a ramp is considered settled.
const rampDone = 1e-4

// Gain scales amplitude with an exponential-approach ramp toward a target
// value. It backs both volume control and crossfade fades: stepping gain
// directly produces audible clicks, so every change moves the applied gain
// a fixed fraction of the remaining distance per frame.
//
// RampTo and the getters are safe to call from any goroutine; Process is
// owned by the render goroutine.
type Gain struct {
	target atomic.Uint64 // float64 bits
	coeff  atomic.Uint64 // per-frame smoothing coefficient, float64 bits
	value  atomic.Uint64 // applied gain, written by Process
}

// NewGain creates a gain stage with the given initial value and a default
// ramp time constant.
func NewGain(initial float64, sampleRate float64) *Gain {
	g := &Gain{}
	g.value.Store(math.Float64bits(initial))
	g.target.Store(math.Float64bits(initial))
	g.SetRamp(30*time.Millisecond, sampleRate)
	return g
}

// SetRamp sets the ramp time constant. After tau the applied gain has
// covered ~63% of the distance to the target; after 3*tau, ~95%.
func (g *Gain) SetRamp(tau time.Duration, sampleRate float64) {
	samples := tau.Seconds() * sampleRate
	if samples < 1 {
		samples = 1
	}
	g.coeff.Store(math.Float64bits(1 - math.Exp(-1/samples)))
}

// RampTo sets a new gain target; the render path approaches it smoothly.
func (g *Gain) RampTo(target float64) {
	g.target.Store(math.Float64bits(target))
}

// Reset jumps both the target and the applied gain. Only call this on a
// stage with no attached source (e.g. when recycling a crossfade path).
func (g *Gain) Reset(v float64) {
	g.target.Store(math.Float64bits(v))
	g.value.Store(math.Float64bits(v))
}

// Value returns the currently applied gain.
func (g *Gain) Value() float64 {
	return math.Float64frombits(g.value.Load())
}

// Target returns the gain target.
func (g *Gain) Target() float64 {
	return math.Float64frombits(g.target.Load())
}

// Done reports whether the applied gain has settled at the target.
func (g *Gain) Done() bool {
	return math.Abs(g.Value()-g.Target()) < rampDone
}

// Process scales the interleaved stereo buffer in place, advancing the
// ramp once per frame so the time constant is channel-count independent.
func (g *Gain) Process(buf []float64) {
	target := math.Float64frombits(g.target.Load())
	coeff := math.Float64frombits(g.coeff.Load())
	value := math.Float64frombits(g.value.Load())

	for i := 0; i+1 < len(buf); i += 2 {
		value += coeff * (target - value)
		buf[i] *= value
		buf[i+1] *= value
	}
	if math.Abs(target-value) < rampDone {
		value = target
	}
	g.value.Store(math.Float64bits(value))
}

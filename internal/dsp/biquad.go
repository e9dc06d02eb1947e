package dsp

import (
	"math"
	"sync/atomic"
)

// Shape selects the frequency response of a Biquad filter.
type Shape int

const (
	Peaking Shape = iota
	LowShelf
	HighShelf
)

// gainSmoothing is the fraction of the remaining dB distance applied per
// processed block. Keeps rapid UI dragging click-free without a full
// per-sample coefficient recompute.
const gainSmoothing = 0.3

// Biquad is a second-order IIR filter per the Audio EQ Cookbook (RBJ).
// The gain is adjustable at runtime; coefficient updates are smoothed in
// dB space across blocks. SetGainDB is safe from any goroutine; Process
// is owned by the render goroutine.
type Biquad struct {
	shape      Shape
	freq       float64
	q          float64
	sampleRate float64

	targetDB atomic.Uint64 // float64 bits

	appliedDB          float64
	b0, b1, b2, a1, a2 float64    // coefficients, normalized by a0
	x1, x2, y1, y2     [2]float64 // direct form 1 state per channel
}

// NewBiquad creates a filter at the given center/corner frequency with
// 0 dB gain (identity response for all three shapes).
func NewBiquad(shape Shape, freq, q, sampleRate float64) *Biquad {
	b := &Biquad{
		shape:      shape,
		freq:       freq,
		q:          q,
		sampleRate: sampleRate,
	}
	b.computeCoeffs(0)
	return b
}

// SetGainDB sets the filter gain target in dB.
func (b *Biquad) SetGainDB(db float64) {
	b.targetDB.Store(math.Float64bits(db))
}

// GainDB returns the filter gain target in dB.
func (b *Biquad) GainDB() float64 {
	return math.Float64frombits(b.targetDB.Load())
}

// Freq returns the center/corner frequency in Hz.
func (b *Biquad) Freq() float64 { return b.freq }

// Shape returns the filter shape.
func (b *Biquad) Shape() Shape { return b.shape }

// Process filters the interleaved stereo buffer in place.
func (b *Biquad) Process(buf []float64) {
	target := math.Float64frombits(b.targetDB.Load())
	if b.appliedDB != target {
		diff := target - b.appliedDB
		if math.Abs(diff) < 0.05 {
			b.appliedDB = target
		} else {
			b.appliedDB += gainSmoothing * diff
		}
		b.computeCoeffs(b.appliedDB)
	}

	for i := 0; i+1 < len(buf); i += 2 {
		buf[i] = b.step(0, buf[i])
		buf[i+1] = b.step(1, buf[i+1])
	}
}

// Reset clears the filter state. Call between unrelated signals to avoid
// leaking decay tails across tracks.
func (b *Biquad) Reset() {
	b.x1, b.x2, b.y1, b.y2 = [2]float64{}, [2]float64{}, [2]float64{}, [2]float64{}
}

func (b *Biquad) step(ch int, x float64) float64 {
	y := b.b0*x + b.b1*b.x1[ch] + b.b2*b.x2[ch] - b.a1*b.y1[ch] - b.a2*b.y2[ch]
	b.x2[ch] = b.x1[ch]
	b.x1[ch] = x
	b.y2[ch] = b.y1[ch]
	b.y1[ch] = y
	return y
}

// computeCoeffs derives the cookbook coefficients for the current shape
// at the given gain.
func (b *Biquad) computeCoeffs(db float64) {
	a := math.Pow(10, db/40)
	w0 := 2 * math.Pi * b.freq / b.sampleRate
	cosW := math.Cos(w0)
	sinW := math.Sin(w0)
	alpha := sinW / (2 * b.q)

	var b0, b1, b2, a0, a1, a2 float64
	switch b.shape {
	case LowShelf:
		beta := 2 * math.Sqrt(a) * alpha
		b0 = a * ((a + 1) - (a-1)*cosW + beta)
		b1 = 2 * a * ((a - 1) - (a+1)*cosW)
		b2 = a * ((a + 1) - (a-1)*cosW - beta)
		a0 = (a + 1) + (a-1)*cosW + beta
		a1 = -2 * ((a - 1) + (a+1)*cosW)
		a2 = (a + 1) + (a-1)*cosW - beta
	case HighShelf:
		beta := 2 * math.Sqrt(a) * alpha
		b0 = a * ((a + 1) + (a-1)*cosW + beta)
		b1 = -2 * a * ((a - 1) + (a+1)*cosW)
		b2 = a * ((a + 1) + (a-1)*cosW - beta)
		a0 = (a + 1) - (a-1)*cosW + beta
		a1 = 2 * ((a - 1) - (a+1)*cosW)
		a2 = (a + 1) - (a-1)*cosW - beta
	default: // Peaking
		b0 = 1 + alpha*a
		b1 = -2 * cosW
		b2 = 1 - alpha*a
		a0 = 1 + alpha/a
		a1 = -2 * cosW
		a2 = 1 - alpha/a
	}

	b.b0 = b0 / a0
	b.b1 = b1 / a0
	b.b2 = b2 / a0
	b.a1 = a1 / a0
	b.a2 = a2 / a0
}

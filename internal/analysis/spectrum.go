// Package analysis derives visualizer data from the signal tap: FFT
// magnitudes plus RMS and peak levels, published at a fixed cadence.
package analysis

import (
	"fmt"
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/dsp/window"
)

// Spectrum computes FFT magnitudes over mono sample windows. All buffers
// are pre-allocated; Compute does not allocate.
type Spectrum struct {
	size       int
	sampleRate float64

	fftObj *fourier.FFT
	win    []float64

	input  []float64
	coeffs []complex128
	mags   []float64
}

// NewSpectrum creates a spectrum analyzer over windows of size samples.
// size must be a power of two.
func NewSpectrum(size int, sampleRate float64) (*Spectrum, error) {
	if size <= 0 || size&(size-1) != 0 {
		return nil, fmt.Errorf("analysis: window size %d is not a power of 2", size)
	}

	win := make([]float64, size)
	for i := range win {
		win[i] = 1
	}
	window.Hann(win)

	return &Spectrum{
		size:       size,
		sampleRate: sampleRate,
		fftObj:     fourier.NewFFT(size),
		win:        win,
		input:      make([]float64, size),
		coeffs:     make([]complex128, size/2+1),
		mags:       make([]float64, size/2+1),
	}, nil
}

// Size returns the analysis window size in samples.
func (s *Spectrum) Size() int { return s.size }

// Bins returns the number of magnitude bins (size/2 + 1).
func (s *Spectrum) Bins() int { return len(s.mags) }

// Compute windows the samples and fills dst with normalized FFT
// magnitudes. samples must be exactly Size() long, dst exactly Bins().
func (s *Spectrum) Compute(samples, dst []float64) error {
	if len(samples) != s.size {
		return fmt.Errorf("analysis: got %d samples, want %d", len(samples), s.size)
	}
	if len(dst) != len(s.mags) {
		return fmt.Errorf("analysis: got %d bins, want %d", len(dst), len(s.mags))
	}

	for i, v := range samples {
		s.input[i] = v * s.win[i]
	}
	s.fftObj.Coefficients(s.coeffs, s.input)

	norm := 2 / float64(s.size)
	for i, c := range s.coeffs {
		dst[i] = cmplx.Abs(c) * norm
	}
	return nil
}

// FreqForBin returns the center frequency in Hz of a magnitude bin.
func (s *Spectrum) FreqForBin(i int) float64 {
	if i < 0 || i >= len(s.mags) {
		return 0
	}
	return s.fftObj.Freq(i) * s.sampleRate
}

// Levels returns the RMS and peak absolute level of the samples. An
// empty slice yields 0, 0.
func Levels(samples []float64) (rms, peak float64) {
	if len(samples) == 0 {
		return 0, 0
	}
	var sum float64
	for _, v := range samples {
		sum += v * v
		if a := math.Abs(v); a > peak {
			peak = a
		}
	}
	return math.Sqrt(sum / float64(len(samples))), peak
}

// Package synth generates test signals as decoded buffers, for the tone
// command and for exercising the signal chain in tests.
package synth

import (
	"math"

	"github.com/perhassle/spotify-mvp-sub001/internal/buffer"
)

// Sine generates a stereo sine wave at the given frequency, amplitude
// in [0, 1] and duration in seconds.
func Sine(id string, freq, amplitude, seconds float64, sampleRate int) *buffer.DecodedBuffer {
	frames := int(seconds * float64(sampleRate))
	data := make([]float64, frames*2)
	for i := 0; i < frames; i++ {
		t := float64(i) / float64(sampleRate)
		v := math.Sin(2*math.Pi*freq*t) * amplitude
		data[i*2] = v
		data[i*2+1] = v
	}
	return &buffer.DecodedBuffer{
		ID:         id,
		SampleRate: sampleRate,
		Channels:   2,
		Data:       data,
	}
}

// Complex generates a stereo 440 Hz fundamental with two harmonics,
// useful as richer program material than a pure tone.
func Complex(id string, seconds float64, sampleRate int) *buffer.DecodedBuffer {
	frames := int(seconds * float64(sampleRate))
	data := make([]float64, frames*2)
	for i := 0; i < frames; i++ {
		t := float64(i) / float64(sampleRate)
		v := math.Sin(2*math.Pi*440*t)*0.5 +
			math.Sin(2*math.Pi*880*t)*0.3 +
			math.Sin(2*math.Pi*1320*t)*0.2
		data[i*2] = v
		data[i*2+1] = v
	}
	return &buffer.DecodedBuffer{
		ID:         id,
		SampleRate: sampleRate,
		Channels:   2,
		Data:       data,
	}
}

// FindPeakBin returns the index of the largest magnitude in [startBin,
// endBin], clamped to the slice bounds.
func FindPeakBin(magnitudes []float64, startBin, endBin int) int {
	if len(magnitudes) == 0 {
		return 0
	}
	if startBin < 0 {
		startBin = 0
	}
	if endBin >= len(magnitudes) {
		endBin = len(magnitudes) - 1
	}

	peakBin := startBin
	peakValue := magnitudes[startBin]
	for bin := startBin + 1; bin <= endBin; bin++ {
		if magnitudes[bin] > peakValue {
			peakValue = magnitudes[bin]
			peakBin = bin
		}
	}
	return peakBin
}

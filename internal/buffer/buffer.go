// Package buffer fetches and decodes track audio into memory. Decoded
// buffers are cached by track ID, and concurrent loads of the same track
// collapse into a single fetch.
package buffer

import (
	"fmt"
	"time"
)

// DecodedBuffer holds a fully decoded track as interleaved float64
// samples in [-1, 1]. Buffers are immutable after decoding and shared
// between the cache and any sources reading them.
type DecodedBuffer struct {
	ID         string
	SampleRate int
	Channels   int
	Data       []float64
}

// Frames returns the number of sample frames.
func (b *DecodedBuffer) Frames() int {
	if b.Channels == 0 {
		return 0
	}
	return len(b.Data) / b.Channels
}

// Duration returns the buffer's playing time at its native rate.
func (b *DecodedBuffer) Duration() time.Duration {
	if b.SampleRate == 0 {
		return 0
	}
	sec := float64(b.Frames()) / float64(b.SampleRate)
	return time.Duration(sec * float64(time.Second))
}

// LoadError reports a failed track load. It wraps the underlying fetch
// or decode error.
type LoadError struct {
	TrackID string
	Err     error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load track %s: %v", e.TrackID, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

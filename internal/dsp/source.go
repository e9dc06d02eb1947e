package dsp

import (
	"math"
	"sync/atomic"
)

// Source produces interleaved stereo audio when attached to a graph slot.
type Source interface {
	// Render fills dst (frames * 2 samples). Past the end of material it
	// writes silence.
	Render(dst []float64)
	// Ended reports whether the source has played out.
	Ended() bool
}

// BufferSource plays decoded sample data from memory. It resamples on the
// fly with linear interpolation, which also implements the playback-rate
// control: the read head advances rate * (srcRate / outRate) input frames
// per output frame.
//
// SetRate is safe from any goroutine; Render is owned by the render
// goroutine. The end-of-material callback fires exactly once and must not
// block (dispatch real work to another goroutine).
type BufferSource struct {
	data     []float64 // interleaved, channels-wide frames
	channels int
	srcRate  float64
	outRate  float64

	rate  atomic.Uint64 // playback rate multiplier, float64 bits
	pos   float64       // fractional frame position, render-owned
	ended atomic.Bool
	onEnd func()
}

// NewBufferSource creates a source reading data (interleaved with the
// given channel count, mono or stereo) at offset seconds into the
// material. onEnd may be nil.
func NewBufferSource(data []float64, channels int, srcRate, outRate, offsetSec float64, onEnd func()) *BufferSource {
	s := &BufferSource{
		data:     data,
		channels: channels,
		srcRate:  srcRate,
		outRate:  outRate,
		pos:      offsetSec * srcRate,
		onEnd:    onEnd,
	}
	s.rate.Store(math.Float64bits(1))
	if s.pos >= float64(s.frames()) {
		s.ended.Store(true)
	}
	return s
}

// SetRate sets the playback rate multiplier.
func (s *BufferSource) SetRate(r float64) {
	s.rate.Store(math.Float64bits(r))
}

// Rate returns the playback rate multiplier.
func (s *BufferSource) Rate() float64 {
	return math.Float64frombits(s.rate.Load())
}

// Ended reports whether the read head has passed the end of the material.
func (s *BufferSource) Ended() bool {
	return s.ended.Load()
}

func (s *BufferSource) frames() int {
	return len(s.data) / s.channels
}

// Render fills dst with interpolated stereo frames, silence past the end.
func (s *BufferSource) Render(dst []float64) {
	step := s.Rate() * s.srcRate / s.outRate
	total := float64(s.frames())

	for i := 0; i+1 < len(dst); i += 2 {
		if s.pos >= total {
			dst[i] = 0
			dst[i+1] = 0
			continue
		}
		l, r := s.frameAt(s.pos)
		dst[i] = l
		dst[i+1] = r
		s.pos += step
	}

	if s.pos >= total && !s.ended.Load() {
		s.ended.Store(true)
		if s.onEnd != nil {
			s.onEnd()
		}
	}
}

// frameAt reads the linearly interpolated frame at fractional position p.
func (s *BufferSource) frameAt(p float64) (float64, float64) {
	i0 := int(p)
	frac := p - float64(i0)
	i1 := i0 + 1
	if i1 >= s.frames() {
		i1 = i0
	}

	if s.channels == 1 {
		v := s.data[i0] + frac*(s.data[i1]-s.data[i0])
		return v, v
	}
	l0, r0 := s.data[i0*2], s.data[i0*2+1]
	l1, r1 := s.data[i1*2], s.data[i1*2+1]
	return l0 + frac*(l1-l0), r0 + frac*(r1-r0)
}

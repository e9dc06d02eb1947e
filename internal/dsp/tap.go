package dsp

import (
	"fmt"
	"sync"
)

// Tap captures a mono mixdown of the signal passing through it into a
// ring buffer, for analyzer/visualizer consumption. It sits between the
// compressor and the master gain and never modifies the signal.
type Tap struct {
	mu   sync.Mutex
	buf  []float64
	pos  int
	size int
}

// NewTap creates a tap with a ring buffer of the given size.
func NewTap(size int) *Tap {
	return &Tap{
		buf:  make([]float64, size),
		size: size,
	}
}

// Process records the buffer's mono mix and passes the signal unchanged.
func (t *Tap) Process(buf []float64) {
	t.mu.Lock()
	for i := 0; i+1 < len(buf); i += 2 {
		t.buf[t.pos] = (buf[i] + buf[i+1]) / 2
		t.pos = (t.pos + 1) % t.size
	}
	t.mu.Unlock()
}

// Samples returns the most recent n samples in chronological order.
// Allocates; for per-frame readers use SamplesInto.
func (t *Tap) Samples(n int) []float64 {
	if n > t.size {
		n = t.size
	}
	out := make([]float64, n)
	_ = t.SamplesInto(out)
	return out
}

// SamplesInto copies the most recent len(dst) samples into dst in
// chronological order without allocating.
func (t *Tap) SamplesInto(dst []float64) error {
	if len(dst) > t.size {
		return fmt.Errorf("requested %d samples exceeds tap size %d", len(dst), t.size)
	}
	t.mu.Lock()
	start := (t.pos - len(dst) + t.size) % t.size
	for i := range dst {
		dst[i] = t.buf[(start+i)%t.size]
	}
	t.mu.Unlock()
	return nil
}

// Size returns the ring buffer capacity.
func (t *Tap) Size() int { return t.size }

package dsp

import (
	"math"
	"sync/atomic"
	"testing"
)

func TestBufferSourceReadsStereo(t *testing.T) {
	data := []float64{0.1, -0.1, 0.2, -0.2, 0.3, -0.3}
	s := NewBufferSource(data, 2, testSampleRate, testSampleRate, 0, nil)

	dst := make([]float64, 6)
	s.Render(dst)

	for i, want := range data {
		if math.Abs(dst[i]-want) > 1e-12 {
			t.Errorf("dst[%d] = %v, want %v", i, dst[i], want)
		}
	}
}

func TestBufferSourceMonoUpmix(t *testing.T) {
	data := []float64{0.5, -0.5}
	s := NewBufferSource(data, 1, testSampleRate, testSampleRate, 0, nil)

	dst := make([]float64, 4)
	s.Render(dst)

	if dst[0] != 0.5 || dst[1] != 0.5 {
		t.Errorf("mono frame not duplicated to both channels: %v", dst[:2])
	}
	if dst[2] != -0.5 || dst[3] != -0.5 {
		t.Errorf("second mono frame wrong: %v", dst[2:])
	}
}

func TestBufferSourceOffsetStart(t *testing.T) {
	// 1 second of frames; start halfway through.
	frames := int(testSampleRate)
	data := make([]float64, frames*2)
	for i := 0; i < frames; i++ {
		data[i*2] = float64(i)
		data[i*2+1] = float64(i)
	}
	s := NewBufferSource(data, 2, testSampleRate, testSampleRate, 0.5, nil)

	dst := make([]float64, 2)
	s.Render(dst)

	want := float64(frames / 2)
	if dst[0] != want {
		t.Errorf("first sample at offset = %v, want %v", dst[0], want)
	}
}

func TestBufferSourceRateDoublesConsumption(t *testing.T) {
	frames := 1000
	data := make([]float64, frames*2)
	for i := 0; i < frames; i++ {
		data[i*2] = float64(i)
	}
	s := NewBufferSource(data, 2, testSampleRate, testSampleRate, 0, nil)
	s.SetRate(2)

	dst := make([]float64, 20)
	s.Render(dst)

	// At rate 2 each output frame advances two input frames.
	if dst[2] != 2 || dst[4] != 4 {
		t.Errorf("rate 2 read heads: got %v, %v, want 2, 4", dst[2], dst[4])
	}
}

func TestBufferSourceResamples(t *testing.T) {
	// 22.05k material on a 44.1k output advances half a frame per
	// output frame, so odd output frames are midpoints.
	data := []float64{0, 0, 1, 1, 2, 2}
	s := NewBufferSource(data, 2, testSampleRate/2, testSampleRate, 0, nil)

	dst := make([]float64, 8)
	s.Render(dst)

	want := []float64{0, 0.5, 1, 1.5}
	for i, w := range want {
		if math.Abs(dst[i*2]-w) > 1e-12 {
			t.Errorf("frame %d = %v, want %v", i, dst[i*2], w)
		}
	}
}

func TestBufferSourceEndFiresOnce(t *testing.T) {
	var fired atomic.Int32
	data := make([]float64, 8)
	s := NewBufferSource(data, 2, testSampleRate, testSampleRate, 0, func() {
		fired.Add(1)
	})

	dst := make([]float64, 32)
	s.Render(dst)
	s.Render(dst)
	s.Render(dst)

	if !s.Ended() {
		t.Error("Ended() = false after material ran out")
	}
	if got := fired.Load(); got != 1 {
		t.Errorf("end callback fired %d times, want 1", got)
	}
}

func TestBufferSourceSilenceAfterEnd(t *testing.T) {
	data := []float64{1, 1}
	s := NewBufferSource(data, 2, testSampleRate, testSampleRate, 0, nil)

	dst := make([]float64, 8)
	s.Render(dst)

	for i := 2; i < len(dst); i++ {
		if dst[i] != 0 {
			t.Errorf("dst[%d] = %v, want silence past end", i, dst[i])
		}
	}
}

func TestBufferSourceRenderAllocs(t *testing.T) {
	data := make([]float64, int(testSampleRate)*2)
	s := NewBufferSource(data, 2, testSampleRate, testSampleRate, 0, func() {})
	dst := make([]float64, 2048)

	allocs := testing.AllocsPerRun(100, func() {
		s.Render(dst)
	})
	if allocs > 0 {
		t.Errorf("Render allocated: got %.1f allocs, want 0", allocs)
	}
}

package dsp

import (
	"math"
	"testing"
)

const testFrames = 256

// constSource renders a fixed value on both channels.
type constSource struct {
	value float64
	ended bool
}

func (s *constSource) Render(dst []float64) {
	for i := range dst {
		dst[i] = s.value
	}
}

func (s *constSource) Ended() bool { return s.ended }

func newTestGraph(chain []Processor, tap *Tap) *Graph {
	return NewGraph(testSampleRate, testFrames, chain, tap)
}

func TestGraphRendersSilenceWhenEmpty(t *testing.T) {
	g := newTestGraph(nil, nil)
	out := make([]float64, testFrames*2)
	g.Render(out)

	for i, v := range out {
		if v != 0 {
			t.Fatalf("out[%d] = %v, want 0", i, v)
		}
	}
}

func TestGraphMixesBothSlots(t *testing.T) {
	g := newTestGraph(nil, nil)
	g.GainStage(SlotA).Reset(1)
	g.GainStage(SlotB).Reset(1)
	g.Attach(SlotA, &constSource{value: 0.25})
	g.Attach(SlotB, &constSource{value: 0.5})

	out := make([]float64, testFrames*2)
	g.Render(out)

	if math.Abs(out[0]-0.75) > 1e-12 {
		t.Errorf("mixed sample = %v, want 0.75", out[0])
	}
}

func TestGraphPerSlotGain(t *testing.T) {
	g := newTestGraph(nil, nil)
	g.GainStage(SlotA).Reset(0.5)
	g.GainStage(SlotB).Reset(0)
	g.Attach(SlotA, &constSource{value: 1})
	g.Attach(SlotB, &constSource{value: 1})

	out := make([]float64, testFrames*2)
	g.Render(out)

	if math.Abs(out[0]-0.5) > 1e-12 {
		t.Errorf("sample = %v, want 0.5 (slot B silenced)", out[0])
	}
}

func TestGraphMasterGain(t *testing.T) {
	g := newTestGraph(nil, nil)
	g.GainStage(SlotA).Reset(1)
	g.Master().Reset(0.5)
	g.Attach(SlotA, &constSource{value: 1})

	out := make([]float64, testFrames*2)
	g.Render(out)

	if math.Abs(out[0]-0.5) > 1e-12 {
		t.Errorf("sample = %v, want 0.5 after master gain", out[0])
	}
}

func TestGraphChainOrder(t *testing.T) {
	// The tap sits after the chain: a half-gain processor ahead of it
	// must halve what the tap records.
	tap := NewTap(testFrames)
	half := NewGain(0.5, testSampleRate)
	g := newTestGraph([]Processor{half}, tap)
	g.GainStage(SlotA).Reset(1)
	g.Attach(SlotA, &constSource{value: 1})

	out := make([]float64, testFrames*2)
	g.Render(out)

	samples := tap.Samples(testFrames)
	if math.Abs(samples[len(samples)-1]-0.5) > 1e-12 {
		t.Errorf("tap recorded %v, want 0.5", samples[len(samples)-1])
	}
}

func TestGraphDetachReturnsSource(t *testing.T) {
	g := newTestGraph(nil, nil)
	src := &constSource{value: 1}
	g.Attach(SlotA, src)

	if got := g.Detach(SlotA); got != src {
		t.Errorf("Detach returned %v, want attached source", got)
	}
	if g.Source(SlotA) != nil {
		t.Error("slot still occupied after Detach")
	}
}

func TestGraphEmptySlotAdvancesRamp(t *testing.T) {
	g := newTestGraph(nil, nil)
	stage := g.GainStage(SlotB)
	stage.Reset(1)
	stage.RampTo(0)

	out := make([]float64, testFrames*2)
	for it := 0; it < 200; it++ {
		g.Render(out)
	}

	if !stage.Done() {
		t.Errorf("empty-slot ramp did not advance: value = %v", stage.Value())
	}
}

func TestGraphRenderAllocs(t *testing.T) {
	tap := NewTap(testFrames)
	eqish := NewBiquad(Peaking, 1000, 1.0, testSampleRate)
	comp := NewCompressor(testSampleRate, DefaultCompressorParams())
	g := newTestGraph([]Processor{eqish, comp}, tap)
	g.Attach(SlotA, &constSource{value: 0.5})
	out := make([]float64, testFrames*2)

	allocs := testing.AllocsPerRun(100, func() {
		g.Render(out)
	})
	if allocs > 0 {
		t.Errorf("Render allocated: got %.1f allocs, want 0", allocs)
	}
}

func BenchmarkGraphRender(b *testing.B) {
	tap := NewTap(4096)
	comp := NewCompressor(testSampleRate, DefaultCompressorParams())
	g := newTestGraph([]Processor{comp}, tap)
	g.Attach(SlotA, &constSource{value: 0.5})
	g.Attach(SlotB, &constSource{value: 0.25})
	out := make([]float64, testFrames*2)

	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		g.Render(out)
	}
}

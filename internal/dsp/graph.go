package dsp

import "sync"

// Processor transforms an interleaved stereo buffer in place.
type Processor interface {
	Process(buf []float64)
}

// Slot identifies one of the two source paths feeding the graph. Two
// paths exist so a crossfade can overlap the outgoing and incoming
// tracks, each behind its own gain stage.
type Slot int

const (
	SlotA Slot = iota
	SlotB
)

// Graph is the fixed signal chain:
//
//	source A ── gain A ─┐
//	                    ├─ mix ── chain (eq, compressor, ...) ── tap ── master ── out
//	source B ── gain B ─┘
//
// The topology never changes at runtime; only sources attach and detach
// and parameters move. Render allocates nothing.
//
// Attach, Detach and the accessors are safe from any goroutine; Render
// is owned by the render goroutine.
type Graph struct {
	sampleRate float64
	frames     int

	mu      sync.Mutex
	sources [2]Source

	gains  [2]*Gain
	chain  []Processor
	tap    *Tap
	master *Gain

	scratch [2][]float64
}

// NewGraph builds the chain for the given format. chain runs in order
// between the mix point and the tap; tap may be nil.
func NewGraph(sampleRate float64, frames int, chain []Processor, tap *Tap) *Graph {
	g := &Graph{
		sampleRate: sampleRate,
		frames:     frames,
		chain:      chain,
		tap:        tap,
		master:     NewGain(1, sampleRate),
	}
	g.gains[0] = NewGain(1, sampleRate)
	g.gains[1] = NewGain(1, sampleRate)
	g.scratch[0] = make([]float64, frames*2)
	g.scratch[1] = make([]float64, frames*2)
	return g
}

// Attach connects a source to a slot, replacing any current occupant.
func (g *Graph) Attach(slot Slot, s Source) {
	g.mu.Lock()
	g.sources[slot] = s
	g.mu.Unlock()
}

// Detach disconnects the source in a slot and returns it.
func (g *Graph) Detach(slot Slot) Source {
	g.mu.Lock()
	s := g.sources[slot]
	g.sources[slot] = nil
	g.mu.Unlock()
	return s
}

// Source returns the source attached to a slot, nil when empty.
func (g *Graph) Source(slot Slot) Source {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.sources[slot]
}

// GainStage returns the per-slot fade gain.
func (g *Graph) GainStage(slot Slot) *Gain { return g.gains[slot] }

// Master returns the output volume gain.
func (g *Graph) Master() *Gain { return g.master }

// SampleRate returns the output sample rate.
func (g *Graph) SampleRate() float64 { return g.sampleRate }

// Frames returns the per-buffer frame count.
func (g *Graph) Frames() int { return g.frames }

// Render produces one buffer of output (frames * 2 samples) into out.
func (g *Graph) Render(out []float64) {
	for i := range out {
		out[i] = 0
	}

	g.mu.Lock()
	srcs := g.sources
	g.mu.Unlock()

	for slot, src := range srcs {
		buf := g.scratch[slot]
		if src == nil {
			// Still advance the gain ramp so a fade completes on
			// schedule even while the slot is empty.
			for i := range buf {
				buf[i] = 0
			}
			g.gains[slot].Process(buf)
			continue
		}
		src.Render(buf)
		g.gains[slot].Process(buf)
		for i := range out {
			out[i] += buf[i]
		}
	}

	for _, p := range g.chain {
		p.Process(out)
	}
	if g.tap != nil {
		g.tap.Process(out)
	}
	g.master.Process(out)
}

// Package output drives rendered audio to its destination: a PortAudio
// device in production, a manually stepped null sink in tests.
package output

// RenderFunc fills an interleaved stereo float64 buffer with the next
// block of audio.
type RenderFunc func(out []float64)

// Sink pulls audio from a render function and delivers it somewhere.
type Sink interface {
	// Start begins pulling buffers from render until Stop.
	Start(render RenderFunc) error
	Stop() error
	SampleRate() float64
	FramesPerBuffer() int
}

// NullSink discards audio. It never pulls on its own; tests call Step
// to drive the render function a buffer at a time.
type NullSink struct {
	sampleRate float64
	frames     int
	render     RenderFunc
	buf        []float64
}

// NewNullSink creates a sink with the given output format.
func NewNullSink(sampleRate float64, frames int) *NullSink {
	return &NullSink{
		sampleRate: sampleRate,
		frames:     frames,
		buf:        make([]float64, frames*2),
	}
}

func (s *NullSink) Start(render RenderFunc) error {
	s.render = render
	return nil
}

func (s *NullSink) Stop() error {
	s.render = nil
	return nil
}

func (s *NullSink) SampleRate() float64  { return s.sampleRate }
func (s *NullSink) FramesPerBuffer() int { return s.frames }

// Step renders n buffers, discarding the output. Returns the last
// rendered buffer for inspection.
func (s *NullSink) Step(n int) []float64 {
	if s.render == nil {
		return nil
	}
	for i := 0; i < n; i++ {
		s.render(s.buf)
	}
	return s.buf
}

var _ Sink = (*NullSink)(nil)

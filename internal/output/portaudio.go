package output

import (
	"fmt"
	"runtime"
	"time"

	"github.com/gordonklaus/portaudio"

	"github.com/perhassle/spotify-mvp-sub001/internal/log"
)

// PortAudioSink plays rendered audio on a PortAudio output device. The
// device callback pulls float64 buffers from the render function and
// converts them to the float32 samples the stream expects.
type PortAudioSink struct {
	device     *portaudio.DeviceInfo
	latency    time.Duration
	sampleRate float64
	frames     int

	stream *portaudio.Stream
	render RenderFunc
	buf    []float64
}

// NewPortAudioSink creates a sink on the given output device. Pass
// DefaultDeviceID for the system default. lowLatency selects the
// device's low-latency setting over the safer high-latency one.
func NewPortAudioSink(deviceID int, sampleRate float64, frames int, lowLatency bool) (*PortAudioSink, error) {
	device, err := OutputDevice(deviceID)
	if err != nil {
		return nil, err
	}
	if device.MaxOutputChannels < 2 {
		return nil, fmt.Errorf("device %q has no stereo output", device.Name)
	}

	latency := device.DefaultHighOutputLatency
	if lowLatency {
		latency = device.DefaultLowOutputLatency
	}

	return &PortAudioSink{
		device:     device,
		latency:    latency,
		sampleRate: sampleRate,
		frames:     frames,
		buf:        make([]float64, frames*2),
	}, nil
}

// Start opens the output stream and begins pulling from render.
func (s *PortAudioSink) Start(render RenderFunc) error {
	s.render = render

	params := portaudio.StreamParameters{
		Output: portaudio.StreamDeviceParameters{
			Channels: 2,
			Device:   s.device,
			Latency:  s.latency,
		},
		FramesPerBuffer: s.frames,
		SampleRate:      s.sampleRate,
	}

	stream, err := portaudio.OpenStream(params, s.callback)
	if err != nil {
		return fmt.Errorf("open output stream: %w", err)
	}
	s.stream = stream

	if err := s.stream.Start(); err != nil {
		s.stream.Close()
		s.stream = nil
		return fmt.Errorf("start output stream: %w", err)
	}

	log.Infof("output: streaming to %q (%.0f Hz, %d frames, latency %s)",
		s.device.Name, s.sampleRate, s.frames, s.latency)
	return nil
}

// Stop stops and closes the output stream.
func (s *PortAudioSink) Stop() error {
	if s.stream == nil {
		return nil
	}
	if err := s.stream.Stop(); err != nil {
		return err
	}
	if err := s.stream.Close(); err != nil {
		return err
	}
	s.stream = nil
	return nil
}

func (s *PortAudioSink) SampleRate() float64  { return s.sampleRate }
func (s *PortAudioSink) FramesPerBuffer() int { return s.frames }

// callback runs on the audio thread. Pre-allocated buffers only.
func (s *PortAudioSink) callback(out []float32) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	s.render(s.buf)
	for i := range out {
		if i < len(s.buf) {
			out[i] = float32(s.buf[i])
		} else {
			out[i] = 0
		}
	}
}

var _ Sink = (*PortAudioSink)(nil)

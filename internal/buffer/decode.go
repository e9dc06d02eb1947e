package buffer

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/go-audio/wav"
	"github.com/hajimehoshi/go-mp3"
	"github.com/jfreymuth/oggvorbis"
)

// Decode sniffs the container format and decodes raw bytes into an
// interleaved float64 buffer. WAV, MP3 and Ogg Vorbis are supported.
func Decode(trackID string, raw []byte) (*DecodedBuffer, error) {
	switch {
	case len(raw) >= 4 && string(raw[:4]) == "RIFF":
		return decodeWAV(trackID, raw)
	case len(raw) >= 4 && string(raw[:4]) == "OggS":
		return decodeVorbis(trackID, raw)
	case len(raw) >= 3 && string(raw[:3]) == "ID3",
		len(raw) >= 2 && raw[0] == 0xFF && raw[1]&0xE0 == 0xE0:
		return decodeMP3(trackID, raw)
	default:
		return nil, fmt.Errorf("unrecognized audio format")
	}
}

func decodeWAV(trackID string, raw []byte) (*DecodedBuffer, error) {
	d := wav.NewDecoder(bytes.NewReader(raw))
	pcm, err := d.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("decode wav: %w", err)
	}
	if pcm.Format == nil || pcm.Format.NumChannels == 0 {
		return nil, fmt.Errorf("decode wav: missing format chunk")
	}

	scale := math.Pow(2, float64(d.BitDepth)-1)
	data := make([]float64, len(pcm.Data))
	for i, v := range pcm.Data {
		data[i] = float64(v) / scale
	}
	data, channels := mixdown(data, pcm.Format.NumChannels)

	return &DecodedBuffer{
		ID:         trackID,
		SampleRate: pcm.Format.SampleRate,
		Channels:   channels,
		Data:       data,
	}, nil
}

// decodeMP3 decodes MP3 data. The decoder always emits 16-bit
// little-endian stereo regardless of the source channel layout.
func decodeMP3(trackID string, raw []byte) (*DecodedBuffer, error) {
	d, err := mp3.NewDecoder(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("decode mp3: %w", err)
	}

	pcm, err := io.ReadAll(d)
	if err != nil {
		return nil, fmt.Errorf("decode mp3: %w", err)
	}

	data := make([]float64, len(pcm)/2)
	for i := range data {
		s := int16(binary.LittleEndian.Uint16(pcm[i*2:]))
		data[i] = float64(s) / 32768
	}

	return &DecodedBuffer{
		ID:         trackID,
		SampleRate: d.SampleRate(),
		Channels:   2,
		Data:       data,
	}, nil
}

func decodeVorbis(trackID string, raw []byte) (*DecodedBuffer, error) {
	samples, format, err := oggvorbis.ReadAll(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("decode vorbis: %w", err)
	}

	data := make([]float64, len(samples))
	for i, v := range samples {
		data[i] = float64(v)
	}
	data, channels := mixdown(data, format.Channels)

	return &DecodedBuffer{
		ID:         trackID,
		SampleRate: format.SampleRate,
		Channels:   channels,
		Data:       data,
	}, nil
}

// mixdown folds interleaved material with more than two channels into
// mono by averaging each frame. Playback sources only handle mono and
// stereo layouts, so surround material must not pass through untouched.
func mixdown(data []float64, channels int) ([]float64, int) {
	if channels <= 2 {
		return data, channels
	}
	frames := len(data) / channels
	mono := make([]float64, frames)
	for f := 0; f < frames; f++ {
		var sum float64
		for c := 0; c < channels; c++ {
			sum += data[f*channels+c]
		}
		mono[f] = sum / float64(channels)
	}
	return mono, 1
}

package synth

import (
	"fmt"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/perhassle/spotify-mvp-sub001/internal/buffer"
)

// WriteWAV encodes a decoded buffer to a 16-bit PCM WAV file. Used by
// the tone command's --output mode and to fabricate fixtures in tests.
func WriteWAV(path string, buf *buffer.DecodedBuffer) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	enc := wav.NewEncoder(f, buf.SampleRate, 16, buf.Channels, 1)

	intBuf := &audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: buf.Channels,
			SampleRate:  buf.SampleRate,
		},
		Data:           make([]int, len(buf.Data)),
		SourceBitDepth: 16,
	}
	for i, v := range buf.Data {
		if v > 1 {
			v = 1
		} else if v < -1 {
			v = -1
		}
		intBuf.Data[i] = int(v * 32767)
	}

	if err := enc.Write(intBuf); err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return enc.Close()
}

// Package equalizer provides a 10-band graphic equalizer built from
// second-order filters, with named presets and a bypass switch.
package equalizer

import (
	"fmt"
	"sync/atomic"

	"github.com/perhassle/spotify-mvp-sub001/internal/dsp"
)

// NumBands is the number of equalizer bands.
const NumBands = 10

// MaxGainDB bounds per-band gain in both directions.
const MaxGainDB = 12

// Band center frequencies, ISO octave spacing from 31.25 Hz to 16 kHz.
var centerFreqs = [NumBands]float64{
	31.25, 62.5, 125, 250, 500, 1000, 2000, 4000, 8000, 16000,
}

// ConfigError reports an invalid equalizer setting. The operation that
// produced it is a no-op; audio keeps flowing unchanged.
type ConfigError struct {
	Msg string
}

func (e *ConfigError) Error() string {
	return "equalizer: " + e.Msg
}

// Bank is the 10-band equalizer. The lowest band is a low shelf, the
// highest a high shelf, the rest peaking filters. It implements the
// graph's Processor interface; setters are safe from any goroutine.
type Bank struct {
	bands   [NumBands]*dsp.Biquad
	enabled atomic.Bool
}

// New creates a flat (all 0 dB) equalizer for the given sample rate.
func New(sampleRate float64) *Bank {
	b := &Bank{}
	for i, freq := range centerFreqs {
		shape := dsp.Peaking
		switch i {
		case 0:
			shape = dsp.LowShelf
		case NumBands - 1:
			shape = dsp.HighShelf
		}
		b.bands[i] = dsp.NewBiquad(shape, freq, 1.0, sampleRate)
	}
	b.enabled.Store(true)
	return b
}

// SetBand sets one band's gain in dB, clamped to ±MaxGainDB.
func (b *Bank) SetBand(index int, gainDB float64) error {
	if index < 0 || index >= NumBands {
		return &ConfigError{Msg: fmt.Sprintf("band index %d out of range [0,%d]", index, NumBands-1)}
	}
	if gainDB > MaxGainDB {
		gainDB = MaxGainDB
	} else if gainDB < -MaxGainDB {
		gainDB = -MaxGainDB
	}
	b.bands[index].SetGainDB(gainDB)
	return nil
}

// Band returns one band's gain target in dB.
func (b *Bank) Band(index int) (float64, error) {
	if index < 0 || index >= NumBands {
		return 0, &ConfigError{Msg: fmt.Sprintf("band index %d out of range [0,%d]", index, NumBands-1)}
	}
	return b.bands[index].GainDB(), nil
}

// Bands returns all band gain targets in dB.
func (b *Bank) Bands() [NumBands]float64 {
	var out [NumBands]float64
	for i, band := range b.bands {
		out[i] = band.GainDB()
	}
	return out
}

// Frequencies returns the band center frequencies in Hz.
func (b *Bank) Frequencies() [NumBands]float64 { return centerFreqs }

// SetEnabled switches the bank in or out of the chain. When disabled,
// Process passes audio through untouched but keeps the gain settings.
func (b *Bank) SetEnabled(on bool) {
	wasOn := b.enabled.Swap(on)
	if on && !wasOn {
		for _, band := range b.bands {
			band.Reset()
		}
	}
}

// Enabled reports whether the bank is active.
func (b *Bank) Enabled() bool { return b.enabled.Load() }

// Process filters the interleaved stereo buffer in place.
func (b *Bank) Process(buf []float64) {
	if !b.enabled.Load() {
		return
	}
	for _, band := range b.bands {
		band.Process(buf)
	}
}

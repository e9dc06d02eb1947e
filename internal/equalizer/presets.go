package equalizer

import (
	"fmt"
	"sort"
)

// presets maps preset names to per-band gains in dB, low band first.
var presets = map[string][NumBands]float64{
	"flat":         {0, 0, 0, 0, 0, 0, 0, 0, 0, 0},
	"rock":         {5, 4, 3, 1, -1, -1, 1, 3, 4, 5},
	"pop":          {-1, 1, 3, 4, 3, 1, -1, -1, 1, 2},
	"jazz":         {3, 2, 1, 2, -1, -1, 0, 1, 2, 3},
	"classical":    {4, 3, 2, 0, 0, 0, -1, 2, 3, 4},
	"bass-boost":   {7, 6, 5, 3, 1, 0, 0, 0, 0, 0},
	"treble-boost": {0, 0, 0, 0, 0, 1, 3, 5, 6, 7},
	"vocal":        {-2, -1, 0, 2, 4, 4, 3, 1, 0, -1},
	"acoustic":     {4, 3, 2, 1, 1, 1, 2, 3, 3, 2},
	"electronic":   {5, 4, 1, 0, -1, 1, 1, 2, 4, 5},
}

// SetPreset applies a named preset to every band. An unknown name
// returns a ConfigError and leaves the current gains untouched.
func (b *Bank) SetPreset(name string) error {
	gains, ok := presets[name]
	if !ok {
		return &ConfigError{Msg: fmt.Sprintf("unknown preset %q", name)}
	}
	for i, db := range gains {
		b.bands[i].SetGainDB(db)
	}
	return nil
}

// Presets returns the available preset names, sorted.
func Presets() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

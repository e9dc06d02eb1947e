package equalizer

import (
	"errors"
	"math"
	"testing"
)

const testSampleRate = 44100.0

func TestSetBandClamping(t *testing.T) {
	tests := []struct {
		name   string
		index  int
		gainDB float64
		want   float64
	}{
		{"Within Range", 4, 6, 6},
		{"Clamp High", 3, 50, 12},
		{"Clamp Low", 7, -50, -12},
		{"At Limit", 0, 12, 12},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := New(testSampleRate)
			if err := b.SetBand(tt.index, tt.gainDB); err != nil {
				t.Fatalf("SetBand() error = %v", err)
			}
			got, err := b.Band(tt.index)
			if err != nil {
				t.Fatalf("Band() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Band(%d) = %v, want %v", tt.index, got, tt.want)
			}
		})
	}
}

func TestSetBandInvalidIndex(t *testing.T) {
	b := New(testSampleRate)

	for _, index := range []int{-1, 10, 100} {
		err := b.SetBand(index, 3)
		var cfgErr *ConfigError
		if !errors.As(err, &cfgErr) {
			t.Errorf("SetBand(%d) error = %v, want ConfigError", index, err)
		}
	}

	// The failed calls must not have touched any band.
	for i := 0; i < NumBands; i++ {
		if got, _ := b.Band(i); got != 0 {
			t.Errorf("band %d = %v after invalid SetBand, want 0", i, got)
		}
	}
}

func TestSetPresetFlat(t *testing.T) {
	b := New(testSampleRate)
	if err := b.SetPreset("rock"); err != nil {
		t.Fatalf("SetPreset(rock) error = %v", err)
	}
	if err := b.SetPreset("flat"); err != nil {
		t.Fatalf("SetPreset(flat) error = %v", err)
	}

	for i, gain := range b.Bands() {
		if gain != 0 {
			t.Errorf("band %d = %v after flat preset, want 0", i, gain)
		}
	}
}

func TestSetPresetUnknown(t *testing.T) {
	b := New(testSampleRate)
	_ = b.SetBand(2, 5)

	err := b.SetPreset("does-not-exist")
	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("SetPreset(unknown) error = %v, want ConfigError", err)
	}

	// Unknown preset is a no-op; previous settings survive.
	if got, _ := b.Band(2); got != 5 {
		t.Errorf("band 2 = %v after failed preset, want 5", got)
	}
}

func TestPresetsAllValid(t *testing.T) {
	b := New(testSampleRate)
	for _, name := range Presets() {
		if err := b.SetPreset(name); err != nil {
			t.Errorf("SetPreset(%q) error = %v", name, err)
		}
		for i, gain := range b.Bands() {
			if gain < -MaxGainDB || gain > MaxGainDB {
				t.Errorf("preset %q band %d = %v outside ±%d", name, i, gain, MaxGainDB)
			}
		}
	}
}

func TestBandFrequencies(t *testing.T) {
	b := New(testSampleRate)
	freqs := b.Frequencies()

	if freqs[0] != 31.25 || freqs[NumBands-1] != 16000 {
		t.Errorf("frequency range = [%v, %v], want [31.25, 16000]", freqs[0], freqs[NumBands-1])
	}
	for i := 1; i < NumBands; i++ {
		if math.Abs(freqs[i]/freqs[i-1]-2) > 1e-9 {
			t.Errorf("bands %d-%d not octave spaced: %v -> %v", i-1, i, freqs[i-1], freqs[i])
		}
	}
}

func TestDisabledBankPassesThrough(t *testing.T) {
	b := New(testSampleRate)
	_ = b.SetBand(5, 12)
	b.SetEnabled(false)

	buf := []float64{0.5, 0.5, -0.5, -0.5}
	want := append([]float64(nil), buf...)
	b.Process(buf)

	for i := range want {
		if buf[i] != want[i] {
			t.Errorf("buf[%d] = %v, want %v (bypass)", i, buf[i], want[i])
		}
	}
	if b.Enabled() {
		t.Error("Enabled() = true after SetEnabled(false)")
	}
}

func TestProcessAllocs(t *testing.T) {
	b := New(testSampleRate)
	_ = b.SetPreset("rock")
	buf := make([]float64, 2048)

	allocs := testing.AllocsPerRun(100, func() {
		b.Process(buf)
	})
	if allocs > 0 {
		t.Errorf("Process allocated: got %.1f allocs, want 0", allocs)
	}
}

func BenchmarkBankProcess(b *testing.B) {
	bank := New(testSampleRate)
	_ = bank.SetPreset("electronic")
	buf := make([]float64, 2048)

	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		bank.Process(buf)
	}
}

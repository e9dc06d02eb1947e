package buffer

import (
	"math"
	"testing"
)

func TestMixdown(t *testing.T) {
	tests := []struct {
		name         string
		data         []float64
		channels     int
		want         []float64
		wantChannels int
	}{
		{
			name:         "Mono Untouched",
			data:         []float64{0.1, 0.2, 0.3},
			channels:     1,
			want:         []float64{0.1, 0.2, 0.3},
			wantChannels: 1,
		},
		{
			name:         "Stereo Untouched",
			data:         []float64{0.5, -0.5, 1, -1},
			channels:     2,
			want:         []float64{0.5, -0.5, 1, -1},
			wantChannels: 2,
		},
		{
			name:         "Three Channels Averaged",
			data:         []float64{1, 2, 3, 3, 3, 3},
			channels:     3,
			want:         []float64{2, 3},
			wantChannels: 1,
		},
		{
			name:         "Five Point One Averaged",
			data:         []float64{0.6, 0.6, 0.6, 0, 0, 0},
			channels:     6,
			want:         []float64{0.3},
			wantChannels: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, channels := mixdown(tt.data, tt.channels)
			if channels != tt.wantChannels {
				t.Errorf("channels = %d, want %d", channels, tt.wantChannels)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("len = %d, want %d", len(got), len(tt.want))
			}
			for i := range got {
				if math.Abs(got[i]-tt.want[i]) > 1e-12 {
					t.Errorf("sample[%d] = %v, want %v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

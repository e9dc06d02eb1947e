package dsp

import "math"

// CompressorParams configures the dynamics compressor.
type CompressorParams struct {
	ThresholdDB float64 // level above which gain reduction starts
	Ratio       float64 // input/output slope above the threshold
	AttackMs    float64 // envelope rise time
	ReleaseMs   float64 // envelope fall time
	MakeupDB    float64 // fixed post-compression gain
}

// DefaultCompressorParams returns a gentle music-program setting.
func DefaultCompressorParams() CompressorParams {
	return CompressorParams{
		ThresholdDB: -18,
		Ratio:       4,
		AttackMs:    10,
		ReleaseMs:   100,
		MakeupDB:    0,
	}
}

// Compressor is a feed-forward, stereo-linked dynamics compressor. The
// detector tracks the per-frame peak of both channels through a one-pole
// envelope with separate attack and release coefficients; gain reduction
// is computed in dB above the threshold.
type Compressor struct {
	params       CompressorParams
	attackCoeff  float64
	releaseCoeff float64
	makeupLin    float64
	env          float64
}

// NewCompressor creates a compressor for the given sample rate.
func NewCompressor(sampleRate float64, params CompressorParams) *Compressor {
	if params.Ratio < 1 {
		params.Ratio = 1
	}
	return &Compressor{
		params:       params,
		attackCoeff:  envCoeff(params.AttackMs, sampleRate),
		releaseCoeff: envCoeff(params.ReleaseMs, sampleRate),
		makeupLin:    math.Pow(10, params.MakeupDB/20),
	}
}

// Params returns the compressor settings.
func (c *Compressor) Params() CompressorParams { return c.params }

// Process compresses the interleaved stereo buffer in place.
func (c *Compressor) Process(buf []float64) {
	for i := 0; i+1 < len(buf); i += 2 {
		level := math.Max(math.Abs(buf[i]), math.Abs(buf[i+1]))

		coeff := c.releaseCoeff
		if level > c.env {
			coeff = c.attackCoeff
		}
		c.env += coeff * (level - c.env)

		gain := c.makeupLin
		if c.env > 1e-8 {
			envDB := 20 * math.Log10(c.env)
			if over := envDB - c.params.ThresholdDB; over > 0 {
				reductionDB := over * (1 - 1/c.params.Ratio)
				gain *= math.Pow(10, -reductionDB/20)
			}
		}

		buf[i] *= gain
		buf[i+1] *= gain
	}
}

// envCoeff converts a time constant in milliseconds to a one-pole
// smoothing coefficient at the given sample rate.
func envCoeff(ms, sampleRate float64) float64 {
	samples := ms / 1000 * sampleRate
	if samples < 1 {
		samples = 1
	}
	return 1 - math.Exp(-1/samples)
}

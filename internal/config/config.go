package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Limits and defaults for the playback engine configuration.
const (
	MinSampleRate = 8000   // Minimum usable sample rate (Hz)
	MaxSampleRate = 192000 // Maximum supported sample rate (Hz)
	MaxFrames     = 8192   // Maximum frames per render buffer (power of 2)

	DefaultSampleRate      = 44100
	DefaultFramesPerBuffer = 1024
	DefaultCrossfade       = 3 * time.Second
)

// Config represents the application configuration, loaded from YAML.
type Config struct {
	Debug      bool             `yaml:"debug"`      // Enable debug mode (verbose logging).
	LogLevel   string           `yaml:"log_level"`  // Logging level ("debug", "info", "warn", "error").
	Audio      AudioConfig      `yaml:"audio"`      // Output and render settings.
	Engine     EngineConfig     `yaml:"engine"`     // Playback behavior.
	Visualizer VisualizerConfig `yaml:"visualizer"` // Analyzer data transport.
	Remote     RemoteConfig     `yaml:"remote"`     // Media-transport adapter.
}

// AudioConfig holds settings for the output sink and render loop.
type AudioConfig struct {
	OutputDevice    int     `yaml:"output_device"`     // PortAudio device index (-1 for default).
	SampleRate      float64 `yaml:"sample_rate"`       // Sample rate in Hz (e.g. 44100, 48000).
	FramesPerBuffer int     `yaml:"frames_per_buffer"` // Frames per render buffer (affects latency).
	LowLatency      bool    `yaml:"low_latency"`       // Request low latency from the output device.
}

// EngineConfig holds playback behavior options.
type EngineConfig struct {
	CrossfadeDuration time.Duration `yaml:"crossfade_duration"` // Overlap duration for track transitions.
	PreloadNext       bool          `yaml:"preload_next"`       // Speculatively load the next track during play.
	EnableEqualizer   bool          `yaml:"enable_equalizer"`   // Run the 10-band EQ stage (bypassed when false).
	EnableVisualizer  bool          `yaml:"enable_visualizer"`  // Publish analyzer samples to the transport.
	AudioQuality      string        `yaml:"audio_quality"`      // low | medium | high | lossless.
}

// VisualizerConfig holds settings for publishing analyzer data.
type VisualizerConfig struct {
	Addr         string        `yaml:"addr"`          // WebSocket listen address (e.g. ":8080").
	SendInterval time.Duration `yaml:"send_interval"` // Interval between analyzer pushes.
	UDPTarget    string        `yaml:"udp_target"`    // Optional UDP target ("host:port", empty = disabled).
}

// RemoteConfig holds settings for the OS media-transport adapter.
type RemoteConfig struct {
	Enabled bool   `yaml:"enabled"` // Serve the remote-control websocket.
	Addr    string `yaml:"addr"`    // Listen address for transport commands.
}

// Default returns the built-in configuration used when no file is present.
func Default() *Config {
	return &Config{
		Debug:    false,
		LogLevel: "info",
		Audio: AudioConfig{
			OutputDevice:    -1,
			SampleRate:      DefaultSampleRate,
			FramesPerBuffer: DefaultFramesPerBuffer,
			LowLatency:      false,
		},
		Engine: EngineConfig{
			CrossfadeDuration: DefaultCrossfade,
			PreloadNext:       true,
			EnableEqualizer:   true,
			EnableVisualizer:  false,
			AudioQuality:      "high",
		},
		Visualizer: VisualizerConfig{
			Addr:         ":8080",
			SendInterval: 33 * time.Millisecond, // ~30Hz
		},
		Remote: RemoteConfig{
			Enabled: false,
			Addr:    ":8081",
		},
	}
}

// Load reads configuration from a YAML file at path. If path is empty it
// searches default locations ("config.yaml"); if no file is found the
// built-in defaults are used. Environment variable overrides are applied
// after loading, then the final configuration is validated.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		candidates := []string{"config.yaml"}
		for _, candidate := range candidates {
			if _, err := os.Stat(candidate); err == nil {
				path = candidate
				break
			}
		}
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks the configuration for out-of-range or inconsistent values.
func (c *Config) Validate() error {
	if c.Audio.SampleRate < MinSampleRate || c.Audio.SampleRate > MaxSampleRate {
		return fmt.Errorf("audio.sample_rate %.0f outside [%d, %d]", c.Audio.SampleRate, MinSampleRate, MaxSampleRate)
	}
	if c.Audio.FramesPerBuffer <= 0 || c.Audio.FramesPerBuffer > MaxFrames {
		return fmt.Errorf("audio.frames_per_buffer %d outside (0, %d]", c.Audio.FramesPerBuffer, MaxFrames)
	}
	if !isPowerOfTwo(c.Audio.FramesPerBuffer) {
		return fmt.Errorf("audio.frames_per_buffer %d must be a power of 2", c.Audio.FramesPerBuffer)
	}
	if c.Engine.CrossfadeDuration < 0 {
		return fmt.Errorf("engine.crossfade_duration must not be negative")
	}
	switch c.Engine.AudioQuality {
	case "low", "medium", "high", "lossless":
	default:
		return fmt.Errorf("engine.audio_quality %q not one of low|medium|high|lossless", c.Engine.AudioQuality)
	}
	return nil
}

// AnalysisSize returns the FFT window size implied by the configured
// audio quality. Larger windows trade latency for frequency resolution.
func (c *Config) AnalysisSize() int {
	switch c.Engine.AudioQuality {
	case "low":
		return 1024
	case "medium":
		return 2048
	case "lossless":
		return 8192
	default: // high
		return 4096
	}
}

func (c *Config) applyEnvOverrides() {
	// PLAYBACK_{...} variables override the file-level settings. Only a
	// handful of deploy-time knobs are exposed this way.
	if val, ok := os.LookupEnv("PLAYBACK_DEBUG"); ok {
		if b, err := strconv.ParseBool(val); err == nil {
			c.Debug = b
		}
	}
	if val, ok := os.LookupEnv("PLAYBACK_LOG_LEVEL"); ok {
		c.LogLevel = val
	}
	if val, ok := os.LookupEnv("PLAYBACK_CROSSFADE"); ok {
		if d, err := time.ParseDuration(val); err == nil {
			c.Engine.CrossfadeDuration = d
		}
	}
	if val, ok := os.LookupEnv("PLAYBACK_VISUALIZER_ADDR"); ok {
		c.Visualizer.Addr = val
	}
	if val, ok := os.LookupEnv("PLAYBACK_REMOTE_ADDR"); ok {
		c.Remote.Addr = val
	}
}

// isPowerOfTwo reports whether n is a positive power of 2. Powers of 2
// have exactly one bit set, so n & (n-1) clears it to zero.
func isPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}

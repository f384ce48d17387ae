// ABOUTME: Tone generator configuration
// ABOUTME: Loads settings from YAML and converts them to a stream config
package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strings"
	"time"

	"github.com/Resonate-Protocol/tonegen/pkg/audio"
	"github.com/Resonate-Protocol/tonegen/pkg/tone"
	"gopkg.in/yaml.v3"
)

// Backend names accepted by the CLI
const (
	BackendMalgo     = "malgo"
	BackendOto       = "oto"
	BackendPortAudio = "portaudio"
	BackendWAV       = "wav"
)

var ErrUnknownBackend = errors.New("unknown backend")

// Config holds generator and stream settings
type Config struct {
	Frequency    float32       `yaml:"frequency"`
	Gain         float32       `yaml:"gain"`
	Backend      string        `yaml:"backend"`
	SampleRate   int           `yaml:"sample_rate"`
	BufferFrames int           `yaml:"buffer_frames"`
	Performance  string        `yaml:"performance"`
	Sharing      string        `yaml:"sharing"`
	Duration     time.Duration `yaml:"duration"`
	Output       string        `yaml:"output"`
	LogFile      string        `yaml:"log_file"`
	NoTUI        bool          `yaml:"no_tui"`
}

// Default returns the settings used when nothing is configured
func Default() Config {
	return Config{
		Frequency:   tone.DefaultFrequency,
		Gain:        tone.DefaultGain,
		Backend:     BackendMalgo,
		Performance: audio.PerformanceLowLatency.String(),
		Sharing:     audio.SharingShared.String(),
		Output:      "tone.wav",
		LogFile:     "tonegen.log",
	}
}

// Load reads a YAML file over the defaults. An empty path returns Default().
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	cfg.Backend = strings.ToLower(strings.TrimSpace(cfg.Backend))
	return cfg, nil
}

// Validate checks the settings before any device is touched
func (c Config) Validate() error {
	if !(c.Frequency > 0) || math.IsInf(float64(c.Frequency), 0) {
		return fmt.Errorf("%w: %v", tone.ErrInvalidFrequency, c.Frequency)
	}
	if math.IsNaN(float64(c.Gain)) || math.IsInf(float64(c.Gain), 0) {
		return fmt.Errorf("%w: %v", tone.ErrInvalidGain, c.Gain)
	}
	if c.Gain < 0 || c.Gain > 1 {
		return fmt.Errorf("gain must be within [0, 1], got %v", c.Gain)
	}

	switch c.Backend {
	case BackendMalgo, BackendOto, BackendPortAudio:
	case BackendWAV:
		if c.Duration <= 0 {
			return fmt.Errorf("wav backend needs a positive duration")
		}
		if c.Output == "" {
			return fmt.Errorf("wav backend needs an output path")
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownBackend, c.Backend)
	}

	if c.Duration < 0 {
		return fmt.Errorf("duration must not be negative, got %v", c.Duration)
	}

	stream, err := c.StreamConfig()
	if err != nil {
		return err
	}
	return stream.Validate()
}

// StreamConfig converts the settings to what drivers expect
func (c Config) StreamConfig() (audio.StreamConfig, error) {
	perf, err := audio.ParsePerformanceMode(c.Performance)
	if err != nil {
		return audio.StreamConfig{}, err
	}
	sharing, err := audio.ParseSharingMode(c.Sharing)
	if err != nil {
		return audio.StreamConfig{}, err
	}

	stream := audio.DefaultStreamConfig()
	stream.SampleRate = c.SampleRate
	stream.BufferFrames = c.BufferFrames
	stream.Performance = perf
	stream.Sharing = sharing
	return stream, nil
}

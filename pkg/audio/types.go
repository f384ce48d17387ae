// ABOUTME: Audio stream configuration types
// ABOUTME: Defines modes, formats and float/PCM sample conversion
package audio

import (
	"errors"
	"fmt"
	"strings"
)

const (
	// 16-bit PCM range
	MaxInt16 = 32767
	MinInt16 = -32768

	// ChannelsMono is the only channel layout the generator produces
	ChannelsMono = 1

	// Period sizes used when BufferFrames is left at zero
	LowLatencyFrames  = 256
	DefaultFrames     = 512
	PowerSavingFrames = 2048
)

var (
	ErrUnsupportedFormat   = errors.New("unsupported sample format")
	ErrUnsupportedChannels = errors.New("unsupported channel count")
	ErrInvalidSampleRate   = errors.New("invalid sample rate")
	ErrInvalidBufferFrames = errors.New("invalid buffer size")
)

// PerformanceMode trades latency against power use
type PerformanceMode int

const (
	PerformanceNone PerformanceMode = iota
	PerformanceLowLatency
	PerformancePowerSaving
)

func (m PerformanceMode) String() string {
	switch m {
	case PerformanceLowLatency:
		return "low-latency"
	case PerformancePowerSaving:
		return "power-saving"
	default:
		return "none"
	}
}

// ParsePerformanceMode accepts the names produced by String
func ParsePerformanceMode(s string) (PerformanceMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return PerformanceNone, nil
	case "low-latency", "lowlatency":
		return PerformanceLowLatency, nil
	case "power-saving", "powersaving":
		return PerformancePowerSaving, nil
	default:
		return PerformanceNone, fmt.Errorf("unknown performance mode: %q", s)
	}
}

// SharingMode selects whether other applications may use the device
type SharingMode int

const (
	SharingShared SharingMode = iota
	SharingExclusive
)

func (m SharingMode) String() string {
	if m == SharingExclusive {
		return "exclusive"
	}
	return "shared"
}

// ParseSharingMode accepts the names produced by String
func ParseSharingMode(s string) (SharingMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "shared":
		return SharingShared, nil
	case "exclusive":
		return SharingExclusive, nil
	default:
		return SharingShared, fmt.Errorf("unknown sharing mode: %q", s)
	}
}

// SampleFormat is the in-memory sample type handed to the callback
type SampleFormat int

const (
	FormatFloat32 SampleFormat = iota
)

func (f SampleFormat) String() string {
	if f == FormatFloat32 {
		return "f32"
	}
	return fmt.Sprintf("Unknown(%d)", int(f))
}

// StreamConfig describes the stream requested from a driver
type StreamConfig struct {
	// SampleRate in Hz; 0 lets the device pick its native rate
	SampleRate int

	// BufferFrames per callback; 0 derives it from Performance
	BufferFrames int

	Performance PerformanceMode
	Sharing     SharingMode
	Format      SampleFormat
	Channels    int
}

// DefaultStreamConfig returns a low-latency, shared, float32 mono stream at
// the device's native rate
func DefaultStreamConfig() StreamConfig {
	return StreamConfig{
		Performance: PerformanceLowLatency,
		Sharing:     SharingShared,
		Format:      FormatFloat32,
		Channels:    ChannelsMono,
	}
}

// Validate checks the config can be handed to a driver
func (c StreamConfig) Validate() error {
	if c.Format != FormatFloat32 {
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, c.Format)
	}
	if c.Channels != ChannelsMono {
		return fmt.Errorf("%w: %d", ErrUnsupportedChannels, c.Channels)
	}
	if c.SampleRate < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidSampleRate, c.SampleRate)
	}
	if c.BufferFrames < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidBufferFrames, c.BufferFrames)
	}
	return nil
}

// PeriodFrames returns BufferFrames, or the default for the performance mode
func (c StreamConfig) PeriodFrames() int {
	if c.BufferFrames > 0 {
		return c.BufferFrames
	}
	switch c.Performance {
	case PerformanceLowLatency:
		return LowLatencyFrames
	case PerformancePowerSaving:
		return PowerSavingFrames
	default:
		return DefaultFrames
	}
}

// FloatToInt16 converts a [-1, 1] float sample to 16-bit PCM, clipping
// anything outside the range
func FloatToInt16(sample float32) int16 {
	scaled := sample * MaxInt16
	if scaled >= MaxInt16 {
		return MaxInt16
	}
	if scaled <= MinInt16 {
		return MinInt16
	}
	return int16(scaled)
}

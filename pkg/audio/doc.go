// ABOUTME: Audio fundamentals package providing stream configuration types
// ABOUTME: Defines StreamConfig, performance/sharing modes and sample conversion helpers
// Package audio provides the stream configuration shared by the generator and
// its output drivers.
//
// This package defines:
//   - StreamConfig: what the application asks the driver for (rate, period,
//     performance mode, sharing mode, sample format, channel layout)
//   - PerformanceMode and SharingMode, mirroring the knobs audio backends expose
//
// It also provides helpers for converting float samples to 16-bit PCM for
// backends and file writers that need integer samples.
//
// Example:
//
//	cfg := audio.DefaultStreamConfig()
//	cfg.Performance = audio.PerformanceLowLatency
//	cfg.Sharing = audio.SharingExclusive
//	if err := cfg.Validate(); err != nil {
//	    log.Fatal(err)
//	}
package audio

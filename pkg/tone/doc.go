// ABOUTME: Real-time sine tone generator package
// ABOUTME: Defines the oscillator and the render callback contract used by audio drivers
// Package tone provides a single-tone sine oscillator for pull-based audio
// callbacks.
//
// An audio driver owns the stream and calls Render once per hardware buffer.
// The oscillator derives its phase increment from the stream's sample rate on
// the first call, then keeps the phase running across calls so consecutive
// buffers join without artifacts.
//
// Render never allocates, blocks or performs I/O, so it is safe to call from a
// real-time audio thread.
//
// Example:
//
//	osc := tone.NewDefaultOscillator() // 440 Hz at half gain
//	out := output.NewMalgo()
//	err := out.Open(audio.DefaultStreamConfig(), osc)
//	err = out.Start()
package tone

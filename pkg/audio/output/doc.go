// ABOUTME: Audio output package for callback-driven playback
// ABOUTME: Provides the Output driver interface and Malgo, Oto, PortAudio and WAV drivers
// Package output provides audio stream drivers that pull samples from a
// tone.Callback.
//
// A driver negotiates the stream with the backend in Open, registers the
// callback, and then invokes it once per hardware period from the backend's
// audio thread. Supported drivers:
//   - Malgo: miniaudio via malgo (default)
//   - Oto: ebitengine/oto
//   - PortAudio: PortAudio (build with -tags portaudio)
//   - WAV: offline rendering to a 16-bit WAV file
//
// Example:
//
//	out := output.NewMalgo()
//	err := out.Open(audio.DefaultStreamConfig(), tone.NewDefaultOscillator())
//	err = out.Start()
//	<-out.Done()
package output

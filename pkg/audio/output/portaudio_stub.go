//go:build !portaudio

// ABOUTME: PortAudio stub when library not available
// ABOUTME: Provides compile-time placeholder when PortAudio not installed
package output

import (
	"github.com/Resonate-Protocol/tonegen/pkg/audio"
	"github.com/Resonate-Protocol/tonegen/pkg/tone"
)

// PortAudio output implementation (stub)
type PortAudio struct{}

// NewPortAudio creates a new PortAudio output
func NewPortAudio() *PortAudio {
	return &PortAudio{}
}

func (p *PortAudio) Open(cfg audio.StreamConfig, cb tone.Callback) error { return ErrNotCompiled }
func (p *PortAudio) Start() error                                        { return ErrNotCompiled }
func (p *PortAudio) Stop() error                                         { return ErrNotCompiled }
func (p *PortAudio) Close() error                                        { return nil }
func (p *PortAudio) SampleRate() float32                                 { return 0 }
func (p *PortAudio) Done() <-chan struct{}                               { return closedDone }

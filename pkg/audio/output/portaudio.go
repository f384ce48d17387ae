//go:build portaudio

// ABOUTME: PortAudio output driver
// ABOUTME: Cross-platform callback-driven audio output using PortAudio
package output

import (
	"fmt"
	"log"
	"sync"

	"github.com/Resonate-Protocol/tonegen/pkg/audio"
	"github.com/Resonate-Protocol/tonegen/pkg/tone"
	"github.com/gordonklaus/portaudio"
)

// PortAudio output implementation
type PortAudio struct {
	stream      *portaudio.Stream
	sampleRate  float32
	run         *runner
	initialized bool
	mu          sync.Mutex
}

// NewPortAudio creates a new PortAudio output
func NewPortAudio() *PortAudio {
	return &PortAudio{}
}

// Open initializes PortAudio and opens a mono float32 stream on the default
// output device with cb as its callback
func (p *PortAudio) Open(cfg audio.StreamConfig, cb tone.Callback) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stream != nil {
		return ErrAlreadyOpen
	}

	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("failed to initialize portaudio: %w", err)
	}
	p.initialized = true

	dev, err := portaudio.DefaultOutputDevice()
	if err != nil {
		p.terminate()
		return fmt.Errorf("failed to find output device: %w", err)
	}

	var params portaudio.StreamParameters
	if cfg.Performance == audio.PerformanceLowLatency {
		params = portaudio.LowLatencyParameters(nil, dev)
	} else {
		params = portaudio.HighLatencyParameters(nil, dev)
	}
	params.Output.Channels = cfg.Channels
	params.FramesPerBuffer = cfg.PeriodFrames()
	if cfg.SampleRate > 0 {
		params.SampleRate = float64(cfg.SampleRate)
	}

	if cfg.Sharing == audio.SharingExclusive {
		log.Printf("Warning: portaudio exclusive mode is host specific, opening shared")
	}

	p.run = newRunner(cb, p)

	stream, err := portaudio.OpenStream(params, func(out []float32) {
		p.run.fill(out)
	})
	if err != nil {
		p.terminate()
		return fmt.Errorf("failed to open stream: %w", err)
	}

	rate := float32(stream.Info().SampleRate)
	if err := checkSampleRate(rate); err != nil {
		stream.Close()
		p.terminate()
		return err
	}

	p.stream = stream
	p.sampleRate = rate

	log.Printf("Audio output initialized: %dHz, %d channels, %s on %s (portaudio)",
		int(rate), cfg.Channels, cfg.Format, dev.Name)

	return nil
}

// Start starts the stream
func (p *PortAudio) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stream == nil {
		return ErrNotOpen
	}
	return p.stream.Start()
}

// Stop stops the stream
func (p *PortAudio) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stream == nil {
		return ErrNotOpen
	}
	return p.stream.Stop()
}

// SampleRate returns the rate PortAudio opened the stream with
func (p *PortAudio) SampleRate() float32 {
	return p.sampleRate
}

// Done is closed when the callback asks to stop or the stream is closed
func (p *PortAudio) Done() <-chan struct{} {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.run == nil {
		return closedDone
	}
	return p.run.done.ch
}

// Close releases resources
func (p *PortAudio) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var firstErr error
	if p.stream != nil {
		if err := p.stream.Close(); err != nil {
			firstErr = err
		}
		p.stream = nil
		p.run.done.fire()
	}
	if err := p.terminate(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

// terminate undoes Initialize (must hold p.mu)
func (p *PortAudio) terminate() error {
	if !p.initialized {
		return nil
	}
	p.initialized = false
	return portaudio.Terminate()
}

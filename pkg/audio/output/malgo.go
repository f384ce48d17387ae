// ABOUTME: Malgo-based audio output driver
// ABOUTME: Pulls float32 mono frames from the callback on miniaudio's audio thread
package output

import (
	"fmt"
	"log"
	"sync"
	"unsafe"

	"github.com/Resonate-Protocol/tonegen/pkg/audio"
	"github.com/Resonate-Protocol/tonegen/pkg/tone"
	"github.com/gen2brain/malgo"
)

// Malgo output implementation using malgo/miniaudio library
type Malgo struct {
	malgoCtx   *malgo.AllocatedContext
	device     *malgo.Device
	sampleRate float32
	channels   int
	run        *runner
	mu         sync.Mutex
}

// NewMalgo creates a new Malgo output
func NewMalgo() *Malgo {
	return &Malgo{}
}

// Open initializes a playback device and registers cb as its data callback.
// A zero SampleRate lets miniaudio pick the device's native rate.
func (m *Malgo) Open(cfg audio.StreamConfig, cb tone.Callback) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.device != nil {
		return ErrAlreadyOpen
	}

	if m.malgoCtx == nil {
		ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
		if err != nil {
			return fmt.Errorf("failed to initialize malgo context: %w", err)
		}
		m.malgoCtx = ctx
	}

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Playback)
	deviceConfig.Playback.Format = malgo.FormatF32
	deviceConfig.Playback.Channels = uint32(cfg.Channels)
	deviceConfig.Playback.ShareMode = shareMode(cfg.Sharing)
	deviceConfig.SampleRate = uint32(cfg.SampleRate)
	deviceConfig.PeriodSizeInFrames = uint32(cfg.PeriodFrames())
	deviceConfig.PerformanceProfile = performanceProfile(cfg.Performance)
	deviceConfig.Alsa.NoMMap = 1

	run := newRunner(cb, m)

	deviceCallbacks := malgo.DeviceCallbacks{
		Data: func(pOutputSample, pInputSamples []byte, frameCount uint32) {
			m.dataCallback(pOutputSample, frameCount)
		},
		Stop: run.done.fire,
	}

	device, err := malgo.InitDevice(m.malgoCtx.Context, deviceConfig, deviceCallbacks)
	if err != nil {
		return fmt.Errorf("failed to initialize playback device: %w", err)
	}

	rate := float32(device.SampleRate())
	if err := checkSampleRate(rate); err != nil {
		device.Uninit()
		return err
	}

	m.device = device
	m.sampleRate = rate
	m.channels = cfg.Channels
	m.run = run

	log.Printf("Audio output initialized: %dHz, %d channels, %s, %s/%s (malgo)",
		int(rate), cfg.Channels, cfg.Format, cfg.Performance, cfg.Sharing)

	return nil
}

// Start starts the device; miniaudio begins invoking the callback
func (m *Malgo) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.device == nil {
		return ErrNotOpen
	}
	if err := m.device.Start(); err != nil {
		return fmt.Errorf("failed to start device: %w", err)
	}
	return nil
}

// Stop stops the device
func (m *Malgo) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.device == nil {
		return ErrNotOpen
	}
	if err := m.device.Stop(); err != nil {
		return fmt.Errorf("failed to stop device: %w", err)
	}
	return nil
}

// dataCallback is called by malgo to fill the audio output buffer
func (m *Malgo) dataCallback(pOutput []byte, frameCount uint32) {
	n := int(frameCount) * m.channels
	if n == 0 || len(pOutput) < n*4 {
		clear(pOutput)
		return
	}
	// miniaudio hands us a float32 buffer as raw bytes; view it in place
	frames := unsafe.Slice((*float32)(unsafe.Pointer(&pOutput[0])), n)
	m.run.fill(frames)
}

// SampleRate returns the rate negotiated with the device
func (m *Malgo) SampleRate() float32 {
	return m.sampleRate
}

// Done is closed when the callback asks to stop or the device stops
func (m *Malgo) Done() <-chan struct{} {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.run == nil {
		return closedDone
	}
	return m.run.done.ch
}

// Close releases output resources
func (m *Malgo) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closeDevice()

	if m.malgoCtx != nil {
		if err := m.malgoCtx.Uninit(); err != nil {
			log.Printf("Warning: malgo context uninit error: %v", err)
		}
		m.malgoCtx.Free()
		m.malgoCtx = nil
	}
	return nil
}

// closeDevice stops and uninitializes the device (must hold m.mu)
func (m *Malgo) closeDevice() {
	if m.device == nil {
		return
	}
	if err := m.device.Stop(); err != nil {
		log.Printf("Warning: device stop error: %v", err)
	}
	m.device.Uninit()
	m.device = nil
	m.run.done.fire()
}

func shareMode(mode audio.SharingMode) malgo.ShareMode {
	if mode == audio.SharingExclusive {
		return malgo.Exclusive
	}
	return malgo.Shared
}

func performanceProfile(mode audio.PerformanceMode) malgo.PerformanceProfile {
	if mode == audio.PerformanceLowLatency {
		return malgo.LowLatency
	}
	return malgo.Conservative
}

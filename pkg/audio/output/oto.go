// ABOUTME: Oto-based audio output driver
// ABOUTME: Serves oto's pull reader by rendering float32 frames from the callback
package output

import (
	"encoding/binary"
	"fmt"
	"io"
	"log"
	"math"
	"sync"
	"time"

	"github.com/Resonate-Protocol/tonegen/pkg/audio"
	"github.com/Resonate-Protocol/tonegen/pkg/tone"
	"github.com/ebitengine/oto/v3"
)

// DefaultOtoSampleRate is used when the config leaves the rate to the device;
// oto has no way to report a native rate
const DefaultOtoSampleRate = 48000

// Oto output implementation using oto library
type Oto struct {
	otoCtx     *oto.Context
	player     *oto.Player
	sampleRate float32
	run        *runner
	scratch    []float32
	mu         sync.Mutex
}

// NewOto creates a new Oto output
func NewOto() *Oto {
	return &Oto{}
}

// Open creates the oto context and a player that reads from the callback
func (o *Oto) Open(cfg audio.StreamConfig, cb tone.Callback) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	if o.player != nil {
		return ErrAlreadyOpen
	}

	if cfg.Sharing == audio.SharingExclusive {
		log.Printf("Warning: oto does not support exclusive mode, opening shared")
	}

	rate := cfg.SampleRate
	if rate == 0 {
		rate = DefaultOtoSampleRate
	}
	period := cfg.PeriodFrames()

	// oto allows one context per process; reuse it across Open/Close cycles
	if o.otoCtx == nil {
		op := &oto.NewContextOptions{
			SampleRate:   rate,
			ChannelCount: cfg.Channels,
			Format:       oto.FormatFloat32LE,
			BufferSize:   time.Duration(period) * time.Second / time.Duration(rate),
		}

		ctx, readyChan, err := oto.NewContext(op)
		if err != nil {
			return fmt.Errorf("failed to create oto context: %w", err)
		}
		<-readyChan

		o.otoCtx = ctx
		o.sampleRate = float32(rate)
	} else if float32(rate) != o.sampleRate {
		log.Printf("Warning: oto doesn't support reinitialization, keeping %dHz (requested %dHz)",
			int(o.sampleRate), rate)
	} else if err := o.otoCtx.Resume(); err != nil {
		return fmt.Errorf("failed to resume oto context: %w", err)
	}

	if err := checkSampleRate(o.sampleRate); err != nil {
		return err
	}

	// oto may ask for more than one period per read; leave headroom so
	// the reader never has to grow the buffer
	o.scratch = make([]float32, period*8)
	o.run = newRunner(cb, o)
	o.player = o.otoCtx.NewPlayer(&otoReader{run: o.run, scratch: o.scratch})

	log.Printf("Audio output initialized: %dHz, %d channels, %s, %s (oto)",
		int(o.sampleRate), cfg.Channels, cfg.Format, cfg.Performance)

	return nil
}

// Start begins playback
func (o *Oto) Start() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.player == nil {
		return ErrNotOpen
	}
	o.player.Play()
	return nil
}

// Stop pauses playback; oto stops pulling from the reader
func (o *Oto) Stop() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.player == nil {
		return ErrNotOpen
	}
	o.player.Pause()
	return nil
}

// SampleRate returns the rate the oto context was created with
func (o *Oto) SampleRate() float32 {
	return o.sampleRate
}

// Done is closed when the callback asks to stop or the output is closed
func (o *Oto) Done() <-chan struct{} {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.run == nil {
		return closedDone
	}
	return o.run.done.ch
}

// Close releases output resources
func (o *Oto) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.player != nil {
		if err := o.player.Close(); err != nil {
			log.Printf("Warning: oto player close error: %v", err)
		}
		o.player = nil
	}
	if o.otoCtx != nil {
		if err := o.otoCtx.Suspend(); err != nil {
			log.Printf("Warning: oto suspend error: %v", err)
		}
	}
	if o.run != nil {
		o.run.done.fire()
	}
	return nil
}

// otoReader adapts the callback to the io.Reader oto pulls from. It keeps
// its own runner and scratch so a later Open never swaps them underneath it.
type otoReader struct {
	run     *runner
	scratch []float32
}

// Read renders len(p)/4 float32 frames into p. After the callback returns
// Stop the reader reports io.EOF so oto ends the stream.
func (r *otoReader) Read(p []byte) (int, error) {
	if r.run.done.fired() {
		return 0, io.EOF
	}

	n := len(p) / 4
	if n > len(r.scratch) {
		n = len(r.scratch)
	}
	if n == 0 {
		return 0, nil
	}

	frames := r.scratch[:n]
	r.run.fill(frames)

	for i, s := range frames {
		binary.LittleEndian.PutUint32(p[i*4:], math.Float32bits(s))
	}
	return n * 4, nil
}

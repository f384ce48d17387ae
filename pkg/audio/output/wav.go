// ABOUTME: Offline WAV output driver
// ABOUTME: Drives the callback from a goroutine and encodes 16-bit PCM to a file
package output

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Resonate-Protocol/tonegen/pkg/audio"
	"github.com/Resonate-Protocol/tonegen/pkg/tone"
	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const (
	// DefaultWAVSampleRate is used when the config leaves the rate unset
	DefaultWAVSampleRate = 44100

	wavBitDepth  = 16
	wavPCMFormat = 1
)

var ErrInvalidDuration = errors.New("wav output needs a positive duration")

// WAV renders the callback faster than real time into a WAV file. It stands
// in for a hardware driver in headless runs and tests.
type WAV struct {
	path     string
	w        io.WriteSeeker
	file     *os.File
	duration time.Duration

	enc        *wav.Encoder
	sampleRate float32
	period     int
	frames     []float32
	pcm        *goaudio.IntBuffer
	run        *runner

	written atomic.Int64
	err     error
	started bool
	stop    chan struct{}
	wg      sync.WaitGroup
	mu      sync.Mutex
}

// NewWAV creates a driver writing duration of audio to the file at path
func NewWAV(path string, duration time.Duration) *WAV {
	return &WAV{path: path, duration: duration}
}

// NewWAVWriter creates a driver writing to w; the caller owns w
func NewWAVWriter(w io.WriteSeeker, duration time.Duration) *WAV {
	return &WAV{w: w, duration: duration}
}

// Open creates the file and encoder and sizes the render buffers
func (o *WAV) Open(cfg audio.StreamConfig, cb tone.Callback) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if o.duration <= 0 {
		return fmt.Errorf("%w: %v", ErrInvalidDuration, o.duration)
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	if o.enc != nil {
		return ErrAlreadyOpen
	}

	rate := cfg.SampleRate
	if rate == 0 {
		rate = DefaultWAVSampleRate
	}

	w := o.w
	if w == nil {
		f, err := os.Create(o.path)
		if err != nil {
			return fmt.Errorf("failed to create wav file: %w", err)
		}
		o.file = f
		w = f
	}

	o.enc = wav.NewEncoder(w, rate, wavBitDepth, cfg.Channels, wavPCMFormat)
	o.sampleRate = float32(rate)
	o.period = cfg.PeriodFrames()
	o.frames = make([]float32, o.period)
	o.pcm = &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: cfg.Channels, SampleRate: rate},
		Data:           make([]int, o.period),
		SourceBitDepth: wavBitDepth,
	}
	o.run = newRunner(cb, o)
	o.stop = make(chan struct{})
	o.started = false
	o.err = nil
	o.written.Store(0)

	log.Printf("Audio output initialized: %dHz, %d channels, %s, %v to %s (wav)",
		rate, cfg.Channels, cfg.Format, o.duration, o.name())

	return nil
}

// Start launches the render goroutine
func (o *WAV) Start() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.enc == nil {
		return ErrNotOpen
	}
	// one render goroutine per stream; the callback is never entered concurrently
	if o.started {
		return ErrAlreadyStarted
	}
	o.started = true

	total := int64(o.duration.Seconds() * float64(o.sampleRate))

	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		defer o.run.done.fire()
		o.render(total)
	}()
	return nil
}

func (o *WAV) render(total int64) {
	for o.written.Load() < total {
		select {
		case <-o.stop:
			return
		default:
		}

		n := o.period
		if remaining := total - o.written.Load(); remaining < int64(n) {
			n = int(remaining)
		}

		frames := o.frames[:n]
		o.run.fill(frames)

		o.pcm.Data = o.pcm.Data[:n]
		for i, s := range frames {
			o.pcm.Data[i] = int(audio.FloatToInt16(s))
		}
		if err := o.enc.Write(o.pcm); err != nil {
			o.err = fmt.Errorf("failed to write wav frames: %w", err)
			log.Printf("WAV output error: %v", o.err)
			return
		}
		o.written.Add(int64(n))

		if o.run.done.fired() {
			return
		}
	}
}

// Stop halts rendering and waits for the render goroutine
func (o *WAV) Stop() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.enc == nil {
		return ErrNotOpen
	}
	select {
	case <-o.stop:
	default:
		close(o.stop)
	}
	o.wg.Wait()
	return o.err
}

// SampleRate returns the file's sample rate
func (o *WAV) SampleRate() float32 {
	return o.sampleRate
}

// Done is closed when the requested duration has been rendered or the
// callback asked to stop
func (o *WAV) Done() <-chan struct{} {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.run == nil {
		return closedDone
	}
	return o.run.done.ch
}

// Written returns the number of frames encoded so far
func (o *WAV) Written() int64 {
	return o.written.Load()
}

// Close stops rendering, finalizes the WAV header and closes the file
func (o *WAV) Close() error {
	if o.enc == nil {
		return nil
	}
	stopErr := o.Stop()

	o.mu.Lock()
	defer o.mu.Unlock()

	var firstErr error
	if err := o.enc.Close(); err != nil {
		firstErr = fmt.Errorf("failed to finalize wav: %w", err)
	}
	if o.file != nil {
		if err := o.file.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		o.file = nil
	}
	o.run.done.fire()
	o.enc = nil

	if firstErr == nil {
		firstErr = stopErr
	}
	return firstErr
}

func (o *WAV) name() string {
	if o.path == "" {
		return "writer"
	}
	return o.path
}

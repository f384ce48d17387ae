// ABOUTME: Tone session orchestration
// ABOUTME: Binds one oscillator to one output driver and tracks its progress
package app

import (
	"fmt"
	"log"
	"sync"
	"sync/atomic"

	"github.com/Resonate-Protocol/tonegen/internal/config"
	"github.com/Resonate-Protocol/tonegen/pkg/audio/output"
	"github.com/Resonate-Protocol/tonegen/pkg/tone"
	"github.com/google/uuid"
)

// Stats is a snapshot of a running session
type Stats struct {
	ID         string
	Backend    string
	Frequency  float32
	Gain       float32
	SampleRate float32
	Increment  float32
	State      tone.State
	Callbacks  int64
	Frames     int64
}

// Session owns an oscillator for the lifetime of one audio stream
type Session struct {
	id     string
	config config.Config
	osc    *tone.Oscillator
	out    output.Output
	meter  *meter

	prepared chan tone.Prepared
	prep     tone.Prepared
	running  bool
	prepMu   sync.RWMutex

	started   bool
	closeOnce sync.Once
	quit      chan struct{}
	wg        sync.WaitGroup
}

// New creates a session playing cfg's tone through out
func New(cfg config.Config, out output.Output) (*Session, error) {
	prepared := make(chan tone.Prepared, 1)

	osc, err := tone.NewOscillator(cfg.Frequency, cfg.Gain, tone.WithNotify(prepared))
	if err != nil {
		return nil, fmt.Errorf("failed to create oscillator: %w", err)
	}

	return &Session{
		id:       uuid.New().String(),
		config:   cfg,
		osc:      osc,
		out:      out,
		meter:    &meter{cb: osc},
		prepared: prepared,
		quit:     make(chan struct{}),
	}, nil
}

// ID identifies the session in logs
func (s *Session) ID() string {
	return s.id
}

// Start opens the stream, registers the oscillator and starts playback
func (s *Session) Start() error {
	stream, err := s.config.StreamConfig()
	if err != nil {
		return err
	}

	log.Printf("Session %s: %vHz tone at gain %v via %s", s.id, s.config.Frequency, s.config.Gain, s.config.Backend)

	if err := s.out.Open(stream, s.meter); err != nil {
		return fmt.Errorf("failed to open stream: %w", err)
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.watchPrepare()
	}()

	if err := s.out.Start(); err != nil {
		return fmt.Errorf("failed to start stream: %w", err)
	}
	s.started = true

	log.Printf("Session %s: stream started at %vHz", s.id, s.out.SampleRate())
	return nil
}

// watchPrepare logs the oscillator's one-time derivation off the audio thread
func (s *Session) watchPrepare() {
	select {
	case p := <-s.prepared:
		s.recordPrepared(p)
	case <-s.quit:
		// the first render may have raced with Close
		select {
		case p := <-s.prepared:
			s.recordPrepared(p)
		default:
		}
	}
}

func (s *Session) recordPrepared(p tone.Prepared) {
	s.prepMu.Lock()
	s.prep = p
	s.running = true
	s.prepMu.Unlock()

	log.Printf("Prepare sine wave generator: samplerate=%v, time delta=%v", p.SampleRate, p.Increment)
}

// Done is closed when the stream stops on its own
func (s *Session) Done() <-chan struct{} {
	return s.out.Done()
}

// Stats returns counters and the derived stream parameters. It never touches
// the oscillator, which belongs to the audio thread.
func (s *Session) Stats() Stats {
	s.prepMu.RLock()
	prep, running := s.prep, s.running
	s.prepMu.RUnlock()

	state := tone.Uninitialized
	if running {
		state = tone.Running
	}

	return Stats{
		ID:         s.id,
		Backend:    s.config.Backend,
		Frequency:  s.config.Frequency,
		Gain:       s.config.Gain,
		SampleRate: prep.SampleRate,
		Increment:  prep.Increment,
		State:      state,
		Callbacks:  s.meter.callbacks.Load(),
		Frames:     s.meter.frames.Load(),
	}
}

// Close stops and closes the stream. Safe to call more than once.
func (s *Session) Close() error {
	var err error
	s.closeOnce.Do(func() {
		if s.started {
			if stopErr := s.out.Stop(); stopErr != nil {
				log.Printf("Warning: stream stop error: %v", stopErr)
			}
		}
		err = s.out.Close()
		close(s.quit)
		s.wg.Wait()

		stats := s.Stats()
		log.Printf("Session %s closed: %d callbacks, %d frames", s.id, stats.Callbacks, stats.Frames)
	})
	return err
}

// meter counts callbacks and frames without locking the audio thread
type meter struct {
	cb        tone.Callback
	callbacks atomic.Int64
	frames    atomic.Int64
}

func (m *meter) Render(stream tone.Stream, frames []float32) tone.Result {
	result := m.cb.Render(stream, frames)
	m.callbacks.Add(1)
	m.frames.Add(int64(len(frames)))
	return result
}

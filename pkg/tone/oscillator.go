// ABOUTME: Stateful sine oscillator with lazily derived phase increment
// ABOUTME: Implements Callback for use on real-time audio threads
package tone

import (
	"errors"
	"fmt"
	"math"
)

const (
	// DefaultFrequency is concert A (A4)
	DefaultFrequency float32 = 440.0
	// DefaultGain plays the tone at half amplitude
	DefaultGain float32 = 0.5

	// Pi is kept in single precision so phase arithmetic is reproducible
	Pi float32 = 3.14159265358979

	twoPi = 2 * Pi
)

var (
	ErrInvalidFrequency = errors.New("frequency must be positive and finite")
	ErrInvalidGain      = errors.New("gain must be finite")
)

// State is the oscillator's lifecycle stage
type State int

const (
	// Uninitialized means no buffer has been rendered and the increment is unknown
	Uninitialized State = iota
	// Running means the increment has been derived and is fixed
	Running
)

func (s State) String() string {
	if s == Running {
		return "running"
	}
	return "uninitialized"
}

// Prepared describes the one-time derivation made on the first Render
type Prepared struct {
	SampleRate float32
	Increment  float32
}

// PreconditionError is the panic value raised when a driver hands Render a
// stream with an unusable sample rate
type PreconditionError struct {
	SampleRate float32
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("tone: sample rate must be positive and finite, got %v", e.SampleRate)
}

// Oscillator generates one continuous sine tone.
//
// It is owned by a single stream; Render must not be called concurrently.
type Oscillator struct {
	frequency float32
	gain      float32
	phase     float32
	increment float32
	state     State

	notify chan<- Prepared
}

// Option configures an Oscillator
type Option func(*Oscillator)

// WithNotify registers a channel that receives a Prepared value when the
// increment is derived. The send never blocks; if the channel is full the
// notification is dropped.
func WithNotify(ch chan<- Prepared) Option {
	return func(o *Oscillator) {
		o.notify = ch
	}
}

// NewOscillator creates an oscillator at phase zero
func NewOscillator(frequency, gain float32, opts ...Option) (*Oscillator, error) {
	if !(frequency > 0) || math.IsInf(float64(frequency), 0) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFrequency, frequency)
	}
	if math.IsNaN(float64(gain)) || math.IsInf(float64(gain), 0) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidGain, gain)
	}

	o := &Oscillator{
		frequency: frequency,
		gain:      gain,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o, nil
}

// NewDefaultOscillator creates a DefaultFrequency tone at DefaultGain
func NewDefaultOscillator(opts ...Option) *Oscillator {
	o, _ := NewOscillator(DefaultFrequency, DefaultGain, opts...)
	return o
}

func (o *Oscillator) Frequency() float32 { return o.frequency }
func (o *Oscillator) Gain() float32      { return o.gain }
func (o *Oscillator) Phase() float32     { return o.phase }
func (o *Oscillator) State() State       { return o.state }

// Increment returns the per-sample phase step and whether it has been derived
func (o *Oscillator) Increment() (float32, bool) {
	return o.increment, o.state == Running
}

// Render fills frames with the next len(frames) samples of the tone.
//
// The first call reads the stream's sample rate and fixes the phase
// increment; later calls ignore the stream. Render always returns Continue.
func (o *Oscillator) Render(stream Stream, frames []float32) Result {
	if o.state == Uninitialized {
		o.prepare(stream.SampleRate())
	}

	delta := o.increment
	for i := range frames {
		frames[i] = o.gain * float32(math.Sin(float64(o.phase)))
		o.phase += delta
		// Strict > keeps the phase sequence identical to the reference tone:
		// a phase landing exactly on 2π is wrapped one sample later.
		for o.phase > twoPi {
			o.phase -= twoPi
		}
	}

	return Continue
}

func (o *Oscillator) prepare(sampleRate float32) {
	if !(sampleRate > 0) || math.IsInf(float64(sampleRate), 0) {
		panic(&PreconditionError{SampleRate: sampleRate})
	}

	o.increment = o.frequency * twoPi / sampleRate
	o.state = Running

	if o.notify != nil {
		select {
		case o.notify <- Prepared{SampleRate: sampleRate, Increment: o.increment}:
		default:
		}
	}
}

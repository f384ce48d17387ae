// ABOUTME: Audio output interface definition
// ABOUTME: Common driver contract and the shared callback runner
package output

import (
	"errors"
	"fmt"
	"math"
	"sync/atomic"

	"github.com/Resonate-Protocol/tonegen/pkg/audio"
	"github.com/Resonate-Protocol/tonegen/pkg/tone"
)

var (
	ErrNotOpen        = errors.New("output not opened")
	ErrAlreadyOpen    = errors.New("output already opened")
	ErrAlreadyStarted = errors.New("output already started")
	ErrNotCompiled    = errors.New("PortAudio support not enabled (build with -tags portaudio)")
)

// Output represents an audio stream driver
type Output interface {
	// Open negotiates the stream and registers the callback
	Open(cfg audio.StreamConfig, cb tone.Callback) error

	// Start begins invoking the callback
	Start() error

	// Stop halts the stream; the callback is no longer invoked
	Stop() error

	// Close releases output resources
	Close() error

	// SampleRate returns the negotiated sample rate (valid after Open)
	SampleRate() float32

	// Done is closed once the callback returns Stop or the stream ends
	Done() <-chan struct{}
}

// doneSignal is closed at most once and never blocks the caller
type doneSignal struct {
	ch     chan struct{}
	closed atomic.Bool
}

func newDoneSignal() *doneSignal {
	return &doneSignal{ch: make(chan struct{})}
}

func (d *doneSignal) fire() {
	if d.closed.CompareAndSwap(false, true) {
		close(d.ch)
	}
}

func (d *doneSignal) fired() bool {
	return d.closed.Load()
}

// runner invokes the callback on behalf of a driver. Once the callback has
// returned Stop, further hardware requests are answered with silence.
type runner struct {
	cb     tone.Callback
	stream tone.Stream
	done   *doneSignal
}

func newRunner(cb tone.Callback, stream tone.Stream) *runner {
	return &runner{cb: cb, stream: stream, done: newDoneSignal()}
}

func (r *runner) fill(frames []float32) {
	if r.done.fired() {
		clear(frames)
		return
	}
	if r.cb.Render(r.stream, frames) == tone.Stop {
		r.done.fire()
	}
}

// closedDone is returned by Done before a stream has been opened
var closedDone = func() chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}()

// checkSampleRate rejects a negotiated rate the callback cannot use
func checkSampleRate(rate float32) error {
	if !(rate > 0) || math.IsInf(float64(rate), 0) {
		return fmt.Errorf("%w: negotiated %v", audio.ErrInvalidSampleRate, rate)
	}
	return nil
}

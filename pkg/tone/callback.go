// ABOUTME: Callback contract between audio drivers and generators
// ABOUTME: Defines Stream, Callback and the Continue/Stop result
package tone

// Result tells the driver whether to keep invoking the callback
type Result int

const (
	// Continue asks the driver to call Render again
	Continue Result = iota
	// Stop asks the driver to tear down the stream
	Stop
)

func (r Result) String() string {
	switch r {
	case Continue:
		return "continue"
	case Stop:
		return "stop"
	default:
		return "unknown"
	}
}

// Stream is the driver-side handle passed to every Render call
type Stream interface {
	// SampleRate returns the negotiated stream sample rate in Hz
	SampleRate() float32
}

// Callback is implemented by anything that can fill an output buffer.
//
// Drivers call Render serially, never concurrently, with a buffer they own
// for the duration of the call. The buffer length may change between calls.
type Callback interface {
	Render(stream Stream, frames []float32) Result
}

// CallbackFunc adapts a plain function to the Callback interface
type CallbackFunc func(stream Stream, frames []float32) Result

// Render calls f(stream, frames)
func (f CallbackFunc) Render(stream Stream, frames []float32) Result {
	return f(stream, frames)
}

// SampleRate is a fixed-rate Stream, handy for offline rendering and tests
type SampleRate float32

// SampleRate returns the rate itself
func (r SampleRate) SampleRate() float32 { return float32(r) }

// ABOUTME: Tests for the sine oscillator
// ABOUTME: Covers lazy init, phase wrapping, continuity, amplitude and frequency
package tone

import (
	"errors"
	"math"
	"testing"
)

func TestNewDefaultOscillator(t *testing.T) {
	osc := NewDefaultOscillator()

	if osc.Frequency() != 440.0 {
		t.Errorf("expected frequency 440, got %v", osc.Frequency())
	}
	if osc.Gain() != 0.5 {
		t.Errorf("expected gain 0.5, got %v", osc.Gain())
	}
	if osc.Phase() != 0 {
		t.Errorf("expected phase 0, got %v", osc.Phase())
	}
	if osc.State() != Uninitialized {
		t.Errorf("expected state uninitialized, got %v", osc.State())
	}
	if _, ok := osc.Increment(); ok {
		t.Error("expected increment to be absent before first render")
	}
}

func TestNewOscillatorValidation(t *testing.T) {
	nan := float32(math.NaN())
	inf := float32(math.Inf(1))

	tests := []struct {
		name      string
		frequency float32
		gain      float32
		wantErr   error
	}{
		{"valid", 1000, 0.25, nil},
		{"zero gain", 440, 0, nil},
		{"zero frequency", 0, 0.5, ErrInvalidFrequency},
		{"negative frequency", -440, 0.5, ErrInvalidFrequency},
		{"nan frequency", nan, 0.5, ErrInvalidFrequency},
		{"inf frequency", inf, 0.5, ErrInvalidFrequency},
		{"nan gain", 440, nan, ErrInvalidGain},
		{"inf gain", 440, inf, ErrInvalidGain},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			osc, err := NewOscillator(tt.frequency, tt.gain)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if osc == nil {
					t.Fatal("expected oscillator")
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestIncrementFor440At44100(t *testing.T) {
	osc := NewDefaultOscillator()
	buf := make([]float32, 100)

	osc.Render(SampleRate(44100), buf)

	inc, ok := osc.Increment()
	if !ok {
		t.Fatal("expected increment after first render")
	}

	expected := 440.0 * 2 * math.Pi / 44100.0
	if math.Abs(float64(inc)-expected) > 1e-5 {
		t.Errorf("expected increment ~%.5f, got %.5f", expected, inc)
	}
	if osc.State() != Running {
		t.Errorf("expected state running, got %v", osc.State())
	}
}

func TestZeroCrossings(t *testing.T) {
	tests := []struct {
		name    string
		samples int
		min     int
		max     int
	}{
		// ~0.998 cycles: one falling crossing near sample 50
		{"100 samples", 100, 1, 1},
		// one second of audio
		{"one second", 44100, 439, 441},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			osc := NewDefaultOscillator()
			buf := make([]float32, tt.samples)
			osc.Render(SampleRate(44100), buf)

			falling := 0
			for i := 1; i < len(buf); i++ {
				if buf[i-1] >= 0 && buf[i] < 0 {
					falling++
				}
			}

			if falling < tt.min || falling > tt.max {
				t.Errorf("expected %d-%d falling crossings, got %d", tt.min, tt.max, falling)
			}
		})
	}
}

func TestLazyInitIsIdempotent(t *testing.T) {
	osc := NewDefaultOscillator()
	buf := make([]float32, 64)

	osc.Render(SampleRate(44100), buf)
	first, _ := osc.Increment()

	for _, rate := range []SampleRate{48000, 8000, 96000} {
		osc.Render(rate, buf)
		inc, _ := osc.Increment()
		if inc != first {
			t.Fatalf("increment changed after render at %v Hz: %v -> %v", float32(rate), first, inc)
		}
	}
}

func TestPrepareReadsSampleRateOnce(t *testing.T) {
	stream := &countingStream{rate: 48000}
	osc := NewDefaultOscillator()
	buf := make([]float32, 32)

	for i := 0; i < 10; i++ {
		osc.Render(stream, buf)
	}

	if stream.calls != 1 {
		t.Errorf("expected sample rate to be read once, got %d", stream.calls)
	}
}

func TestPhaseStaysBounded(t *testing.T) {
	frequencies := []float32{1, 440, 1000, 12345, 22050}
	sizes := []int{1, 7, 64, 480, 1024}

	for _, freq := range frequencies {
		osc, err := NewOscillator(freq, 1)
		if err != nil {
			t.Fatalf("NewOscillator(%v): %v", freq, err)
		}
		for round := 0; round < 200; round++ {
			buf := make([]float32, sizes[round%len(sizes)])
			osc.Render(SampleRate(44100), buf)

			phase := osc.Phase()
			if phase < 0 || phase > twoPi {
				t.Fatalf("freq %v round %d: phase %v outside [0, 2π]", freq, round, phase)
			}
		}
	}
}

func TestPhaseWrapIsStrict(t *testing.T) {
	// Increment of exactly π: phase visits π, then 2π, which is not > 2π
	// and therefore stays unwrapped until the next step.
	osc, err := NewOscillator(1, 1)
	if err != nil {
		t.Fatal(err)
	}
	osc.increment = Pi
	osc.state = Running

	buf := make([]float32, 2)
	osc.Render(SampleRate(2), buf)

	if osc.Phase() != twoPi {
		t.Fatalf("expected phase to rest at 2π, got %v", osc.Phase())
	}

	osc.Render(SampleRate(2), buf[:1])
	if math.Abs(float64(osc.Phase()-Pi)) > 1e-5 {
		t.Errorf("expected phase to wrap to π, got %v", osc.Phase())
	}
}

func TestContinuityAcrossCalls(t *testing.T) {
	splits := [][]int{
		{100},
		{37, 63},
		{1, 1, 98},
		{50, 0, 50},
		{13, 29, 41, 17},
	}

	reference := NewDefaultOscillator()
	want := make([]float32, 100)
	reference.Render(SampleRate(44100), want)

	for _, split := range splits {
		osc := NewDefaultOscillator()
		got := make([]float32, 0, 100)
		for _, n := range split {
			buf := make([]float32, n)
			osc.Render(SampleRate(44100), buf)
			got = append(got, buf...)
		}

		for i := range want {
			if got[i] != want[i] {
				t.Fatalf("split %v: sample %d differs: %v != %v", split, i, got[i], want[i])
			}
		}
		if osc.Phase() != reference.Phase() {
			t.Errorf("split %v: final phase %v != %v", split, osc.Phase(), reference.Phase())
		}
	}
}

func TestAmplitudeBound(t *testing.T) {
	for _, gain := range []float32{0, 0.1, 0.5, 0.99, 1} {
		osc, err := NewOscillator(997, gain)
		if err != nil {
			t.Fatal(err)
		}
		buf := make([]float32, 4096)
		osc.Render(SampleRate(48000), buf)

		for i, s := range buf {
			if math.Abs(float64(s)) > float64(gain)+1e-6 {
				t.Fatalf("gain %v: sample %d = %v exceeds bound", gain, i, s)
			}
		}
	}
}

func TestSilence(t *testing.T) {
	for _, freq := range []float32{20, 440, 19000} {
		osc, err := NewOscillator(freq, 0)
		if err != nil {
			t.Fatal(err)
		}
		buf := make([]float32, 512)
		for i := range buf {
			buf[i] = 1 // stale data must be overwritten
		}

		for round := 0; round < 3; round++ {
			osc.Render(SampleRate(44100), buf)
			for i, s := range buf {
				if s != 0 {
					t.Fatalf("freq %v: sample %d = %v, expected silence", freq, i, s)
				}
			}
		}
	}
}

func TestEveryFrameWritten(t *testing.T) {
	osc := NewDefaultOscillator()
	buf := make([]float32, 256)
	for i := range buf {
		buf[i] = float32(math.NaN())
	}

	osc.Render(SampleRate(44100), buf)

	for i, s := range buf {
		if s != s {
			t.Fatalf("sample %d was not written", i)
		}
	}
}

func TestRenderEmptyBuffer(t *testing.T) {
	osc := NewDefaultOscillator()

	if got := osc.Render(SampleRate(44100), nil); got != Continue {
		t.Errorf("expected Continue, got %v", got)
	}
	if osc.State() != Running {
		t.Error("expected first call to derive increment even for an empty buffer")
	}
	if osc.Phase() != 0 {
		t.Errorf("expected phase unchanged, got %v", osc.Phase())
	}
}

func TestRenderPanicsOnInvalidSampleRate(t *testing.T) {
	for _, rate := range []float32{0, -44100, float32(math.NaN()), float32(math.Inf(1))} {
		func() {
			defer func() {
				r := recover()
				if r == nil {
					t.Fatalf("expected panic for sample rate %v", rate)
				}
				if _, ok := r.(*PreconditionError); !ok {
					t.Fatalf("expected *PreconditionError, got %T", r)
				}
			}()
			NewDefaultOscillator().Render(SampleRate(rate), make([]float32, 8))
		}()
	}
}

func TestNotifyOnPrepare(t *testing.T) {
	ch := make(chan Prepared, 1)
	osc := NewDefaultOscillator(WithNotify(ch))
	buf := make([]float32, 16)

	osc.Render(SampleRate(48000), buf)
	osc.Render(SampleRate(48000), buf)

	select {
	case p := <-ch:
		if p.SampleRate != 48000 {
			t.Errorf("expected sample rate 48000, got %v", p.SampleRate)
		}
		inc, _ := osc.Increment()
		if p.Increment != inc {
			t.Errorf("expected increment %v, got %v", inc, p.Increment)
		}
	default:
		t.Fatal("expected a Prepared notification")
	}

	select {
	case p := <-ch:
		t.Errorf("unexpected second notification: %+v", p)
	default:
	}
}

func TestNotifyNeverBlocks(t *testing.T) {
	ch := make(chan Prepared) // unbuffered and never read
	osc := NewDefaultOscillator(WithNotify(ch))

	osc.Render(SampleRate(44100), make([]float32, 8))

	if osc.State() != Running {
		t.Error("expected oscillator to run with a dropped notification")
	}
}

func TestRenderDoesNotAllocate(t *testing.T) {
	osc := NewDefaultOscillator()
	buf := make([]float32, 512)
	var stream Stream = SampleRate(44100)

	allocs := testing.AllocsPerRun(100, func() {
		osc.Render(stream, buf)
	})
	if allocs != 0 {
		t.Errorf("expected zero allocations per render, got %v", allocs)
	}
}

func TestStateString(t *testing.T) {
	if Uninitialized.String() != "uninitialized" {
		t.Errorf("unexpected string %q", Uninitialized.String())
	}
	if Running.String() != "running" {
		t.Errorf("unexpected string %q", Running.String())
	}
}

type countingStream struct {
	rate  float32
	calls int
}

func (s *countingStream) SampleRate() float32 {
	s.calls++
	return s.rate
}

// ABOUTME: Audio output driver tests
// ABOUTME: Verifies Output implementations and the shared callback runner
package output

import (
	"encoding/binary"
	"errors"
	"io"
	"math"
	"testing"

	"github.com/Resonate-Protocol/tonegen/pkg/audio"
	"github.com/Resonate-Protocol/tonegen/pkg/tone"
)

func TestDriversImplementOutput(t *testing.T) {
	var _ Output = (*Malgo)(nil)
	var _ Output = (*Oto)(nil)
	var _ Output = (*PortAudio)(nil)
	var _ Output = (*WAV)(nil)
}

func TestDriversImplementStream(t *testing.T) {
	var _ tone.Stream = (*Malgo)(nil)
	var _ tone.Stream = (*Oto)(nil)
	var _ tone.Stream = (*PortAudio)(nil)
	var _ tone.Stream = (*WAV)(nil)
}

func TestNewDrivers(t *testing.T) {
	if NewMalgo() == nil {
		t.Fatal("NewMalgo returned nil")
	}
	if NewOto() == nil {
		t.Fatal("NewOto returned nil")
	}
	if NewPortAudio() == nil {
		t.Fatal("NewPortAudio returned nil")
	}
}

func TestDoneBeforeOpen(t *testing.T) {
	outputs := map[string]Output{
		"malgo": NewMalgo(),
		"oto":   NewOto(),
		"wav":   NewWAV("unused.wav", 1),
	}

	for name, out := range outputs {
		select {
		case <-out.Done():
		default:
			t.Errorf("%s: expected Done to be closed before Open", name)
		}
	}
}

func TestStartBeforeOpen(t *testing.T) {
	outputs := map[string]Output{
		"malgo": NewMalgo(),
		"oto":   NewOto(),
		"wav":   NewWAV("unused.wav", 1),
	}

	for name, out := range outputs {
		if err := out.Start(); !errors.Is(err, ErrNotOpen) {
			t.Errorf("%s: expected ErrNotOpen, got %v", name, err)
		}
	}
}

func TestOpenRejectsInvalidConfig(t *testing.T) {
	cfg := audio.DefaultStreamConfig()
	cfg.Channels = 2

	outputs := map[string]Output{
		"malgo": NewMalgo(),
		"oto":   NewOto(),
		"wav":   NewWAV("unused.wav", 1),
	}

	for name, out := range outputs {
		err := out.Open(cfg, tone.NewDefaultOscillator())
		if !errors.Is(err, audio.ErrUnsupportedChannels) {
			t.Errorf("%s: expected ErrUnsupportedChannels, got %v", name, err)
		}
	}
}

func TestRunnerStopsOnStop(t *testing.T) {
	calls := 0
	cb := tone.CallbackFunc(func(stream tone.Stream, frames []float32) tone.Result {
		calls++
		for i := range frames {
			frames[i] = 1
		}
		if calls == 2 {
			return tone.Stop
		}
		return tone.Continue
	})

	run := newRunner(cb, tone.SampleRate(48000))
	frames := make([]float32, 16)

	run.fill(frames)
	run.fill(frames)
	if !run.done.fired() {
		t.Fatal("expected done after Stop")
	}

	run.fill(frames)
	if calls != 2 {
		t.Errorf("expected callback not to run after Stop, got %d calls", calls)
	}
	for i, s := range frames {
		if s != 0 {
			t.Fatalf("expected silence after Stop, sample %d = %v", i, s)
		}
	}

	select {
	case <-run.done.ch:
	default:
		t.Error("expected done channel to be closed")
	}
}

func TestRunnerContinues(t *testing.T) {
	run := newRunner(tone.NewDefaultOscillator(), tone.SampleRate(44100))
	frames := make([]float32, 128)

	for i := 0; i < 1000; i++ {
		run.fill(frames)
	}

	if run.done.fired() {
		t.Error("oscillator should never stop the stream")
	}
}

func TestDoneSignalFiresOnce(t *testing.T) {
	d := newDoneSignal()
	d.fire()
	d.fire() // must not panic on double close

	if !d.fired() {
		t.Error("expected fired")
	}
}

func TestCheckSampleRate(t *testing.T) {
	tests := []struct {
		rate    float32
		wantErr bool
	}{
		{44100, false},
		{8000, false},
		{0, true},
		{-48000, true},
	}

	for _, tt := range tests {
		err := checkSampleRate(tt.rate)
		if (err != nil) != tt.wantErr {
			t.Errorf("rate %v: unexpected error state %v", tt.rate, err)
		}
		if err != nil && !errors.Is(err, audio.ErrInvalidSampleRate) {
			t.Errorf("rate %v: expected ErrInvalidSampleRate, got %v", tt.rate, err)
		}
	}
}

func TestShareMode(t *testing.T) {
	if shareMode(audio.SharingExclusive) == shareMode(audio.SharingShared) {
		t.Error("exclusive and shared should map to different malgo modes")
	}
	if performanceProfile(audio.PerformanceLowLatency) == performanceProfile(audio.PerformancePowerSaving) {
		t.Error("low-latency and power-saving should map to different malgo profiles")
	}
}

func TestMalgoShortBufferIsSilenced(t *testing.T) {
	calls := 0
	cb := tone.CallbackFunc(func(stream tone.Stream, frames []float32) tone.Result {
		calls++
		return tone.Continue
	})

	m := &Malgo{sampleRate: 48000, channels: 1}
	m.run = newRunner(cb, m)

	// room for 3 frames when 4 were requested
	buf := []byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12}
	m.dataCallback(buf, 4)

	if calls != 0 {
		t.Errorf("expected no render into a short buffer, got %d calls", calls)
	}
	for i, b := range buf {
		if b != 0 {
			t.Fatalf("expected byte %d to be zeroed, got %d", i, b)
		}
	}
}

func TestMalgoDataCallbackRendersInPlace(t *testing.T) {
	m := &Malgo{sampleRate: 44100, channels: 1}
	m.run = newRunner(tone.NewDefaultOscillator(), m)

	buf := make([]byte, 64*4)
	m.dataCallback(buf, 64)

	want := make([]float32, 64)
	tone.NewDefaultOscillator().Render(tone.SampleRate(44100), want)

	for i := range want {
		got := math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
		if got != want[i] {
			t.Fatalf("frame %d: expected %v, got %v", i, want[i], got)
		}
	}
}

func TestOtoReaderKeepsItsOwnBuffers(t *testing.T) {
	o := &Oto{sampleRate: 44100}
	run := newRunner(tone.NewDefaultOscillator(), o)
	r := &otoReader{run: run, scratch: make([]float32, 32)}

	// a later Open replaces the driver's fields; the reader must not follow
	o.run = newRunner(tone.CallbackFunc(func(tone.Stream, []float32) tone.Result {
		t.Fatal("reader used the driver's current runner")
		return tone.Stop
	}), o)
	o.scratch = nil

	p := make([]byte, 16*4)
	n, err := r.Read(p)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if n != len(p) {
		t.Errorf("expected %d bytes, got %d", len(p), n)
	}

	want := make([]float32, 16)
	tone.NewDefaultOscillator().Render(tone.SampleRate(44100), want)
	for i := range want {
		if got := math.Float32frombits(binary.LittleEndian.Uint32(p[i*4:])); got != want[i] {
			t.Fatalf("frame %d: expected %v, got %v", i, want[i], got)
		}
	}
}

func TestOtoReaderEOFAfterStop(t *testing.T) {
	cb := tone.CallbackFunc(func(tone.Stream, []float32) tone.Result { return tone.Stop })
	r := &otoReader{run: newRunner(cb, tone.SampleRate(44100)), scratch: make([]float32, 8)}

	p := make([]byte, 8*4)
	if _, err := r.Read(p); err != nil {
		t.Fatalf("first Read: %v", err)
	}
	if _, err := r.Read(p); !errors.Is(err, io.EOF) {
		t.Errorf("expected io.EOF after Stop, got %v", err)
	}
}

// ABOUTME: Entry point for the tone generator
// ABOUTME: Parses CLI flags, opens the audio stream and runs the status TUI
package main

import (
	"flag"
	"io"
	"log"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/Resonate-Protocol/tonegen/internal/app"
	"github.com/Resonate-Protocol/tonegen/internal/config"
	"github.com/Resonate-Protocol/tonegen/internal/ui"
	"github.com/Resonate-Protocol/tonegen/internal/version"
	"github.com/Resonate-Protocol/tonegen/pkg/tone"
	tea "github.com/charmbracelet/bubbletea"
)

var (
	configPath   = flag.String("config", "", "YAML config file")
	backend      = flag.String("backend", config.BackendMalgo, "Audio backend: malgo, oto, portaudio, wav")
	frequency    = flag.Float64("frequency", float64(tone.DefaultFrequency), "Tone frequency in Hz")
	gain         = flag.Float64("gain", float64(tone.DefaultGain), "Output gain (0-1)")
	sampleRate   = flag.Int("sample-rate", 0, "Requested sample rate (0 = device default)")
	bufferFrames = flag.Int("buffer-frames", 0, "Frames per callback (0 = from performance mode)")
	performance  = flag.String("performance", "low-latency", "Performance mode: low-latency, power-saving, none")
	sharing      = flag.String("sharing", "shared", "Sharing mode: shared, exclusive")
	duration     = flag.Duration("duration", 0, "Play time (0 = until interrupted; required for wav)")
	outPath      = flag.String("out", "tone.wav", "Output file for the wav backend")
	logFile      = flag.String("log-file", "tonegen.log", "Log file path")
	noTUI        = flag.Bool("no-tui", false, "Disable TUI, use streaming logs instead")
)

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Config error: %v", err)
	}
	applyFlags(&cfg)

	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	useTUI := !cfg.NoTUI

	// Set up logging
	f, err := os.OpenFile(cfg.LogFile, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		log.Fatalf("error opening log file: %v", err)
	}
	defer func() { _ = f.Close() }()

	if useTUI {
		// TUI mode: log only to file
		log.SetOutput(f)
	} else {
		// Streaming logs mode: log to both stdout and file
		log.SetOutput(io.MultiWriter(os.Stdout, f))
	}

	log.Printf("Starting %s", version.String())

	out, err := app.NewOutput(cfg)
	if err != nil {
		log.Fatalf("Failed to create output: %v", err)
	}

	session, err := app.New(cfg, out)
	if err != nil {
		log.Fatalf("Failed to create session: %v", err)
	}

	// Stream-open failure is fatal: nothing has been played yet
	if err := session.Start(); err != nil {
		log.Fatalf("Failed to start audio: %v", err)
	}

	var tuiProg *tea.Program
	var ctrl *ui.Control
	tuiDone := make(chan struct{})

	if useTUI {
		ctrl = ui.NewControl()
		tuiProg, err = ui.Run(ctrl)
		if err != nil {
			log.Fatalf("Failed to start TUI: %v", err)
		}
		go func() {
			defer close(tuiDone)
			if _, err := tuiProg.Run(); err != nil {
				log.Printf("TUI error: %v", err)
			}
		}()

		stream, _ := cfg.StreamConfig()
		tuiProg.Send(ui.StatusMsg{
			SessionID:   session.ID(),
			Backend:     cfg.Backend,
			Frequency:   cfg.Frequency,
			Gain:        &cfg.Gain,
			Performance: stream.Performance.String(),
			Sharing:     stream.Sharing.String(),
		})
		go statsUpdateLoop(session, tuiProg)
	}

	var timeout <-chan time.Time
	if cfg.Duration > 0 && cfg.Backend != config.BackendWAV {
		timeout = time.After(cfg.Duration)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	var quit <-chan ui.QuitMsg
	if ctrl != nil {
		quit = ctrl.Quit
	}

	select {
	case <-quit:
		log.Printf("Received quit signal from TUI")
	case <-sigChan:
		log.Printf("Shutdown signal received")
	case <-session.Done():
		log.Printf("Stream finished")
	case <-timeout:
		log.Printf("Duration elapsed")
	}

	if err := session.Close(); err != nil {
		log.Printf("Error closing session: %v", err)
	}

	if tuiProg != nil {
		tuiProg.Quit()
		<-tuiDone
	}

	log.Printf("Tone generator stopped")
}

// applyFlags lets explicitly set flags override the config file
func applyFlags(cfg *config.Config) {
	flag.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "backend":
			cfg.Backend = *backend
		case "frequency":
			cfg.Frequency = float32(*frequency)
		case "gain":
			cfg.Gain = float32(*gain)
		case "sample-rate":
			cfg.SampleRate = *sampleRate
		case "buffer-frames":
			cfg.BufferFrames = *bufferFrames
		case "performance":
			cfg.Performance = *performance
		case "sharing":
			cfg.Sharing = *sharing
		case "duration":
			cfg.Duration = *duration
		case "out":
			cfg.Output = *outPath
		case "log-file":
			cfg.LogFile = *logFile
		case "no-tui":
			cfg.NoTUI = *noTUI
		}
	})
}

// statsUpdateLoop periodically updates TUI with stream statistics
func statsUpdateLoop(session *app.Session, prog *tea.Program) {
	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()

	// Use a slower ticker for expensive runtime stats to avoid GC pauses
	runtimeStatsTicker := time.NewTicker(2 * time.Second)
	defer runtimeStatsTicker.Stop()

	var lastGoroutines int
	var lastMemAlloc uint64

	for {
		select {
		case <-runtimeStatsTicker.C:
			var m runtime.MemStats
			runtime.ReadMemStats(&m)
			lastGoroutines = runtime.NumGoroutine()
			lastMemAlloc = m.Alloc

		case <-ticker.C:
			stats := session.Stats()
			prog.Send(ui.StatusMsg{
				SampleRate: stats.SampleRate,
				Increment:  stats.Increment,
				State:      stats.State.String(),
				Callbacks:  stats.Callbacks,
				Frames:     stats.Frames,
				Goroutines: lastGoroutines,
				MemAlloc:   lastMemAlloc,
			})

		case <-session.Done():
			prog.Send(ui.StatusMsg{Stopped: true})
			return
		}
	}
}

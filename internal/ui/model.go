// ABOUTME: Bubbletea model for the tone generator TUI
// ABOUTME: Defines display state and update logic
package ui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

// Model represents the TUI state
type Model struct {
	// Tone
	frequency float32
	gain      float32

	// Stream
	backend     string
	sampleRate  float32
	increment   float32
	performance string
	sharing     string
	state       string

	// Stats
	callbacks int64
	frames    int64
	stopped   bool

	// Debug
	sessionID  string
	goroutines int
	memAlloc   uint64
	showDebug  bool

	control *Control

	// Dimensions
	width  int
	height int
}

// StatusMsg updates TUI state; zero fields are left unchanged
type StatusMsg struct {
	SessionID   string
	Backend     string
	Frequency   float32
	Gain        *float32
	SampleRate  float32
	Increment   float32
	Performance string
	Sharing     string
	State       string
	Callbacks   int64
	Frames      int64
	Stopped     bool
	Goroutines  int
	MemAlloc    uint64
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case StatusMsg:
		m.applyStatus(msg)
	}

	return m, nil
}

// View renders the TUI
func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString(m.renderTone())
	b.WriteString(m.renderStats())
	if m.showDebug {
		b.WriteString(m.renderDebug())
	}
	b.WriteString(m.renderHelp())
	return b.String()
}

// renderHeader renders backend and stream state
func (m Model) renderHeader() string {
	icon := "…"
	switch {
	case m.stopped:
		icon = "■"
	case m.state == "running":
		icon = "▶"
	}

	status := fmt.Sprintf("%s %s", icon, m.state)
	if m.backend != "" {
		status = fmt.Sprintf("%s (%s)", status, m.backend)
	}

	return fmt.Sprintf(`┌─ Tone Generator ─────────────────────────────────────┐
│ Stream: %-44s │
├──────────────────────────────────────────────────────┤
`, truncate(status, 44))
}

// renderTone renders the tone and negotiated stream parameters
func (m Model) renderTone() string {
	s := fmt.Sprintf("│ Tone:   %-44s │\n", fmt.Sprintf("%.2f Hz", m.frequency))
	s += fmt.Sprintf("│ Gain:   [%s] %-31s │\n", renderBar(int(m.gain*100), 100, 10), fmt.Sprintf("%.2f", m.gain))

	if m.sampleRate == 0 {
		s += "│ Rate:   (waiting for first callback)                 │\n"
	} else {
		s += fmt.Sprintf("│ Rate:   %-44s │\n", fmt.Sprintf("%.0f Hz mono f32", m.sampleRate))
		s += fmt.Sprintf("│ Delta:  %-44s │\n", fmt.Sprintf("%.6f rad/sample", m.increment))
	}
	if m.performance != "" {
		s += fmt.Sprintf("│ Mode:   %-44s │\n", m.performance+", "+m.sharing)
	}
	return s
}

// renderStats renders callback statistics
func (m Model) renderStats() string {
	seconds := 0.0
	if m.sampleRate > 0 {
		seconds = float64(m.frames) / float64(m.sampleRate)
	}
	return fmt.Sprintf(`├──────────────────────────────────────────────────────┤
│ Stats:  %-44s │
│         %-44s │
`, fmt.Sprintf("Callbacks: %d  Frames: %d", m.callbacks, m.frames),
		fmt.Sprintf("Played: %.1fs", seconds))
}

// renderDebug renders debug information
func (m Model) renderDebug() string {
	return fmt.Sprintf(`│ DEBUG:                                               │
│   Session: %-41s │
│   Goroutines: %-38d │
│   Heap: %-44s │
`, truncate(m.sessionID, 41), m.goroutines, fmt.Sprintf("%.1f MB", float64(m.memAlloc)/1024/1024))
}

// renderHelp renders keyboard shortcuts
func (m Model) renderHelp() string {
	return `│ d:Debug  q:Quit                                      │
└──────────────────────────────────────────────────────┘
`
}

// handleKey handles keyboard input
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		if m.control != nil {
			select {
			case m.control.Quit <- QuitMsg{}:
			default:
			}
		}
		return m, tea.Quit
	case "d":
		m.showDebug = !m.showDebug
	}

	return m, nil
}

// applyStatus updates model from status message
func (m *Model) applyStatus(msg StatusMsg) {
	if msg.SessionID != "" {
		m.sessionID = msg.SessionID
	}
	if msg.Backend != "" {
		m.backend = msg.Backend
	}
	if msg.Frequency != 0 {
		m.frequency = msg.Frequency
	}
	if msg.Gain != nil {
		m.gain = *msg.Gain
	}
	if msg.SampleRate != 0 {
		m.sampleRate = msg.SampleRate
		m.increment = msg.Increment
	}
	if msg.Performance != "" {
		m.performance = msg.Performance
		m.sharing = msg.Sharing
	}
	if msg.State != "" {
		m.state = msg.State
	}
	if msg.Callbacks != 0 {
		m.callbacks = msg.Callbacks
		m.frames = msg.Frames
	}
	if msg.Stopped {
		m.stopped = true
	}
	if msg.Goroutines != 0 {
		m.goroutines = msg.Goroutines
		m.memAlloc = msg.MemAlloc
	}
}

// Utility functions
func renderBar(value, max, width int) string {
	if value < 0 {
		value = 0
	}
	if value > max {
		value = max
	}
	filled := (value * width) / max
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

func truncate(s string, length int) string {
	if len(s) <= length {
		return s
	}
	return s[:length-3] + "..."
}

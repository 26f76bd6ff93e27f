// ABOUTME: Bubbletea model for the voice client TUI
// ABOUTME: Talk toggle, volume control, and connection/playback status
package ui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205")).
			MarginBottom(1)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("86"))

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("250"))

	liveStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("196"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("208"))

	helpStyle = lipgloss.NewStyle().Faint(true)
)

const volumeStep = 5

// Model represents the TUI state
type Model struct {
	// Connection
	connected  bool
	serverName string
	connID     string
	lastError  string

	// Capture
	talk      bool // desired state, capture may still be suspended
	capturing bool
	micError  string
	codec     string

	// Playback
	playbackState string
	volume        int
	muted         bool

	// Stats
	sent           int64
	dropped        int64
	received       int64
	played         int64
	decodeFailures int64
	queued         int

	// Debug
	showDebug bool

	// Dimensions
	width  int
	height int

	controls *Controls
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
	b.WriteString(titleStyle.Render("Voice Relay"))
	b.WriteString("\n\n")
	b.WriteString(m.renderConnection())
	b.WriteString(m.renderCapture())
	b.WriteString(m.renderPlayback())
	if m.showDebug {
		b.WriteString(m.renderDebug())
	}
	b.WriteString("\n")
	b.WriteString(helpStyle.Render("space:Talk  ↑/↓:Volume  m:Mute  d:Debug  q:Quit"))
	return b.String()
}

func (m Model) renderConnection() string {
	var b strings.Builder

	b.WriteString(headerStyle.Render("Relay: "))
	if m.connected {
		b.WriteString(valueStyle.Render(fmt.Sprintf("Connected to %s", m.serverName)))
	} else {
		b.WriteString(errorStyle.Render("Disconnected"))
	}
	b.WriteString("\n")

	if !m.connected && m.lastError != "" {
		b.WriteString(errorStyle.Render("  " + truncate(m.lastError, 60)))
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) renderCapture() string {
	var b strings.Builder

	b.WriteString(headerStyle.Render("Mic:   "))
	if m.capturing {
		b.WriteString(liveStyle.Render("● LIVE"))
		b.WriteString(valueStyle.Render(fmt.Sprintf(" (%s)", m.codec)))
	} else if m.talk {
		b.WriteString(valueStyle.Render("Armed (waiting for relay)"))
	} else {
		b.WriteString(valueStyle.Render("Off"))
	}
	b.WriteString("\n")

	if m.micError != "" {
		b.WriteString(errorStyle.Render("  " + truncate(m.micError, 60)))
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) renderPlayback() string {
	muteIcon := ""
	if m.muted {
		muteIcon = " (muted)"
	}

	var b strings.Builder
	b.WriteString(headerStyle.Render("Play:  "))
	b.WriteString(valueStyle.Render(fmt.Sprintf("%s, %d queued", m.playbackState, m.queued)))
	b.WriteString("\n")
	b.WriteString(headerStyle.Render("Volume: "))
	b.WriteString(valueStyle.Render(fmt.Sprintf("[%s] %d%%%s", renderBar(m.volume, 100, 10), m.volume, muteIcon)))
	b.WriteString("\n\n")
	b.WriteString(valueStyle.Render(fmt.Sprintf("TX: %d  Dropped: %d  RX: %d  Played: %d  Skipped: %d",
		m.sent, m.dropped, m.received, m.played, m.decodeFailures)))
	b.WriteString("\n")
	return b.String()
}

func (m Model) renderDebug() string {
	return valueStyle.Render(fmt.Sprintf("\nDEBUG: conn_id=%s", m.connID)) + "\n"
}

// handleKey handles keyboard input
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.controls.quit()
		return m, tea.Quit
	case " ", "t":
		m.talk = !m.talk
		m.controls.setTalk(m.talk)
	case "up":
		m.volume = min(m.volume+volumeStep, 100)
		m.controls.setVolume(m.volume, m.muted)
	case "down":
		m.volume = max(m.volume-volumeStep, 0)
		m.controls.setVolume(m.volume, m.muted)
	case "m":
		m.muted = !m.muted
		m.controls.setVolume(m.volume, m.muted)
	case "d":
		m.showDebug = !m.showDebug
	}

	return m, nil
}

// applyStatus updates model from status message
func (m *Model) applyStatus(msg StatusMsg) {
	if msg.Connected != nil {
		m.connected = *msg.Connected
		if m.connected {
			m.lastError = ""
		}
	}
	if msg.ServerName != "" {
		m.serverName = msg.ServerName
	}
	if msg.ConnectionID != "" {
		m.connID = msg.ConnectionID
	}
	if msg.Error != "" {
		m.lastError = msg.Error
	}
	if msg.Talk != nil {
		m.talk = *msg.Talk
	}
	if msg.Capturing != nil {
		m.capturing = *msg.Capturing
		if m.capturing {
			m.micError = ""
		}
	}
	if msg.MicError != "" {
		m.micError = msg.MicError
	}
	if msg.Codec != "" {
		m.codec = msg.Codec
	}
	if msg.PlaybackState != "" {
		m.playbackState = msg.PlaybackState
	}
	if msg.Stats != nil {
		m.sent = msg.Stats.Sent
		m.dropped = msg.Stats.Dropped
		m.received = msg.Stats.Received
		m.played = msg.Stats.Played
		m.decodeFailures = msg.Stats.DecodeFailures
		m.queued = msg.Stats.Queued
	}
}

// StatusMsg updates TUI state. Zero fields leave the model untouched.
type StatusMsg struct {
	Connected     *bool
	ServerName    string
	ConnectionID  string
	Error         string
	Talk          *bool // the app's talk switch after it acted on a request
	Capturing     *bool
	MicError      string
	Codec         string
	PlaybackState string
	Stats         *Stats
}

func (s StatusMsg) statsOnly() bool {
	return s.Connected == nil && s.ServerName == "" && s.ConnectionID == "" && s.Error == "" &&
		s.Talk == nil && s.Capturing == nil && s.MicError == "" && s.Codec == ""
}

// Stats are the counters shown at the bottom of the view
type Stats struct {
	Sent           int64
	Dropped        int64
	Received       int64
	Played         int64
	DecodeFailures int64
	Queued         int
}

// Utility functions
func renderBar(value, max, width int) string {
	filled := (value * width) / max
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

func truncate(s string, length int) string {
	if len(s) <= length {
		return s
	}
	return s[:length-3] + "..."
}

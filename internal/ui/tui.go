// ABOUTME: TUI initialization and control
// ABOUTME: Wraps the bubbletea program and the channels back to the app
package ui

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"
)

// VolumeMsg is a volume or mute change made in the UI
type VolumeMsg struct {
	Volume int
	Muted  bool
}

// Controls carries user actions from the UI to the app. Talk and Volume
// carry the desired state; when the app falls behind, an unread value is
// replaced by the newer one.
type Controls struct {
	Talk   chan bool
	Volume chan VolumeMsg
	Quit   chan struct{}
}

// NewControls creates a new control handler
func NewControls() *Controls {
	return &Controls{
		Talk:   make(chan bool, 1),
		Volume: make(chan VolumeMsg, 1),
		Quit:   make(chan struct{}, 1),
	}
}

// The senders never block the UI. A nil Controls drops everything.

func (c *Controls) setTalk(on bool) {
	if c == nil {
		return
	}
	replace(c.Talk, on)
}

func (c *Controls) setVolume(volume int, muted bool) {
	if c == nil {
		return
	}
	replace(c.Volume, VolumeMsg{Volume: volume, Muted: muted})
}

func (c *Controls) quit() {
	if c == nil {
		return
	}
	select {
	case c.Quit <- struct{}{}:
	default:
	}
}

// replace sends v on a 1-slot channel, discarding a stale unread value.
// The UI goroutine is the only sender.
func replace[T any](ch chan T, v T) {
	for {
		select {
		case ch <- v:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}

// NewModel creates a new TUI model
func NewModel(controls *Controls) Model {
	return Model{
		volume:        100,
		playbackState: "idle",
		controls:      controls,
	}
}

// TUI owns the running bubbletea program
type TUI struct {
	program *tea.Program
	updates chan StatusMsg
	done    chan struct{}
	once    sync.Once

	// latest stats tick not yet handed to the program
	mu    sync.Mutex
	stats *StatusMsg
	kick  chan struct{}
}

// NewTUI creates the program; call Start to run it
func NewTUI(controls *Controls) *TUI {
	return &TUI{
		program: tea.NewProgram(NewModel(controls), tea.WithAltScreen()),
		updates: make(chan StatusMsg, 32),
		done:    make(chan struct{}),
		kick:    make(chan struct{}, 1),
	}
}

// Start runs the TUI until the user quits or Stop is called
func (t *TUI) Start() error {
	go t.forward()

	_, err := t.program.Run()
	t.once.Do(func() { close(t.done) })
	return err
}

func (t *TUI) forward() {
	for {
		select {
		case status := <-t.updates:
			t.program.Send(status)
		case <-t.kick:
			t.mu.Lock()
			status := t.stats
			t.stats = nil
			t.mu.Unlock()
			if status != nil {
				t.program.Send(*status)
			}
		case <-t.done:
			return
		}
	}
}

// Update sends a status update to the TUI. Stats-only updates are
// coalesced so the newest one wins; every other update is delivered.
func (t *TUI) Update(status StatusMsg) {
	if status.statsOnly() {
		t.mu.Lock()
		t.stats = &status
		t.mu.Unlock()
		select {
		case t.kick <- struct{}{}:
		default:
		}
		return
	}

	select {
	case t.updates <- status:
	case <-t.done:
	}
}

// Stop stops the TUI
func (t *TUI) Stop() {
	t.program.Quit()
	t.once.Do(func() { close(t.done) })
}

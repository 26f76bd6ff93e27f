// ABOUTME: Tests for TUI model and state management
// ABOUTME: Tests status updates, key handling, and control messages
package ui

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

func key(s string) tea.KeyMsg {
	switch s {
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case " ":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(m Model, s string) (Model, tea.Cmd) {
	next, cmd := m.Update(key(s))
	return next.(Model), cmd
}

func TestNewModel(t *testing.T) {
	model := NewModel(nil) // Controls are optional for testing

	if model.connected {
		t.Error("expected connected to be false initially")
	}
	if model.capturing {
		t.Error("expected capturing to be false initially")
	}
	if model.volume != 100 {
		t.Errorf("expected default volume 100, got %d", model.volume)
	}
	if model.playbackState != "idle" {
		t.Errorf("expected idle playback, got %s", model.playbackState)
	}
}

func TestStatusMsgConnected(t *testing.T) {
	model := NewModel(nil)
	model.applyStatus(StatusMsg{Error: "dial failed"})

	connected := true
	model.applyStatus(StatusMsg{
		Connected:    &connected,
		ServerName:   "relay.local:3000",
		ConnectionID: "abc",
	})

	if !model.connected {
		t.Error("expected connected to be true after status update")
	}
	if model.serverName != "relay.local:3000" {
		t.Errorf("expected serverName 'relay.local:3000', got '%s'", model.serverName)
	}
	if model.connID != "abc" {
		t.Errorf("expected connID abc, got %s", model.connID)
	}
	if model.lastError != "" {
		t.Errorf("expected error cleared on connect, got %q", model.lastError)
	}
}

func TestStatusMsgDisconnected(t *testing.T) {
	model := NewModel(nil)

	connected := true
	model.applyStatus(StatusMsg{Connected: &connected})

	disconnected := false
	model.applyStatus(StatusMsg{Connected: &disconnected, Error: "connection reset"})

	if model.connected {
		t.Error("expected connected to be false after disconnect")
	}
	if model.lastError != "connection reset" {
		t.Errorf("expected last error to be kept, got %q", model.lastError)
	}
}

func TestStatusMsgCapture(t *testing.T) {
	model := NewModel(nil)
	model.applyStatus(StatusMsg{MicError: "microphone unavailable"})

	capturing := true
	model.applyStatus(StatusMsg{Capturing: &capturing, Codec: "opus"})

	if !model.capturing || model.codec != "opus" {
		t.Errorf("expected capturing with opus, got %v %s", model.capturing, model.codec)
	}
	if model.micError != "" {
		t.Errorf("expected mic error cleared, got %q", model.micError)
	}
}

func TestStatusMsgStats(t *testing.T) {
	model := NewModel(nil)
	model.applyStatus(StatusMsg{
		PlaybackState: "playing",
		Stats:         &Stats{Sent: 4, Received: 10, Played: 8, DecodeFailures: 1, Queued: 1},
	})

	if model.playbackState != "playing" {
		t.Errorf("expected playing, got %s", model.playbackState)
	}
	if model.received != 10 || model.played != 8 || model.decodeFailures != 1 || model.queued != 1 {
		t.Errorf("unexpected stats in model: %+v", model)
	}
	if model.sent != 4 {
		t.Errorf("expected sent 4, got %d", model.sent)
	}
}

func TestTalkKey(t *testing.T) {
	controls := NewControls()
	model := NewModel(controls)

	model, _ = press(model, " ")
	if !model.talk {
		t.Fatal("expected talk on after space")
	}

	// the app has not read yet; the newest request replaces the old one
	model, _ = press(model, "t")
	model, _ = press(model, " ")

	select {
	case on := <-controls.Talk:
		if !on {
			t.Error("expected the latest request (on) to be delivered")
		}
	default:
		t.Fatal("expected a talk request")
	}
	if len(controls.Talk) != 0 {
		t.Error("stale talk requests should have been replaced")
	}
}

func TestStatusMsgTalk(t *testing.T) {
	model := NewModel(NewControls())
	model, _ = press(model, " ")

	// the app reset the switch after a microphone failure
	off := false
	model.applyStatus(StatusMsg{Talk: &off, MicError: "microphone unavailable"})
	if model.talk {
		t.Fatal("expected talk to follow the app")
	}

	model, _ = press(model, " ")
	if !model.talk {
		t.Error("next press should turn talk back on")
	}
}

func TestVolumeKeys(t *testing.T) {
	controls := NewControls()
	model := NewModel(controls)

	model, _ = press(model, "up")
	if model.volume != 100 {
		t.Errorf("volume should clamp at 100, got %d", model.volume)
	}

	model, _ = press(model, "down")
	model, _ = press(model, "down")
	if model.volume != 90 {
		t.Errorf("expected volume 90, got %d", model.volume)
	}

	model, _ = press(model, "m")
	if !model.muted {
		t.Error("expected muted after m")
	}

	last := <-controls.Volume
	if len(controls.Volume) != 0 {
		t.Error("expected volume changes to coalesce")
	}
	if last.Volume != 90 || !last.Muted {
		t.Errorf("unexpected last volume message: %+v", last)
	}
}

func TestQuitKey(t *testing.T) {
	controls := NewControls()
	model := NewModel(controls)

	_, cmd := press(model, "q")
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	select {
	case <-controls.Quit:
	default:
		t.Error("expected quit to be signalled to the app")
	}
}

func TestView(t *testing.T) {
	model := NewModel(nil)
	if model.View() != "Loading..." {
		t.Error("expected loading view before the first window size")
	}

	next, _ := model.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	model = next.(Model)

	capturing := true
	model.applyStatus(StatusMsg{Capturing: &capturing, Codec: "opus"})

	view := model.View()
	for _, want := range []string{"Disconnected", "LIVE", "opus", "Volume"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestViewArmed(t *testing.T) {
	model := NewModel(nil)
	next, _ := model.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	model = next.(Model)

	on := true
	model.applyStatus(StatusMsg{Talk: &on})
	if !strings.Contains(model.View(), "Armed") {
		t.Error("expected armed mic while talk is on but not capturing")
	}
}

func TestUpdateCoalescesStats(t *testing.T) {
	tui := NewTUI(nil)

	connected := true
	tui.Update(StatusMsg{Connected: &connected})
	for i := 0; i < 100; i++ {
		tui.Update(StatusMsg{PlaybackState: "playing", Stats: &Stats{Received: int64(i)}})
	}
	capturing := true
	tui.Update(StatusMsg{Capturing: &capturing})

	if n := len(tui.updates); n != 2 {
		t.Fatalf("expected both state changes queued, got %d", n)
	}
	if tui.stats == nil || tui.stats.Stats.Received != 99 {
		t.Errorf("expected only the newest stats kept, got %+v", tui.stats)
	}
}

func TestUpdateAfterExit(t *testing.T) {
	tui := NewTUI(nil)
	for i := 0; i < cap(tui.updates); i++ {
		tui.Update(StatusMsg{Error: "x"})
	}
	tui.once.Do(func() { close(tui.done) })

	done := make(chan struct{})
	go func() {
		tui.Update(StatusMsg{Error: "late"})
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Update blocked after the program exited")
	}
}

func TestRenderBar(t *testing.T) {
	if got := renderBar(50, 100, 10); got != "█████░░░░░" {
		t.Errorf("unexpected bar %q", got)
	}
}

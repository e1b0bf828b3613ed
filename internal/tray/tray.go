// Package tray provides a system tray menu for controlling the recognition session.
package tray

import (
	"sync"

	"github.com/getlantern/systray"
)

// Controller is the session the tray controls.
type Controller interface {
	IsActive() bool
	Muted() bool
	ToggleMute() bool
}

// Tray represents the system tray application.
type Tray struct {
	controller Controller
	onToggle   func(active bool)
	onOpen     func()
	onQuit     func()
	mu         sync.RWMutex

	// Menu items stored for later updates
	menuToggle   *systray.MenuItem
	menuMute     *systray.MenuItem
	menuLastWord *systray.MenuItem
	lastWord     string
}

// New creates a new Tray for controller.
func New(controller Controller) *Tray {
	return &Tray{controller: controller}
}

// OnToggle sets the callback invoked with the requested state when the
// recognition menu item is clicked.
func (t *Tray) OnToggle(fn func(active bool)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onToggle = fn
}

// OnOpen sets the callback invoked when the open browser item is clicked.
func (t *Tray) OnOpen(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onOpen = fn
}

// OnQuit sets the callback function to be called when the quit menu item is clicked.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run starts the system tray application.
// This function blocks until systray.Quit() is called.
func (t *Tray) Run() {
	systray.Run(t.onReady, func() {})
}

// Quit stops the tray event loop.
func (t *Tray) Quit() {
	systray.Quit()
}

func (t *Tray) onReady() {
	systray.SetTitle("Mudra")
	systray.SetTooltip("Mudra gesture translator")

	t.mu.Lock()
	t.menuToggle = systray.AddMenuItem(toggleTitle(t.controller.IsActive()), "Start or stop gesture recognition")
	t.menuMute = systray.AddMenuItem(muteTitle(t.controller.Muted()), "Mute spoken words")
	systray.AddSeparator()

	t.menuLastWord = systray.AddMenuItem(lastWordTitle(t.lastWord), "Last recognized word")
	t.menuLastWord.Disable()
	t.mu.Unlock()
	systray.AddSeparator()

	menuOpen := systray.AddMenuItem("Open in Browser...", "Open the web interface")
	systray.AddSeparator()

	menuQuit := systray.AddMenuItem("Quit", "Quit Mudra")

	go func() {
		for {
			select {
			case <-t.menuToggle.ClickedCh:
				t.handleToggle()
			case <-t.menuMute.ClickedCh:
				t.handleMute()
			case <-menuOpen.ClickedCh:
				t.handleOpen()
			case <-menuQuit.ClickedCh:
				t.handleQuit()
				return
			}
		}
	}()
}

// handleToggle requests the opposite of the current session state.
func (t *Tray) handleToggle() {
	t.mu.RLock()
	callback := t.onToggle
	t.mu.RUnlock()

	want := !t.controller.IsActive()
	if callback != nil {
		callback(want)
	}
	t.Refresh()
}

func (t *Tray) handleMute() {
	t.controller.ToggleMute()
	t.Refresh()
}

func (t *Tray) handleOpen() {
	t.mu.RLock()
	callback := t.onOpen
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
}

func (t *Tray) handleQuit() {
	t.mu.RLock()
	callback := t.onQuit
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}

	systray.Quit()
}

// Refresh updates menu titles from the controller state.
func (t *Tray) Refresh() {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.menuToggle != nil {
		t.menuToggle.SetTitle(toggleTitle(t.controller.IsActive()))
	}
	if t.menuMute != nil {
		t.menuMute.SetTitle(muteTitle(t.controller.Muted()))
	}
}

// SetLastWord updates the last word display in the menu.
func (t *Tray) SetLastWord(word string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.lastWord = word
	if t.menuLastWord != nil {
		t.menuLastWord.SetTitle(lastWordTitle(word))
	}
}

// LastWord returns the word shown in the menu.
func (t *Tray) LastWord() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.lastWord
}

func toggleTitle(active bool) string {
	if active {
		return "● Recognizing (click to stop)"
	}
	return "○ Stopped (click to start)"
}

func muteTitle(muted bool) string {
	if muted {
		return "Unmute"
	}
	return "Mute"
}

func lastWordTitle(word string) string {
	if word == "" {
		return "Last: none"
	}
	return "Last: " + word
}

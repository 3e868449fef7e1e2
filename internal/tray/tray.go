// Package tray provides the system tray menu for tinsel.
package tray

import (
	"sync"

	"github.com/getlantern/systray"
)

// Tray is the system tray menu: a detection toggle, the current gesture,
// a link to the viewer and Quit.
type Tray struct {
	onToggle func(enabled bool)
	onOpen   func()
	onQuit   func()
	enabled  bool
	gesture  string
	mu       sync.RWMutex

	menuToggle  *systray.MenuItem
	menuGesture *systray.MenuItem
}

// New creates a Tray with detection enabled.
func New() *Tray {
	return &Tray{
		enabled: true,
	}
}

// OnToggle sets the callback for the detection toggle.
func (t *Tray) OnToggle(fn func(enabled bool)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onToggle = fn
}

// OnOpen sets the callback for "Open Viewer".
func (t *Tray) OnOpen(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onOpen = fn
}

// OnQuit sets the callback for Quit.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run starts the tray. It blocks until Quit is clicked or Stop is called,
// and must be called from the main goroutine.
func (t *Tray) Run() {
	systray.Run(t.onReady, func() {})
}

// Stop tears down the tray, making Run return.
func (t *Tray) Stop() {
	systray.Quit()
}

func (t *Tray) onReady() {
	systray.SetTitle("Tinsel")
	systray.SetTooltip("Tinsel gesture photo cloud")

	t.mu.Lock()
	t.menuToggle = systray.AddMenuItem(toggleTitle(t.enabled), "Toggle hand tracking")
	systray.AddSeparator()
	t.menuGesture = systray.AddMenuItem(gestureTitle(t.gesture), "Current gesture")
	t.menuGesture.Disable()
	t.mu.Unlock()
	systray.AddSeparator()

	menuOpen := systray.AddMenuItem("Open Viewer...", "Open the photo cloud in a browser")
	systray.AddSeparator()
	menuQuit := systray.AddMenuItem("Quit", "Quit Tinsel")

	go func() {
		for {
			select {
			case <-t.menuToggle.ClickedCh:
				t.handleToggle()
			case <-menuOpen.ClickedCh:
				t.handleOpen()
			case <-menuQuit.ClickedCh:
				t.handleQuit()
				return
			}
		}
	}()
}

func toggleTitle(enabled bool) string {
	if enabled {
		return "● Tracking"
	}
	return "○ Paused"
}

func gestureTitle(name string) string {
	if name == "" {
		return "Gesture: none"
	}
	return "Gesture: " + name
}

// handleToggle flips the enabled state and reports it to the callback.
func (t *Tray) handleToggle() {
	t.mu.Lock()
	t.enabled = !t.enabled
	enabled := t.enabled
	if t.menuToggle != nil {
		t.menuToggle.SetTitle(toggleTitle(enabled))
	}
	callback := t.onToggle
	t.mu.Unlock()

	if callback != nil {
		callback(enabled)
	}
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

// SetGesture shows the current gesture in the menu. It is safe to call
// before the tray is ready.
func (t *Tray) SetGesture(name string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.gesture = name
	if t.menuGesture != nil {
		t.menuGesture.SetTitle(gestureTitle(name))
	}
}

// Gesture returns the last gesture passed to SetGesture.
func (t *Tray) Gesture() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.gesture
}

// IsEnabled returns the current enabled state.
func (t *Tray) IsEnabled() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.enabled
}

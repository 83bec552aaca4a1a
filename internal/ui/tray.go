package ui

import (
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver/desktop"
)

// Tray is the system tray menu of the application.
type Tray struct {
	onShow    func()
	onStopAll func()
	onQuit    func()
	mu        sync.RWMutex

	menu     *fyne.Menu
	lastItem *fyne.MenuItem
}

// NewTray creates a Tray with no callbacks set.
func NewTray() *Tray {
	t := &Tray{}

	t.lastItem = fyne.NewMenuItem("Last: none", nil)
	t.lastItem.Disabled = true

	t.menu = fyne.NewMenu("Mudra",
		fyne.NewMenuItem("Show Window", t.handleShow),
		fyne.NewMenuItemSeparator(),
		t.lastItem,
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Stop All Detections", t.handleStopAll),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Quit", t.handleQuit),
	)
	return t
}

// OnShow sets the callback for the show window item.
func (t *Tray) OnShow(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onShow = fn
}

// OnStopAll sets the callback for the stop all item.
func (t *Tray) OnStopAll(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onStopAll = fn
}

// OnQuit sets the callback for the quit item.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Menu returns the tray menu.
func (t *Tray) Menu() *fyne.Menu {
	return t.menu
}

// Install attaches the menu to the system tray. It reports false when the
// driver has no tray.
func (t *Tray) Install(a fyne.App) bool {
	desk, ok := a.(desktop.App)
	if !ok {
		return false
	}
	desk.SetSystemTrayMenu(t.menu)
	return true
}

// SetLast shows the most recent detection in the menu. Must be called on
// the UI goroutine.
func (t *Tray) SetLast(text string) {
	if text == "" {
		text = "none"
	}
	t.lastItem.Label = "Last: " + text
	t.menu.Refresh()
}

// LastLabel returns the current text of the last detection item.
func (t *Tray) LastLabel() string {
	return t.lastItem.Label
}

func (t *Tray) handleShow() {
	t.mu.RLock()
	callback := t.onShow
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
}

func (t *Tray) handleStopAll() {
	t.mu.RLock()
	callback := t.onStopAll
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
}

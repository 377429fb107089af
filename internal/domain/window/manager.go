package window

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/GriffinCanCode/DigitalTwin/internal/shared/types"
)

// ErrTemplateMissing is returned when an app has no window template
var ErrTemplateMissing = errors.New("window template not found")

// Initializer prepares an app's data when its window is first opened
type Initializer interface {
	Initialize(app types.AppName)
}

// InitializerFunc adapts a function to Initializer
type InitializerFunc func(app types.AppName)

// Initialize calls f(app)
func (f InitializerFunc) Initialize(app types.AppName) { f(app) }

// Template describes how to instantiate an app window
type Template struct {
	Title       string
	Initializer Initializer
}

// Templates maps each launchable app to its template
type Templates map[types.AppName]Template

// DefaultTemplates returns a template for every app, sharing one initializer
func DefaultTemplates(init Initializer) Templates {
	return Templates{
		types.AppEmail:        {Title: "Email", Initializer: init},
		types.AppFileExplorer: {Title: "File Explorer", Initializer: init},
		types.AppSettings:     {Title: "Settings", Initializer: init},
		types.AppDocuments:    {Title: "Documents", Initializer: init},
		types.AppBrowser:      {Title: "Secure Browser", Initializer: init},
	}
}

// Window is an open app instance
type Window struct {
	ID       string            `json:"id"`
	App      types.AppName     `json:"app"`
	Title    string            `json:"title"`
	State    types.WindowState `json:"state"`
	OpenedAt time.Time         `json:"opened_at"`
}

// Manager tracks open windows and which one is active. At most one window
// is active; the active id is always an open window or nil.
type Manager struct {
	mu        sync.RWMutex
	templates Templates
	windows   map[string]*Window // Protected by mu
	activeID  *string            // Protected by mu
	clock     func() time.Time
}

// NewManager creates a window manager over the given templates
func NewManager(templates Templates) *Manager {
	if templates == nil {
		templates = Templates{}
	}
	return &Manager{
		templates: templates,
		windows:   make(map[string]*Window),
		clock:     time.Now,
	}
}

// Launch opens the app's window and makes it active. An already open
// window is focused instead and opened is false. The template initializer
// runs after the window is registered, outside the manager lock.
func (m *Manager) Launch(app types.AppName) (win Window, opened bool, err error) {
	tmpl, ok := m.templates[app]
	if !ok {
		return Window{}, false, ErrTemplateMissing
	}

	id := app.WindowID()

	m.mu.Lock()
	if existing, ok := m.windows[id]; ok {
		m.focusLocked(existing)
		win = *existing
		m.mu.Unlock()
		return win, false, nil
	}

	w := &Window{
		ID:       id,
		App:      app,
		Title:    tmpl.Title,
		State:    types.WindowActive,
		OpenedAt: m.clock(),
	}
	m.windows[id] = w
	m.focusLocked(w)
	win = *w
	m.mu.Unlock()

	if tmpl.Initializer != nil {
		tmpl.Initializer.Initialize(app)
	}

	return win, true, nil
}

// Focus makes an open window active and demotes the rest
func (m *Manager) Focus(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	w, ok := m.windows[id]
	if !ok {
		return false
	}
	m.focusLocked(w)
	return true
}

// focusLocked must be called with mu held
func (m *Manager) focusLocked(w *Window) {
	if m.activeID != nil && *m.activeID != w.ID {
		if current, ok := m.windows[*m.activeID]; ok {
			current.State = types.WindowBackground
		}
	}
	w.State = types.WindowActive
	id := w.ID
	m.activeID = &id
}

// Close removes a window. Closing the active window leaves no window
// active; focus does not move to another window.
func (m *Manager) Close(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	w, ok := m.windows[id]
	if !ok {
		return false
	}
	w.State = types.WindowClosed
	delete(m.windows, id)

	if m.activeID != nil && *m.activeID == id {
		m.activeID = nil
	}
	return true
}

// Get retrieves a copy of an open window
func (m *Manager) Get(id string) (Window, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	w, ok := m.windows[id]
	if !ok {
		return Window{}, false
	}
	return *w, true
}

// State reports the lifecycle state of an app's window
func (m *Manager) State(app types.AppName) types.WindowState {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if w, ok := m.windows[app.WindowID()]; ok {
		return w.State
	}
	return types.WindowClosed
}

// IsOpen reports whether the window id is open
func (m *Manager) IsOpen(id string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.windows[id]
	return ok
}

// List returns copies of all open windows ordered by id
func (m *Manager) List() []Window {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Window, 0, len(m.windows))
	for _, w := range m.windows {
		out = append(out, *w)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// OpenIDs returns the open window ids in sorted order
func (m *Manager) OpenIDs() []string {
	wins := m.List()
	ids := make([]string, len(wins))
	for i, w := range wins {
		ids[i] = w.ID
	}
	return ids
}

// Active returns the active window id, or nil
func (m *Manager) Active() *string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.activeID == nil {
		return nil
	}
	id := *m.activeID
	return &id
}

// Len returns the number of open windows
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.windows)
}

// Stats returns manager statistics
func (m *Manager) Stats() types.WindowStats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var active, background int
	for _, w := range m.windows {
		switch w.State {
		case types.WindowActive:
			active++
		case types.WindowBackground:
			background++
		}
	}

	var focused *string
	if m.activeID != nil {
		id := *m.activeID
		focused = &id
	}

	return types.WindowStats{
		TotalWindows:      len(m.windows),
		ActiveWindows:     active,
		BackgroundWindows: background,
		FocusedWindowID:   focused,
	}
}

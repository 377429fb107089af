package types

import "time"

// Theme is the desktop color scheme
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// Toggle returns the opposite theme
func (t Theme) Toggle() Theme {
	if t == ThemeDark {
		return ThemeLight
	}
	return ThemeDark
}

// AppName identifies a launchable desktop application
type AppName string

const (
	AppEmail        AppName = "email"
	AppFileExplorer AppName = "file-explorer"
	AppSettings     AppName = "settings"
	AppDocuments    AppName = "documents"
	AppBrowser      AppName = "browser"
)

// AllApps lists every application in launcher order
var AllApps = []AppName{AppEmail, AppFileExplorer, AppSettings, AppDocuments, AppBrowser}

// WindowID returns the window identifier used for an app instance
func (a AppName) WindowID() string {
	return "window-" + string(a)
}

// ParseAppName resolves a launcher name, reporting whether it is known
func ParseAppName(name string) (AppName, bool) {
	for _, app := range AllApps {
		if string(app) == name {
			return app, true
		}
	}
	return "", false
}

// WindowState represents the lifecycle state of an app window
type WindowState string

const (
	WindowClosed     WindowState = "closed"
	WindowBackground WindowState = "background"
	WindowActive     WindowState = "active"
)

// Severity classifies a user-visible notification
type Severity string

const (
	SeveritySuccess Severity = "success"
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// ActivityRecord is one audit log entry. Records are never mutated after
// creation; Details is copied on the way in and on the way out.
type ActivityRecord struct {
	Timestamp time.Time              `json:"timestamp"`
	Action    string                 `json:"action"`
	Details   map[string]interface{} `json:"details"`
	Actor     string                 `json:"user"`
	SessionID string                 `json:"sessionId"`
}

// Clone returns a deep-enough copy for callers outside the logger
func (r ActivityRecord) Clone() ActivityRecord {
	r.Details = CloneDetails(r.Details)
	return r
}

// CloneDetails copies a details map one level deep
func CloneDetails(details map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(details))
	for k, v := range details {
		out[k] = v
	}
	return out
}

// Notification is a toast shown on the rendering surface
type Notification struct {
	Message  string   `json:"message"`
	Severity Severity `json:"type"`
}

// Snapshot is the observable desktop session state
type Snapshot struct {
	Theme                  Theme    `json:"currentTheme"`
	OpenWindows            []string `json:"openWindows"`
	ActiveWindow           *string  `json:"activeWindow"`
	StartMenuOpen          bool     `json:"startMenuOpen"`
	ProfileMenuOpen        bool     `json:"profileMenuOpen"`
	CurrentEmailFolder     string   `json:"currentEmailFolder"`
	CurrentExplorerTab     string   `json:"currentExplorerTab"`
	CurrentSettingsTab     string   `json:"currentSettingsTab"`
	CurrentDocumentsFolder string   `json:"currentDocumentsFolder"`
}

// WindowStats contains window manager statistics
type WindowStats struct {
	TotalWindows      int     `json:"total_windows"`
	ActiveWindows     int     `json:"active_windows"`
	BackgroundWindows int     `json:"background_windows"`
	FocusedWindowID   *string `json:"focused_window_id,omitempty"`
}

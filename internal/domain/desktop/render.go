package desktop

import "github.com/GriffinCanCode/DigitalTwin/internal/shared/types"

// Renderer is the drawing surface of a desktop session. Calls carry no
// return values; a renderer that cannot deliver drops the command.
type Renderer interface {
	ShowWindow(id string)
	HideWindow(id string)
	UpdateList(view string, records interface{})
	ShowContent(view string, record interface{})
	Toast(message string, severity types.Severity)
}

// Views addressed by UpdateList and ShowContent
const (
	ViewEmail     = "email"
	ViewFiles     = "files"
	ViewDocuments = "documents"
	ViewFolders   = "folders"
	ViewSearch    = "search"
	ViewTheme     = "theme"
)

// Menu element ids toggled with ShowWindow and HideWindow
const (
	StartMenuID   = "start-menu"
	ProfileMenuID = "profile-menu"
)

// NopRenderer discards every command
type NopRenderer struct{}

func (NopRenderer) ShowWindow(string)               {}
func (NopRenderer) HideWindow(string)               {}
func (NopRenderer) UpdateList(string, interface{})  {}
func (NopRenderer) ShowContent(string, interface{}) {}
func (NopRenderer) Toast(string, types.Severity)    {}

// Observer receives desktop metrics
type Observer interface {
	RecordActivity(action string)
	RecordPolicyDenial(policy string)
	AddWindowsOpen(delta int)
}

type nopObserver struct{}

func (nopObserver) RecordActivity(string)     {}
func (nopObserver) RecordPolicyDenial(string) {}
func (nopObserver) AddWindowsOpen(int)        {}

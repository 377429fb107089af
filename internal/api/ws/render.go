package ws

import (
	"github.com/GriffinCanCode/DigitalTwin/internal/shared/types"
)

// Render operations carried in render frames
const (
	OpShowWindow  = "show_window"
	OpHideWindow  = "hide_window"
	OpUpdateList  = "update_list"
	OpShowContent = "show_content"
	OpToast       = "toast"
)

// RenderCommand is the payload of a render frame
type RenderCommand struct {
	Op       string         `json:"op"`
	ID       string         `json:"id,omitempty"`
	View     string         `json:"view,omitempty"`
	Records  interface{}    `json:"records,omitempty"`
	Record   interface{}    `json:"record,omitempty"`
	Message  string         `json:"message,omitempty"`
	Severity types.Severity `json:"severity,omitempty"`
}

// Renderer draws a user's desktop by pushing render frames to that user's
// desktop page connections
type Renderer struct {
	hub    *Hub
	userID string
}

// Renderer returns the desktop drawing surface of userID
func (h *Hub) Renderer(userID string) *Renderer {
	return &Renderer{hub: h, userID: userID}
}

func (r *Renderer) push(cmd RenderCommand) {
	r.hub.broadcast(types.WSMessage{Type: TypeRender, UserID: r.userID, Data: cmd}, func(c *Client) bool {
		return c.kind == ClientUsers && r.userID != "" && c.user.ID == r.userID
	})
}

func (r *Renderer) ShowWindow(id string) { r.push(RenderCommand{Op: OpShowWindow, ID: id}) }

func (r *Renderer) HideWindow(id string) { r.push(RenderCommand{Op: OpHideWindow, ID: id}) }

func (r *Renderer) UpdateList(view string, records interface{}) {
	r.push(RenderCommand{Op: OpUpdateList, View: view, Records: records})
}

func (r *Renderer) ShowContent(view string, record interface{}) {
	r.push(RenderCommand{Op: OpShowContent, View: view, Record: record})
}

func (r *Renderer) Toast(message string, severity types.Severity) {
	r.push(RenderCommand{Op: OpToast, Message: message, Severity: severity})
}

package ws

import (
	"context"
	"net/http"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/DigitalTwin/internal/domain/activity"
	"github.com/GriffinCanCode/DigitalTwin/internal/shared/types"
)

// HandleConnection upgrades /ws/:client_type. A token may be passed as
// the token query parameter or a bearer header. Admin and staff channels
// require a token of a matching role.
func (h *Hub) HandleConnection(c *gin.Context) {
	kind, ok := ParseClientType(c.Param("client_type"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown client type"})
		return
	}

	user, status := h.authenticate(c, kind)
	if status != http.StatusOK {
		c.JSON(status, gin.H{"error": http.StatusText(status)})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}

	client := newClient(h, conn, kind, user)
	h.register(client)
	go client.writePump()

	client.enqueue(h.encode(types.WSMessage{
		Type:      "system",
		Message:   "Connected to Digital Twin",
		Timestamp: h.now(),
	}))

	client.readPump(h.handle)
}

func (h *Hub) authenticate(c *gin.Context, kind ClientType) (types.User, int) {
	token := c.Query("token")
	if token == "" {
		if v, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer "); ok {
			token = strings.TrimSpace(v)
		}
	}

	var user types.User
	if token != "" && h.auth != nil {
		u, err := h.auth.Authenticate(c.Request.Context(), token)
		if err != nil {
			return types.User{}, http.StatusUnauthorized
		}
		user = u
	}

	switch kind {
	case ClientAdmin:
		if user.ID == "" {
			return types.User{}, http.StatusUnauthorized
		}
		if user.Role != types.RoleAdmin {
			return types.User{}, http.StatusForbidden
		}
	case ClientStaff:
		if user.ID == "" {
			return types.User{}, http.StatusUnauthorized
		}
		if user.Role != types.RoleStaff && user.Role != types.RoleAdmin {
			return types.User{}, http.StatusForbidden
		}
	}
	return user, http.StatusOK
}

func (h *Hub) encode(msg types.WSMessage) []byte {
	frame, err := sonic.Marshal(msg)
	if err != nil {
		h.log.Error("Failed to encode frame", zap.String("type", msg.Type), zap.Error(err))
		return nil
	}
	return frame
}

func (h *Hub) reply(c *Client, msg types.WSMessage) {
	if msg.Timestamp == "" {
		msg.Timestamp = h.now()
	}
	if frame := h.encode(msg); frame != nil && c.enqueue(frame) {
		h.observer.RecordWSMessage("out", msg.Type)
	}
}

func (h *Hub) replyError(c *Client, message string) {
	h.reply(c, types.WSMessage{Type: TypeError, Message: message})
}

// handle dispatches one inbound frame
func (h *Hub) handle(c *Client, data []byte) {
	var msg types.WSMessage
	if err := sonic.Unmarshal(data, &msg); err != nil {
		h.replyError(c, "invalid message")
		return
	}
	h.observer.RecordWSMessage("in", msg.Type)

	switch msg.Type {
	case "activity_log":
		h.handleActivityLog(c, msg)
	case "system_status":
		if c.user.ID == "" {
			h.replyError(c, "authentication required")
			return
		}
		msg.Timestamp = h.now()
		msg.UserID = c.user.ID
		h.BroadcastType(ClientAdmin, msg)
	case "notification":
		if c.user.ID == "" {
			h.replyError(c, "authentication required")
			return
		}
		if c.user.Role != types.RoleAdmin && c.user.Role != types.RoleStaff {
			h.replyError(c, "staff access required")
			return
		}
		target := msg.Target
		if target == "" || target == "all" {
			h.BroadcastAll(msg)
			return
		}
		kind, ok := ParseClientType(target)
		if !ok {
			h.replyError(c, "unknown notification target")
			return
		}
		h.BroadcastType(kind, msg)
	case "ping":
		h.reply(c, types.WSMessage{Type: "pong"})
	default:
		h.replyError(c, "unknown message type")
	}
}

// handleActivityLog persists the action for the connection's user. Admins
// may log on behalf of another user id.
func (h *Hub) handleActivityLog(c *Client, msg types.WSMessage) {
	if c.user.ID == "" {
		h.replyError(c, "authentication required")
		return
	}
	if strings.TrimSpace(msg.Action) == "" {
		h.replyError(c, "action is required")
		return
	}
	if h.store == nil {
		h.replyError(c, "activity log unavailable")
		return
	}

	userID := c.user.ID
	if msg.UserID != "" && c.user.Role == types.RoleAdmin {
		userID = msg.UserID
	}

	details, err := detailsString(msg.Details)
	if err != nil {
		h.replyError(c, "invalid details")
		return
	}

	stored, err := h.store.InsertActivity(context.Background(), types.StoredActivity{
		UserID:  userID,
		Action:  msg.Action,
		Details: details,
	})
	if err != nil {
		h.log.Error("Failed to persist websocket activity", zap.String("action", msg.Action), zap.Error(err))
		h.replyError(c, "failed to log activity")
		return
	}
	h.reply(c, types.WSMessage{Type: TypeActivityLogged, Data: stored})

	if activity.IsSuspicious(msg.Action) {
		h.BroadcastType(ClientAdmin, types.WSMessage{
			Type:    TypeSecurityAlert,
			UserID:  userID,
			Action:  msg.Action,
			Details: msg.Details,
		})
	}
}

func detailsString(v interface{}) (string, error) {
	switch d := v.(type) {
	case nil:
		return "", nil
	case string:
		return d, nil
	default:
		return sonic.MarshalString(d)
	}
}

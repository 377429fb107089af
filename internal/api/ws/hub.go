package ws

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/DigitalTwin/internal/infrastructure/logging"
	"github.com/GriffinCanCode/DigitalTwin/internal/shared/types"
)

// ClientType groups connections for targeted broadcasts
type ClientType string

const (
	ClientAdmin ClientType = "admin"
	ClientStaff ClientType = "staff"
	ClientUsers ClientType = "users"
)

// ParseClientType resolves a path segment to a client type
func ParseClientType(s string) (ClientType, bool) {
	switch ClientType(s) {
	case ClientAdmin, ClientStaff, ClientUsers:
		return ClientType(s), true
	}
	return "", false
}

// Frame types pushed by the server
const (
	TypeActivityUpdate     = "activity_update"
	TypeSecurityAlert      = "security_alert"
	TypeChartUpdate        = "chart_update"
	TypeRender             = "render"
	TypeSystemNotification = "system_notification"
	TypeActivityLogged     = "activity_logged"
	TypeError              = "error"
)

// Observer receives connection and message metrics
type Observer interface {
	IncWSConnections(clientType string)
	DecWSConnections(clientType string)
	RecordWSMessage(direction, msgType string)
}

// ActivityStore persists activity_log messages
type ActivityStore interface {
	InsertActivity(ctx context.Context, a types.StoredActivity) (types.StoredActivity, error)
}

// Authenticator resolves connection tokens
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (types.User, error)
}

// Options configures a Hub
type Options struct {
	Store    ActivityStore
	Auth     Authenticator
	Observer Observer
	Logger   *logging.Logger
	Clock    func() time.Time
	// CheckOrigin defaults to allowing every origin
	CheckOrigin func(r *http.Request) bool
}

// Hub tracks websocket clients and routes frames between them
type Hub struct {
	store    ActivityStore
	auth     Authenticator
	observer Observer
	log      *logging.Logger
	clock    func() time.Time
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[*Client]struct{} // Protected by mu
}

// NewHub creates an empty hub
func NewHub(opts Options) *Hub {
	if opts.Logger == nil {
		opts.Logger = logging.NewNop()
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.Observer == nil {
		opts.Observer = nopObserver{}
	}
	if opts.CheckOrigin == nil {
		opts.CheckOrigin = func(*http.Request) bool { return true }
	}
	return &Hub{
		store:    opts.Store,
		auth:     opts.Auth,
		observer: opts.Observer,
		log:      opts.Logger.Named("ws"),
		clock:    opts.Clock,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     opts.CheckOrigin,
		},
		clients: make(map[*Client]struct{}),
	}
}

func (h *Hub) register(c *Client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	h.observer.IncWSConnections(string(c.kind))
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	_, ok := h.clients[c]
	delete(h.clients, c)
	h.mu.Unlock()
	if ok {
		h.observer.DecWSConnections(string(c.kind))
		c.close()
	}
}

// Count returns the number of connected clients
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// CountByType returns connected clients per client type
func (h *Hub) CountByType() map[string]int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make(map[string]int)
	for c := range h.clients {
		out[string(c.kind)]++
	}
	return out
}

func (h *Hub) now() string {
	return h.clock().UTC().Format(time.RFC3339)
}

// broadcast sends msg to every client accepted by match
func (h *Hub) broadcast(msg types.WSMessage, match func(*Client) bool) int {
	if msg.Timestamp == "" {
		msg.Timestamp = h.now()
	}
	frame, err := sonic.Marshal(msg)
	if err != nil {
		h.log.Error("Failed to encode frame", zap.String("type", msg.Type), zap.Error(err))
		return 0
	}

	h.mu.RLock()
	targets := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		if match(c) {
			targets = append(targets, c)
		}
	}
	h.mu.RUnlock()

	sent := 0
	for _, c := range targets {
		if c.enqueue(frame) {
			sent++
			h.observer.RecordWSMessage("out", msg.Type)
		} else {
			h.log.Warn("Dropping slow websocket client", zap.String("client_type", string(c.kind)))
			h.unregister(c)
		}
	}
	return sent
}

// BroadcastType sends msg to every client of one type
func (h *Hub) BroadcastType(kind ClientType, msg types.WSMessage) int {
	return h.broadcast(msg, func(c *Client) bool { return c.kind == kind })
}

// BroadcastAll sends msg to every client
func (h *Hub) BroadcastAll(msg types.WSMessage) int {
	return h.broadcast(msg, func(*Client) bool { return true })
}

// SendToUser sends msg to every connection authenticated as userID
func (h *Hub) SendToUser(userID string, msg types.WSMessage) int {
	if userID == "" {
		return 0
	}
	return h.broadcast(msg, func(c *Client) bool { return c.user.ID == userID })
}

// PublishActivity pushes a desktop activity record to admins and to the
// user's own connections
func (h *Hub) PublishActivity(userID string, rec types.ActivityRecord) int {
	return h.broadcast(types.WSMessage{
		Type:   TypeActivityUpdate,
		UserID: userID,
		Action: rec.Action,
		Data:   rec,
	}, func(c *Client) bool {
		return c.kind == ClientAdmin || (userID != "" && c.user.ID == userID)
	})
}

// PublishChart pushes a chart snapshot to admins
func (h *Hub) PublishChart(chart interface{}) int {
	return h.BroadcastType(ClientAdmin, types.WSMessage{Type: TypeChartUpdate, Data: chart})
}

// Notify sends a system notification to one client type, or to everyone
// when target is empty or "all"
func (h *Hub) Notify(message, target string) int {
	msg := types.WSMessage{Type: TypeSystemNotification, Message: message}
	if target == "" || target == "all" {
		return h.BroadcastAll(msg)
	}
	kind, ok := ParseClientType(target)
	if !ok {
		return 0
	}
	return h.BroadcastType(kind, msg)
}

// Close disconnects every client
func (h *Hub) Close() {
	h.mu.RLock()
	all := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		all = append(all, c)
	}
	h.mu.RUnlock()
	for _, c := range all {
		h.unregister(c)
	}
}

type nopObserver struct{}

func (nopObserver) IncWSConnections(string)        {}
func (nopObserver) DecWSConnections(string)        {}
func (nopObserver) RecordWSMessage(string, string) {}

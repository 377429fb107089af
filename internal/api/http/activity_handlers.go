package http

import (
	"context"
	"net/http"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"

	"github.com/GriffinCanCode/DigitalTwin/internal/api/ws"
	"github.com/GriffinCanCode/DigitalTwin/internal/domain/activity"
	"github.com/GriffinCanCode/DigitalTwin/internal/domain/auth"
	"github.com/GriffinCanCode/DigitalTwin/internal/infrastructure/storage"
	"github.com/GriffinCanCode/DigitalTwin/internal/shared/types"
)

// LogActivityRequest is the body of POST /activity/log
type LogActivityRequest struct {
	UserID  string      `json:"user_id"`
	Action  string      `json:"action" binding:"required"`
	Details interface{} `json:"details"`
}

// LogActivity archives an activity for the caller, or for any user when
// the caller is an admin
func (h *Handlers) LogActivity(c *gin.Context) {
	user, ok := h.user(c)
	if !ok {
		return
	}

	var req LogActivityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "action is required"})
		return
	}
	if req.UserID == "" {
		req.UserID = user.ID
	}
	if req.UserID != user.ID && user.Role != types.RoleAdmin {
		c.JSON(http.StatusForbidden, gin.H{"error": "Can only log your own activities"})
		return
	}

	details, err := detailsText(req.Details)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "details must be JSON"})
		return
	}

	stored, err := h.store.InsertActivity(c.Request.Context(), types.StoredActivity{
		UserID:    req.UserID,
		Action:    req.Action,
		Details:   details,
		Timestamp: h.clock().UTC(),
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	if h.metrics != nil {
		h.metrics.RecordActivity(stored.Action)
	}

	if h.hub != nil && activity.IsSuspicious(stored.Action) {
		h.hub.BroadcastType(ws.ClientAdmin, types.WSMessage{
			Type:   ws.TypeSecurityAlert,
			UserID: stored.UserID,
			Action: stored.Action,
			Data:   stored,
		})
	}

	c.JSON(http.StatusOK, stored)
}

func detailsText(v interface{}) (string, error) {
	switch d := v.(type) {
	case nil:
		return "", nil
	case string:
		return d, nil
	default:
		return sonic.MarshalString(d)
	}
}

// UserActivities lists one user's archived activities. Users may read
// their own; admins may read anyone in their domain.
func (h *Handlers) UserActivities(c *gin.Context) {
	user, ok := h.user(c)
	if !ok {
		return
	}
	target, ok := pathID(c)
	if !ok {
		return
	}
	if target != user.ID {
		if user.Role != types.RoleAdmin {
			c.JSON(http.StatusForbidden, gin.H{"error": "Access denied"})
			return
		}
		if !h.sameDomain(c, user, target) {
			return
		}
	}

	limit, ok := queryInt(c, "limit", 50, 1, 200)
	if !ok {
		return
	}
	h.listActivities(c, storage.ActivityFilter{UserIDs: []string{target}, Limit: limit})
}

// AllActivities lists the archive for the admin's domain
func (h *Handlers) AllActivities(c *gin.Context) {
	limit, ok := queryInt(c, "limit", 100, 1, 1000)
	if !ok {
		return
	}
	h.listDomainActivities(c, storage.ActivityFilter{Limit: limit})
}

// SuspiciousActivities lists security relevant actions
func (h *Handlers) SuspiciousActivities(c *gin.Context) {
	limit, ok := queryInt(c, "limit", 50, 1, 200)
	if !ok {
		return
	}
	h.listDomainActivities(c, storage.ActivityFilter{Actions: activity.SuspiciousActions(), Limit: limit})
}

// ActivitiesByTimeRange lists activities between start_date and end_date
func (h *Handlers) ActivitiesByTimeRange(c *gin.Context) {
	start, err := parseTime(c.Query("start_date"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid date format"})
		return
	}
	end, err := parseTime(c.Query("end_date"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid date format"})
		return
	}
	if end.Before(start) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "end_date must not be before start_date"})
		return
	}
	h.listDomainActivities(c, storage.ActivityFilter{Since: start, Until: end})
}

// ActivitiesByAction lists activities with one action name
func (h *Handlers) ActivitiesByAction(c *gin.Context) {
	action := c.Query("action")
	if action == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "action is required"})
		return
	}
	limit, ok := queryInt(c, "limit", 100, 1, 1000)
	if !ok {
		return
	}
	h.listDomainActivities(c, storage.ActivityFilter{Actions: []string{action}, Limit: limit})
}

// RecentActivities lists the activities of the last hours
func (h *Handlers) RecentActivities(c *gin.Context) {
	hours, ok := queryInt(c, "hours", 24, 1, 168)
	if !ok {
		return
	}
	since := h.clock().UTC().Add(-time.Duration(hours) * time.Hour)
	h.listDomainActivities(c, storage.ActivityFilter{Since: since})
}

// ActivitySummary aggregates the domain's activity over days
func (h *Handlers) ActivitySummary(c *gin.Context) {
	user, ok := h.user(c)
	if !ok {
		return
	}
	d, ok := queryInt(c, "days", 7, 1, 365)
	if !ok {
		return
	}
	summary, err := h.analytics.Summary(c.Request.Context(), auth.EmailDomain(user.Email), d)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (h *Handlers) listActivities(c *gin.Context, f storage.ActivityFilter) {
	acts, err := h.store.Activities(c.Request.Context(), f)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, acts)
}

// listDomainActivities restricts f to the users of the caller's domain
func (h *Handlers) listDomainActivities(c *gin.Context, f storage.ActivityFilter) {
	user, ok := h.user(c)
	if !ok {
		return
	}
	ids, err := h.domainUserIDs(c.Request.Context(), user)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if len(ids) == 0 {
		c.JSON(http.StatusOK, []types.StoredActivity{})
		return
	}
	f.UserIDs = ids
	h.listActivities(c, f)
}

func (h *Handlers) domainUserIDs(ctx context.Context, user types.User) ([]string, error) {
	users, err := h.analytics.DomainUsers(ctx, auth.EmailDomain(user.Email))
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.ID)
	}
	return ids, nil
}

// sameDomain loads target and answers 404 or 403 unless it shares the
// admin's email domain
func (h *Handlers) sameDomain(c *gin.Context, admin types.User, targetID string) bool {
	_, ok := h.domainTarget(c, admin, targetID)
	return ok
}

func (h *Handlers) domainTarget(c *gin.Context, admin types.User, targetID string) (types.User, bool) {
	target, err := h.store.UserByID(c.Request.Context(), targetID)
	if err != nil {
		h.respondError(c, err)
		return types.User{}, false
	}
	if !auth.SameDomain(admin.Email, target.Email) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Access denied"})
		return types.User{}, false
	}
	return target, true
}

package http

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/GriffinCanCode/DigitalTwin/internal/domain/auth"
	"github.com/GriffinCanCode/DigitalTwin/internal/infrastructure/storage"
	"github.com/GriffinCanCode/DigitalTwin/internal/shared/types"
)

// DashboardStats returns the admin dashboard counters for the admin's domain
func (h *Handlers) DashboardStats(c *gin.Context) {
	user, ok := h.user(c)
	if !ok {
		return
	}
	stats, err := h.analytics.Dashboard(c.Request.Context(), auth.EmailDomain(user.Email))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// ListUsers lists the accounts of the admin's domain
func (h *Handlers) ListUsers(c *gin.Context) {
	user, ok := h.user(c)
	if !ok {
		return
	}
	users, err := h.analytics.DomainUsers(c.Request.Context(), auth.EmailDomain(user.Email))
	if err != nil {
		h.respondError(c, err)
		return
	}
	if users == nil {
		users = []types.User{}
	}
	c.JSON(http.StatusOK, users)
}

// GetUser returns one account of the admin's domain
func (h *Handlers) GetUser(c *gin.Context) {
	admin, ok := h.user(c)
	if !ok {
		return
	}
	targetID, ok := pathID(c)
	if !ok {
		return
	}
	target, ok := h.domainTarget(c, admin, targetID)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, target)
}

// UpdateUserStatus activates or deactivates an account
func (h *Handlers) UpdateUserStatus(c *gin.Context) {
	admin, ok := h.user(c)
	if !ok {
		return
	}
	targetID, ok := pathID(c)
	if !ok {
		return
	}
	active, err := strconv.ParseBool(c.Query("is_active"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "is_active must be true or false"})
		return
	}
	h.setActive(c, admin, targetID, active, "user_status_changed")
}

// DeleteUser deactivates an account; rows are kept for the audit trail
func (h *Handlers) DeleteUser(c *gin.Context) {
	admin, ok := h.user(c)
	if !ok {
		return
	}
	targetID, ok := pathID(c)
	if !ok {
		return
	}
	h.setActive(c, admin, targetID, false, "user_deleted")
}

func (h *Handlers) setActive(c *gin.Context, admin types.User, targetID string, active bool, action string) {
	if !active && targetID == admin.ID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Cannot deactivate your own account"})
		return
	}
	if !h.sameDomain(c, admin, targetID) {
		return
	}

	user, err := h.auth.SetActive(c.Request.Context(), targetID, active, action)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if !active {
		h.desktops.Remove(targetID)
	}

	status := "activated"
	if !active {
		status = "deactivated"
	}
	c.JSON(http.StatusOK, gin.H{
		"message": fmt.Sprintf("User %s %s", user.Username, status),
		"user":    user,
	})
}

// UserActivitySummary summarizes one user's recent activity
func (h *Handlers) UserActivitySummary(c *gin.Context) {
	admin, ok := h.user(c)
	if !ok {
		return
	}
	d, ok := queryInt(c, "days", 30, 1, 365)
	if !ok {
		return
	}
	targetID, ok := pathID(c)
	if !ok {
		return
	}
	if !h.sameDomain(c, admin, targetID) {
		return
	}
	summary, err := h.analytics.UserActivity(c.Request.Context(), targetID, d)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// SecurityAlerts lists the latest suspicious activities of the domain
func (h *Handlers) SecurityAlerts(c *gin.Context) {
	admin, ok := h.user(c)
	if !ok {
		return
	}
	limit, ok := queryInt(c, "limit", 20, 1, 100)
	if !ok {
		return
	}
	alerts, err := h.analytics.SecurityAlerts(c.Request.Context(), auth.EmailDomain(admin.Email), limit)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, alerts)
}

// ActivityAnalytics returns daily and per-action counts for the domain
func (h *Handlers) ActivityAnalytics(c *gin.Context) {
	admin, ok := h.user(c)
	if !ok {
		return
	}
	d, ok := queryInt(c, "days", 30, 1, 365)
	if !ok {
		return
	}
	out, err := h.analytics.ActivityAnalytics(c.Request.Context(), auth.EmailDomain(admin.Email), d)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// CreateStaff creates a staff account in the admin's domain
func (h *Handlers) CreateStaff(c *gin.Context) {
	admin, ok := h.user(c)
	if !ok {
		return
	}
	var req auth.StaffRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	user, staff, err := h.auth.CreateStaff(c.Request.Context(), admin, req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Staff user created successfully",
		"user":    user,
		"staff":   staff,
	})
}

// ExportActivities streams the domain's archive as gzipped JSON lines
func (h *Handlers) ExportActivities(c *gin.Context) {
	admin, ok := h.user(c)
	if !ok {
		return
	}
	d, ok := queryInt(c, "days", 30, 1, 365)
	if !ok {
		return
	}
	ids, err := h.domainUserIDs(c.Request.Context(), admin)
	if err != nil {
		h.respondError(c, err)
		return
	}
	rows := []types.StoredActivity{}
	if len(ids) > 0 {
		rows, err = h.store.Activities(c.Request.Context(), storage.ActivityFilter{
			UserIDs: ids,
			Since:   h.clock().UTC().Add(-days(d)),
		})
		if err != nil {
			h.respondError(c, err)
			return
		}
	}

	name := fmt.Sprintf("activities-%s.jsonl.gz", h.clock().UTC().Format("20060102"))
	c.Header("Content-Type", "application/gzip")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	c.Status(http.StatusOK)
	if err := storage.ExportActivities(c.Writer, rows); err != nil {
		_ = c.Error(err)
	}
}

// SystemStatus reports server health and the domain's counters
func (h *Handlers) SystemStatus(c *gin.Context) {
	admin, ok := h.user(c)
	if !ok {
		return
	}
	stats, err := h.analytics.Dashboard(c.Request.Context(), auth.EmailDomain(admin.Email))
	if err != nil {
		h.respondError(c, err)
		return
	}

	resp := gin.H{
		"status":           "operational",
		"timestamp":        h.clock().UTC(),
		"statistics":       stats,
		"system_uptime":    h.clock().Sub(h.started).Seconds(),
		"desktop_sessions": h.desktops.Len(),
		"auth_sessions":    h.auth.ActiveSessions(),
	}
	if h.hub != nil {
		resp["active_connections"] = h.hub.CountByType()
	} else {
		resp["active_connections"] = map[string]int{}
	}
	if h.archive != nil {
		resp["archive"] = h.archive.Stats()
	}
	c.JSON(http.StatusOK, resp)
}

// Chart returns the current dashboard chart
func (h *Handlers) Chart(c *gin.Context) {
	if h.chart == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "chart generator disabled"})
		return
	}
	c.JSON(http.StatusOK, h.chart.Current())
}

// MetricsSnapshot returns the in-process counters as JSON
func (h *Handlers) MetricsSnapshot(c *gin.Context) {
	if h.metrics == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "metrics disabled"})
		return
	}
	c.JSON(http.StatusOK, h.metrics.Snapshot())
}

// DesktopSession describes a live desktop session
type DesktopSession struct {
	UserID    string            `json:"user_id"`
	DesktopID string            `json:"desktop_id"`
	State     types.Snapshot    `json:"state"`
	Windows   types.WindowStats `json:"windows"`
	Records   int               `json:"activity_records"`
}

// DesktopSessions lists live desktop sessions of the admin's domain
func (h *Handlers) DesktopSessions(c *gin.Context) {
	admin, ok := h.user(c)
	if !ok {
		return
	}
	ids, err := h.domainUserIDs(c.Request.Context(), admin)
	if err != nil {
		h.respondError(c, err)
		return
	}
	inDomain := make(map[string]bool, len(ids))
	for _, id := range ids {
		inDomain[id] = true
	}

	out := []DesktopSession{}
	for _, userID := range h.desktops.Users() {
		if !inDomain[userID] {
			continue
		}
		ctrl, ok := h.desktops.Get(userID)
		if !ok {
			continue
		}
		out = append(out, DesktopSession{
			UserID:    userID,
			DesktopID: ctrl.ID(),
			State:     ctrl.Snapshot(),
			Windows:   ctrl.WindowStats(),
			Records:   len(ctrl.Activity()),
		})
	}
	c.JSON(http.StatusOK, out)
}

// NotifyRequest is the body of POST /admin/notify
type NotifyRequest struct {
	Message string `json:"message" binding:"required"`
	Target  string `json:"target"`
}

// Notify broadcasts a system notification over websockets
func (h *Handlers) Notify(c *gin.Context) {
	var req NotifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "message is required"})
		return
	}
	if h.hub == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "websocket hub disabled"})
		return
	}
	if req.Target == "" {
		req.Target = "all"
	}
	c.JSON(http.StatusOK, gin.H{"delivered": h.hub.Notify(req.Message, req.Target)})
}

package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/GriffinCanCode/DigitalTwin/internal/infrastructure/storage"
	"github.com/GriffinCanCode/DigitalTwin/internal/shared/types"
)

// staff returns the caller and their staff record
func (h *Handlers) staff(c *gin.Context) (types.User, types.Staff, bool) {
	user, ok := h.user(c)
	if !ok {
		return types.User{}, types.Staff{}, false
	}
	st, err := h.store.StaffByUserID(c.Request.Context(), user.ID)
	if err != nil {
		h.respondError(c, err)
		return types.User{}, types.Staff{}, false
	}
	return user, st, true
}

// StaffProfile returns the caller's account and staff record
func (h *Handlers) StaffProfile(c *gin.Context) {
	user, st, ok := h.staff(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user, "staff_info": st})
}

// UpdateStaffDepartment moves the caller to the department named by the
// new_department query parameter
func (h *Handlers) UpdateStaffDepartment(c *gin.Context) {
	user, _, ok := h.staff(c)
	if !ok {
		return
	}
	st, err := h.auth.UpdateDepartment(c.Request.Context(), user.ID, c.Query("new_department"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Department updated successfully", "staff_info": st})
}

// DepartmentStats returns staff counts for the caller's department
func (h *Handlers) DepartmentStats(c *gin.Context) {
	_, st, ok := h.staff(c)
	if !ok {
		return
	}
	all, err := h.analytics.Departments(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"department": st.Department, "statistics": all[st.Department]})
}

// StaffActivitySummary summarizes the caller's recent activity
func (h *Handlers) StaffActivitySummary(c *gin.Context) {
	user, ok := h.user(c)
	if !ok {
		return
	}
	d, ok := queryInt(c, "days", 7, 1, 365)
	if !ok {
		return
	}
	summary, err := h.analytics.StaffActivity(c.Request.Context(), user.ID, d)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// DepartmentActivities lists recent activity of the caller's department
func (h *Handlers) DepartmentActivities(c *gin.Context) {
	_, st, ok := h.staff(c)
	if !ok {
		return
	}
	d, ok := queryInt(c, "days", 7, 1, 365)
	if !ok {
		return
	}
	acts, err := h.analytics.DepartmentActivities(c.Request.Context(), st.Department, d)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"department": st.Department, "period_days": d, "activities": acts})
}

// PerformanceMetrics measures the caller's success rate
func (h *Handlers) PerformanceMetrics(c *gin.Context) {
	user, ok := h.user(c)
	if !ok {
		return
	}
	d, ok := queryInt(c, "days", 30, 1, 365)
	if !ok {
		return
	}
	perf, err := h.analytics.StaffPerformance(c.Request.Context(), user.ID, d)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, perf)
}

// Colleague is another member of the caller's department
type Colleague struct {
	User  types.User  `json:"user"`
	Staff types.Staff `json:"staff_info"`
}

// Colleagues lists the active staff sharing the caller's department
func (h *Handlers) Colleagues(c *gin.Context) {
	user, st, ok := h.staff(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	members, err := h.store.ListStaff(ctx, st.Department)
	if err != nil {
		h.respondError(c, err)
		return
	}

	out := []Colleague{}
	for _, m := range members {
		if m.UserID == user.ID {
			continue
		}
		u, err := h.store.UserByID(ctx, m.UserID)
		if err != nil {
			h.respondError(c, err)
			return
		}
		if !u.IsActive {
			continue
		}
		out = append(out, Colleague{User: u, Staff: m})
	}
	c.JSON(http.StatusOK, gin.H{"department": st.Department, "colleagues": out})
}

// StaffActivities lists the caller's archived activities
func (h *Handlers) StaffActivities(c *gin.Context) {
	user, ok := h.user(c)
	if !ok {
		return
	}
	limit, ok := queryInt(c, "limit", 50, 1, 200)
	if !ok {
		return
	}
	h.listActivities(c, storage.ActivityFilter{UserIDs: []string{user.ID}, Limit: limit})
}

// StaffRecentActivities lists the caller's activities of the last hours
func (h *Handlers) StaffRecentActivities(c *gin.Context) {
	user, ok := h.user(c)
	if !ok {
		return
	}
	hours, ok := queryInt(c, "hours", 24, 1, 168)
	if !ok {
		return
	}
	acts, err := h.store.Activities(c.Request.Context(), storage.ActivityFilter{
		UserIDs: []string{user.ID},
		Since:   h.clock().UTC().Add(-time.Duration(hours) * time.Hour),
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"staff_id": user.ID, "period_hours": hours, "activities": acts})
}

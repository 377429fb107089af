package http

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/DigitalTwin/internal/api/middleware"
	"github.com/GriffinCanCode/DigitalTwin/internal/api/ws"
	"github.com/GriffinCanCode/DigitalTwin/internal/domain/analytics"
	"github.com/GriffinCanCode/DigitalTwin/internal/domain/auth"
	"github.com/GriffinCanCode/DigitalTwin/internal/domain/desktop"
	"github.com/GriffinCanCode/DigitalTwin/internal/infrastructure/logging"
	"github.com/GriffinCanCode/DigitalTwin/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/DigitalTwin/internal/infrastructure/storage"
	"github.com/GriffinCanCode/DigitalTwin/internal/infrastructure/tracing"
	"github.com/GriffinCanCode/DigitalTwin/internal/shared/types"
	"github.com/GriffinCanCode/DigitalTwin/internal/shared/utils"
)

// Version is reported by / and /health
const Version = "1.0.0"

// Deps are the services behind the HTTP API. Archive, Chart and Metrics
// may be nil.
type Deps struct {
	Auth      *auth.Service
	Store     *storage.Store
	Analytics *analytics.Service
	Desktops  *desktop.Registry
	Hub       *ws.Hub
	Chart     *analytics.ChartGenerator
	Archive   *storage.Archiver
	Metrics   *monitoring.Metrics
	Logger    *logging.Logger
	Clock     func() time.Time
}

// Handlers contains all HTTP handlers
type Handlers struct {
	auth      *auth.Service
	store     *storage.Store
	analytics *analytics.Service
	desktops  *desktop.Registry
	hub       *ws.Hub
	chart     *analytics.ChartGenerator
	archive   *storage.Archiver
	metrics   *monitoring.Metrics
	log       *logging.Logger
	uiLog     *logging.Logger
	clock     func() time.Time
	started   time.Time
}

// NewHandlers creates a new handler set
func NewHandlers(d Deps) *Handlers {
	if d.Logger == nil {
		d.Logger = logging.NewNop()
	}
	if d.Clock == nil {
		d.Clock = time.Now
	}
	return &Handlers{
		auth:      d.Auth,
		store:     d.Store,
		analytics: d.Analytics,
		desktops:  d.Desktops,
		hub:       d.Hub,
		chart:     d.Chart,
		archive:   d.Archive,
		metrics:   d.Metrics,
		log:       d.Logger.Named("api"),
		uiLog:     d.Logger.Named("ui"),
		clock:     d.Clock,
		started:   d.Clock(),
	}
}

// Register mounts every route on r
func (h *Handlers) Register(r gin.IRouter) {
	r.GET("/", h.Root)
	r.GET("/health", h.Health)
	r.POST("/token", h.Login)
	r.POST("/register", h.RegisterUser)
	if h.hub != nil {
		r.GET("/ws/:client_type", h.hub.HandleConnection)
	}

	authed := r.Group("/", middleware.Auth(h.auth))
	authed.GET("/users/me", h.Me)
	authed.POST("/logout", h.Logout)
	authed.POST("/logs/stream", h.StreamLogs)

	act := authed.Group("/activity")
	act.POST("/log", h.LogActivity)
	act.GET("/user/:id", h.UserActivities)
	adminAct := act.Group("/", middleware.RequireRole(types.RoleAdmin))
	adminAct.GET("/all", h.AllActivities)
	adminAct.GET("/suspicious", h.SuspiciousActivities)
	adminAct.GET("/time-range", h.ActivitiesByTimeRange)
	adminAct.GET("/by-action", h.ActivitiesByAction)
	adminAct.GET("/recent", h.RecentActivities)
	adminAct.GET("/summary", h.ActivitySummary)

	admin := authed.Group("/admin", middleware.RequireRole(types.RoleAdmin))
	admin.GET("/dashboard/stats", h.DashboardStats)
	admin.GET("/users", h.ListUsers)
	admin.GET("/users/:id", h.GetUser)
	admin.PUT("/users/:id/status", h.UpdateUserStatus)
	admin.DELETE("/users/:id", h.DeleteUser)
	admin.GET("/users/:id/activity", h.UserActivitySummary)
	admin.GET("/security/alerts", h.SecurityAlerts)
	admin.GET("/analytics/activities", h.ActivityAnalytics)
	admin.POST("/staff/create", h.CreateStaff)
	admin.GET("/activities", h.AllActivities)
	admin.GET("/activities/suspicious", h.SuspiciousActivities)
	admin.GET("/activities/time-range", h.ActivitiesByTimeRange)
	admin.GET("/activities/export", h.ExportActivities)
	admin.GET("/system/status", h.SystemStatus)
	admin.GET("/chart", h.Chart)
	admin.GET("/metrics", h.MetricsSnapshot)
	admin.GET("/desktops", h.DesktopSessions)
	admin.POST("/notify", h.Notify)

	staff := authed.Group("/staff", middleware.RequireRole(types.RoleStaff))
	staff.GET("/profile", h.StaffProfile)
	staff.PUT("/profile/department", h.UpdateStaffDepartment)
	staff.GET("/department/stats", h.DepartmentStats)
	staff.GET("/activity/summary", h.StaffActivitySummary)
	staff.GET("/department/activities", h.DepartmentActivities)
	staff.GET("/performance/metrics", h.PerformanceMetrics)
	staff.GET("/colleagues", h.Colleagues)
	staff.GET("/activities", h.StaffActivities)
	staff.GET("/activities/recent", h.StaffRecentActivities)

	d := authed.Group("/desktop")
	d.GET("/state", h.DesktopState)
	d.POST("/theme/toggle", h.ToggleTheme)
	d.POST("/menus/start/toggle", h.ToggleStartMenu)
	d.POST("/menus/profile/toggle", h.ToggleProfileMenu)
	d.POST("/menus/close", h.CloseMenus)
	d.GET("/windows", h.ListWindows)
	d.POST("/apps/:app/launch", h.LaunchApp)
	d.POST("/windows/:id/focus", h.FocusWindow)
	d.DELETE("/windows/:id", h.CloseWindow)
	d.GET("/email", h.ListEmails)
	d.POST("/email/folder/:folder", h.SwitchEmailFolder)
	d.GET("/email/:id", h.OpenEmail)
	d.GET("/files", h.ListFiles)
	d.POST("/files/tab/:tab", h.SwitchExplorerTab)
	d.POST("/files/download/:name", h.DownloadFile)
	d.DELETE("/files/:name", h.DeleteFile)
	d.POST("/files/upload", h.UploadFile)
	d.POST("/settings/tab/:tab", h.SwitchSettingsTab)
	d.GET("/settings", h.GetSettings)
	d.PUT("/settings", h.SaveSettings)
	d.GET("/documents", h.ListDocuments)
	d.POST("/documents/folder/:folder", h.SwitchDocumentsFolder)
	d.POST("/documents/open/:name", h.OpenDocument)
	d.GET("/documents/folders", h.ListFolders)
	d.POST("/documents/folders", h.CreateFolder)
	d.GET("/search", h.Search)
	d.GET("/activity", h.DesktopActivity)
	d.GET("/policies", h.Policies)
	d.POST("/logout", h.DesktopLogout)
}

// Root describes the service
func (h *Handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "Digital Twin System Backend Running",
		"version": Version,
		"status":  "healthy",
		"endpoints": gin.H{
			"auth":      "/token",
			"users":     "/register",
			"admin":     "/admin",
			"staff":     "/staff",
			"activity":  "/activity",
			"desktop":   "/desktop",
			"websocket": "/ws/{client_type}",
		},
	})
}

// Health reports whether the database answers
func (h *Handlers) Health(c *gin.Context) {
	status, code := "healthy", http.StatusOK
	db := "ok"
	if err := h.store.Ping(c.Request.Context()); err != nil {
		status, code, db = "degraded", http.StatusServiceUnavailable, err.Error()
	}
	c.JSON(code, gin.H{
		"status":    status,
		"timestamp": h.clock().UTC().Format(time.RFC3339),
		"version":   Version,
		"database":  db,
	})
}

// respondError maps service errors to status codes
func (h *Handlers) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, types.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	case errors.Is(err, auth.ErrInvalidCredentials):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Incorrect username or password"})
	case errors.Is(err, auth.ErrInactive):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Inactive user"})
	case errors.Is(err, auth.ErrDuplicateUser),
		errors.Is(err, auth.ErrInvalidRole),
		errors.Is(err, auth.ErrDomainMismatch),
		errors.Is(err, auth.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, auth.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Could not validate credentials"})
	case errors.Is(err, auth.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "Access denied"})
	default:
		h.log.Error("Request failed",
			tracing.Field(c.Request.Context()),
			zap.String("path", c.FullPath()),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

// user returns the authenticated user or answers 401
func (h *Handlers) user(c *gin.Context) (types.User, bool) {
	u, err := middleware.MustUser(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Could not validate credentials"})
		return types.User{}, false
	}
	return u, true
}

// queryInt reads an integer query parameter within [min, max]
func queryInt(c *gin.Context, name string, def, min, max int) (int, bool) {
	raw := c.Query(name)
	if raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < min || n > max {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": fmt.Sprintf("%s must be an integer between %d and %d", name, min, max),
		})
		return 0, false
	}
	return n, true
}

// pathID reads an id path parameter, answering 400 when it is malformed
func pathID(c *gin.Context) (string, bool) {
	v := c.Param("id")
	if err := utils.ValidateID(v, "id", true); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return "", false
	}
	return v, true
}

// parseTime accepts RFC 3339 timestamps and zone-less ones read as UTC
func parseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid time %q", s)
}

func days(d int) time.Duration { return time.Duration(d) * 24 * time.Hour }

package http

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/GriffinCanCode/DigitalTwin/internal/domain/desktop"
	"github.com/GriffinCanCode/DigitalTwin/internal/shared/types"
	"github.com/GriffinCanCode/DigitalTwin/internal/shared/utils"
)

// sniffBytes is how much of an upload is read for type detection
const sniffBytes = 3072

// desktop returns the caller's desktop controller, starting the session
// on first use
func (h *Handlers) desktop(c *gin.Context) (*desktop.Controller, bool) {
	user, ok := h.user(c)
	if !ok {
		return nil, false
	}
	ctrl, _, err := h.desktops.Acquire(c.Request.Context(), user.ID, map[string]interface{}{
		"userAgent": c.Request.UserAgent(),
	})
	if err != nil {
		h.respondError(c, err)
		return nil, false
	}
	return ctrl, true
}

// respondOutcome answers a desktop operation
func respondOutcome(c *gin.Context, ctrl *desktop.Controller, out desktop.Outcome) {
	switch out {
	case desktop.Done:
		c.JSON(http.StatusOK, gin.H{"outcome": out.String(), "state": ctrl.Snapshot()})
	case desktop.Denied:
		c.JSON(http.StatusForbidden, gin.H{"error": "Action denied by system policy", "outcome": out.String()})
	default:
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found", "outcome": out.String()})
	}
}

// desktopAction wraps an operation that always runs
func (h *Handlers) desktopAction(op func(*desktop.Controller)) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctrl, ok := h.desktop(c)
		if !ok {
			return
		}
		op(ctrl)
		respondOutcome(c, ctrl, desktop.Done)
	}
}

// DesktopState returns the session state and window statistics
func (h *Handlers) DesktopState(c *gin.Context) {
	ctrl, ok := h.desktop(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"desktop_id": ctrl.ID(),
		"state":      ctrl.Snapshot(),
		"windows":    ctrl.WindowStats(),
	})
}

// ToggleTheme flips the desktop theme
func (h *Handlers) ToggleTheme(c *gin.Context) {
	ctrl, ok := h.desktop(c)
	if !ok {
		return
	}
	respondOutcome(c, ctrl, ctrl.ToggleTheme())
}

// ToggleStartMenu opens or closes the start menu
func (h *Handlers) ToggleStartMenu(c *gin.Context) {
	h.desktopAction((*desktop.Controller).ToggleStartMenu)(c)
}

// ToggleProfileMenu opens or closes the profile menu
func (h *Handlers) ToggleProfileMenu(c *gin.Context) {
	h.desktopAction((*desktop.Controller).ToggleProfileMenu)(c)
}

// CloseMenus closes both menus
func (h *Handlers) CloseMenus(c *gin.Context) {
	h.desktopAction((*desktop.Controller).CloseMenus)(c)
}

// ListWindows lists open windows
func (h *Handlers) ListWindows(c *gin.Context) {
	ctrl, ok := h.desktop(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"windows": nonNil(ctrl.Windows()), "stats": ctrl.WindowStats()})
}

// LaunchApp opens or focuses an app window
func (h *Handlers) LaunchApp(c *gin.Context) {
	app, known := types.ParseAppName(c.Param("app"))
	if !known {
		c.JSON(http.StatusNotFound, gin.H{"error": "Unknown app", "outcome": desktop.NotFound.String()})
		return
	}
	ctrl, ok := h.desktop(c)
	if !ok {
		return
	}
	respondOutcome(c, ctrl, ctrl.LaunchApp(c.Request.Context(), app))
}

// FocusWindow brings a window to the front
func (h *Handlers) FocusWindow(c *gin.Context) {
	ctrl, ok := h.desktop(c)
	if !ok {
		return
	}
	respondOutcome(c, ctrl, ctrl.FocusWindow(c.Param("id")))
}

// CloseWindow closes a window
func (h *Handlers) CloseWindow(c *gin.Context) {
	ctrl, ok := h.desktop(c)
	if !ok {
		return
	}
	respondOutcome(c, ctrl, ctrl.CloseWindow(c.Param("id")))
}

// ListEmails lists the current email folder
func (h *Handlers) ListEmails(c *gin.Context) {
	ctrl, ok := h.desktop(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"folder": ctrl.Snapshot().CurrentEmailFolder, "emails": nonNil(ctrl.Emails())})
}

// SwitchEmailFolder selects an email folder
func (h *Handlers) SwitchEmailFolder(c *gin.Context) {
	folder := c.Param("folder")
	h.desktopAction(func(ctrl *desktop.Controller) { ctrl.SwitchEmailFolder(folder) })(c)
}

// OpenEmail shows one email of the current folder
func (h *Handlers) OpenEmail(c *gin.Context) {
	ctrl, ok := h.desktop(c)
	if !ok {
		return
	}
	email, out := ctrl.OpenEmail(c.Param("id"))
	if out != desktop.Done {
		respondOutcome(c, ctrl, out)
		return
	}
	c.JSON(http.StatusOK, gin.H{"outcome": out.String(), "email": email})
}

// ListFiles lists the current explorer tab
func (h *Handlers) ListFiles(c *gin.Context) {
	ctrl, ok := h.desktop(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"tab": ctrl.Snapshot().CurrentExplorerTab, "files": nonNil(ctrl.Files())})
}

// SwitchExplorerTab selects a file explorer tab
func (h *Handlers) SwitchExplorerTab(c *gin.Context) {
	tab := c.Param("tab")
	h.desktopAction(func(ctrl *desktop.Controller) { ctrl.SwitchExplorerTab(tab) })(c)
}

// DownloadFile simulates a download
func (h *Handlers) DownloadFile(c *gin.Context) {
	ctrl, ok := h.desktop(c)
	if !ok {
		return
	}
	respondOutcome(c, ctrl, ctrl.DownloadFile(c.Param("name")))
}

// DeleteFile removes a file from the current tab
func (h *Handlers) DeleteFile(c *gin.Context) {
	ctrl, ok := h.desktop(c)
	if !ok {
		return
	}
	respondOutcome(c, ctrl, ctrl.DeleteFile(c.Param("name")))
}

// UploadFile adds the multipart "file" to the current tab
func (h *Handlers) UploadFile(c *gin.Context) {
	header, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}
	f, err := header.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable upload"})
		return
	}
	defer f.Close()
	head, err := io.ReadAll(io.LimitReader(f, sniffBytes))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable upload"})
		return
	}

	ctrl, ok := h.desktop(c)
	if !ok {
		return
	}
	respondOutcome(c, ctrl, ctrl.UploadFile(header.Filename, header.Size, head))
}

// SwitchSettingsTab selects a settings tab
func (h *Handlers) SwitchSettingsTab(c *gin.Context) {
	ctrl, ok := h.desktop(c)
	if !ok {
		return
	}
	respondOutcome(c, ctrl, ctrl.SwitchSettingsTab(c.Param("tab")))
}

// GetSettings returns the effective policy table
func (h *Handlers) GetSettings(c *gin.Context) {
	ctrl, ok := h.desktop(c)
	if !ok {
		return
	}
	tab, settings, out := ctrl.Settings()
	if out != desktop.Done {
		respondOutcome(c, ctrl, out)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tab": tab, "settings": settings})
}

// SaveSettings overlays the posted values onto the policy table
func (h *Handlers) SaveSettings(c *gin.Context) {
	var values map[string]interface{}
	if err := c.ShouldBindJSON(&values); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "settings must be a JSON object"})
		return
	}
	ctrl, ok := h.desktop(c)
	if !ok {
		return
	}
	out, err := ctrl.SaveSettings(c.Request.Context(), values)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if out != desktop.Done {
		respondOutcome(c, ctrl, out)
		return
	}
	c.JSON(http.StatusOK, gin.H{"outcome": out.String(), "settings": ctrl.Policies()})
}

// ListDocuments lists the current documents folder
func (h *Handlers) ListDocuments(c *gin.Context) {
	ctrl, ok := h.desktop(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"folder":    ctrl.Snapshot().CurrentDocumentsFolder,
		"documents": nonNil(ctrl.Documents()),
	})
}

// SwitchDocumentsFolder selects a documents folder
func (h *Handlers) SwitchDocumentsFolder(c *gin.Context) {
	folder := c.Param("folder")
	h.desktopAction(func(ctrl *desktop.Controller) { ctrl.SwitchDocumentsFolder(folder) })(c)
}

// OpenDocument simulates opening a document
func (h *Handlers) OpenDocument(c *gin.Context) {
	ctrl, ok := h.desktop(c)
	if !ok {
		return
	}
	respondOutcome(c, ctrl, ctrl.OpenDocument(c.Param("name")))
}

// ListFolders lists user-created folders of the current documents folder
func (h *Handlers) ListFolders(c *gin.Context) {
	ctrl, ok := h.desktop(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"folders": nonNil(ctrl.Folders())})
}

// CreateFolderRequest is the body of POST /desktop/documents/folders
type CreateFolderRequest struct {
	Name string `json:"name"`
}

// CreateFolder adds a folder to the current documents folder
func (h *Handlers) CreateFolder(c *gin.Context) {
	var req CreateFolderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	ctrl, ok := h.desktop(c)
	if !ok {
		return
	}
	respondOutcome(c, ctrl, ctrl.CreateFolder(req.Name))
}

// Search looks up files and documents by name
func (h *Handlers) Search(c *gin.Context) {
	ctrl, ok := h.desktop(c)
	if !ok {
		return
	}
	q := c.Query("q")
	if err := utils.ValidateQuery(q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"query": q, "results": nonNil(ctrl.Search(q))})
}

// DesktopActivity returns the session's in-memory activity log
func (h *Handlers) DesktopActivity(c *gin.Context) {
	ctrl, ok := h.desktop(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"activities": nonNil(ctrl.Activity())})
}

// Policies returns the effective policy table
func (h *Handlers) Policies(c *gin.Context) {
	ctrl, ok := h.desktop(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, ctrl.Policies())
}

// DesktopLogout ends the desktop session and revokes the token
func (h *Handlers) DesktopLogout(c *gin.Context) {
	h.Logout(c)
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

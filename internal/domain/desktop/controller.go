package desktop

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/bytedance/sonic"
	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/DigitalTwin/internal/domain/activity"
	"github.com/GriffinCanCode/DigitalTwin/internal/domain/fixtures"
	"github.com/GriffinCanCode/DigitalTwin/internal/domain/policy"
	"github.com/GriffinCanCode/DigitalTwin/internal/domain/window"
	"github.com/GriffinCanCode/DigitalTwin/internal/infrastructure/logging"
	"github.com/GriffinCanCode/DigitalTwin/internal/shared/id"
	"github.com/GriffinCanCode/DigitalTwin/internal/shared/types"
	"github.com/GriffinCanCode/DigitalTwin/internal/shared/utils"
)

// Default selections
const (
	DefaultEmailFolder     = fixtures.FolderInbox
	DefaultExplorerTab     = fixtures.TabWorkServer
	DefaultSettingsTab     = "appearance"
	DefaultDocumentsFolder = fixtures.DocsRecent
)

// minSearchLength is the shortest query that is searched and logged
const minSearchLength = 3

// Outcome reports how an operation ended
type Outcome int

const (
	// Done means the operation ran
	Done Outcome = iota
	// Denied means a policy refused the operation
	Denied
	// NotFound means the target did not exist or the input was empty
	NotFound
)

func (o Outcome) String() string {
	switch o {
	case Done:
		return "done"
	case Denied:
		return "denied"
	case NotFound:
		return "not_found"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// CatalogSource supplies the fixture data used to seed app views
type CatalogSource interface {
	Catalog() fixtures.Catalog
}

type staticCatalog fixtures.Catalog

func (s staticCatalog) Catalog() fixtures.Catalog { return fixtures.Catalog(s) }

// Options configures a Controller. Nil fields get working defaults.
type Options struct {
	UserID    string
	Activity  activity.Config
	Catalog   CatalogSource
	Store     SettingsStore
	Renderer  Renderer
	Observer  Observer
	Sinks     []activity.Sink
	Templates func(window.Initializer) window.Templates
	Logger    *logging.Logger
}

// Controller owns one desktop session. Every operation runs the same
// pipeline: gate check, state change, activity record, render.
type Controller struct {
	mu sync.Mutex

	id     string
	userID string

	// Protected by mu
	theme           types.Theme
	startMenuOpen   bool
	profileMenuOpen bool
	emailFolder     string
	explorerTab     string
	settingsTab     string
	documentsFolder string

	// App views, nil until the app is first opened. Protected by mu.
	emails    *fixtures.Dataset[fixtures.Email]
	files     *fixtures.Dataset[fixtures.File]
	documents *fixtures.Dataset[fixtures.Document]
	folders   *fixtures.Dataset[fixtures.Folder]

	gate      *policy.Gate
	windows   *window.Manager
	activity  *activity.Logger
	catalog   CatalogSource
	store     SettingsStore
	renderer  Renderer
	observer  Observer
	sanitizer *bluemonday.Policy
	log       *logging.Logger
}

// New creates a controller with default state and policies
func New(opts Options) *Controller {
	if opts.Logger == nil {
		opts.Logger = logging.NewNop()
	}
	if opts.Catalog == nil {
		opts.Catalog = staticCatalog(fixtures.DefaultCatalog())
	}
	if opts.Store == nil {
		opts.Store = NewMemoryStore()
	}
	if opts.Renderer == nil {
		opts.Renderer = NopRenderer{}
	}
	if opts.Observer == nil {
		opts.Observer = nopObserver{}
	}
	if opts.Templates == nil {
		opts.Templates = window.DefaultTemplates
	}

	c := &Controller{
		id:              id.NewDesktopID(),
		userID:          opts.UserID,
		theme:           types.ThemeLight,
		emailFolder:     DefaultEmailFolder,
		explorerTab:     DefaultExplorerTab,
		settingsTab:     DefaultSettingsTab,
		documentsFolder: DefaultDocumentsFolder,
		folders:         fixtures.NewDataset(fixtures.FolderKey, nil),
		gate:            policy.NewGate(),
		catalog:         opts.Catalog,
		store:           opts.Store,
		renderer:        opts.Renderer,
		observer:        opts.Observer,
		sanitizer:       bluemonday.StrictPolicy(),
		log:             opts.Logger.Named("desktop").With(zap.String("user_id", opts.UserID)),
	}

	observer := opts.Observer
	sinks := append([]activity.Sink{activity.SinkFunc(func(rec types.ActivityRecord) error {
		observer.RecordActivity(rec.Action)
		return nil
	})}, opts.Sinks...)
	c.activity = activity.NewLogger(opts.Activity, opts.Logger, sinks...)
	c.windows = window.NewManager(opts.Templates(window.InitializerFunc(c.initAppLocked)))

	return c
}

// ID returns the controller instance id
func (c *Controller) ID() string { return c.id }

// UserID returns the owning account id
func (c *Controller) UserID() string { return c.userID }

// ToggleTheme flips between light and dark
func (c *Controller) ToggleTheme() Outcome {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.gate.IsAllowed(policy.AllowThemeChange) {
		return c.deny(policy.AllowThemeChange, "theme_change", "Theme changes are restricted by system policy", types.SeverityWarning, nil)
	}

	c.theme = c.theme.Toggle()
	c.activity.Record("theme_changed", map[string]interface{}{"newTheme": string(c.theme)})
	c.renderer.ShowContent(ViewTheme, map[string]interface{}{"theme": string(c.theme)})
	return Done
}

// ToggleStartMenu opens or closes the start menu
func (c *Controller) ToggleStartMenu() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.toggleStartMenuLocked()
}

func (c *Controller) toggleStartMenuLocked() {
	c.startMenuOpen = !c.startMenuOpen
	c.activity.Record("start_menu_toggled", map[string]interface{}{"isOpen": c.startMenuOpen})
	c.renderMenu(StartMenuID, c.startMenuOpen)
}

// ToggleProfileMenu opens or closes the profile menu
func (c *Controller) ToggleProfileMenu() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.toggleProfileMenuLocked()
}

func (c *Controller) toggleProfileMenuLocked() {
	c.profileMenuOpen = !c.profileMenuOpen
	c.activity.Record("profile_menu_toggled", map[string]interface{}{"isOpen": c.profileMenuOpen})
	c.renderMenu(ProfileMenuID, c.profileMenuOpen)
}

// CloseMenus closes whichever menus are open
func (c *Controller) CloseMenus() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.startMenuOpen {
		c.toggleStartMenuLocked()
	}
	if c.profileMenuOpen {
		c.toggleProfileMenuLocked()
	}
}

func (c *Controller) renderMenu(id string, open bool) {
	if open {
		c.renderer.ShowWindow(id)
		return
	}
	c.renderer.HideWindow(id)
}

// LaunchApp opens an app window, or focuses it when already open
func (c *Controller) LaunchApp(ctx context.Context, app types.AppName) Outcome {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch app {
	case types.AppSettings:
		if !c.gate.IsAllowed(policy.AllowThemeChange) {
			return c.denySettings()
		}
	case types.AppBrowser:
		if !c.gate.IsAllowed(policy.AllowInternetAccess) {
			return c.deny(policy.AllowInternetAccess, "browser_access", "Internet access is restricted by system policy", types.SeverityWarning, nil)
		}
	}

	win, opened, err := c.windows.Launch(app)
	if err != nil {
		if errors.Is(err, window.ErrTemplateMissing) {
			c.log.Error("Template not found for app", zap.String("app", string(app)))
			return NotFound
		}
		c.log.Error("Failed to launch app", zap.String("app", string(app)), zap.Error(err))
		return NotFound
	}

	c.renderer.ShowWindow(win.ID)
	if !opened {
		return Done
	}

	c.observer.AddWindowsOpen(1)
	if app == types.AppSettings {
		if err := c.loadSettingsLocked(ctx); err != nil {
			c.log.Warn("Failed to load saved settings", zap.Error(err))
		}
	}
	c.activity.Record("app_opened", map[string]interface{}{"appName": string(app), "windowId": win.ID})
	return Done
}

// initAppLocked seeds the app's view from the catalog. It runs inside
// LaunchApp with mu held.
func (c *Controller) initAppLocked(app types.AppName) {
	cat := c.catalog.Catalog()

	switch app {
	case types.AppEmail:
		c.emails = cat.EmailSet()
		c.renderer.UpdateList(ViewEmail, c.emails.List(c.emailFolder))
	case types.AppFileExplorer:
		c.files = cat.FileSet()
		c.renderer.UpdateList(ViewFiles, c.files.List(c.explorerTab))
	case types.AppDocuments:
		c.documents = cat.DocumentSet()
		c.renderer.UpdateList(ViewDocuments, c.documents.List(c.documentsFolder))
	case types.AppBrowser:
		c.activity.Record("browser_opened", map[string]interface{}{"note": "Secure browsing limited to trusted work sites"})
	}
}

// CloseWindow closes an open window; the active window becomes none when
// it was the one closed
func (c *Controller) CloseWindow(windowID string) Outcome {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.windows.Close(windowID) {
		return NotFound
	}
	c.observer.AddWindowsOpen(-1)
	c.renderer.HideWindow(windowID)
	c.activity.Record("window_closed", map[string]interface{}{"windowId": windowID})
	return Done
}

// FocusWindow brings an open window to the front
func (c *Controller) FocusWindow(windowID string) Outcome {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.windows.Focus(windowID) {
		return NotFound
	}
	c.renderer.ShowWindow(windowID)
	return Done
}

// SwitchEmailFolder selects an email folder
func (c *Controller) SwitchEmailFolder(folder string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.emailFolder = folder
	if c.emails != nil {
		c.renderer.UpdateList(ViewEmail, c.emails.List(folder))
	}
	c.activity.Record("email_folder_changed", map[string]interface{}{"folder": folder})
}

// Emails lists the current folder of the email view
func (c *Controller) Emails() []fixtures.Email {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.emails == nil {
		return nil
	}
	return c.emails.List(c.emailFolder)
}

// OpenEmail shows an email from the current folder
func (c *Controller) OpenEmail(emailID string) (fixtures.Email, Outcome) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.emails == nil {
		return fixtures.Email{}, NotFound
	}
	email, ok := c.emails.Get(c.emailFolder, emailID)
	if !ok {
		return fixtures.Email{}, NotFound
	}

	c.renderer.ShowContent(ViewEmail, email)
	c.activity.Record("email_opened", map[string]interface{}{"emailId": emailID, "folder": c.emailFolder})
	return email, Done
}

// SwitchExplorerTab selects a file explorer tab
func (c *Controller) SwitchExplorerTab(tab string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.explorerTab = tab
	if c.files != nil {
		c.renderer.UpdateList(ViewFiles, c.files.List(tab))
	}
	c.activity.Record("explorer_tab_changed", map[string]interface{}{"tab": tab})
}

// Files lists the current tab of the file explorer view
func (c *Controller) Files() []fixtures.File {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.files == nil {
		return nil
	}
	return c.files.List(c.explorerTab)
}

// DownloadFile simulates a download from the current tab
func (c *Controller) DownloadFile(name string) Outcome {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.gate.IsAllowed(policy.AllowFileDownload) {
		return c.deny(policy.AllowFileDownload, "file_download", "File downloads are restricted by system policy", types.SeverityWarning,
			map[string]interface{}{"fileName": name})
	}

	c.renderer.Toast(fmt.Sprintf("Downloading %s...", name), types.SeveritySuccess)
	c.activity.Record("file_downloaded", map[string]interface{}{"fileName": name, "location": c.explorerTab})
	return Done
}

// DeleteFile removes every file with the given name from the current tab
func (c *Controller) DeleteFile(name string) Outcome {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.gate.IsAllowed(policy.AllowFileDelete) {
		return c.deny(policy.AllowFileDelete, "file_delete", "File deletion is restricted by system policy", types.SeverityWarning,
			map[string]interface{}{"fileName": name})
	}

	if c.files != nil && c.files.Has(c.explorerTab) {
		c.files.Remove(c.explorerTab, name)
		c.renderer.UpdateList(ViewFiles, c.files.List(c.explorerTab))
	}
	c.renderer.Toast(fmt.Sprintf("%s deleted successfully", name), types.SeveritySuccess)
	c.activity.Record("file_deleted", map[string]interface{}{"fileName": name, "location": c.explorerTab})
	return Done
}

// UploadFile adds a file to the current tab. Executables are refused
// unless allowExecutableFiles is set.
func (c *Controller) UploadFile(name string, size int64, content []byte) Outcome {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.gate.IsAllowed(policy.AllowFileUpload) {
		return c.deny(policy.AllowFileUpload, "file_upload", "File uploads are restricted by system policy", types.SeverityWarning,
			map[string]interface{}{"fileName": name})
	}
	if err := utils.ValidateFileName(name); err != nil {
		return NotFound
	}
	if fixtures.IsExecutable(name, content) && !c.gate.IsAllowed(policy.AllowExecutableFiles) {
		return c.deny(policy.AllowExecutableFiles, "file_upload", "Executable files are not allowed by system policy", types.SeverityError,
			map[string]interface{}{"fileName": name})
	}

	if c.files != nil && c.files.Has(c.explorerTab) {
		c.files.Add(c.explorerTab, fixtures.NewFile(name))
		c.renderer.UpdateList(ViewFiles, c.files.List(c.explorerTab))
	}
	c.renderer.Toast(fmt.Sprintf("%s uploaded successfully", name), types.SeveritySuccess)
	c.activity.Record("file_uploaded", map[string]interface{}{
		"fileName": name,
		"fileSize": size,
		"location": c.explorerTab,
	})
	return Done
}

// SwitchSettingsTab selects a settings tab. Tabs are free-form. The
// settings window must be open.
func (c *Controller) SwitchSettingsTab(tab string) Outcome {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.gate.IsAllowed(policy.AllowThemeChange) {
		return c.denySettings()
	}
	if c.windows.State(types.AppSettings) == types.WindowClosed {
		return NotFound
	}

	c.settingsTab = tab
	c.activity.Record("settings_tab_changed", map[string]interface{}{"tab": tab})
	return Done
}

// Settings returns the active settings tab and the policy table
func (c *Controller) Settings() (string, map[string]interface{}, Outcome) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.gate.IsAllowed(policy.AllowThemeChange) {
		return "", nil, c.denySettings()
	}
	return c.settingsTab, c.gate.Snapshot(), Done
}

func (c *Controller) denySettings() Outcome {
	return c.deny(policy.AllowThemeChange, "settings_access", "Settings access is restricted by system policy", types.SeverityWarning, nil)
}

// SaveSettings overlays values onto the policy table and persists the
// full table. The returned error is a storage failure; the policies are
// already applied when it happens.
func (c *Controller) SaveSettings(ctx context.Context, values map[string]interface{}) (Outcome, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.gate.IsAllowed(policy.AllowThemeChange) {
		return c.denySettings(), nil
	}

	applied := c.gate.Apply(values)
	snap := c.gate.Snapshot()

	data, err := sonic.MarshalString(snap)
	if err != nil {
		return Done, fmt.Errorf("failed to encode settings: %w", err)
	}
	if err := c.store.Set(ctx, SettingsKey, data); err != nil {
		c.log.Error("Failed to persist settings", zap.Error(err))
		c.renderer.Toast("Settings could not be saved", types.SeverityError)
		return Done, fmt.Errorf("failed to persist settings: %w", err)
	}

	c.log.Debug("Settings saved", zap.Strings("applied", applied))
	c.renderer.Toast("Settings saved successfully", types.SeveritySuccess)
	c.activity.Record("settings_saved", map[string]interface{}{"settings": snap})
	return Done, nil
}

// LoadSettings resets the policies to defaults and overlays the saved
// table, ignoring unknown keys
func (c *Controller) LoadSettings(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loadSettingsLocked(ctx)
}

func (c *Controller) loadSettingsLocked(ctx context.Context) error {
	raw, ok, err := c.store.Get(ctx, SettingsKey)
	if err != nil {
		return fmt.Errorf("failed to read settings: %w", err)
	}

	c.gate.Reset()
	if !ok {
		return nil
	}

	var values map[string]interface{}
	if err := sonic.UnmarshalString(raw, &values); err != nil {
		c.log.Warn("Ignoring malformed saved settings", zap.Error(err))
		return nil
	}
	c.gate.Apply(values)
	return nil
}

// SwitchDocumentsFolder selects a documents folder
func (c *Controller) SwitchDocumentsFolder(folder string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.documentsFolder = folder
	if c.documents != nil {
		c.renderer.UpdateList(ViewDocuments, c.documents.List(folder))
	}
	c.activity.Record("documents_folder_changed", map[string]interface{}{"folder": folder})
}

// Documents lists the current folder of the documents view
func (c *Controller) Documents() []fixtures.Document {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.documents == nil {
		return nil
	}
	return c.documents.List(c.documentsFolder)
}

// OpenDocument simulates opening a document
func (c *Controller) OpenDocument(name string) Outcome {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.renderer.Toast(fmt.Sprintf("Opening %s...", name), types.SeveritySuccess)
	c.activity.Record("document_opened", map[string]interface{}{"documentName": name, "folder": c.documentsFolder})
	return Done
}

// CreateFolder adds a folder under the current documents folder. Markup
// is stripped from the name; an empty result is a no-op.
func (c *Controller) CreateFolder(name string) Outcome {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.gate.IsAllowed(policy.AllowNewFolderCreation) {
		return c.deny(policy.AllowNewFolderCreation, "folder_create", "Folder creation is restricted by system policy", types.SeverityWarning, nil)
	}

	clean := strings.TrimSpace(html.UnescapeString(c.sanitizer.Sanitize(name)))
	if clean == "" {
		return NotFound
	}
	if err := utils.ValidateFileName(clean); err != nil {
		return NotFound
	}

	c.folders.Add(c.documentsFolder, fixtures.Folder{Name: clean})
	c.renderer.UpdateList(ViewFolders, c.folders.List(c.documentsFolder))
	c.renderer.Toast(fmt.Sprintf("Folder %q created successfully", clean), types.SeveritySuccess)
	c.activity.Record("folder_created", map[string]interface{}{"folderName": clean, "location": c.documentsFolder})
	return Done
}

// Folders lists the folders created under the current documents folder
func (c *Controller) Folders() []fixtures.Folder {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.folders.List(c.documentsFolder)
}

// Search matches file and document names. Queries shorter than three
// characters return nothing and are not logged.
func (c *Controller) Search(query string) []fixtures.Hit {
	c.mu.Lock()
	defer c.mu.Unlock()

	q := strings.ToLower(strings.TrimSpace(query))
	if utf8.RuneCountInString(q) < minSearchLength {
		return nil
	}

	files, docs := c.files, c.documents
	if files == nil || docs == nil {
		cat := c.catalog.Catalog()
		if files == nil {
			files = cat.FileSet()
		}
		if docs == nil {
			docs = cat.DocumentSet()
		}
	}

	pattern := fixtures.Pattern(q)
	hits := append(fixtures.Search(files, "file", pattern), fixtures.Search(docs, "document", pattern)...)
	if hits == nil {
		hits = []fixtures.Hit{}
	}

	c.renderer.UpdateList(ViewSearch, hits)
	c.activity.Record("search_performed", map[string]interface{}{"query": q})
	return hits
}

// CheckPolicies records the effective policy table
func (c *Controller) CheckPolicies() map[string]interface{} {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap := c.gate.Snapshot()
	c.activity.Record("system_policies_checked", map[string]interface{}{"policies": snap})
	return snap
}

// StartSession records the session start with client metadata
func (c *Controller) StartSession(meta map[string]interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()

	details := types.CloneDetails(meta)
	details["theme"] = string(c.theme)
	c.activity.Record("session_started", details)
}

// Logout records the logout and discards the saved settings
func (c *Controller) Logout(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.activity.Record("user_logout", map[string]interface{}{"timestamp": time.Now().UTC().Format(time.RFC3339)})
	if err := c.store.Remove(ctx, SettingsKey); err != nil {
		return fmt.Errorf("failed to remove settings: %w", err)
	}
	return nil
}

// Snapshot returns the observable session state
func (c *Controller) Snapshot() types.Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	return types.Snapshot{
		Theme:                  c.theme,
		OpenWindows:            c.windows.OpenIDs(),
		ActiveWindow:           c.windows.Active(),
		StartMenuOpen:          c.startMenuOpen,
		ProfileMenuOpen:        c.profileMenuOpen,
		CurrentEmailFolder:     c.emailFolder,
		CurrentExplorerTab:     c.explorerTab,
		CurrentSettingsTab:     c.settingsTab,
		CurrentDocumentsFolder: c.documentsFolder,
	}
}

// Windows lists the open windows
func (c *Controller) Windows() []window.Window {
	return c.windows.List()
}

// WindowStats returns window manager statistics
func (c *Controller) WindowStats() types.WindowStats {
	return c.windows.Stats()
}

// Activity returns the session's activity records, oldest first
func (c *Controller) Activity() []types.ActivityRecord {
	return c.activity.Records()
}

// Policies returns the effective policy table
func (c *Controller) Policies() map[string]interface{} {
	return c.gate.Snapshot()
}

// Policy reads a single policy value
func (c *Controller) Policy(key string) (policy.Value, bool) {
	return c.gate.Value(key)
}

// AddSink forwards future activity records to s
func (c *Controller) AddSink(s activity.Sink) {
	c.activity.AddSink(s)
}

// Release reports the session's open windows as gone. Call it once the
// controller is dropped.
func (c *Controller) Release() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if n := c.windows.Len(); n > 0 {
		c.observer.AddWindowsOpen(-n)
	}
}

// deny shows the refusal, records it, and reports it to the observer
func (c *Controller) deny(key, action, message string, severity types.Severity, extra map[string]interface{}) Outcome {
	details := types.CloneDetails(extra)
	details["policy"] = key
	details["action"] = action

	c.renderer.Toast(message, severity)
	c.activity.Record(activity.ActionPolicyDenied, details)
	c.observer.RecordPolicyDenial(key)
	c.log.Info("Policy denied operation", zap.String("policy", key), zap.String("action", action))
	return Denied
}

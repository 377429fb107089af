package http

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/GriffinCanCode/DigitalTwin/internal/domain/analytics"
	"github.com/GriffinCanCode/DigitalTwin/internal/domain/auth"
	"github.com/GriffinCanCode/DigitalTwin/internal/domain/desktop"
	"github.com/GriffinCanCode/DigitalTwin/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/DigitalTwin/internal/infrastructure/storage"
	"github.com/GriffinCanCode/DigitalTwin/internal/shared/types"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testServer struct {
	router  *gin.Engine
	store   *storage.Store
	auth    *auth.Service
	metrics *monitoring.Metrics
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	st, err := storage.Open(storage.MemoryPath, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	authSvc := auth.NewService(st, auth.Config{BcryptCost: bcrypt.MinCost}, nil)
	_, err = authSvc.Seed(context.Background(), auth.DefaultSeed())
	require.NoError(t, err)

	metrics := monitoring.NewMetrics()
	registry := desktop.NewRegistry(func(userID string) *desktop.Controller {
		return desktop.New(desktop.Options{UserID: userID, Store: st.KV(userID), Observer: metrics})
	}, metrics, nil)

	h := NewHandlers(Deps{
		Auth:      authSvc,
		Store:     st,
		Analytics: analytics.NewService(st, nil),
		Desktops:  registry,
		Metrics:   metrics,
	})
	router := gin.New()
	h.Register(router)

	return &testServer{router: router, store: st, auth: authSvc, metrics: metrics}
}

func (s *testServer) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var rdr *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		rdr = bytes.NewReader(raw)
	} else {
		rdr = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, rdr)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

// login returns a token and the account id
func (s *testServer) login(t *testing.T, username, password string) (string, string) {
	t.Helper()
	form := url.Values{"username": {username}, "password": {password}}
	req := httptest.NewRequest(http.MethodPost, "/token", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		AccessToken string     `json:"access_token"`
		TokenType   string     `json:"token_type"`
		User        types.User `json:"user"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, "bearer", resp.TokenType)
	return resp.AccessToken, resp.User.ID
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestRootAndHealth(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Digital Twin System Backend Running", decode(t, w)["message"])

	w = s.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "healthy", decode(t, w)["status"])
}

func TestLogin(t *testing.T) {
	s := newTestServer(t)

	token, _ := s.login(t, "admin", "admin123")
	w := s.do(t, http.MethodGet, "/users/me", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	user := decode(t, w)["user"].(map[string]interface{})
	assert.Equal(t, "admin", user["username"])
	assert.NotContains(t, w.Body.String(), "password")

	form := url.Values{"username": {"admin"}, "password": {"wrong-pass"}}
	req := httptest.NewRequest(http.MethodPost, "/token", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Incorrect username or password", decode(t, rec)["error"])
}

func TestLogoutRevokesToken(t *testing.T) {
	s := newTestServer(t)
	token, _ := s.login(t, "user1", "user123")

	assert.Equal(t, http.StatusOK, s.do(t, http.MethodPost, "/logout", token, nil).Code)
	assert.Equal(t, http.StatusUnauthorized, s.do(t, http.MethodGet, "/users/me", token, nil).Code)
}

func TestRegister(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/register", "", auth.RegisterRequest{
		Username: "newbie", Email: "newbie@digitaltwin.com", Password: "secret123",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "user", decode(t, w)["role"])

	w = s.do(t, http.MethodPost, "/register", "", auth.RegisterRequest{
		Username: "newbie", Email: "again@digitaltwin.com", Password: "secret123",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPost, "/register", "", auth.RegisterRequest{
		Username: "sneaky", Email: "sneaky@digitaltwin.com", Password: "secret123", Role: types.RoleStaff,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRoleGates(t *testing.T) {
	s := newTestServer(t)
	userToken, _ := s.login(t, "user1", "user123")

	assert.Equal(t, http.StatusUnauthorized, s.do(t, http.MethodGet, "/admin/dashboard/stats", "", nil).Code)

	w := s.do(t, http.MethodGet, "/admin/dashboard/stats", userToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "Admin access required", decode(t, w)["error"])

	w = s.do(t, http.MethodGet, "/staff/profile", userToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "Staff access required", decode(t, w)["error"])

	assert.Equal(t, http.StatusForbidden, s.do(t, http.MethodGet, "/activity/all", userToken, nil).Code)
}

func TestLogActivity(t *testing.T) {
	s := newTestServer(t)
	userToken, userID := s.login(t, "user1", "user123")
	adminToken, adminID := s.login(t, "admin", "admin123")

	w := s.do(t, http.MethodPost, "/activity/log", userToken, gin.H{"user_id": adminID, "action": "file_opened"})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "Can only log your own activities", decode(t, w)["error"])

	w = s.do(t, http.MethodPost, "/activity/log", userToken, gin.H{"action": "file_opened", "details": gin.H{"name": "a.txt"}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	logged := decode(t, w)
	assert.Equal(t, userID, logged["user_id"])
	assert.JSONEq(t, `{"name":"a.txt"}`, logged["details"].(string))

	w = s.do(t, http.MethodPost, "/activity/log", adminToken, gin.H{"user_id": userID, "action": "failed_login"})
	require.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodPost, "/activity/log", userToken, gin.H{"details": "no action"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodGet, "/activity/user/"+userID, userToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var acts []types.StoredActivity
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &acts))
	actions := make([]string, 0, len(acts))
	for _, a := range acts {
		actions = append(actions, a.Action)
	}
	assert.Contains(t, actions, "file_opened")
	assert.Contains(t, actions, "failed_login")

	assert.Equal(t, http.StatusForbidden, s.do(t, http.MethodGet, "/activity/user/"+adminID, userToken, nil).Code)
	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodGet, "/activity/user/"+userID+"?limit=0", userToken, nil).Code)

	w = s.do(t, http.MethodGet, "/activity/suspicious", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &acts))
	for _, a := range acts {
		assert.NotEqual(t, "file_opened", a.Action)
	}
}

func TestActivitiesByTimeRange(t *testing.T) {
	s := newTestServer(t)
	adminToken, _ := s.login(t, "admin", "admin123")

	w := s.do(t, http.MethodGet, "/activity/time-range?start_date=yesterday&end_date=2026-01-01", adminToken, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid date format", decode(t, w)["error"])

	w = s.do(t, http.MethodGet, "/activity/time-range?start_date=2000-01-01&end_date=2100-01-01", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var acts []types.StoredActivity
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &acts))
	assert.NotNil(t, acts)
}

func TestAdminDomainScope(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()
	_, err := s.auth.Register(ctx, auth.RegisterRequest{Username: "outsider", Email: "outsider@elsewhere.org", Password: "secret123"})
	require.NoError(t, err)
	outsider, err := s.store.UserByUsername(ctx, "outsider")
	require.NoError(t, err)

	adminToken, _ := s.login(t, "admin", "admin123")

	w := s.do(t, http.MethodGet, "/admin/users", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var users []types.User
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &users))
	assert.Len(t, users, 3)

	w = s.do(t, http.MethodGet, "/admin/users/"+outsider.ID, adminToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(t, http.MethodGet, "/admin/dashboard/stats", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	stats := decode(t, w)
	assert.Equal(t, float64(3), stats["total_users"])
	assert.Equal(t, float64(1), stats["admin_users"])
	assert.Equal(t, float64(1), stats["staff_users"])
}

func TestUpdateUserStatus(t *testing.T) {
	s := newTestServer(t)
	adminToken, adminID := s.login(t, "admin", "admin123")
	userToken, userID := s.login(t, "user1", "user123")

	w := s.do(t, http.MethodPut, "/admin/users/"+userID+"/status?is_active=maybe", adminToken, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPut, "/admin/users/"+userID+"/status?is_active=false", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, false, decode(t, w)["user"].(map[string]interface{})["is_active"])

	assert.Equal(t, http.StatusUnauthorized, s.do(t, http.MethodGet, "/users/me", userToken, nil).Code)

	w = s.do(t, http.MethodDelete, "/admin/users/"+adminID, adminToken, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPut, "/admin/users/missing/status?is_active=true", adminToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreateStaffAndStaffRoutes(t *testing.T) {
	s := newTestServer(t)
	adminToken, _ := s.login(t, "admin", "admin123")

	w := s.do(t, http.MethodPost, "/admin/staff/create", adminToken, auth.StaffRequest{
		Username: "staff9", Email: "staff9@elsewhere.org", Password: "secret123", Department: "IT",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPost, "/admin/staff/create", adminToken, auth.StaffRequest{
		Username: "staff9", Email: "staff9@digitaltwin.com", Password: "secret123", Department: "IT",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	token, _ := s.login(t, "staff9", "secret123")

	w = s.do(t, http.MethodGet, "/staff/profile", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "IT", decode(t, w)["staff_info"].(map[string]interface{})["department"])

	w = s.do(t, http.MethodGet, "/staff/department/stats", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	stats := decode(t, w)["statistics"].(map[string]interface{})
	assert.Equal(t, float64(2), stats["total_staff"])
	assert.Equal(t, float64(2), stats["active_staff"])

	w = s.do(t, http.MethodGet, "/staff/colleagues", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	colleagues := decode(t, w)["colleagues"].([]interface{})
	require.Len(t, colleagues, 1)
	assert.Equal(t, "staff1", colleagues[0].(map[string]interface{})["user"].(map[string]interface{})["username"])

	w = s.do(t, http.MethodGet, "/staff/performance/metrics", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(30), decode(t, w)["period_days"])

	w = s.do(t, http.MethodGet, "/staff/activities/recent?hours=200", token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdateStaffDepartment(t *testing.T) {
	s := newTestServer(t)
	token, _ := s.login(t, "staff1", "staff123")
	userToken, _ := s.login(t, "user1", "user123")

	w := s.do(t, http.MethodPut, "/staff/profile/department?new_department=Finance", userToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(t, http.MethodPut, "/staff/profile/department", token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPut, "/staff/profile/department?new_department=Finance", token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "Finance", decode(t, w)["staff_info"].(map[string]interface{})["department"])

	w = s.do(t, http.MethodGet, "/staff/profile", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Finance", decode(t, w)["staff_info"].(map[string]interface{})["department"])

	w = s.do(t, http.MethodGet, "/staff/colleagues", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Finance", decode(t, w)["department"])
}

func TestMalformedIDsAndQueries(t *testing.T) {
	s := newTestServer(t)
	adminToken, _ := s.login(t, "admin", "admin123")
	userToken, _ := s.login(t, "user1", "user123")

	tests := []struct {
		name   string
		method string
		path   string
		token  string
	}{
		{"get user", http.MethodGet, "/admin/users/bad.id", adminToken},
		{"status", http.MethodPut, "/admin/users/bad.id/status?is_active=true", adminToken},
		{"delete", http.MethodDelete, "/admin/users/bad.id", adminToken},
		{"activity summary", http.MethodGet, "/admin/users/bad.id/activity", adminToken},
		{"user activities", http.MethodGet, "/activity/user/bad.id", userToken},
		{"long search", http.MethodGet, "/desktop/search?q=" + strings.Repeat("q", 257), userToken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(t, tt.method, tt.path, tt.token, nil)
			assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
		})
	}

	w := s.do(t, http.MethodGet, "/desktop/search?q=report", userToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestExportActivities(t *testing.T) {
	s := newTestServer(t)
	adminToken, _ := s.login(t, "admin", "admin123")
	userToken, _ := s.login(t, "user1", "user123")
	require.Equal(t, http.StatusOK, s.do(t, http.MethodPost, "/activity/log", userToken, gin.H{"action": "report_viewed"}).Code)

	w := s.do(t, http.MethodGet, "/admin/activities/export", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/gzip", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "attachment")

	rows, err := storage.ReadExport(w.Body)
	require.NoError(t, err)
	found := false
	for _, r := range rows {
		if r.Action == "report_viewed" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestDesktopFlow(t *testing.T) {
	s := newTestServer(t)
	token, _ := s.login(t, "user1", "user123")

	w := s.do(t, http.MethodGet, "/desktop/state", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	state := decode(t, w)["state"].(map[string]interface{})
	assert.Equal(t, "light", state["currentTheme"])

	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodPost, "/desktop/apps/solitaire/launch", token, nil).Code)

	w = s.do(t, http.MethodPost, "/desktop/apps/email/launch", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "done", decode(t, w)["outcome"])

	w = s.do(t, http.MethodGet, "/desktop/email", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, decode(t, w)["emails"])

	w = s.do(t, http.MethodGet, "/desktop/email/no-such-mail", token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, http.MethodPost, "/desktop/theme/toggle", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "dark", decode(t, w)["state"].(map[string]interface{})["currentTheme"])

	w = s.do(t, http.MethodPut, "/desktop/settings", token, gin.H{"allowFileDownload": false})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(t, http.MethodPost, "/desktop/files/download/Report.pdf", token, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "denied", decode(t, w)["outcome"])

	w = s.do(t, http.MethodGet, "/desktop/search?q=ab", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []interface{}{}, decode(t, w)["results"])

	w = s.do(t, http.MethodGet, "/desktop/activity", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, decode(t, w)["activities"])

	assert.Equal(t, float64(1), s.metricsSessions())

	w = s.do(t, http.MethodPost, "/desktop/logout", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(0), s.metricsSessions())
	assert.Equal(t, http.StatusUnauthorized, s.do(t, http.MethodGet, "/desktop/state", token, nil).Code)
}

func TestSettingsAccessDenied(t *testing.T) {
	s := newTestServer(t)
	token, _ := s.login(t, "user1", "user123")

	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodPost, "/desktop/settings/tab/security", token, nil).Code)
	require.Equal(t, http.StatusOK, s.do(t, http.MethodPost, "/desktop/apps/settings/launch", token, nil).Code)

	w := s.do(t, http.MethodPost, "/desktop/settings/tab/security", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	w = s.do(t, http.MethodGet, "/desktop/settings", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "security", decode(t, w)["tab"])

	w = s.do(t, http.MethodPut, "/desktop/settings", token, gin.H{"allowThemeChange": false})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(t, http.MethodPost, "/desktop/settings/tab/privacy", token, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "denied", decode(t, w)["outcome"])

	w = s.do(t, http.MethodGet, "/desktop/settings", token, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(t, http.MethodGet, "/desktop/state", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "security", decode(t, w)["state"].(map[string]interface{})["currentSettingsTab"])
}

func (s *testServer) metricsSessions() float64 {
	return float64(s.metrics.Snapshot().DesktopSessions)
}

func TestUploadExecutableDenied(t *testing.T) {
	s := newTestServer(t)
	token, _ := s.login(t, "user1", "user123")
	require.Equal(t, http.StatusOK, s.do(t, http.MethodPost, "/desktop/apps/file-explorer/launch", token, nil).Code)

	upload := func(name string, content []byte) int {
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		part, err := mw.CreateFormFile("file", name)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
		require.NoError(t, mw.Close())

		req := httptest.NewRequest(http.MethodPost, "/desktop/files/upload", &buf)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		s.router.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, upload("notes.txt", []byte("hello")))
	assert.Equal(t, http.StatusForbidden, upload("setup.exe", []byte("MZ\x90\x00")))
}

func TestStreamLogs(t *testing.T) {
	s := newTestServer(t)
	token, _ := s.login(t, "user1", "user123")

	w := s.do(t, http.MethodPost, "/logs/stream", token, UILogStreamRequest{
		Source:  "ui",
		Entries: []UILogEntry{{ID: "1", Level: "warn", Message: "slow render", Context: map[string]interface{}{"ms": 120.0}}},
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), decode(t, w)["entries_received"])

	w = s.do(t, http.MethodPost, "/logs/stream", token, UILogStreamRequest{Source: "kernel", Entries: []UILogEntry{{ID: "1"}}})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPost, "/logs/stream", token, UILogStreamRequest{Source: "ui"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestParseTime(t *testing.T) {
	for _, in := range []string{"2026-03-10T15:00:00Z", "2026-03-10T15:00:00", "2026-03-10"} {
		_, err := parseTime(in)
		assert.NoError(t, err, in)
	}
	_, err := parseTime("03/10/2026")
	assert.Error(t, err)
}

package analytics

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/DigitalTwin/internal/infrastructure/storage"
	"github.com/GriffinCanCode/DigitalTwin/internal/shared/types"
)

var testNow = time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)

type fixture struct {
	svc   *Service
	store *storage.Store
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	ctx := context.Background()
	st, err := storage.Open(storage.MemoryPath, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	users := []types.User{
		{ID: "admin", Username: "admin", Email: "admin@digitaltwin.com", Role: types.RoleAdmin, IsActive: true},
		{ID: "staff1", Username: "staff1", Email: "staff1@digitaltwin.com", Role: types.RoleStaff, IsActive: true},
		{ID: "staff2", Username: "staff2", Email: "staff2@digitaltwin.com", Role: types.RoleStaff, IsActive: false},
		{ID: "user1", Username: "user1", Email: "user1@digitaltwin.com", Role: types.RoleUser, IsActive: true},
		{ID: "other", Username: "other", Email: "other@elsewhere.org", Role: types.RoleUser, IsActive: true},
	}
	for _, u := range users {
		u.PasswordHash = "hash"
		require.NoError(t, st.CreateUser(ctx, u))
	}
	require.NoError(t, st.CreateStaff(ctx, types.Staff{ID: "s1", UserID: "staff1", Department: "IT"}))
	require.NoError(t, st.CreateStaff(ctx, types.Staff{ID: "s2", UserID: "staff2", Department: "IT"}))

	return fixture{svc: NewService(st, func() time.Time { return testNow }), store: st}
}

func (f fixture) log(t *testing.T, userID, action string, ago time.Duration) {
	t.Helper()
	_, err := f.store.InsertActivity(context.Background(), types.StoredActivity{
		UserID:    userID,
		Action:    action,
		Timestamp: testNow.Add(-ago),
	})
	require.NoError(t, err)
}

func TestDomainUsers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	users, err := f.svc.DomainUsers(ctx, "digitaltwin.com")
	require.NoError(t, err)
	assert.Len(t, users, 4)

	all, err := f.svc.DomainUsers(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 5)
}

func TestDashboard(t *testing.T) {
	f := newFixture(t)
	f.log(t, "user1", "user_login", time.Hour)
	f.log(t, "user1", "failed_login", 2*time.Hour)
	f.log(t, "staff1", "file_access_denied", 3*time.Hour)
	f.log(t, "staff1", "user_login", 30*time.Hour)
	f.log(t, "other", "failed_login", time.Hour)

	st, err := f.svc.Dashboard(context.Background(), "digitaltwin.com")
	require.NoError(t, err)

	assert.Equal(t, DashboardStats{
		TotalUsers:           4,
		ActiveUsers:          3,
		AdminUsers:           1,
		StaffUsers:           2,
		RecentActivities:     4,
		SuspiciousActivities: 2,
		TodayActivities:      3,
	}, st)
}

func TestDashboardEmptyDomain(t *testing.T) {
	f := newFixture(t)
	f.log(t, "user1", "user_login", time.Hour)

	st, err := f.svc.Dashboard(context.Background(), "nobody.net")
	require.NoError(t, err)
	assert.Equal(t, DashboardStats{}, st)
}

func TestSecurityAlerts(t *testing.T) {
	f := newFixture(t)
	f.log(t, "user1", "failed_login", time.Hour)
	f.log(t, "user1", "user_login", time.Hour)
	f.log(t, "other", "policy_denied", time.Hour)

	alerts, err := f.svc.SecurityAlerts(context.Background(), "digitaltwin.com", 20)
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, "failed_login", alerts[0].Action)

	alerts, err = f.svc.SecurityAlerts(context.Background(), "", 20)
	require.NoError(t, err)
	assert.Len(t, alerts, 2)
}

func TestActivityAnalytics(t *testing.T) {
	f := newFixture(t)
	f.log(t, "user1", "user_login", time.Hour)
	f.log(t, "user1", "user_login", 25*time.Hour)
	f.log(t, "staff1", "file_uploaded", 25*time.Hour)
	f.log(t, "user1", "user_login", 40*24*time.Hour)

	a, err := f.svc.ActivityAnalytics(context.Background(), "digitaltwin.com", 30)
	require.NoError(t, err)
	assert.Equal(t, 3, a.TotalActivities)
	assert.Equal(t, 30, a.PeriodDays)
	assert.Equal(t, map[string]int{"2026-03-10": 1, "2026-03-09": 2}, a.DailyActivities)
	assert.Equal(t, map[string]int{"user_login": 2, "file_uploaded": 1}, a.ActivityTypes)
}

func TestUserActivity(t *testing.T) {
	f := newFixture(t)
	for i := 0; i < 12; i++ {
		f.log(t, "user1", "search_performed", time.Duration(i+1)*time.Minute)
	}
	f.log(t, "staff1", "user_login", time.Minute)

	sum, err := f.svc.UserActivity(context.Background(), "user1", 7)
	require.NoError(t, err)
	assert.Equal(t, "user1", sum.User.Username)
	assert.Equal(t, 12, sum.TotalActivities)
	assert.Equal(t, map[string]int{"search_performed": 12}, sum.ActivityBreakdown)
	assert.Len(t, sum.RecentActivities, 10)

	_, err = f.svc.UserActivity(context.Background(), "ghost", 7)
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestActivitySummary(t *testing.T) {
	f := newFixture(t)
	f.log(t, "user1", "app_opened", time.Hour)
	f.log(t, "user1", "app_opened", 26*time.Hour)
	f.log(t, "user1", "theme_changed", 26*time.Hour)

	sum, err := f.svc.ActivitySummary(context.Background(), "user1", 7)
	require.NoError(t, err)
	assert.Equal(t, 3, sum.TotalActivities)
	assert.Equal(t, 7, sum.PeriodDays)
	assert.Equal(t, map[string]int{"app_opened": 2, "theme_changed": 1}, sum.ActionBreakdown)
	assert.Equal(t, map[string]int{"2026-03-10": 1, "2026-03-09": 2}, sum.DailyBreakdown)
}

func TestStaffViews(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.log(t, "staff1", "task_completed", time.Hour)
	f.log(t, "staff1", "upload_failed", time.Hour)
	f.log(t, "staff1", "user_login", time.Hour)
	f.log(t, "staff2", "user_login", 2*time.Hour)

	sum, err := f.svc.StaffActivity(ctx, "staff1", 7)
	require.NoError(t, err)
	assert.Equal(t, "IT", sum.Staff.Department)
	assert.Equal(t, 3, sum.TotalActivities)

	perf, err := f.svc.StaffPerformance(ctx, "staff1", 30)
	require.NoError(t, err)
	assert.Equal(t, 1, perf.SuccessfulActivities)
	assert.Equal(t, 1, perf.FailedActivities)
	assert.Equal(t, 33.33, perf.SuccessRate)

	_, err = f.svc.StaffPerformance(ctx, "user1", 30)
	assert.ErrorIs(t, err, types.ErrNotFound)

	depts, err := f.svc.Departments(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]DepartmentStats{"IT": {TotalStaff: 2, ActiveStaff: 1}}, depts)

	acts, err := f.svc.DepartmentActivities(ctx, "IT", 7)
	require.NoError(t, err)
	assert.Len(t, acts, 4)

	acts, err = f.svc.DepartmentActivities(ctx, "HR", 7)
	require.NoError(t, err)
	assert.Empty(t, acts)
}

func TestDomainSummary(t *testing.T) {
	f := newFixture(t)
	f.log(t, "user1", "user_login", time.Hour)
	f.log(t, "other", "user_login", time.Hour)

	sum, err := f.svc.Summary(context.Background(), "digitaltwin.com", 7)
	require.NoError(t, err)
	assert.Equal(t, 1, sum.TotalActivities)
	assert.Equal(t, map[string]int{"user_login": 1}, sum.ActionBreakdown)
}

package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/GriffinCanCode/DigitalTwin/internal/domain/activity"
	"github.com/GriffinCanCode/DigitalTwin/internal/domain/auth"
	"github.com/GriffinCanCode/DigitalTwin/internal/infrastructure/storage"
	"github.com/GriffinCanCode/DigitalTwin/internal/shared/types"
)

// Store is the read side of the account and activity database
type Store interface {
	ListUsers(ctx context.Context) ([]types.User, error)
	UserByID(ctx context.Context, id string) (types.User, error)
	ListStaff(ctx context.Context, department string) ([]types.Staff, error)
	StaffByUserID(ctx context.Context, userID string) (types.Staff, error)
	Activities(ctx context.Context, f storage.ActivityFilter) ([]types.StoredActivity, error)
}

const (
	dashboardRecent     = 10
	dashboardSuspicious = 5
	summaryRecent       = 10
)

// Service answers the reporting queries of the admin and staff dashboards.
// Queries taking a domain restrict users to that email domain; an empty
// domain means every user.
type Service struct {
	store Store
	clock func() time.Time
}

// NewService creates a reporting service
func NewService(store Store, clock func() time.Time) *Service {
	if clock == nil {
		clock = time.Now
	}
	return &Service{store: store, clock: clock}
}

// DomainUsers lists users whose email belongs to domain
func (s *Service) DomainUsers(ctx context.Context, domain string) ([]types.User, error) {
	users, err := s.store.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	if domain == "" {
		return users, nil
	}
	out := make([]types.User, 0, len(users))
	for _, u := range users {
		if auth.EmailDomain(u.Email) == domain {
			out = append(out, u)
		}
	}
	return out, nil
}

func (s *Service) domainIDs(ctx context.Context, domain string) ([]string, error) {
	if domain == "" {
		return nil, nil
	}
	users, err := s.DomainUsers(ctx, domain)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(users))
	for i, u := range users {
		ids[i] = u.ID
	}
	return ids, nil
}

// DashboardStats is the admin dashboard header
type DashboardStats struct {
	TotalUsers           int `json:"total_users"`
	ActiveUsers          int `json:"active_users"`
	AdminUsers           int `json:"admin_users"`
	StaffUsers           int `json:"staff_users"`
	RecentActivities     int `json:"recent_activities"`
	SuspiciousActivities int `json:"suspicious_activities"`
	TodayActivities      int `json:"today_activities"`
}

// Dashboard computes user counts and activity counts for domain
func (s *Service) Dashboard(ctx context.Context, domain string) (DashboardStats, error) {
	users, err := s.DomainUsers(ctx, domain)
	if err != nil {
		return DashboardStats{}, fmt.Errorf("dashboard users: %w", err)
	}

	var st DashboardStats
	ids := make([]string, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.ID)
		st.TotalUsers++
		if u.IsActive {
			st.ActiveUsers++
		}
		switch u.Role {
		case types.RoleAdmin:
			st.AdminUsers++
		case types.RoleStaff:
			st.StaffUsers++
		}
	}
	if domain == "" {
		ids = nil
	} else if len(ids) == 0 {
		return st, nil
	}

	recent, err := s.store.Activities(ctx, storage.ActivityFilter{UserIDs: ids, Limit: dashboardRecent})
	if err != nil {
		return DashboardStats{}, fmt.Errorf("dashboard recent: %w", err)
	}
	suspicious, err := s.store.Activities(ctx, storage.ActivityFilter{
		UserIDs: ids,
		Actions: activity.SuspiciousActions(),
		Limit:   dashboardSuspicious,
	})
	if err != nil {
		return DashboardStats{}, fmt.Errorf("dashboard suspicious: %w", err)
	}

	now := s.clock().UTC()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	today, err := s.store.Activities(ctx, storage.ActivityFilter{
		UserIDs: ids,
		Since:   midnight,
		Until:   midnight.Add(24*time.Hour - time.Millisecond),
	})
	if err != nil {
		return DashboardStats{}, fmt.Errorf("dashboard today: %w", err)
	}

	st.RecentActivities = len(recent)
	st.SuspiciousActivities = len(suspicious)
	st.TodayActivities = len(today)
	return st, nil
}

// SecurityAlerts returns the newest suspicious activities in domain
func (s *Service) SecurityAlerts(ctx context.Context, domain string, limit int) ([]types.StoredActivity, error) {
	ids, err := s.domainIDs(ctx, domain)
	if err != nil {
		return nil, err
	}
	if domain != "" && len(ids) == 0 {
		return []types.StoredActivity{}, nil
	}
	return s.store.Activities(ctx, storage.ActivityFilter{
		UserIDs: ids,
		Actions: activity.SuspiciousActions(),
		Limit:   limit,
	})
}

// Analytics is the admin activity chart data
type Analytics struct {
	TotalActivities int            `json:"total_activities"`
	DailyActivities map[string]int `json:"daily_activities"`
	ActivityTypes   map[string]int `json:"activity_types"`
	PeriodDays      int            `json:"period_days"`
}

// ActivityAnalytics groups the last days of domain activity by day and type
func (s *Service) ActivityAnalytics(ctx context.Context, domain string, days int) (Analytics, error) {
	acts, err := s.window(ctx, domain, days)
	if err != nil {
		return Analytics{}, err
	}
	return Analytics{
		TotalActivities: len(acts),
		DailyActivities: CountByDay(acts),
		ActivityTypes:   CountByAction(acts),
		PeriodDays:      days,
	}, nil
}

// Summary groups the last days of domain activity by action and day
func (s *Service) Summary(ctx context.Context, domain string, days int) (Summary, error) {
	acts, err := s.window(ctx, domain, days)
	if err != nil {
		return Summary{}, err
	}
	return Summarize(acts, days), nil
}

// Since returns activities of the given users in the last d
func (s *Service) Since(ctx context.Context, userIDs []string, d time.Duration) ([]types.StoredActivity, error) {
	now := s.clock()
	return s.store.Activities(ctx, storage.ActivityFilter{UserIDs: userIDs, Since: now.Add(-d), Until: now})
}

func (s *Service) window(ctx context.Context, domain string, days int) ([]types.StoredActivity, error) {
	ids, err := s.domainIDs(ctx, domain)
	if err != nil {
		return nil, err
	}
	if domain != "" && len(ids) == 0 {
		return []types.StoredActivity{}, nil
	}
	return s.Since(ctx, ids, time.Duration(days)*24*time.Hour)
}

// UserSummary is one account's recent activity
type UserSummary struct {
	User              types.User             `json:"user"`
	TotalActivities   int                    `json:"total_activities"`
	ActivityBreakdown map[string]int         `json:"activity_breakdown"`
	RecentActivities  []types.StoredActivity `json:"recent_activities"`
}

// UserActivity summarizes the last days of one user's activity
func (s *Service) UserActivity(ctx context.Context, userID string, days int) (UserSummary, error) {
	user, err := s.store.UserByID(ctx, userID)
	if err != nil {
		return UserSummary{}, err
	}
	acts, err := s.Since(ctx, []string{userID}, time.Duration(days)*24*time.Hour)
	if err != nil {
		return UserSummary{}, err
	}
	return UserSummary{
		User:              user,
		TotalActivities:   len(acts),
		ActivityBreakdown: CountByAction(acts),
		RecentActivities:  head(acts, summaryRecent),
	}, nil
}

// ActivitySummary summarizes a user's last days by action and day
func (s *Service) ActivitySummary(ctx context.Context, userID string, days int) (Summary, error) {
	acts, err := s.Since(ctx, []string{userID}, time.Duration(days)*24*time.Hour)
	if err != nil {
		return Summary{}, err
	}
	return Summarize(acts, days), nil
}

// StaffSummary is a staff member's recent activity
type StaffSummary struct {
	Staff             types.Staff            `json:"staff"`
	TotalActivities   int                    `json:"total_activities"`
	ActivityBreakdown map[string]int         `json:"activity_breakdown"`
	RecentActivities  []types.StoredActivity `json:"recent_activities"`
}

// StaffActivity summarizes the last days of a staff member's activity
func (s *Service) StaffActivity(ctx context.Context, userID string, days int) (StaffSummary, error) {
	st, err := s.store.StaffByUserID(ctx, userID)
	if err != nil {
		return StaffSummary{}, err
	}
	acts, err := s.Since(ctx, []string{userID}, time.Duration(days)*24*time.Hour)
	if err != nil {
		return StaffSummary{}, err
	}
	return StaffSummary{
		Staff:             st,
		TotalActivities:   len(acts),
		ActivityBreakdown: CountByAction(acts),
		RecentActivities:  head(acts, summaryRecent),
	}, nil
}

// StaffPerformance measures a staff member over the last days
func (s *Service) StaffPerformance(ctx context.Context, userID string, days int) (Performance, error) {
	if _, err := s.store.StaffByUserID(ctx, userID); err != nil {
		return Performance{}, err
	}
	acts, err := s.Since(ctx, []string{userID}, time.Duration(days)*24*time.Hour)
	if err != nil {
		return Performance{}, err
	}
	return Measure(acts, days), nil
}

// DepartmentStats counts staff per department
type DepartmentStats struct {
	TotalStaff  int `json:"total_staff"`
	ActiveStaff int `json:"active_staff"`
}

// Departments returns staff counts keyed by department
func (s *Service) Departments(ctx context.Context) (map[string]DepartmentStats, error) {
	staff, err := s.store.ListStaff(ctx, "")
	if err != nil {
		return nil, err
	}
	users, err := s.store.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	active := make(map[string]bool, len(users))
	for _, u := range users {
		active[u.ID] = u.IsActive
	}

	out := make(map[string]DepartmentStats)
	for _, st := range staff {
		d := out[st.Department]
		d.TotalStaff++
		if active[st.UserID] {
			d.ActiveStaff++
		}
		out[st.Department] = d
	}
	return out, nil
}

// DepartmentActivities returns the last days of activity by a department's staff
func (s *Service) DepartmentActivities(ctx context.Context, department string, days int) ([]types.StoredActivity, error) {
	staff, err := s.store.ListStaff(ctx, department)
	if err != nil {
		return nil, err
	}
	if len(staff) == 0 {
		return []types.StoredActivity{}, nil
	}
	ids := make([]string, len(staff))
	for i, st := range staff {
		ids[i] = st.UserID
	}
	return s.Since(ctx, ids, time.Duration(days)*24*time.Hour)
}

func head(acts []types.StoredActivity, n int) []types.StoredActivity {
	if len(acts) > n {
		return acts[:n]
	}
	return acts
}

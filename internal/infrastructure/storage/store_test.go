package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/DigitalTwin/internal/shared/types"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(MemoryPath, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func testUser(id, name string, role types.Role) types.User {
	return types.User{
		ID:           id,
		Username:     name,
		Email:        name + "@digitaltwin.com",
		PasswordHash: "hash",
		Role:         role,
		IsActive:     true,
	}
}

func TestOpenCreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "twin.sqlite")
	s, err := Open(path, nil)
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Ping(context.Background()))
	assert.FileExists(t, path)
}

func TestUsers(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, s.CreateUser(ctx, testUser("u1", "alice", types.RoleAdmin)))
	require.NoError(t, s.CreateUser(ctx, testUser("u2", "bob", types.RoleUser)))

	got, err := s.UserByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "u1", got.ID)
	assert.Equal(t, types.RoleAdmin, got.Role)
	assert.True(t, got.IsActive)
	assert.False(t, got.CreatedAt.IsZero())

	got, err = s.UserByEmail(ctx, "bob@digitaltwin.com")
	require.NoError(t, err)
	assert.Equal(t, "bob", got.Username)

	_, err = s.UserByID(ctx, "missing")
	assert.ErrorIs(t, err, types.ErrNotFound)

	users, err := s.ListUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 2)
}

func TestCreateUserConflict(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, s.CreateUser(ctx, testUser("u1", "alice", types.RoleUser)))

	err := s.CreateUser(ctx, testUser("u2", "alice", types.RoleUser))
	assert.ErrorIs(t, err, types.ErrConflict)

	dupEmail := testUser("u3", "carol", types.RoleUser)
	dupEmail.Email = "alice@digitaltwin.com"
	assert.ErrorIs(t, s.CreateUser(ctx, dupEmail), types.ErrConflict)
}

func TestSetUserActive(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	require.NoError(t, s.CreateUser(ctx, testUser("u1", "alice", types.RoleUser)))

	require.NoError(t, s.SetUserActive(ctx, "u1", false))
	got, err := s.UserByID(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, got.IsActive)

	assert.ErrorIs(t, s.SetUserActive(ctx, "nobody", true), types.ErrNotFound)
}

func TestStaff(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	require.NoError(t, s.CreateUser(ctx, testUser("u1", "staff1", types.RoleStaff)))
	require.NoError(t, s.CreateUser(ctx, testUser("u2", "staff2", types.RoleStaff)))

	require.NoError(t, s.CreateStaff(ctx, types.Staff{ID: "s1", UserID: "u1", Department: "IT"}))
	require.NoError(t, s.CreateStaff(ctx, types.Staff{ID: "s2", UserID: "u2", Department: "HR"}))
	assert.ErrorIs(t, s.CreateStaff(ctx, types.Staff{ID: "s3", UserID: "u1", Department: "HR"}), types.ErrConflict)

	st, err := s.StaffByUserID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "IT", st.Department)

	it, err := s.ListStaff(ctx, "IT")
	require.NoError(t, err)
	require.Len(t, it, 1)
	assert.Equal(t, "u1", it[0].UserID)

	all, err := s.ListStaff(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	_, err = s.StaffByUserID(ctx, "u9")
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestCreateStaffUserAtomic(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, s.CreateStaffUser(ctx, testUser("u1", "staff1", types.RoleStaff),
		types.Staff{ID: "s1", Department: "IT"}))
	st, err := s.StaffByUserID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "s1", st.ID)

	// staff id collides, so the user row must roll back too
	err = s.CreateStaffUser(ctx, testUser("u2", "staff2", types.RoleStaff),
		types.Staff{ID: "s1", Department: "HR"})
	require.Error(t, err)
	_, err = s.UserByUsername(ctx, "staff2")
	assert.ErrorIs(t, err, types.ErrNotFound)

	// username collides before the staff insert
	err = s.CreateStaffUser(ctx, testUser("u3", "staff1", types.RoleStaff),
		types.Staff{ID: "s3", Department: "HR"})
	assert.ErrorIs(t, err, types.ErrConflict)
	_, err = s.StaffByUserID(ctx, "u3")
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestUpdateStaffDepartment(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	require.NoError(t, s.CreateStaffUser(ctx, testUser("u1", "staff1", types.RoleStaff),
		types.Staff{ID: "s1", Department: "IT"}))

	prev, err := s.UpdateStaffDepartment(ctx, "u1", "HR")
	require.NoError(t, err)
	assert.Equal(t, "IT", prev.Department)

	st, err := s.StaffByUserID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "HR", st.Department)

	_, err = s.UpdateStaffDepartment(ctx, "u9", "HR")
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestActivities(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	rows := []types.StoredActivity{
		{UserID: "u1", Action: "login", Timestamp: base},
		{UserID: "u1", Action: "failed_login", Timestamp: base.Add(time.Hour)},
		{UserID: "u2", Action: "file_downloaded", Details: `{"fileName":"a.txt"}`, Timestamp: base.Add(2 * time.Hour)},
		{UserID: "u2", Action: "failed_login", Timestamp: base.Add(3 * time.Hour)},
	}
	for _, r := range rows {
		stored, err := s.InsertActivity(ctx, r)
		require.NoError(t, err)
		assert.NotZero(t, stored.ID)
	}

	all, err := s.Activities(ctx, ActivityFilter{})
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, "u2", all[0].UserID, "newest first")
	assert.True(t, all[0].Timestamp.Equal(base.Add(3*time.Hour)))

	byUser, err := s.Activities(ctx, ActivityFilter{UserIDs: []string{"u1"}})
	require.NoError(t, err)
	assert.Len(t, byUser, 2)

	failed, err := s.Activities(ctx, ActivityFilter{Actions: []string{"failed_login", "unauthorized_access"}})
	require.NoError(t, err)
	assert.Len(t, failed, 2)

	window, err := s.Activities(ctx, ActivityFilter{Since: base.Add(time.Hour), Until: base.Add(2 * time.Hour)})
	require.NoError(t, err)
	assert.Len(t, window, 2)

	limited, err := s.Activities(ctx, ActivityFilter{Limit: 1})
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, "failed_login", limited[0].Action)

	empty, err := s.Activities(ctx, ActivityFilter{UserIDs: []string{"nobody"}})
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestKV(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	alice, bob := s.KV("alice"), s.KV("bob")

	_, ok, err := alice.Get(ctx, "userSettings")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, alice.Set(ctx, "userSettings", `{"sessionTimeout":45}`))
	require.NoError(t, alice.Set(ctx, "userSettings", `{"sessionTimeout":50}`))

	v, ok, err := alice.Get(ctx, "userSettings")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `{"sessionTimeout":50}`, v)

	_, ok, err = bob.Get(ctx, "userSettings")
	require.NoError(t, err)
	assert.False(t, ok, "namespaces are isolated")

	require.NoError(t, alice.Remove(ctx, "userSettings"))
	require.NoError(t, alice.Remove(ctx, "userSettings"))
	_, ok, err = alice.Get(ctx, "userSettings")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestKVPersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "twin.sqlite")

	s, err := Open(path, nil)
	require.NoError(t, err)
	require.NoError(t, s.KV("alice").Set(ctx, "userSettings", "saved"))
	require.NoError(t, s.Close())

	s, err = Open(path, nil)
	require.NoError(t, err)
	defer s.Close()

	v, ok, err := s.KV("alice").Get(ctx, "userSettings")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "saved", v)
}

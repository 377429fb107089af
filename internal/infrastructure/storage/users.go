package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/GriffinCanCode/DigitalTwin/internal/shared/types"
)

const userColumns = "id, username, email, password_hash, role, is_active, created_at"

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanUser(row rowScanner) (types.User, error) {
	var (
		u       types.User
		role    string
		active  int
		created int64
	)
	if err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &role, &active, &created); err != nil {
		return types.User{}, err
	}
	u.Role = types.Role(role)
	u.IsActive = active != 0
	u.CreatedAt = time.UnixMilli(created).UTC()
	return u, nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// CreateUser inserts a user. A taken username or email gives ErrConflict.
func (s *Store) CreateUser(ctx context.Context, u types.User) error {
	return s.insertUser(ctx, s.db, u)
}

func (s *Store) insertUser(ctx context.Context, db execer, u types.User) error {
	if u.CreatedAt.IsZero() {
		u.CreatedAt = s.now()
	}
	_, err := db.ExecContext(ctx,
		"INSERT INTO users ("+userColumns+") VALUES (?, ?, ?, ?, ?, ?, ?)",
		u.ID, u.Username, u.Email, u.PasswordHash, string(u.Role), boolToInt(u.IsActive), u.CreatedAt.UnixMilli())
	if isUniqueErr(err) {
		return fmt.Errorf("user %q: %w", u.Username, types.ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// CreateStaffUser inserts a user together with its staff record. Either
// both rows land or neither does.
func (s *Store) CreateStaffUser(ctx context.Context, u types.User, st types.Staff) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin staff user: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = s.insertUser(ctx, tx, u); err != nil {
		return err
	}
	st.UserID = u.ID
	if err = insertStaff(ctx, tx, st); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit staff user: %w", err)
	}
	return nil
}

func (s *Store) userBy(ctx context.Context, column, value string) (types.User, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE "+column+" = ?", value)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return types.User{}, fmt.Errorf("user %s=%q: %w", column, value, types.ErrNotFound)
	}
	if err != nil {
		return types.User{}, fmt.Errorf("query user: %w", err)
	}
	return u, nil
}

// UserByID looks a user up by id
func (s *Store) UserByID(ctx context.Context, id string) (types.User, error) {
	return s.userBy(ctx, "id", id)
}

// UserByUsername looks a user up by username
func (s *Store) UserByUsername(ctx context.Context, username string) (types.User, error) {
	return s.userBy(ctx, "username", username)
}

// UserByEmail looks a user up by email
func (s *Store) UserByEmail(ctx context.Context, email string) (types.User, error) {
	return s.userBy(ctx, "email", email)
}

// ListUsers returns every user ordered by creation time
func (s *Store) ListUsers(ctx context.Context) ([]types.User, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT "+userColumns+" FROM users ORDER BY created_at, username")
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []types.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// SetUserActive flips the active flag of a user
func (s *Store) SetUserActive(ctx context.Context, id string, active bool) error {
	res, err := s.db.ExecContext(ctx, "UPDATE users SET is_active = ? WHERE id = ?", boolToInt(active), id)
	if err != nil {
		return fmt.Errorf("update user status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("user %q: %w", id, types.ErrNotFound)
	}
	return nil
}

// CreateStaff links a user to a department
func (s *Store) CreateStaff(ctx context.Context, st types.Staff) error {
	return insertStaff(ctx, s.db, st)
}

func insertStaff(ctx context.Context, db execer, st types.Staff) error {
	_, err := db.ExecContext(ctx,
		"INSERT INTO staff (id, user_id, department) VALUES (?, ?, ?)", st.ID, st.UserID, st.Department)
	if isUniqueErr(err) {
		return fmt.Errorf("staff for user %q: %w", st.UserID, types.ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("insert staff: %w", err)
	}
	return nil
}

// UpdateStaffDepartment moves a staff member to another department and
// returns the record as it was before the change
func (s *Store) UpdateStaffDepartment(ctx context.Context, userID, department string) (types.Staff, error) {
	prev, err := s.StaffByUserID(ctx, userID)
	if err != nil {
		return types.Staff{}, err
	}
	res, err := s.db.ExecContext(ctx, "UPDATE staff SET department = ? WHERE user_id = ?", department, userID)
	if err != nil {
		return types.Staff{}, fmt.Errorf("update staff department: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return types.Staff{}, fmt.Errorf("staff for user %q: %w", userID, types.ErrNotFound)
	}
	return prev, nil
}

// StaffByUserID returns the staff record of a user
func (s *Store) StaffByUserID(ctx context.Context, userID string) (types.Staff, error) {
	var st types.Staff
	err := s.db.QueryRowContext(ctx,
		"SELECT id, user_id, department FROM staff WHERE user_id = ?", userID).Scan(&st.ID, &st.UserID, &st.Department)
	if errors.Is(err, sql.ErrNoRows) {
		return types.Staff{}, fmt.Errorf("staff for user %q: %w", userID, types.ErrNotFound)
	}
	if err != nil {
		return types.Staff{}, fmt.Errorf("query staff: %w", err)
	}
	return st, nil
}

// ListStaff returns every staff record, or those of one department when
// department is non-empty
func (s *Store) ListStaff(ctx context.Context, department string) ([]types.Staff, error) {
	query := "SELECT id, user_id, department FROM staff"
	var args []interface{}
	if department != "" {
		query += " WHERE department = ?"
		args = append(args, department)
	}
	query += " ORDER BY department, id"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list staff: %w", err)
	}
	defer rows.Close()

	var out []types.Staff
	for rows.Next() {
		var st types.Staff
		if err := rows.Scan(&st.ID, &st.UserID, &st.Department); err != nil {
			return nil, fmt.Errorf("scan staff: %w", err)
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

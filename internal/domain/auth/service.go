package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/GriffinCanCode/DigitalTwin/internal/infrastructure/logging"
	"github.com/GriffinCanCode/DigitalTwin/internal/shared/id"
	"github.com/GriffinCanCode/DigitalTwin/internal/shared/types"
	"github.com/GriffinCanCode/DigitalTwin/internal/shared/utils"
)

var (
	ErrInvalidCredentials = errors.New("incorrect username or password")
	ErrInactive           = errors.New("inactive user")
	ErrUnauthorized       = errors.New("could not validate credentials")
	ErrDuplicateUser      = errors.New("username or email already registered")
	ErrInvalidRole        = errors.New("invalid role")
	ErrInvalidInput       = errors.New("invalid input")
	ErrDomainMismatch     = errors.New("email domain must match admin's organisation domain")
	ErrForbidden          = errors.New("access denied")
)

// DefaultTokenTTL is the token lifetime when none is configured
const DefaultTokenTTL = 30 * time.Minute

// Store is the account persistence used by the service
type Store interface {
	CreateUser(ctx context.Context, u types.User) error
	UserByID(ctx context.Context, id string) (types.User, error)
	UserByUsername(ctx context.Context, username string) (types.User, error)
	SetUserActive(ctx context.Context, id string, active bool) error
	CreateStaffUser(ctx context.Context, u types.User, st types.Staff) error
	UpdateStaffDepartment(ctx context.Context, userID, department string) (types.Staff, error)
}

// Auditor records account events in the activity archive
type Auditor func(ctx context.Context, userID, action, details string)

// Session is an issued bearer token
type Session struct {
	Token     string    `json:"-"`
	UserID    string    `json:"user_id"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Config controls the service
type Config struct {
	TokenTTL time.Duration
	// BcryptCost defaults to bcrypt.DefaultCost
	BcryptCost int
	Clock      func() time.Time
	Audit      Auditor
}

// Service authenticates users and manages their tokens
type Service struct {
	store Store
	ttl   time.Duration
	cost  int
	clock func() time.Time
	audit Auditor
	log   *logging.Logger

	mu       sync.RWMutex
	sessions map[string]Session // keyed by token; protected by mu
}

// NewService creates an auth service over store
func NewService(store Store, cfg Config, log *logging.Logger) *Service {
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = DefaultTokenTTL
	}
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = bcrypt.DefaultCost
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if cfg.Audit == nil {
		cfg.Audit = func(context.Context, string, string, string) {}
	}
	if log == nil {
		log = logging.NewNop()
	}
	return &Service{
		store:    store,
		ttl:      cfg.TokenTTL,
		cost:     cfg.BcryptCost,
		clock:    cfg.Clock,
		audit:    cfg.Audit,
		log:      log.Named("auth"),
		sessions: make(map[string]Session),
	}
}

// TokenTTL returns the lifetime of new tokens
func (s *Service) TokenTTL() time.Duration { return s.ttl }

// Login checks the credentials and issues a token
func (s *Service) Login(ctx context.Context, username, password string) (string, types.User, error) {
	if utils.ValidateUsername(username) != nil || utils.ValidatePassword(password) != nil {
		return "", types.User{}, ErrInvalidCredentials
	}

	user, err := s.store.UserByUsername(ctx, username)
	if errors.Is(err, types.ErrNotFound) {
		s.audit(ctx, "", "failed_login", fmt.Sprintf("Unknown username: %s", username))
		return "", types.User{}, ErrInvalidCredentials
	}
	if err != nil {
		return "", types.User{}, fmt.Errorf("login lookup: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.audit(ctx, user.ID, "failed_login", "Incorrect password")
		s.log.Info("Failed login", zap.String("username", username))
		return "", types.User{}, ErrInvalidCredentials
	}
	if !user.IsActive {
		s.audit(ctx, user.ID, "unauthorized_access_attempt", "Login to inactive account")
		return "", types.User{}, ErrInactive
	}

	token, err := id.NewToken()
	if err != nil {
		return "", types.User{}, err
	}
	now := s.clock()

	s.mu.Lock()
	s.sessions[token] = Session{Token: token, UserID: user.ID, IssuedAt: now, ExpiresAt: now.Add(s.ttl)}
	s.mu.Unlock()

	s.audit(ctx, user.ID, "user_login", "User logged in")
	return token, user, nil
}

// Authenticate resolves a bearer token to its active user
func (s *Service) Authenticate(ctx context.Context, token string) (types.User, error) {
	if utils.ValidateString(token, "token", 1, 128, true) != nil {
		return types.User{}, ErrUnauthorized
	}

	s.mu.RLock()
	sess, ok := s.sessions[token]
	s.mu.RUnlock()
	if !ok {
		return types.User{}, ErrUnauthorized
	}
	if !s.clock().Before(sess.ExpiresAt) {
		s.mu.Lock()
		delete(s.sessions, token)
		s.mu.Unlock()
		return types.User{}, ErrUnauthorized
	}

	user, err := s.store.UserByID(ctx, sess.UserID)
	if errors.Is(err, types.ErrNotFound) {
		return types.User{}, ErrUnauthorized
	}
	if err != nil {
		return types.User{}, fmt.Errorf("authenticate: %w", err)
	}
	if !user.IsActive {
		return types.User{}, ErrUnauthorized
	}
	return user, nil
}

// Session returns the session behind a token
func (s *Service) Session(token string) (Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[token]
	return sess, ok
}

// Logout revokes a token
func (s *Service) Logout(token string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.sessions[token]
	delete(s.sessions, token)
	return ok
}

// RevokeUser drops every token of a user and returns how many there were
func (s *Service) RevokeUser(userID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for token, sess := range s.sessions {
		if sess.UserID == userID {
			delete(s.sessions, token)
			n++
		}
	}
	return n
}

// ActiveSessions returns the number of live tokens
func (s *Service) ActiveSessions() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// SweepExpired drops expired tokens
func (s *Service) SweepExpired() int {
	now := s.clock()
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for token, sess := range s.sessions {
		if !now.Before(sess.ExpiresAt) {
			delete(s.sessions, token)
			n++
		}
	}
	return n
}

// RunSweeper calls SweepExpired every interval until ctx is done
func (s *Service) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.SweepExpired(); n > 0 {
				s.log.Debug("Swept expired tokens", zap.Int("count", n))
			}
		}
	}
}

// RegisterRequest describes a self-service account
type RegisterRequest struct {
	Username string     `json:"username"`
	Email    string     `json:"email"`
	Password string     `json:"password"`
	Role     types.Role `json:"role"`
}

// Register creates a user or admin account
func (s *Service) Register(ctx context.Context, req RegisterRequest) (types.User, error) {
	if req.Role == "" {
		req.Role = types.RoleUser
	}
	if req.Role != types.RoleUser && req.Role != types.RoleAdmin {
		return types.User{}, ErrInvalidRole
	}
	return s.createUser(ctx, req.Username, req.Email, req.Password, req.Role)
}

// StaffRequest describes a staff account created by an admin
type StaffRequest struct {
	Username   string `json:"username"`
	Email      string `json:"email"`
	Password   string `json:"password"`
	Department string `json:"department"`
}

// CreateStaff creates a staff account in the admin's email domain
func (s *Service) CreateStaff(ctx context.Context, admin types.User, req StaffRequest) (types.User, types.Staff, error) {
	if err := utils.ValidateDepartment(req.Department); err != nil {
		return types.User{}, types.Staff{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if !SameDomain(admin.Email, req.Email) {
		return types.User{}, types.Staff{}, ErrDomainMismatch
	}

	user, staff, err := s.createStaffUser(ctx, req.Username, req.Email, req.Password, req.Department)
	if err != nil {
		return types.User{}, types.Staff{}, err
	}

	s.audit(ctx, user.ID, "staff_user_created", fmt.Sprintf("Staff user created in department: %s", req.Department))
	return user, staff, nil
}

// SetActive activates or deactivates an account. Deactivation revokes the
// account's tokens.
func (s *Service) SetActive(ctx context.Context, userID string, active bool, action string) (types.User, error) {
	if err := s.store.SetUserActive(ctx, userID, active); err != nil {
		return types.User{}, err
	}
	if !active {
		s.RevokeUser(userID)
	}

	details := "User activated"
	if !active {
		details = "User deactivated"
	}
	if action == "" {
		action = "user_status_changed"
	}
	s.audit(ctx, userID, action, details)
	return s.store.UserByID(ctx, userID)
}

// UpdateDepartment moves a staff member to another department
func (s *Service) UpdateDepartment(ctx context.Context, userID, department string) (types.Staff, error) {
	if err := utils.ValidateDepartment(department); err != nil {
		return types.Staff{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	prev, err := s.store.UpdateStaffDepartment(ctx, userID, department)
	if err != nil {
		return types.Staff{}, err
	}

	s.audit(ctx, userID, "department_changed",
		fmt.Sprintf("Department changed from %s to %s", prev.Department, department))
	prev.Department = department
	return prev, nil
}

func (s *Service) newUser(username, email, password string, role types.Role) (types.User, error) {
	if err := utils.ValidateUsername(username); err != nil {
		return types.User{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if err := utils.ValidateEmail(email, true); err != nil {
		return types.User{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if err := utils.ValidatePassword(password); err != nil {
		return types.User{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return types.User{}, fmt.Errorf("password hashing failed: %w", err)
	}

	return types.User{
		ID:           id.NewUserID(),
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
		IsActive:     true,
		CreatedAt:    s.clock().UTC(),
	}, nil
}

func (s *Service) createUser(ctx context.Context, username, email, password string, role types.Role) (types.User, error) {
	user, err := s.newUser(username, email, password, role)
	if err != nil {
		return types.User{}, err
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, types.ErrConflict) {
			return types.User{}, ErrDuplicateUser
		}
		return types.User{}, fmt.Errorf("create user: %w", err)
	}

	s.log.Info("User created", zap.String("username", username), zap.String("role", string(role)))
	return user, nil
}

// createStaffUser writes the account and its staff record in one transaction
func (s *Service) createStaffUser(ctx context.Context, username, email, password, department string) (types.User, types.Staff, error) {
	user, err := s.newUser(username, email, password, types.RoleStaff)
	if err != nil {
		return types.User{}, types.Staff{}, err
	}
	staff := types.Staff{ID: id.NewUserID(), UserID: user.ID, Department: department}
	if err := s.store.CreateStaffUser(ctx, user, staff); err != nil {
		if errors.Is(err, types.ErrConflict) {
			return types.User{}, types.Staff{}, ErrDuplicateUser
		}
		return types.User{}, types.Staff{}, fmt.Errorf("create staff user: %w", err)
	}

	s.log.Info("Staff user created", zap.String("username", username), zap.String("department", department))
	return user, staff, nil
}

// EmailDomain returns the lowercased domain part of an address
func EmailDomain(email string) string {
	if i := strings.LastIndex(email, "@"); i >= 0 {
		return strings.ToLower(email[i+1:])
	}
	return strings.ToLower(email)
}

// SameDomain reports whether two addresses share an email domain
func SameDomain(a, b string) bool {
	return EmailDomain(a) == EmailDomain(b)
}

package auth

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/DigitalTwin/internal/shared/types"
)

// SeedAccount is a built-in account created at startup
type SeedAccount struct {
	Username   string
	Email      string
	Password   string
	Role       types.Role
	Department string
}

// DefaultSeed returns the demo accounts
func DefaultSeed() []SeedAccount {
	return []SeedAccount{
		{Username: "admin", Email: "admin@digitaltwin.com", Password: "admin123", Role: types.RoleAdmin},
		{Username: "staff1", Email: "staff1@digitaltwin.com", Password: "staff123", Role: types.RoleStaff, Department: "IT"},
		{Username: "user1", Email: "user1@digitaltwin.com", Password: "user123", Role: types.RoleUser},
	}
}

// Seed creates the accounts that do not exist yet and returns how many
// were created
func (s *Service) Seed(ctx context.Context, accounts []SeedAccount) (int, error) {
	created := 0
	for _, acc := range accounts {
		if _, err := s.store.UserByUsername(ctx, acc.Username); err == nil {
			continue
		} else if !errors.Is(err, types.ErrNotFound) {
			return created, fmt.Errorf("seed %s: %w", acc.Username, err)
		}

		var err error
		if acc.Role == types.RoleStaff {
			_, _, err = s.createStaffUser(ctx, acc.Username, acc.Email, acc.Password, acc.Department)
		} else {
			_, err = s.createUser(ctx, acc.Username, acc.Email, acc.Password, acc.Role)
		}
		if errors.Is(err, ErrDuplicateUser) {
			continue
		}
		if err != nil {
			return created, fmt.Errorf("seed %s: %w", acc.Username, err)
		}
		created++
	}

	if created > 0 {
		s.log.Info("Seeded accounts", zap.Int("count", created))
	}
	return created, nil
}

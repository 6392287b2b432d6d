package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/storefront/internal/common"
	"github.com/dmitrijs2005/storefront/internal/logging"
	"github.com/dmitrijs2005/storefront/internal/server/models"
	"github.com/dmitrijs2005/storefront/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/storefront/internal/server/repositories/users"
)

// Documents a user must upload before becoming PREMIUM.
var PremiumDocuments = []string{"identification", "proof_of_address", "account_statement"}

// UserService holds the administrative user operations.
type UserService struct {
	repomanager repomanager.RepositoryManager
	logger      logging.Logger
	now         func() time.Time
}

func NewUserService(m repomanager.RepositoryManager, logger logging.Logger) *UserService {
	return &UserService{repomanager: m, logger: logger, now: time.Now}
}

func (s *UserService) List(ctx context.Context) ([]models.User, error) {
	return s.repomanager.Users().Get(ctx)
}

func (s *UserService) Get(ctx context.Context, id string) (*models.User, error) {
	return s.repomanager.Users().GetByID(ctx, id)
}

func (s *UserService) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.repomanager.Users().GetByEmail(ctx, email)
}

// Create adds a user on behalf of an administrator. The password is hashed
// as on registration.
func (s *UserService) Create(ctx context.Context, c users.Candidate) (*models.User, error) {
	return registerUser(ctx, s.repomanager.Users(), c)
}

// Update patches a user. A new password is stored hashed, roles must be
// known and a new email must not belong to another user.
func (s *UserService) Update(ctx context.Context, id string, patch models.UserPatch) (*models.User, error) {
	if patch.IsEmpty() {
		return nil, fmt.Errorf("%w: nothing to update", common.ErrorValidation)
	}
	if patch.Role != nil && !patch.Role.Valid() {
		return nil, fmt.Errorf("%w: invalid role %q", common.ErrorValidation, *patch.Role)
	}
	if patch.Email != nil {
		owner, err := s.GetByEmail(ctx, *patch.Email)
		switch {
		case err == nil && owner.ID != id:
			return nil, fmt.Errorf("%w: email %s is taken", common.ErrorAlreadyExists, *patch.Email)
		case err != nil && !errors.Is(err, common.ErrorNotFound):
			return nil, err
		}
	}
	if patch.Password != nil {
		hash, err := hashPassword(*patch.Password)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		patch.Password = &hash
	}
	return s.repomanager.Users().Update(ctx, id, patch)
}

// Delete removes the user and then their cart.
func (s *UserService) Delete(ctx context.Context, id string) error {
	u, err := s.repomanager.Users().GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repomanager.Users().Delete(ctx, id); err != nil {
		return err
	}
	s.dropCart(ctx, u)
	return nil
}

// DeleteInactive removes non-admin users whose last connection is older than
// maxIdle and returns them.
func (s *UserService) DeleteInactive(ctx context.Context, maxIdle time.Duration) ([]models.User, error) {
	all, err := s.repomanager.Users().Get(ctx)
	if err != nil {
		return nil, err
	}

	cutoff := s.now().Add(-maxIdle).UnixMilli()
	removed := []models.User{}
	for _, u := range all {
		if u.Role == models.RoleAdmin || u.LastConnection >= cutoff {
			continue
		}
		if err := s.repomanager.Users().Delete(ctx, u.ID); err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				continue
			}
			return removed, err
		}
		s.dropCart(ctx, &u)
		removed = append(removed, u)
	}

	s.logger.Info(ctx, "inactive users removed", "count", len(removed))
	return removed, nil
}

// TogglePremium switches a user between USER and PREMIUM. Upgrading needs
// every document in PremiumDocuments; administrators cannot be toggled.
func (s *UserService) TogglePremium(ctx context.Context, id string) (*models.User, error) {
	u, err := s.repomanager.Users().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	var next models.Role
	switch u.Role {
	case models.RolePremium:
		next = models.RoleUser
	case models.RoleUser:
		var missing []string
		for _, name := range PremiumDocuments {
			if !u.HasDocument(name) {
				missing = append(missing, name)
			}
		}
		if len(missing) > 0 {
			return nil, fmt.Errorf("%w: missing documents %v", common.ErrorValidation, missing)
		}
		next = models.RolePremium
	default:
		return nil, fmt.Errorf("%w: role %s cannot be toggled", common.ErrorValidation, u.Role)
	}

	return s.repomanager.Users().Update(ctx, id, models.UserPatch{Role: &next})
}

// SetRole assigns any known role.
func (s *UserService) SetRole(ctx context.Context, id string, role models.Role) (*models.User, error) {
	if !role.Valid() {
		return nil, fmt.Errorf("%w: invalid role %q", common.ErrorValidation, role)
	}
	return s.repomanager.Users().Update(ctx, id, models.UserPatch{Role: &role})
}

func (s *UserService) dropCart(ctx context.Context, u *models.User) {
	if u.Cart == "" {
		return
	}
	if err := s.repomanager.Carts().Delete(ctx, u.Cart); err != nil && !errors.Is(err, common.ErrorNotFound) {
		s.logger.Warn(ctx, "cart of deleted user not removed", "user_id", u.ID, "cart_id", u.Cart, "error", err)
	}
}

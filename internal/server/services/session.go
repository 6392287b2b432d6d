// Package services contains the storefront business logic that sits between
// the transports and the repositories.
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/storefront/internal/common"
	"github.com/dmitrijs2005/storefront/internal/logging"
	"github.com/dmitrijs2005/storefront/internal/server/auth"
	"github.com/dmitrijs2005/storefront/internal/server/config"
	"github.com/dmitrijs2005/storefront/internal/server/models"
	"github.com/dmitrijs2005/storefront/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/storefront/internal/server/repositories/users"
)

// SessionService registers users and logs them in and out.
type SessionService struct {
	repomanager         repomanager.RepositoryManager
	logger              logging.Logger
	jwtSecret           []byte
	accessTokenValidity time.Duration
	now                 func() time.Time
}

func NewSessionService(m repomanager.RepositoryManager, cfg *config.Config, logger logging.Logger) *SessionService {
	return &SessionService{
		repomanager:         m,
		logger:              logger,
		jwtSecret:           []byte(cfg.SecretKey),
		accessTokenValidity: cfg.AccessTokenValidityDuration,
		now:                 time.Now,
	}
}

// Register hashes the candidate's password and creates the user.
func (s *SessionService) Register(ctx context.Context, c users.Candidate) (*models.User, error) {
	return registerUser(ctx, s.repomanager.Users(), c)
}

// registerUser replaces a string password with its bcrypt hash before the
// repository validates and stores the candidate. Non-string passwords are
// left for the repository to reject.
func registerUser(ctx context.Context, repo users.Repository, c users.Candidate) (*models.User, error) {
	if pw, ok := c.Password.(string); ok {
		if pw == "" {
			return nil, fmt.Errorf("%w: password must not be empty", common.ErrorValidation)
		}
		hash, err := hashPassword(pw)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		c.Password = hash
	}
	return repo.Add(ctx, c)
}

// Login checks the credentials, records the connection time and returns a
// signed session token with the user.
func (s *SessionService) Login(ctx context.Context, email, password string) (string, *models.User, error) {
	repo := s.repomanager.Users()

	u, err := repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return "", nil, common.ErrorUnauthorized
		}
		return "", nil, err
	}

	ok, err := passwordMatches(u.Password, password)
	if err != nil {
		s.logger.Warn(ctx, "stored password is not a bcrypt hash", "user_id", u.ID, "error", err)
		return "", nil, common.ErrorUnauthorized
	}
	if !ok {
		s.logger.Warn(ctx, "wrong password", "user_id", u.ID)
		return "", nil, common.ErrorUnauthorized
	}

	u, err = s.touch(ctx, u.ID)
	if err != nil {
		return "", nil, err
	}

	token, err := auth.GenerateToken(auth.Session{UserID: u.ID, Email: u.Email, Role: u.Role}, s.jwtSecret, s.accessTokenValidity)
	if err != nil {
		return "", nil, fmt.Errorf("generate token: %w", err)
	}

	s.logger.Info(ctx, "user logged in", "user_id", u.ID)
	return token, u, nil
}

// Logout records the disconnection time.
func (s *SessionService) Logout(ctx context.Context, userID string) error {
	_, err := s.touch(ctx, userID)
	return err
}

// Current returns the user behind a session.
func (s *SessionService) Current(ctx context.Context, userID string) (*models.User, error) {
	return s.repomanager.Users().GetByID(ctx, userID)
}

// Authenticate resolves a bearer token into a session.
func (s *SessionService) Authenticate(token string) (*auth.Session, error) {
	return auth.ParseToken(token, s.jwtSecret)
}

func (s *SessionService) touch(ctx context.Context, userID string) (*models.User, error) {
	ms := s.now().UnixMilli()
	return s.repomanager.Users().Update(ctx, userID, models.UserPatch{LastConnection: &ms})
}

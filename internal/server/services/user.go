// Package services contains server-side business logic. This file implements
// UserService, which handles registration, login, and token-backed identity
// resolution.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/nwnlabs/portal/internal/common"
	"github.com/nwnlabs/portal/internal/server/auth"
	"github.com/nwnlabs/portal/internal/server/config"
	"github.com/nwnlabs/portal/internal/server/models"
	"github.com/nwnlabs/portal/internal/server/repositories/repomanager"
)

// AuthResult bundles a freshly issued identity token with the user it names.
type AuthResult struct {
	Token string
	User  *models.User
}

// UserService provides authentication-related operations:
// - Register: create users (auto-login token included)
// - Login: verify credentials and mint a token
// - Authenticate: resolve a token to the live user record
type UserService struct {
	db            *sql.DB
	repomanager   repomanager.RepositoryManager
	jwtSecret     []byte
	tokenValidity time.Duration
}

// NewUserService constructs a UserService using repositories and server config.
func NewUserService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config) *UserService {
	return &UserService{
		db:            db,
		repomanager:   m,
		jwtSecret:     []byte(cfg.SecretKey),
		tokenValidity: cfg.TokenValidityDuration,
	}
}

type registration struct {
	Username string
	Password string
}

func (r registration) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Username, validation.Required, validation.Length(3, 50)),
		validation.Field(&r.Password, validation.Required, validation.Length(4, 100)),
	)
}

// Register creates a new user with the lowest-privilege role and returns an
// auto-login token. Usernames are case-folded; a duplicate (in any casing)
// fails with ErrorInvalidInput.
func (s *UserService) Register(ctx context.Context, username, password, displayName string) (*AuthResult, error) {
	username = strings.ToLower(strings.TrimSpace(username))

	if err := (registration{Username: username, Password: password}).Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrorInvalidInput, err)
	}

	repo := s.repomanager.Users(s.db)

	_, err := repo.GetByUsername(ctx, username)
	if err == nil {
		return nil, fmt.Errorf("%w: username already taken", common.ErrorInvalidInput)
	}
	if !errors.Is(err, common.ErrorNotFound) {
		return nil, common.ErrorInternal
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, common.ErrorInternal
	}

	user := &models.User{
		Username:     username,
		PasswordHash: hash,
		DisplayName:  displayName,
		RoleID:       models.DefaultRoleID,
	}

	user, err = repo.Create(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("error creating user: %w", err)
	}

	return s.authResult(user)
}

// Login verifies the provided credentials. Unknown user, inactive user and
// wrong password all collapse to ErrorInvalidCredentials so callers cannot
// tell which part failed.
func (s *UserService) Login(ctx context.Context, username, password string) (*AuthResult, error) {
	repo := s.repomanager.Users(s.db)

	user, err := repo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorInvalidCredentials
		}
		return nil, common.ErrorInternal
	}

	if !user.IsActive {
		return nil, common.ErrorInvalidCredentials
	}

	if err := auth.CheckPassword(user.PasswordHash, password); err != nil {
		return nil, common.ErrorInvalidCredentials
	}

	return s.authResult(user)
}

// Authenticate verifies tokenString and re-resolves the user from the store.
// Tokens for deleted or deactivated users fail with ErrorUnauthorized even
// before their expiry.
func (s *UserService) Authenticate(ctx context.Context, tokenString string) (*models.User, error) {
	claims, err := auth.ParseToken(tokenString, s.jwtSecret)
	if err != nil {
		return nil, common.ErrorUnauthorized
	}

	user, err := s.repomanager.Users(s.db).GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, common.ErrorInternal
	}

	if !user.IsActive {
		return nil, common.ErrorUnauthorized
	}

	return user, nil
}

// AccessiblePages lists the pages granted to roleID. The role is always the
// caller's current one, so admin role changes apply without re-login.
func (s *UserService) AccessiblePages(ctx context.Context, roleID int) ([]*models.Page, error) {
	return s.repomanager.Grants(s.db).PagesForRole(ctx, roleID)
}

func (s *UserService) authResult(user *models.User) (*AuthResult, error) {
	token, err := auth.GenerateToken(user.ID, user.Username, user.RoleID, s.jwtSecret, s.tokenValidity)
	if err != nil {
		return nil, common.ErrorInternal
	}
	return &AuthResult{Token: token, User: user}, nil
}

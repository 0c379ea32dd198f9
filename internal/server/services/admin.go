package services

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/nwnlabs/portal/internal/common"
	"github.com/nwnlabs/portal/internal/server/models"
	"github.com/nwnlabs/portal/internal/server/repositories/repomanager"
)

// AdminService implements the management operations over users, roles and
// the access matrix. Mutations are single-row; concurrent edits of the same
// grant cell race to last-write-wins.
type AdminService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

func NewAdminService(db *sql.DB, m repomanager.RepositoryManager) *AdminService {
	return &AdminService{db: db, repomanager: m}
}

// ListUsers returns all accounts. Password hashes are not the caller's
// business: they are blanked before the slice leaves the service.
func (s *AdminService) ListUsers(ctx context.Context) ([]*models.User, error) {
	users, err := s.repomanager.Users(s.db).List(ctx)
	if err != nil {
		return nil, err
	}
	for _, u := range users {
		u.PasswordHash = ""
	}
	return users, nil
}

// ChangeRole assigns roleID to the user. The role must be one of the fixed
// enumeration rows.
func (s *AdminService) ChangeRole(ctx context.Context, userID string, roleID int) error {
	ok, err := s.repomanager.Roles(s.db).Exists(ctx, roleID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: unknown role %d", common.ErrorInvalidInput, roleID)
	}

	return s.repomanager.Users(s.db).UpdateRole(ctx, userID, roleID)
}

// ToggleActive flips the user's active flag and returns the updated record.
func (s *AdminService) ToggleActive(ctx context.Context, userID string) (*models.User, error) {
	repo := s.repomanager.Users(s.db)

	user, err := repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if err := repo.SetActive(ctx, userID, !user.IsActive); err != nil {
		return nil, err
	}

	user.IsActive = !user.IsActive
	user.PasswordHash = ""
	return user, nil
}

// DeleteUser removes the account. Administrator accounts are protected.
func (s *AdminService) DeleteUser(ctx context.Context, userID string) error {
	repo := s.repomanager.Users(s.db)

	user, err := repo.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	if user.RoleID == models.RoleAdmin {
		return fmt.Errorf("%w: administrator accounts cannot be deleted", common.ErrorForbidden)
	}

	return repo.Delete(ctx, userID)
}

func (s *AdminService) ListRoles(ctx context.Context) ([]*models.Role, error) {
	return s.repomanager.Roles(s.db).List(ctx)
}

func (s *AdminService) ListPages(ctx context.Context) ([]*models.Page, error) {
	return s.repomanager.Pages(s.db).List(ctx)
}

func (s *AdminService) AccessMatrix(ctx context.Context) ([]*models.PageAccess, error) {
	return s.repomanager.Grants(s.db).Matrix(ctx)
}

// SetAccess writes one cell of the access matrix, creating the row when it
// does not exist yet.
func (s *AdminService) SetAccess(ctx context.Context, roleID, pageID int, hasAccess bool) error {
	ok, err := s.repomanager.Roles(s.db).Exists(ctx, roleID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: unknown role %d", common.ErrorInvalidInput, roleID)
	}

	return s.repomanager.Grants(s.db).Upsert(ctx, roleID, pageID, hasAccess)
}

package services

import (
	"context"
	"database/sql"
	"strings"

	"github.com/nwnlabs/portal/internal/common"
	"github.com/nwnlabs/portal/internal/dbx"
	"github.com/nwnlabs/portal/internal/server/models"
	grantsrepo "github.com/nwnlabs/portal/internal/server/repositories/grants"
	pagesrepo "github.com/nwnlabs/portal/internal/server/repositories/pages"
	rolesrepo "github.com/nwnlabs/portal/internal/server/repositories/roles"
	usersrepo "github.com/nwnlabs/portal/internal/server/repositories/users"
)

// --- in-memory fakes shared by the service tests ---

type fakeUsersRepo struct {
	byID   map[string]*models.User
	nextID int
	err    error
}

func newFakeUsersRepo() *fakeUsersRepo {
	return &fakeUsersRepo{byID: map[string]*models.User{}}
}

func (f *fakeUsersRepo) Create(ctx context.Context, u *models.User) (*models.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.nextID++
	u.ID = string(rune('a' + f.nextID - 1))
	u.IsActive = true
	f.byID[u.ID] = u
	return u, nil
}

func (f *fakeUsersRepo) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	for _, u := range f.byID {
		if strings.EqualFold(u.Username, username) {
			return u, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakeUsersRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	if u, ok := f.byID[id]; ok {
		return u, nil
	}
	return nil, common.ErrorNotFound
}

func (f *fakeUsersRepo) List(ctx context.Context) ([]*models.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []*models.User
	for _, u := range f.byID {
		out = append(out, u)
	}
	return out, nil
}

func (f *fakeUsersRepo) UpdateRole(ctx context.Context, id string, roleID int) error {
	u, ok := f.byID[id]
	if !ok {
		return common.ErrorNotFound
	}
	u.RoleID = roleID
	return nil
}

func (f *fakeUsersRepo) SetActive(ctx context.Context, id string, active bool) error {
	u, ok := f.byID[id]
	if !ok {
		return common.ErrorNotFound
	}
	u.IsActive = active
	return nil
}

func (f *fakeUsersRepo) Delete(ctx context.Context, id string) error {
	if _, ok := f.byID[id]; !ok {
		return common.ErrorNotFound
	}
	delete(f.byID, id)
	return nil
}

type fakeRolesRepo struct {
	ids []int
}

func (f *fakeRolesRepo) List(ctx context.Context) ([]*models.Role, error) {
	var out []*models.Role
	for _, id := range f.ids {
		out = append(out, &models.Role{ID: id})
	}
	return out, nil
}

func (f *fakeRolesRepo) Exists(ctx context.Context, id int) (bool, error) {
	for _, known := range f.ids {
		if known == id {
			return true, nil
		}
	}
	return false, nil
}

type fakePagesRepo struct {
	pages []*models.Page
}

func (f *fakePagesRepo) List(ctx context.Context) ([]*models.Page, error) {
	return f.pages, nil
}

func (f *fakePagesRepo) SlugForPath(ctx context.Context, filePath string) (string, error) {
	for _, p := range f.pages {
		if p.FilePath == filePath {
			return p.Slug, nil
		}
	}
	return "", common.ErrorNotFound
}

type fakeGrantsRepo struct {
	// allowed maps roleID to the slugs it may see
	allowed map[int][]string
	pages   []*models.Page
	err     error
}

func (f *fakeGrantsRepo) HasAccess(ctx context.Context, roleID int, slug string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	for _, s := range f.allowed[roleID] {
		if s == slug {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeGrantsRepo) PagesForRole(ctx context.Context, roleID int) ([]*models.Page, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []*models.Page
	for _, p := range f.pages {
		for _, s := range f.allowed[roleID] {
			if p.Slug == s {
				out = append(out, p)
			}
		}
	}
	return out, nil
}

func (f *fakeGrantsRepo) Matrix(ctx context.Context) ([]*models.PageAccess, error) {
	var out []*models.PageAccess
	for roleID, slugs := range f.allowed {
		for _, slug := range slugs {
			for _, p := range f.pages {
				if p.Slug == slug {
					out = append(out, &models.PageAccess{RoleID: roleID, PageID: p.ID, HasAccess: true})
				}
			}
		}
	}
	return out, nil
}

func (f *fakeGrantsRepo) Upsert(ctx context.Context, roleID, pageID int, hasAccess bool) error {
	if f.err != nil {
		return f.err
	}
	for _, p := range f.pages {
		if p.ID == pageID {
			if hasAccess {
				f.allowed[roleID] = append(f.allowed[roleID], p.Slug)
			}
			return nil
		}
	}
	return nil
}

type fakeRepoManager struct {
	users  *fakeUsersRepo
	roles  *fakeRolesRepo
	pages  *fakePagesRepo
	grants *fakeGrantsRepo
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *fakeRepoManager) Users(db dbx.DBTX) usersrepo.Repository       { return m.users }
func (m *fakeRepoManager) Roles(db dbx.DBTX) rolesrepo.Repository       { return m.roles }
func (m *fakeRepoManager) Pages(db dbx.DBTX) pagesrepo.Repository       { return m.pages }
func (m *fakeRepoManager) Grants(db dbx.DBTX) grantsrepo.Repository     { return m.grants }

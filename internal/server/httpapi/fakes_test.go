package httpapi

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/nwnlabs/portal/internal/common"
	"github.com/nwnlabs/portal/internal/dbx"
	"github.com/nwnlabs/portal/internal/logging"
	"github.com/nwnlabs/portal/internal/server/auth"
	"github.com/nwnlabs/portal/internal/server/config"
	"github.com/nwnlabs/portal/internal/server/models"
	grantsrepo "github.com/nwnlabs/portal/internal/server/repositories/grants"
	pagesrepo "github.com/nwnlabs/portal/internal/server/repositories/pages"
	"github.com/nwnlabs/portal/internal/server/repositories/repomanager"
	rolesrepo "github.com/nwnlabs/portal/internal/server/repositories/roles"
	usersrepo "github.com/nwnlabs/portal/internal/server/repositories/users"
	"github.com/nwnlabs/portal/internal/server/services"
)

// --- in-memory repositories backing the handler tests ---

type fakeUsersRepo struct {
	byID   map[string]*models.User
	nextID int
}

func newFakeUsersRepo() *fakeUsersRepo {
	return &fakeUsersRepo{byID: map[string]*models.User{}}
}

func (f *fakeUsersRepo) Create(ctx context.Context, u *models.User) (*models.User, error) {
	f.nextID++
	u.ID = "u-" + strconv.Itoa(f.nextID)
	u.IsActive = true
	f.byID[u.ID] = u
	return u, nil
}

func (f *fakeUsersRepo) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	for _, u := range f.byID {
		if strings.EqualFold(u.Username, username) {
			return u, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakeUsersRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	if u, ok := f.byID[id]; ok {
		return u, nil
	}
	return nil, common.ErrorNotFound
}

func (f *fakeUsersRepo) List(ctx context.Context) ([]*models.User, error) {
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
	err   error
}

func (f *fakePagesRepo) List(ctx context.Context) ([]*models.Page, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.pages, nil
}

func (f *fakePagesRepo) SlugForPath(ctx context.Context, filePath string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	for _, p := range f.pages {
		if p.FilePath == filePath {
			return p.Slug, nil
		}
	}
	return "", common.ErrorNotFound
}

type fakeGrantsRepo struct {
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

var _ repomanager.RepositoryManager = (*fakeRepoManager)(nil)

// --- server under test ---

func newTestRepoManager() *fakeRepoManager {
	pages := []*models.Page{
		{ID: 1, Slug: "index", FilePath: "index.html"},
		{ID: 2, Slug: "sales", FilePath: "sales.html"},
		{ID: 3, Slug: "tech", FilePath: "tech.html"},
	}
	return &fakeRepoManager{
		users:  newFakeUsersRepo(),
		roles:  &fakeRolesRepo{ids: []int{1, 2, 3, 4}},
		pages:  &fakePagesRepo{pages: pages},
		grants: &fakeGrantsRepo{allowed: map[int][]string{models.RoleAdmin: {"index", "sales", "tech"}}, pages: pages},
	}
}

func newTestServer(t *testing.T, rm *fakeRepoManager) (*Server, *config.Config) {
	t.Helper()

	cfg := &config.Config{
		SecretKey:             "test-secret",
		TokenValidityDuration: time.Hour,
		S3Bucket:              "nwn-media",
		URLExpiration:         600 * time.Second,
		StaticDir:             t.TempDir(),
		CORSAllowedOrigins:    []string{"*"},
	}

	db, _, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))

	srv := NewServer(cfg, logger, db, rm,
		services.NewUserService(db, rm, cfg),
		services.NewMediaService(cfg),
		services.NewAdminService(db, rm),
	)
	return srv, cfg
}

// seedUser stores a user with a known password and returns it with a valid
// token for the configured secret.
func seedUser(t *testing.T, rm *fakeRepoManager, cfg *config.Config, username string, roleID int) (*models.User, string) {
	t.Helper()

	hash, err := auth.HashPassword("pass1234")
	if err != nil {
		t.Fatalf("HashPassword error: %v", err)
	}
	u, _ := rm.users.Create(context.Background(), &models.User{
		Username:     username,
		PasswordHash: hash,
		DisplayName:  username,
		RoleID:       roleID,
	})

	token, err := auth.GenerateToken(u.ID, u.Username, u.RoleID, []byte(cfg.SecretKey), cfg.TokenValidityDuration)
	if err != nil {
		t.Fatalf("GenerateToken error: %v", err)
	}
	return u, token
}

package repomanager

import (
	"context"
	"database/sql"

	"github.com/nwnlabs/portal/internal/dbx"
	"github.com/nwnlabs/portal/internal/server/repositories/grants"
	"github.com/nwnlabs/portal/internal/server/repositories/pages"
	"github.com/nwnlabs/portal/internal/server/repositories/roles"
	"github.com/nwnlabs/portal/internal/server/repositories/users"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Roles(db dbx.DBTX) roles.Repository
	Pages(db dbx.DBTX) pages.Repository
	Grants(db dbx.DBTX) grants.Repository
}

package grants

import (
	"context"

	"github.com/nwnlabs/portal/internal/server/models"
)

type Repository interface {
	// HasAccess reports whether the role may see the page identified by
	// slug. An absent grant row reads as no access.
	HasAccess(ctx context.Context, roleID int, slug string) (bool, error)

	PagesForRole(ctx context.Context, roleID int) ([]*models.Page, error)
	Matrix(ctx context.Context) ([]*models.PageAccess, error)
	Upsert(ctx context.Context, roleID, pageID int, hasAccess bool) error
}

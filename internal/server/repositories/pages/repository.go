package pages

import (
	"context"

	"github.com/nwnlabs/portal/internal/server/models"
)

type Repository interface {
	List(ctx context.Context) ([]*models.Page, error)

	// SlugForPath resolves a served file path (e.g. "tech.html") to its
	// policy slug. Unregistered paths return common.ErrorNotFound.
	SlugForPath(ctx context.Context, filePath string) (string, error)
}

package roles

import (
	"context"

	"github.com/nwnlabs/portal/internal/server/models"
)

type Repository interface {
	List(ctx context.Context) ([]*models.Role, error)
	Exists(ctx context.Context, id int) (bool, error)
}

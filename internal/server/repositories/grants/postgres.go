package grants

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/nwnlabs/portal/internal/dbx"
	"github.com/nwnlabs/portal/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) HasAccess(ctx context.Context, roleID int, slug string) (bool, error) {
	query :=
		`SELECT pa.has_access
		 FROM page_access pa
		 JOIN pages p ON p.id = pa.page_id
		 WHERE pa.role_id = $1 AND p.slug = $2
		 `

	var hasAccess bool
	err := r.db.QueryRowContext(ctx, query, roleID, slug).Scan(&hasAccess)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("db error: %w", err)
	}

	return hasAccess, nil
}

func (r *PostgresRepository) PagesForRole(ctx context.Context, roleID int) ([]*models.Page, error) {
	query :=
		`SELECT p.id, p.slug, p.file_path
		 FROM pages p
		 JOIN page_access pa ON pa.page_id = p.id
		 WHERE pa.role_id = $1 AND pa.has_access
		 ORDER BY p.id
		 `

	rows, err := r.db.QueryContext(ctx, query, roleID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.Page
	for rows.Next() {
		page := &models.Page{}
		if err := rows.Scan(&page.ID, &page.Slug, &page.FilePath); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, page)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return result, nil
}

func (r *PostgresRepository) Matrix(ctx context.Context) ([]*models.PageAccess, error) {
	query :=
		`SELECT role_id, page_id, has_access
		 FROM page_access
		 ORDER BY role_id, page_id
		 `

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.PageAccess
	for rows.Next() {
		cell := &models.PageAccess{}
		if err := rows.Scan(&cell.RoleID, &cell.PageID, &cell.HasAccess); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, cell)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return result, nil
}

func (r *PostgresRepository) Upsert(ctx context.Context, roleID, pageID int, hasAccess bool) error {
	query :=
		`INSERT INTO page_access (role_id, page_id, has_access)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (role_id, page_id) DO UPDATE SET has_access = EXCLUDED.has_access
		 `

	if _, err := r.db.ExecContext(ctx, query, roleID, pageID, hasAccess); err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	return nil
}

package pages

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/nwnlabs/portal/internal/common"
	"github.com/nwnlabs/portal/internal/dbx"
	"github.com/nwnlabs/portal/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) List(ctx context.Context) ([]*models.Page, error) {
	query := `SELECT id, slug, file_path FROM pages ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query)
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

func (r *PostgresRepository) SlugForPath(ctx context.Context, filePath string) (string, error) {
	query := `SELECT slug FROM pages WHERE file_path = $1`

	var slug string
	err := r.db.QueryRowContext(ctx, query, filePath).Scan(&slug)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", common.ErrorNotFound
		}
		return "", fmt.Errorf("db error: %w", err)
	}

	return slug, nil
}

package repository

import (
	"context"
	"fmt"

	"lab-booking/internal/data/entity"
	"lab-booking/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type CatalogRepository interface {
	Create(ctx context.Context, item *entity.CatalogItem) error
	FindByLabID(ctx context.Context, labID uuid.UUID) ([]*entity.CatalogItem, error)
	// FindByIDs returns the active items of labID among ids, in no
	// particular order. Unknown or inactive ids are skipped.
	FindByIDs(ctx context.Context, labID uuid.UUID, ids []uuid.UUID) ([]*entity.CatalogItem, error)
}

type catalogRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewCatalogRepository(db database.PgxIface, log *zap.Logger) CatalogRepository {
	return &catalogRepository{
		db:  db,
		log: log.With(zap.String("repository", "catalog")),
	}
}

func (r *catalogRepository) Create(ctx context.Context, item *entity.CatalogItem) error {
	query := `
		INSERT INTO catalog_items (id, lab_id, kind, name, description, price, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.db.Exec(ctx, query,
		item.ID,
		item.LabID,
		item.Kind,
		item.Name,
		item.Description,
		item.Price,
		item.IsActive,
		item.CreatedAt,
		item.UpdatedAt,
	)

	if err != nil {
		r.log.Error("Failed to create catalog item",
			zap.Error(err),
			zap.String("lab_id", item.LabID.String()),
			zap.String("name", item.Name),
		)
		return fmt.Errorf("create catalog item %s: %w", item.Name, err)
	}

	return nil
}

func (r *catalogRepository) FindByLabID(ctx context.Context, labID uuid.UUID) ([]*entity.CatalogItem, error) {
	query := `
		SELECT id, lab_id, kind, name, description, price, is_active, created_at, updated_at
		FROM catalog_items
		WHERE lab_id = $1 AND is_active = TRUE
		ORDER BY kind, name
	`

	rows, err := r.db.Query(ctx, query, labID)
	if err != nil {
		r.log.Error("Failed to find catalog by lab ID",
			zap.Error(err),
			zap.String("lab_id", labID.String()),
		)
		return nil, fmt.Errorf("find catalog for lab %s: %w", labID.String(), err)
	}

	return r.collect(rows)
}

func (r *catalogRepository) FindByIDs(ctx context.Context, labID uuid.UUID, ids []uuid.UUID) ([]*entity.CatalogItem, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query := `
		SELECT id, lab_id, kind, name, description, price, is_active, created_at, updated_at
		FROM catalog_items
		WHERE lab_id = $1 AND id = ANY($2::uuid[]) AND is_active = TRUE
	`

	idStrings := make([]string, len(ids))
	for i, id := range ids {
		idStrings[i] = id.String()
	}

	rows, err := r.db.Query(ctx, query, labID, idStrings)
	if err != nil {
		r.log.Error("Failed to find catalog items by IDs",
			zap.Error(err),
			zap.String("lab_id", labID.String()),
			zap.Int("count", len(ids)),
		)
		return nil, fmt.Errorf("find catalog items for lab %s: %w", labID.String(), err)
	}

	return r.collect(rows)
}

func (r *catalogRepository) collect(rows pgx.Rows) ([]*entity.CatalogItem, error) {
	defer rows.Close()

	var items []*entity.CatalogItem
	for rows.Next() {
		var item entity.CatalogItem
		err := rows.Scan(
			&item.ID,
			&item.LabID,
			&item.Kind,
			&item.Name,
			&item.Description,
			&item.Price,
			&item.IsActive,
			&item.CreatedAt,
			&item.UpdatedAt,
		)
		if err != nil {
			r.log.Error("Failed to scan catalog row", zap.Error(err))
			return nil, fmt.Errorf("scan catalog row: %w", err)
		}
		items = append(items, &item)
	}

	return items, rows.Err()
}

package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"lab-booking/internal/data/entity"
	"lab-booking/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type LabRepository interface {
	Create(ctx context.Context, lab *entity.Lab) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Lab, error)
	FindAll(ctx context.Context, limit, offset int, nameFilter *string) ([]*entity.Lab, error)
	CountAll(ctx context.Context, nameFilter *string) (int64, error)
	Update(ctx context.Context, lab *entity.Lab) error
}

type labRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewLabRepository(db database.PgxIface, log *zap.Logger) LabRepository {
	return &labRepository{
		db:  db,
		log: log.With(zap.String("repository", "lab")),
	}
}

func (r *labRepository) Create(ctx context.Context, lab *entity.Lab) error {
	query := `
		INSERT INTO labs (id, name, address, phone, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.db.Exec(ctx, query,
		lab.ID,
		lab.Name,
		lab.Address,
		lab.Phone,
		lab.IsActive,
		lab.CreatedAt,
		lab.UpdatedAt,
	)

	if err != nil {
		r.log.Error("Failed to create lab",
			zap.Error(err),
			zap.String("name", lab.Name),
		)
		return fmt.Errorf("create lab %s: %w", lab.Name, err)
	}

	return nil
}

func (r *labRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Lab, error) {
	query := `
		SELECT id, name, address, phone, is_active, created_at, updated_at, deleted_at
		FROM labs
		WHERE id = $1 AND deleted_at IS NULL
	`

	var lab entity.Lab
	err := r.db.QueryRow(ctx, query, id).Scan(
		&lab.ID,
		&lab.Name,
		&lab.Address,
		&lab.Phone,
		&lab.IsActive,
		&lab.CreatedAt,
		&lab.UpdatedAt,
		&lab.DeletedAt,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find lab by ID",
			zap.Error(err),
			zap.String("lab_id", id.String()),
		)
		return nil, fmt.Errorf("find lab by ID %s: %w", id.String(), err)
	}

	return &lab, nil
}

func (r *labRepository) FindAll(ctx context.Context, limit, offset int, nameFilter *string) ([]*entity.Lab, error) {
	// Build query dengan optional filter
	var queryBuilder strings.Builder
	queryBuilder.WriteString(`
		SELECT id, name, address, phone, is_active, created_at, updated_at
		FROM labs
		WHERE deleted_at IS NULL AND is_active = TRUE
	`)

	args := []interface{}{}
	argCount := 1

	if nameFilter != nil && *nameFilter != "" {
		queryBuilder.WriteString(fmt.Sprintf(" AND name ILIKE $%d", argCount))
		args = append(args, "%"+*nameFilter+"%")
		argCount++
	}

	queryBuilder.WriteString(fmt.Sprintf(" ORDER BY name LIMIT $%d OFFSET $%d", argCount, argCount+1))
	args = append(args, limit, offset)

	rows, err := r.db.Query(ctx, queryBuilder.String(), args...)
	if err != nil {
		r.log.Error("Failed to find all labs",
			zap.Error(err),
			zap.Int("limit", limit),
			zap.Int("offset", offset),
			zap.Stringp("name_filter", nameFilter),
		)
		return nil, fmt.Errorf("find all labs limit %d offset %d: %w", limit, offset, err)
	}
	defer rows.Close()

	var labs []*entity.Lab
	for rows.Next() {
		var lab entity.Lab
		err := rows.Scan(
			&lab.ID,
			&lab.Name,
			&lab.Address,
			&lab.Phone,
			&lab.IsActive,
			&lab.CreatedAt,
			&lab.UpdatedAt,
		)
		if err != nil {
			r.log.Error("Failed to scan lab row", zap.Error(err))
			return nil, fmt.Errorf("scan lab row: %w", err)
		}
		labs = append(labs, &lab)
	}

	if err := rows.Err(); err != nil {
		r.log.Error("Rows iteration error", zap.Error(err))
		return nil, fmt.Errorf("iterate lab rows: %w", err)
	}

	return labs, nil
}

func (r *labRepository) CountAll(ctx context.Context, nameFilter *string) (int64, error) {
	query := `SELECT COUNT(*) FROM labs WHERE deleted_at IS NULL AND is_active = TRUE`
	args := []interface{}{}

	if nameFilter != nil && *nameFilter != "" {
		query += " AND name ILIKE $1"
		args = append(args, "%"+*nameFilter+"%")
	}

	var total int64
	err := r.db.QueryRow(ctx, query, args...).Scan(&total)
	if err != nil {
		r.log.Error("Failed to count labs",
			zap.Error(err),
			zap.Stringp("name_filter", nameFilter),
		)
		return 0, fmt.Errorf("count all labs: %w", err)
	}

	return total, nil
}

func (r *labRepository) Update(ctx context.Context, lab *entity.Lab) error {
	query := `
		UPDATE labs
		SET name = $2, address = $3, phone = $4, is_active = $5, updated_at = $6
		WHERE id = $1 AND deleted_at IS NULL
	`

	result, err := r.db.Exec(ctx, query,
		lab.ID,
		lab.Name,
		lab.Address,
		lab.Phone,
		lab.IsActive,
		lab.UpdatedAt,
	)

	if err != nil {
		r.log.Error("Failed to update lab",
			zap.Error(err),
			zap.String("lab_id", lab.ID.String()),
		)
		return fmt.Errorf("update lab %s: %w", lab.ID.String(), err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("lab %s not found", lab.ID.String())
	}

	return nil
}

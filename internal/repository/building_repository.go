package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"tempiaops/internal/domain"
)

type BuildingRepository struct {
	db *sqlx.DB
}

func NewBuildingRepository(db *sqlx.DB) *BuildingRepository {
	return &BuildingRepository{db: db}
}

func (r *BuildingRepository) List(ctx context.Context) ([]domain.Building, error) {
	buildings := []domain.Building{}
	query := `SELECT id, number, name, address, created_at FROM buildings ORDER BY number`

	if err := r.db.SelectContext(ctx, &buildings, query); err != nil {
		return nil, translate(err, "buildings not found", "failed to list buildings")
	}
	return buildings, nil
}

func (r *BuildingRepository) GetByNumber(ctx context.Context, number int) (*domain.Building, error) {
	var b domain.Building
	query := `SELECT id, number, name, address, created_at FROM buildings WHERE number = $1`

	if err := r.db.GetContext(ctx, &b, query, number); err != nil {
		return nil, translate(err, "building not found", "failed to get building")
	}
	return &b, nil
}

func (r *BuildingRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Building, error) {
	var b domain.Building
	query := `SELECT id, number, name, address, created_at FROM buildings WHERE id = $1`

	if err := r.db.GetContext(ctx, &b, query, id); err != nil {
		return nil, translate(err, "building not found", "failed to get building")
	}
	return &b, nil
}

func (r *BuildingRepository) Create(ctx context.Context, b *domain.Building) error {
	query := `
        INSERT INTO buildings (number, name, address)
        VALUES ($1, $2, $3)
        RETURNING id, created_at`

	err := r.db.QueryRowxContext(ctx, query, b.Number, b.Name, b.Address).Scan(&b.ID, &b.CreatedAt)
	return translate(err, "building not found", "failed to create building")
}

package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"tempiaops/internal/domain"
)

type KPIRepository struct {
	db *sqlx.DB
}

func NewKPIRepository(db *sqlx.DB) *KPIRepository {
	return &KPIRepository{db: db}
}

func (r *KPIRepository) ListDefinitions(ctx context.Context) ([]domain.KPIDefinition, error) {
	defs := []domain.KPIDefinition{}
	query := `SELECT id, name, unit, target FROM kpi_definitions ORDER BY name`

	if err := r.db.SelectContext(ctx, &defs, query); err != nil {
		return nil, translate(err, "kpi definitions not found", "failed to list kpi definitions")
	}
	return defs, nil
}

func (r *KPIRepository) GetDefinition(ctx context.Context, id uuid.UUID) (*domain.KPIDefinition, error) {
	var def domain.KPIDefinition
	query := `SELECT id, name, unit, target FROM kpi_definitions WHERE id = $1`

	if err := r.db.GetContext(ctx, &def, query, id); err != nil {
		return nil, translate(err, "kpi not found", "failed to get kpi definition")
	}
	return &def, nil
}

func (r *KPIRepository) CreateDefinition(ctx context.Context, def *domain.KPIDefinition) error {
	query := `INSERT INTO kpi_definitions (name, unit, target) VALUES ($1, $2, $3) RETURNING id`

	err := r.db.QueryRowxContext(ctx, query, def.Name, def.Unit, def.Target).Scan(&def.ID)
	return translate(err, "kpi not found", "failed to create kpi definition")
}

func (r *KPIRepository) ListEntries(ctx context.Context, kpiID uuid.UUID) ([]domain.KPIEntry, error) {
	entries := []domain.KPIEntry{}
	query := `
        SELECT id, kpi_id, value, recorded_at
        FROM kpi_entries
        WHERE kpi_id = $1
        ORDER BY recorded_at ASC`

	if err := r.db.SelectContext(ctx, &entries, query, kpiID); err != nil {
		return nil, translate(err, "kpi entries not found", "failed to list kpi entries")
	}
	return entries, nil
}

func (r *KPIRepository) AddEntry(ctx context.Context, entry *domain.KPIEntry) error {
	query := `INSERT INTO kpi_entries (kpi_id, value, recorded_at) VALUES ($1, $2, $3) RETURNING id`

	err := r.db.QueryRowxContext(ctx, query, entry.KPIID, entry.Value, entry.RecordedAt).Scan(&entry.ID)
	return translate(err, "kpi not found", "failed to add kpi entry")
}

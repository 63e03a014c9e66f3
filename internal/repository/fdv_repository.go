package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"tempiaops/internal/domain"
)

type FdvRepository struct {
	db *sqlx.DB
}

func NewFdvRepository(db *sqlx.DB) *FdvRepository {
	return &FdvRepository{db: db}
}

const fdvColumns = `id, building_id, file_name, storage_path, uploaded_by, uploaded_at, version, tags`

func (r *FdvRepository) ListByBuilding(ctx context.Context, buildingID uuid.UUID) ([]domain.FdvFile, error) {
	files := []domain.FdvFile{}
	query := `SELECT ` + fdvColumns + ` FROM fdv_files WHERE building_id = $1 ORDER BY uploaded_at DESC`

	if err := r.db.SelectContext(ctx, &files, query, buildingID); err != nil {
		return nil, translate(err, "files not found", "failed to list fdv files")
	}
	return files, nil
}

func (r *FdvRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.FdvFile, error) {
	var f domain.FdvFile
	query := `SELECT ` + fdvColumns + ` FROM fdv_files WHERE id = $1`

	if err := r.db.GetContext(ctx, &f, query, id); err != nil {
		return nil, translate(err, "file not found", "failed to get fdv file")
	}
	return &f, nil
}

// Create inserts the metadata row. Version counts uploads of the same file
// name within the building.
func (r *FdvRepository) Create(ctx context.Context, f *domain.FdvFile) error {
	if f.Tags == nil {
		f.Tags = []string{}
	}
	query := `
        INSERT INTO fdv_files (building_id, file_name, storage_path, uploaded_by, tags, version)
        VALUES ($1, $2, $3, $4, $5,
            COALESCE((SELECT MAX(version) FROM fdv_files WHERE building_id = $1 AND file_name = $2), 0) + 1)
        RETURNING id, uploaded_at, version`

	err := r.db.QueryRowxContext(ctx, query, f.BuildingID, f.FileName, f.StoragePath, f.UploadedBy, f.Tags).
		Scan(&f.ID, &f.UploadedAt, &f.Version)
	return translate(err, "building not found", "failed to create fdv file")
}

func (r *FdvRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM fdv_files WHERE id = $1`, id)
	if err != nil {
		return translate(err, "file not found", "failed to delete fdv file")
	}
	return mustAffect(res, "file not found")
}

package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"tempiaops/internal/domain"
)

// DocumentRepository serves either the procedures or the instructions table;
// both share one column layout.
type DocumentRepository struct {
	db    *sqlx.DB
	kind  domain.DocumentKind
	table string
}

func NewDocumentRepository(db *sqlx.DB, kind domain.DocumentKind) *DocumentRepository {
	return &DocumentRepository{db: db, kind: kind, table: kind.Table()}
}

func (r *DocumentRepository) Kind() domain.DocumentKind {
	return r.kind
}

const documentColumns = `id, code, title, link, content, created_at, updated_at`

func (r *DocumentRepository) List(ctx context.Context) ([]domain.Document, error) {
	docs := []domain.Document{}
	query := fmt.Sprintf(`SELECT %s FROM %s ORDER BY updated_at DESC, created_at DESC`, documentColumns, r.table)

	if err := r.db.SelectContext(ctx, &docs, query); err != nil {
		return nil, translate(err, "documents not found", "failed to list "+r.table)
	}
	for i := range docs {
		docs[i].Kind = r.kind
	}
	return docs, nil
}

func (r *DocumentRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Document, error) {
	var doc domain.Document
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, documentColumns, r.table)

	if err := r.db.GetContext(ctx, &doc, query, id); err != nil {
		return nil, translate(err, string(r.kind)+" not found", "failed to get "+string(r.kind))
	}
	doc.Kind = r.kind
	return &doc, nil
}

func (r *DocumentRepository) Create(ctx context.Context, doc *domain.Document) error {
	query := fmt.Sprintf(`
        INSERT INTO %s (code, title, link, content)
        VALUES ($1, $2, $3, $4)
        RETURNING id, created_at, updated_at`, r.table)

	err := r.db.QueryRowxContext(ctx, query, doc.Code, doc.Title, doc.Link, doc.Content).
		Scan(&doc.ID, &doc.CreatedAt, &doc.UpdatedAt)
	doc.Kind = r.kind
	return translate(err, string(r.kind)+" not found", "failed to create "+string(r.kind))
}

func (r *DocumentRepository) Update(ctx context.Context, doc *domain.Document) error {
	query := fmt.Sprintf(`
        UPDATE %s
        SET code = $1,
            title = $2,
            link = $3,
            content = $4,
            updated_at = CURRENT_TIMESTAMP
        WHERE id = $5
        RETURNING created_at, updated_at`, r.table)

	err := r.db.QueryRowxContext(ctx, query, doc.Code, doc.Title, doc.Link, doc.Content, doc.ID).
		Scan(&doc.CreatedAt, &doc.UpdatedAt)
	doc.Kind = r.kind
	return translate(err, string(r.kind)+" not found", "failed to update "+string(r.kind))
}

func (r *DocumentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, r.table), id)
	if err != nil {
		return translate(err, string(r.kind)+" not found", "failed to delete "+string(r.kind))
	}
	return mustAffect(res, string(r.kind)+" not found")
}

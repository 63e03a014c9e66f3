package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"tempiaops/internal/apperror"
	"tempiaops/internal/domain"
	"tempiaops/internal/logger"
)

// DocumentService manages one document kind: procedures or instructions.
type DocumentService struct {
	docs        DocumentStore
	permissions *PermissionService
}

func NewDocumentService(docs DocumentStore, permissions *PermissionService) *DocumentService {
	return &DocumentService{docs: docs, permissions: permissions}
}

func (s *DocumentService) Kind() domain.DocumentKind {
	return s.docs.Kind()
}

func (s *DocumentService) List(ctx context.Context, session *domain.Session) ([]domain.Document, error) {
	if err := s.permissions.Check(session, OperationView); err != nil {
		return nil, err
	}
	return s.docs.List(ctx)
}

func (s *DocumentService) Get(ctx context.Context, session *domain.Session, id uuid.UUID) (*domain.Document, error) {
	if err := s.permissions.Check(session, OperationView); err != nil {
		return nil, err
	}
	return s.docs.GetByID(ctx, id)
}

func (s *DocumentService) Create(ctx context.Context, session *domain.Session, in domain.DocumentInput) (*domain.Document, error) {
	if err := s.permissions.Check(session, OperationCreate); err != nil {
		return nil, err
	}

	doc, err := s.normalize(in)
	if err != nil {
		return nil, err
	}
	if err := s.docs.Create(ctx, doc); err != nil {
		return nil, err
	}

	logger.L().Info("document created",
		zap.String("kind", string(doc.Kind)),
		zap.String("id", doc.ID.String()),
		zap.String("user_id", session.UserID),
	)
	return doc, nil
}

func (s *DocumentService) Update(ctx context.Context, session *domain.Session, id uuid.UUID, in domain.DocumentInput) (*domain.Document, error) {
	if err := s.permissions.Check(session, OperationEdit); err != nil {
		return nil, err
	}

	doc, err := s.normalize(in)
	if err != nil {
		return nil, err
	}
	doc.ID = id
	if err := s.docs.Update(ctx, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func (s *DocumentService) Delete(ctx context.Context, session *domain.Session, id uuid.UUID) error {
	if err := s.permissions.Check(session, OperationDelete); err != nil {
		return err
	}
	return s.docs.Delete(ctx, id)
}

// normalize trims input and applies the per-kind required fields. Procedures
// are opened from flow nodes through their link, so they need one.
func (s *DocumentService) normalize(in domain.DocumentInput) (*domain.Document, error) {
	title := strings.TrimSpace(in.Title)
	link := strings.TrimSpace(in.Link)

	switch s.docs.Kind() {
	case domain.KindProcedure:
		if title == "" || link == "" {
			return nil, apperror.New(apperror.CodeInvalid, "Tittel og lenke er påkrevd")
		}
	default:
		if title == "" {
			return nil, apperror.New(apperror.CodeInvalid, "Tittel er påkrevd")
		}
	}

	return &domain.Document{
		Kind:    s.docs.Kind(),
		Code:    nonEmpty(in.Code),
		Title:   title,
		Link:    nonEmpty(link),
		Content: nonEmpty(in.Content),
	}, nil
}

func nonEmpty(s string) *string {
	return trimmedOrNil(&s)
}

package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"tempiaops/internal/apperror"
	"tempiaops/internal/domain"
)

// The stores below are satisfied by the repository package.

type BuildingStore interface {
	List(ctx context.Context) ([]domain.Building, error)
	GetByNumber(ctx context.Context, number int) (*domain.Building, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Building, error)
	Create(ctx context.Context, b *domain.Building) error
}

type FlowStore interface {
	ListByBuilding(ctx context.Context, buildingID uuid.UUID) ([]domain.Flow, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Flow, error)
	Create(ctx context.Context, flow *domain.Flow) error
	Delete(ctx context.Context, id uuid.UUID) error
	LoadGraph(ctx context.Context, flowID uuid.UUID) (*domain.FlowGraph, error)
	ReplaceGraph(ctx context.Context, flowID uuid.UUID, nodes []domain.FlowNode, edges []domain.FlowEdge) (map[string]string, error)
}

type DocumentStore interface {
	Kind() domain.DocumentKind
	List(ctx context.Context) ([]domain.Document, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Document, error)
	Create(ctx context.Context, doc *domain.Document) error
	Update(ctx context.Context, doc *domain.Document) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type FdvStore interface {
	ListByBuilding(ctx context.Context, buildingID uuid.UUID) ([]domain.FdvFile, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.FdvFile, error)
	Create(ctx context.Context, f *domain.FdvFile) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type KPIStore interface {
	ListDefinitions(ctx context.Context) ([]domain.KPIDefinition, error)
	GetDefinition(ctx context.Context, id uuid.UUID) (*domain.KPIDefinition, error)
	CreateDefinition(ctx context.Context, def *domain.KPIDefinition) error
	ListEntries(ctx context.Context, kpiID uuid.UUID) ([]domain.KPIEntry, error)
	AddEntry(ctx context.Context, entry *domain.KPIEntry) error
}

var validate = validator.New()

// validateInput runs struct tags and reports the first failing field.
func validateInput(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		f := verrs[0]
		return apperror.Wrap(err, apperror.CodeInvalid, fmt.Sprintf("%s: failed %s validation", strings.ToLower(f.Field()), f.Tag()))
	}
	return apperror.Wrap(err, apperror.CodeInvalid, "invalid input")
}

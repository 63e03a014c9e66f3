package service

import (
	"context"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"tempiaops/internal/domain"
	"tempiaops/internal/logger"
)

type BuildingService struct {
	buildings   BuildingStore
	permissions *PermissionService
}

func NewBuildingService(buildings BuildingStore, permissions *PermissionService) *BuildingService {
	return &BuildingService{buildings: buildings, permissions: permissions}
}

// List returns buildings ordered by number. A non-empty query keeps those
// whose number, name or address contains it, case-insensitively.
func (s *BuildingService) List(ctx context.Context, session *domain.Session, query string) ([]domain.Building, error) {
	if err := s.permissions.Check(session, OperationView); err != nil {
		return nil, err
	}

	buildings, err := s.buildings.List(ctx)
	if err != nil {
		return nil, err
	}

	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return buildings, nil
	}

	filtered := make([]domain.Building, 0, len(buildings))
	for _, b := range buildings {
		if matchesBuilding(b, q) {
			filtered = append(filtered, b)
		}
	}
	return filtered, nil
}

func matchesBuilding(b domain.Building, q string) bool {
	if strings.Contains(strconv.Itoa(b.Number), q) {
		return true
	}
	if b.Name != nil && strings.Contains(strings.ToLower(*b.Name), q) {
		return true
	}
	return b.Address != nil && strings.Contains(strings.ToLower(*b.Address), q)
}

func (s *BuildingService) Get(ctx context.Context, session *domain.Session, number int) (*domain.Building, error) {
	if err := s.permissions.Check(session, OperationView); err != nil {
		return nil, err
	}
	return s.buildings.GetByNumber(ctx, number)
}

func (s *BuildingService) Create(ctx context.Context, session *domain.Session, in domain.BuildingCreate) (*domain.Building, error) {
	if err := s.permissions.Check(session, OperationCreate); err != nil {
		return nil, err
	}
	if err := validateInput(in); err != nil {
		return nil, err
	}

	b := &domain.Building{
		Number:  in.Number,
		Name:    trimmedOrNil(in.Name),
		Address: trimmedOrNil(in.Address),
	}
	if err := s.buildings.Create(ctx, b); err != nil {
		return nil, err
	}

	logger.L().Info("building created", zap.Int("number", b.Number), zap.String("user_id", session.UserID))
	return b, nil
}

// trimmedOrNil maps blank optional text to NULL.
func trimmedOrNil(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	if t == "" {
		return nil
	}
	return &t
}

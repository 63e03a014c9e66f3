package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"tempiaops/internal/apperror"
	"tempiaops/internal/domain"
	"tempiaops/internal/graph"
	"tempiaops/internal/logger"
)

type FlowService struct {
	flows       FlowStore
	buildings   BuildingStore
	procedures  DocumentStore
	permissions *PermissionService
}

func NewFlowService(
	flows FlowStore,
	buildings BuildingStore,
	procedures DocumentStore,
	permissions *PermissionService,
) *FlowService {
	return &FlowService{
		flows:       flows,
		buildings:   buildings,
		procedures:  procedures,
		permissions: permissions,
	}
}

func (s *FlowService) ListFlows(ctx context.Context, session *domain.Session, buildingNumber int) ([]domain.Flow, error) {
	if err := s.permissions.Check(session, OperationView); err != nil {
		return nil, err
	}

	building, err := s.buildings.GetByNumber(ctx, buildingNumber)
	if err != nil {
		return nil, err
	}
	return s.flows.ListByBuilding(ctx, building.ID)
}

func (s *FlowService) CreateFlow(ctx context.Context, session *domain.Session, buildingNumber int, in domain.FlowCreate) (*domain.Flow, error) {
	if err := s.permissions.Check(session, OperationCreate); err != nil {
		return nil, err
	}
	in.Title = strings.TrimSpace(in.Title)
	if err := validateInput(in); err != nil {
		return nil, err
	}

	building, err := s.buildings.GetByNumber(ctx, buildingNumber)
	if err != nil {
		return nil, err
	}

	createdBy := session.UserID
	flow := &domain.Flow{
		BuildingID: building.ID,
		Title:      in.Title,
		CreatedBy:  &createdBy,
	}
	if err := s.flows.Create(ctx, flow); err != nil {
		return nil, err
	}

	logger.L().Info("flow created",
		zap.String("flow_id", flow.ID.String()),
		zap.Int("building", buildingNumber),
		zap.String("user_id", session.UserID),
	)
	return flow, nil
}

// LoadGraph returns the flow with all its nodes and edges. A flow without
// nodes is a valid, empty graph.
func (s *FlowService) LoadGraph(ctx context.Context, session *domain.Session, flowID uuid.UUID) (*domain.FlowGraph, error) {
	if err := s.permissions.Check(session, OperationView); err != nil {
		return nil, err
	}
	return s.flows.LoadGraph(ctx, flowID)
}

// SaveGraph replaces the stored graph of flowID with nodes and edges and
// returns what was persisted. The graph is validated before storage is
// touched; the replacement itself is atomic and serialised per flow.
func (s *FlowService) SaveGraph(
	ctx context.Context,
	session *domain.Session,
	flowID uuid.UUID,
	nodes []domain.FlowNode,
	edges []domain.FlowEdge,
) (*domain.FlowGraph, error) {
	if err := s.permissions.Check(session, OperationEdit); err != nil {
		return nil, err
	}
	if err := graph.Validate(nodes, edges); err != nil {
		return nil, apperror.Wrap(err, apperror.CodeInvalid, err.Error())
	}

	idMap, err := s.flows.ReplaceGraph(ctx, flowID, nodes, edges)
	if err != nil {
		log := logger.L().Warn
		if apperror.IsCode(err, apperror.CodeInternal) {
			log = logger.L().Error
		}
		log("failed to save flow graph",
			zap.String("flow_id", flowID.String()),
			zap.Int("nodes", len(nodes)),
			zap.Int("edges", len(edges)),
			zap.Error(err),
		)
		return nil, err
	}

	logger.L().Info("flow graph saved",
		zap.String("flow_id", flowID.String()),
		zap.Int("nodes", len(nodes)),
		zap.Int("edges", len(edges)),
		zap.Int("new_nodes", countTemporary(idMap)),
		zap.String("user_id", session.UserID),
	)

	return s.flows.LoadGraph(ctx, flowID)
}

func countTemporary(idMap map[string]string) int {
	n := 0
	for from, to := range idMap {
		if from != to {
			n++
		}
	}
	return n
}

// ApplyEdits loads the stored graph, replays edits through the editor and
// saves the result. Nothing is written when an edit fails.
func (s *FlowService) ApplyEdits(ctx context.Context, session *domain.Session, flowID uuid.UUID, edits []graph.Edit) (*domain.FlowGraph, error) {
	if err := s.permissions.Check(session, OperationEdit); err != nil {
		return nil, err
	}

	current, err := s.flows.LoadGraph(ctx, flowID)
	if err != nil {
		return nil, err
	}

	editor := graph.NewEditor(*current)
	if err := editor.Apply(edits...); err != nil {
		return nil, apperror.Wrap(err, apperror.CodeInvalid, err.Error())
	}

	next := editor.Graph()
	return s.SaveGraph(ctx, session, flowID, next.Nodes, next.Edges)
}

func (s *FlowService) DeleteFlow(ctx context.Context, session *domain.Session, flowID uuid.UUID) error {
	if err := s.permissions.Check(session, OperationDelete); err != nil {
		return err
	}
	if err := s.flows.Delete(ctx, flowID); err != nil {
		return err
	}

	logger.L().Info("flow deleted", zap.String("flow_id", flowID.String()), zap.String("user_id", session.UserID))
	return nil
}

// OpenNodeProcedure is the viewer click: it resolves the link of the
// procedure attached to nodeID. Nodes without a procedure, or whose procedure
// has no link or no longer exists, yield NotFound.
func (s *FlowService) OpenNodeProcedure(ctx context.Context, session *domain.Session, flowID uuid.UUID, nodeID string) (string, error) {
	if err := s.permissions.Check(session, OperationView); err != nil {
		return "", err
	}

	g, err := s.flows.LoadGraph(ctx, flowID)
	if err != nil {
		return "", err
	}

	var procedures []domain.Document
	for _, n := range g.Nodes {
		if n.ID != nodeID || n.ProcedureID == nil {
			continue
		}
		p, err := s.procedures.GetByID(ctx, *n.ProcedureID)
		if err != nil && !apperror.IsCode(err, apperror.CodeNotFound) {
			return "", err
		}
		if p != nil {
			procedures = append(procedures, *p)
		}
	}

	link, ok := graph.NewViewer(*g, procedures).Click(nodeID)
	if !ok {
		return "", apperror.New(apperror.CodeNotFound, "node has no procedure to open")
	}
	return link, nil
}

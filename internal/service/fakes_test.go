package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"tempiaops/internal/apperror"
	"tempiaops/internal/cache"
	"tempiaops/internal/domain"
	"tempiaops/internal/graph"
)

var (
	admin  = &domain.Session{UserID: "admin-1", Email: "admin@tempia.no", Role: domain.RoleAdmin}
	viewer = &domain.Session{UserID: "viewer-1", Email: "vakt@tempia.no", Role: domain.RoleViewer}
)

type fakeBuildings struct {
	byNumber map[int]domain.Building
}

func newFakeBuildings(numbers ...int) *fakeBuildings {
	f := &fakeBuildings{byNumber: map[int]domain.Building{}}
	for _, n := range numbers {
		f.byNumber[n] = domain.Building{ID: uuid.New(), Number: n, CreatedAt: time.Now()}
	}
	return f
}

func (f *fakeBuildings) List(context.Context) ([]domain.Building, error) {
	out := []domain.Building{}
	for _, b := range f.byNumber {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out, nil
}

func (f *fakeBuildings) GetByNumber(_ context.Context, number int) (*domain.Building, error) {
	b, ok := f.byNumber[number]
	if !ok {
		return nil, apperror.New(apperror.CodeNotFound, "building not found")
	}
	return &b, nil
}

func (f *fakeBuildings) GetByID(_ context.Context, id uuid.UUID) (*domain.Building, error) {
	for _, b := range f.byNumber {
		if b.ID == id {
			return &b, nil
		}
	}
	return nil, apperror.New(apperror.CodeNotFound, "building not found")
}

func (f *fakeBuildings) Create(_ context.Context, b *domain.Building) error {
	if _, dup := f.byNumber[b.Number]; dup {
		return apperror.New(apperror.CodeConflict, "already exists")
	}
	b.ID = uuid.New()
	b.CreatedAt = time.Now()
	f.byNumber[b.Number] = *b
	return nil
}

// fakeFlows keeps graphs the way the database does: temporary ids are
// replaced by fresh UUIDs on save.
type fakeFlows struct {
	flows        map[uuid.UUID]domain.Flow
	nodes        map[uuid.UUID][]domain.FlowNode
	edges        map[uuid.UUID][]domain.FlowEdge
	replaceCalls int
}

func newFakeFlows() *fakeFlows {
	return &fakeFlows{
		flows: map[uuid.UUID]domain.Flow{},
		nodes: map[uuid.UUID][]domain.FlowNode{},
		edges: map[uuid.UUID][]domain.FlowEdge{},
	}
}

func (f *fakeFlows) ListByBuilding(_ context.Context, buildingID uuid.UUID) ([]domain.Flow, error) {
	out := []domain.Flow{}
	for _, fl := range f.flows {
		if fl.BuildingID == buildingID {
			out = append(out, fl)
		}
	}
	return out, nil
}

func (f *fakeFlows) GetByID(_ context.Context, id uuid.UUID) (*domain.Flow, error) {
	fl, ok := f.flows[id]
	if !ok {
		return nil, apperror.New(apperror.CodeNotFound, "flow not found")
	}
	return &fl, nil
}

func (f *fakeFlows) Create(_ context.Context, flow *domain.Flow) error {
	flow.ID = uuid.New()
	flow.CreatedAt = time.Now()
	f.flows[flow.ID] = *flow
	return nil
}

func (f *fakeFlows) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := f.flows[id]; !ok {
		return apperror.New(apperror.CodeNotFound, "flow not found")
	}
	delete(f.flows, id)
	delete(f.nodes, id)
	delete(f.edges, id)
	return nil
}

func (f *fakeFlows) LoadGraph(ctx context.Context, flowID uuid.UUID) (*domain.FlowGraph, error) {
	fl, err := f.GetByID(ctx, flowID)
	if err != nil {
		return nil, err
	}
	g := &domain.FlowGraph{Flow: *fl, Nodes: []domain.FlowNode{}, Edges: []domain.FlowEdge{}}
	g.Nodes = append(g.Nodes, f.nodes[flowID]...)
	g.Edges = append(g.Edges, f.edges[flowID]...)
	return g, nil
}

func (f *fakeFlows) ReplaceGraph(_ context.Context, flowID uuid.UUID, nodes []domain.FlowNode, edges []domain.FlowEdge) (map[string]string, error) {
	if _, ok := f.flows[flowID]; !ok {
		return nil, apperror.New(apperror.CodeNotFound, "flow not found")
	}
	f.replaceCalls++
	idMap := make(map[string]string, len(nodes))
	stored := make([]domain.FlowNode, 0, len(nodes))
	for _, n := range nodes {
		id := n.ID
		if graph.IsTemporaryID(id) {
			id = uuid.NewString()
		}
		idMap[n.ID] = id
		n.ID = id
		n.FlowID = flowID
		stored = append(stored, n)
	}
	storedEdges := make([]domain.FlowEdge, 0, len(edges))
	for _, e := range edges {
		storedEdges = append(storedEdges, domain.FlowEdge{
			ID:     uuid.NewString(),
			FlowID: flowID,
			Source: idMap[e.Source],
			Target: idMap[e.Target],
		})
	}
	f.nodes[flowID] = stored
	f.edges[flowID] = storedEdges
	return idMap, nil
}

type fakeDocs struct {
	kind domain.DocumentKind
	docs map[uuid.UUID]domain.Document
}

func newFakeDocs(kind domain.DocumentKind) *fakeDocs {
	return &fakeDocs{kind: kind, docs: map[uuid.UUID]domain.Document{}}
}

func (f *fakeDocs) Kind() domain.DocumentKind { return f.kind }

func (f *fakeDocs) List(context.Context) ([]domain.Document, error) {
	out := []domain.Document{}
	for _, d := range f.docs {
		out = append(out, d)
	}
	return out, nil
}

func (f *fakeDocs) GetByID(_ context.Context, id uuid.UUID) (*domain.Document, error) {
	d, ok := f.docs[id]
	if !ok {
		return nil, apperror.New(apperror.CodeNotFound, string(f.kind)+" not found")
	}
	return &d, nil
}

func (f *fakeDocs) Create(_ context.Context, doc *domain.Document) error {
	doc.ID = uuid.New()
	doc.CreatedAt = time.Now()
	doc.UpdatedAt = doc.CreatedAt
	f.docs[doc.ID] = *doc
	return nil
}

func (f *fakeDocs) Update(_ context.Context, doc *domain.Document) error {
	if _, ok := f.docs[doc.ID]; !ok {
		return apperror.New(apperror.CodeNotFound, string(f.kind)+" not found")
	}
	doc.UpdatedAt = time.Now()
	f.docs[doc.ID] = *doc
	return nil
}

func (f *fakeDocs) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := f.docs[id]; !ok {
		return apperror.New(apperror.CodeNotFound, string(f.kind)+" not found")
	}
	delete(f.docs, id)
	return nil
}

type fakeFdv struct {
	files     map[uuid.UUID]domain.FdvFile
	createErr error
}

func newFakeFdv() *fakeFdv {
	return &fakeFdv{files: map[uuid.UUID]domain.FdvFile{}}
}

func (f *fakeFdv) ListByBuilding(_ context.Context, buildingID uuid.UUID) ([]domain.FdvFile, error) {
	out := []domain.FdvFile{}
	for _, file := range f.files {
		if file.BuildingID == buildingID {
			out = append(out, file)
		}
	}
	return out, nil
}

func (f *fakeFdv) GetByID(_ context.Context, id uuid.UUID) (*domain.FdvFile, error) {
	file, ok := f.files[id]
	if !ok {
		return nil, apperror.New(apperror.CodeNotFound, "file not found")
	}
	return &file, nil
}

func (f *fakeFdv) Create(_ context.Context, file *domain.FdvFile) error {
	if f.createErr != nil {
		return f.createErr
	}
	file.ID = uuid.New()
	file.UploadedAt = time.Now()
	file.Version = 1
	f.files[file.ID] = *file
	return nil
}

func (f *fakeFdv) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := f.files[id]; !ok {
		return apperror.New(apperror.CodeNotFound, "file not found")
	}
	delete(f.files, id)
	return nil
}

type fakeKPI struct {
	defs    map[uuid.UUID]domain.KPIDefinition
	entries map[uuid.UUID][]domain.KPIEntry
}

func newFakeKPI() *fakeKPI {
	return &fakeKPI{defs: map[uuid.UUID]domain.KPIDefinition{}, entries: map[uuid.UUID][]domain.KPIEntry{}}
}

func (f *fakeKPI) ListDefinitions(context.Context) ([]domain.KPIDefinition, error) {
	out := []domain.KPIDefinition{}
	for _, d := range f.defs {
		out = append(out, d)
	}
	return out, nil
}

func (f *fakeKPI) GetDefinition(_ context.Context, id uuid.UUID) (*domain.KPIDefinition, error) {
	d, ok := f.defs[id]
	if !ok {
		return nil, apperror.New(apperror.CodeNotFound, "kpi not found")
	}
	return &d, nil
}

func (f *fakeKPI) CreateDefinition(_ context.Context, def *domain.KPIDefinition) error {
	def.ID = uuid.New()
	f.defs[def.ID] = *def
	return nil
}

func (f *fakeKPI) ListEntries(_ context.Context, kpiID uuid.UUID) ([]domain.KPIEntry, error) {
	out := append([]domain.KPIEntry{}, f.entries[kpiID]...)
	sort.Slice(out, func(i, j int) bool { return out[i].RecordedAt.Before(out[j].RecordedAt) })
	return out, nil
}

func (f *fakeKPI) AddEntry(_ context.Context, e *domain.KPIEntry) error {
	e.ID = uuid.New()
	f.entries[e.KPIID] = append(f.entries[e.KPIID], *e)
	return nil
}

type memoryKV struct {
	mu   sync.Mutex
	data map[string]string
	gets int
}

func newMemoryKV() *memoryKV {
	return &memoryKV{data: map[string]string{}}
}

func (m *memoryKV) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gets++
	v, ok := m.data[key]
	if !ok {
		return "", cache.ErrMiss
	}
	return v, nil
}

func (m *memoryKV) Set(_ context.Context, key, value string, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *memoryKV) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

package service

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"tempiaops/internal/apperror"
	"tempiaops/internal/domain"
	"tempiaops/internal/logger"
)

const kpiSheet = "KPI"

var recordedAtLayouts = []string{time.RFC3339, "2006-01-02"}

type KPIService struct {
	kpis        KPIStore
	permissions *PermissionService
}

func NewKPIService(kpis KPIStore, permissions *PermissionService) *KPIService {
	return &KPIService{kpis: kpis, permissions: permissions}
}

func (s *KPIService) ListDefinitions(ctx context.Context, session *domain.Session) ([]domain.KPIDefinition, error) {
	if err := s.permissions.Check(session, OperationView); err != nil {
		return nil, err
	}
	return s.kpis.ListDefinitions(ctx)
}

func (s *KPIService) CreateDefinition(ctx context.Context, session *domain.Session, in domain.KPIDefinitionCreate) (*domain.KPIDefinition, error) {
	if err := s.permissions.Check(session, OperationCreate); err != nil {
		return nil, err
	}
	in.Name = strings.TrimSpace(in.Name)
	if err := validateInput(in); err != nil {
		return nil, err
	}

	def := &domain.KPIDefinition{Name: in.Name, Unit: trimmedOrNil(in.Unit), Target: in.Target}
	if err := s.kpis.CreateDefinition(ctx, def); err != nil {
		return nil, err
	}
	return def, nil
}

// ListEntries returns the series of kpiID ordered by time, ready to chart.
func (s *KPIService) ListEntries(ctx context.Context, session *domain.Session, kpiID uuid.UUID) ([]domain.KPIEntry, error) {
	if err := s.permissions.Check(session, OperationView); err != nil {
		return nil, err
	}
	if _, err := s.kpis.GetDefinition(ctx, kpiID); err != nil {
		return nil, err
	}
	return s.kpis.ListEntries(ctx, kpiID)
}

func (s *KPIService) AddEntry(ctx context.Context, session *domain.Session, kpiID uuid.UUID, in domain.KPIEntryCreate) (*domain.KPIEntry, error) {
	if err := s.permissions.Check(session, OperationCreate); err != nil {
		return nil, err
	}
	if err := validateInput(in); err != nil {
		return nil, err
	}

	recordedAt, err := parseRecordedAt(in.RecordedAt)
	if err != nil {
		return nil, err
	}
	if _, err := s.kpis.GetDefinition(ctx, kpiID); err != nil {
		return nil, err
	}

	entry := &domain.KPIEntry{KPIID: kpiID, Value: *in.Value, RecordedAt: recordedAt}
	if err := s.kpis.AddEntry(ctx, entry); err != nil {
		return nil, err
	}

	logger.L().Info("kpi entry added", zap.String("kpi_id", kpiID.String()), zap.Float64("value", entry.Value))
	return entry, nil
}

func parseRecordedAt(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range recordedAtLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, apperror.New(apperror.CodeInvalid, "recorded_at must be a date (YYYY-MM-DD) or RFC 3339 timestamp")
}

var unsafeFileChars = regexp.MustCompile(`[^a-z0-9]+`)

// Export writes the entries of kpiID to an XLSX workbook and returns it with
// a suggested file name.
func (s *KPIService) Export(ctx context.Context, session *domain.Session, kpiID uuid.UUID) ([]byte, string, error) {
	if err := s.permissions.Check(session, OperationDownload); err != nil {
		return nil, "", err
	}

	def, err := s.kpis.GetDefinition(ctx, kpiID)
	if err != nil {
		return nil, "", err
	}
	entries, err := s.kpis.ListEntries(ctx, kpiID)
	if err != nil {
		return nil, "", err
	}

	data, err := buildKPIWorkbook(def, entries)
	if err != nil {
		return nil, "", apperror.Wrap(err, apperror.CodeInternal, "failed to build workbook")
	}

	name := strings.Trim(unsafeFileChars.ReplaceAllString(strings.ToLower(def.Name), "-"), "-")
	if name == "" {
		name = "kpi"
	}
	return data, name + ".xlsx", nil
}

func buildKPIWorkbook(def *domain.KPIDefinition, entries []domain.KPIEntry) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", kpiSheet); err != nil {
		return nil, fmt.Errorf("failed to rename sheet: %w", err)
	}

	unit := ""
	if def.Unit != nil {
		unit = *def.Unit
	}
	headers := []any{"Dato", "Verdi", "Enhet", "Mål"}
	if err := f.SetSheetRow(kpiSheet, "A1", &headers); err != nil {
		return nil, fmt.Errorf("failed to write header: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}
	if err := f.SetCellStyle(kpiSheet, "A1", "D1", headerStyle); err != nil {
		return nil, fmt.Errorf("failed to set header style: %w", err)
	}

	for i, e := range entries {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		row := []any{e.RecordedAt.Format("2006-01-02"), e.Value, unit, nil}
		if def.Target != nil {
			row[3] = *def.Target
		}
		if err := f.SetSheetRow(kpiSheet, cell, &row); err != nil {
			return nil, fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	if err := f.SetColWidth(kpiSheet, "A", "A", 14); err != nil {
		return nil, fmt.Errorf("failed to set column width: %w", err)
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

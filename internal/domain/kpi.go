package domain

import (
	"time"

	"github.com/google/uuid"
)

type KPIDefinition struct {
	ID     uuid.UUID `json:"id" db:"id"`
	Name   string    `json:"name" db:"name"`
	Unit   *string   `json:"unit,omitempty" db:"unit"`
	Target *float64  `json:"target,omitempty" db:"target"`
}

type KPIEntry struct {
	ID         uuid.UUID `json:"id" db:"id"`
	KPIID      uuid.UUID `json:"kpi_id" db:"kpi_id"`
	Value      float64   `json:"value" db:"value"`
	RecordedAt time.Time `json:"recorded_at" db:"recorded_at"`
}

type KPIDefinitionCreate struct {
	Name   string   `json:"name" validate:"required"`
	Unit   *string  `json:"unit,omitempty"`
	Target *float64 `json:"target,omitempty"`
}

type KPIEntryCreate struct {
	Value      *float64 `json:"value" validate:"required"`
	RecordedAt string   `json:"recorded_at" validate:"required"`
}

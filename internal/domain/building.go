package domain

import (
	"time"

	"github.com/google/uuid"
)

// Building is the root entity; FDV files and flows belong to it.
type Building struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Number    int       `json:"number" db:"number"`
	Name      *string   `json:"name,omitempty" db:"name"`
	Address   *string   `json:"address,omitempty" db:"address"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type BuildingCreate struct {
	Number  int     `json:"number" validate:"required,gt=0"`
	Name    *string `json:"name,omitempty"`
	Address *string `json:"address,omitempty"`
}

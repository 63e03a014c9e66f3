package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// FdvFile is the metadata row of a building document; the bytes live in
// blob storage under StoragePath.
type FdvFile struct {
	ID          uuid.UUID      `json:"id" db:"id"`
	BuildingID  uuid.UUID      `json:"building_id" db:"building_id"`
	FileName    string         `json:"file_name" db:"file_name"`
	StoragePath string         `json:"storage_path" db:"storage_path"`
	UploadedBy  *string        `json:"uploaded_by,omitempty" db:"uploaded_by"`
	UploadedAt  time.Time      `json:"uploaded_at" db:"uploaded_at"`
	Version     int            `json:"version" db:"version"`
	Tags        pq.StringArray `json:"tags" db:"tags"`
}

type SignedURL struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

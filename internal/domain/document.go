package domain

import (
	"time"

	"github.com/google/uuid"
)

// DocumentKind selects the table a document lives in.
type DocumentKind string

const (
	KindProcedure   DocumentKind = "procedure"
	KindInstruction DocumentKind = "instruction"
)

func (k DocumentKind) Table() string {
	switch k {
	case KindInstruction:
		return "instructions"
	default:
		return "procedures"
	}
}

// Document is a procedure or an instruction: a titled text with an external
// link and/or inline content. Flow nodes reference procedures by ID.
type Document struct {
	ID        uuid.UUID    `json:"id" db:"id"`
	Kind      DocumentKind `json:"kind" db:"-"`
	Code      *string      `json:"code,omitempty" db:"code"`
	Title     string       `json:"title" db:"title"`
	Link      *string      `json:"link,omitempty" db:"link"`
	Content   *string      `json:"content,omitempty" db:"content"`
	CreatedAt time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt time.Time    `json:"updated_at" db:"updated_at"`
}

type DocumentInput struct {
	Code    string `json:"code"`
	Title   string `json:"title"`
	Link    string `json:"link"`
	Content string `json:"content"`
}

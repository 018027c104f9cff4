package entity

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type CitationMode string

const (
	CitationModeCreate  CitationMode = "create"
	CitationModeConvert CitationMode = "convert"
)

// Citation is one rendered citation stored against a work session.
type Citation struct {
	Id         uuid.UUID
	HistoryId  uuid.UUID
	UserId     uuid.UUID
	Mode       CitationMode
	Identifier string
	InputText  string
	Metadata   json.RawMessage // nil for converted citations
	Style      string
	Text       string
	CreatedAt  time.Time
	UpdatedAt  *time.Time
	DeletedAt  *time.Time
	IsDeleted  bool
}
